package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/cardstudio/cardstudio/internal/auth"
	"github.com/cardstudio/cardstudio/internal/card"
	"github.com/cardstudio/cardstudio/internal/config"
	mw "github.com/cardstudio/cardstudio/internal/middleware"
	"github.com/cardstudio/cardstudio/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		slog.Error("invalid LOG_LEVEL", "value", cfg.LogLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("open card store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore.Close()

	authService, err := auth.NewService(cfg.JWTSecret, auth.DefaultTTL)
	if err != nil {
		slog.Error("auth service", "error", err)
		os.Exit(1)
	}
	authHandler := auth.NewHandler(authService)

	cardService := card.NewService(store, slog.Default())
	cardHandler := card.NewHandler(cardService)

	hub := session.NewHub(slog.Default())
	sessionHandler := session.NewHandler(hub, authService,
		func(userID string) session.Storage { return cardService.Writer(userID) },
		cfg.Origins(),
		session.Options{
			GridSize:     cfg.GridSize,
			HistoryLimit: cfg.HistoryLimit,
			Autosave:     cfg.AutosaveInterval,
			Logger:       slog.Default(),
		},
	)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Token refresh and identity; accounts themselves live elsewhere.
	authed := r.PathPrefix("/auth").Subrouter()
	authed.Use(authService.AuthMiddleware)
	authed.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")
	authed.HandleFunc("/me", authHandler.Me).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	cardHandler.Register(api)

	// Editor sessions authenticate from the query string.
	sessionHandler.Register(r)

	// Preflight for any route; CORS answers it before this runs.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		// Sessions first so their final saves still have a store.
		slog.Info("flushing editor sessions", "count", hub.Len())
		if err := hub.Shutdown(shutdownCtx); err != nil {
			slog.Error("session shutdown", "error", err)
		}
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (card.Store, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err := card.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		s, err := card.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}
