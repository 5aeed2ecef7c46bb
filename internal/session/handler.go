package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/cardstudio/cardstudio/internal/auth"
	"github.com/cardstudio/cardstudio/internal/card"
)

// NewCardID is the path segment that opens an editor on a card that does
// not exist yet; the first save creates it.
const NewCardID = "new"

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

type Handler struct {
	hub     *Hub
	tokens  TokenValidator
	storage func(userID string) Storage
	origins []string
	opts    Options
	log     *slog.Logger
}

// NewHandler serves editor sessions. storage returns the card store acting
// for a user; origins are the websocket origin patterns accepted besides
// the request's own host.
func NewHandler(hub *Hub, tokens TokenValidator, storage func(userID string) Storage, origins []string, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{hub: hub, tokens: tokens, storage: storage, origins: origins, opts: opts, log: log}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/ws/cards/{cardId}", h.ServeWS)
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromRequest(r)
	if !ok {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := h.tokens.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	cardID := mux.Vars(r)["cardId"]
	if cardID == NewCardID {
		cardID = ""
	}
	store := h.storage(userID)

	var design []byte
	if cardID != "" {
		if h.hub.Busy(cardID) {
			http.Error(w, ErrBusy.Error(), http.StatusConflict)
			return
		}
		design, err = store.Load(r.Context(), cardID)
		switch {
		case errors.Is(err, card.ErrNotFound):
			http.Error(w, "card not found", http.StatusNotFound)
			return
		case errors.Is(err, card.ErrForbidden):
			http.Error(w, "not your card", http.StatusForbidden)
			return
		case err != nil:
			h.log.Error("load card", "card", cardID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Error("websocket accept", "error", err)
		return
	}

	sessionID := uuid.NewString()
	client := NewClient(conn, h.log.With("session", sessionID, "user", userID))
	s := New(sessionID, userID, store, client, h.opts)
	if cardID != "" {
		s.Open(cardID, design)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if err := h.hub.Start(ctx, s); err != nil {
		// Lost a race with another connection for the same card.
		conn.Close(websocket.StatusTryAgainLater, err.Error())
		return
	}
	go func() {
		select {
		case <-s.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	go client.WritePump(ctx)
	client.ReadPump(ctx, s)
	cancel()
	<-s.Done()
}
