package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cardstudio/cardstudio/internal/auth"
	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/thumbnail"
)

// maxDesignBytes bounds request bodies; embedded images make designs
// large but not unbounded.
const maxDesignBytes = 8 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the card routes on an authenticated router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/cards", h.List).Methods("GET")
	r.HandleFunc("/cards", h.Create).Methods("POST")
	r.HandleFunc("/cards/{cardId}", h.Get).Methods("GET")
	r.HandleFunc("/cards/{cardId}", h.Rename).Methods("PATCH")
	r.HandleFunc("/cards/{cardId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/cards/{cardId}/design", h.GetDesign).Methods("GET")
	r.HandleFunc("/cards/{cardId}/design", h.PutDesign).Methods("PUT")
	r.HandleFunc("/cards/{cardId}/thumbnail.png", h.Thumbnail).Methods("GET")
	r.HandleFunc("/templates", h.Templates).Methods("GET")
}

type createRequest struct {
	Title    string          `json:"title"`
	Template string          `json:"template"`
	Design   json.RawMessage `json:"design"`
}

type renameRequest struct {
	Title string `json:"title"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDesignBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	design := []byte(req.Design)
	if req.Template != "" {
		if len(design) > 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "give either template or design"})
			return
		}
		doc, err := document.Template(req.Template)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown template"})
			return
		}
		if design, err = doc.Marshal(); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	card, err := h.service.Create(r.Context(), userID, req.Title, design)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	cardID := mux.Vars(r)["cardId"]

	card, err := h.service.Get(r.Context(), cardID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	cards, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	cardID := mux.Vars(r)["cardId"]

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	card, err := h.service.Rename(r.Context(), cardID, userID, req.Title)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	cardID := mux.Vars(r)["cardId"]

	if err := h.service.Delete(r.Context(), cardID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetDesign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	cardID := mux.Vars(r)["cardId"]

	card, err := h.service.Get(r.Context(), cardID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(card.Design)
}

func (h *Handler) PutDesign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	cardID := mux.Vars(r)["cardId"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxDesignBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(body) > maxDesignBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "design too large"})
		return
	}

	if err := h.service.SaveDesign(r.Context(), cardID, userID, body); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	cardID := mux.Vars(r)["cardId"]

	width := thumbnail.DefaultMaxWidth
	if v := r.URL.Query().Get("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 16 || n > 2048 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "w must be between 16 and 2048"})
			return
		}
		width = n
	}

	doc, err := h.service.Document(r.Context(), cardID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := thumbnail.PNG(&buf, doc, width); err != nil {
		slog.Error("render thumbnail failed", "card", cardID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, document.TemplateNames())
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrInvalidDesign), errors.Is(err, ErrInvalidTitle):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
