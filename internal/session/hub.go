package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	// ErrBusy means the card is already open in another session. Each card
	// has at most one writer.
	ErrBusy = errors.New("card is open in another session")
	// ErrShutdown is returned by Start once Shutdown has begun.
	ErrShutdown = errors.New("hub is shutting down")
)

type entry struct {
	session *Session
	cancel  context.CancelFunc
}

// Hub tracks the running sessions and which card each one writes to.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*entry // session id -> entry
	cards    map[string]string // card id -> session id
	closed   bool
	wg       sync.WaitGroup
	log      *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]*entry),
		cards:    make(map[string]string),
		log:      log,
	}
}

// Busy reports whether a session is writing to cardID.
func (h *Hub) Busy(cardID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.cards[cardID]
	return ok
}

// Len is the number of running sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Start registers s and runs it until ctx is cancelled or Shutdown is
// called. It fails with ErrBusy when the card s was opened on already has
// a session.
func (h *Hub) Start(ctx context.Context, s *Session) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrShutdown
	}
	if card := s.CardID(); card != "" {
		if _, ok := h.cards[card]; ok {
			h.mu.Unlock()
			return ErrBusy
		}
		h.cards[card] = s.ID
	}
	ctx, cancel := context.WithCancel(ctx)
	h.sessions[s.ID] = &entry{session: s, cancel: cancel}
	s.bind = func(cardID string) error { return h.claim(cardID, s.ID) }
	h.wg.Add(1)
	h.mu.Unlock()

	h.log.Info("session started", "session", s.ID, "user", s.UserID, "card", s.CardID())
	go func() {
		defer h.wg.Done()
		defer cancel()
		s.Run(ctx)
		h.release(s.ID)
		h.log.Info("session ended", "session", s.ID)
	}()
	return nil
}

func (h *Hub) claim(cardID, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if owner, ok := h.cards[cardID]; ok && owner != sessionID {
		return ErrBusy
	}
	h.cards[cardID] = sessionID
	return nil
}

func (h *Hub) release(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
	for card, id := range h.cards {
		if id == sessionID {
			delete(h.cards, card)
		}
	}
}

// Shutdown stops every session and waits for their final saves, or for ctx
// to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for _, e := range h.sessions {
		e.cancel()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
