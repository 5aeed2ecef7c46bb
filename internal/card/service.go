// Package card persists business-card designs for their owners. The
// editor saves through it; listings and thumbnails read from it.
package card

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cardstudio/cardstudio/internal/document"
	"github.com/cardstudio/cardstudio/internal/typeid"
)

var (
	ErrNotFound      = errors.New("card not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidDesign = errors.New("invalid design")
	ErrInvalidTitle  = errors.New("invalid title")
)

//go:embed schema/*.sql
var schemaFS embed.FS

// DefaultTitle names cards created without one.
const DefaultTitle = "Untitled card"

const maxTitleLen = 200

type Card struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Title     string          `json:"title"`
	Design    json.RawMessage `json:"design,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store is the card table. Get, UpdateDesign, UpdateTitle and Delete
// return ErrNotFound for unknown ids. ListByOwner leaves Design empty.
type Store interface {
	Insert(ctx context.Context, c *Card) error
	Get(ctx context.Context, id string) (*Card, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Card, error)
	UpdateDesign(ctx context.Context, id string, design []byte, at time.Time) error
	UpdateTitle(ctx context.Context, id, title string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Create stores a new card. An empty design starts from a blank canvas;
// anything else must load as a design and is stored normalized.
func (s *Service) Create(ctx context.Context, ownerID, title string, design []byte) (*Card, error) {
	data, err := normalize(design)
	if err != nil {
		return nil, err
	}
	title, err = cleanTitle(title)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &Card{
		ID:        typeid.NewCardID(),
		OwnerID:   ownerID,
		Title:     title,
		Design:    data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	s.log.Info("card created", "card", c.ID, "owner", ownerID)
	return c, nil
}

func (s *Service) Get(ctx context.Context, cardID, userID string) (*Card, error) {
	return s.owned(ctx, cardID, userID)
}

func (s *Service) List(ctx context.Context, userID string) ([]Card, error) {
	cards, err := s.store.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	if cards == nil {
		cards = []Card{}
	}
	return cards, nil
}

// SaveDesign replaces a card's design.
func (s *Service) SaveDesign(ctx context.Context, cardID, userID string, design []byte) error {
	if _, err := s.owned(ctx, cardID, userID); err != nil {
		return err
	}
	if len(design) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidDesign)
	}
	data, err := normalize(design)
	if err != nil {
		return err
	}
	if err := s.store.UpdateDesign(ctx, cardID, data, s.now().UTC()); err != nil {
		return fmt.Errorf("save design: %w", err)
	}
	return nil
}

func (s *Service) Rename(ctx context.Context, cardID, userID, title string) (*Card, error) {
	c, err := s.owned(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}
	title, err = cleanTitle(title)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.store.UpdateTitle(ctx, cardID, title, now); err != nil {
		return nil, fmt.Errorf("rename card: %w", err)
	}
	c.Title = title
	c.UpdatedAt = now
	return c, nil
}

func (s *Service) Delete(ctx context.Context, cardID, userID string) error {
	if _, err := s.owned(ctx, cardID, userID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, cardID); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	s.log.Info("card deleted", "card", cardID, "owner", userID)
	return nil
}

// Document loads a card's design.
func (s *Service) Document(ctx context.Context, cardID, userID string) (*document.Document, error) {
	c, err := s.owned(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}
	doc, err := document.Load(c.Design)
	if err != nil {
		return nil, fmt.Errorf("card %s: %w", cardID, err)
	}
	return doc, nil
}

func (s *Service) owned(ctx context.Context, cardID, userID string) (*Card, error) {
	if typeid.Validate(cardID, typeid.PrefixCard) != nil {
		return nil, ErrNotFound
	}
	c, err := s.store.Get(ctx, cardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	if c.OwnerID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

func normalize(design []byte) ([]byte, error) {
	doc := document.NewEmptyDocument(typeid.NewLayerID())
	if len(design) > 0 {
		var err error
		if doc, err = document.Load(design); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDesign, err)
		}
	}
	return doc.Marshal()
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle, nil
	}
	if len(title) > maxTitleLen {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidTitle, maxTitleLen)
	}
	return title, nil
}

// Writer saves editor designs as cards owned by one user. It is the
// editor's persistence collaborator.
type Writer struct {
	svc   *Service
	owner string
}

func (s *Service) Writer(ownerID string) *Writer {
	return &Writer{svc: s, owner: ownerID}
}

// Create stores a design as a new card and returns its id.
func (w *Writer) Create(ctx context.Context, data []byte) (string, error) {
	c, err := w.svc.Create(ctx, w.owner, "", data)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (w *Writer) Update(ctx context.Context, id string, data []byte) error {
	return w.svc.SaveDesign(ctx, id, w.owner, data)
}

// Load returns the stored design of one of the owner's cards.
func (w *Writer) Load(ctx context.Context, id string) ([]byte, error) {
	c, err := w.svc.Get(ctx, id, w.owner)
	if err != nil {
		return nil, err
	}
	return c.Design, nil
}
