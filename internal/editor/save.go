package editor

import (
	"context"
	"fmt"

	"github.com/cardstudio/cardstudio/internal/document"
)

// Store is the persistence collaborator. Create is used while the design
// has no card id yet; afterwards every save is an Update.
type Store interface {
	Create(ctx context.Context, data []byte) (string, error)
	Update(ctx context.Context, id string, data []byte) error
}

// SaveStatus is the outcome of the most recent save.
type SaveStatus int

const (
	SaveIdle SaveStatus = iota
	SaveInFlight
	SaveOK
	SaveFailed
)

func (s SaveStatus) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SaveInFlight:
		return "saving"
	case SaveOK:
		return "saved"
	case SaveFailed:
		return "failed"
	}
	return fmt.Sprintf("SaveStatus(%d)", int(s))
}

type saveState struct {
	status   SaveStatus
	err      error
	cardID   string
	savedRev int
	// gen changes whenever a new design is loaded, so a save that finishes
	// after a reload cannot mark the new design clean.
	gen int
}

// SaveRequest is a serialized design ready to hand to a Store.
type SaveRequest struct {
	CardID string
	Data   []byte
	rev    int
	gen    int
}

// CardID is the identity saves go to; empty until the first create.
func (c *Controller) CardID() string { return c.save.cardID }

// SetCardID binds the design to an existing card.
func (c *Controller) SetCardID(id string) { c.save.cardID = id }

// SaveStatus reports the last save outcome and its error when it failed.
func (c *Controller) SaveStatus() (SaveStatus, error) { return c.save.status, c.save.err }

// Document returns the committed design. A gesture in progress is never
// included.
func (c *Controller) Document() *document.Document {
	snap := c.committed
	return &document.Document{
		Width:           snap.Canvas.Width,
		Height:          snap.Canvas.Height,
		BackgroundColor: snap.Canvas.Background,
		Layers:          snap.Scene.Layers(),
		Elements:        snap.Scene.Elements(),
	}
}

// PrepareSave serializes the committed design and marks a save in flight.
func (c *Controller) PrepareSave() (SaveRequest, error) {
	data, err := c.Document().Marshal()
	if err != nil {
		return SaveRequest{}, fmt.Errorf("serialize design: %w", err)
	}
	c.save.status = SaveInFlight
	c.save.err = nil
	return SaveRequest{CardID: c.save.cardID, Data: data, rev: c.rev, gen: c.save.gen}, nil
}

// FinishSave records the outcome of a request from PrepareSave. On failure
// the scene is left as it is and the design stays dirty so the save can be
// retried.
func (c *Controller) FinishSave(req SaveRequest, cardID string, err error) {
	if req.gen != c.save.gen {
		return
	}
	if err != nil {
		c.save.status = SaveFailed
		c.save.err = err
		c.log.Warn("save failed", "card", req.CardID, "error", err)
		return
	}
	if c.save.cardID == "" {
		c.save.cardID = cardID
	}
	c.save.status = SaveOK
	c.save.err = nil
	c.save.savedRev = req.rev
	c.log.Info("design saved", "card", c.save.cardID, "bytes", len(req.Data))
}

// Perform sends req to the store, creating the card when req has no id.
// It returns the card id.
func Perform(ctx context.Context, store Store, req SaveRequest) (string, error) {
	if req.CardID == "" {
		id, err := store.Create(ctx, req.Data)
		if err != nil {
			return "", fmt.Errorf("create card: %w", err)
		}
		return id, nil
	}
	if err := store.Update(ctx, req.CardID, req.Data); err != nil {
		return req.CardID, fmt.Errorf("update card %s: %w", req.CardID, err)
	}
	return req.CardID, nil
}

// Save runs a whole save synchronously.
func (c *Controller) Save(ctx context.Context, store Store) error {
	req, err := c.PrepareSave()
	if err != nil {
		c.FinishSave(SaveRequest{gen: c.save.gen}, "", err)
		return err
	}
	id, err := Perform(ctx, store, req)
	c.FinishSave(req, id, err)
	return err
}
