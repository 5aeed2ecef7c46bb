package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cardstudio/cardstudio/internal/protocol"
)

func openOn(store *memStorage, id, cardID string) (*Session, *recorder) {
	rec := newRecorder()
	s := New(id, "u1", store, rec, Options{Logger: discard})
	if cardID != "" {
		s.Open(cardID, store.designs[cardID])
	}
	return s, rec
}

func shutdown(t *testing.T, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestHubSingleWriter(t *testing.T) {
	store := newMemStorage()
	store.designs["card_a"] = []byte(twoRects)
	hub := NewHub(discard)
	ctx := context.Background()

	first, _ := openOn(store, "s1", "card_a")
	if err := hub.Start(ctx, first); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !hub.Busy("card_a") {
		t.Fatalf("card_a not busy")
	}

	second, _ := openOn(store, "s2", "card_a")
	if err := hub.Start(ctx, second); !errors.Is(err, ErrBusy) {
		t.Fatalf("second writer err = %v", err)
	}

	fresh, _ := openOn(store, "s3", "")
	if err := hub.Start(ctx, fresh); err != nil {
		t.Fatalf("Start new card: %v", err)
	}
	if hub.Len() != 2 {
		t.Fatalf("Len = %d", hub.Len())
	}

	shutdown(t, hub)
	if hub.Busy("card_a") || hub.Len() != 0 {
		t.Fatalf("after shutdown busy %v len %d", hub.Busy("card_a"), hub.Len())
	}
	late, _ := openOn(store, "s4", "card_a")
	if err := hub.Start(ctx, late); !errors.Is(err, ErrShutdown) {
		t.Fatalf("start after shutdown err = %v", err)
	}
}

func TestHubReleasesEndedSession(t *testing.T) {
	store := newMemStorage()
	store.designs["card_a"] = []byte(twoRects)
	hub := NewHub(discard)
	defer shutdown(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	s, _ := openOn(store, "s1", "card_a")
	if err := hub.Start(ctx, s); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	<-s.Done()

	deadline := time.Now().Add(waitTimeout)
	for hub.Busy("card_a") {
		if time.Now().After(deadline) {
			t.Fatal("card_a still busy after its session ended")
		}
		time.Sleep(time.Millisecond)
	}
	again, _ := openOn(store, "s2", "card_a")
	if err := hub.Start(context.Background(), again); err != nil {
		t.Fatalf("reopen: %v", err)
	}
}

func TestHubClaimsCreatedCard(t *testing.T) {
	store := newMemStorage()
	hub := NewHub(discard)
	defer shutdown(t, hub)

	s, rec := openOn(store, "s1", "")
	if err := hub.Start(context.Background(), s); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Deliver(context.Background(), protocol.Message{Type: protocol.TypeElementAdd, Payload: []byte(`{"shape":"rect"}`)})
	s.Deliver(context.Background(), protocol.Message{Type: protocol.TypeSave})
	rec.next(t, protocol.TypeSaveOK)

	if !hub.Busy("card_1") {
		t.Fatalf("created card not claimed")
	}
	other, _ := openOn(store, "s2", "card_1")
	if err := hub.Start(context.Background(), other); !errors.Is(err, ErrBusy) {
		t.Fatalf("second writer on created card err = %v", err)
	}
}

func TestShutdownFlushesDirtySessions(t *testing.T) {
	store := newMemStorage()
	store.designs["card_a"] = []byte(twoRects)
	hub := NewHub(discard)

	s, rec := openOn(store, "s1", "card_a")
	if err := hub.Start(context.Background(), s); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Deliver(context.Background(), protocol.Message{Type: protocol.TypeBackgroundSet, Seq: 1, Payload: []byte(`{"color":"navy"}`)})
	rec.ack(t, 1)

	shutdown(t, hub)
	if doc := store.doc(t, "card_a"); doc.BackgroundColor != "#000080" {
		t.Fatalf("background = %q", doc.BackgroundColor)
	}
}
