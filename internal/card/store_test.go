package card

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "cards.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	testStore(t, openTestSQLite(t))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("CARDSTUDIO_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CARDSTUDIO_TEST_DATABASE_URL not set")
	}
	s, err := OpenPostgres(context.Background(), url)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(context.Background(), `DELETE FROM cards WHERE owner_id LIKE 'test_%'`)
		s.Close()
	})
	testStore(t, s)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.db")
	ctx := context.Background()
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.Insert(ctx, &Card{ID: "card_keep", OwnerID: "u", Design: []byte(`{}`), CreatedAt: at, UpdatedAt: at}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(ctx, "card_keep"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

// testStore checks the Store contract against a fresh, empty store.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	owner := "test_" + time.Now().Format("150405.000000")
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cards := []*Card{
		{ID: owner + "_a", OwnerID: owner, Title: "A", Design: []byte(`{"width":1}`), CreatedAt: t0, UpdatedAt: t0},
		{ID: owner + "_b", OwnerID: owner, Title: "B", Design: []byte(`{"width":2}`), CreatedAt: t0, UpdatedAt: t0.Add(time.Minute)},
		{ID: owner + "_c", OwnerID: "test_other", Title: "C", Design: []byte(`{}`), CreatedAt: t0, UpdatedAt: t0},
	}
	for _, c := range cards {
		if err := s.Insert(ctx, c); err != nil {
			t.Fatalf("Insert %s: %v", c.ID, err)
		}
	}
	if err := s.Insert(ctx, cards[0]); err == nil {
		t.Fatalf("duplicate insert accepted")
	}

	got, err := s.Get(ctx, cards[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "A" || got.OwnerID != owner || !got.CreatedAt.Equal(t0) {
		t.Fatalf("Get = %+v", got)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing err = %v", err)
	}

	list, err := s.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 2 || list[0].ID != cards[1].ID || list[0].Design != nil {
		t.Fatalf("list = %+v", list)
	}

	t1 := t0.Add(time.Hour)
	if err := s.UpdateDesign(ctx, cards[0].ID, []byte(`{"width":9}`), t1); err != nil {
		t.Fatalf("UpdateDesign: %v", err)
	}
	if err := s.UpdateTitle(ctx, cards[0].ID, "A2", t1); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	got, _ = s.Get(ctx, cards[0].ID)
	if got.Title != "A2" || !got.UpdatedAt.Equal(t1) || len(got.Design) == 0 {
		t.Fatalf("after update = %+v", got)
	}
	list, _ = s.ListByOwner(ctx, owner)
	if list[0].ID != cards[0].ID {
		t.Fatalf("most recently updated not first: %s", list[0].ID)
	}

	for _, err := range []error{
		s.UpdateDesign(ctx, "missing", []byte(`{}`), t1),
		s.UpdateTitle(ctx, "missing", "x", t1),
		s.Delete(ctx, "missing"),
	} {
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("missing id err = %v", err)
		}
	}

	if err := s.Delete(ctx, cards[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, cards[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted card still there: %v", err)
	}
}
