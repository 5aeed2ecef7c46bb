package card

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore keeps cards in a single SQLite file. Timestamps are stored
// as Unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile("schema/sqlite.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, c *Card) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO cards (id, owner_id, title, design, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, c.ID, c.OwnerID, c.Title, string(c.Design), c.CreatedAt.UnixMilli(), c.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Card, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, owner_id, title, design, created_at, updated_at
        FROM cards
        WHERE id = ?
    `, id)

	var (
		c                Card
		design           string
		created, updated int64
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Title, &design, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Design = []byte(design)
	c.CreatedAt = time.UnixMilli(created).UTC()
	c.UpdatedAt = time.UnixMilli(updated).UTC()
	return &c, nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, ownerID string) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, owner_id, title, created_at, updated_at
        FROM cards
        WHERE owner_id = ?
        ORDER BY updated_at DESC, id
    `, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		var (
			c                Card
			created, updated int64
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Title, &created, &updated); err != nil {
			return nil, err
		}
		c.CreatedAt = time.UnixMilli(created).UTC()
		c.UpdatedAt = time.UnixMilli(updated).UTC()
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *SQLiteStore) UpdateDesign(ctx context.Context, id string, design []byte, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE cards SET design = ?, updated_at = ? WHERE id = ?
    `, string(design), at.UnixMilli(), id)
	return affected(res, err)
}

func (s *SQLiteStore) UpdateTitle(ctx context.Context, id, title string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE cards SET title = ?, updated_at = ? WHERE id = ?
    `, title, at.UnixMilli(), id)
	return affected(res, err)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	return affected(res, err)
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
