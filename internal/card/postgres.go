package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps cards in Postgres, with designs in a JSONB column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile("schema/postgres.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, c *Card) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO cards (id, owner_id, title, design, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, c.ID, c.OwnerID, c.Title, string(c.Design), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("insert card %s: duplicate id: %w", c.ID, err)
		}
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Card, error) {
	var (
		c      Card
		design []byte
	)
	err := s.pool.QueryRow(ctx, `
        SELECT id, owner_id, title, design, created_at, updated_at
        FROM cards
        WHERE id = $1
    `, id).Scan(&c.ID, &c.OwnerID, &c.Title, &design, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Design = design
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]Card, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, owner_id, title, created_at, updated_at
        FROM cards
        WHERE owner_id = $1
        ORDER BY updated_at DESC, id
    `, ownerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Card, error) {
		var c Card
		err := row.Scan(&c.ID, &c.OwnerID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
		c.CreatedAt = c.CreatedAt.UTC()
		c.UpdatedAt = c.UpdatedAt.UTC()
		return c, err
	})
}

func (s *PostgresStore) UpdateDesign(ctx context.Context, id string, design []byte, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE cards SET design = $2, updated_at = $3 WHERE id = $1
    `, id, string(design), at)
	return rowsAffected(tag, err)
}

func (s *PostgresStore) UpdateTitle(ctx context.Context, id, title string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE cards SET title = $2, updated_at = $3 WHERE id = $1
    `, id, title, at)
	return rowsAffected(tag, err)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	return rowsAffected(tag, err)
}

func rowsAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
