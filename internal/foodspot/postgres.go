package foodspot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jayshxd/Open-Feast/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS food_spots (
		id                 TEXT PRIMARY KEY,
		title              TEXT NOT NULL DEFAULT '',
		description        TEXT NOT NULL DEFAULT '',
		latitude           DOUBLE PRECISION NOT NULL,
		longitude          DOUBLE PRECISION NOT NULL,
		image_url          TEXT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE','FINISHED','EXPIRED')),
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		verification_count INTEGER NOT NULL DEFAULT 0 CHECK (verification_count >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS food_spots_status_created_at_idx ON food_spots (status, created_at)`,
}

const selectListing = `
		SELECT id, title, description, latitude, longitude, image_url, status, created_at, verification_count
		FROM food_spots`

// created_at is never written after the INSERT.
const updateListing = `
		UPDATE food_spots
		SET title=$2, description=$3, latitude=$4, longitude=$5, image_url=$6, status=$7, verification_count=$8
		WHERE id=$1`

type PostgresStore struct {
	db db.Querier
}

func NewPostgresStore(db db.Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func EnsureSchema(ctx context.Context, q db.Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure food_spots schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, l Listing) (Listing, error) {
	l.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO food_spots (id, title, description, latitude, longitude, image_url, status, verification_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, l.ID, l.Title, l.Description, l.Latitude, l.Longitude, l.ImageURL, string(l.Status), l.VerificationCount)
	if err := row.Scan(&l.CreatedAt); err != nil {
		return Listing{}, fmt.Errorf("insert food spot: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Listing, error) {
	l, err := scanListing(s.db.QueryRow(ctx, selectListing+` WHERE id=$1`, id))
	if err != nil {
		return Listing{}, notFound(err)
	}
	return l, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Listing, error) {
	rows, err := s.db.Query(ctx, selectListing+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list food spots: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) Update(ctx context.Context, l Listing) error {
	tag, err := s.db.Exec(ctx, updateListing, updateArgs(l)...)
	if err != nil {
		return fmt.Errorf("update food spot %s: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Mutate locks the row with SELECT ... FOR UPDATE so concurrent votes on the
// same listing serialize instead of losing increments.
func (s *PostgresStore) Mutate(ctx context.Context, id string, fn func(*Listing) error) (Listing, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("begin food spot tx: %w", err)
	}

	l, err := scanListing(tx.QueryRow(ctx, selectListing+` WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		_ = tx.Rollback(ctx)
		return Listing{}, notFound(err)
	}
	if err := fn(&l); err != nil {
		_ = tx.Rollback(ctx)
		return Listing{}, err
	}
	if _, err := tx.Exec(ctx, updateListing, updateArgs(l)...); err != nil {
		_ = tx.Rollback(ctx)
		return Listing{}, fmt.Errorf("update food spot %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Listing{}, fmt.Errorf("commit food spot %s: %w", id, err)
	}
	return l, nil
}

func (s *PostgresStore) FindByStatusCreatedBefore(ctx context.Context, status Status, before time.Time) ([]Listing, error) {
	rows, err := s.db.Query(ctx, selectListing+`
		WHERE status=$1 AND created_at < $2
		ORDER BY created_at
	`, string(status), before)
	if err != nil {
		return nil, fmt.Errorf("find food spots by status: %w", err)
	}
	return collect(rows)
}

// BatchUpdate persists the status of every listing in one transaction. Other
// columns are left alone so a concurrent vote count is never rolled back.
func (s *PostgresStore) BatchUpdate(ctx context.Context, listings []Listing) error {
	if len(listings) == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch update: %w", err)
	}
	for _, l := range listings {
		if _, err := tx.Exec(ctx, `UPDATE food_spots SET status=$2 WHERE id=$1`, l.ID, string(l.Status)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("batch update food spot %s: %w", l.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch update: %w", err)
	}
	return nil
}

func updateArgs(l Listing) []any {
	return []any{l.ID, l.Title, l.Description, l.Latitude, l.Longitude, l.ImageURL, string(l.Status), l.VerificationCount}
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	var status string
	if err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Latitude, &l.Longitude, &l.ImageURL, &status, &l.CreatedAt, &l.VerificationCount); err != nil {
		return Listing{}, err
	}
	l.Status = Status(status)
	return l, nil
}

func collect(rows pgx.Rows) ([]Listing, error) {
	defer rows.Close()

	listings := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("load food spot: %w", err)
}
