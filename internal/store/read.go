package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/slipstream/internal/contextkey"
	"github.com/roach88/slipstream/internal/settings"
)

// Record is one persisted layout: the settings document for a
// (user, context) pair.
type Record struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	ContextKey contextkey.Key    `json:"context_key"`
	Settings   settings.Document `json:"settings"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Get returns the record for (userID, key).
// Returns ErrNotFound if none exists; Get never creates a record.
func (s *Store) Get(ctx context.Context, userID string, key contextkey.Key) (Record, error) {
	rec, err := readRecord(ctx, s.db, userID, key)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	return countRecords(ctx, s.db)
}

func countRecords(ctx context.Context, q queryRower) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM layout_state").Scan(&n); err != nil {
		return 0, unavailable("count records", err)
	}
	return n, nil
}

// readRecord loads a single record through q, which may be a transaction.
func readRecord(ctx context.Context, q queryRower, userID string, key contextkey.Key) (Record, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, user_id, context_key, settings, created_at, updated_at
		FROM layout_state
		WHERE user_id = ? AND context_key = ?
	`, userID, string(key))

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("read record (user=%s, context=%s): %w", userID, key, ErrNotFound)
	}
	if err != nil {
		return Record{}, unavailable("read record", err)
	}
	return rec, nil
}

// scanRecord scans a row into a Record.
func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var contextKey, settingsJSON string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(
		&rec.ID, &rec.UserID, &contextKey, &settingsJSON, &createdAt, &updatedAt,
	); err != nil {
		return Record{}, err
	}

	doc, err := unmarshalSettings(settingsJSON)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}

	rec.ContextKey = contextkey.Key(contextKey)
	rec.Settings = doc
	rec.CreatedAt = createdAt.Time.UTC()
	rec.UpdatedAt = updatedAt.Time.UTC()
	return rec, nil
}
