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

// UpsertMerge creates or updates the record for (userID, key) and returns it.
//
// No record: the new settings are settings.Defaults() with partial laid
// over it; a new ID is assigned and both timestamps are set to now.
//
// Existing record: partial is shallow-merged into the stored settings and
// updated_at is refreshed. ID and created_at are untouched. An empty
// partial only refreshes updated_at.
//
// The read and the write share one IMMEDIATE transaction. The insert uses
// ON CONFLICT(user_id, context_key) DO NOTHING; when another writer created
// the row first, the call merges into that row instead.
func (s *Store) UpsertMerge(ctx context.Context, userID string, key contextkey.Key, partial settings.Document) (Record, error) {
	if err := validatePartial(partial); err != nil {
		return Record{}, fmt.Errorf("upsert merge: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, unavailable("upsert merge: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	now := s.clock.Now()

	current, err := readRecord(ctx, tx, userID, key)
	switch {
	case errors.Is(err, ErrNotFound):
		if s.beforeCreate != nil {
			if err := s.beforeCreate(ctx, tx); err != nil {
				return Record{}, fmt.Errorf("upsert merge: %w", err)
			}
		}
		inserted, err := s.insertRecord(ctx, tx, userID, key, settings.Merge(settings.Defaults(), partial), now)
		if err != nil {
			return Record{}, fmt.Errorf("upsert merge: %w", err)
		}
		if inserted {
			break
		}
		// Lost the create race: merge into the row that won.
		s.logger.Debug("create raced, merging into existing record", "user_id", userID, "context_key", key)
		current, err = readRecord(ctx, tx, userID, key)
		if err != nil {
			return Record{}, fmt.Errorf("upsert merge: %w", err)
		}
		if err := mergeRecord(ctx, tx, current, partial, now); err != nil {
			return Record{}, fmt.Errorf("upsert merge: %w", err)
		}
	case err != nil:
		return Record{}, fmt.Errorf("upsert merge: %w", err)
	default:
		if err := mergeRecord(ctx, tx, current, partial, now); err != nil {
			return Record{}, fmt.Errorf("upsert merge: %w", err)
		}
	}

	rec, err := readRecord(ctx, tx, userID, key)
	if err != nil {
		return Record{}, fmt.Errorf("upsert merge: read back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, unavailable("upsert merge: commit", err)
	}

	return rec, nil
}

// GetOrCreate returns the record for (userID, key), creating it from
// settings.Defaults() when absent. An existing record is returned as stored;
// its updated_at is not refreshed.
func (s *Store) GetOrCreate(ctx context.Context, userID string, key contextkey.Key) (Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, unavailable("get or create: begin tx", err)
	}
	defer tx.Rollback()

	if _, err := s.insertRecord(ctx, tx, userID, key, settings.Defaults(), s.clock.Now()); err != nil {
		return Record{}, fmt.Errorf("get or create: %w", err)
	}

	rec, err := readRecord(ctx, tx, userID, key)
	if err != nil {
		return Record{}, fmt.Errorf("get or create: read back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, unavailable("get or create: commit", err)
	}

	return rec, nil
}

// Seed inserts the bootstrap record for rootKey if, and only if, the store
// holds no records at all. It reports whether a record was inserted.
//
// The bootstrap record belongs to DefaultUserID and carries
// settings.Defaults(). Seed guards against an empty store on first run; it is
// not a migration mechanism.
func (s *Store) Seed(ctx context.Context, rootKey contextkey.Key) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, unavailable("seed: begin tx", err)
	}
	defer tx.Rollback()

	n, err := countRecords(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	inserted, err := s.insertRecord(ctx, tx, DefaultUserID, rootKey, settings.Defaults(), s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, unavailable("seed: commit", err)
	}

	if inserted {
		s.logger.Info("seeded default layout", "user_id", DefaultUserID, "context_key", rootKey)
	}
	return inserted, nil
}

// insertRecord inserts a new row. Returns inserted=false when a row for
// (userID, key) already exists; the existing row is left untouched.
func (s *Store) insertRecord(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
	key contextkey.Key,
	doc settings.Document,
	now time.Time,
) (inserted bool, err error) {
	settingsJSON, err := marshalSettings(doc)
	if err != nil {
		return false, fmt.Errorf("insert record: %w", err)
	}

	id := s.ids.Generate()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO layout_state
		(id, user_id, context_key, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, context_key) DO NOTHING
	`,
		id,
		userID,
		string(key),
		settingsJSON,
		now,
		now,
	)
	if err != nil {
		return false, unavailable("insert record", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, unavailable("insert record: rows affected", err)
	}

	if rowsAffected > 0 {
		s.logger.Debug("layout record created", "id", id, "user_id", userID, "context_key", key)
	}
	return rowsAffected > 0, nil
}

// mergeRecord shallow-merges partial into current and refreshes updated_at.
func mergeRecord(ctx context.Context, tx *sql.Tx, current Record, partial settings.Document, now time.Time) error {
	settingsJSON, err := marshalSettings(settings.Merge(current.Settings, partial))
	if err != nil {
		return fmt.Errorf("merge record: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE layout_state
		SET settings = ?, updated_at = ?
		WHERE id = ?
	`, settingsJSON, now, current.ID)
	if err != nil {
		return unavailable("merge record", err)
	}
	return nil
}
