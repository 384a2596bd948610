package store

import (
	"context"
)

// List returns every record owned by userID, ordered by context key.
// A user with no records yields an empty, non-nil slice.
func (s *Store) List(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, context_key, settings, created_at, updated_at
		FROM layout_state
		WHERE user_id = ?
		ORDER BY context_key
	`, userID)
	if err != nil {
		return nil, unavailable("list records", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, unavailable("scan record", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate records", err)
	}

	return records, nil
}

// Users returns the distinct user IDs that own at least one record,
// ordered alphabetically.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM layout_state
		ORDER BY user_id
	`)
	if err != nil {
		return nil, unavailable("list users", err)
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, unavailable("scan user", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate users", err)
	}

	return users, nil
}
