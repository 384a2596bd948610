// Package store provides SQLite-backed durable storage for layout state.
//
// Each row of layout_state holds the settings document for one
// (user_id, context_key) pair. Rows are created lazily, merged in place and
// never deleted.
//
// # Invariants
//
// Uniqueness: UNIQUE(user_id, context_key) allows at most one record per
// pair. UpsertMerge runs its existence check and its insert-or-update in a
// single IMMEDIATE transaction, and inserts with
// ON CONFLICT(user_id, context_key) DO NOTHING. A creator that loses a race
// merges into the winner's row instead of failing. GetOrCreate uses the same
// insert but never touches an existing row, so a racing first read leaves
// updated_at alone.
//
// Atomicity: every mutation is one transaction bound to the caller's
// context. A cancelled caller rolls back; a committed write is whole.
//
// Merge: shallow, see settings.Merge.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - _txlock=immediate: transactions take the write lock at BEGIN
//
// # Errors
//
// ErrNotFound marks the documented absent case of Get. ErrValidation marks
// a settings payload that is not a flat document of primitives.
// ErrUnavailable wraps every storage failure, including corrupt stored
// documents and cancelled transactions.
package store
