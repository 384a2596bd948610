package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_user_context'",
	).Scan(&name)
	if err != nil {
		t.Errorf("unique index not found after idempotent opens: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_SetsSchemaVersion(t *testing.T) {
	s, _ := createTestStore(t)

	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_MigratesLegacyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A database created before the unique index existed.
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() failed: %v", err)
	}
	_, err = raw.Exec(`
		CREATE TABLE layout_state (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT 'default',
			context_key TEXT NOT NULL,
			settings TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		INSERT INTO layout_state (id, context_key, settings)
		VALUES ('legacy-1', 'aaaaaaaaaaaaaaaa', '{"theme":"dark"}');
	`)
	if err != nil {
		t.Fatalf("legacy setup failed: %v", err)
	}
	raw.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() on legacy database failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}

	_, err = s.db.Exec(`
		INSERT INTO layout_state (id, user_id, context_key) VALUES ('legacy-2', 'default', 'aaaaaaaaaaaaaaaa')
	`)
	if err == nil {
		t.Error("duplicate (user_id, context_key) insert should violate the unique index")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"layout.db", "layout.db?_txlock=immediate"},
		{":memory:", ":memory:?_txlock=immediate"},
		{"file:layout.db?cache=shared", "file:layout.db?cache=shared&_txlock=immediate"},
		{"file:layout.db?mode=rwc&cache=private", "file:layout.db?mode=rwc&cache=private&_txlock=immediate"},
	}

	for _, tt := range tests {
		if got := dsn(tt.path); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestOpen_URIWithQueryString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uri.db")

	s, err := Open("file:" + path + "?mode=rwc")
	if err != nil {
		t.Fatalf("Open() with query string failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created at the URI path")
	}
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s, _ := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s, _ := createTestStore(t)

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s, _ := createTestStore(t)

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestSchema_Defaults(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO layout_state (id, context_key) VALUES ('row-1', 'bbbbbbbbbbbbbbbb')`)
	if err != nil {
		t.Fatalf("insert with defaults failed: %v", err)
	}

	var userID, settingsJSON string
	var createdAt, updatedAt sql.NullTime
	err = s.db.QueryRow(
		"SELECT user_id, settings, created_at, updated_at FROM layout_state WHERE id = 'row-1'",
	).Scan(&userID, &settingsJSON, &createdAt, &updatedAt)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}

	if userID != "default" {
		t.Errorf("user_id default = %q, want %q", userID, "default")
	}
	if settingsJSON != "{}" {
		t.Errorf("settings default = %q, want %q", settingsJSON, "{}")
	}
	if !createdAt.Valid || !updatedAt.Valid {
		t.Error("timestamps should default to CURRENT_TIMESTAMP")
	}
}
