// Package layout connects callers to the layout store. It applies the
// boundary defaults (user, device, path), derives the context key and
// performs the lazy create that a first read implies.
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/slipstream/internal/contextkey"
	"github.com/roach88/slipstream/internal/settings"
	"github.com/roach88/slipstream/internal/store"
)

// Boundary defaults.
const (
	DefaultUserID = store.DefaultUserID
	DefaultDevice = "desktop"
	DefaultPath   = "/"
)

// Store is the subset of *store.Store the service needs.
type Store interface {
	Get(ctx context.Context, userID string, key contextkey.Key) (store.Record, error)
	GetOrCreate(ctx context.Context, userID string, key contextkey.Key) (store.Record, error)
	UpsertMerge(ctx context.Context, userID string, key contextkey.Key, partial settings.Document) (store.Record, error)
	Seed(ctx context.Context, rootKey contextkey.Key) (bool, error)
	Ping(ctx context.Context) error
}

// Request identifies a layout context as the caller sees it. Empty fields
// take the boundary defaults.
type Request struct {
	UserID string
	Path   string
	Device string
}

// Resolve applies defaults and returns the store address for r.
// The path is NFC-normalized so that precomposed and decomposed spellings
// of the same path share one context.
func (r Request) Resolve() (userID string, key contextkey.Key) {
	userID = r.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	path := r.Path
	if path == "" {
		path = DefaultPath
	}
	device := r.Device
	if device == "" {
		device = DefaultDevice
	}
	return userID, contextkey.Derive(norm.NFC.String(path), device)
}

// RootKey is the context key of the bootstrap record.
func RootKey() contextkey.Key {
	return contextkey.Derive(DefaultPath, DefaultDevice)
}

// Service serves layout reads and updates.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService returns a Service over st. A nil logger discards output.
func NewService(st Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, logger: logger}
}

// Load returns the layout for r, creating it from the defaults if the
// context has never been saved. A read never refreshes updated_at, even
// when it races another first read of the same context.
func (s *Service) Load(ctx context.Context, r Request) (store.Record, error) {
	userID, key := r.Resolve()

	rec, err := s.store.Get(ctx, userID, key)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Record{}, fmt.Errorf("load layout: %w", err)
	}

	rec, err = s.store.GetOrCreate(ctx, userID, key)
	if err != nil {
		return store.Record{}, fmt.Errorf("load layout: %w", err)
	}
	s.logger.Debug("created layout on first read", "user_id", userID, "context_key", key)
	return rec, nil
}

// Update merges partial into the layout for r and returns the result.
func (s *Service) Update(ctx context.Context, r Request, partial settings.Document) (store.Record, error) {
	userID, key := r.Resolve()

	rec, err := s.store.UpsertMerge(ctx, userID, key, partial)
	if err != nil {
		return store.Record{}, fmt.Errorf("update layout: %w", err)
	}
	s.logger.Debug("updated layout", "user_id", userID, "context_key", key, "keys", partial.Keys())
	return rec, nil
}

// Bootstrap seeds the root layout if the store is empty.
func (s *Service) Bootstrap(ctx context.Context) (bool, error) {
	seeded, err := s.store.Seed(ctx, RootKey())
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	return seeded, nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
