package layout

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slipstream/internal/clock"
	"github.com/roach88/slipstream/internal/contextkey"
	"github.com/roach88/slipstream/internal/settings"
	"github.com/roach88/slipstream/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(
		filepath.Join(t.TempDir(), "layout.db"),
		store.WithClock(clock.Fake(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, nil), st
}

func TestResolveDefaults(t *testing.T) {
	userID, key := Request{}.Resolve()
	assert.Equal(t, "default", userID)
	assert.Equal(t, contextkey.Derive("/", "desktop"), key)
	assert.Equal(t, RootKey(), key)
}

func TestResolveExplicit(t *testing.T) {
	userID, key := Request{UserID: "alice", Path: "/docs", Device: "mobile"}.Resolve()
	assert.Equal(t, "alice", userID)
	assert.Equal(t, contextkey.Derive("/docs", "mobile"), key)
}

func TestResolveNormalizesPath(t *testing.T) {
	composed := "/caf\u00e9"
	decomposed := "/cafe\u0301"

	require.NotEqual(t, composed, decomposed)

	_, k1 := Request{Path: composed}.Resolve()
	_, k2 := Request{Path: decomposed}.Resolve()
	assert.Equal(t, k1, k2)
}

func TestBootstrapScenario(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	seeded, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := st.Get(ctx, "default", contextkey.Derive("/", "desktop"))
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), rec.Settings)

	seeded, err = svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestLoadCreatesOnFirstRead(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Load(ctx, Request{Path: "/new"})
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), rec.Settings)

	again, err := svc.Load(ctx, Request{Path: "/new"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEndToEndScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := Request{UserID: "default", Path: "/test", Device: "desktop"}

	updated, err := svc.Update(ctx, req, settings.Document{
		"left_sidebar_open": settings.Bool(false),
		"left_width":        settings.Number(400),
	})
	require.NoError(t, err)

	want := settings.Document{
		"left_sidebar_open":  settings.Bool(false),
		"right_sidebar_open": settings.Bool(true),
		"left_width":         settings.Number(400),
		"right_width":        settings.Number(320),
		"theme":              settings.String("system"),
	}
	assert.Equal(t, want, updated.Settings)

	loaded, err := svc.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, want, loaded.Settings)
	assert.Equal(t, updated.ID, loaded.ID)
}

func TestUpdateRejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Update(context.Background(), Request{}, settings.Document{"theme": nil})
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))
}

type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string, contextkey.Key) (store.Record, error) {
	return store.Record{}, f.err
}

func (f failingStore) UpsertMerge(context.Context, string, contextkey.Key, settings.Document) (store.Record, error) {
	return store.Record{}, f.err
}

func (f failingStore) GetOrCreate(context.Context, string, contextkey.Key) (store.Record, error) {
	return store.Record{}, f.err
}

func (f failingStore) Seed(context.Context, contextkey.Key) (bool, error) {
	return false, f.err
}

func (f failingStore) Ping(context.Context) error {
	return f.err
}

// racedStore misses on Get and then finds the record another reader created.
type racedStore struct {
	failingStore
	winner store.Record
}

func (r racedStore) Get(context.Context, string, contextkey.Key) (store.Record, error) {
	return store.Record{}, store.ErrNotFound
}

func (r racedStore) GetOrCreate(context.Context, string, contextkey.Key) (store.Record, error) {
	return r.winner, nil
}

func TestLoadPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewService(failingStore{err: boom}, nil)

	_, err := svc.Load(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = svc.Bootstrap(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestLoadRacedFirstReadReturnsWinner(t *testing.T) {
	winner := store.Record{
		ID:        "winner",
		UserID:    DefaultUserID,
		Settings:  settings.Defaults(),
		UpdatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := NewService(racedStore{
		failingStore: failingStore{err: errors.New("UpsertMerge must not be called on a read")},
		winner:       winner,
	}, nil)

	rec, err := svc.Load(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, winner, rec)
}

func TestLoadFirstReadKeepsUpdatedAtOnReread(t *testing.T) {
	fc := clock.Fake(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	st, err := store.Open(filepath.Join(t.TempDir(), "layout.db"), store.WithClock(fc))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	svc := NewService(st, nil)
	ctx := context.Background()

	first, err := svc.Load(ctx, Request{Path: "/reread"})
	require.NoError(t, err)

	fc.Advance(time.Hour)

	again, err := svc.Load(ctx, Request{Path: "/reread"})
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.Equal(first.UpdatedAt))
}

func TestPing(t *testing.T) {
	svc, st := newTestService(t)
	require.NoError(t, svc.Ping(context.Background()))

	require.NoError(t, st.Close())
	err := svc.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, store.IsUnavailable(err))
}
