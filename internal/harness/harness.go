package harness

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/roach88/slipstream/internal/clock"
	"github.com/roach88/slipstream/internal/layout"
	"github.com/roach88/slipstream/internal/settings"
	"github.com/roach88/slipstream/internal/store"
)

// Epoch is the fake clock's starting time for every run.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// sequenceIDs yields rec-0001, rec-0002, ...
type sequenceIDs struct {
	n atomic.Int64
}

func (g *sequenceIDs) Generate() string {
	return fmt.Sprintf("rec-%04d", g.n.Add(1))
}

// run holds the state of one scenario execution.
type run struct {
	store  *store.Store
	svc    *layout.Service
	clock  *clock.FakeClock
	result *Result
}

// Run executes a scenario against a fresh in-memory store.
//
// The returned error reports a harness failure (the store could not be
// opened). Expectation and assertion failures are collected in
// Result.Errors and clear Result.Pass.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	fc := clock.Fake(Epoch)
	st, err := store.Open(":memory:",
		store.WithClock(fc),
		store.WithIDGenerator(&sequenceIDs{}),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	r := &run{
		store:  st,
		svc:    layout.NewService(st, nil),
		clock:  fc,
		result: NewResult(),
	}

	for i, step := range scenario.Flow {
		event := r.execute(ctx, i, step)
		r.result.Trace = append(r.result.Trace, event)
		r.checkExpect(i, step, event)
	}

	for i, a := range scenario.Assertions {
		if err := r.checkAssertion(ctx, a); err != nil {
			r.result.AddError(fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}

	return r.result, nil
}

// execute performs one step and returns its trace event.
func (r *run) execute(ctx context.Context, seq int, step Step) TraceEvent {
	event := TraceEvent{Seq: seq, Op: step.Op}

	req := layout.Request{UserID: step.User, Path: step.Path, Device: step.Device}
	userID, key := req.Resolve()

	var rec store.Record
	var err error

	switch step.Op {
	case OpAdvance:
		r.clock.Advance(step.Advance)
		return event

	case OpBootstrap:
		var seeded bool
		seeded, err = r.svc.Bootstrap(ctx)
		if err == nil {
			event.Seeded = &seeded
		}
		event.Error = classify(err)
		return event

	case OpLoad:
		rec, err = r.svc.Load(ctx, req)

	case OpGet:
		rec, err = r.store.Get(ctx, userID, key)

	case OpUpdate:
		var partial settings.Document
		partial, err = settings.FromMap(step.Settings)
		if err == nil {
			rec, err = r.svc.Update(ctx, req, partial)
		}
	}

	event.UserID = userID
	event.ContextKey = key.String()
	if err != nil {
		event.Error = classify(err)
		return event
	}

	event.ID = rec.ID
	event.Settings = rec.Settings
	event.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339Nano)
	return event
}

// classify maps an error to its Expect.Error class.
func classify(err error) string {
	switch {
	case err == nil:
		return ""
	case store.IsValidation(err):
		return ErrClassValidation
	case store.IsNotFound(err):
		return ErrClassNotFound
	default:
		return ErrClassUnavailable
	}
}
