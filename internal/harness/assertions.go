package harness

import (
	"context"
	"fmt"

	"github.com/roach88/slipstream/internal/layout"
	"github.com/roach88/slipstream/internal/settings"
)

// checkExpect validates a step's event against its expect clause. A step
// without one must not fail.
func (r *run) checkExpect(index int, step Step, event TraceEvent) {
	fail := func(format string, args ...any) {
		r.result.AddError(fmt.Sprintf("flow[%d] (%s): %s", index, step.Op, fmt.Sprintf(format, args...)))
	}

	want := step.Expect
	if want == nil {
		want = &Expect{}
	}

	if event.Error != want.Error {
		if want.Error == "" {
			fail("unexpected %s error", event.Error)
		} else {
			fail("expected %s error, got %q", want.Error, event.Error)
		}
		return
	}

	if want.Seeded != nil {
		if event.Seeded == nil || *event.Seeded != *want.Seeded {
			fail("expected seeded=%v", *want.Seeded)
		}
	}

	if want.ID != "" && event.ID != want.ID {
		fail("expected id %q, got %q", want.ID, event.ID)
	}

	if want.Settings != nil {
		if err := matchSettings(want.Settings, event.Settings); err != nil {
			fail("%v", err)
		}
	}
}

// checkAssertion evaluates one assertion against the final trace and store.
func (r *run) checkAssertion(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertRecordCount:
		n, err := r.store.Count(ctx)
		if err != nil {
			return err
		}
		if n != a.Count {
			return fmt.Errorf("expected %d records, got %d", a.Count, n)
		}

	case AssertFinalState:
		req := layout.Request{UserID: a.User, Path: a.Path, Device: a.Device}
		userID, key := req.Resolve()
		rec, err := r.store.Get(ctx, userID, key)
		if err != nil {
			return err
		}
		return matchSettings(a.Expect, rec.Settings)

	case AssertTraceCount:
		n := 0
		for _, e := range r.result.Trace {
			if e.Op == a.Op {
				n++
			}
		}
		if n != a.Count {
			return fmt.Errorf("expected %d %s steps, got %d", a.Count, a.Op, n)
		}

	case AssertSameRecord:
		first := r.result.Trace[a.Steps[0]].ID
		for _, i := range a.Steps {
			id := r.result.Trace[i].ID
			if id == "" || id != first {
				return fmt.Errorf("step %d returned record %q, want %q", i, id, first)
			}
		}
	}
	return nil
}

// matchSettings checks that every key in want is present in got with an
// equal value. Keys not named in want are ignored.
func matchSettings(want map[string]any, got settings.Document) error {
	expected, err := settings.FromMap(want)
	if err != nil {
		return fmt.Errorf("bad expected settings: %w", err)
	}
	for _, k := range expected.Keys() {
		v, ok := got[k]
		if !ok {
			return fmt.Errorf("settings missing key %q", k)
		}
		if v != expected[k] {
			return fmt.Errorf("settings[%q] = %v, want %v", k, v, expected[k])
		}
	}
	return nil
}
