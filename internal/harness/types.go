package harness

import (
	"github.com/roach88/slipstream/internal/settings"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq        int               `json:"seq"`
	Op         string            `json:"op"`
	UserID     string            `json:"user_id,omitempty"`
	ContextKey string            `json:"context_key,omitempty"`
	ID         string            `json:"id,omitempty"`
	Settings   settings.Document `json:"settings,omitempty"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
	Seeded     *bool             `json:"seeded,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
