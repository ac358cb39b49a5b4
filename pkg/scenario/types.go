// Package scenario runs the walkthroughs as ordered lists of steps. Each step
// is one remote call or local check; its outcome is recorded, masked, and
// reported to any attached Recorder.
package scenario

import (
	"context"
	"time"

	"github.com/codeready-toolchain/searchctl/pkg/config"
)

// Status is the outcome of a step or run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StepFunc performs a step. detail is a short human-readable summary of what
// happened; it is recorded even when err is non-nil.
type StepFunc func(ctx context.Context, st *State) (detail string, err error)

// Step is one unit of a scenario.
type Step struct {
	Name string
	// Fatal steps stop the scenario when they fail; the rest are skipped.
	Fatal bool
	// Always steps still run after a fatal failure. Used for teardown.
	Always bool
	// Timeout overrides the runner's per-step timeout when non-zero.
	Timeout time.Duration
	Run     StepFunc
}

// Scenario is a named, ordered list of steps.
type Scenario struct {
	Name        string
	Description string
	Requires    []config.Component
	Steps       []Step
}

// StepResult records how a step went.
type StepResult struct {
	Index      int       `json:"index"`
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is how long the step ran. Zero for skipped steps.
func (r StepResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Run is one execution of a scenario.
type Run struct {
	ID         string       `json:"id"`
	Scenario   string       `json:"scenario"`
	Status     Status       `json:"status"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
	Steps      []StepResult `json:"steps"`
}

// Counts tallies step outcomes.
func (r *Run) Counts() (succeeded, failed, skipped int) {
	for _, s := range r.Steps {
		switch s.Status {
		case StatusSucceeded:
			succeeded++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (r *Run) Clone() *Run {
	out := *r
	out.Steps = append([]StepResult(nil), r.Steps...)
	return &out
}
