package store

import (
	"context"
	"log/slog"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

// Recorder saves a run to a Store as it progresses, so an in-flight run can be
// polled. Save failures are logged; they never fail the scenario.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing to s.
func NewRecorder(s Store) *Recorder {
	return &Recorder{store: s, logger: slog.With("component", "run-recorder")}
}

// RunStarted implements scenario.Recorder.
func (r *Recorder) RunStarted(ctx context.Context, run *scenario.Run) {
	r.save(ctx, run)
}

// StepFinished implements scenario.Recorder.
func (r *Recorder) StepFinished(ctx context.Context, run *scenario.Run, _ scenario.StepResult) {
	r.save(ctx, run)
}

// RunFinished implements scenario.Recorder. The final save uses a context that
// survives cancellation of the run.
func (r *Recorder) RunFinished(ctx context.Context, run *scenario.Run) {
	r.save(context.WithoutCancel(ctx), run)
}

func (r *Recorder) save(ctx context.Context, run *scenario.Run) {
	if err := r.store.SaveRun(ctx, run); err != nil {
		r.logger.Error("Failed to save run", "run_id", run.ID, "status", run.Status, "error", err)
	}
}
