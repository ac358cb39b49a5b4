package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultStepTimeout bounds a step that sets no Timeout of its own.
const DefaultStepTimeout = 2 * time.Minute

// Masker redacts secrets from recorded text.
type Masker interface {
	Mask(text string) string
}

// Recorder observes a run. Callbacks are invoked synchronously from the
// runner's goroutine; implementations must not retain run without copying it.
type Recorder interface {
	RunStarted(ctx context.Context, run *Run)
	StepFinished(ctx context.Context, run *Run, step StepResult)
	RunFinished(ctx context.Context, run *Run)
}

// Runner executes scenarios step by step.
type Runner struct {
	masker      Masker
	stepTimeout time.Duration
	recorders   []Recorder
	now         func() time.Time
}

// NewRunner creates a runner. masker may be nil (no redaction); a zero
// stepTimeout selects DefaultStepTimeout.
func NewRunner(masker Masker, stepTimeout time.Duration, recorders ...Recorder) *Runner {
	if stepTimeout <= 0 {
		stepTimeout = DefaultStepTimeout
	}
	return &Runner{
		masker:      masker,
		stepTimeout: stepTimeout,
		recorders:   recorders,
		now:         time.Now,
	}
}

// Run executes sc. A failed fatal step marks the remaining steps skipped,
// except Always steps; a cancelled ctx skips every remaining step. The run
// fails if any step failed or ctx was cancelled before it finished.
func (r *Runner) Run(ctx context.Context, sc *Scenario) *Run {
	return r.RunWithID(ctx, uuid.NewString(), sc)
}

// RunWithID is Run with a caller-chosen run ID, for callers that hand the ID
// out before the run starts.
func (r *Runner) RunWithID(ctx context.Context, id string, sc *Scenario) *Run {
	run := &Run{
		ID:        id,
		Scenario:  sc.Name,
		Status:    StatusRunning,
		StartedAt: r.now(),
		Steps:     make([]StepResult, 0, len(sc.Steps)),
	}
	log := slog.With("scenario", sc.Name, "run_id", run.ID)
	log.Info("Scenario started", "steps", len(sc.Steps))
	for _, rec := range r.recorders {
		rec.RunStarted(ctx, run)
	}

	st := NewState()
	stop, cancelled := "", false
	for i, step := range sc.Steps {
		if !cancelled && ctx.Err() != nil {
			stop, cancelled = "cancelled", true
		}

		var result StepResult
		if cancelled || (stop != "" && !step.Always) {
			result = StepResult{Index: i, Name: step.Name, Status: StatusSkipped, Detail: stop}
		} else {
			result = r.runStep(ctx, i, step, st)
			if result.Status == StatusFailed {
				log.Warn("Step failed", "step", step.Name, "fatal", step.Fatal, "error", result.Error)
				if step.Fatal && stop == "" {
					stop = fmt.Sprintf("skipped after %q failed", step.Name)
				}
			} else {
				log.Debug("Step succeeded", "step", step.Name, "duration", result.Duration())
			}
		}

		run.Steps = append(run.Steps, result)
		for _, rec := range r.recorders {
			rec.StepFinished(ctx, run, result)
		}
	}

	run.FinishedAt = r.now()
	run.Status = StatusSucceeded
	if _, failed, _ := run.Counts(); failed > 0 || cancelled || ctx.Err() != nil {
		run.Status = StatusFailed
	}
	log.Info("Scenario finished", "status", run.Status, "duration", run.FinishedAt.Sub(run.StartedAt))
	for _, rec := range r.recorders {
		rec.RunFinished(ctx, run)
	}
	return run
}

func (r *Runner) runStep(ctx context.Context, i int, step Step, st *State) StepResult {
	timeout := r.stepTimeout
	if step.Timeout > 0 {
		timeout = step.Timeout
	}
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := StepResult{Index: i, Name: step.Name, StartedAt: r.now()}
	detail, err := safeRun(stepCtx, step, st)
	result.FinishedAt = r.now()
	result.Detail = r.mask(detail)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("step timed out after %s: %w", timeout, err)
		}
		result.Status = StatusFailed
		result.Error = r.mask(err.Error())
		return result
	}
	result.Status = StatusSucceeded
	return result
}

func safeRun(ctx context.Context, step Step, st *State) (detail string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step panicked: %v", p)
		}
	}()
	return step.Run(ctx, st)
}

func (r *Runner) mask(text string) string {
	if r.masker == nil || text == "" {
		return text
	}
	return r.masker.Mask(text)
}
