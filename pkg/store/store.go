// Package store keeps run history: in memory for the CLI and a single server
// process, or in PostgreSQL when run history must outlive the process.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit applies when ListRuns is called with a non-positive limit.
const DefaultListLimit = 50

// Store persists scenario runs.
type Store interface {
	// SaveRun inserts or replaces run and its steps.
	SaveRun(ctx context.Context, run *scenario.Run) error
	// GetRun returns a run with its steps.
	GetRun(ctx context.Context, id string) (*scenario.Run, error)
	// ListRuns returns the most recent runs, newest first, without their steps.
	ListRuns(ctx context.Context, limit int) ([]*scenario.Run, error)
}

// Pruner deletes old run history. Runs still in progress are kept.
type Pruner interface {
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
