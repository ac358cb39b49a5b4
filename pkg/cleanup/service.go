// Package cleanup enforces run-history retention.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/searchctl/pkg/config"
	"github.com/codeready-toolchain/searchctl/pkg/store"
)

// Service periodically deletes finished runs older than the retention window.
// Deletion is idempotent, so several server replicas may run it against the
// same database.
type Service struct {
	config *config.StoreConfig
	pruner store.Pruner
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.StoreConfig, pruner store.Pruner) *Service {
	return &Service{
		config: cfg,
		pruner: pruner,
		now:    time.Now,
	}
}

// Start launches the background cleanup loop. It does nothing when retention
// is disabled.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil || s.config.RetentionDays <= 0 {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"retention_days", s.config.RetentionDays,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	cutoff := s.now().Add(-time.Duration(s.config.RetentionDays) * 24 * time.Hour)
	count, err := s.pruner.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: delete old runs failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: deleted old runs", "count", count, "cutoff", cutoff)
	}
}
