package slack

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token   string
	Channel string
	BaseURL string
}

// Service posts a message when a run starts and threads the result under it.
// It implements scenario.Recorder.
// Nil-safe: all methods are no-ops when service is nil.
type Service struct {
	client  *Client
	baseURL string
	logger  *slog.Logger

	mu      sync.Mutex
	threads map[string]string // run ID -> start message ts
}

// NewService creates a new Slack notification service.
// Returns nil if Token or Channel is empty.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return NewServiceWithClient(NewClient(cfg.Token, cfg.Channel), cfg.BaseURL)
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
func NewServiceWithClient(client *Client, baseURL string) *Service {
	return &Service{
		client:  client,
		baseURL: baseURL,
		logger:  slog.Default().With("component", "slack-service"),
		threads: make(map[string]string),
	}
}

// RunStarted implements scenario.Recorder.
// Fail-open: errors are logged, never returned.
func (s *Service) RunStarted(ctx context.Context, run *scenario.Run) {
	if s == nil {
		return
	}
	ts, err := s.client.PostMessage(ctx, BuildStartedMessage(run), StartedText(run), "", 5*time.Second)
	if err != nil {
		s.logger.Error("Failed to send Slack start notification", "run_id", run.ID, "error", err)
		return
	}
	s.mu.Lock()
	s.threads[run.ID] = ts
	s.mu.Unlock()
}

// StepFinished implements scenario.Recorder. Steps are reported in the
// result message only.
func (s *Service) StepFinished(context.Context, *scenario.Run, scenario.StepResult) {}

// RunFinished implements scenario.Recorder. The result is threaded under the
// start message when that was delivered, and posted even if the run was cancelled.
func (s *Service) RunFinished(ctx context.Context, run *scenario.Run) {
	if s == nil {
		return
	}
	s.mu.Lock()
	threadTS := s.threads[run.ID]
	delete(s.threads, run.ID)
	s.mu.Unlock()

	_, err := s.client.PostMessage(context.WithoutCancel(ctx), BuildFinishedMessage(run, s.baseURL),
		FinishedText(run), threadTS, 10*time.Second)
	if err != nil {
		s.logger.Error("Failed to send Slack notification",
			"run_id", run.ID,
			"status", run.Status,
			"error", err)
	}
}
