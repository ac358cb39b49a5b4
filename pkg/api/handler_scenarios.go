package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

// listScenariosHandler handles GET /api/v1/scenarios.
func (s *Server) listScenariosHandler(c *gin.Context) {
	defs := s.registry.List()
	resp := ScenarioListResponse{Scenarios: make([]ScenarioInfo, 0, len(defs))}
	for _, d := range defs {
		resp.Scenarios = append(resp.Scenarios, ScenarioInfo{
			Name:        d.Name,
			Description: d.Description,
			Requires:    d.Requires,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// startRunHandler handles POST /api/v1/scenarios/:name/runs.
// The scenario runs in the background; the returned run ID can be polled
// on /api/v1/runs/:id.
func (s *Server) startRunHandler(c *gin.Context) {
	name := c.Param("name")
	if s.closed.Load() {
		abortWithError(c, &HTTPError{Code: http.StatusServiceUnavailable, Message: "server is shutting down"})
		return
	}
	if s.deps == nil {
		abortWithError(c, &HTTPError{Code: http.StatusServiceUnavailable, Message: "scenario clients are not configured"})
		return
	}
	if _, ok := s.registry.Get(name); !ok {
		abortWithError(c, &HTTPError{Code: http.StatusNotFound, Message: "scenario not found"})
		return
	}

	sc, err := s.registry.Build(name, s.deps)
	if err != nil {
		abortWithError(c, &HTTPError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	pending := &scenario.Run{
		ID:        uuid.NewString(),
		Scenario:  sc.Name,
		Status:    scenario.StatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.store.SaveRun(c.Request.Context(), pending); err != nil {
		abortWithError(c, err)
		return
	}

	runner := scenario.NewRunner(s.masker, s.stepTimeout, s.recorders...)
	started, closed := s.startRun(func() {
		runner.RunWithID(s.runCtx, pending.ID, sc)
	})
	switch {
	case closed:
		s.markRejected(pending)
		abortWithError(c, &HTTPError{Code: http.StatusServiceUnavailable, Message: "server is shutting down"})
		return
	case !started:
		s.markRejected(pending)
		abortWithError(c, &HTTPError{Code: http.StatusTooManyRequests, Message: "too many scenario runs in progress"})
		return
	}

	slog.Info("Scenario run accepted", "scenario", sc.Name, "run_id", pending.ID, "caller", extractCaller(c))
	c.JSON(http.StatusAccepted, RunAcceptedResponse{
		RunID:    pending.ID,
		Scenario: sc.Name,
		Status:   pending.Status,
	})
}

// startRun hands fn to the run group unless the server is closed or at its
// run limit. Holding mu orders it against Shutdown, so every started run is
// one Shutdown waits for.
func (s *Server) startRun(fn func()) (started, closed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false, true
	}
	return s.runs.TryGo(func() error {
		s.active.Add(1)
		defer s.active.Add(-1)
		fn()
		return nil
	}), false
}

// markRejected records a run that never started so it does not stay "running".
func (s *Server) markRejected(run *scenario.Run) {
	run.Status = scenario.StatusSkipped
	run.FinishedAt = time.Now()
	if err := s.store.SaveRun(context.Background(), run); err != nil {
		slog.Error("Failed to record rejected run", "run_id", run.ID, "error", err)
	}
}
