package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/searchctl/pkg/store"
	"github.com/codeready-toolchain/searchctl/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health.
// Only searchctl's own components are checked. The Azure services the
// scenarios target are excluded so an outage there does not restart the server.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	var dbHealth *store.HealthStatus
	if s.db != nil {
		var err error
		dbHealth, err = store.Health(reqCtx, s.db)
		if err != nil {
			status = healthStatusUnhealthy
			checks["database"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
		} else {
			checks["database"] = HealthCheck{Status: healthStatusHealthy}
		}
	}

	if s.closed.Load() {
		if status == healthStatusHealthy {
			status = healthStatusDegraded
		}
		checks["runner"] = HealthCheck{Status: healthStatusDegraded, Message: "shutting down"}
	} else {
		checks["runner"] = HealthCheck{Status: healthStatusHealthy}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, &HealthResponse{
		Status:     status,
		Version:    version.Get(),
		Checks:     checks,
		Database:   dbHealth,
		ActiveRuns: s.active.Load(),
	})
}
