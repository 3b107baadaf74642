package api

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/taskorbit/orchestrator/pkg/database"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// livenessHandler handles GET /health/live: always 200 if the process can
// respond at all (SPEC_FULL.md §6).
func (s *Server) livenessHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &HealthResponse{Status: healthStatusHealthy})
}

// readinessHandler handles GET /health/ready: 200 iff the relational
// dependency responds to a trivial probe. The ephemeral-tier and
// job-runner dependencies SPEC_FULL.md §6 also names are realized in this
// implementation as Postgres LISTEN/NOTIFY and the same database
// connection respectively (§1A), so one database probe covers all three.
func (s *Server) readinessHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	if _, err := database.Health(reqCtx, s.dbClient.Pool()); err != nil {
		status = healthStatusUnhealthy
		checks["database"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
	} else {
		checks["database"] = HealthCheck{Status: healthStatusHealthy}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	return c.JSON(httpStatus, &HealthResponse{Status: status, Checks: checks})
}
