package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/taskorbit/orchestrator/pkg/dispatcher"
)

// orchestrateHandler handles POST /api/orchestrate.
func (s *Server) orchestrateHandler(c *echo.Context) error {
	var req OrchestrateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	outcome, err := s.dispatcher.Dispatch(c.Request().Context(), dispatcher.Request{
		TenantID:  tenantFrom(c),
		UserID:    userFrom(c),
		SessionID: req.SessionID,
		ThreadKey: req.ThreadKey,
		Utterance: req.Prompt,
		Source:    req.Source,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusAccepted, &OrchestrateResponse{
		ExecutionID: outcome.ExecutionID,
		SessionID:   outcome.SessionID,
		Status:      outcome.Status,
	})
}
