package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// sessionHistoryLimit bounds GET /api/sessions/{id}'s returned history to
// the most recent turns, per SPEC_FULL.md §6's "session snapshot (bounded
// history)" — independent of the dispatcher's internal analyzer snapshot
// size (config.Defaults.SessionSnapshotTurns), since an API client wants
// more context than the Analyzer needs per turn.
const sessionHistoryLimit = 50

// getSessionHandler handles GET /api/sessions/:id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	tenantID := tenantFrom(c)
	id := c.Param("id")

	sess, err := s.store.GetSession(c.Request().Context(), tenantID, id)
	if err != nil {
		return mapError(err)
	}

	history := sess.History
	if len(history) > sessionHistoryLimit {
		history = history[len(history)-sessionHistoryLimit:]
	}
	turns := make([]TurnResponse, 0, len(history))
	for _, t := range history {
		turns = append(turns, TurnResponse{Role: t.Role, Text: t.Text, Timestamp: t.Timestamp})
	}

	return c.JSON(http.StatusOK, &SessionResponse{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Source:    string(sess.Source),
		State:     sess.State,
		History:   turns,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	})
}
