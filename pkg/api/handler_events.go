package api

import (
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	echo "github.com/labstack/echo/v5"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// eventsHeartbeatInterval matches SPEC_FULL.md §6's "emits heartbeats
// every 25 s".
const eventsHeartbeatInterval = 25 * time.Second

// eventsReplayLimit bounds how much backlog a reconnecting client is sent
// in one GET /api/events connection before joining the live stream.
const eventsReplayLimit = 500

// eventsHandler handles GET /api/events: a websocket server-push stream for
// the authenticated tenant, replaying from a resume-from cursor (the
// websocket equivalent of Last-Event-Id, since the protocol itself has no
// such header) before switching to the live subscription. Grounded on
// a websocket accept/read-pump pattern generalized from delegating to a
// ConnectionManager to driving pkg/events.Hub directly.
func (s *Server) eventsHandler(c *echo.Context) error {
	if s.hub == nil {
		return echo.NewHTTPError(503, "event stream not available")
	}
	tenantID := tenantFrom(c)

	var resumeFrom int64
	if v := c.QueryParam("resume_from"); v != "" {
		resumeFrom, _ = strconv.ParseInt(v, 10, 64)
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// Origin validation is delegated to the identity/authorization layer
		// (SPEC_FULL.md §1 treats it as an external collaborator); this
		// process has no allowlist of its own to enforce.
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	ctx := websocket.CloseRead(c.Request().Context(), conn)

	backlog, err := s.hub.Replay(ctx, tenantID, resumeFrom, eventsReplayLimit)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "replay failed")
		return nil
	}
	for _, ev := range backlog {
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			return nil
		}
	}

	live, unsubscribe, err := s.hub.Subscribe(ctx, tenantID)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil
	}
	defer unsubscribe()

	heartbeat := time.NewTicker(eventsHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-live:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return nil
			}
		case <-heartbeat.C:
			hb := models.ProgressEvent{Type: models.EventHeartbeat, Timestamp: time.Now()}
			if err := wsjson.Write(ctx, conn, hb); err != nil {
				return nil
			}
		}
	}
}
