// Package api provides the HTTP surface for the orchestrator: POST
// /api/orchestrate, GET /api/sessions/{id}, GET /api/events, and the two
// liveness/readiness probes (SPEC_FULL.md §6). Built on Echo v5, which is
// what the reference server actually runs despite its go.mod listing
// gin-gonic/gin (a stale-dependency discrepancy documented in DESIGN.md) —
// this package follows the real code, not the manifest.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/taskorbit/orchestrator/pkg/database"
	"github.com/taskorbit/orchestrator/pkg/db"
	"github.com/taskorbit/orchestrator/pkg/dispatcher"
	"github.com/taskorbit/orchestrator/pkg/events"
	"github.com/taskorbit/orchestrator/pkg/session"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	dbClient   *database.Client
	store      *db.Store
	sessions   *session.Manager
	dispatcher *dispatcher.Dispatcher
	hub        *events.Hub
}

// NewServer wires the HTTP surface. hub may be nil to disable GET
// /api/events (the route still registers but replies 503).
func NewServer(dbClient *database.Client, store *db.Store, sessions *session.Manager, disp *dispatcher.Dispatcher, hub *events.Hub) *Server {
	e := echo.New()
	e.HideBanner = true

	s := &Server{
		echo: e, dbClient: dbClient, store: store,
		sessions: sessions, dispatcher: disp, hub: hub,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health/live", s.livenessHandler)
	s.echo.GET("/health/ready", s.readinessHandler)

	v1 := s.echo.Group("/api")
	v1.Use(tenantContext())
	v1.POST("/orchestrate", s.orchestrateHandler)
	v1.GET("/sessions/:id", s.getSessionHandler)
	v1.GET("/events", s.eventsHandler)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by tests that need a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

const readinessTimeout = 5 * time.Second
