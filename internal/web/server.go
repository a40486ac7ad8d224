// Package web exposes the agent over HTTP: project endpoints, chat
// (buffered and SSE), workflow transitions and the observability
// surface.
package web

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/draftforge/proposal-agent/internal/health"
	"github.com/draftforge/proposal-agent/internal/metrics"
	"github.com/draftforge/proposal-agent/internal/requestid"
)

// Server is the agent's HTTP application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	addr     string
	logger   zerolog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(addr string, h *Handlers, checker *health.Checker, mx *metrics.Metrics, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
	})

	s := &Server{
		app:      app,
		handlers: h,
		addr:     addr,
		logger:   logger.With().Str("component", "web").Logger(),
	}

	s.setupMiddleware(logger)
	s.setupRoutes(h, checker, mx)
	return s
}

func (s *Server) setupMiddleware(logger zerolog.Logger) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware
	s.app.Use(func(c *fiber.Ctx) error {
		_, reqID := requestid.New(c.Context())
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	// Audit middleware (log every request)
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		// Skip noisy probe logging
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Msg("api request")

		return c.Next()
	})
}

func (s *Server) setupRoutes(h *Handlers, checker *health.Checker, mx *metrics.Metrics) {
	// Probe endpoints
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/readyz", func(c *fiber.Ctx) error {
		if !checker.IsReady(c.Context()) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not_ready"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// Prometheus metrics
	if mx != nil {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(mx.Handler())
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	api := s.app.Group("/api")

	// Project endpoints
	api.Post("/projects", h.CreateProject)
	api.Get("/projects", h.ListProjects)
	api.Get("/projects/:id", h.GetProject)

	// Chat
	api.Post("/projects/:id/chat", h.Chat)
	api.Get("/projects/:id/chat/stream", h.ChatStream)

	// Workflow transitions
	api.Post("/projects/:id/advance", h.AdvanceStage)
	api.Post("/projects/:id/approve", h.ApproveDraft)
	api.Post("/projects/:id/reset", h.ResetProject)
	api.Post("/projects/:id/scenario", h.SelectScenario)
	api.Post("/projects/:id/execution", h.GenerateExecution)
	api.Post("/projects/:id/pm", h.GeneratePM)

	// Knowledge entries
	api.Post("/knowledge", h.CreateKnowledge)

	// Observability reads
	api.Get("/health/services", h.ServiceHealth)
	api.Get("/usage", h.Usage)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("http server starting")
	return s.app.Listen(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("http server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     "internal_error",
			Title:    "Internal Server Error",
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
