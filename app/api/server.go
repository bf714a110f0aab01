package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"chatloop/app/config"
	"chatloop/app/service/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

var _ do.Shutdownable = (*Server)(nil)

type Server struct {
	cfg        *config.Config
	sessionSvc *session.Service
	app        *fiber.App

	done     chan struct{}
	stopOnce sync.Once
}

func NewServer(cfg *config.Config, sessionSvc *session.Service) *Server {
	s := &Server{
		cfg:        cfg,
		sessionSvc: sessionSvc,
		done:       make(chan struct{}),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "chatloop",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.routes()

	return s
}

func New(di *do.Injector) (*Server, error) {
	return NewServer(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*session.Service](di),
	), nil
}

func (s *Server) routes() {
	s.app.Use(requestLogger)

	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api")
	api.Get("/session", s.getSession)
	api.Get("/models", s.getModels)
	api.Get("/transcript", s.getTranscript)
	api.Get("/events", s.getEvents)
	api.Post("/messages", s.postMessage)
	api.Delete("/messages", s.deleteMessages)
	api.Patch("/settings", s.patchSettings)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("HTTP API listening", "addr", s.cfg.HTTP.Listen)
		errCh <- s.app.Listen(s.cfg.HTTP.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.app.ShutdownWithContext(shutdownCtx)
}

func (s *Server) Shutdown() error {
	s.stop()

	return s.app.Shutdown()
}

// stop ends open event streams.
func (s *Server) stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err)
	}

	return c.Status(code).JSON(errorResponse{Error: err.Error()})
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	slog.Debug("Handled request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start))

	return err
}
