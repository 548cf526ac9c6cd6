package server

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"github.com/aide-dev/aide/pkg/interfaces"
	"github.com/aide-dev/aide/pkg/usecase/assistant"
	"github.com/aide-dev/aide/pkg/utils/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultSecretKey signs session cookies when no secret is configured. It is
// only suitable for local development.
const DefaultSecretKey = "aide-dev-secret-key"

const shutdownTimeout = 10 * time.Second

//go:embed static/index.html
var indexHTML []byte

// Server is the HTTP interface of the assistant
type Server struct {
	echo      *echo.Echo
	assistant *assistant.UseCase
	repo      interfaces.Repository
	sessions  *sessions
}

// Option is a functional option for Server
type Option func(*Server)

// WithSecretKey sets the key used to sign session cookies
func WithSecretKey(key string) Option {
	return func(s *Server) {
		s.sessions.secret = []byte(key)
	}
}

// WithSecureCookie marks the session cookie as HTTPS only
func WithSecureCookie(secure bool) Option {
	return func(s *Server) {
		s.sessions.secure = secure
	}
}

// WithClock replaces time.Now for session issuing and expiry
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.sessions.now = now
	}
}

// New creates a Server and registers its routes
func New(uc *assistant.UseCase, repo interfaces.Repository, opts ...Option) *Server {
	s := &Server{
		echo:      echo.New(),
		assistant: uc,
		repo:      repo,
		sessions: &sessions{
			secret: []byte(DefaultSecretKey),
			now:    time.Now,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/", s.handleIndex)
	e.GET("/health", s.handleHealth)
	e.POST("/ask", s.handleAsk)
	e.GET("/conversations", s.handleListConversations)
	e.POST("/conversations/new", s.handleNewConversation)
	e.GET("/conversations/:id", s.handleGetConversation)
	e.DELETE("/conversations/:id", s.handleDeleteConversation)

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	logger := logging.From(ctx)
	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return goerr.Wrap(err, "server stopped", goerr.V("addr", addr))
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shut down server")
	}
	return nil
}

// requestLogger attaches a request scoped logger to the context and logs
// each completed request
func requestLogger() echo.MiddlewareFunc {
	attach := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			logger := logging.From(req.Context()).With(
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
			c.SetRequest(req.WithContext(logging.With(req.Context(), logger)))
			return next(c)
		}
	}

	logRequest := middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := logging.From(c.Request().Context())
			if v.Error != nil {
				logger.Error("request failed",
					"method", v.Method, "uri", v.URI, "status", v.Status,
					"latency", v.Latency, "error", v.Error)
				return nil
			}
			logger.Info("request",
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency)
			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return attach(logRequest(next))
	}
}
