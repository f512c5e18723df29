package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/poiesic/wikipath/ai"
	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/search"
	"github.com/poiesic/wikipath/stream"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// PathFinder runs one search session, streaming events to sink.
type PathFinder interface {
	Find(ctx context.Context, req *core.Request, sink search.Sink) (*search.Result, error)
}

// ErrorResponse is the JSON body of non-streamed failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Server routes HTTP requests to a PathFinder.
type Server struct {
	finder   PathFinder
	router   *gin.Engine
	metrics  http.Handler
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMetricsHandler serves handler on /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) error {
		s.metrics = handler
		return nil
	}
}

// New creates a server for finder.
func New(finder PathFinder, opts ...Option) (*Server, error) {
	if finder == nil {
		return nil, errors.New("path finder required")
	}
	s := &Server{
		finder:   finder,
		validate: validator.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "server")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("wikipath"))
	router.Use(s.requestLogger())

	router.GET("/api/wikipedia", s.handleFind)
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}
	s.router = router
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// handleFind handles GET /api/wikipedia.
//
// Query Parameters:
//
//	startWord: label to start from (required)
//	endWord: label to reach (required)
//	model: embedding model selector, "0", "1", "2" or a variant name (optional)
//
// Response:
//
//	200 OK: application/x-ndjson, one event per line
//	400 Bad Request: missing or invalid parameters
func (s *Server) handleFind(c *gin.Context) {
	logger := s.logger.With("handler", "find")

	var req core.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := core.ValidateRequest(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if req.Model != "" {
		if _, err := ai.ParseModelVariant(req.Model); err != nil {
			s.badRequest(c, err)
			return
		}
	}

	var enc *stream.Encoder
	sink := func(event *core.Event) error {
		if enc == nil {
			c.Header("Content-Type", stream.ContentType)
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Content-Type-Options", "nosniff")
			c.Status(http.StatusOK)
			enc = stream.NewEncoder(c.Writer)
		}
		return enc.Encode(event)
	}

	_, err := s.finder.Find(c.Request.Context(), &req, sink)
	if err == nil {
		return
	}

	if enc != nil {
		// Headers are sent; the stream itself carries what the client needs
		switch {
		case errors.Is(err, search.ErrNoPathFound), errors.Is(err, search.ErrInvalidEndpoint):
			logger.Info("search ended without a path", "start", req.Start, "goal", req.Goal, "err", err)
		case errors.Is(err, context.Canceled):
			logger.Debug("client went away", "start", req.Start, "goal", req.Goal)
		default:
			logger.Warn("search aborted", "start", req.Start, "goal", req.Goal, "err", err)
		}
		return
	}

	switch {
	case errors.Is(err, core.ErrInvalidRequest), errors.Is(err, ai.ErrUnknownModel):
		s.badRequest(c, err)
	case errors.Is(err, search.ErrNoPathFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NO_PATH"})
	case errors.Is(err, context.Canceled):
		logger.Debug("client went away before the first event")
	default:
		logger.Error("search failed", "err", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "SEARCH_FAILED"})
	}
}

func (s *Server) badRequest(c *gin.Context, err error) {
	s.logger.Debug("invalid request", "query", c.Request.URL.RawQuery, "err", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
