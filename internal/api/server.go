package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/flowchartsman/swaggerui"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

//go:embed openapi.yaml
var openapiSpec []byte

// ValidateSpec parses and validates the embedded OpenAPI document. Run at
// startup so a broken document fails the deploy, not a client.
func ValidateSpec(ctx context.Context) error {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("validate openapi document: %w", err)
	}
	return nil
}

// Server is the HTTP front of the evaluator.
type Server struct {
	echo *echo.Echo
	log  *zap.Logger
}

// NewServer assembles the echo instance: recovery, request IDs, zap
// request logging, a per-request timeout and the API routes.
func NewServer(h *Handler, log *zap.Logger, requestTimeout time.Duration) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(requestLogger(log))
	if requestTimeout > 0 {
		e.Use(middleware.ContextTimeout(requestTimeout))
	}

	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.POST("/evaluate", h.Evaluate)
	g.POST("/move", h.Move)
	g.POST("/cube", h.Cube)
	g.POST("/rollout", h.Rollout)
	g.POST("/tutor/move", h.TutorMove)
	g.POST("/tutor/cube", h.TutorCube)
	g.GET("/ws", h.Socket)

	e.GET("/swagger/*", echo.WrapHandler(http.StripPrefix("/swagger", swaggerui.Handler(openapiSpec))))
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/swagger/")
	})

	return &Server{echo: e, log: log}
}

// requestLogger logs one structured line per request.
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
