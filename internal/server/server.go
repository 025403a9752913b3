// Package server provides the HTTP API for shoplynkd.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/indran-jediteck/shop-lynk-ai/internal/shopify"
	"github.com/indran-jediteck/shop-lynk-ai/internal/store"
)

// Lifecycle drives agent lifecycle transitions. Implemented by agent.Manager.
type Lifecycle interface {
	Create(ctx context.Context, sess shopify.Session) (string, error)
	Pause(ctx context.Context, sess shopify.Session) error
	Delete(ctx context.Context, sess shopify.Session) error
}

// Server provides HTTP endpoints for shoplynkd.
type Server struct {
	echo      *echo.Echo
	lifecycle Lifecycle
	repo      store.Repository
	logger    *zap.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(lifecycle Lifecycle, repo store.Repository, logger *zap.Logger, cfg *Config) (*Server, error) {
	if lifecycle == nil {
		return nil, fmt.Errorf("lifecycle manager cannot be nil")
	}
	if repo == nil {
		return nil, fmt.Errorf("tenant repository cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		lifecycle: lifecycle,
		repo:      repo,
		logger:    logger,
		config:    cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check
	s.echo.GET("/health", s.handleHealth)

	// Prometheus metrics
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/agents", s.handleCreateAgent)
	v1.POST("/agents/pause", s.handlePauseAgent)
	v1.DELETE("/agents", s.handleDeleteAgent)

	// Storefront widget
	s.echo.GET("/widget/config", s.handleWidgetConfig)
	s.echo.POST("/widget/chat", s.handleWidgetChat)
}

// SessionRequest carries the tenant session for lifecycle endpoints.
type SessionRequest struct {
	Shop        string `json:"shop"`
	AccessToken string `json:"access_token"`
}

func (r SessionRequest) session() (shopify.Session, error) {
	if r.Shop == "" {
		return shopify.Session{}, fmt.Errorf("shop field is required")
	}
	if r.AccessToken == "" {
		return shopify.Session{}, fmt.Errorf("access_token field is required")
	}
	return shopify.Session{Shop: r.Shop, AccessToken: r.AccessToken}, nil
}

// CreateAgentResponse is the response body for POST /api/v1/agents.
type CreateAgentResponse struct {
	AssistantID string `json:"assistant_id"`
}

// StatusResponse is the response body for lifecycle transitions.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// WidgetConfigResponse is the response body for GET /widget/config.
type WidgetConfigResponse struct {
	StoreName     string         `json:"store_name"`
	AgentsEnabled bool           `json:"agents_enabled"`
	Branding      store.Branding `json:"branding"`
}

// ChatRequest is the request body for POST /widget/chat.
type ChatRequest struct {
	Shop    string `json:"shop"`
	Message string `json:"message"`
}

// ChatResponse is the response body for POST /widget/chat.
type ChatResponse struct {
	AssistantID string `json:"assistant_id"`
	Reply       string `json:"reply"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleCreateAgent provisions a new agent for the tenant.
func (s *Server) handleCreateAgent(c echo.Context) error {
	sess, err := s.bindSession(c)
	if err != nil {
		return err
	}

	assistantID, err := s.lifecycle.Create(c.Request().Context(), sess)
	if err != nil {
		s.logger.Error("agent creation failed", zap.String("shop", sess.Shop), zap.Error(err))
		if errors.Is(err, shopify.ErrFetch) {
			return echo.NewHTTPError(http.StatusBadGateway, "store data fetch failed")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "agent creation failed")
	}

	return c.JSON(http.StatusCreated, CreateAgentResponse{AssistantID: assistantID})
}

// handlePauseAgent pauses the tenant's latest active agent.
func (s *Server) handlePauseAgent(c echo.Context) error {
	sess, err := s.bindSession(c)
	if err != nil {
		return err
	}

	if err := s.lifecycle.Pause(c.Request().Context(), sess); err != nil {
		s.logger.Error("agent pause failed", zap.String("shop", sess.Shop), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "agent pause failed")
	}

	return c.JSON(http.StatusOK, StatusResponse{Status: "paused"})
}

// handleDeleteAgent tears down the tenant's latest active agent. A tenant
// with nothing to delete still gets a 200, mirroring the lifecycle's
// benign no-op.
func (s *Server) handleDeleteAgent(c echo.Context) error {
	sess, err := s.bindSession(c)
	if err != nil {
		return err
	}

	if err := s.lifecycle.Delete(c.Request().Context(), sess); err != nil {
		s.logger.Error("agent deletion failed", zap.String("shop", sess.Shop), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "agent deletion failed")
	}

	return c.JSON(http.StatusOK, StatusResponse{Status: "deleted"})
}

// handleWidgetConfig returns the branding and assistant availability the
// storefront widget needs at load time.
func (s *Server) handleWidgetConfig(c echo.Context) error {
	shop := c.QueryParam("shop")
	if shop == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "shop query parameter is required")
	}

	record, err := s.repo.FindTenant(c.Request().Context(), shop)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown store")
		}
		s.logger.Error("widget config lookup failed", zap.String("shop", shop), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}

	return c.JSON(http.StatusOK, WidgetConfigResponse{
		StoreName:     record.StoreName,
		AgentsEnabled: record.AgentsEnabled,
		Branding:      record.Branding,
	})
}

// handleWidgetChat acknowledges a widget message. Conversation turns are
// handled by the assistant runtime; this endpoint only resolves which
// assistant the widget should talk to and rejects disabled tenants.
func (s *Server) handleWidgetChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Shop == "" || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "shop and message fields are required")
	}

	record, err := s.repo.FindTenant(c.Request().Context(), req.Shop)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown store")
		}
		s.logger.Error("widget chat lookup failed", zap.String("shop", req.Shop), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	if !record.AgentsEnabled || record.AssistantID == "" {
		return echo.NewHTTPError(http.StatusConflict, "assistant is not enabled for this store")
	}

	return c.JSON(http.StatusOK, ChatResponse{
		AssistantID: record.AssistantID,
		Reply:       fmt.Sprintf("Thanks for reaching out to %s. An assistant will answer shortly.", record.StoreName),
	})
}

func (s *Server) bindSession(c echo.Context) (shopify.Session, error) {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return shopify.Session{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess, err := req.session()
	if err != nil {
		return shopify.Session{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return sess, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
