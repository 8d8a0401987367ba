package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/dashboard"
	"github.com/couchcryptid/shore-hazard-service/internal/session"
	"github.com/couchcryptid/shore-hazard-service/internal/wizard"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the API routes call into.
type Deps struct {
	Sessions    *session.Manager
	Wizards     *wizard.Registry
	Ledger      *dashboard.Ledger
	Social      *dashboard.SocialFeed
	Ready       sharedobs.ReadinessChecker
	CORSOrigins []string
}

// Server exposes the reporting API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api routes, /healthz, /readyz,
// and /metrics.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:  []string{"Authorization", "Content-Type", "Accept-Language"},
			ExposeHeaders: []string{"Content-Language"},
			MaxAge:        12 * time.Hour,
		}))
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	router.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	router.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(deps.Ready)))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/session/login", s.handleLogin)

	authed := api.Group("", s.requireSession())
	authed.GET("/session", s.handleSession)
	authed.POST("/session/logout", s.handleLogout)
	authed.GET("/session/language", s.handleGetLanguage)
	authed.PUT("/session/language", s.handleSetLanguage)

	wizards := authed.Group("/wizards")
	wizards.POST("", s.handleOpenWizard)
	wizards.GET("/:id", s.withWizard(s.handleGetWizard))
	wizards.DELETE("/:id", s.handleCloseWizard)
	wizards.PATCH("/:id/fields", s.withWizard(s.handleSetField))
	wizards.POST("/:id/next", s.withWizard(s.handleNext))
	wizards.POST("/:id/back", s.withWizard(s.handleBack))
	wizards.POST("/:id/submit", s.withWizard(s.handleSubmit))
	wizards.POST("/:id/reset", s.withWizard(s.handleReset))
	wizards.POST("/:id/media", s.withWizard(s.handleAttachMedia))
	wizards.DELETE("/:id/media/:index", s.withWizard(s.handleRemoveMedia))
	wizards.POST("/:id/location/device", s.withWizard(s.handleDeviceLocation))

	views := authed.Group("/views")
	views.GET("/dashboard", s.handleDashboard)
	views.GET("/map", s.handleMap)
	views.GET("/analytics", s.handleAnalytics)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
