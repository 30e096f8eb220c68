package api

import (
	"github.com/gin-gonic/gin"
	"github.com/leozw/vitals-guardian/internal/api/handlers"
	"github.com/leozw/vitals-guardian/internal/api/middleware"
	"github.com/leozw/vitals-guardian/internal/app"
	"go.uber.org/zap"
)

type Server struct {
	App    *app.App
	Router *gin.Engine
	logger *zap.Logger
}

func NewServer(a *app.App) *Server {
	if a.Config.Server.Mode != "" {
		gin.SetMode(a.Config.Server.Mode)
	}
	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(a.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	server := &Server{
		App:    a,
		Router: router,
		logger: a.Logger,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandler(s.App.Store, s.App.Refresher, s.App.Groups, s.App.Metrics, s.logger)

	s.Router.GET("/health", h.Health)
	s.Router.GET("/ready", h.Ready)
	s.Router.GET("/metrics", gin.WrapH(s.App.Metrics.Handler()))

	// API routes
	api := s.Router.Group("/api/v1")
	if secret := s.App.Config.Auth.JWTSecret; secret != "" {
		api.Use(middleware.AuthRequired(secret))
	} else {
		s.logger.Warn("JWT secret not configured, API is unauthenticated")
	}

	// Target routes
	{
		api.GET("/targets", h.ListTargets)
		api.POST("/targets", h.CreateTarget)
		api.GET("/targets/:id", h.GetTarget)
		api.PATCH("/targets/:id", h.UpdateTarget)
		api.DELETE("/targets/:id", h.DeleteTarget)
	}

	// Vitals routes
	{
		api.GET("/targets/:id/history", h.History)
		api.GET("/targets/:id/latest", h.Latest)
		api.GET("/targets/:id/diagnosis", h.Diagnosis)
		api.GET("/targets/:id/status", h.Status)
		api.POST("/targets/:id/refresh", h.RefreshTarget)
		api.POST("/refresh", h.RefreshAll)
		api.GET("/thresholds", h.Thresholds)
	}

	api.GET("/domains", h.ListDomains)

	// Settings routes
	{
		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)
	}
}
