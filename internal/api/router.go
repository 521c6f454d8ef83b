package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/api/handlers"
	"github.com/forceweaver/orghealth/internal/api/middleware"
	"github.com/forceweaver/orghealth/internal/auth"
	"github.com/forceweaver/orghealth/internal/config"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine

	handler       *handlers.Handler
	authenticator *auth.Authenticator
}

func NewServer(cfg *config.Config, handler *handlers.Handler, authenticator *auth.Authenticator, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	server := &Server{
		Config:        cfg,
		Router:        router,
		handler:       handler,
		authenticator: authenticator,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", s.handler.Health)
	s.Router.GET("/ready", s.handler.Ready)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Dashboard auth
	authGroup := s.Router.Group("/api/v1/auth")
	{
		authGroup.POST("/signup", s.handler.SignUp)
		authGroup.POST("/login", s.handler.Login)
	}

	// Dashboard routes (JWT)
	dashboard := s.Router.Group("/api/v1")
	dashboard.Use(middleware.AuthRequired(s.Config.Auth.JWTSecret))
	{
		dashboard.GET("/keys", s.handler.ListKeys)
		dashboard.POST("/keys", s.handler.CreateKey)
		dashboard.DELETE("/keys/:id", s.handler.RevokeKey)

		dashboard.GET("/orgs", s.handler.ListOrgs)
		dashboard.POST("/orgs", s.handler.CreateOrg)
		dashboard.DELETE("/orgs/:id", s.handler.DeleteOrg)

		dashboard.GET("/usage", s.handler.GetUsage)
	}

	// Machine routes (API key + per-key rate limit)
	limiter := middleware.NewRateLimiter()
	mcp := s.Router.Group("/api/v1/mcp")
	mcp.Use(middleware.APIKeyRequired(s.authenticator))
	mcp.Use(limiter.Middleware())
	{
		mcp.POST("/health-check", s.handler.RunHealthCheck)
		mcp.GET("/tools", s.handler.ListTools)
		mcp.GET("/status", s.handler.Status)
	}
}
