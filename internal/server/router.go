package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imarises/TrustScore-FHE/internal/auth"
	"github.com/imarises/TrustScore-FHE/internal/config"
	"github.com/imarises/TrustScore-FHE/internal/http/handlers"
	"github.com/imarises/TrustScore-FHE/internal/http/middleware"
	"github.com/imarises/TrustScore-FHE/internal/version"
	"github.com/imarises/TrustScore-FHE/internal/ws"
)

const maxRequestBodyBytes = 1 << 20

type Dependencies struct {
	Pinger            handlers.Pinger
	AuthHandler       *handlers.AuthHandler
	LoanHandler       *handlers.LoanHandler
	ScoreHandler      *handlers.ScoreHandler
	DisclosureHandler *handlers.DisclosureHandler
	EventsHandler     *handlers.EventsHandler
	WSHandler         *ws.Handler
	JWTManager        *auth.JWTManager
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestBodyLimit(maxRequestBodyBytes))
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	if deps.AuthHandler != nil && deps.JWTManager != nil {
		authGroup := r.Group("/v1/auth")
		authGroup.POST("/login", deps.AuthHandler.Login)
		authGroup.POST("/refresh", deps.AuthHandler.Refresh)
		authGroup.POST("/logout", deps.AuthHandler.Logout)

		protected := authGroup.Group("")
		protected.Use(middleware.RequireAuth(deps.JWTManager))
		protected.GET("/me", deps.AuthHandler.Me)

		if deps.LoanHandler != nil && deps.DisclosureHandler != nil {
			borrowerGroup := r.Group("/v1")
			borrowerGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleBorrower, auth.RoleAdmin))
			borrowerGroup.POST("/loans", deps.LoanHandler.CreateLoan)
			borrowerGroup.POST("/loans/:index/disclose", deps.DisclosureHandler.DiscloseLoan)
			borrowerGroup.POST("/loans/:index/verify", deps.DisclosureHandler.VerifyLoan)

			readGroup := r.Group("/v1")
			readGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleBorrower, auth.RoleAuditor, auth.RoleAdmin))
			readGroup.GET("/loans", deps.LoanHandler.ListLoans)
		}
		if deps.ScoreHandler != nil && deps.DisclosureHandler != nil {
			scoreGroup := r.Group("/v1")
			scoreGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleBorrower, auth.RoleAdmin))
			scoreGroup.POST("/score", deps.ScoreHandler.ComputeScore)
			scoreGroup.POST("/score/disclose", deps.DisclosureHandler.DiscloseScore)
			scoreGroup.POST("/score/verify", deps.DisclosureHandler.VerifyScore)

			scoreReadGroup := r.Group("/v1")
			scoreReadGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleBorrower, auth.RoleAuditor, auth.RoleAdmin))
			scoreReadGroup.GET("/score", deps.ScoreHandler.GetScore)
		}
		if deps.EventsHandler != nil {
			eventsGroup := r.Group("/v1")
			eventsGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleAuditor, auth.RoleAdmin))
			eventsGroup.GET("/events", deps.EventsHandler.ListEvents)
		}
	}

	if deps.WSHandler != nil {
		r.GET("/v1/ws", deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
