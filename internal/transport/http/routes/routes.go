// Package routes assembles the gin engine from handlers and middleware.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/infra/security"
	"github.com/authline/authline/internal/transport/http/handlers"
	"github.com/authline/authline/internal/transport/http/middleware"
)

// Deps bundles everything the router needs.
type Deps struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Health   *handlers.HealthHandler
	Sessions *security.SessionIssuer
	Limiter  *middleware.RateLimiter
	Metrics  *middleware.HTTPMetrics
	Registry *prometheus.Registry

	AllowedOrigins []string
	Log            *zap.Logger
}

// New builds the engine with the full route table.
func New(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(deps.Log))
	engine.Use(middleware.CORS(deps.AllowedOrigins))
	if deps.Metrics != nil {
		engine.Use(deps.Metrics.Handler())
	}

	engine.GET("/healthz", deps.Health.Live)
	engine.GET("/readyz", deps.Health.Ready)
	if deps.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")
	api.GET("/health", deps.Health.Status)

	auth := api.Group("/auth")
	if deps.Limiter != nil {
		auth.Use(deps.Limiter.Handler())
	}
	auth.POST("/send-otp", deps.Auth.SendOTP)
	auth.POST("/verify-otp", deps.Auth.VerifyOTP)
	auth.POST("/login", deps.Auth.Login)

	user := api.Group("/user")
	user.Use(middleware.RequireAuth(deps.Sessions))
	if deps.Limiter != nil {
		user.Use(deps.Limiter.Handler())
	}
	user.GET("/profile", deps.User.Profile)
	user.PUT("/update-password", deps.User.UpdatePassword)
	user.PUT("/update-profile", deps.User.UpdateProfile)

	return engine
}
