// Package api assembles the gin engine: middleware chain, route table and fallbacks.
package api

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/config"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/handlers"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/middleware"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/response"
	"github.com/iamfafakkk/minimalFreeRadius/internal/metrics"
	"github.com/iamfafakkk/minimalFreeRadius/internal/ratelimit"
	"github.com/iamfafakkk/minimalFreeRadius/internal/security"
	"github.com/iamfafakkk/minimalFreeRadius/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Config   *config.AppConfig
	Nas      store.NasStore
	Users    store.UserStore
	Issuer   *security.TokenIssuer
	Admin    *security.AdminCredentials
	APIKeys  *security.APIKeys
	Limiter  *ratelimit.Manager
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
	Ping     func(ctx context.Context) error
}

// NewRouter builds the engine with the global middleware chain and every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("api: missing config")
	}
	cfg := deps.Config
	r := gin.New()
	if errProxies := r.SetTrustedProxies(cfg.Server.TrustedProxies); errProxies != nil {
		return nil, fmt.Errorf("api: trusted proxies: %w", errProxies)
	}

	r.Use(middleware.Recovery())
	r.Use(response.ExposeErrors(!cfg.IsProduction()))
	r.Use(middleware.RequestLogger(deps.Metrics))
	r.Use(middleware.SecurityHeaders(cfg.Server.HTTPSEnabled || cfg.IsProduction()))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.Server.HTTPSEnabled && cfg.Server.RedirectHTTP {
		r.Use(middleware.RedirectHTTPS(cfg.Server.HTTPSPort, cfg.Server.TrustedProxies))
	}
	r.Use(middleware.RateLimit(deps.Limiter, deps.Metrics))
	r.Use(middleware.BodyLimit(middleware.MaxBodyBytes))

	RegisterRoutes(r, deps)
	return r, nil
}

// RegisterRoutes mounts the API under the configured prefix plus the root-level endpoints.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	prefix := cfg.Server.APIPrefix

	metaHandler := handlers.NewMetaHandler(prefix, deps.Ping, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	r.GET("/", metaHandler.Index)
	r.GET("/health", metaHandler.Health)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	r.NoRoute(metaHandler.NotFound)

	guard := middleware.NewAuthenticator(deps.Issuer, deps.APIKeys, deps.Metrics)
	apiGroup := r.Group(prefix)

	authHandler := handlers.NewAuthHandler(deps.Admin, deps.Issuer, cfg.JWT.ExpiresIn, deps.Metrics)
	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/verify", guard.BearerOnly(), authHandler.Verify)
	authGroup.GET("/info", metaHandler.Info)
	authGroup.GET("/health", metaHandler.APIHealth)

	authed := apiGroup.Group("")
	authed.Use(guard.Authenticate())

	admin := authed.Group("")
	admin.Use(guard.RequireAdmin())

	nasHandler := handlers.NewNasHandler(deps.Nas)
	authed.GET("/nas", nasHandler.List)
	authed.GET("/nas/stats", nasHandler.Stats)
	authed.GET("/nas/:id", nasHandler.Get)
	admin.POST("/nas", nasHandler.Create)
	admin.PUT("/nas/:id", nasHandler.Update)
	admin.DELETE("/nas/:id", nasHandler.Delete)

	userHandler := handlers.NewUserHandler(deps.Users)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/stats", userHandler.Stats)
	authed.GET("/users/:username", userHandler.Get)
	authed.GET("/users/:username/attributes", userHandler.Attributes)
	authed.GET("/users/:username/reply-attributes", userHandler.ReplyAttributes)
	admin.POST("/users", userHandler.Create)
	admin.PUT("/users/:username", userHandler.Update)
	admin.DELETE("/users/:username", userHandler.Delete)
	admin.POST("/users/:username/attributes", userHandler.AddAttribute)
	admin.DELETE("/users/:username/attributes", userHandler.RemoveAttribute)
}
