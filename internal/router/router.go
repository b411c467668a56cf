package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinicare-api/internal/handler"
	"github.com/jwalitptl/clinicare-api/internal/middleware"
)

// GuardedHandler is a module whose routes each declare a permission.
type GuardedHandler interface {
	RegisterRoutes(*gin.RouterGroup, handler.Guard)
}

// PublicHandler mounts routes that decide for themselves which need a session.
type PublicHandler interface {
	RegisterRoutes(*gin.RouterGroup, gin.HandlerFunc)
}

type HealthHandler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	authH   PublicHandler
	healthH HealthHandler
	modules []GuardedHandler
}

type RouterConfig struct {
	Mode       string
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
	Timeout    middleware.TimeoutConfig
	// Metrics records every request; nil disables it.
	Metrics gin.HandlerFunc
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH PublicHandler,
	healthH HealthHandler,
	modules []GuardedHandler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()

	r := &Router{
		engine:  engine,
		auth:    auth,
		authH:   authH,
		healthH: healthH,
		modules: modules,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
	)
	if config.Metrics != nil {
		engine.Use(config.Metrics)
	}
	if config.Timeout.Duration > 0 {
		engine.Use(middleware.Timeout(config.Timeout))
	}
	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("route not found"))
	})

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api, r.auth.Authenticate())

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, m := range r.modules {
		m.RegisterRoutes(protected, r.auth.RequirePermission)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
