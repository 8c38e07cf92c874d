package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"library_management/internal/metrics"
	"library_management/internal/middleware"
	"library_management/internal/service"

	"github.com/gin-gonic/gin"
)

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps are the collaborators wired into the HTTP API.
type RouterDeps struct {
	Auth   service.AuthService
	Users  service.UserService
	Books  service.BookService
	Issues service.IssueService

	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	DB             Pinger
}

// NewRouter builds the gin engine with every API route under /api.
func NewRouter(d RouterDeps) *gin.Engine {
	RegisterValidators()

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())
	if d.Metrics != nil {
		router.Use(d.Metrics.Middleware())
	}

	authMW := middleware.JWTAuthMiddleware(d.Auth)

	api := router.Group("/api")
	NewUserHandler(d.Auth, d.Users).RegisterUserRoutes(api, authMW)
	NewBookHandler(d.Books).RegisterBookRoutes(api, authMW)
	NewIssueHandler(d.Issues).RegisterIssueRoutes(api, authMW)

	router.GET("/health", healthHandler(d.DB))
	if d.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}
	return router
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	}
}
