package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lost-persons/config"
	"lost-persons/internal/handler"
	"lost-persons/internal/middleware"
	"lost-persons/internal/redis"
	"lost-persons/internal/services"
	"lost-persons/internal/transport/httpdto"
	"lost-persons/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Reports       *handler.ReportHandler
	Sightings     *handler.SightingHandler
	Conversations *handler.ConversationHandler
	Messages      *handler.MessageHandler
	Notifications *handler.NotificationHandler
	Users         *handler.UserHandler
	Uploads       *handler.UploadHandler
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery(l))

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           middleware.CORS(cfg.CORSAllowedOrigins)(engine),
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Handler exposes the full middleware chain, CORS included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// SetupRoutes mounts every endpoint. limiter may be nil when redis is disabled.
func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *redis.RateLimiter, health Pinger) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			s.logger.Ctx(c.Request.Context()).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("store unavailable", "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.AuthMiddleware(authService)

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/register", middleware.AuthRateLimitMiddleware(limiter, s.logger), handlers.Auth.Register)
		auth.POST("/login", middleware.AuthRateLimitMiddleware(limiter, s.logger), handlers.Auth.Login)
		auth.GET("/validate", requireAuth, handlers.Auth.Validate)
		auth.POST("/refresh", requireAuth, handlers.Auth.Refresh)
	}

	v1 := s.engine.Group("/v1", requireAuth)

	reports := v1.Group("/reports")
	{
		reports.POST("", handlers.Reports.Create)
		reports.GET("", handlers.Reports.List)
		reports.GET("/:id", handlers.Reports.Get)
		reports.PUT("/:id", handlers.Reports.Update)
		reports.DELETE("/:id", handlers.Reports.Delete)
		reports.PATCH("/:id/status", handlers.Reports.SetStatus)
		reports.POST("/:id/updates", handlers.Reports.PostUpdate)
		reports.GET("/:id/updates", handlers.Reports.ListUpdates)
		reports.POST("/:id/sightings", handlers.Sightings.Create)
		reports.GET("/:id/sightings", handlers.Sightings.List)
	}

	sightings := v1.Group("/sightings")
	{
		sightings.PUT("/:id", handlers.Sightings.Update)
		sightings.PATCH("/:id/status", handlers.Sightings.SetStatus)
	}

	conversations := v1.Group("/conversations")
	{
		conversations.POST("", handlers.Conversations.Resolve)
		conversations.GET("", handlers.Conversations.List)
		conversations.GET("/:id", handlers.Conversations.GetByID)
	}

	messages := v1.Group("/messages")
	{
		messages.POST("", middleware.MessageRateLimitMiddleware(limiter, s.logger), handlers.Messages.Send)
		messages.GET("/:conversationId", handlers.Messages.List)
	}

	notifications := v1.Group("/notifications")
	{
		notifications.GET("", handlers.Notifications.List)
		notifications.PATCH("/:id/read", handlers.Notifications.MarkRead)
	}

	users := v1.Group("/users")
	{
		users.GET("/me", handlers.Users.Me)
		users.PUT("/me", handlers.Users.UpdateMe)
		users.GET("", handlers.Users.List)
		users.GET("/:id", handlers.Users.GetByID)
	}

	v1.POST("/uploads/presign", handlers.Uploads.Presign)
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("port", s.config.AppPort))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		s.logger.Error("server failed", zap.Error(err))
		return err
	case sig := <-quit:
		s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}

	s.logger.Info("server stopped gracefully")
	return nil
}
