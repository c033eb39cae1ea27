// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic_backend/internal/auth"
	"clinic_backend/internal/common"
	"clinic_backend/internal/config"
	"clinic_backend/internal/identity"
	"clinic_backend/internal/jobs"
	"clinic_backend/internal/middleware"
)

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	authHandler *auth.Handler

	sessionPurgeJob *jobs.SessionPurgeJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	authHandler *auth.Handler,
	provider identity.Provider,
	sessionPurgeJob *jobs.SessionPurgeJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	// CORS is restricted to the clinic frontend so session cookies survive
	// cross-origin requests.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.ClientURL}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Clinic API is healthy!"})
	})

	api := router.Group("/api")
	authHandler.RegisterRoutes(api)

	registerPageRoutes(router, provider)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:      httpServer,
		router:          router,
		cfg:             cfg,
		logger:          logger,
		authHandler:     authHandler,
		sessionPurgeJob: sessionPurgeJob,
	}, nil
}

// registerPageRoutes wires the guarded page endpoints. The home page requires
// a session; login, register and recover-password bounce authenticated users
// back to the home page.
func registerPageRoutes(router *gin.Engine, provider identity.Provider) {
	router.GET("/", middleware.RequireSession(provider), func(c *gin.Context) {
		ident := middleware.GetIdentityFromContext(c)
		common.RespondOK(c, "home", gin.H{"uid": ident.UID})
	})

	publicOnly := middleware.RedirectAuthenticated(provider)
	for _, page := range []string{"login", "register", "recover-password"} {
		page := page
		router.GET("/"+page, publicOnly, func(c *gin.Context) {
			common.RespondOK(c, page, nil)
		})
	}
}

func (s *Server) Start() error {
	if s.sessionPurgeJob != nil {
		if err := s.sessionPurgeJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start session purge job", zap.Error(err))
		}
	} else {
		s.logger.Info("Session purge job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped gracefully or an error occurred")
	return nil
}

// Router exposes the underlying Gin engine, used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.sessionPurgeJob != nil {
		s.sessionPurgeJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
