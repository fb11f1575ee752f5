package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dnoice/roachtrack/internal/api/handlers"
	"github.com/dnoice/roachtrack/internal/api/middleware"
	"github.com/dnoice/roachtrack/internal/auth"
	"github.com/dnoice/roachtrack/internal/config"
	"github.com/dnoice/roachtrack/internal/db/repository"
	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/security"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	authSvc *auth.Service,
	sessions *auth.SessionStore,
	auditor *security.Auditor,
	userRepo *repository.UserRepository,
	propertyRepo *repository.PropertyRepository,
	sightingRepo *repository.SightingRepository,
	auditRepo *repository.AuditRepository,
) *Server {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	// Create handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	adminHandler := handlers.NewAdminHandler(userRepo, auditRepo, auditor, sessions)
	propertyHandler := handlers.NewPropertyHandler(propertyRepo)
	sightingHandler := handlers.NewSightingHandler(sightingRepo)

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Public auth endpoints
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Session-holder auth endpoints
		authed := v1.Group("/auth")
		authed.Use(middleware.SessionAuth(authSvc))
		{
			authed.POST("/logout", authHandler.Logout)
			authed.POST("/change-password", authHandler.ChangePassword)
			authed.POST("/totp/enroll", authHandler.EnrollTOTP)
		}

		// Sighting endpoints (any authenticated user)
		sightings := v1.Group("/sightings")
		sightings.Use(middleware.SessionAuth(authSvc))
		{
			sightings.POST("", sightingHandler.Create)
			sightings.GET("", sightingHandler.List)
			sightings.GET("/search", sightingHandler.Search)
			sightings.GET("/statistics", sightingHandler.Statistics)
			sightings.GET("/:id", sightingHandler.Get)
			sightings.PUT("/:id", sightingHandler.Update)
			sightings.DELETE("/:id", sightingHandler.Delete)
		}

		// Property endpoints
		properties := v1.Group("/properties")
		properties.Use(middleware.SessionAuth(authSvc))
		{
			properties.GET("", propertyHandler.List)
			properties.GET("/mine", propertyHandler.Mine)
			properties.GET("/:id", propertyHandler.Get)
			properties.GET("/:id/users", propertyHandler.Users)

			// Mutations require admin or property manager
			manage := properties.Group("")
			manage.Use(middleware.RequireRole(auditor, models.RoleAdmin, models.RolePropertyManager))
			{
				manage.POST("", propertyHandler.Create)
				manage.DELETE("/:id", propertyHandler.Delete)
				manage.POST("/:id/assign", propertyHandler.Assign)
				manage.DELETE("/:id/assign/:user_id", propertyHandler.Unassign)
			}
		}

		// Admin endpoints
		admin := v1.Group("/admin")
		admin.Use(middleware.SessionAuth(authSvc))
		admin.Use(middleware.RequireRole(auditor, models.RoleAdmin))
		{
			admin.POST("/users", adminHandler.CreateUser)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/toggle-active", adminHandler.ToggleActive)
			admin.PUT("/users/:id/role", adminHandler.UpdateRole)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/audit", adminHandler.ListAuditLog)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return &Server{
		router: router,
		config: cfg,
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	return s.router.Run(s.config.Server.ListenAddr)
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
