package router

import (
	"net/http"

	"user-directory-service/api/swagger"
	"user-directory-service/internal/adapter/auth"
	"user-directory-service/internal/adapter/gin/handler"
	"user-directory-service/internal/adapter/gin/middleware"
	"user-directory-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps holds what the router needs to wire routes and middleware.
type Deps struct {
	UserHandler *handler.UserHandler
	Auth        auth.Authenticator
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
	ServiceName string
	Release     bool
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(d Deps) *gin.Engine {
	if d.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(middleware.Recovery(d.Logger))
	router.Use(middleware.Logger(d.Logger))
	router.Use(d.RateLimiter.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": d.ServiceName,
		})
	})

	router.GET(swagger.DocPath, gin.WrapH(swagger.DocHandler()))
	router.GET("/swagger/*any", gin.WrapH(swagger.UIHandler()))

	optional := middleware.OptionalAuth(d.Auth, d.Logger)
	required := middleware.RequireAuth(d.Auth, d.Logger)
	h := d.UserHandler

	router.GET("/fetch-user-data", optional, h.GetUser)
	router.GET("/fetch-user-data/:userId", optional, h.GetUser)
	router.PUT("/update-user-data", optional, h.UpdateUser)
	router.PUT("/update-user-data/:userId", optional, h.UpdateUser)
	router.POST("/update-activity", required, h.UpdateActivity)
	router.GET("/fetch-all-users", h.ListUsers)
	router.POST("/create-user", h.CreateUser)
	router.DELETE("/delete-user/:userId", required, h.DeleteUser)

	return router
}
