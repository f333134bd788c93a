package server

import (
	"net/http"
	"time"

	"user-directory-service/cmd/api/di"
	ginrouter "user-directory-service/internal/adapter/gin/router"

	"go.uber.org/zap"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(c *di.Container, addr string) *http.Server {
	router := ginrouter.SetupRouter(ginrouter.Deps{
		UserHandler: c.GinHandler,
		Auth:        c.Authenticator,
		RateLimiter: c.RateLimiter,
		Logger:      c.Logger,
		ServiceName: c.Config.Logger.ServiceName,
		Release:     c.Config.App.Environment == "production",
	})

	c.Logger.Info("Gin REST API configured",
		zap.String("address", addr),
		zap.String("swagger", "/swagger/index.html"),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
