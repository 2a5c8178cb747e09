// Package api serves the share url host: every url built by the share
// manager resolves here to the JSON of the trip, destination or note it names.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/middleware"
)

// SetupRoutes registers the ping and share routes. Global middleware
// (logging, recovery, CORS) is installed by the caller beforehand.
func SetupRoutes(router *gin.Engine, verifier db.TokenVerifier, shareHandler *ShareHandler, logger *zap.Logger) {
	authMW := middleware.NewAuthMiddleware(verifier, logger)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, SuccessResponse{Message: "pong"})
	})

	shared := router.Group("", authMW.VerifyToken())
	{
		shared.GET("/:uid/:trip", shareHandler.GetShared)
		shared.GET("/:uid/:trip/:dest", shareHandler.GetShared)
		shared.GET("/:uid/:trip/:dest/:note", shareHandler.GetShared)
	}
}
