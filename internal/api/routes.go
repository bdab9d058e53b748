package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playpong/backend/internal/api/handlers"
	"github.com/playpong/backend/internal/config"
	"github.com/playpong/backend/internal/middleware"
	"github.com/playpong/backend/internal/ws"
)

// Deps are the services the routes read from. Snapshots and History are
// optional; nil disables the endpoints backed by them.
type Deps struct {
	Engine    handlers.MatchSource
	WebSocket *ws.Handler
	Snapshots handlers.SnapshotStore
	History   handlers.History
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, deps Deps, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/ws", handlers.HandleGameWebSocket(deps.WebSocket))
		v1.GET("/queue", handlers.GetQueueStatus(deps.Engine))

		matches := v1.Group("/matches")
		{
			matches.GET("", handlers.ListMatches(deps.History))
			matches.GET("/:id", handlers.GetMatch(deps.Engine, deps.Snapshots))
		}

		v1.GET("/history/:id", handlers.GetMatchRecord(deps.History))
	}
}
