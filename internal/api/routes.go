package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doodle_web/internal/api/handlers"
	"doodle_web/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, allowedOrigins []string) {
	roomHandler := handlers.NewRoomHandler(services.Router)
	resultHandler := handlers.NewResultHandler(services.Results)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket, allowedOrigins)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"rooms":   services.Router.RoomCount(),
				"clients": services.WebSocket.ClientCount(),
			})
		})

		api.GET("/rooms/:code", roomHandler.GetRoom)
		api.GET("/results", resultHandler.ListResults)
		api.GET("/ws", wsHandler.HandleWebSocket)
	}
}
