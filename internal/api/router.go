package api

import (
	routes "worldlink/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, hub *Hub) {
	// API group
	api := r.Group("/api")

	routes.SetupSessionHandlers(api)
	routes.SetupRouteHandlers(api)
	routes.SetupPlayerHandlers(api)

	r.GET("/ws", hub.Serve)
}
