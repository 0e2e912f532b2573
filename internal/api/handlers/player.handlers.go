package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"worldlink/internal/service/player"
	"worldlink/internal/service/presence"
)

// SetupPlayerHandlers registers player state and presence endpoints
func SetupPlayerHandlers(router *gin.RouterGroup) {
	playerGroup := router.Group("/players")

	playerGroup.GET("/:id", GetPlayer)
	playerGroup.POST("/:id/input", SetPlayerInput)
	playerGroup.GET("/nearby", NearbyPlayers)
}

// GetPlayer returns the current state of a local player session
func GetPlayer(c *gin.Context) {
	p, ok := player.GetPlayerService().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown player"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       p.ID,
		"lng":      p.Lng,
		"lat":      p.Lat,
		"position": [3]float64{p.Position.X(), p.Position.Y(), p.Position.Z()},
		"heading":  p.Heading,
		"state":    p.State,
		"grounded": p.Grounded,
	})
}

type inputRequest struct {
	X    float64 `json:"x"`
	Z    float64 `json:"z"`
	Run  bool    `json:"run"`
	Jump bool    `json:"jump"`
}

// SetPlayerInput records directional input for the next simulation frames
func SetPlayerInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	playerService := player.GetPlayerService()
	id := c.Param("id")
	if _, ok := playerService.Controller(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown player"})
		return
	}

	playerService.SetInput(id, player.InputSample{
		X: req.X, Z: req.Z, Run: req.Run, Jump: req.Jump,
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NearbyPlayers returns remote players within a radius of a local position
func NearbyPlayers(c *gin.Context) {
	pos, ok := positionFromQuery(c)
	if !ok {
		return
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "50"), 64)
	if err != nil || radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius"})
		return
	}

	ids := presence.GetPresenceService().Nearby(pos, radius)
	c.JSON(http.StatusOK, gin.H{"players": ids})
}
