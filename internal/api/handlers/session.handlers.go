package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"worldlink/internal/service/location"
	"worldlink/internal/service/player"
	"worldlink/internal/service/route"
	"worldlink/internal/util"
)

// SetupSessionHandlers registers session bootstrap endpoints
func SetupSessionHandlers(router *gin.RouterGroup) {
	router.POST("/session", CreateSession)
	router.POST("/session/recenter", RecenterSession)
}

type createSessionRequest struct {
	Name      string `json:"name"`
	ModelPath string `json:"modelPath"`
}

// CreateSession spawns a local player session at the map origin and returns
// the coordinate frame parameters the client needs.
func CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	playerService := player.GetPlayerService()
	id := util.ShortUUID()
	p := playerService.Spawn(id, req.Name, req.ModelPath)

	origin := playerService.Converter().Origin()
	c.JSON(http.StatusOK, gin.H{
		"playerId":      p.ID,
		"origin":        gin.H{"lng": origin.Lon(), "lat": origin.Lat()},
		"metersPerUnit": playerService.Converter().MetersPerUnit(),
	})
}

type recenterRequest struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// RecenterSession moves the map origin to a new checkpoint and rebases
// players, the active route and the simulated location path onto it.
func RecenterSession(c *gin.Context) {
	var req recenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	playerService := player.GetPlayerService()
	playerService.Recenter(orb.Point{req.Lng, req.Lat})
	route.GetRouteService().Rebase()
	location.GetLocationService().SetSimulationCenter(req.Lng, req.Lat)

	origin := playerService.Converter().Origin()
	c.JSON(http.StatusOK, gin.H{
		"origin":        gin.H{"lng": origin.Lon(), "lat": origin.Lat()},
		"metersPerUnit": playerService.Converter().MetersPerUnit(),
	})
}
