package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"

	"worldlink/internal/directions"
	"worldlink/internal/service/route"
)

// SetupRouteHandlers registers the route management endpoints
func SetupRouteHandlers(router *gin.RouterGroup) {
	routeGroup := router.Group("/route")

	routeGroup.POST("", RequestRoute)
	routeGroup.GET("/progress", RouteProgress)
	routeGroup.GET("/arrived", RouteArrived)
	routeGroup.DELETE("", ClearRoute)
}

type routeRequest struct {
	Start   [2]float64 `json:"start"` // lng, lat
	End     [2]float64 `json:"end"`
	Profile string     `json:"profile"`
}

// RequestRoute asks the directions provider for a route and installs it
func RequestRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if req.Profile == "" {
		req.Profile = "walking"
	}

	r, err := route.GetRouteService().Request(c.Request.Context(),
		orb.Point(req.Start), orb.Point(req.End), req.Profile)
	if err != nil {
		if errors.Is(err, directions.ErrNoRoute) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no route found"})
			return
		}
		log.Printf("Route request failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "directions provider unavailable"})
		return
	}
	if r == nil {
		// superseded by a newer request
		c.JSON(http.StatusConflict, gin.H{"error": "route request superseded"})
		return
	}

	c.JSON(http.StatusOK, r)
}

// RouteProgress reports where the supplied position sits on the active route
func RouteProgress(c *gin.Context) {
	pos, ok := positionFromQuery(c)
	if !ok {
		return
	}

	progress, active := route.GetRouteService().ProgressAlong(pos)
	if !active {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active route"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// RouteArrived reports whether the supplied position has reached the route end
func RouteArrived(c *gin.Context) {
	pos, ok := positionFromQuery(c)
	if !ok {
		return
	}

	threshold, err := strconv.ParseFloat(c.DefaultQuery("threshold", "5"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"arrived": route.GetRouteService().IsArrived(pos, threshold),
	})
}

// ClearRoute drops the active route
func ClearRoute(c *gin.Context) {
	route.GetRouteService().Clear()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func positionFromQuery(c *gin.Context) (mgl64.Vec3, bool) {
	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	y, errY := strconv.ParseFloat(c.DefaultQuery("y", "0"), 64)
	z, errZ := strconv.ParseFloat(c.Query("z"), 64)
	if errX != nil || errY != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{x, y, z}, true
}
