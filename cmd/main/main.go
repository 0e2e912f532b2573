package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"worldlink/internal/api"
	"worldlink/internal/camera"
	"worldlink/internal/config"
	"worldlink/internal/coord"
	"worldlink/internal/directions"
	"worldlink/internal/postgres"
	"worldlink/internal/redis"
	"worldlink/internal/service/location"
	"worldlink/internal/service/player"
	"worldlink/internal/service/route"
	"worldlink/internal/util"
	"worldlink/internal/worker"
)

func main() {
	setupLogging()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	initializeDatabaseAndCache(cfg)
	defer closeConnections()

	setupSignalHandler()

	localPlayerID := initializeServices(cfg)

	rig := camera.NewRig(config.CameraDistance, config.CameraHeight,
		config.CameraLookAhead, config.CameraDamping)
	hub := api.NewHub()

	worker.StartAllWorkers(rig, localPlayerID, hub)

	reportMemoryStats()

	runAPIServer(cfg, hub)
}

func setupLogging() {
	// Set up logging to file and terminal
	logFile, err := os.OpenFile("worldlink.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	// The file stays open for the application lifetime.

	// Use MultiWriter to output logs to both terminal and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
}

func initializeDatabaseAndCache(cfg config.Config) {
	// Initialize PostgreSQL
	postgres.Init(cfg.DBUrl)

	// Initialize Redis
	redis.Init(cfg.RedisUrl)
}

// initializeServices wires the coordinate frame into every service and
// spawns the node's local avatar session. Returns its player id.
func initializeServices(cfg config.Config) string {
	converter := coord.NewConverter(orb.Point{cfg.OriginLng, cfg.OriginLat}, cfg.MetersPerUnit)

	playerService := player.GetPlayerService()
	playerService.SetConverter(converter)

	ctx := context.Background()
	if err := playerService.InitService(ctx); err != nil {
		log.Fatalf("Failed to initialize player service: %v", err)
	}

	route.GetRouteService().Configure(
		directions.NewClient(cfg.DirectionsUrl, &http.Client{Timeout: config.DirectionsTimeout}),
		converter,
	)

	locationService := location.GetLocationService()
	locationService.SetSimulationCenter(cfg.OriginLng, cfg.OriginLat)
	locationService.Start()

	localID := util.ShortUUID()
	playerService.Spawn(localID, "local", "")
	log.Println("Local avatar session:", localID)

	return localID
}

func runAPIServer(cfg config.Config, hub *api.Hub) {
	// Initialize Gin router
	r := gin.Default()

	// Configure API routes
	api.SetupRouter(r, hub)

	// Start the server
	r.Run(cfg.Port)
}

func reportMemoryStats() {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Printf("Alloc = %v MiB, TotalAlloc = %v MiB, Sys = %v MiB, NumGC = %v",
				m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC)
		}
	}()
}

func closeConnections() {
	if err := postgres.Close(); err != nil {
		log.Printf("Error closing PostgreSQL connection: %v", err)
	}

	if err := redis.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("PostgreSQL and Redis connections closed successfully")
}

func setupSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutdown signal received, closing connections...")
		closeConnections()
		os.Exit(0)
	}()
}
