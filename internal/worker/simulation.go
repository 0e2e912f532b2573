package worker

import (
	"log"
	"time"

	"worldlink/internal/camera"
	"worldlink/internal/config"
	"worldlink/internal/service/location"
	"worldlink/internal/service/player"
	"worldlink/internal/service/presence"
)

// StartSimulationWorker starts the fixed-step frame loop. Within one frame
// the order is fixed: input is sampled once, motion is integrated once,
// then interpolation and the camera read that single consistent snapshot.
func StartSimulationWorker(rig *camera.Rig, cameraPlayerID string) {
	playerService := player.GetPlayerService()
	presenceService := presence.GetPresenceService()
	engine := NewFlatGroundEngine()

	ticker := time.NewTicker(config.SimulationTickInterval)
	go func() {
		last := time.Now()
		for now := range ticker.C {
			dt := now.Sub(last).Seconds()
			last = now

			playerService.StepAll(engine, dt)
			presenceService.Tick(dt)

			if rig != nil {
				if p, ok := playerService.Get(cameraPlayerID); ok {
					rig.Update(p.Position, p.VisualYaw, dt)
				}
			}
		}
	}()

	log.Println("Simulation worker started with interval:", config.SimulationTickInterval)
}

// StartLocationWorker pipes location fixes into a player's controller.
func StartLocationWorker(playerID string) {
	locationService := location.GetLocationService()
	playerService := player.GetPlayerService()

	ch := locationService.Subscribe()
	go func() {
		for fix := range ch {
			playerService.HandleFix(playerID, fix)
		}
	}()

	log.Println("Location worker started for player:", playerID)
}
