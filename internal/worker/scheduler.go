package worker

import (
	"log"

	"worldlink/internal/camera"
	"worldlink/internal/config"
	"worldlink/internal/service/player"
)

// StartAllWorkers initializes and starts all background workers
func StartAllWorkers(rig *camera.Rig, localPlayerID string, pub Publisher) {
	log.Println("Starting all workers...")

	StartSimulationWorker(rig, localPlayerID)
	StartLocationWorker(localPlayerID)
	if pub != nil {
		StartBroadcastWorker(pub)
	}

	player.GetPlayerService().StartPersistenceWorkers(
		config.RedisBackupInterval, config.PostgresBackupInterval)

	log.Println("All workers started")
}
