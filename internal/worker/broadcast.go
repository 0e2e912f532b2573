package worker

import (
	"log"
	"time"

	"worldlink/internal/config"
	"worldlink/internal/model"
	"worldlink/internal/service/player"
)

// Publisher is the outbound side of the multiplayer transport.
type Publisher interface {
	Publish(data []byte)
}

// StartBroadcastWorker publishes local player state to the transport, at
// most one message per interval per player.
func StartBroadcastWorker(pub Publisher) {
	playerService := player.GetPlayerService()

	ticker := time.NewTicker(config.BroadcastInterval)
	go func() {
		for range ticker.C {
			playerService.ForEachActive(func(id string) {
				snapshot, ok := playerService.Snapshot(id)
				if !ok {
					return
				}
				data, err := model.EncodeMessage(model.MessagePlayerState, snapshot)
				if err != nil {
					log.Printf("Broadcast encode failed for %s: %v", id, err)
					return
				}
				pub.Publish(data)
			})
		}
	}()

	log.Println("Broadcast worker started with interval:", config.BroadcastInterval)
}
