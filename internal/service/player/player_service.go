package player

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"gorm.io/gorm"

	"worldlink/internal/coord"
	"worldlink/internal/model"
	pg "worldlink/internal/postgres"
	redis_client "worldlink/internal/redis"
	"worldlink/internal/service/storage"
)

const PlayerRedisKey = "player"

// PlayerService owns every locally-authoritative player session on this
// node: the player models, their motion controllers, and the shared
// coordinate converter for the map session.
// Engine is the physics/render collaborator: it integrates a player's
// position from its velocity (gravity included) and reports whether the
// player ended the step on the ground.
type Engine interface {
	Integrate(p *model.Player, dt float64) (grounded bool)
}

type PlayerService struct {
	storage     storage.Storage[string, *model.Player]
	converter   *coord.Converter
	controllers map[string]*Controller
	inputs      map[string]InputSample
	fixes       map[string]model.LocationFix
	ctrlMutex   sync.RWMutex

	// stateMutex serializes player mutation (simulation frame, spawn,
	// recenter) against readers on other goroutines (broadcast snapshots)
	stateMutex sync.RWMutex

	seq         atomic.Uint64
	initialized bool
	initMutex   sync.RWMutex
}

var (
	playerServiceInstance *PlayerService
	playerServiceOnce     sync.Once
)

// GetPlayerService returns the singleton instance of PlayerService.
func GetPlayerService() *PlayerService {
	playerServiceOnce.Do(func() {
		playerServiceInstance = &PlayerService{
			storage:     storage.NewMemoryStorage[string, *model.Player](),
			controllers: make(map[string]*Controller),
			inputs:      make(map[string]InputSample),
			fixes:       make(map[string]model.LocationFix),
		}
	})
	return playerServiceInstance
}

// SetConverter wires the map session's coordinate converter. Must be called
// before any spawn.
func (s *PlayerService) SetConverter(c *coord.Converter) {
	s.converter = c
}

// Converter returns the session converter.
func (s *PlayerService) Converter() *coord.Converter {
	return s.converter
}

// InitService loads persisted players from PostgreSQL, overlays newer Redis
// state, and fills the in-memory storage.
func (s *PlayerService) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	log.Println("Initializing PlayerService...")
	startTime := time.Now()

	pgPlayers, err := s.loadAllFromPG()
	if err != nil {
		return fmt.Errorf("failed to load players from PostgreSQL: %w", err)
	}
	log.Printf("Loaded %d players from PostgreSQL in %v", len(pgPlayers), time.Since(startTime))

	redisPlayers, err := s.loadAllFromRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to load players from Redis: %w", err)
	}
	log.Printf("Loaded %d player updates from Redis", len(redisPlayers))

	merged := s.mergeIntoMemory(pgPlayers, redisPlayers)
	log.Printf("Initialization complete: %d players in memory (%d newer from Redis), took %v",
		s.storage.Count(), merged, time.Since(startTime))

	s.initialized = true
	return nil
}

func (s *PlayerService) loadAllFromPG() ([]*model.Player, error) {
	db := pg.GetDB()
	var pgPlayers []*model.PlayerPG

	result := db.Find(&pgPlayers)
	if result.Error != nil {
		return nil, result.Error
	}

	players := make([]*model.Player, len(pgPlayers))
	for i, p := range pgPlayers {
		players[i] = model.FromPG(p)
	}
	return players, nil
}

func (s *PlayerService) loadAllFromRedis(ctx context.Context) (map[string]*model.Player, error) {
	client := redis_client.GetClient()
	var cursor uint64
	var keys []string
	pattern := fmt.Sprintf("%s:*", PlayerRedisKey)

	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return make(map[string]*model.Player), nil
	}

	jsonData, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make(map[string]*model.Player)
	for _, data := range jsonData {
		jsonStr, ok := data.(string)
		if !ok || jsonStr == "" {
			continue
		}

		redisPlayer := &model.PlayerRedis{}
		if err := json.Unmarshal([]byte(jsonStr), redisPlayer); err != nil {
			continue
		}
		players[redisPlayer.ID] = model.FromRedis(redisPlayer)
	}
	return players, nil
}

func (s *PlayerService) mergeIntoMemory(pgPlayers []*model.Player, redisPlayers map[string]*model.Player) int {
	for _, p := range pgPlayers {
		s.storage.Set(p.ID, p)
	}

	merged := 0
	for id, rp := range redisPlayers {
		existing, exists := s.storage.Get(id)
		if !exists || rp.UpdatedAt.After(existing.UpdatedAt) {
			if exists {
				// name and created-at are not stored in Redis
				rp.Name = existing.Name
				rp.CreatedAt = existing.CreatedAt
			}
			s.storage.Set(id, rp)
			merged++
		}
	}
	return merged
}

// Spawn creates (or revives) a player session at the converter origin and
// attaches a motion controller to it.
func (s *PlayerService) Spawn(id, name, modelPath string) *model.Player {
	s.stateMutex.Lock()
	p, exists := s.storage.Get(id)
	if !exists {
		origin := s.converter.Origin()
		p = &model.Player{
			ID:        id,
			Name:      name,
			Lng:       origin.Lon(),
			Lat:       origin.Lat(),
			ModelPath: modelPath,
			State:     model.AnimationIdle,
			CreatedAt: time.Now(),
		}
	}
	p.Position = s.converter.ToLocal(orb.Point{p.Lng, p.Lat}, 0)
	p.UpdatedAt = time.Now()
	s.storage.Set(id, p)
	s.stateMutex.Unlock()

	s.ctrlMutex.Lock()
	s.controllers[id] = NewController(p)
	s.ctrlMutex.Unlock()
	return p
}

// Despawn drops the controller; the model stays for persistence.
func (s *PlayerService) Despawn(id string) {
	s.ctrlMutex.Lock()
	delete(s.controllers, id)
	delete(s.inputs, id)
	delete(s.fixes, id)
	s.ctrlMutex.Unlock()
}

// Get returns a player by id.
func (s *PlayerService) Get(id string) (*model.Player, bool) {
	return s.storage.Get(id)
}

// ForEachActive runs fn for every player with an attached controller.
func (s *PlayerService) ForEachActive(fn func(id string)) {
	s.ctrlMutex.RLock()
	ids := make([]string, 0, len(s.controllers))
	for id := range s.controllers {
		ids = append(ids, id)
	}
	s.ctrlMutex.RUnlock()

	for _, id := range ids {
		fn(id)
	}
}

// Controller returns the motion controller for an active session.
func (s *PlayerService) Controller(id string) (*Controller, bool) {
	s.ctrlMutex.RLock()
	defer s.ctrlMutex.RUnlock()
	c, ok := s.controllers[id]
	return c, ok
}

// SetInput records the latest directional input for a player. The
// simulation worker samples it once per frame.
func (s *PlayerService) SetInput(id string, input InputSample) {
	s.ctrlMutex.Lock()
	s.inputs[id] = input
	s.ctrlMutex.Unlock()
}

// StepAll advances every active controller by one simulation frame: the
// pending fix (if any) and input are sampled once, the engine integrates
// position and reports grounded state, then the controller applies its
// state machine. Called from the simulation worker.
func (s *PlayerService) StepAll(engine Engine, dt float64) {
	s.ctrlMutex.Lock()
	controllers := make(map[string]*Controller, len(s.controllers))
	inputs := make(map[string]InputSample, len(s.inputs))
	fixes := s.fixes
	for id, c := range s.controllers {
		controllers[id] = c
		inputs[id] = s.inputs[id]
	}
	s.fixes = make(map[string]model.LocationFix)
	s.ctrlMutex.Unlock()

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	for id, c := range controllers {
		if fix, ok := fixes[id]; ok {
			c.StepFix(s.converter.ToLocal(orb.Point{fix.Lng, fix.Lat}, 0))
		}
		grounded := engine.Integrate(c.Player(), dt)
		c.Step(inputs[id], grounded, dt)
		c.CheckWorldBounds()
		s.syncGeo(c.Player())
	}
}

// HandleFix records the latest location fix for a player. The simulation
// worker folds it into the next frame, so the fix stream and the frame
// step never mutate the same player from two goroutines.
func (s *PlayerService) HandleFix(id string, fix model.LocationFix) {
	s.ctrlMutex.Lock()
	if _, ok := s.controllers[id]; ok {
		s.fixes[id] = fix
	}
	s.ctrlMutex.Unlock()
}

// Recenter moves the map session origin and re-derives every player's
// local position from its geographic coordinates. Active routes are the
// caller's to rebase.
func (s *PlayerService) Recenter(origin orb.Point) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	s.converter.Recenter(origin)
	s.storage.ForEach(func(id string, p *model.Player) bool {
		p.Position = s.converter.ToLocal(orb.Point{p.Lng, p.Lat}, p.Position.Y())
		p.UpdatedAt = time.Now()
		s.storage.Set(id, p)
		return true
	})
}

// syncGeo writes the local position back to geographic coordinates and
// marks the player dirty for the persistence workers.
func (s *PlayerService) syncGeo(p *model.Player) {
	geo := s.converter.ToGeo(p.Position)
	p.Lng = geo.Lon()
	p.Lat = geo.Lat()
	p.UpdatedAt = time.Now()
	s.storage.Set(p.ID, p)
}

// Snapshot produces the outbound transport message for a player, stamped
// with a fresh monotonic sequence number. Runs on the broadcast worker;
// the state mutex keeps it off a half-written frame.
func (s *PlayerService) Snapshot(id string) (*model.PlayerStateMessage, bool) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	p, ok := s.storage.Get(id)
	if !ok {
		return nil, false
	}
	return &model.PlayerStateMessage{
		UserID:    p.ID,
		Position:  [3]float64{p.Position.X(), p.Position.Y(), p.Position.Z()},
		RotationY: p.VisualYaw,
		State:     string(p.State),
		ModelPath: p.ModelPath,
		Seq:       s.seq.Add(1),
	}, true
}

// StartPersistenceWorkers starts workers for persisting data to Redis and PostgreSQL
func (s *PlayerService) StartPersistenceWorkers(redisInterval, pgInterval time.Duration) {
	redisTimer := time.NewTicker(redisInterval)
	go func() {
		for range redisTimer.C {
			if err := s.SaveDirtyToRedis(); err != nil {
				log.Printf("Error saving players to Redis: %v", err)
			}
		}
	}()

	pgTimer := time.NewTicker(pgInterval)
	go func() {
		for range pgTimer.C {
			if err := s.SaveAllToPG(); err != nil {
				log.Printf("Error saving players to PostgreSQL: %v", err)
			}
		}
	}()
}

// SaveDirtyToRedis saves modified players to Redis
func (s *PlayerService) SaveDirtyToRedis() error {
	dirty := s.storage.GetDirty()
	if len(dirty) == 0 {
		return nil
	}

	client := redis_client.GetClient()
	ctx := context.Background()
	pipe := client.Pipeline()

	keys := make([]string, 0, len(dirty))
	for id, p := range dirty {
		playerJSON, err := json.Marshal(p.ToRedis())
		if err != nil {
			return err
		}
		pipe.Set(ctx, fmt.Sprintf("%s:%s", PlayerRedisKey, id), playerJSON, 0)
		keys = append(keys, id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	// Clear flags only after successful save
	s.storage.ClearDirty(keys)
	return nil
}

// SaveAllToPG saves all players to PostgreSQL in batches
func (s *PlayerService) SaveAllToPG() error {
	all := s.storage.GetAllValues()
	if len(all) == 0 {
		return nil
	}

	db := pg.GetDB()
	batchSize := 1000

	for i := 0; i < len(all); i += batchSize {
		end := i + batchSize
		if end > len(all) {
			end = len(all)
		}

		batch := all[i:end]
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, p := range batch {
				if result := tx.Save(p.ToPG()); result.Error != nil {
					return result.Error
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
