package presence

import (
	"log"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"

	"worldlink/internal/config"
	"worldlink/internal/model"
	"worldlink/internal/service/storage"
	"worldlink/internal/util"
)

// playerSpatial adapts a remote player's rendered position for R-tree
// indexing.
type playerSpatial struct {
	userID string
	x, z   float64
}

// Bounds implements the rtreego.Spatial interface
func (p *playerSpatial) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRect(rtreego.Point{p.x, p.z}, []float64{0.001, 0.001})
	return rect
}

// PresenceService consumes sparse network samples per remote player and
// produces a smooth per-frame pose via interpolation. Samples arriving on
// transport goroutines are queued and merged at the start of the next
// Tick, so interpolation state is only ever mutated on the simulation
// goroutine. State is partitioned per player id; a leave discards it
// entirely so nothing leaks into a later reused id.
type PresenceService struct {
	storage storage.Storage[string, *model.RemotePlayer]

	pendingMutex sync.Mutex
	pending      map[string]model.RemoteSample

	// poseMutex serializes the Tick mutation pass against pose readers
	// on other goroutines
	poseMutex sync.RWMutex

	spatialIndex *rtreego.Rtree
	spatials     map[string]*playerSpatial
	indexMutex   sync.Mutex
}

var (
	presenceServiceInstance *PresenceService
	presenceServiceOnce     sync.Once
)

// GetPresenceService returns the singleton instance of PresenceService.
func GetPresenceService() *PresenceService {
	presenceServiceOnce.Do(func() {
		presenceServiceInstance = NewPresenceService()
	})
	return presenceServiceInstance
}

// NewPresenceService creates an empty presence table.
func NewPresenceService() *PresenceService {
	return &PresenceService{
		storage:      storage.NewShardedMemoryStorage[string, *model.RemotePlayer](8, nil),
		pending:      make(map[string]model.RemoteSample),
		spatialIndex: rtreego.NewTree(2, 25, 50),
		spatials:     make(map[string]*playerSpatial),
	}
}

// Join creates interpolation state for a remote player.
func (s *PresenceService) Join(userID, modelPath string) {
	if _, exists := s.storage.Get(userID); exists {
		return
	}
	s.storage.Set(userID, &model.RemotePlayer{
		UserID: userID,
		Target: model.RemoteSample{UserID: userID, ModelPath: modelPath},
	})
	log.Printf("Remote player joined: %s", userID)
}

// Leave discards all state for a remote player, queued samples included.
func (s *PresenceService) Leave(userID string) {
	s.poseMutex.Lock()
	s.storage.Delete(userID)

	s.pendingMutex.Lock()
	delete(s.pending, userID)
	s.pendingMutex.Unlock()

	s.indexMutex.Lock()
	if sp, ok := s.spatials[userID]; ok {
		s.spatialIndex.Delete(sp)
		delete(s.spatials, userID)
	}
	s.indexMutex.Unlock()
	s.poseMutex.Unlock()
	log.Printf("Remote player left: %s", userID)
}

// Apply queues a network sample for the next Tick. Within the queue, last
// write wins by sequence number. Runs on transport read goroutines and
// touches nothing but the queue.
func (s *PresenceService) Apply(sample model.RemoteSample) {
	s.pendingMutex.Lock()
	if cur, ok := s.pending[sample.UserID]; !ok || sample.Seq > cur.Seq {
		s.pending[sample.UserID] = sample
	}
	s.pendingMutex.Unlock()
}

// merge installs a drained sample as the interpolation target. Last write
// wins on the target, never on the rendered pose. Samples whose sequence
// number is not newer than the current target are late deliveries and are
// dropped.
func (s *PresenceService) merge(id string, sample model.RemoteSample) {
	rp, exists := s.storage.Get(id)
	if !exists {
		// sample before join: create on the fly
		rp = &model.RemotePlayer{UserID: id}
	}

	if rp.Primed && sample.Seq <= rp.Target.Seq {
		return
	}

	if !rp.Primed {
		// first sample snaps the rendered pose, no lerp from the origin
		rp.Rendered = sample.Position
		rp.YawRender = sample.RotationY
		rp.Primed = true
	}
	rp.Target = sample
	s.storage.Set(id, rp)
}

// Tick drains the sample queue and advances every rendered pose toward its
// target. The factor clamp(dt*K, 0, 1) keeps motion continuous between
// ~100ms network steps and converges to the exact last sample once updates
// stop.
func (s *PresenceService) Tick(dt float64) {
	s.pendingMutex.Lock()
	drained := s.pending
	s.pending = make(map[string]model.RemoteSample)
	s.pendingMutex.Unlock()

	s.poseMutex.Lock()
	defer s.poseMutex.Unlock()

	for id, sample := range drained {
		s.merge(id, sample)
	}

	t := util.Clamp(dt*config.InterpolationRate, 0, 1)
	s.storage.ForEach(func(id string, rp *model.RemotePlayer) bool {
		if !rp.Primed {
			return true
		}
		rp.Rendered = rp.Rendered.Add(rp.Target.Position.Sub(rp.Rendered).Mul(t))
		rp.YawRender = util.LerpAngle(rp.YawRender, rp.Target.RotationY, t)
		s.reindex(id, rp.Rendered)
		return true
	})
}

// Pose returns the rendered pose for a remote player.
func (s *PresenceService) Pose(userID string) (mgl64.Vec3, float64, bool) {
	s.poseMutex.RLock()
	defer s.poseMutex.RUnlock()

	rp, exists := s.storage.Get(userID)
	if !exists || !rp.Primed {
		return mgl64.Vec3{}, 0, false
	}
	return rp.Rendered, rp.YawRender, true
}

// Count returns the number of tracked remote players.
func (s *PresenceService) Count() int {
	return s.storage.Count()
}

// Nearby returns ids of remote players whose rendered position lies within
// radius meters of pos, via the R-tree index.
func (s *PresenceService) Nearby(pos mgl64.Vec3, radius float64) []string {
	s.indexMutex.Lock()
	rect, _ := rtreego.NewRect(
		rtreego.Point{pos.X() - radius, pos.Z() - radius},
		[]float64{2 * radius, 2 * radius},
	)
	candidates := s.spatialIndex.SearchIntersect(rect)
	s.indexMutex.Unlock()

	var ids []string
	for _, c := range candidates {
		sp := c.(*playerSpatial)
		dx, dz := sp.x-pos.X(), sp.z-pos.Z()
		if dx*dx+dz*dz <= radius*radius {
			ids = append(ids, sp.userID)
		}
	}
	return ids
}

// reindex moves a player's entry in the spatial index.
func (s *PresenceService) reindex(userID string, pos mgl64.Vec3) {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	if old, ok := s.spatials[userID]; ok {
		s.spatialIndex.Delete(old)
	}
	sp := &playerSpatial{userID: userID, x: pos.X(), z: pos.Z()}
	s.spatials[userID] = sp
	s.spatialIndex.Insert(sp)
}
