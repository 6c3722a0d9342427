package room

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/infrastructure/metrics"
	"github.com/janhq/roombus/internal/infrastructure/store"
)

// Registry maps projectId to its live Room, generalizing the teacher's
// single multi-project Hub into a registry of one-goroutine-per-project
// actors. Deterministic: the same projectId always resolves to the same
// Room while one is live.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	cfg    Config
	kv     store.Store
	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry(cfg Config, kv store.Store, logger zerolog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		cfg:    cfg,
		kv:     kv,
		logger: logger.With().Str("component", "room-registry").Logger(),
	}
}

// GetOrCreate returns the live Room for projectID, creating one if absent
// or if the previous instance already terminated via its idle alarm.
func (reg *Registry) GetOrCreate(projectID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rooms[projectID]; ok && !r.Closed() {
		return r
	}

	r := NewRoom(projectID, reg.cfg, reg.kv, reg.logger, reg.evict)
	reg.rooms[projectID] = r
	metrics.RecordRoomCreated()
	return r
}

// Get returns the live Room for projectID without creating one.
func (reg *Registry) Get(projectID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[projectID]
	if !ok || r.Closed() {
		return nil, false
	}
	return r, true
}

// evict is the onTerminate callback passed to every Room; it removes the
// Room from the registry once its executor has suspended.
func (reg *Registry) evict(projectID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, projectID)
	metrics.RecordRoomSuspended()
}

// Count returns the number of currently live Rooms, for metrics.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Shutdown gracefully stops every live Room — called on process exit.
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.Unlock()

	for _, r := range rooms {
		r.Shutdown()
	}
}
