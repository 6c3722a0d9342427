package room

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/infrastructure/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	kv := store.NewMemoryStore(zerolog.Nop())
	reg := NewRegistry(testConfig(), kv, zerolog.Nop())
	t.Cleanup(reg.Shutdown)
	return reg
}

func TestRegistryGetOrCreateIsStable(t *testing.T) {
	reg := newTestRegistry(t)

	first := reg.GetOrCreate("proj-1")
	second := reg.GetOrCreate("proj-1")
	if first != second {
		t.Fatalf("GetOrCreate() returned different Rooms for the same projectId")
	}
	if reg.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegistryGetOnUnknownProject(t *testing.T) {
	reg := newTestRegistry(t)
	if _, ok := reg.Get("missing"); ok {
		t.Fatalf("Get() found a Room for an uncreated project")
	}
}

func TestRegistryReplacesClosedRoom(t *testing.T) {
	kv := store.NewMemoryStore(zerolog.Nop())
	reg := NewRegistry(testConfig(), kv, zerolog.Nop())
	t.Cleanup(reg.Shutdown)

	r := reg.GetOrCreate("proj-1")
	r.Shutdown()

	// evict runs from within Room.onIdleFired/Shutdown's own goroutine path
	// only for idle-alarm termination; a direct Shutdown() call does not
	// invoke onTerminate, so the registry still reports the room as present
	// until GetOrCreate notices it is closed and replaces it.
	next := reg.GetOrCreate("proj-1")
	if next == r {
		t.Fatalf("GetOrCreate() returned a terminated Room instead of creating a fresh one")
	}
}

func TestRegistryShutdownStopsAllRooms(t *testing.T) {
	reg := newTestRegistry(t)
	a := reg.GetOrCreate("proj-a")
	b := reg.GetOrCreate("proj-b")

	reg.Shutdown()

	if !a.Closed() || !b.Closed() {
		t.Fatalf("Shutdown() left a room running: a.Closed()=%v b.Closed()=%v", a.Closed(), b.Closed())
	}
}
