package room

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/infrastructure/store"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	kv := store.NewMemoryStore(zerolog.Nop())
	r := NewRoom("proj-1", testConfig(), kv, zerolog.Nop(), nil)
	t.Cleanup(r.Shutdown)
	return r
}

func TestRoomAdmitSendsConnected(t *testing.T) {
	r := newTestRoom(t)
	sock := newFakeSocket()

	conn, err := r.Admit(RoleAgent, sock, Metadata{})
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if conn.Role != RoleAgent || conn.ProjectID != "proj-1" {
		t.Fatalf("Admit() connection = %+v", conn)
	}

	msg := sock.last()
	if msg == nil || msg.Type() != "connected" {
		t.Fatalf("Admit() did not send a connected envelope, got %v", msg)
	}
}

func TestRoomAdmitRuntimeSingleton(t *testing.T) {
	r := newTestRoom(t)

	first, err := r.Admit(RoleRuntime, newFakeSocket(), Metadata{})
	if err != nil {
		t.Fatalf("first Admit() error = %v", err)
	}
	if !r.RuntimeOpen() {
		t.Fatalf("RuntimeOpen() = false after first runtime admitted")
	}

	_, err = r.Admit(RoleRuntime, newFakeSocket(), Metadata{})
	if err != ErrRuntimeSingleton {
		t.Fatalf("second Admit() error = %v, want ErrRuntimeSingleton", err)
	}

	r.Disconnect(first.ID)
	waitForCondition(t, func() bool { return !r.RuntimeOpen() })

	if _, err := r.Admit(RoleRuntime, newFakeSocket(), Metadata{}); err != nil {
		t.Fatalf("Admit() after disconnect error = %v, want nil", err)
	}
}

func TestRoomStatusCounts(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.Admit(RoleRuntime, newFakeSocket(), Metadata{}); err != nil {
		t.Fatalf("Admit(runtime) error = %v", err)
	}
	if _, err := r.Admit(RoleAgent, newFakeSocket(), Metadata{}); err != nil {
		t.Fatalf("Admit(agent) error = %v", err)
	}
	if _, err := r.Admit(RoleProd, newFakeSocket(), Metadata{}); err != nil {
		t.Fatalf("Admit(prod) error = %v", err)
	}
	if _, err := r.Admit(RoleAdmin, newFakeSocket(), Metadata{}); err != nil {
		t.Fatalf("Admit(admin) error = %v", err)
	}

	snap, err := r.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !snap.RuntimeOpen || snap.AgentCount != 1 || snap.ProdCount != 1 || snap.AdminCount != 1 {
		t.Fatalf("Status() = %+v, unexpected counts", snap)
	}
}

func TestRoomAdmitInvalidRole(t *testing.T) {
	r := newTestRoom(t)
	if _, err := r.Admit(Role("bogus"), newFakeSocket(), Metadata{}); err == nil {
		t.Fatalf("Admit() with invalid role: want error, got nil")
	}
}

func TestRoomDisconnectUnknownConnIsNoop(t *testing.T) {
	r := newTestRoom(t)
	r.Disconnect("does-not-exist")

	snap, err := r.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if snap.AgentCount != 0 || snap.ProdCount != 0 || snap.AdminCount != 0 || snap.RuntimeOpen {
		t.Fatalf("Status() after disconnecting unknown conn = %+v", snap)
	}
}

func TestRoomShutdownStopsExecutor(t *testing.T) {
	kv := store.NewMemoryStore(zerolog.Nop())
	r := NewRoom("proj-shutdown", testConfig(), kv, zerolog.Nop(), nil)

	if r.Closed() {
		t.Fatalf("Closed() = true before Shutdown()")
	}
	r.Shutdown()
	if !r.Closed() {
		t.Fatalf("Closed() = false after Shutdown()")
	}
	if _, err := r.Status(); err != ErrRoomClosed {
		t.Fatalf("Status() after Shutdown() error = %v, want ErrRoomClosed", err)
	}
}

// waitForCondition polls cond for a short window, since Admit/Disconnect
// run asynchronously on the Room's executor goroutine.
func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
