// Package room implements the per-project Room actor: the single-threaded
// state container that owns a project's client sockets, pending-request
// table, log buckets, and idle alarm (spec §3, §4.2-4.4, §4.9).
package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/infrastructure/metrics"
	"github.com/janhq/roombus/internal/infrastructure/store"
)

// ErrRuntimeSingleton is returned by Admit when a runtime connection is
// already OPEN for this Room.
var ErrRuntimeSingleton = errors.New("runtime connection already open")

// ErrRoomClosed is returned by any operation issued after the Room has
// already terminated via its idle alarm.
var ErrRoomClosed = errors.New("room closed")

// Config carries the process-wide constants a Room is parameterized by —
// injected at start, never mutated (spec §9 Design Notes: Global mutable state).
type Config struct {
	RequestTimeout    time.Duration
	IdleAlarmDelay    time.Duration
	LogRetentionHours int
	MaxLogsPerHour    int
	AdminReplayLimit  int
	FixturesEnabled   bool
}

// StatusSnapshot is the read-only view returned by GET /status.
type StatusSnapshot struct {
	ProjectID    string    `json:"projectId"`
	RuntimeOpen  bool      `json:"runtimeOpen"`
	AgentCount   int       `json:"agentCount"`
	ProdCount    int       `json:"prodCount"`
	AdminCount   int       `json:"adminCount"`
	PendingCount int       `json:"pendingCount"`
	LastActivity time.Time `json:"lastActivity"`
}

// Room is the per-project actor. Every field below this comment is mutated
// only by the goroutine running Room.run; everything else communicates with
// it by enqueuing a closure on commands.
type Room struct {
	projectID string
	cfg       Config
	logger    zerolog.Logger
	logs      *logStore
	usage     *usageCounter

	runtime *Connection
	agents  map[string]*Connection
	prods   map[string]*Connection
	admins  map[string]*Connection
	pending *pendingTable

	lastActivity time.Time
	idleAlarm    *time.Timer
	terminated   bool

	commands    chan func(*Room)
	closed      chan struct{}
	onTerminate func(projectID string)
}

// NewRoom constructs a Room and starts its executor goroutine. onTerminate,
// if non-nil, is called exactly once from within the executor when the Room
// suspends after an idle-alarm fire, so a Registry can evict it.
func NewRoom(projectID string, cfg Config, kv store.Store, logger zerolog.Logger, onTerminate func(string)) *Room {
	log := logger.With().Str("component", "room").Str("project_id", projectID).Logger()
	r := &Room{
		projectID:    projectID,
		cfg:          cfg,
		logger:       log,
		logs:         newLogStore(kv, cfg.MaxLogsPerHour, cfg.LogRetentionHours, log),
		usage:        newUsageCounter(kv, log),
		agents:       make(map[string]*Connection),
		prods:        make(map[string]*Connection),
		admins:       make(map[string]*Connection),
		pending:      newPendingTable(),
		lastActivity: time.Now(),
		commands:     make(chan func(*Room), 64),
		closed:       make(chan struct{}),
		onTerminate:  onTerminate,
	}
	go r.run()
	return r
}

func (r *Room) run() {
	defer close(r.closed)
	for fn := range r.commands {
		fn(r)
		if r.terminated {
			return
		}
	}
}

// enqueue hands fn to the executor. It reports false if the Room has
// already terminated, in which case fn never runs.
func (r *Room) enqueue(fn func(*Room)) bool {
	select {
	case <-r.closed:
		return false
	default:
	}
	select {
	case r.commands <- fn:
		return true
	case <-r.closed:
		return false
	}
}

// Closed reports whether the Room's executor has already exited.
func (r *Room) Closed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

// RuntimeOpen synchronously reports whether a runtime is currently OPEN —
// used by the front router to short-circuit an upgrade attempt before
// performing it, ahead of Admit's authoritative re-check.
func (r *Room) RuntimeOpen() bool {
	var open bool
	done := make(chan struct{})
	if !r.enqueue(func(rr *Room) {
		open = rr.runtime != nil && rr.runtime.IsOpen()
		close(done)
	}) {
		return false
	}
	<-done
	return open
}

// Admit registers a newly upgraded socket under role and returns its
// Connection. Returns ErrRuntimeSingleton if role is runtime and one is
// already OPEN.
func (r *Room) Admit(role Role, socket Socket, meta Metadata) (*Connection, error) {
	type result struct {
		conn *Connection
		err  error
	}
	resCh := make(chan result, 1)
	if !r.enqueue(func(rr *Room) {
		conn, err := rr.admit(role, socket, meta)
		resCh <- result{conn, err}
	}) {
		return nil, ErrRoomClosed
	}
	res := <-resCh
	return res.conn, res.err
}

// HandleMessage enqueues an inbound frame for processing. Fire-and-forget:
// ordering within a single connection is preserved by the channel's FIFO
// semantics, but the caller does not wait for routing to complete.
func (r *Room) HandleMessage(connID string, raw []byte) {
	r.enqueue(func(rr *Room) { rr.handleMessage(connID, raw) })
}

// Disconnect notifies the Room that connID's socket closed or errored.
func (r *Room) Disconnect(connID string) {
	r.enqueue(func(rr *Room) { rr.disconnect(connID) })
}

// Status synchronously snapshots the Room's connection/pending counts.
func (r *Room) Status() (StatusSnapshot, error) {
	var snap StatusSnapshot
	done := make(chan struct{})
	if !r.enqueue(func(rr *Room) {
		snap = rr.snapshot()
		close(done)
	}) {
		return StatusSnapshot{}, ErrRoomClosed
	}
	<-done
	return snap, nil
}

// Shutdown cancels every pending request and stops the executor, mirroring
// the idle-alarm termination path but triggered externally (process exit).
func (r *Room) Shutdown() {
	r.enqueue(func(rr *Room) {
		rr.pending.removeAll()
		rr.terminated = true
	})
	<-r.closed
}

func (r *Room) snapshot() StatusSnapshot {
	return StatusSnapshot{
		ProjectID:    r.projectID,
		RuntimeOpen:  r.runtime != nil && r.runtime.IsOpen(),
		AgentCount:   len(r.agents),
		ProdCount:    len(r.prods),
		AdminCount:   len(r.admins),
		PendingCount: r.pending.len(),
		LastActivity: r.lastActivity,
	}
}

func (r *Room) admit(role Role, socket Socket, meta Metadata) (*Connection, error) {
	r.cancelIdleAlarm()

	conn := &Connection{
		ID:          uuid.NewString(),
		Role:        role,
		ProjectID:   r.projectID,
		Socket:      socket,
		ConnectedAt: time.Now(),
		Metadata:    meta,
	}

	switch role {
	case RoleRuntime:
		if r.runtime != nil && r.runtime.IsOpen() {
			r.refreshIdleAlarm()
			return nil, ErrRuntimeSingleton
		}
		if r.runtime != nil {
			r.pending.removeByRuntime(r.runtime.ID)
		}
		r.runtime = conn
	case RoleAgent:
		r.agents[conn.ID] = conn
	case RoleProd:
		r.prods[conn.ID] = conn
	case RoleAdmin:
		r.admins[conn.ID] = conn
		r.replayHistoryTo(conn)
	default:
		return nil, fmt.Errorf("invalid role %q", role)
	}
	metrics.ConnectionsByRole.WithLabelValues(string(role)).Inc()

	r.touch()

	if err := conn.Send(NewConnected(conn.ID, string(role), r.projectID)); err != nil {
		r.logger.Warn().Err(err).Str("client_id", conn.ID).Msg("failed to send connected envelope")
	}
	return conn, nil
}

func (r *Room) replayHistoryTo(conn *Connection) {
	logs := r.logs.replay(context.Background(), r.projectID, r.cfg.AdminReplayLimit)
	if err := conn.Send(NewHistoricalLogs(r.projectID, logs)); err != nil {
		r.logger.Warn().Err(err).Msg("failed to deliver historical logs to newly admitted admin")
	}
}

func (r *Room) disconnect(connID string) {
	switch {
	case r.runtime != nil && r.runtime.ID == connID:
		r.runtime = nil
		r.pending.removeByRuntime(connID)
		metrics.ConnectionsByRole.WithLabelValues(string(RoleRuntime)).Dec()
	case r.deleteFrom(r.agents, connID):
		// agent departure leaves pending requests in place; they will
		// time out or be satisfied by another agent's reply.
		metrics.ConnectionsByRole.WithLabelValues(string(RoleAgent)).Dec()
	case r.deleteFrom(r.prods, connID):
		metrics.ConnectionsByRole.WithLabelValues(string(RoleProd)).Dec()
	case r.deleteFrom(r.admins, connID):
		metrics.ConnectionsByRole.WithLabelValues(string(RoleAdmin)).Dec()
	}
	r.touch()
}

func (r *Room) deleteFrom(m map[string]*Connection, connID string) bool {
	if _, ok := m[connID]; !ok {
		return false
	}
	delete(m, connID)
	return true
}

// touch updates lastActivity and re-evaluates the idle alarm.
func (r *Room) touch() {
	r.lastActivity = time.Now()
	r.refreshIdleAlarm()
}

func (r *Room) isIdle() bool {
	return r.runtime == nil && len(r.agents) == 0
}

func (r *Room) refreshIdleAlarm() {
	if r.isIdle() {
		r.armIdleAlarm()
	} else {
		r.cancelIdleAlarm()
	}
}

func (r *Room) armIdleAlarm() {
	r.cancelIdleAlarm()
	r.idleAlarm = time.AfterFunc(r.cfg.IdleAlarmDelay, func() {
		r.enqueue(func(rr *Room) { rr.onIdleFired() })
	})
}

func (r *Room) cancelIdleAlarm() {
	if r.idleAlarm != nil {
		r.idleAlarm.Stop()
		r.idleAlarm = nil
	}
}

// onIdleFired is the alarm callback, always run inside the executor. It
// re-checks idleness in case a connect/message raced the timer (the stale
// fire is simply ignored — the alarm was already replaced by touch()).
func (r *Room) onIdleFired() {
	if !r.isIdle() {
		return
	}
	r.idleAlarm = nil
	r.pending.removeAll()
	r.logs.compact(context.Background(), r.projectID)
	r.terminated = true
	r.logger.Info().Msg("room suspended after idle alarm")
	if r.onTerminate != nil {
		r.onTerminate(r.projectID)
	}
}
