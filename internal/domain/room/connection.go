package room

import "time"

// SocketState mirrors the transport's connection lifecycle, matching the
// state set the spec assumes of the underlying frame channel.
type SocketState int

const (
	StateConnecting SocketState = iota
	StateOpen
	StateClosing
	StateClosed
)

// Close codes the Room emits itself (spec §6).
const (
	CloseNormal          = 1000
	ClosePolicyViolation = 1008
)

// Socket is the frame-preserving bidirectional channel the Room sends and
// receives envelopes over. The Room never depends on gorilla/websocket
// directly — httpserver/wsupgrade adapts a *websocket.Conn to this
// interface, the same separation the teacher draws between ws.Hub and
// ws.Subscriber.
type Socket interface {
	Send(e Envelope) error
	Close(code int, reason string) error
	State() SocketState
}

// Role is one of the four accepted client roles.
type Role string

const (
	RoleRuntime Role = "runtime"
	RoleAgent   Role = "agent"
	RoleProd    Role = "prod"
	RoleAdmin   Role = "admin"
)

// IsValidRole reports whether r is one of the four accepted roles.
func IsValidRole(r string) bool {
	switch Role(r) {
	case RoleRuntime, RoleAgent, RoleProd, RoleAdmin:
		return true
	default:
		return false
	}
}

// Metadata carries optional connection provenance.
type Metadata struct {
	UserAgent string
	Origin    string
}

// Connection is a single admitted client socket, owned exclusively by its
// Room's executor goroutine.
type Connection struct {
	ID          string
	Role        Role
	ProjectID   string
	Socket      Socket
	ConnectedAt time.Time
	Metadata    Metadata
}

// IsOpen reports whether the underlying socket is in state OPEN.
func (c *Connection) IsOpen() bool {
	return c != nil && c.Socket != nil && c.Socket.State() == StateOpen
}

// Send delivers an envelope to this connection, never blocking the caller
// on a dead peer — the caller is responsible for evicting on error.
func (c *Connection) Send(e Envelope) error {
	return c.Socket.Send(e)
}
