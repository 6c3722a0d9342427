// Package wsupgrade adapts a *websocket.Conn to room.Socket, the same
// split the teacher draws between ws.Hub and its Subscriber interface —
// the Room domain never imports gorilla/websocket directly.
package wsupgrade

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/domain/room"
)

// Socket wraps a *websocket.Conn as room.Socket. Writes are serialized with
// a mutex because gorilla/websocket forbids concurrent writers on one
// connection, while the Room's executor and the read-loop goroutine may
// both call Send/Close around the same time during teardown.
type Socket struct {
	mu    sync.Mutex
	conn  *websocket.Conn
	log   zerolog.Logger
	state room.SocketState
}

// New wraps conn, already past the HTTP upgrade, as an open room.Socket.
func New(conn *websocket.Conn, log zerolog.Logger) *Socket {
	return &Socket{conn: conn, log: log, state: room.StateOpen}
}

// Send marshals e and writes it as a single text frame.
func (s *Socket) Send(e room.Envelope) error {
	payload, err := e.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != room.StateOpen {
		return websocket.ErrCloseSent
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.state = room.StateClosed
		return err
	}
	return nil
}

// Close sends a close frame with code/reason and tears down the connection.
func (s *Socket) Close(code int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == room.StateClosed {
		return nil
	}
	s.state = room.StateClosing
	frame := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(5*time.Second))
	err := s.conn.Close()
	s.state = room.StateClosed
	return err
}

// State reports the socket's current lifecycle state.
func (s *Socket) State() room.SocketState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ReadLoop blocks reading frames off conn and handing each to onMessage,
// until the connection errors or closes, at which point onClose runs
// exactly once. Meant to run in its own goroutine per connection, mirroring
// the teacher's read-until-error client loop.
func ReadLoop(conn *websocket.Conn, onMessage func(raw []byte), onClose func()) {
	defer onClose()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		onMessage(raw)
	}
}
