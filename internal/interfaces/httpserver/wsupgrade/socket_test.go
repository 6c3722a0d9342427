package wsupgrade

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/domain/room"
)

// newEchoServer upgrades every request to a websocket and hands the server
// side *websocket.Conn to onConn for the test to drive directly.
func newEchoServer(t *testing.T, onConn func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("server upgrade failed: %v", err)
			return
		}
		onConn(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialClient(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("client dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSocketSendDeliversEnvelope(t *testing.T) {
	received := make(chan room.Envelope, 1)

	server := newEchoServer(t, func(conn *websocket.Conn) {
		s := New(conn, zerolog.Nop())
		_ = s.Send(room.Envelope{"type": "connected", "clientId": "c1"})
	})

	client := dialClient(t, server)
	go func() {
		_, raw, err := client.ReadMessage()
		if err != nil {
			return
		}
		env, _ := room.DecodeEnvelope(raw)
		received <- env
	}()

	select {
	case env := <-received:
		if env.Type() != "connected" {
			t.Fatalf("received envelope = %v, want type=connected", env)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
	}
}

func TestSocketStateTransitionsToClosed(t *testing.T) {
	done := make(chan struct{})

	server := newEchoServer(t, func(conn *websocket.Conn) {
		s := New(conn, zerolog.Nop())
		if s.State() != room.StateOpen {
			t.Errorf("initial State() = %v, want StateOpen", s.State())
		}
		if err := s.Close(room.CloseNormal, "done"); err != nil {
			t.Errorf("Close() error = %v", err)
		}
		if s.State() != room.StateClosed {
			t.Errorf("State() after Close() = %v, want StateClosed", s.State())
		}
		close(done)
	})

	dialClient(t, server)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server handler")
	}
}

func TestSocketSendAfterCloseErrors(t *testing.T) {
	done := make(chan error, 1)

	server := newEchoServer(t, func(conn *websocket.Conn) {
		s := New(conn, zerolog.Nop())
		_ = s.Close(room.CloseNormal, "bye")
		done <- s.Send(room.Envelope{"type": "ping"})
	})

	dialClient(t, server)

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Send() after Close(): want error, got nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server handler")
	}
}

func TestReadLoopDeliversMessagesAndSignalsClose(t *testing.T) {
	var gotMessages [][]byte
	closed := make(chan struct{})

	server := newEchoServer(t, func(conn *websocket.Conn) {
		ReadLoop(conn, func(raw []byte) {
			gotMessages = append(gotMessages, raw)
		}, func() {
			close(closed)
		})
	})

	client := dialClient(t, server)
	if err := client.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("client write failed: %v", err)
	}
	client.Close()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ReadLoop to signal close")
	}
	if len(gotMessages) != 1 {
		t.Fatalf("gotMessages = %d, want 1", len(gotMessages))
	}
}
