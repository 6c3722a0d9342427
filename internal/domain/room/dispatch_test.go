package room

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/infrastructure/store"
)

func encodeOrFail(t *testing.T, env Envelope) []byte {
	t.Helper()
	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return raw
}

func TestHandleMessagePing(t *testing.T) {
	r := newTestRoom(t)
	sock := newFakeSocket()
	conn, err := r.Admit(RoleRuntime, sock, Metadata{})
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}

	r.HandleMessage(conn.ID, encodeOrFail(t, Envelope{"type": "ping", "timestamp": NowMillis(), "projectId": "proj-1"}))

	waitForMessage(t, sock, func(e Envelope) bool { return e.Type() == "pong" })
}

func TestHandleMessageInvalidJSONRepliesError(t *testing.T) {
	r := newTestRoom(t)
	sock := newFakeSocket()
	conn, err := r.Admit(RoleRuntime, sock, Metadata{})
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}

	r.HandleMessage(conn.ID, []byte(`not json`))

	waitForMessage(t, sock, func(e Envelope) bool { return e.Type() == "error" })
}

func TestHandleMessageMissingRequiredFieldRepliesError(t *testing.T) {
	r := newTestRoom(t)
	sock := newFakeSocket()
	conn, err := r.Admit(RoleRuntime, sock, Metadata{})
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}

	r.HandleMessage(conn.ID, encodeOrFail(t, Envelope{"type": "graphql_query", "timestamp": NowMillis()}))

	waitForMessage(t, sock, func(e Envelope) bool { return e.Type() == "error" })
}

func TestHandleMessageGraphqlQueryForwardsToAgent(t *testing.T) {
	r := newTestRoom(t)
	runtimeSock := newFakeSocket()
	agentSock := newFakeSocket()

	runtime, err := r.Admit(RoleRuntime, runtimeSock, Metadata{})
	if err != nil {
		t.Fatalf("Admit(runtime) error = %v", err)
	}
	if _, err := r.Admit(RoleAgent, agentSock, Metadata{}); err != nil {
		t.Fatalf("Admit(agent) error = %v", err)
	}

	r.HandleMessage(runtime.ID, encodeOrFail(t, Envelope{
		"type": "graphql_query", "timestamp": NowMillis(),
		"requestId": "r1", "query": "{ ping }",
	}))

	waitForMessage(t, agentSock, func(e Envelope) bool { return e.Type() == "graphql_query" && e.RequestID() == "r1" })
	forwarded := agentSock.last()
	if forwarded["runtimeId"] != runtime.ID {
		t.Fatalf("forwarded envelope missing runtimeId: %v", forwarded)
	}
}

func TestHandleMessageGraphqlQueryFallsBackToFixture(t *testing.T) {
	r := newTestRoom(t)
	sock := newFakeSocket()
	conn, err := r.Admit(RoleRuntime, sock, Metadata{})
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}

	r.HandleMessage(conn.ID, encodeOrFail(t, Envelope{
		"type": "graphql_query", "timestamp": NowMillis(),
		"requestId": "r1", "query": "find users",
	}))

	waitForMessage(t, sock, func(e Envelope) bool { return e.Type() == "query_response" && e.RequestID() == "r1" })
}

func TestHandleMessageAgentReplyRoutesBackToRuntime(t *testing.T) {
	r := newTestRoom(t)
	runtimeSock := newFakeSocket()
	agentSock := newFakeSocket()

	runtime, err := r.Admit(RoleRuntime, runtimeSock, Metadata{})
	if err != nil {
		t.Fatalf("Admit(runtime) error = %v", err)
	}
	agent, err := r.Admit(RoleAgent, agentSock, Metadata{})
	if err != nil {
		t.Fatalf("Admit(agent) error = %v", err)
	}

	r.HandleMessage(runtime.ID, encodeOrFail(t, Envelope{
		"type": "graphql_query", "timestamp": NowMillis(), "requestId": "r1", "query": "{ ping }",
	}))
	waitForMessage(t, agentSock, func(e Envelope) bool { return e.Type() == "graphql_query" })

	r.HandleMessage(agent.ID, encodeOrFail(t, Envelope{
		"type": "query_response", "timestamp": NowMillis(), "requestId": "r1", "data": map[string]any{"ok": true},
	}))

	waitForMessage(t, runtimeSock, func(e Envelope) bool { return e.Type() == "query_response" && e.RequestID() == "r1" })
}

func TestHandleMessageFanoutToAdmins(t *testing.T) {
	r := newTestRoom(t)
	runtimeSock := newFakeSocket()
	adminSock := newFakeSocket()

	runtime, err := r.Admit(RoleRuntime, runtimeSock, Metadata{})
	if err != nil {
		t.Fatalf("Admit(runtime) error = %v", err)
	}
	if _, err := r.Admit(RoleAdmin, adminSock, Metadata{}); err != nil {
		t.Fatalf("Admit(admin) error = %v", err)
	}

	r.HandleMessage(runtime.ID, encodeOrFail(t, Envelope{"type": "ping", "timestamp": NowMillis()}))

	waitForMessage(t, adminSock, func(e Envelope) bool { return e.Type() == "ping" })
}

func TestHandleMessageGetProdUIWithoutRuntimeErrors(t *testing.T) {
	r := newTestRoom(t)
	prodSock := newFakeSocket()
	prod, err := r.Admit(RoleProd, prodSock, Metadata{})
	if err != nil {
		t.Fatalf("Admit(prod) error = %v", err)
	}

	r.HandleMessage(prod.ID, encodeOrFail(t, Envelope{
		"type": "get_prod_ui", "timestamp": NowMillis(), "requestId": "r1",
	}))

	waitForMessage(t, prodSock, func(e Envelope) bool { return e.Type() == "error" })
}

func TestHandleMessageCheckAgents(t *testing.T) {
	r := newTestRoom(t)
	runtimeSock := newFakeSocket()
	runtime, err := r.Admit(RoleRuntime, runtimeSock, Metadata{})
	if err != nil {
		t.Fatalf("Admit(runtime) error = %v", err)
	}
	if _, err := r.Admit(RoleAgent, newFakeSocket(), Metadata{}); err != nil {
		t.Fatalf("Admit(agent) error = %v", err)
	}

	r.HandleMessage(runtime.ID, encodeOrFail(t, Envelope{
		"type": "check_agents", "timestamp": NowMillis(), "requestId": "r1",
	}))

	waitForMessage(t, runtimeSock, func(e Envelope) bool { return e.Type() == "agent_status_response" })
	resp := runtimeSock.last()
	agents, _ := resp["agents"].([]AgentStatus)
	if len(agents) != 1 {
		t.Fatalf("check_agents response agents = %v, want 1 entry", agents)
	}
}

func TestPendingRequestTimeoutNotifiesRuntime(t *testing.T) {
	kv := store.NewMemoryStore(zerolog.Nop())
	cfg := testConfig()
	cfg.RequestTimeout = 5 * time.Millisecond
	r := NewRoom("proj-timeout", cfg, kv, zerolog.Nop(), nil)
	defer r.Shutdown()

	runtimeSock := newFakeSocket()
	runtime, err := r.Admit(RoleRuntime, runtimeSock, Metadata{})
	if err != nil {
		t.Fatalf("Admit(runtime) error = %v", err)
	}
	// An OPEN agent exists so the query is forwarded and left pending
	// rather than answered immediately by the no-agent fallback.
	if _, err := r.Admit(RoleAgent, newFakeSocket(), Metadata{}); err != nil {
		t.Fatalf("Admit(agent) error = %v", err)
	}

	r.HandleMessage(runtime.ID, encodeOrFail(t, Envelope{
		"type": "graphql_query", "timestamp": NowMillis(), "requestId": "r1", "query": "{ ping }",
	}))

	waitForMessage(t, runtimeSock, func(e Envelope) bool {
		return e.Type() == "error" && e.RequestID() == "r1"
	})
}

func waitForMessage(t *testing.T, sock *fakeSocket, match func(Envelope) bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, msg := range sock.messages() {
			if match(msg) {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected message not observed, got %v", sock.messages())
}
