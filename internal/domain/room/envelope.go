package room

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the loosely-typed wire message this service routes: a JSON
// object that always carries `type` and `timestamp`, plus whichever of
// projectId, requestId, runtimeId, prodId, query, variables, data, error,
// message the message kind needs. It is kept as a map rather than a fixed
// struct so that forwarding a message leaves every field the sender set
// untouched — the routing engine only ever adds annotations on top.
type Envelope map[string]any

// DecodeEnvelope parses a single inbound JSON frame.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if e == nil {
		e = Envelope{}
	}
	return e, nil
}

// Encode serializes the envelope back to JSON.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(map[string]any(e))
}

func (e Envelope) str(key string) string {
	v, _ := e[key].(string)
	return v
}

// Type returns the envelope's `type` discriminator.
func (e Envelope) Type() string { return e.str("type") }

// RequestID returns `requestId`, empty if absent.
func (e Envelope) RequestID() string { return e.str("requestId") }

// ProjectID returns `projectId`, empty if absent.
func (e Envelope) ProjectID() string { return e.str("projectId") }

// RuntimeID returns `runtimeId`, empty if absent.
func (e Envelope) RuntimeID() string { return e.str("runtimeId") }

// ProdID returns `prodId`, empty if absent.
func (e Envelope) ProdID() string { return e.str("prodId") }

// HasTimestamp reports whether a numeric `timestamp` field is present.
func (e Envelope) HasTimestamp() bool {
	_, ok := e["timestamp"].(float64)
	return ok
}

// Clone returns a shallow copy, safe to mutate without affecting the original.
func (e Envelope) Clone() Envelope {
	out := make(Envelope, len(e)+2)
	for k, v := range e {
		out[k] = v
	}
	return out
}

// With returns a clone with key set to value.
func (e Envelope) With(key string, value any) Envelope {
	out := e.Clone()
	out[key] = value
	return out
}

// Validate enforces the top-level envelope rules from the wire format:
// `type` and `timestamp` are always required; request/response kinds also
// require `requestId`.
func (e Envelope) Validate() error {
	if e.Type() == "" {
		return fmt.Errorf("missing required field: type")
	}
	if !e.HasTimestamp() {
		return fmt.Errorf("missing required field: timestamp")
	}
	switch e.Type() {
	case "graphql_query", "query_response", "get_docs", "docs":
		if e.RequestID() == "" {
			return fmt.Errorf("missing required field: requestId")
		}
	}
	return nil
}

// NowMillis is the ms-since-epoch clock used for every `timestamp` field.
func NowMillis() int64 { return time.Now().UnixMilli() }

// NewConnected builds the envelope sent to a newly admitted client.
func NewConnected(clientID, clientType, projectID string) Envelope {
	return Envelope{
		"type":       "connected",
		"clientId":   clientID,
		"clientType": clientType,
		"projectId":  projectID,
		"message":    "connected",
		"timestamp":  NowMillis(),
	}
}

// NewError builds an `error` envelope. requestID may be empty.
func NewError(message, requestID, projectID string) Envelope {
	e := Envelope{
		"type":      "error",
		"message":   message,
		"projectId": projectID,
		"timestamp": NowMillis(),
	}
	if requestID != "" {
		e["requestId"] = requestID
	}
	return e
}

// NewPong replies to a `ping`.
func NewPong(projectID string) Envelope {
	return Envelope{"type": "pong", "projectId": projectID, "timestamp": NowMillis()}
}

// NewHistoricalLogs wraps a replay batch for a newly admitted admin.
func NewHistoricalLogs(projectID string, logs []StoredLog) Envelope {
	return Envelope{
		"type":      "historical_logs",
		"projectId": projectID,
		"logs":      logs,
		"count":     len(logs),
		"timestamp": NowMillis(),
	}
}

// NewAgentStatusResponse replies to `check_agents`.
func NewAgentStatusResponse(projectID string, agents []AgentStatus, requestID string) Envelope {
	e := Envelope{
		"type":      "agent_status_response",
		"projectId": projectID,
		"agents":    agents,
		"timestamp": NowMillis(),
	}
	if requestID != "" {
		e["requestId"] = requestID
	}
	return e
}

// AgentStatus is the shape returned for each OPEN agent by `check_agents`.
type AgentStatus struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connectedAt"`
	ProjectID   string    `json:"projectId"`
}
