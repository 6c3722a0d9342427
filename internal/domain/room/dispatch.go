package room

import (
	"context"
	"fmt"
	"time"

	"github.com/janhq/roombus/internal/infrastructure/metrics"
)

// handleMessage implements the per-frame pipeline from spec §4.3: parse,
// update activity, fan out to admins, archive, then dispatch by type.
// Nothing here may panic the executor; a bad frame becomes an error reply,
// never a crash.
func (r *Room) handleMessage(connID string, raw []byte) {
	conn, ok := r.findConnection(connID)
	if !ok {
		return
	}

	r.cancelIdleAlarm()

	env, err := DecodeEnvelope(raw)
	if err != nil {
		r.safeSend(conn, NewError("invalid JSON", "", r.projectID))
		r.touch()
		return
	}

	if env.Type() != "error" {
		if verr := env.Validate(); verr != nil {
			r.safeSend(conn, NewError(verr.Error(), env.RequestID(), r.projectID))
			r.touch()
			return
		}
	}

	r.lastActivity = time.Now()
	r.fanoutToAdmins(conn, env)
	r.appendLog(conn, env, DirectionIncoming)
	r.usage.recordMessage(context.Background(), r.projectID)

	r.dispatch(conn, env)
	r.touch()
}

func (r *Room) findConnection(id string) (*Connection, bool) {
	if r.runtime != nil && r.runtime.ID == id {
		return r.runtime, true
	}
	if c, ok := r.agents[id]; ok {
		return c, true
	}
	if c, ok := r.prods[id]; ok {
		return c, true
	}
	if c, ok := r.admins[id]; ok {
		return c, true
	}
	return nil, false
}

// fanoutToAdmins delivers a decorated copy of env to every admin socket
// OPEN other than the sender, per spec §4.6. Stale admins are skipped, not
// evicted — only their own close/error event removes them from the map.
func (r *Room) fanoutToAdmins(sender *Connection, env Envelope) {
	decorated := env.With("_meta", map[string]any{
		"from":        sender.ID,
		"projectId":   r.projectID,
		"forwardedAt": NowMillis(),
	})
	for id, admin := range r.admins {
		if id == sender.ID || !admin.IsOpen() {
			continue
		}
		r.safeSend(admin, decorated)
	}
}

func (r *Room) appendLog(conn *Connection, env Envelope, dir Direction) {
	entry := StoredLog{
		ID:          newStoredLogID(),
		Timestamp:   time.Now().UTC(),
		MessageType: env.Type(),
		Direction:   dir,
		Envelope:    env,
		ClientID:    conn.ID,
		ClientRole:  string(conn.Role),
		ProjectID:   r.projectID,
	}
	r.logs.append(context.Background(), r.projectID, entry)
}

func (r *Room) safeSend(conn *Connection, env Envelope) {
	if err := conn.Send(env); err != nil {
		r.logger.Warn().Err(err).Str("client_id", conn.ID).Msg("failed to deliver envelope")
	}
}

func (r *Room) dispatch(sender *Connection, env Envelope) {
	metrics.RecordMessageRouted(env.Type())
	switch env.Type() {
	case "graphql_query":
		r.handleGraphqlQuery(sender, env)
	case "query_response":
		r.handleAgentReply(sender, env, PendingQuery)
	case "get_docs":
		r.handleGetDocs(sender, env)
	case "docs":
		r.handleAgentReply(sender, env, PendingDocs)
	case "get_prod_ui":
		r.handleGetProdUI(sender, env)
	case "prod_ui_response":
		r.handleProdUIResponse(sender, env)
	case "check_agents":
		r.handleCheckAgents(sender, env)
	case "ping":
		r.safeSend(sender, NewPong(r.projectID))
	case "error":
		r.logger.Warn().Str("client_id", sender.ID).Msg("received client error envelope")
	default:
		r.logger.Warn().Str("client_id", sender.ID).Str("type", env.Type()).Msg("unknown message type")
	}
}

// pickOpenAgent returns the first OPEN agent found during iteration,
// evicting any stale entries it passes over. Go map iteration order is
// randomized, so "first" here means "any" — the spec's ordering guarantee
// only binds forwarding within a single connection, not agent selection.
func (r *Room) pickOpenAgent() *Connection {
	for id, agent := range r.agents {
		if agent.IsOpen() {
			return agent
		}
		delete(r.agents, id)
	}
	return nil
}

func (r *Room) handleGraphqlQuery(sender *Connection, env Envelope) {
	requestID := env.RequestID()
	r.registerPending(requestID, sender.ID, PendingQuery)

	agent := r.pickOpenAgent()
	if agent == nil {
		r.pending.remove(requestID)
		r.fallbackQueryResponse(sender, env)
		return
	}
	r.safeSend(agent, env.With("runtimeId", sender.ID))
}

func (r *Room) handleGetDocs(sender *Connection, env Envelope) {
	requestID := env.RequestID()
	r.registerPending(requestID, sender.ID, PendingDocs)

	agent := r.pickOpenAgent()
	if agent == nil {
		r.pending.remove(requestID)
		r.fallbackDocsResponse(sender, env)
		return
	}
	r.safeSend(agent, env.With("runtimeId", sender.ID))
}

func (r *Room) registerPending(requestID, runtimeID string, kind PendingKind) {
	p := newPendingRequest(requestID, runtimeID, kind, r.cfg.RequestTimeout, func() {
		r.enqueue(func(rr *Room) { rr.onRequestTimeout(requestID) })
	})
	r.pending.insert(p)
}

func (r *Room) fallbackQueryResponse(sender *Connection, env Envelope) {
	requestID := env.RequestID()
	if !r.cfg.FixturesEnabled {
		r.safeSend(sender, NewError("no agent available", requestID, r.projectID))
		return
	}
	metrics.RecordFixtureFallback("query")
	query, _ := env["query"].(string)
	r.safeSend(sender, Envelope{
		"type":      "query_response",
		"requestId": requestID,
		"projectId": r.projectID,
		"data":      fixtureQueryResponse(query),
		"timestamp": NowMillis(),
	})
}

func (r *Room) fallbackDocsResponse(sender *Connection, env Envelope) {
	requestID := env.RequestID()
	if !r.cfg.FixturesEnabled {
		r.safeSend(sender, NewError("no agent available", requestID, r.projectID))
		return
	}
	metrics.RecordFixtureFallback("docs")
	query, _ := env["query"].(string)
	r.safeSend(sender, Envelope{
		"type":      "docs",
		"requestId": requestID,
		"projectId": r.projectID,
		"data":      fixtureDocsResponse(query),
		"timestamp": NowMillis(),
	})
}

// handleAgentReply correlates an agent's query_response/docs reply against
// the pending table and, on a live match, forwards it unchanged to the
// issuing runtime. kind is used only to flag a correlation mismatch — the
// spec's ordering invariants don't require rejecting on it.
func (r *Room) handleAgentReply(sender *Connection, env Envelope, kind PendingKind) {
	requestID := env.RequestID()
	p, ok := r.pending.get(requestID)
	if !ok {
		return
	}
	if p.Kind != kind {
		r.logger.Debug().Str("request_id", requestID).Msg("pending kind mismatch on reply")
	}
	if r.runtime == nil || r.runtime.ID != p.RuntimeID || !r.runtime.IsOpen() {
		r.pending.remove(requestID)
		return
	}
	r.safeSend(r.runtime, env)
	r.pending.remove(requestID)
}

func (r *Room) handleGetProdUI(sender *Connection, env Envelope) {
	if r.runtime == nil || !r.runtime.IsOpen() {
		r.safeSend(sender, NewError("no runtime available", env.RequestID(), r.projectID))
		return
	}
	r.safeSend(r.runtime, env.With("prodId", sender.ID))
}

func (r *Room) handleProdUIResponse(sender *Connection, env Envelope) {
	prod, ok := r.prods[env.ProdID()]
	if !ok || !prod.IsOpen() {
		return
	}
	r.safeSend(prod, env)
}

func (r *Room) handleCheckAgents(sender *Connection, env Envelope) {
	var statuses []AgentStatus
	for id, agent := range r.agents {
		if !agent.IsOpen() {
			delete(r.agents, id)
			continue
		}
		statuses = append(statuses, AgentStatus{
			ID:          agent.ID,
			ConnectedAt: agent.ConnectedAt,
			ProjectID:   r.projectID,
		})
	}
	r.safeSend(sender, NewAgentStatusResponse(r.projectID, statuses, env.RequestID()))
}

// onRequestTimeout fires when a PendingRequest's timer elapses without a
// matching reply. Always runs inside the executor via enqueue.
func (r *Room) onRequestTimeout(requestID string) {
	p := r.pending.remove(requestID)
	if p == nil {
		return
	}
	metrics.RequestTimeouts.Inc()
	if r.runtime != nil && r.runtime.ID == p.RuntimeID && r.runtime.IsOpen() {
		msg := fmt.Sprintf("timeout after %dms", r.cfg.RequestTimeout.Milliseconds())
		r.safeSend(r.runtime, NewError(msg, requestID, r.projectID))
	}
}
