package room

import (
	"sync"
	"time"
)

// PendingKind distinguishes the two request kinds a runtime can issue.
type PendingKind string

const (
	PendingQuery PendingKind = "query"
	PendingDocs  PendingKind = "docs"
)

// PendingRequest correlates a runtime-issued request with its eventual
// reply, guarded by a timeout. Exactly one of reply, timeout-fire, runtime
// disconnect, or room shutdown calls cancel() on it, per the spec's
// cancellation invariant.
type PendingRequest struct {
	RequestID string
	RuntimeID string
	CreatedAt time.Time
	Kind      PendingKind

	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

// newPendingRequest arms a one-shot timer that invokes onTimeout exactly
// once, unless cancelled first.
func newPendingRequest(requestID, runtimeID string, kind PendingKind, timeout time.Duration, onTimeout func()) *PendingRequest {
	p := &PendingRequest{
		RequestID: requestID,
		RuntimeID: runtimeID,
		CreatedAt: time.Now(),
		Kind:      kind,
	}
	p.timer = time.AfterFunc(timeout, onTimeout)
	return p
}

// cancel stops the pending request's timer. Safe to call multiple times;
// only the first call has effect, satisfying "cancel exactly once" as a
// property of the call site rather than of the timer itself.
func (p *PendingRequest) cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled {
		return
	}
	p.cancelled = true
	p.timer.Stop()
}

// pendingTable is the Room's requestId -> PendingRequest map, mutated only
// by the owning Room's executor goroutine.
type pendingTable struct {
	entries map[string]*PendingRequest
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[string]*PendingRequest)}
}

func (t *pendingTable) insert(p *PendingRequest) {
	t.entries[p.RequestID] = p
}

func (t *pendingTable) get(requestID string) (*PendingRequest, bool) {
	p, ok := t.entries[requestID]
	return p, ok
}

// remove cancels and deletes the entry for requestID, if present. Returns
// the removed entry (or nil) so the caller can act on its fields.
func (t *pendingTable) remove(requestID string) *PendingRequest {
	p, ok := t.entries[requestID]
	if !ok {
		return nil
	}
	p.cancel()
	delete(t.entries, requestID)
	return p
}

// removeByRuntime cancels and deletes every entry tagged to runtimeID —
// called when that runtime connection disconnects or is replaced.
func (t *pendingTable) removeByRuntime(runtimeID string) []*PendingRequest {
	var removed []*PendingRequest
	for id, p := range t.entries {
		if p.RuntimeID == runtimeID {
			p.cancel()
			delete(t.entries, id)
			removed = append(removed, p)
		}
	}
	return removed
}

// removeAll cancels and deletes every pending entry — used on room shutdown.
func (t *pendingTable) removeAll() []*PendingRequest {
	all := make([]*PendingRequest, 0, len(t.entries))
	for id, p := range t.entries {
		p.cancel()
		delete(t.entries, id)
		all = append(all, p)
	}
	return all
}

func (t *pendingTable) len() int { return len(t.entries) }
