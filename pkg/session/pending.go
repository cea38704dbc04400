package session

import (
	"encoding/json"
	"sync"
)

// pendingResult is the single-shot completion slot for one outbound
// request: either Result or Err is set, never both. Err holds either a
// wire *jsonrpc.Error from a genuine Response, or a local sentinel
// (mcp.ErrTimeout, mcp.ErrCancelled, mcp.ErrSessionClosed) for the
// timeout/cancellation/close paths — both satisfy the error interface.
type pendingResult struct {
	Result json.RawMessage
	Err    error
}

// pendingTable is the outbound-request correlation map from spec.md §3:
// "mapping from outbound request id -> a single-shot completion slot".
// Grounded on the teacher's sseTransport.pending map[int64]chan
// *mcp.Response + mutex, generalized to a transport-agnostic string key
// (request ids may be client- or server-originated, and either may be a
// JSON string or number on the wire).
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]chan pendingResult
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[string]chan pendingResult)}
}

// insert creates a new pending slot for id. It panics if id is already
// present: ids must never be reused within a session (spec.md invariant
// 2), and a reuse indicates a caller bug in id allocation, not a runtime
// condition to recover from.
func (p *pendingTable) insert(id string) chan pendingResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.entries[id]; exists {
		panic("mcp: request id reused within session: " + id)
	}
	ch := make(chan pendingResult, 1)
	p.entries[id] = ch
	return ch
}

// take removes and returns the pending slot for id, if present. Used both
// by inbound response dispatch and by timeout/cancellation, so that
// exactly one of {response, timeout, cancellation, session-close} ever
// completes a given slot (invariant 1).
func (p *pendingTable) take(id string) (chan pendingResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.entries[id]
	if ok {
		delete(p.entries, id)
	}
	return ch, ok
}

// failAll completes every still-pending slot with err and empties the
// table; used on session close (spec.md §4.3.1, §5).
func (p *pendingTable) failAll(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.entries {
		ch <- pendingResult{Err: err}
		delete(p.entries, id)
	}
}
