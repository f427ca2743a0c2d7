package conversation

import "sync"

// Notifier fans freshly committed audit records out to per-session
// subscribers. Slow subscribers drop records rather than block a
// commit.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[chan AuditRecord]struct{}
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[chan AuditRecord]struct{})}
}

// Subscribe registers for a session's audit records. The returned
// cancel function must be called when the subscriber is done.
func (n *Notifier) Subscribe(sessionID string) (<-chan AuditRecord, func()) {
	ch := make(chan AuditRecord, 16)

	n.mu.Lock()
	if n.subs[sessionID] == nil {
		n.subs[sessionID] = make(map[chan AuditRecord]struct{})
	}
	n.subs[sessionID][ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if set, ok := n.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(n.subs, sessionID)
			}
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a record to every subscriber of the session.
func (n *Notifier) Publish(sessionID string, rec AuditRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[sessionID] {
		select {
		case ch <- rec:
		default:
		}
	}
}
