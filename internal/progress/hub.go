// Package progress fans completion snapshots out to websocket
// subscribers while a team fills in an assessment.
package progress

import "sync"

// Snapshot is one progress update as pushed to clients.
type Snapshot struct {
	AssessmentID  string            `json:"assessment_id"`
	Status        string            `json:"status"`
	Answered      int               `json:"answered"`
	Total         int               `json:"total"`
	Percent       float64           `json:"percent"`
	IsComplete    bool              `json:"is_complete"`
	IsSubstantial bool              `json:"is_substantial"`
	Sections      []SectionSnapshot `json:"sections"`
	UpdatedAt     int64             `json:"updated_at"`
}

type SectionSnapshot struct {
	SectionID string  `json:"section_id"`
	Name      string  `json:"name"`
	Answered  int     `json:"answered"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// Hub is an in-process registry of progress subscribers keyed by
// assessment id. Publishes never block: a subscriber that falls behind
// misses intermediate snapshots and catches up on the next one.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Snapshot]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan Snapshot]struct{}),
	}
}

// Subscribe registers for one assessment's snapshots. The returned
// cancel func must be called when the subscriber goes away; it closes
// the channel.
func (h *Hub) Subscribe(assessmentID string) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	h.mu.Lock()
	set, ok := h.subs[assessmentID]
	if !ok {
		set = make(map[chan Snapshot]struct{})
		h.subs[assessmentID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[assessmentID]; ok {
			if _, subscribed := set[ch]; subscribed {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, assessmentID)
			}
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of its assessment.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[snap.AssessmentID] {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Subscribers reports how many listeners an assessment currently has.
func (h *Hub) Subscribers(assessmentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[assessmentID])
}
