package controller

import "sync"

// MemoryPublisher stores transitions in memory. Tests and the status
// endpoint use it.
type MemoryPublisher struct {
	mu    sync.Mutex
	items []Transition
	limit int
}

// NewMemoryPublisher keeps the last limit transitions; limit <= 0 keeps all.
func NewMemoryPublisher(limit int) *MemoryPublisher { return &MemoryPublisher{limit: limit} }

func (p *MemoryPublisher) Publish(t Transition) {
	p.mu.Lock()
	p.items = append(p.items, t)
	if p.limit > 0 && len(p.items) > p.limit {
		p.items = append(p.items[:0:0], p.items[len(p.items)-p.limit:]...)
	}
	p.mu.Unlock()
}

func (p *MemoryPublisher) Transitions() []Transition {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Transition, len(p.items))
	copy(out, p.items)
	return out
}

// Path returns the sequence of target states, starting with the first
// transition's origin.
func (p *MemoryPublisher) Path() []State {
	ts := p.Transitions()
	if len(ts) == 0 {
		return nil
	}
	out := []State{ts[0].From}
	for _, t := range ts {
		out = append(out, t.To)
	}
	return out
}
