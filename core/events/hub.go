package events

import "sync"

// Hub fans emitted events out to channel subscribers and an optional sink
// emitter. A subscriber whose buffer is full is skipped rather than blocking
// the emitting transition.
type Hub struct {
	mu   sync.Mutex
	sink Emitter
	subs map[uint64]chan Event
	next uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan Event)}
}

// SetSink configures an emitter every event is forwarded to in addition to
// the channel subscribers. Passing nil removes the sink.
func (h *Hub) SetSink(sink Emitter) {
	h.mu.Lock()
	h.sink = sink
	h.mu.Unlock()
}

// Emit implements the Emitter interface.
func (h *Hub) Emit(evt Event) {
	if h == nil || evt == nil {
		return
	}
	h.mu.Lock()
	sink := h.sink
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	h.mu.Unlock()
	if sink != nil {
		sink.Emit(evt)
	}
}

// Subscribe registers a buffered event channel. The returned cancel function
// unregisters and closes it; cancelling more than once is safe.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
