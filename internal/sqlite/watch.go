package sqlite

import "sync"

// hub fans a change signal out to watchers. Signals are coalesced: a watcher
// that hasn't drained its pending signal doesn't queue another one.
type hub struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan struct{})}
}

func (h *hub) subscribe() (int, chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan struct{}, 1)
	h.subs[id] = ch

	return id, ch
}

func (h *hub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

func (h *hub) bump() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
