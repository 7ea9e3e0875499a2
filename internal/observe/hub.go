// Package observe implements synchronous publish-on-mutate notification.
package observe

import "sync"

// Hub fans a change notification out to every subscriber. Subscribers run on
// the publishing goroutine, in subscription order, after the publisher has
// released its own locks.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
	order  []int
}

// Subscribe registers fn and returns a function that removes it again.
func (h *Hub) Subscribe(fn func()) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = map[int]func(){}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.order = append(h.order, id)
	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
	for i, existing := range h.order {
		if existing == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Publish invokes every current subscriber.
func (h *Hub) Publish() {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Len reports how many subscribers are registered.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}
