package tree

import "sync"

// Listener is invoked after an operation changed observable state. It
// receives the counters as they were when the operation finished.
type Listener func(Versions)

type listenerEntry struct {
	id uint64
	fn Listener
}

// registry keeps listeners in subscription order. It has its own lock so a
// listener may subscribe or unsubscribe while being dispatched.
type registry struct {
	mu      sync.Mutex
	nextID  uint64
	entries []listenerEntry
}

func (r *registry) add(fn Listener) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, listenerEntry{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// dispatch calls every listener registered at the time of the call, in order.
func (r *registry) dispatch(v Versions) {
	r.mu.Lock()
	snapshot := make([]Listener, len(r.entries))
	for i, e := range r.entries {
		snapshot[i] = e.fn
	}
	r.mu.Unlock()

	for _, fn := range snapshot {
		fn(v)
	}
}
