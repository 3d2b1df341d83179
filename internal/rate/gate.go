package rate

import "sync"

// Gate tracks which named operations are currently in flight.
type Gate struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGate returns an empty Gate.
func NewGate() *Gate {
	return &Gate{active: make(map[string]struct{})}
}

// Enter marks op as running. It returns a release func, or ErrInFlight when
// op is already running. The release func is idempotent.
func (g *Gate) Enter(op string) (func(), error) {
	g.mu.Lock()
	if _, busy := g.active[op]; busy {
		g.mu.Unlock()
		return nil, ErrInFlight
	}
	g.active[op] = struct{}{}
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, op)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether op is running.
func (g *Gate) Busy(op string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[op]
	return busy
}

// Any reports whether any operation is running.
func (g *Gate) Any() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active) > 0
}
