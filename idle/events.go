package idle

import "sync"

// EventKind names a user interaction.
type EventKind string

const (
	EventPointerDown EventKind = "pointerdown"
	EventKeyDown     EventKind = "keydown"
	EventScroll      EventKind = "scroll"
	EventTouchStart  EventKind = "touchstart"
	EventClick       EventKind = "click"
	EventPointerMove EventKind = "pointermove"
)

// DefaultEvents returns the interactions that count as activity when none
// are configured.
func DefaultEvents() []EventKind {
	return []EventKind{
		EventPointerDown,
		EventKeyDown,
		EventScroll,
		EventTouchStart,
		EventClick,
		EventPointerMove,
	}
}

// Source delivers interaction events. Subscribe returns a func that removes
// the listener; calling it more than once is harmless.
type Source interface {
	Subscribe(fn func(EventKind)) (unsubscribe func())
}

// Bus is an in-process Source. Hosts publish interactions into it.
type Bus struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]func(EventKind)
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(EventKind))}
}

func (b *Bus) Subscribe(fn func(EventKind)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers kind to every listener. Listeners run on the caller's
// goroutine, outside the bus lock.
func (b *Bus) Publish(kind EventKind) {
	b.mu.RLock()
	fns := make([]func(EventKind), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(kind)
	}
}

// Listeners reports how many listeners are attached.
func (b *Bus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
