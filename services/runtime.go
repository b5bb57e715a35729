package services

import (
	"log"
	"sync"
	"time"
)

// RoomRuntime is the in-memory concurrency context of one RUNNING room:
// its mutation lock, the question-window flag, the fast-path dedup map and
// the pending timer handles. It exists only between start and finish.
type RoomRuntime struct {
	pin string

	mu           sync.Mutex
	questionOpen bool
	answered     map[string]string // "playerID:roomQuestionID" -> option

	questionTimer *time.Timer
	resultTimer   *time.Timer
}

func newRoomRuntime(pin string) *RoomRuntime {
	return &RoomRuntime{
		pin:      pin,
		answered: make(map[string]string),
	}
}

// cancelTimers stops any pending question/result timer. A timer that has
// already fired runs its callback, which re-checks room state under the
// lock and backs off, so a lost race here is harmless.
func (rt *RoomRuntime) cancelTimers() {
	if rt.questionTimer != nil {
		rt.questionTimer.Stop()
		rt.questionTimer = nil
	}
	if rt.resultTimer != nil {
		rt.resultTimer.Stop()
		rt.resultTimer = nil
	}
}

// Registry is the single process-wide table of room runtimes, keyed by
// room pin. Locks are per-room; the registry mutex only guards the map.
type Registry struct {
	mu       sync.Mutex
	runtimes map[string]*RoomRuntime
}

func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[string]*RoomRuntime)}
}

// RuntimeFor returns the runtime for pin, creating it on first access.
func (g *Registry) RuntimeFor(pin string) *RoomRuntime {
	g.mu.Lock()
	defer g.mu.Unlock()
	rt, ok := g.runtimes[pin]
	if !ok {
		rt = newRoomRuntime(pin)
		g.runtimes[pin] = rt
	}
	return rt
}

// lookup returns the runtime for pin without creating one. Timer callbacks
// use it so a callback racing teardown cannot resurrect a destroyed room.
func (g *Registry) lookup(pin string) *RoomRuntime {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runtimes[pin]
}

// Destroy cancels the room's timers and drops its runtime. Safe to call
// for a pin that has no runtime.
func (g *Registry) Destroy(pin string) {
	g.mu.Lock()
	rt, ok := g.runtimes[pin]
	if ok {
		delete(g.runtimes, pin)
	}
	g.mu.Unlock()
	if !ok {
		return
	}
	rt.mu.Lock()
	rt.cancelTimers()
	rt.answered = make(map[string]string)
	rt.questionOpen = false
	rt.mu.Unlock()
	log.Printf("[Room %s] runtime destroyed", pin)
}

// DestroyAll tears down every runtime, used on shutdown.
func (g *Registry) DestroyAll() {
	g.mu.Lock()
	pins := make([]string, 0, len(g.runtimes))
	for pin := range g.runtimes {
		pins = append(pins, pin)
	}
	g.mu.Unlock()
	for _, pin := range pins {
		g.Destroy(pin)
	}
}
