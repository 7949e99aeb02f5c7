package engine

import "sync"

// reentrancyGuard is held for the whole of a top-level call
type reentrancyGuard struct {
	mu      sync.Mutex
	entered bool
}

// enter marks the engine busy. The returned release func must be called on every exit path.
func (g *reentrancyGuard) enter() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.entered {
		return nil, ErrNoReentrantCalls
	}
	g.entered = true
	return func() {
		g.mu.Lock()
		g.entered = false
		g.mu.Unlock()
	}, nil
}
