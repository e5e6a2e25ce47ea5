package websocket

import (
	"sync"
	"time"
)

// defaultFrameLimit caps inbound frames per connection per minute. Dashboard
// clients send a handful of frames a minute; anything near the cap is a
// misbehaving client.
const defaultFrameLimit = 100

// frameLimiter tracks per-connection inbound frame counts over a fixed
// one-minute window.
type frameLimiter struct {
	mu      sync.Mutex
	limit   int
	windows map[string]*frameWindow
}

type frameWindow struct {
	count       int
	windowStart time.Time
}

func newFrameLimiter(limit int) *frameLimiter {
	return &frameLimiter{
		limit:   limit,
		windows: make(map[string]*frameWindow),
	}
}

// Allow reports whether the connection may submit another frame. The first
// frame of a new window always passes and resets the count.
func (l *frameLimiter) Allow(connID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	w, ok := l.windows[connID]
	if !ok {
		l.windows[connID] = &frameWindow{count: 1, windowStart: now}
		return true
	}

	if now.Sub(w.windowStart) >= time.Minute {
		w.count = 1
		w.windowStart = now
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Forget drops a connection's window state on disconnect.
func (l *frameLimiter) Forget(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, connID)
}
