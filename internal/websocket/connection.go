package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection wraps one live socket together with its claimed identity
// metadata. Writes are serialized through a single writer goroutine; identity
// and activity fields are guarded by a mutex so the registry, the frame
// router, and the liveness monitor can touch them from different goroutines.
type Connection struct {
	id      string
	conn    *websocket.Conn
	writeCh chan []byte

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	writeTimeout time.Duration

	mu           sync.RWMutex
	userID       string // set on authenticate, unverified claim
	role         string // set on authenticate, unverified claim
	channels     []string
	lastActivity time.Time
}

// NewConnection wraps conn and starts its writer goroutine. The id is
// assigned by the registry at registration time.
func NewConnection(conn *websocket.Conn, bufferSize int, writeTimeout time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:         conn,
		writeCh:      make(chan []byte, bufferSize),
		ctx:          ctx,
		cancel:       cancel,
		writeTimeout: writeTimeout,
		lastActivity: time.Now(),
	}

	go c.writeLoop()

	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// ID returns the registry-assigned connection identifier.
func (c *Connection) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Connection) setID(id string) {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
}

// Write queues pre-serialized bytes for delivery. Broadcast payloads are
// marshaled once and fanned out byte-identical to every recipient.
func (c *Connection) Write(data []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(c.writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// WriteJSON serializes v and queues it for delivery.
func (c *Connection) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}
	return c.Write(data)
}

// Ping sends a low-level liveness probe control frame.
func (c *Connection) Ping() error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// Close tears the socket down. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Closed reports whether the socket has been torn down.
func (c *Connection) Closed() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// SetIdentity records the client's claimed user and role. The claim is not
// verified; nothing prevents re-authentication.
func (c *Connection) SetIdentity(userID, role string) {
	c.mu.Lock()
	c.userID = userID
	c.role = role
	c.mu.Unlock()
}

// UserID returns the claimed user identifier, empty while anonymous.
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Role returns the claimed role, empty while anonymous.
func (c *Connection) Role() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// SetChannels stores the channels a subscribe frame asked for. The dispatcher
// does not scope broadcasts by them; they are kept for observability only.
func (c *Connection) SetChannels(channels []string) {
	c.mu.Lock()
	c.channels = append([]string(nil), channels...)
	c.mu.Unlock()
}

// Channels returns a copy of the stored channel names.
func (c *Connection) Channels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.channels...)
}

// Touch updates the last-activity timestamp to now.
func (c *Connection) Touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// LastActivity returns the time of the most recent inbound frame.
func (c *Connection) LastActivity() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastActivity
}
