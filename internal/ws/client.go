package ws

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/peovukea-bbd/laser-tag/internal/types"
)

// client is the outbox of one websocket connection.
type client struct {
	id    string
	queue <-chan types.ServerMessage

	mu   sync.RWMutex
	send chan types.ServerMessage

	overflowed atomic.Bool
	stop       context.CancelFunc
}

func newClient(id string, size int, stop context.CancelFunc) *client {
	ch := make(chan types.ServerMessage, size)
	return &client{id: id, queue: ch, send: ch, stop: stop}
}

// Push never blocks. A client that cannot keep up is disconnected rather than
// silently missing pushes.
func (c *client) Push(msg types.ServerMessage) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// If the channel is nil, the client is disconnected.
	if c.send == nil {
		return
	}

	select {
	case c.send <- msg:
	default:
		if c.overflowed.CompareAndSwap(false, true) {
			c.stop()
		}
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}
