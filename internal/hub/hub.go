// Package hub tracks websocket subscribers per Instagram identity so a
// single inbox poller can feed every watcher of that identity.
package hub

import "sync"

type Writer interface {
	Write(message []byte) error
	Close() error
}

type Connection struct {
	Identity string
	Writer   Writer
}

type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

func New() *Hub {
	return &Hub{connections: make(map[string]map[*Connection]struct{})}
}

// Register adds a watcher and reports whether it is the first one for the
// identity. The first watcher owns starting the identity's poller.
func (h *Hub) Register(conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.Identity] == nil {
		h.connections[conn.Identity] = make(map[*Connection]struct{})
	}
	h.connections[conn.Identity][conn] = struct{}{}
	return len(h.connections[conn.Identity]) == 1
}

// Unregister removes a watcher and reports whether the identity has no
// watchers left, which stops its poller.
func (h *Hub) Unregister(conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.Identity]
	if set == nil {
		return false
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.Identity)
		return true
	}
	return false
}

func (h *Hub) Watchers(identity string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[identity])
}

// Broadcast delivers the message to every watcher of the identity. Watchers
// whose writer fails are closed and evicted; the return value reports whether
// those evictions left the identity with no watchers, so the caller can stop
// the identity's poller.
func (h *Hub) Broadcast(identity string, message []byte) bool {
	h.mu.RLock()
	set := h.connections[identity]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	emptied := false
	for _, c := range failed {
		_ = c.Writer.Close()
		if h.Unregister(c) {
			emptied = true
		}
	}
	return emptied
}
