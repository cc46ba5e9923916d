package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"ig-bridge/internal/auth"
	"ig-bridge/internal/hub"
	"ig-bridge/internal/instagram"
	"ig-bridge/internal/model"
)

// WebSocketHandler streams direct-inbox updates. One poller runs per watched
// identity regardless of how many sockets watch it; each poll rebuilds the
// client from the stored session, so the poller holds no live handle between
// ticks.
type WebSocketHandler struct {
	Hub          *hub.Hub
	Factory      *instagram.Factory
	TokenConfig  auth.TokenConfig
	PollInterval time.Duration

	mu      sync.Mutex
	pollers map[string]chan struct{}
}

type clientMessage struct {
	Type string `json:"type"`
}

type serverMessage struct {
	Type  string      `json:"type"`
	Event string      `json:"event,omitempty"`
	Body  interface{} `json:"body,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteMessage(websocket.TextMessage, message)
}

func (w *wsWriter) Close() error {
	return w.conn.Close()
}

func (h *WebSocketHandler) Serve(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}
	if _, err := auth.VerifyToken(tokenString, h.TokenConfig); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	identity := c.Query("username")
	if identity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	conn := &hub.Connection{Identity: identity, Writer: &wsWriter{conn: ws}}
	if h.Hub.Register(conn) {
		h.startPoller(identity)
	}
	defer func() {
		if h.Hub.Unregister(conn) {
			h.stopPoller(identity)
		}
		_ = ws.Close()
	}()

	ws.SetReadLimit(64 * 1024)
	const pongWait = 60 * time.Second
	const writeWait = 10 * time.Second
	pingPeriod := (pongWait * 9) / 10

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() {
		closeOnce.Do(func() {
			close(done)
		})
	}
	defer closeDone()

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(writeWait)
				if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					_ = ws.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			out, _ := json.Marshal(serverMessage{Type: "pong"})
			_ = conn.Writer.Write(out)
		}
	}
}

func (h *WebSocketHandler) startPoller(identity string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pollers == nil {
		h.pollers = make(map[string]chan struct{})
	}
	if _, running := h.pollers[identity]; running {
		return
	}
	stop := make(chan struct{})
	h.pollers[identity] = stop
	go h.poll(identity, stop)
}

func (h *WebSocketHandler) stopPoller(identity string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if stop, ok := h.pollers[identity]; ok {
		close(stop)
		delete(h.pollers, identity)
	}
}

func (h *WebSocketHandler) poll(identity string, stop chan struct{}) {
	interval := h.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastDigest string
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			threads, err := h.fetchInbox(identity)
			if err != nil {
				log.Printf("inbox poll %s: %v", identity, err)
				continue
			}
			digest := inboxDigest(threads)
			if digest == lastDigest {
				continue
			}
			lastDigest = digest

			out, _ := json.Marshal(serverMessage{
				Type:  "update",
				Event: "inbox",
				Body:  gin.H{"threads": threads},
			})
			if h.Hub.Broadcast(identity, out) && h.releasePoller(identity, stop) {
				return
			}
		}
	}
}

// releasePoller drops the identity's poller entry after a broadcast evicted
// its last watcher. It reports false when a new watcher appeared in the
// meantime; the poller then keeps running for it.
func (h *WebSocketHandler) releasePoller(identity string, stop chan struct{}) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Hub.Watchers(identity) > 0 {
		return false
	}
	if cur, ok := h.pollers[identity]; ok && cur == stop {
		delete(h.pollers, identity)
	}
	return true
}

func (h *WebSocketHandler) fetchInbox(identity string) ([]model.Thread, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := h.Factory.Resume(ctx, identity)
	if err != nil {
		return nil, err
	}
	return client.Inbox(ctx)
}

// inboxDigest summarizes the newest state of each thread; a change in any
// thread's last message changes the digest.
func inboxDigest(threads []model.Thread) string {
	var b []byte
	for _, t := range threads {
		b = append(b, t.ThreadID...)
		b = append(b, '@')
		b = strconv.AppendInt(b, t.LastMessageAt, 10)
		b = append(b, '|')
	}
	return string(b)
}
