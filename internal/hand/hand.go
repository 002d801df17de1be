// Package hand receives hand positions from an external tracker over a
// websocket and exposes the latest one as a per-frame snapshot.
package hand

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Position is one tracker sample in surface pixels.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Active bool    `json:"active"`
}

// Tracker stores the latest Position. It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	pos     Position
	clients int
	log     *zap.Logger

	// OnConnections is called with the number of connected feeds.
	OnConnections func(n int)
}

func NewTracker(log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{log: log}
}

// Snapshot returns the latest position.
func (t *Tracker) Snapshot() Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pos
}

func (t *Tracker) Set(p Position) {
	t.mu.Lock()
	t.pos = p
	t.mu.Unlock()
}

func (t *Tracker) connected(delta int) {
	t.mu.Lock()
	t.clients += delta
	n := t.clients
	if n == 0 {
		t.pos.Active = false
	}
	t.mu.Unlock()
	if t.OnConnections != nil {
		t.OnConnections(n)
	}
}

const (
	readLimit = 4096
	readWait  = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed usually comes from a local tracker page on another origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the request and reads JSON Position frames until the
// peer goes away. The hand is marked inactive once the last feed closes.
func (t *Tracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.Warn("hand feed upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	t.connected(1)
	defer t.connected(-1)
	log := t.log.With(zap.String("remote", r.RemoteAddr))
	log.Info("hand feed connected")

	conn.SetReadLimit(readLimit)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("hand feed closed", zap.Error(err))
			} else {
				log.Info("hand feed disconnected")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var p Position
		if err := json.Unmarshal(data, &p); err != nil {
			log.Debug("dropping malformed hand frame", zap.Error(err))
			continue
		}
		t.Set(p)
	}
}
