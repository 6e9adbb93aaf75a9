package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"delivery-dispatch-service/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
)

// Hub bridges the change-event bus to websocket viewer sessions. Every open
// console (dispatcher or driver) holds one connection and re-fetches the
// named entity on each frame, so all viewers converge without manual refresh.
type Hub struct {
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]chan []byte
	unsub func()
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Auth lives outside this service; the console origin does too.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]chan []byte),
	}
}

// Run attaches the hub to the bus. The subscription lives until Close.
func (h *Hub) Run(ctx context.Context, bus ports.EventBus) error {
	unsub, err := bus.Subscribe(ctx, func(ch ports.Change) {
		payload, err := json.Marshal(ch)
		if err != nil {
			h.log.WithError(err).Error("encode change frame")
			return
		}
		h.broadcast(payload)
	})
	if err != nil {
		return err
	}
	h.unsub = unsub
	return nil
}

// Close tears down the bus subscription and all viewer connections.
func (h *Hub) Close() {
	if h.unsub != nil {
		h.unsub()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.conns {
		close(send)
		delete(h.conns, conn)
	}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.conns {
		select {
		case send <- payload:
		default:
			// Viewer stopped draining; drop it rather than block the bus.
			h.log.Warn("dropping slow viewer connection")
			close(send)
			delete(h.conns, conn)
		}
	}
}

// HandleWS upgrades a viewer connection and streams change frames until the
// viewer navigates away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	send := make(chan []byte, sendBufferSize)
	h.mu.Lock()
	h.conns[conn] = send
	h.mu.Unlock()

	go h.writeLoop(conn, send)
	h.readLoop(conn)
}

func (h *Hub) writeLoop(conn *websocket.Conn, send chan []byte) {
	defer conn.Close()
	for payload := range send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop discards inbound frames; the stream is one-way. It returns when
// the viewer disconnects, which unregisters the connection.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		if send, ok := h.conns[conn]; ok {
			close(send)
			delete(h.conns, conn)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
