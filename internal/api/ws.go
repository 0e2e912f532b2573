package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"worldlink/internal/model"
	"worldlink/internal/service/presence"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// transport-level auth is handled upstream
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one connected transport peer.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans local player state out to connected peers and feeds inbound
// remote samples into the presence service.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Publish sends a frame to every connected peer. Peers that cannot keep up
// drop frames instead of blocking the broadcast worker.
func (h *Hub) Publish(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Serve upgrades a request to a websocket and runs the read/write pumps.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, 32)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) readPump(cl *client) {
	defer h.drop(cl)

	presenceService := presence.GetPresenceService()
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := model.DecodeMessage(data)
		if err != nil {
			log.Printf("Dropping malformed transport frame: %v", err)
			continue
		}

		switch m := msg.(type) {
		case *model.PlayerStateMessage:
			presenceService.Apply(model.RemoteSample{
				UserID:           m.UserID,
				Position:         mgl64.Vec3{m.Position[0], m.Position[1], m.Position[2]},
				RotationY:        m.RotationY,
				State:            model.AnimationState(m.State),
				ModelPath:        m.ModelPath,
				IsChangingAvatar: m.IsChangingAvatar,
				Seq:              m.Seq,
				ReceivedAt:       time.Now(),
			})
		case *model.JoinMessage:
			presenceService.Join(m.UserID, m.ModelPath)
		case *model.LeaveMessage:
			presenceService.Leave(m.UserID)
		}
	}
}

func (h *Hub) writePump(cl *client) {
	for data := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	cl.conn.Close()
}
