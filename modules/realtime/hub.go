package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"anime-studio-server/modules/studio"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	// 페이지를 같은 프로세스에서 서빙 - 모든 origin 허용
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 메시지 타입
const (
	TypeState        = "state"
	TypeRequestState = "request_state"
)

type Message struct {
	Type  string           `json:"type"`
	State *studio.Snapshot `json:"state,omitempty"`
}

// StateSource - 새로 연결된 페이지에 보낼 스냅샷 제공
type StateSource interface {
	Snapshot() studio.Snapshot
}

type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub - 상태 변경을 연결된 모든 페이지에 전송
type Hub struct {
	source  StateSource
	clients map[string]*Client
	mutex   sync.RWMutex

	totalConnections int
}

func NewHub(source StateSource) *Hub {
	return &Hub{
		source:  source,
		clients: make(map[string]*Client),
	}
}

func (h *Hub) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.HandleWebSocket)
}

// Broadcast - 모든 클라이언트에게 스냅샷 전송 (버퍼 찬 클라이언트는 제거)
func (h *Hub) Broadcast(snap studio.Snapshot) {
	payload, err := json.Marshal(Message{Type: TypeState, State: &snap})
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			close(client.send)
			delete(h.clients, id)
			log.Printf("⚠️  Dropped slow client %s", id)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) TotalConnections() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.totalConnections
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.addClient(client)
	h.sendState(client)

	go client.writePump()
	go h.readPump(client)
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	h.clients[client.id] = client
	h.totalConnections++
	count, total := len(h.clients), h.totalConnections
	h.mutex.Unlock()

	log.Printf("🔌 Client %s connected (Clients: %d, Total Connections: %d)", client.id, count, total)
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client.id]; ok {
		close(client.send)
		delete(h.clients, client.id)
		log.Printf("👋 Client %s disconnected (Remaining: %d)", client.id, len(h.clients))
	}
}

// sendState - 한 클라이언트에게 현재 스냅샷 전송
func (h *Hub) sendState(client *Client) {
	snap := h.source.Snapshot()
	payload, err := json.Marshal(Message{Type: TypeState, State: &snap})
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if _, ok := h.clients[client.id]; !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
	}
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		h.removeClient(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var message Message
		if err := client.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		switch message.Type {
		case TypeRequestState:
			h.sendState(client)
		default:
			log.Printf("Ignoring message type '%s' from %s", message.Type, client.id)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
