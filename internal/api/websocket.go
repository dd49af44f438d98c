package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"rts-arena/internal/game"
	"rts-arena/internal/room"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal caps simultaneous WebSocket connections.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP caps WebSocket connections per source IP.
	MaxWSConnectionsPerIP = 10

	// clientSendBuffer is the per-client outbound queue. Snapshots for a
	// stalled client are dropped, never blocked on.
	clientSendBuffer = 32

	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// serverMsg is the outbound envelope.
type serverMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// clientMsg is the inbound envelope.
type clientMsg struct {
	Type   string       `json:"type"` // action|ping|leave
	Action *game.Action `json:"action,omitempty"`
}

// wsClient is one player's live connection. The send channel feeds a
// single writer goroutine because gorilla connections allow only one
// concurrent writer.
type wsClient struct {
	conn     *websocket.Conn
	roomID   string
	playerID string
	ip       string
	send     chan []byte
	once     sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// enqueue drops the message if the client's buffer is full.
func (c *wsClient) enqueue(payload []byte) {
	defer func() {
		// Send on closed channel races with close(); losing a frame to a
		// departing client is acceptable.
		recover()
	}()
	select {
	case c.send <- payload:
		IncrementWSMessages()
	default:
	}
}

// Hub routes scheduler output to player connections and player input to
// rooms. It implements room.Sink.
type Hub struct {
	manager *room.Manager

	mu      sync.RWMutex
	clients map[string]*wsClient // roomID + "/" + playerID

	wsLimiter *WebSocketRateLimiter
}

// NewHub creates a hub bound to the room manager.
func NewHub(manager *room.Manager) *Hub {
	return &Hub{
		manager:   manager,
		clients:   make(map[string]*wsClient),
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

func clientKey(roomID, playerID string) string {
	return roomID + "/" + playerID
}

// ---------------------------------------------------------------------------
// room.Sink implementation
// ---------------------------------------------------------------------------

// GameStart broadcasts the match-start payload to everyone in the room.
func (h *Hub) GameStart(roomID string, info game.StartInfo) {
	raw, err := json.Marshal(serverMsg{Type: "gameStart", Data: info})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.roomID == roomID {
			c.enqueue(raw)
		}
	}
}

// Snapshot delivers a fog-filtered frame to one player.
func (h *Hub) Snapshot(roomID, playerID string, snap game.Snapshot) {
	h.sendTo(roomID, playerID, serverMsg{Type: "snapshot", Data: snap})
}

// ActionAccepted acknowledges a validated action.
func (h *Hub) ActionAccepted(roomID, playerID, actionID string) {
	RecordActionOutcome("accepted")
	h.sendTo(roomID, playerID, serverMsg{Type: "actionAccepted", Data: map[string]string{
		"actionId": actionID,
	}})
}

// ActionRejected tells the player why their action was dropped.
func (h *Hub) ActionRejected(roomID, playerID, actionID, reason string) {
	RecordActionOutcome("rejected")
	h.sendTo(roomID, playerID, serverMsg{Type: "actionRejected", Data: map[string]string{
		"actionId": actionID,
		"reason":   reason,
	}})
}

// GameOver broadcasts the terminal result to everyone in the room.
func (h *Hub) GameOver(roomID, winner, reason string) {
	payload := serverMsg{Type: "gameOver", Data: map[string]string{
		"winner": winner,
		"reason": reason,
	}}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.roomID == roomID {
			c.enqueue(raw)
		}
	}
}

func (h *Hub) sendTo(roomID, playerID string, msg serverMsg) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	c := h.clients[clientKey(roomID, playerID)]
	h.mu.RUnlock()
	if c != nil {
		c.enqueue(raw)
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ---------------------------------------------------------------------------
// Connection lifecycle
// ---------------------------------------------------------------------------

// HandleWebSocket upgrades /ws?roomId=...&playerId=... for a player who
// already joined via REST.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	playerID := r.URL.Query().Get("playerId")
	if roomID == "" || playerID == "" {
		http.Error(w, "roomId and playerId required", http.StatusBadRequest)
		return
	}

	rm, ok := h.manager.Get(roomID)
	if !ok {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	if !rm.HasMember(playerID) {
		http.Error(w, "Join the room first", http.StatusForbidden)
		return
	}

	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	c := &wsClient{
		conn:     conn,
		roomID:   roomID,
		playerID: playerID,
		ip:       ip,
		send:     make(chan []byte, clientSendBuffer),
	}
	h.register(c)

	// A fresh socket for a known player is a reconnect.
	rm.Join(playerID, "")

	go c.writePump()
	go h.readPump(c, rm)
}

func (h *Hub) register(c *wsClient) {
	key := clientKey(c.roomID, c.playerID)

	h.mu.Lock()
	if old, ok := h.clients[key]; ok {
		// New socket supersedes the old one for this player.
		old.close()
		old.conn.Close()
		h.wsLimiter.Release(old.ip)
	}
	h.clients[key] = c
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("📱 Player %s connected to room %s from %s (%d total)", c.playerID, c.roomID, c.ip, count)
	UpdateWSConnections(count)
	UpdatePlayerCount(count)
}

func (h *Hub) unregister(c *wsClient) {
	key := clientKey(c.roomID, c.playerID)

	h.mu.Lock()
	if h.clients[key] == c {
		delete(h.clients, key)
		h.wsLimiter.Release(c.ip)
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.close()
	c.conn.Close()

	log.Printf("📱 Player %s disconnected from room %s (%d remaining)", c.playerID, c.roomID, count)
	UpdateWSConnections(count)
	UpdatePlayerCount(count)
}

// writePump is the connection's single writer.
func (c *wsClient) writePump() {
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, nil)
}

// readPump handles inbound frames until the socket drops, then starts the
// room's disconnect grace handling.
func (h *Hub) readPump(c *wsClient, rm *room.Room) {
	defer func() {
		h.unregister(c)
		rm.Disconnect(c.playerID)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.enqueue(mustMarshal(serverMsg{Type: "error", Data: map[string]string{
				"reason": "malformed message",
			}}))
			continue
		}

		switch msg.Type {
		case "action":
			if msg.Action == nil {
				c.enqueue(mustMarshal(serverMsg{Type: "error", Data: map[string]string{
					"reason": "action payload required",
				}}))
				continue
			}
			if err := rm.Submit(c.playerID, msg.Action); err != nil {
				h.ActionRejected(c.roomID, c.playerID, msg.Action.ID, err.Error())
			}

		case "ping":
			rm.Ping(c.playerID)
			c.enqueue(mustMarshal(serverMsg{Type: "pong", Data: map[string]int64{
				"tick": rm.CurrentTick(),
			}}))

		case "leave":
			h.manager.Leave(c.roomID, c.playerID)
			return

		default:
			c.enqueue(mustMarshal(serverMsg{Type: "error", Data: map[string]string{
				"reason": "unknown message type",
			}}))
		}
	}
}

func mustMarshal(msg serverMsg) []byte {
	raw, _ := json.Marshal(msg)
	return raw
}
