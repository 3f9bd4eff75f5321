package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/engine"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/metrics"
)

// Outbound message types.
const (
	MessageView  = "VIEW"
	MessageError = "ERROR"
)

// ServerMessage is every frame the server writes to a websocket.
type ServerMessage struct {
	Type  string       `json:"type"`
	View  *engine.View `json:"view,omitempty"`
	Error string       `json:"error,omitempty"`
}

// HubOptions sizes the hub's queues.
type HubOptions struct {
	BroadcastBuffer  int
	ClientSendBuffer int
}

// Hub maintains the set of active clients and broadcasts views to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns
	mu         sync.Mutex

	session    *Session
	logger     *logger.Logger
	metrics    *metrics.Collector
	sendBuffer int
}

// NewHub initializes a new WebSocket Hub and subscribes it to the session.
func NewHub(session *Session, log *logger.Logger, m *metrics.Collector, opts HubOptions) *Hub {
	if opts.BroadcastBuffer <= 0 {
		opts.BroadcastBuffer = 64
	}
	if opts.ClientSendBuffer <= 0 {
		opts.ClientSendBuffer = 256
	}
	h := &Hub{
		broadcast:  make(chan []byte, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		session:    session,
		logger:     log,
		metrics:    m,
		sendBuffer: opts.ClientSendBuffer,
	}
	session.SetBroadcaster(h)
	return h
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
// Once it returns, late registrations are refused and disconnects are dropped.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
			client.sendView(h.session.View())
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
					h.logger.Warn("Dropped slow WebSocket client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastView serializes a view and queues it for every connected client.
// A full queue drops the frame; clients resync on the next one.
func (h *Hub) BroadcastView(v engine.View) {
	payload, err := json.Marshal(ServerMessage{Type: MessageView, View: &v})
	if err != nil {
		h.logger.Error("Failed to serialize view for WebSocket broadcast: " + err.Error())
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast queue full, dropping view")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the presentation layer is served from another origin in dev
	},
}

// ServeWs handles websocket requests from the peer.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket connection: " + err.Error())
		return
	}

	client := NewClient(h, conn)
	if !client.Register() {
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
