package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client is one websocket connection to the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.sendBuffer),
	}
}

// Register adds the client to the hub. It reports false once the hub has stopped.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

// unregister removes the client; a stopped hub has already closed its queue.
func (c *Client) unregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// ReadPump pumps intents from the websocket connection into the session.
func (c *Client) ReadPump() {
	defer func() {
		c.unregister()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read error: " + err.Error())
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var intent Intent
		if err := json.Unmarshal(message, &intent); err != nil {
			c.hub.logger.Warn("Failed to parse intent from WebSocket: " + err.Error())
			c.sendError("malformed intent")
			continue
		}

		c.handleIntent(intent)
	}
}

func (c *Client) handleIntent(intent Intent) {
	v, err := c.hub.session.Apply(intent)
	if err != nil {
		c.hub.logger.Warn("Rejected intent " + string(intent.Type) + ": " + err.Error())
		c.sendError(err.Error())
		return
	}
	// State-changing intents reach this client through the broadcast.
	if intent.Type == IntentState {
		c.sendView(v)
	}
}

// sendView and sendError write to this client only. A full queue drops the frame.
func (c *Client) sendView(v engine.View) {
	c.enqueue(ServerMessage{Type: MessageView, View: &v})
}

func (c *Client) sendError(msg string) {
	c.enqueue(ServerMessage{Type: MessageError, Error: msg})
}

func (c *Client) enqueue(m ServerMessage) {
	payload, err := json.Marshal(m)
	if err != nil {
		c.hub.logger.Error("Failed to serialize message: " + err.Error())
		return
	}

	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- payload:
		c.hub.metrics.RecordWSMessage(false)
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// Every message is written as its own text frame.
func (c *Client) WritePump() {
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
