package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 4 << 10

	// sendBuffer bounds the per-client outbound queue; overflow closes
	// the connection rather than stalling the hub.
	sendBuffer = 64
)

// inbound is the set of frames a client may send upstream.
type inbound struct {
	Event string `json:"event"`
	Data  struct {
		ChatID uint `json:"chat_id"`
		Typing bool `json:"typing"`
	} `json:"data"`
}

// Client is one websocket connection attached to the hub. It joins chat
// rooms on request and relays typing indicators through the Typing hook.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	UserID   uint
	Username string

	// CanJoin authorizes room membership; nil allows everything.
	CanJoin func(chatID, userID uint) bool

	// Typing relays a typing indicator into the chat layer. The chat
	// layer broadcasts it to the room, sender included.
	Typing func(chatID, userID uint, username string, typing bool)

	send   chan []byte
	closed chan struct{}
}

// NewClient wraps an upgraded connection. Call Run to start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Send queues a frame for delivery. A client whose buffer is full is
// disconnected; it will reconnect and resync from the database.
func (c *Client) Send(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.closed:
	default:
		log.Warn().Uint("user_id", c.UserID).Msg("ws: slow client, dropping connection")
		c.close()
	}
}

func (c *Client) close() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

// Run drives the read and write pumps until the connection drops, then
// detaches the client from every room. It blocks the caller.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
	c.close()
	c.Hub.LeaveAll(c)
	_ = c.Conn.Close()
}

func (c *Client) readPump() {
	c.Conn.SetReadLimit(maxFrameSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Uint("user_id", c.UserID).Msg("ws: read")
			}
			return
		}
		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			continue
		}
		c.handle(in)
	}
}

func (c *Client) handle(in inbound) {
	switch in.Event {
	case "join":
		if c.CanJoin != nil && !c.CanJoin(in.Data.ChatID, c.UserID) {
			return
		}
		c.Hub.Join(roomFor(in.Data.ChatID), c)
	case "leave":
		c.Hub.Leave(roomFor(in.Data.ChatID), c)
	case "typing":
		if c.Typing != nil {
			c.Typing(in.Data.ChatID, c.UserID, c.Username, in.Data.Typing)
		}
	}
}

// roomFor mirrors the chat layer's room naming.
func roomFor(chatID uint) string {
	return fmt.Sprintf("chat_%d", chatID)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.closed:
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
