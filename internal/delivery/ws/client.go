package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Outbound queue depth per connection.
	sendBufferSize = 64
)

// Client is one live connection inside a consultation room. Outbound frames
// go through a buffered queue so a slow peer is isolated from the rest of
// the room; the write pump is the only goroutine touching the socket for
// writes.
type Client struct {
	UserID uuid.UUID

	hub    *Hub
	roomID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func NewClient(hub *Hub, roomID, userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		hub:    hub,
		roomID: roomID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
}

// closeSend closes the outbound queue exactly once. Both the hub (on prune,
// leave and shutdown) and the pumps may race to close a dying client.
func (c *Client) closeSend() {
	c.once.Do(func() {
		close(c.send)
	})
}

// ReadPump reads frames from the socket and hands them to the hub until the
// peer disconnects, then removes the client from its room. Runs as its own
// goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Leave(c.roomID, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.hub.Dispatch(c.roomID, c, raw)
	}
}

// WritePump drains the outbound queue onto the socket and keeps the
// connection alive with pings. Runs as its own goroutine per connection.
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
