package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MB
)

// Client is one authenticated websocket connection. A user may hold several
// at once (multiple devices or tabs).
type Client struct {
	ID          string
	UserID      int
	Role        string
	ConnectedAt time.Time

	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// NewClient wraps an upgraded connection.
func NewClient(id string, userID int, role string, conn *websocket.Conn) *Client {
	return &Client{
		ID:          id,
		UserID:      userID,
		Role:        role,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, 64),
	}
}

// enqueue hands a frame to the write pump without blocking. A client whose
// buffer is full misses the frame; live fanout has no queued retry. The send
// on c.send must happen under the same lock shutdown closes it under, or a
// broadcast racing a disconnect panics the sender's goroutine.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once, releasing the write pump.
// Frames enqueued after shutdown are dropped.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("ws: write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads inbound frames and hands them to onEvent. It returns when
// the connection dies; the caller owns cleanup.
func (c *Client) readPump(onEvent func(*Client, []byte)) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		onEvent(c, raw)
	}
}
