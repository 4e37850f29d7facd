package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type ClientOptions struct {
	SendBuffer     int
	MaxMessageSize int64
	Logger         zerolog.Logger
}

// UserClient pumps frames between one websocket and the hub.
type UserClient struct {
	id   string
	hub  IHub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool

	maxMessageSize int64
	log            zerolog.Logger
}

func NewClient(id string, hub IHub, conn *websocket.Conn, opts ClientOptions) *UserClient {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	return &UserClient{
		id:             id,
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, opts.SendBuffer),
		maxMessageSize: opts.MaxMessageSize,
		log:            opts.Logger.With().Str("conn", id).Logger(),
	}
}

func (c *UserClient) ID() string {
	return c.id
}

func (c *UserClient) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which sends a close frame and drops the socket.
func (c *UserClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump blocks until the peer goes away, passing every text frame to handle.
func (c *UserClient) ReadPump(handle func(data []byte)) {
	defer func() {
		c.hub.Disconnect(c.id)
		_ = c.conn.Close()
	}()

	if c.maxMessageSize > 0 {
		c.conn.SetReadLimit(c.maxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Warn().Err(err).Msg("read failed")
			}
			return
		}
		handle(data)
	}
}

func (c *UserClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
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
