package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/config"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSlowConsumer = errors.New("client send buffer full")
)

const defaultSendBuffer = 256

// Client is one WebSocket peer. It is the event sink of its registry
// connection: events are encoded and queued without blocking, and
// WritePump drains the queue in order.
type Client struct {
	ID   string
	Conn *websocket.Conn

	send   chan []byte
	config config.WebSocketConfig

	mu     sync.Mutex
	closed bool
}

// NewClient creates a client with an empty queue. The socket is attached
// later, once the connection has been authenticated and upgraded.
func NewClient(cfg config.WebSocketConfig) *Client {
	size := cfg.SendBuffer
	if size <= 0 {
		size = defaultSendBuffer
	}
	return &Client{
		send:   make(chan []byte, size),
		config: cfg,
	}
}

// Attach binds the upgraded socket and the registry connection ID.
func (c *Client) Attach(id string, conn *websocket.Conn) {
	c.ID = id
	c.Conn = conn
}

// Deliver implements domain.Sink.
func (c *Client) Deliver(ev domain.Event) error {
	return c.SendMessage(ev)
}

// SendMessage encodes message and queues it. A full queue drops the
// message.
func (c *Client) SendMessage(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close stops the write pump. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump reads frames until the socket fails or the peer stops
// answering pings, passing each to handler.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str(log.FieldConnectionID, c.ID).Msg("websocket read error")
			}
			return
		}
		handler(c, message)
	}
}

// WritePump writes queued messages and pings until the queue is closed or
// a write fails. It closes the socket on return.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
