package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/cocreate-backend/internal/goroutine"
	"github.com/ignatzorin/cocreate-backend/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// клиенты ничего не шлют кроме управляющих фреймов
	maxInboundSize = 4 << 10
	sendBuffer     = 16
)

// Client одно WebSocket подключение пользователя. Канал только на отправку:
// входящие сообщения читаются ради pong и close и отбрасываются.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	userID uuid.UUID
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Run обслуживает подключение до разрыва, отмены ctx или остановки хаба.
func (c *Client) Run(ctx context.Context) {
	stopReq := context.AfterFunc(ctx, c.Close)
	defer stopReq()
	stopHub := context.AfterFunc(c.hub.ctx, c.Close)
	defer stopHub()
	defer c.Close()

	goroutine.SafeGo(c.writeLoop)
	c.readLoop()
}

// Close отключает клиента от хаба и закрывает сокет. Повторные вызовы игнорируются.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.hub.Unregister(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithComponent("ws").WithField("user_id", c.userID).WithError(err).Debug("соединение оборвано")
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, payload)
}
