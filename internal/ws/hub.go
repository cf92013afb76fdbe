package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/cocreate-backend/internal/goroutine"
	"github.com/ignatzorin/cocreate-backend/internal/logger"
	"github.com/ignatzorin/cocreate-backend/internal/metrics"
)

// События, которые получают клиенты.
const (
	EventAlertMatch      = "alert_match"
	EventAlertDigest     = "alert_digest"
	EventOrderCreated    = "order_created"
	EventOrderDelivery   = "order_delivery_status"
	EventOrderConfirmed  = "order_confirmed"
	EventDisputeOpened   = "dispute_opened"
	EventDisputeUpdated  = "dispute_updated"
	EventDisputeResolved = "dispute_resolved"
	EventSellerVerified  = "seller_verification"
)

const (
	outboxSize    = 64
	recordTimeout = 5 * time.Second
)

// Inbox сохраняет событие в ленту уведомлений пользователя.
type Inbox interface {
	Record(ctx context.Context, userID uuid.UUID, event string, data any) error
}

// Envelope формат сообщения в сокете.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type delivery struct {
	userID  uuid.UUID
	payload []byte
}

// Hub раздаёт события подключённым клиентам. Подключения одного
// пользователя (несколько вкладок) получают одинаковые сообщения.
type Hub struct {
	ctx   context.Context
	inbox Inbox

	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Client]struct{}

	join   chan *Client
	leave  chan *Client
	outbox chan delivery
}

// NewHub создаёт хаб, живущий до отмены ctx. inbox может быть nil,
// тогда события только доставляются онлайн.
func NewHub(ctx context.Context, inbox Inbox) *Hub {
	return &Hub{
		ctx:    ctx,
		inbox:  inbox,
		conns:  make(map[uuid.UUID]map[*Client]struct{}),
		join:   make(chan *Client),
		leave:  make(chan *Client),
		outbox: make(chan delivery, outboxSize),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.join:
			h.attach(c)
		case c := <-h.leave:
			h.detach(c)
		case d := <-h.outbox:
			h.fanOut(d)
		}
	}
}

// Register подключает клиента. После остановки хаба ничего не делает.
func (h *Hub) Register(c *Client) {
	select {
	case h.join <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.leave <- c:
	case <-h.ctx.Done():
	}
}

// Publish сохраняет событие в ленту и отправляет его во все сокеты пользователя.
// Ошибка возвращается только если сообщение не удалось поставить в очередь.
func (h *Hub) Publish(userID uuid.UUID, event string, data any) error {
	raw, err := json.Marshal(Envelope{Type: event, Data: data})
	if err != nil {
		return fmt.Errorf("ws: marshal %s: %w", event, err)
	}

	if h.inbox != nil {
		goroutine.SafeGo(func() { h.record(userID, event, data) })
	}

	select {
	case h.outbox <- delivery{userID: userID, payload: raw}:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

// Online число открытых сокетов пользователя.
func (h *Hub) Online(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// запись в ленту не должна теряться из-за остановки хаба
func (h *Hub) record(userID uuid.UUID, event string, data any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), recordTimeout)
	defer cancel()

	if err := h.inbox.Record(ctx, userID, event, data); err != nil {
		logger.WithComponent("ws").WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
		}).WithError(err).Warn("уведомление не сохранено")
	}
}

func (h *Hub) attach(c *Client) {
	h.mu.Lock()
	set, ok := h.conns[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.conns[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnected(1)
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	set := h.conns[c.userID]
	_, ok := set[c]
	if ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, c.userID)
		}
	}
	h.mu.Unlock()
	if ok {
		metrics.WSConnected(-1)
	}
}

func (h *Hub) fanOut(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns[d.userID] {
		select {
		case c.send <- d.payload:
		default:
			// не успевает читать
			goroutine.SafeGo(c.Close)
		}
	}
}
