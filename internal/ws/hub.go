// internal/ws/hub.go
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"referral-service/internal/domain/billing"
	"referral-service/internal/domain/redemption"

	"go.uber.org/zap"
)

// Event is one message on a merchant's live feed.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	EventRedemptionAwarded = "redemption.awarded"
	EventBillApproved      = "bill.approved"
)

type broadcastMessage struct {
	merchantID int64
	payload    []byte
}

// Hub fans workflow events out to each merchant's connected dashboard
// clients. Slow clients are dropped rather than allowed to stall the feed.
type Hub struct {
	// Registered clients by merchant ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage

	// Closed by shutdown so client pumps never block on register or
	// unregister after Run has exited.
	done chan struct{}

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// RedemptionAwarded publishes an awarded redemption to the merchant's feed.
func (h *Hub) RedemptionAwarded(merchantID int64, rec *redemption.Redemption) {
	h.publish(merchantID, EventRedemptionAwarded, rec)
}

// BillApproved publishes an approved bill to the merchant's feed.
func (h *Hub) BillApproved(merchantID int64, bill *billing.BillSubmission) {
	h.publish(merchantID, EventBillApproved, bill)
}

func (h *Hub) publish(merchantID int64, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- broadcastMessage{merchantID: merchantID, payload: payload}:
	default:
		// The feed is advisory; dropping beats blocking a workflow.
		h.logger.Warn("event feed backlogged, dropping event", zap.String("type", eventType))
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.merchantID] == nil {
		h.clients[client.merchantID] = make(map[*Client]bool)
	}
	h.clients[client.merchantID][client] = true

	h.logger.Debug("websocket client connected", zap.Int64("merchant_id", client.merchantID))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.merchantID]; ok {
		if conns[client] {
			delete(conns, client)
			close(client.send)
			if len(conns) == 0 {
				delete(h.clients, client.merchantID)
			}
		}
	}
}

func (h *Hub) deliver(msg broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[msg.merchantID] {
		select {
		case client.send <- msg.payload:
		default:
			// Client cannot keep up; its pumps will clean up on close.
			go func(c *Client) {
				select {
				case h.unregister <- c:
				case <-h.done:
				}
			}(client)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for merchantID, conns := range h.clients {
		for client := range conns {
			close(client.send)
			client.conn.Close()
		}
		delete(h.clients, merchantID)
	}
}
