package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

// EventType определяет тип события корзины
type EventType string

const (
	EventTypeCartSaved   EventType = "cart.saved"
	EventTypeCartCleared EventType = "cart.cleared"
)

// TopicCartEvents - топик изменений серверных зеркал корзин.
const TopicCartEvents = "cafe.cart.events"

// Kafka headers
const (
	HeaderEventType = "x-event-type"
	HeaderRequestID = "x-request-id"
)

// CartEvent - снимок зеркала корзины после сохранения.
type CartEvent struct {
	EventType   EventType         `json:"event_type"`
	SessionID   string            `json:"session_id"`
	Lines       []domain.CartLine `json:"lines"`
	TotalItems  int               `json:"total_items"`
	TotalAmount float64           `json:"total_amount"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewCartEvent строит событие по зеркалу; пустая корзина даёт cart.cleared.
func NewCartEvent(mirror domain.CartMirror) *CartEvent {
	cart := mirror.Cart()
	eventType := EventTypeCartSaved
	if cart.IsEmpty() {
		eventType = EventTypeCartCleared
	}

	ts := mirror.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return &CartEvent{
		EventType:   eventType,
		SessionID:   mirror.SessionID,
		Lines:       cart.Lines,
		TotalItems:  cart.TotalItemCount(),
		TotalAmount: cart.TotalAmount(),
		Timestamp:   ts,
	}
}
