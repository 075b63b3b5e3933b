package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the lifecycle stage the event reports
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypePaid      EventType = "paid"
	EventTypeCancelled EventType = "cancelled"
	EventTypeExpired   EventType = "expired"
	EventTypeFinalized EventType = "finalized"
	EventTypeCredited  EventType = "credited"
	EventTypeDebited   EventType = "debited"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypePayment  EntityType = "payment"
	EntityTypeSplit    EntityType = "split"
	EntityTypeRecharge EntityType = "recharge"
	EntityTypeLedger   EntityType = "ledger"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "recharge.paid"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "recharge"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PaymentCreated creates a payment.created event
func PaymentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePayment, payload)
}

// SplitFinalized creates a split.finalized event
func SplitFinalized(payload interface{}) Event {
	return NewEvent(EventTypeFinalized, EntityTypeSplit, payload)
}

// RechargeCreated creates a recharge.created event
func RechargeCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeRecharge, payload)
}

// RechargePaid creates a recharge.paid event
func RechargePaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypeRecharge, payload)
}

// RechargeCancelled creates a recharge.cancelled event
func RechargeCancelled(payload interface{}) Event {
	return NewEvent(EventTypeCancelled, EntityTypeRecharge, payload)
}

// RechargeExpired creates a recharge.expired event
func RechargeExpired(payload interface{}) Event {
	return NewEvent(EventTypeExpired, EntityTypeRecharge, payload)
}

// LedgerCredited creates a ledger.credited event
func LedgerCredited(payload interface{}) Event {
	return NewEvent(EventTypeCredited, EntityTypeLedger, payload)
}

// LedgerDebited creates a ledger.debited event
func LedgerDebited(payload interface{}) Event {
	return NewEvent(EventTypeDebited, EntityTypeLedger, payload)
}
