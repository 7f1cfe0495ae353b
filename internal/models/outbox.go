package models

import (
	"time"

	"gorm.io/datatypes"
)

// Domain event types written to the outbox.
const (
	EventOrderCreated    = "order.created"
	EventOrderDelivered  = "order.delivered"
	EventOrderCancelled  = "order.cancelled"
	EventOrderPaid       = "order.paid"
	EventPaymentRecorded = "payment.recorded"
)

// OutboxEvent is a domain event stored in the same transaction as the change
// it describes and published later by the relay.
type OutboxEvent struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	Type        string         `gorm:"size:50;not null;index" json:"type"`
	AggregateID uint           `gorm:"not null;index" json:"aggregate_id"`
	Payload     datatypes.JSON `json:"payload"`
	PublishedAt *time.Time     `gorm:"index" json:"published_at,omitempty"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	LastError   string         `gorm:"size:500" json:"last_error,omitempty"`
}

// All returns every model managed by AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{},
		&Category{}, &SubCategory{}, &Product{},
		&Supplier{},
		&Order{}, &OrderItem{},
		&Payment{},
		&Sequence{},
		&OutboxEvent{},
	}
}
