package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// appendEvent stores a domain event in the caller's transaction so it commits
// or rolls back together with the change it describes.
func appendEvent(tx *gorm.DB, eventType string, aggregateID uint, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	ev := models.OutboxEvent{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     datatypes.JSON(body),
	}
	if err := tx.Create(&ev).Error; err != nil {
		return fmt.Errorf("append %s event: %w", eventType, err)
	}
	return nil
}

type orderEvent struct {
	OrderID    uint               `json:"order_id"`
	Number     string             `json:"number"`
	SupplierID uint               `json:"supplier_id"`
	Status     models.OrderStatus `json:"status"`
	Total      string             `json:"total_amount"`
}

func newOrderEvent(o *models.Order) orderEvent {
	return orderEvent{
		OrderID:    o.ID,
		Number:     o.Number,
		SupplierID: o.SupplierID,
		Status:     o.Status,
		Total:      o.TotalAmount.StringFixed(2),
	}
}

type paymentEvent struct {
	PaymentID         uint   `json:"payment_id"`
	Number            string `json:"number"`
	OrderID           uint   `json:"order_id"`
	InstallmentNumber int    `json:"installment_number"`
	Amount            string `json:"amount"`
	PaidSoFar         string `json:"paid_so_far"`
}
