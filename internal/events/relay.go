package events

import (
	"context"
	"log"
	"time"

	"github.com/diewo77/quincaillerie/internal/models"
	"gorm.io/gorm"
)

// Relay polls unpublished outbox rows and hands them to a Publisher.
// Rows are published oldest first; a failed row keeps later rows waiting so
// consumers observe the events of an order in the order they were written.
type Relay struct {
	db        *gorm.DB
	publisher Publisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewRelay(db *gorm.DB, publisher Publisher, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{db: db, publisher: publisher, interval: interval, batchSize: batchSize, now: time.Now}
}

// Run publishes pending events every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.PublishPending(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[events] relay: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PublishPending publishes one batch and returns how many rows were stamped.
func (r *Relay) PublishPending(ctx context.Context) (int, error) {
	var pending []models.OutboxEvent
	if err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at asc, id asc").
		Limit(r.batchSize).
		Find(&pending).Error; err != nil {
		return 0, err
	}
	published := 0
	for _, ev := range pending {
		err := r.publisher.Publish(ctx, Message{
			ID:          ev.ID,
			Type:        ev.Type,
			AggregateID: ev.AggregateID,
			Payload:     []byte(ev.Payload),
			CreatedAt:   ev.CreatedAt,
		})
		if err != nil {
			msg := err.Error()
			if len(msg) > 500 {
				msg = msg[:500]
			}
			if uerr := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", ev.ID).
				Updates(map[string]any{"attempts": gorm.Expr("attempts + 1"), "last_error": msg}).Error; uerr != nil {
				log.Printf("[events] relay: record failure of event %s: %v", ev.ID, uerr)
			}
			return published, err
		}
		if err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", ev.ID).
			Update("published_at", r.now().UTC()).Error; err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}
