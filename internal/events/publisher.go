// Package events publishes the domain events stored in the outbox table.
package events

import (
	"context"
	"log"
	"time"
)

// Message is one outbox event ready to be published.
type Message struct {
	ID          string
	Type        string
	AggregateID uint
	Payload     []byte
	CreatedAt   time.Time
}

// Publisher delivers messages to an external sink.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// LogPublisher writes events to the standard logger. Used when no broker is configured.
type LogPublisher struct {
	logger *log.Logger
}

func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Printf("[events] %s aggregate=%d id=%s payload=%s", msg.Type, msg.AggregateID, msg.ID, msg.Payload)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
