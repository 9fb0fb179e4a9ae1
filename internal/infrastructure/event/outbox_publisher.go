package event

import (
	"context"
	"fmt"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher publishes domain events to the outbox within a transaction
type OutboxPublisher struct {
	serializer *EventSerializer
	db         *gorm.DB
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
	}
}

// NewOutboxPublisherWithDB creates an outbox publisher bound to a database
// handle. A bound publisher also implements shared.EventPublisher, writing
// events to the outbox table for the processor to deliver.
func NewOutboxPublisherWithDB(serializer *EventSerializer, db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{
		serializer: serializer,
		db:         db,
	}
}

// Publish implements shared.EventPublisher on a db-bound publisher.
// Events land in the outbox table and reach in-process handlers once the
// outbox processor picks them up.
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if p.db == nil {
		return fmt.Errorf("outbox publisher has no database handle")
	}
	return p.PublishWithTx(ctx, p.db, events...)
}

// PublishWithTx publishes events to the outbox within the provided transaction
// This ensures events are persisted atomically with the aggregate changes
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}

		entry := shared.NewOutboxEntry(event.TenantID(), event, payload)
		entries = append(entries, entry)
	}

	repo := NewGormOutboxRepository(tx)
	return repo.Save(ctx, entries...)
}

// SaveEvents implements the shared.OutboxEventSaver interface
// It saves domain events to the outbox table within a transaction
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider interface{}, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}

	return p.PublishWithTx(ctx, tx, events...)
}

// Ensure OutboxPublisher implements OutboxEventSaver and EventPublisher
var (
	_ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
	_ shared.EventPublisher   = (*OutboxPublisher)(nil)
)
