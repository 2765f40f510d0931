package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"revpipe/internal/domain/ingest"
	"revpipe/internal/errs"
	"revpipe/internal/ports"
)

// ProductPublisher pushes scrape work items onto the parse queue.
// Fire-and-forget: publish acceptance by the broker is the only confirmation.
type ProductPublisher struct {
	conns *Manager
}

var _ ports.ProductQueue = (*ProductPublisher)(nil)

func NewProductPublisher(conns *Manager) *ProductPublisher {
	return &ProductPublisher{conns: conns}
}

func (p *ProductPublisher) Submit(ctx context.Context, product ingest.ProductDescriptor) error {
	ch, err := p.conns.Channel(ctx)
	if err != nil {
		return errs.Wrap(err, "submit product")
	}
	defer ch.Close()

	// Idempotent declare; the fleet declares the same queue bare+durable.
	if _, err := ch.QueueDeclare(ingest.QueueParse, true, false, false, false, nil); err != nil {
		return errs.Wrapf(err, "declare queue %s", ingest.QueueParse)
	}

	body, err := json.Marshal(product)
	if err != nil {
		return errs.Wrap(err, "marshal product descriptor")
	}

	if err := ch.PublishWithContext(ctx, "", ingest.QueueParse, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         body,
	}); err != nil {
		return errs.Wrapf(err, "publish to %s", ingest.QueueParse)
	}

	return nil
}
