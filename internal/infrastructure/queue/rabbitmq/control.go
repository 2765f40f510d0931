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

// CrawlerPublisher broadcasts control commands on the to_crawl fanout
// exchange. Only crawlers subscribed at publish time receive a command; the
// exchange is deliberately non-durable, this is a control channel, not a
// work queue.
type CrawlerPublisher struct {
	conns *Manager
}

var _ ports.CrawlerControl = (*CrawlerPublisher)(nil)

func NewCrawlerPublisher(conns *Manager) *CrawlerPublisher {
	return &CrawlerPublisher{conns: conns}
}

func (p *CrawlerPublisher) Send(ctx context.Context, command ingest.CrawlerCommand) error {
	ch, err := p.conns.Channel(ctx)
	if err != nil {
		return errs.Wrap(err, "send crawler command")
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(ingest.ExchangeToCrawl, amqp.ExchangeFanout, false, false, false, false, nil); err != nil {
		return errs.Wrapf(err, "declare exchange %s", ingest.ExchangeToCrawl)
	}

	body, err := json.Marshal(command)
	if err != nil {
		return errs.Wrap(err, "marshal crawler command")
	}

	// Fanout ignores the routing key.
	if err := ch.PublishWithContext(ctx, ingest.ExchangeToCrawl, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now(),
		Body:        body,
	}); err != nil {
		return errs.Wrapf(err, "publish to %s", ingest.ExchangeToCrawl)
	}

	return nil
}
