package ports

import (
	"context"
	"errors"

	"revpipe/internal/domain/ingest"
)

// ErrQueueNotFound reports a passive declare against a queue nobody has
// created yet.
var ErrQueueNotFound = errors.New("queue not found")

// QueueStatus is a point-in-time broker snapshot of one queue.
type QueueStatus struct {
	MessageCount  int `json:"messageCount"`
	ConsumerCount int `json:"consumerCount"`
}

// ProductQueue publishes scrape work items. Fire-and-forget: at-most-once
// from the caller's perspective, no delivery confirmation is awaited.
type ProductQueue interface {
	Submit(ctx context.Context, product ingest.ProductDescriptor) error
}

// CrawlerControl broadcasts commands to all currently subscribed crawler
// instances. Best-effort: offline crawlers miss the command.
type CrawlerControl interface {
	Send(ctx context.Context, command ingest.CrawlerCommand) error
}

// QueueInspector reads broker metadata without touching the pipeline.
type QueueInspector interface {
	Status(ctx context.Context, queue string) (QueueStatus, error)
	Purge(ctx context.Context, queue string) (int, error)
}
