package rabbitmq

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"revpipe/internal/errs"
	"revpipe/internal/ports"
)

// Inspector reads queue metadata. Declares are passive: inspecting a queue
// must never create it.
type Inspector struct {
	conns *Manager
}

var _ ports.QueueInspector = (*Inspector)(nil)

func NewInspector(conns *Manager) *Inspector {
	return &Inspector{conns: conns}
}

func (i *Inspector) Status(ctx context.Context, queue string) (ports.QueueStatus, error) {
	ch, err := i.conns.Channel(ctx)
	if err != nil {
		return ports.QueueStatus{}, errs.Wrap(err, "inspect queue")
	}
	defer ch.Close()

	state, err := ch.QueueDeclarePassive(queue, true, false, false, false, nil)
	if err != nil {
		var amqpErr *amqp.Error
		if errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound {
			return ports.QueueStatus{}, errs.Wrapf(ports.ErrQueueNotFound, "queue %q", queue)
		}
		return ports.QueueStatus{}, errs.Wrapf(err, "passive declare %s", queue)
	}

	return ports.QueueStatus{
		MessageCount:  state.Messages,
		ConsumerCount: state.Consumers,
	}, nil
}

func (i *Inspector) Purge(ctx context.Context, queue string) (int, error) {
	ch, err := i.conns.Channel(ctx)
	if err != nil {
		return 0, errs.Wrap(err, "purge queue")
	}
	defer ch.Close()

	purged, err := ch.QueuePurge(queue, false)
	if err != nil {
		return 0, errs.Wrapf(err, "purge %s", queue)
	}
	return purged, nil
}
