package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/domain/ingest"
	"revpipe/internal/errs"
)

// DeadLetterSuffix names the per-queue holding queue for poison messages.
// Republish-then-ack is used instead of broker-side DLX arguments because
// the contract queues are declared bare by the fleet; adding arguments
// would fail every later declare with PRECONDITION_FAILED.
const DeadLetterSuffix = ".dead_letter"

// Handler processes one raw message body. Returned errors are classified
// with ingest.ClassifyFailure to pick the ack decision.
type Handler func(ctx context.Context, body []byte) error

type ConsumerOptions struct {
	Queue        string
	Prefetch     int
	RequeueDelay time.Duration
}

// Consumer runs a durable, explicitly-acknowledged consume loop on one
// queue. A message is acked only after its whole batch is durably written;
// handler failures never crash the loop.
type Consumer struct {
	conns   *Manager
	opts    ConsumerOptions
	handler Handler
}

func NewConsumer(conns *Manager, opts ConsumerOptions, handler Handler) *Consumer {
	if opts.Prefetch < 1 {
		opts.Prefetch = 1
	}
	return &Consumer{conns: conns, opts: opts, handler: handler}
}

func (c *Consumer) Queue() string {
	return c.opts.Queue
}

// Run consumes until the context is cancelled. Broken channels and
// connections are re-established with the manager's dial backoff.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if c.handler == nil {
		return errors.New("handler is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "queue.consumer"), slog.String("queue", c.opts.Queue))

	for {
		err := c.consumeOnce(logCtx)
		if ctx.Err() != nil {
			logging.Info(logCtx, "consumer stopped")
			return nil
		}
		if err != nil {
			logging.Warn(logCtx, "consume loop ended, restarting", slog.Any("err", errs.Loggable(err)))
		}

		select {
		case <-ctx.Done():
			logging.Info(logCtx, "consumer stopped")
			return nil
		case <-time.After(c.opts.RequeueDelay):
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context) error {
	ch, err := c.conns.Channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	// Prefetch bounds concurrent redelivery pressure; with the default of 1
	// the next message arrives only after the previous batch is acked.
	if err := ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		return errs.Wrap(err, "set qos")
	}

	if _, err := ch.QueueDeclare(c.opts.Queue, true, false, false, false, nil); err != nil {
		return errs.Wrapf(err, "declare queue %s", c.opts.Queue)
	}
	if _, err := ch.QueueDeclare(c.opts.Queue+DeadLetterSuffix, true, false, false, false, nil); err != nil {
		return errs.Wrapf(err, "declare queue %s", c.opts.Queue+DeadLetterSuffix)
	}

	tag := fmt.Sprintf("revpipe-%s-%s", c.opts.Queue, uuid.NewString())
	deliveries, err := ch.Consume(c.opts.Queue, tag, false, false, false, false, nil)
	if err != nil {
		return errs.Wrapf(err, "consume %s", c.opts.Queue)
	}

	logging.Info(ctx, "consuming", slog.String("consumer_tag", tag), slog.Int("prefetch", c.opts.Prefetch))

	for {
		select {
		case <-ctx.Done():
			_ = ch.Cancel(tag, false)
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery) {
	start := time.Now()
	err := c.handler(ctx, msg.Body)
	messageDuration.WithLabelValues(c.opts.Queue).Observe(time.Since(start).Seconds())

	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			logging.Error(ctx, "ack failed", slog.Any("err", errs.Loggable(ackErr)))
			return
		}
		messagesTotal.WithLabelValues(c.opts.Queue, outcomeOK).Inc()
		return
	}

	switch decide(ingest.ClassifyFailure(err), msg.Redelivered) {
	case actionRequeue:
		logging.Warn(ctx, "message failed, requeueing",
			slog.Bool("redelivered", msg.Redelivered),
			slog.Any("err", errs.Loggable(err)),
		)
		// Pace redelivery so a transient failure does not spin hot.
		// Deliveries are handled serially, so this pauses the whole loop;
		// with prefetch above 1 later prefetched messages wait out the
		// delay too, which is wanted while a referential dependency
		// catches up.
		select {
		case <-ctx.Done():
		case <-time.After(c.opts.RequeueDelay):
		}
		if nackErr := msg.Nack(false, true); nackErr != nil {
			logging.Error(ctx, "nack failed", slog.Any("err", errs.Loggable(nackErr)))
			return
		}
		messagesTotal.WithLabelValues(c.opts.Queue, outcomeRequeued).Inc()
	case actionDeadLetter:
		logging.Error(ctx, "message failed, dead-lettering",
			slog.Bool("redelivered", msg.Redelivered),
			slog.Any("err", errs.Loggable(err)),
		)
		if dlErr := c.deadLetter(ctx, msg, err); dlErr != nil {
			// Republish failed; leave the message unacked so the broker
			// redelivers rather than losing it.
			logging.Error(ctx, "dead-letter publish failed", slog.Any("err", errs.Loggable(dlErr)))
			_ = msg.Nack(false, true)
			return
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			logging.Error(ctx, "ack after dead-letter failed", slog.Any("err", errs.Loggable(ackErr)))
			return
		}
		messagesTotal.WithLabelValues(c.opts.Queue, outcomeDeadLettered).Inc()
	}
}

// deadLetter republishes a poison message to the holding queue on a
// confirm-mode channel. The original delivery is acked only after the broker
// confirms the republish, so the message cannot vanish in between.
func (c *Consumer) deadLetter(ctx context.Context, msg amqp.Delivery, cause error) error {
	ch, err := c.conns.Channel(ctx)
	if err != nil {
		return errs.Wrap(err, "open dead-letter channel")
	}
	defer ch.Close()

	if err := ch.Confirm(false); err != nil {
		return errs.Wrap(err, "enable publisher confirms")
	}

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-death-queue"] = c.opts.Queue
	headers["x-death-reason"] = cause.Error()

	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", c.opts.Queue+DeadLetterSuffix, false, false, amqp.Publishing{
		ContentType:  msg.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.MessageId,
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         msg.Body,
	})
	if err != nil {
		return errs.Wrapf(err, "publish to %s", c.opts.Queue+DeadLetterSuffix)
	}

	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return errs.Wrap(err, "await publish confirm")
	}
	if !acked {
		return errors.New("broker rejected dead-letter publish")
	}
	return nil
}

type ackAction int

const (
	actionRequeue ackAction = iota
	actionDeadLetter
)

// decide maps a failure class and the redelivered flag onto an ack action.
// Malformed bodies go straight to the dead-letter queue, transient
// referential failures are always retryable, everything else gets one
// redelivery before being parked.
func decide(failure ingest.Failure, redelivered bool) ackAction {
	switch failure {
	case ingest.FailureMalformed:
		return actionDeadLetter
	case ingest.FailureTransient:
		return actionRequeue
	default:
		if redelivered {
			return actionDeadLetter
		}
		return actionRequeue
	}
}
