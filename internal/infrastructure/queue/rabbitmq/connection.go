package rabbitmq

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/errs"
)

// Manager owns the single AMQP connection for the process. The connection
// is dialed lazily on first use and shared by every producer and consumer;
// channels are cheap and created per operation.
type Manager struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewManager(url string) *Manager {
	return &Manager{url: url}
}

// Connection returns the shared connection, dialing it if this is the first
// use or the broker closed the previous one. Safe for concurrent first use.
func (m *Manager) Connection(ctx context.Context) (*amqp.Connection, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil && !m.conn.IsClosed() {
		return m.conn, nil
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "queue.connection"))

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 30 * time.Second

	conn, err := backoff.RetryWithData(func() (*amqp.Connection, error) {
		conn, dialErr := amqp.Dial(m.url)
		if dialErr != nil {
			logging.Warn(logCtx, "broker dial failed, retrying", slog.Any("err", errs.Loggable(dialErr)))
			return nil, dialErr
		}
		return conn, nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, errs.Wrap(err, "dial broker")
	}

	logging.Info(logCtx, "broker connection established")
	m.conn = conn
	return m.conn, nil
}

// Channel opens a fresh channel on the shared connection. Callers own the
// channel and must close it.
func (m *Manager) Channel(ctx context.Context) (*amqp.Channel, error) {
	conn, err := m.Connection(ctx)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errs.Wrap(err, "open channel")
	}
	return ch, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.conn.IsClosed() {
		return nil
	}
	if err := m.conn.Close(); err != nil {
		return errs.Wrap(err, "close broker connection")
	}
	return nil
}
