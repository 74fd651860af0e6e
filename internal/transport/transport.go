package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"camwatch/internal/logging"
)

// DefaultConnectTimeout bounds a single connect attempt.
const DefaultConnectTimeout = 5 * time.Second

// Config holds transport connection settings.
type Config struct {
	// URL is the NATS endpoint, e.g. "nats://localhost:4222".
	URL string
	// Name identifies this client on the server.
	Name string
	// ConnectTimeout bounds one connect attempt. Zero means
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// Message is one delivered payload. The application decodes Data
// independently of the transport.
type Message struct {
	Topic string
	Data  []byte
}

// Conn is a live connection. It is good for exactly one session: once
// Closed fires the connection cannot be reused and the caller dials a
// fresh one.
type Conn struct {
	nc     *nats.Conn
	closed chan struct{}
	done   chan struct{}

	mu        sync.Mutex
	subs      []*nats.Subscription
	closeOnce sync.Once
}

// Connect establishes a connection to the endpoint. The attempt is
// bounded by the config timeout and aborts early if ctx is cancelled.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	c := &Conn{
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.Timeout(timeout),
		// Reconnection is owned by the stream client, not the NATS
		// library: a lost connection must surface as Closed.
		nats.NoReconnect(),
		nats.ClosedHandler(func(*nats.Conn) {
			close(c.closed)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn("Transport disconnected: %v", err)
			}
		}),
	}

	type result struct {
		nc  *nats.Conn
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		nc, err := nats.Connect(cfg.URL, opts...)
		resCh <- result{nc, err}
	}()

	select {
	case <-ctx.Done():
		// The attempt keeps running briefly in the background; make
		// sure a late success does not leak a connection.
		go func() {
			if res := <-resCh; res.nc != nil {
				res.nc.Close()
			}
		}()
		return nil, ctx.Err()
	case res := <-resCh:
		if res.err != nil {
			return nil, fmt.Errorf("connect to %s failed: %w", cfg.URL, res.err)
		}
		c.nc = res.nc
		return c, nil
	}
}

// Subscribe starts delivery for one topic onto the returned channel.
// Delivery order within the topic is preserved. The channel is never
// closed; receivers stop when Closed fires.
func (c *Conn) Subscribe(topic string) (<-chan Message, error) {
	ch := make(chan Message, 64)

	sub, err := c.nc.Subscribe(topic, func(m *nats.Msg) {
		select {
		case ch <- Message{Topic: m.Subject, Data: m.Data}:
		case <-c.done:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s failed: %w", topic, err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()

	logging.Debug("Subscribed to %s", topic)
	return ch, nil
}

// Closed returns a channel that fires once when the connection is
// terminally gone, whether by error, remote close, or Close.
func (c *Conn) Closed() <-chan struct{} {
	return c.closed
}

// Close drains subscriptions and closes the connection. Safe to call
// more than once and regardless of connection state; Closed fires as a
// consequence.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		subs := c.subs
		c.subs = nil
		c.mu.Unlock()

		for _, sub := range subs {
			if err := sub.Unsubscribe(); err != nil {
				logging.Debug("Unsubscribe failed during close: %v", err)
			}
		}

		close(c.done)
		c.nc.Close()
	})
}
