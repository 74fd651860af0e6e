package stream

import (
	"context"
	"sync"
	"time"

	"camwatch/internal/compositor"
	"camwatch/internal/event"
	"camwatch/internal/logging"
	"camwatch/internal/metrics"
	"camwatch/internal/state"
	"camwatch/internal/transport"
)

// Connection phases.
const (
	PhaseConnecting   = "connecting"
	PhaseConnected    = "connected"
	PhaseReconnecting = "reconnecting"
	PhaseStopped      = "stopped"
)

// Backoff defaults: start short, grow by half per attempt, cap, and
// reset on a successful connect.
const (
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
	backoffFactor         = 1.5
)

// Connection is the transport surface the client needs. Satisfied by
// *transport.Conn; tests substitute fakes.
type Connection interface {
	Subscribe(topic string) (<-chan transport.Message, error)
	Closed() <-chan struct{}
	Close()
}

// Dialer attempts one connection.
type Dialer func(ctx context.Context) (Connection, error)

// ConnState is the presentation-facing connection status. It drives
// only the status indicator; data retention never depends on it.
type ConnState struct {
	Phase     string `json:"phase"`
	LastError string `json:"lastError,omitempty"`
}

// Config holds the client's tunables.
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Stores bundles the session state the dispatcher feeds.
type Stores struct {
	Registry *state.CameraRegistry
	Ledger   *state.Ledger
	Tags     *state.TagStore
	Alert    *state.AlertReducer
}

// Client supervises the connection and dispatches every topic's
// messages into the stores and the compositor.
type Client struct {
	dial       Dialer
	stores     Stores
	compositor *compositor.Compositor
	cfg        Config

	mu    sync.RWMutex
	state ConnState
}

// New creates a Client. Zero backoff values take the defaults.
func New(dial Dialer, stores Stores, comp *compositor.Compositor, cfg Config) *Client {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	return &Client{
		dial:       dial,
		stores:     stores,
		compositor: comp,
		cfg:        cfg,
		state:      ConnState{Phase: PhaseConnecting},
	}
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(phase, lastErr string) {
	c.mu.Lock()
	c.state = ConnState{Phase: phase, LastError: lastErr}
	c.mu.Unlock()

	for _, p := range []string{PhaseConnecting, PhaseConnected, PhaseReconnecting} {
		v := 0.0
		if p == phase {
			v = 1.0
		}
		metrics.StreamConnectionPhase.WithLabelValues(p).Set(v)
	}
	if phase == PhaseConnected {
		metrics.StreamConnectedSince.Set(float64(time.Now().Unix()))
	} else {
		metrics.StreamConnectedSince.Set(0)
	}
}

// Run connects and dispatches until ctx is cancelled. It never returns
// for any other reason: every transport error feeds the backoff loop.
func (c *Client) Run(ctx context.Context) {
	backoff := c.cfg.InitialBackoff
	first := true

	for {
		if ctx.Err() != nil {
			c.setState(PhaseStopped, "")
			return
		}

		if first {
			c.setState(PhaseConnecting, "")
		}

		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.setState(PhaseStopped, "")
				return
			}
			logging.Warn("Connect failed: %v (retrying in %v)", err, backoff)
			c.setState(PhaseReconnecting, err.Error())
			metrics.StreamReconnectsTotal.Inc()
			if !sleep(ctx, backoff) {
				c.setState(PhaseStopped, "")
				return
			}
			backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
			first = false
			continue
		}

		subs, err := c.subscribeAll(conn)
		if err != nil {
			conn.Close()
			logging.Warn("Subscribe failed: %v (retrying in %v)", err, backoff)
			c.setState(PhaseReconnecting, err.Error())
			metrics.StreamReconnectsTotal.Inc()
			if !sleep(ctx, backoff) {
				c.setState(PhaseStopped, "")
				return
			}
			backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
			first = false
			continue
		}

		logging.Info("Stream connected")
		c.setState(PhaseConnected, "")
		backoff = c.cfg.InitialBackoff

		c.dispatch(ctx, conn, subs)
		conn.Close()

		if ctx.Err() != nil {
			c.setState(PhaseStopped, "")
			return
		}

		logging.Warn("Stream connection lost, reconnecting in %v", backoff)
		c.setState(PhaseReconnecting, "connection closed")
		metrics.StreamReconnectsTotal.Inc()
		if !sleep(ctx, backoff) {
			c.setState(PhaseStopped, "")
			return
		}
		backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
		first = false
	}
}

// subscriptions holds one channel per topic.
type subscriptions struct {
	trackerFrames <-chan transport.Message
	rawFrames     <-chan transport.Message
	matches       <-chan transport.Message
	colors        <-chan transport.Message
	alerts        <-chan transport.Message
}

func (c *Client) subscribeAll(conn Connection) (subscriptions, error) {
	var subs subscriptions
	var err error

	if subs.trackerFrames, err = conn.Subscribe(event.TopicTrackerFrames); err != nil {
		return subs, err
	}
	if subs.rawFrames, err = conn.Subscribe(event.TopicRawFrames); err != nil {
		return subs, err
	}
	if subs.matches, err = conn.Subscribe(event.TopicMatches); err != nil {
		return subs, err
	}
	if subs.colors, err = conn.Subscribe(event.TopicColor); err != nil {
		return subs, err
	}
	if subs.alerts, err = conn.Subscribe(event.TopicAlert); err != nil {
		return subs, err
	}
	return subs, nil
}

// dispatch processes messages until the connection closes or the run
// context is cancelled. All store mutations happen here, on this one
// goroutine; topic channels preserve per-topic delivery order and no
// ordering is assumed across topics.
func (c *Client) dispatch(ctx context.Context, conn Connection, subs subscriptions) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Closed():
			return
		case msg := <-subs.trackerFrames:
			c.onFrame(msg)
		case msg := <-subs.rawFrames:
			c.onFrame(msg)
		case msg := <-subs.matches:
			c.onMatch(msg)
		case msg := <-subs.colors:
			c.onTagRequest(msg)
		case msg := <-subs.alerts:
			c.onAlert(msg)
		}
	}
}

func (c *Client) onFrame(msg transport.Message) {
	frame, err := event.DecodeFrame(msg.Data)
	if err != nil {
		metrics.StreamMessagesTotal.WithLabelValues(msg.Topic, "malformed").Inc()
		logging.Debug("Dropping message on %s: %v", msg.Topic, err)
		return
	}
	metrics.StreamMessagesTotal.WithLabelValues(msg.Topic, "ok").Inc()

	c.stores.Registry.Observe(frame.CameraID)
	if err := c.compositor.Render(frame); err != nil {
		// Hold-last-frame: the previous raster stays up and the next
		// valid frame resumes rendering.
		logging.Debug("Frame skipped: %v", err)
	}
}

func (c *Client) onMatch(msg transport.Message) {
	match, err := event.DecodeMatch(msg.Data)
	if err != nil {
		metrics.StreamMessagesTotal.WithLabelValues(msg.Topic, "malformed").Inc()
		logging.Debug("Dropping message on %s: %v", msg.Topic, err)
		return
	}
	metrics.StreamMessagesTotal.WithLabelValues(msg.Topic, "ok").Inc()

	if match.ObservedAt.IsZero() {
		match.ObservedAt = time.Now()
	}
	c.stores.Ledger.Upsert(match)
}

func (c *Client) onTagRequest(msg transport.Message) {
	req, err := event.DecodeTagRequest(msg.Data)
	if err != nil {
		metrics.StreamMessagesTotal.WithLabelValues(msg.Topic, "malformed").Inc()
		logging.Debug("Dropping message on %s: %v", msg.Topic, err)
		return
	}
	metrics.StreamMessagesTotal.WithLabelValues(msg.Topic, "ok").Inc()

	c.stores.Tags.Set(req.TrackerID, req.Tag)
}

func (c *Client) onAlert(msg transport.Message) {
	sig, err := event.DecodeAlertSignal(msg.Data)
	if err != nil {
		metrics.StreamMessagesTotal.WithLabelValues(msg.Topic, "malformed").Inc()
		logging.Debug("Dropping message on %s: %v", msg.Topic, err)
		return
	}
	metrics.StreamMessagesTotal.WithLabelValues(msg.Topic, "ok").Inc()

	c.stores.Alert.OnSignal(sig.Level)
}

// nextBackoff grows the interval by half, capped at max.
func nextBackoff(current, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * backoffFactor)
	if next > max {
		next = max
	}
	return next
}

// sleep waits for d or until ctx is cancelled; returns false on cancel.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
