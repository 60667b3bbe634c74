// Package feed owns the single live push connection to the backend. Pushed
// payloads are decoded and merged into the state cache; consumers never read
// from the socket directly.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/boomslang777/ram2/internal/cache"
	"github.com/boomslang777/ram2/internal/logging"
	"github.com/boomslang777/ram2/internal/models"
)

// State is the connector's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateOpen         State = "open"
)

// Config holds connector configuration.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://localhost/ws.
	URL string
	// ReconnectDelay is the fixed wait between connect attempts.
	ReconnectDelay time.Duration
	// HandshakeTimeout bounds a single dial attempt.
	HandshakeTimeout time.Duration
}

// Connector maintains exactly one websocket connection per process. Interest
// is reference counted: the dial loop starts on the first Acquire and the
// connection is torn down on the last Release, so any number of consumers
// share one transport-level connection.
type Connector struct {
	cfg   Config
	cache *cache.Cache
	log   zerolog.Logger

	mu     sync.Mutex
	state  State
	refs   int
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a connector writing into the given cache.
func New(cfg Config, c *cache.Cache, log zerolog.Logger) *Connector {
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Connector{
		cfg:   cfg,
		cache: c,
		log:   logging.WithComponent(log, "feed"),
		state: StateDisconnected,
	}
}

// State returns the current connection state.
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Acquire registers interest in the live feed. The first acquisition starts
// the connection loop; further acquisitions are counted and share it.
func (c *Connector) Acquire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs++
	if c.refs > 1 {
		return
	}
	// First subscriber: start the loop. A loop already Open or Connecting is
	// never duplicated because refs was zero only while no loop ran.
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// Release drops one unit of interest. When the last consumer releases, the
// loop stops and the connection closes.
func (c *Connector) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		return
	}
	c.refs--
	if c.refs > 0 {
		return
	}
	c.cancel()
	if c.conn != nil {
		c.conn.Close()
	}
}

// Wait blocks until the connection loop has exited after the last Release.
func (c *Connector) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// transition records a loop's state and connection, but only while that loop
// is still the current one. A re-Acquire after the last Release starts a new
// loop before the old one has finished unwinding; the stale loop's writes
// must not clobber the new loop's state.
func (c *Connector) transition(done chan struct{}, s State, conn *websocket.Conn) {
	c.mu.Lock()
	if c.done == done {
		c.state = s
		c.conn = conn
	}
	c.mu.Unlock()
}

// run dials, reads until the connection drops, waits the fixed delay, and
// dials again. Failure is never terminal: there is no retry limit and no
// backoff ceiling.
func (c *Connector) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer c.transition(done, StateDisconnected, nil)

	dialer := &websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}

	for {
		if ctx.Err() != nil {
			return
		}
		c.transition(done, StateConnecting, nil)
		conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			c.transition(done, StateDisconnected, nil)
			c.log.Warn().Err(err).Str("url", c.cfg.URL).Msg("connect failed")
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		c.transition(done, StateOpen, conn)
		c.log.Info().Str("url", c.cfg.URL).Msg("live feed connected")

		c.readLoop(conn)

		c.transition(done, StateDisconnected, nil)
		conn.Close()
		c.log.Info().Msg("live feed disconnected")

		if !c.sleep(ctx) {
			return
		}
	}
}

// sleep waits the reconnect delay; false means the context was cancelled.
func (c *Connector) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.cfg.ReconnectDelay):
		return true
	}
}

func (c *Connector) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleMessage(raw)
	}
}

// handleMessage decodes one inbound frame. Malformed payloads are logged and
// dropped; they never stop the read loop or block reconnection.
func (c *Connector) handleMessage(raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed feed message")
		return
	}
	if env.Type != "data" {
		// Heartbeats and acknowledgments carry no state.
		return
	}
	var data models.FeedData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed data payload")
		return
	}
	c.cache.ApplyUpdate(data)
}
