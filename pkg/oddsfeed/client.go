// Package oddsfeed streams live odds updates from an upstream feed and
// turns them into slip selection candidates.
package oddsfeed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/oddslab/wager-engine/pkg/betslip"
)

// State represents the feed connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SelectionHandler receives selection candidates parsed from the feed.
type SelectionHandler func(betslip.Selection)

// Config holds odds feed client configuration.
type Config struct {
	// URL is the feed WebSocket endpoint.
	URL string

	// SportKeys limits the subscription to specific sports. Empty
	// subscribes to everything the feed offers.
	SportKeys []string

	ReconnectMinDelay    time.Duration
	ReconnectMaxDelay    time.Duration
	ReconnectMaxAttempts int // 0 = unlimited

	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		ReconnectMinDelay: 1 * time.Second,
		ReconnectMaxDelay: 30 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       60 * time.Second,
	}
}

// Client consumes an odds feed with automatic reconnection. Subscribed
// sport keys are replayed after every reconnect.
type Client struct {
	config  Config
	log     *logrus.Logger
	handler SelectionHandler

	conn   *websocket.Conn
	connMu sync.RWMutex
	state  int32 // atomic State

	closeCh   chan struct{}
	closeOnce sync.Once

	reconnectAttempts int
}

// NewClient creates an odds feed client. Parsed selections are passed
// to handler from the read goroutine.
func NewClient(config Config, handler SelectionHandler, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		config:  config,
		log:     log,
		handler: handler,
		closeCh: make(chan struct{}),
	}
}

// Connect dials the feed and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	if c.getState() == StateClosed {
		return errors.New("client is closed")
	}

	c.setState(StateConnecting)

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("dial failed: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.setState(StateConnected)
	c.reconnectAttempts = 0

	if err := c.subscribe(); err != nil {
		c.log.WithError(err).Warn("odds feed subscribe failed")
	}

	go c.readLoop()
	if c.config.HeartbeatInterval > 0 {
		go c.heartbeatLoop()
	}

	c.log.WithField("url", c.config.URL).Info("odds feed connected")
	return nil
}

// Close shuts the client down permanently.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.setState(StateClosed)
		close(c.closeCh)

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.connMu.Unlock()
	})
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.getState()
}

// IsConnected returns true if the feed is connected.
func (c *Client) IsConnected() bool {
	return c.getState() == StateConnected
}

func (c *Client) getState() State {
	return State(atomic.LoadInt32(&c.state))
}

func (c *Client) setState(s State) {
	atomic.StoreInt32(&c.state, int32(s))
}

func (c *Client) subscribe() error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil {
		return errors.New("not connected")
	}

	msg := subscribeMessage{Type: "subscribe", SportKeys: c.config.SportKeys}
	if c.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	return conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer func() {
		if c.getState() != StateClosed {
			c.handleDisconnect()
		}
	}()

	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()

		if conn == nil {
			return
		}

		if c.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			c.log.WithError(err).Debug("odds feed read error")
			return
		}

		selections, err := ParseUpdate(data)
		if err != nil {
			c.log.WithError(err).Debug("skipping malformed odds update")
			continue
		}

		if c.handler != nil {
			for _, sel := range selections {
				c.handler(sel)
			}
		}
	}
}

func (c *Client) heartbeatLoop() {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCh:
			return
		case <-ticker.C:
			if c.getState() != StateConnected {
				continue
			}

			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				continue
			}

			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.log.WithError(err).Debug("odds feed heartbeat failed")
			}
		}
	}
}

func (c *Client) handleDisconnect() {
	c.setState(StateDisconnected)
	c.log.Warn("odds feed disconnected")
	go c.reconnect()
}

func (c *Client) reconnect() {
	c.setState(StateReconnecting)

	for {
		if c.getState() == StateClosed {
			return
		}

		c.reconnectAttempts++

		if c.config.ReconnectMaxAttempts > 0 && c.reconnectAttempts > c.config.ReconnectMaxAttempts {
			c.setState(StateDisconnected)
			c.log.WithField("attempts", c.config.ReconnectMaxAttempts).Error("odds feed gave up reconnecting")
			return
		}

		delay := c.config.ReconnectMinDelay * time.Duration(1<<uint(c.reconnectAttempts-1))
		if delay > c.config.ReconnectMaxDelay {
			delay = c.config.ReconnectMaxDelay
		}

		select {
		case <-c.closeCh:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		c.log.WithError(err).WithField("attempt", c.reconnectAttempts).Warn("odds feed reconnect failed")
	}
}
