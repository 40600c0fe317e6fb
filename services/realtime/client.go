package realtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"safar/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 512KB max frame size, protects against memory exhaustion.
const maxMessageSize = 512 * 1024

const writeTimeout = 10 * time.Second

// Client maintains a live event channel to the platform backend, abstracting
// connection loss from the rest of the application. It exclusively owns the
// socket handle, the reconnect timer, the heartbeat timer and the outbound
// queue; received payloads are handed off to the registered handlers and not
// retained.
type Client struct {
	cfg    Config
	logger *zap.Logger

	mu          sync.Mutex
	conn        *websocket.Conn
	state       State
	handlers    Handlers
	attempt     int
	manualClose bool
	queue       []models.Command
	lastInbound time.Time

	// gen invalidates reader/heartbeat goroutines left over from a previous
	// connection; events carrying a stale generation are ignored.
	gen            int
	hbStop         chan struct{}
	reconnectTimer *time.Timer
}

// NewClient returns an unconnected client. The caller owns the lifecycle via
// Connect/Disconnect.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		logger: logger,
		state:  StateDisconnected,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect registers the handlers and opens the socket. If a connection is
// already up it is closed cleanly first. Connectivity failures never surface
// as returned errors; observe the connection state and the error handler
// instead.
func (c *Client) Connect(h Handlers) {
	c.mu.Lock()
	c.handlers = h
	c.manualClose = false
	c.attempt = 0
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	if c.conn != nil {
		c.closePoliteLocked()
	}
	c.mu.Unlock()

	c.dial()
}

// Disconnect suppresses auto-reconnect, stops all timers, closes the socket
// and clears the outbound queue. Calling it when already disconnected is a
// no-op.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.manualClose = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.queue = nil
	c.attempt = 0
	c.closePoliteLocked()
	c.mu.Unlock()

	c.setState(StateDisconnected)
}

// Send transmits the command immediately when the socket is open; otherwise it
// is queued (bounded, oldest evicted first) and the error handler is notified
// that delivery was deferred.
func (c *Client) Send(action models.Action, payload any) {
	cmd := models.Command{Action: action, Payload: payload}

	c.mu.Lock()
	if c.conn != nil {
		err := c.writeLocked(cmd)
		c.mu.Unlock()
		if err != nil {
			c.emitError(networkError(fmt.Sprintf("write %q failed: %v", action, err)))
		}
		return
	}
	if len(c.queue) >= c.cfg.SendQueueLimit {
		c.queue = c.queue[1:]
	}
	c.queue = append(c.queue, cmd)
	pending := len(c.queue)
	c.mu.Unlock()

	c.emitError(networkError(fmt.Sprintf("connection not open; %q queued (%d pending)", action, pending)))
}

func (c *Client) dial() {
	c.mu.Lock()
	if c.manualClose {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	token := c.cfg.Token()
	if token == "" {
		c.logger.Error("realtime: no auth token available, cannot connect")
		c.setState(StateErrored)
		return
	}

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		c.logger.Error("realtime: invalid websocket url", zap.String("url", c.cfg.URL), zap.Error(err))
		c.setState(StateErrored)
		return
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	c.setState(StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, resp, err := dialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		c.emitError(networkError("dial failed: " + err.Error()))
		c.setState(StateErrored)
		c.scheduleReconnect()
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c.mu.Lock()
	if c.manualClose {
		// Disconnect raced the dial; drop the fresh connection.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.gen++
	gen := c.gen
	c.conn = conn
	c.attempt = 0
	c.lastInbound = time.Now()
	c.hbStop = make(chan struct{})
	hbStop := c.hbStop

	// Replay queued commands in enqueue order before anything else is written.
	pending := c.queue
	c.queue = nil
	var flushErr error
	for i, cmd := range pending {
		if flushErr = c.writeLocked(cmd); flushErr != nil {
			c.queue = append(c.queue, pending[i:]...)
			break
		}
	}
	c.mu.Unlock()

	c.logger.Info("realtime: connected", zap.String("url", c.cfg.URL))
	c.setState(StateConnected)
	if flushErr != nil {
		c.emitError(networkError("queued message replay failed: " + flushErr.Error()))
	}

	go c.readLoop(conn, gen)
	go c.heartbeat(gen, hbStop)
}

func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.readClosed(gen, err)
			return
		}

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.lastInbound = time.Now()
		h := c.handlers
		c.mu.Unlock()

		c.route(h, data)
	}
}

func (c *Client) readClosed(gen int, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	manual := c.manualClose
	c.mu.Unlock()

	if manual || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		c.setState(StateDisconnected)
		return
	}

	c.emitError(networkError("connection lost: " + err.Error()))
	c.setState(StateErrored)
	c.scheduleReconnect()
}

// heartbeat pings on a fixed interval and closes the socket when no inbound
// traffic has been seen for more than two intervals. That bounds half-open
// connection detection to roughly twice the heartbeat interval instead of
// waiting for the transport to notice.
func (c *Client) heartbeat(gen int, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if gen != c.gen || c.conn == nil {
				c.mu.Unlock()
				return
			}
			stale := time.Since(c.lastInbound) > 2*c.cfg.HeartbeatInterval
			var err error
			if !stale {
				err = c.writeLocked(models.Command{Action: models.ActionPing, Payload: struct{}{}})
			}
			if stale || err != nil {
				c.teardownLocked()
				c.mu.Unlock()
				if stale {
					c.logger.Warn("realtime: no traffic within two heartbeat intervals, closing dead connection")
					c.emitError(networkError("heartbeat timeout"))
				} else {
					c.emitError(networkError("ping failed: " + err.Error()))
				}
				c.setState(StateErrored)
				c.scheduleReconnect()
				return
			}
			c.mu.Unlock()
		}
	}
}

func (c *Client) route(h Handlers, data []byte) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.emitError(validationError("malformed frame: " + err.Error()))
		return
	}

	switch env.Type {
	case models.TypePong:
		// Liveness proof only; lastInbound was already bumped.
	case models.TypeInitialData:
		var p models.InitialData
		if c.decode(env, &p) && h.OnInitialData != nil {
			h.OnInitialData(p)
		}
	case models.TypeBookingUpdate:
		var p models.BookingUpdate
		if c.decode(env, &p) && h.OnBookingUpdate != nil {
			h.OnBookingUpdate(p)
		}
	case models.TypeNewMessage:
		var p models.ChatMessage
		if c.decode(env, &p) && h.OnNewMessage != nil {
			h.OnNewMessage(p)
		}
	case models.TypeNewNotification:
		var p models.Notification
		if c.decode(env, &p) && h.OnNewNotification != nil {
			h.OnNewNotification(p)
		}
	case models.TypeError:
		var p models.ServerError
		if c.decode(env, &p) && h.OnServerError != nil {
			h.OnServerError(p)
		}
	default:
		c.emitError(validationError(fmt.Sprintf("unrecognized message type %q", env.Type)))
	}
}

func (c *Client) decode(env models.Envelope, dst any) bool {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		c.emitError(validationError(fmt.Sprintf("malformed %q payload: %v", env.Type, err)))
		return false
	}
	return true
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.manualClose {
		c.mu.Unlock()
		return
	}
	if c.attempt >= c.cfg.MaxReconnectAttempts {
		c.mu.Unlock()
		c.logger.Warn("realtime: reconnect attempts exhausted, giving up",
			zap.Int("attempts", c.cfg.MaxReconnectAttempts))
		return
	}
	delay := c.backoffDelay(c.attempt)
	c.attempt++
	attempt := c.attempt
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	c.reconnectTimer = time.AfterFunc(delay, c.dial)
	c.mu.Unlock()

	c.logger.Info("realtime: reconnect scheduled",
		zap.Int("attempt", attempt), zap.Duration("delay", delay))
}

// backoffDelay doubles per attempt, capped at ReconnectMaxDelay.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.cfg.ReconnectBaseDelay << attempt
	if delay <= 0 || delay > c.cfg.ReconnectMaxDelay {
		delay = c.cfg.ReconnectMaxDelay
	}
	return delay
}

// writeLocked serializes all socket writes behind c.mu.
func (c *Client) writeLocked(cmd models.Command) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(cmd)
}

// closePoliteLocked sends a normal-closure frame before tearing down.
func (c *Client) closePoliteLocked() {
	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}
	c.teardownLocked()
}

// teardownLocked invalidates the current connection generation, stopping the
// reader and heartbeat goroutines, and closes the socket.
func (c *Client) teardownLocked() {
	c.gen++
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) setState(next State) {
	c.mu.Lock()
	if c.state == next {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = next
	cb := c.handlers.OnStateChange
	c.mu.Unlock()

	c.logger.Debug("realtime: state change",
		zap.Stringer("from", prev), zap.Stringer("to", next))
	if cb != nil {
		cb(next)
	}
}

func (c *Client) emitError(cerr ClientError) {
	c.mu.Lock()
	cb := c.handlers.OnError
	c.mu.Unlock()

	if cb != nil {
		cb(cerr)
		return
	}
	c.logger.Warn("realtime: unhandled client error",
		zap.String("code", string(cerr.Code)),
		zap.String("message", cerr.Message),
		zap.Bool("retryable", cerr.Retryable))
}
