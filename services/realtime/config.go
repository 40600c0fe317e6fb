package realtime

import (
	"time"

	"safar/models"
)

// State represents the connection lifecycle. Observers learn of connectivity
// changes only through state transitions.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "error"
	default:
		return "unknown"
	}
}

// Handlers registers one callback per inbound message type. Pong frames are
// consumed internally and never forwarded. Nil callbacks drop their messages.
type Handlers struct {
	OnInitialData     func(models.InitialData)
	OnBookingUpdate   func(models.BookingUpdate)
	OnNewMessage      func(models.ChatMessage)
	OnNewNotification func(models.Notification)
	OnServerError     func(models.ServerError)

	// OnError receives transport and validation failures.
	OnError func(ClientError)
	// OnStateChange fires on every connection-state transition.
	OnStateChange func(State)
}

// Config tunes the client. Zero values fall back to the defaults below.
type Config struct {
	// URL is the base WebSocket endpoint; the auth token is appended as a
	// "token" query parameter at connect time.
	URL string
	// Token supplies the current auth token. An empty result fails the connect
	// into the error state. Token changes require a full reconnect.
	Token func() string

	HeartbeatInterval    time.Duration
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int
	SendQueueLimit       int
	DialTimeout          time.Duration
}

const (
	defaultHeartbeatInterval    = 30 * time.Second
	defaultReconnectBaseDelay   = 2 * time.Second
	defaultReconnectMaxDelay    = 30 * time.Second
	defaultMaxReconnectAttempts = 5
	defaultSendQueueLimit       = 64
	defaultDialTimeout          = 10 * time.Second
)

func (c *Config) withDefaults() {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = defaultReconnectBaseDelay
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = defaultReconnectMaxDelay
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if c.SendQueueLimit <= 0 {
		c.SendQueueLimit = defaultSendQueueLimit
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.Token == nil {
		c.Token = func() string { return "" }
	}
}
