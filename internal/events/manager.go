// Package events maintains a best-effort persistent websocket connection to
// the backend push endpoint, delivering every parsed inbound message to all
// registered handlers and recovering from transport failure with
// exponential-backoff reconnection.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/alghazaly/storesync/internal/telemetry"
)

const (
	// DefaultMaxReconnectAttempts is how many reconnections are scheduled
	// before the manager gives up until an explicit Connect
	DefaultMaxReconnectAttempts = 5

	// DefaultBackoffBase is the first reconnect delay
	DefaultBackoffBase = 1 * time.Second

	// DefaultBackoffCap bounds the reconnect delay growth
	DefaultBackoffCap = 30 * time.Second

	// DefaultHandshakeTimeout bounds the websocket dial
	DefaultHandshakeTimeout = 20 * time.Second

	closeWriteTimeout = 3 * time.Second
)

// ErrSuperseded reports that a dial completed after its connection was
// superseded by a Disconnect or a newer Connect. The socket has been closed
// and the manager is not connected.
var ErrSuperseded = errors.New("event channel dial superseded")

// State describes the event channel's connection state
type State string

const (
	// StateDisconnected means no socket is open; a reconnect may be pending
	StateDisconnected State = "disconnected"

	// StateConnecting means a dial is in progress
	StateConnecting State = "connecting"

	// StateConnected means the socket is open
	StateConnected State = "connected"

	// StateGaveUp means the reconnect attempt budget is exhausted; only an
	// explicit Connect leaves this state
	StateGaveUp State = "gave_up"
)

// Manager owns one logical connection to the push endpoint
type Manager struct {
	logger  *slog.Logger
	metrics *telemetry.ChannelMetrics
	dialer  *websocket.Dialer
	baseURL string

	maxReconnectAttempts int
	backoffBase          time.Duration
	backoffCap           time.Duration

	mu                sync.Mutex
	conn              *websocket.Conn
	state             State
	userID            string
	reconnectAttempts int
	reconnectTimer    *time.Timer
	backoff           *backoff.ExponentialBackOff

	// generation invalidates work belonging to a previous connection: a
	// dial or read loop that outlives a Disconnect compares its captured
	// generation against the current one and stands down
	generation uint64

	handlers      map[int64]Handler
	nextHandlerID int64
}

// ManagerOption configures the manager
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithChannelMetrics sets the channel metrics; nil metrics are a no-op
func WithChannelMetrics(metrics *telemetry.ChannelMetrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithMaxReconnectAttempts overrides the reconnect attempt budget
func WithMaxReconnectAttempts(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.maxReconnectAttempts = n
		}
	}
}

// WithReconnectBackoff overrides the reconnect delay schedule, mainly for
// tests
func WithReconnectBackoff(base, capDelay time.Duration) ManagerOption {
	return func(m *Manager) {
		if base > 0 {
			m.backoffBase = base
		}
		if capDelay > 0 {
			m.backoffCap = capDelay
		}
	}
}

// WithHandshakeTimeout overrides the websocket dial timeout
func WithHandshakeTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.dialer = &websocket.Dialer{HandshakeTimeout: d}
		}
	}
}

// NewManager creates a manager for the push endpoint derived from baseURL
// (scheme upgraded to its websocket variant, path /api/ws)
func NewManager(baseURL string, opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:               slog.Default(),
		dialer:               &websocket.Dialer{HandshakeTimeout: DefaultHandshakeTimeout},
		baseURL:              baseURL,
		maxReconnectAttempts: DefaultMaxReconnectAttempts,
		backoffBase:          DefaultBackoffBase,
		backoffCap:           DefaultBackoffCap,
		state:                StateDisconnected,
		handlers:             make(map[int64]Handler),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.backoff = newReconnectBackoff(m.backoffBase, m.backoffCap)
	return m
}

// newReconnectBackoff builds the reconnect delay schedule. Jitter is
// disabled so the delays double exactly until the cap.
func newReconnectBackoff(base, capDelay time.Duration) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         capDelay,
	}
	b.Reset()
	return b
}

// Connect opens the channel. No-op when a socket is already open. The
// optional userID is appended as a query parameter. A pending reconnect is
// superseded. Dial failure takes the same reconnection-scheduling path as an
// unexpected close. Returns ErrSuperseded when a Disconnect or newer Connect
// overtook the dial while it was in flight.
func (m *Manager) Connect(ctx context.Context, userID string) error {
	m.mu.Lock()
	if m.conn != nil {
		m.mu.Unlock()
		return nil
	}
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	m.userID = userID
	m.generation++
	gen := m.generation
	m.state = StateConnecting
	m.mu.Unlock()

	return m.dial(ctx, gen, userID)
}

// dial opens the websocket for the given generation. A dial that completes
// after the generation moved on closes the socket and reports ErrSuperseded.
func (m *Manager) dial(ctx context.Context, gen uint64, userID string) error {
	channelURL, err := BuildChannelURL(m.baseURL, userID)
	if err != nil {
		m.failDial(gen, err)
		return err
	}

	conn, resp, err := m.dialer.DialContext(ctx, channelURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		err = fmt.Errorf("failed to dial event channel: %w", err)
		m.failDial(gen, err)
		return err
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		_ = conn.Close()
		m.logger.Debug("Discarding superseded event channel dial", "url", channelURL)
		return ErrSuperseded
	}
	m.conn = conn
	m.state = StateConnected
	m.reconnectAttempts = 0
	m.backoff.Reset()
	m.mu.Unlock()

	m.logger.Info("Event channel connected", "url", channelURL)
	go m.readLoop(gen, conn)
	return nil
}

// failDial records a failed dial and schedules reconnection, unless the
// connection generation has moved on
func (m *Manager) failDial(gen uint64, cause error) {
	m.logger.Error("Failed to open event channel", "error", cause)
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	m.state = StateDisconnected
	m.scheduleReconnectLocked(gen)
}

// readLoop reads frames until the connection closes. Parse failures drop the
// frame only; the read error path is the sole reconnect trigger.
func (m *Manager) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(gen, err)
			return
		}
		switch messageType {
		case websocket.TextMessage, websocket.BinaryMessage:
			m.dispatch(data)
		}
	}
}

// handleClose reacts to the connection closing for any reason other than an
// explicit Disconnect
func (m *Manager) handleClose(gen uint64, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.state = StateDisconnected
	m.logger.Warn("Event channel closed", "error", cause)
	m.scheduleReconnectLocked(gen)
}

// scheduleReconnectLocked schedules the next reconnection attempt. Caller
// holds m.mu. Once the attempt budget is spent, no timer is armed and the
// manager reports StateGaveUp until an explicit Connect.
func (m *Manager) scheduleReconnectLocked(gen uint64) {
	if m.reconnectAttempts >= m.maxReconnectAttempts {
		m.state = StateGaveUp
		m.logger.Error("Event channel reconnect attempts exhausted",
			"attempts", m.reconnectAttempts)
		return
	}

	delay := m.backoff.NextBackOff()
	m.reconnectAttempts++
	userID := m.userID

	m.logger.Info("Scheduling event channel reconnect",
		"attempt", m.reconnectAttempts,
		"max_attempts", m.maxReconnectAttempts,
		"delay", delay)
	m.metrics.RecordReconnect(context.Background())

	m.reconnectTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if gen != m.generation || m.reconnectTimer == nil {
			m.mu.Unlock()
			return
		}
		m.reconnectTimer = nil
		m.state = StateConnecting
		m.mu.Unlock()

		_ = m.dial(context.Background(), gen, userID)
	})
}

// Disconnect closes the channel and cancels any pending reconnection. This
// is a terminal action: it never schedules a reconnect, and a dial still in
// flight is discarded when it completes.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.generation++
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		_ = conn.Close()
	}
	m.logger.Info("Event channel disconnected")
}

// Send serializes and transmits v when the socket is open. Messages sent
// while disconnected are silently dropped: no buffering, no error.
func (m *Manager) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode outbound message: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	if err := m.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to write to event channel: %w", err)
	}
	return nil
}

// AddMessageHandler registers a handler for every inbound message and
// returns a removal function. Removal is idempotent and precise: it removes
// exactly the handler registered by this call.
func (m *Manager) AddMessageHandler(h Handler) func() {
	m.mu.Lock()
	m.nextHandlerID++
	id := m.nextHandlerID
	m.handlers[id] = h
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.handlers, id)
		m.mu.Unlock()
	}
}

// dispatch parses one frame and fans it out to all registered handlers
func (m *Manager) dispatch(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		m.logger.Warn("Dropping unparseable event channel frame", "error", err)
		return
	}
	m.metrics.RecordMessage(context.Background(), msg.Type)

	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		m.invoke(h, msg)
	}
}

// invoke runs one handler, containing panics so one handler cannot prevent
// delivery to the others or destabilize the connection
func (m *Manager) invoke(h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Message handler panicked", "type", msg.Type, "panic", r)
		}
	}()
	h(msg)
}

// IsConnected reports whether the socket is currently open. A pending
// reconnection does not count as connected.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil && m.state == StateConnected
}

// State returns the current connection state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ReconnectAttempts returns the count of reconnections scheduled since the
// last successful open
func (m *Manager) ReconnectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnectAttempts
}

// BuildChannelURL derives the push endpoint URL from the configured base
// address: scheme upgraded to its websocket variant, path /api/ws, optional
// user_id query parameter.
func BuildChannelURL(base, userID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base address: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q in base address", u.Scheme)
	}

	u.Path = "/api/ws"
	if userID != "" {
		query := u.Query()
		query.Set("user_id", userID)
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}
