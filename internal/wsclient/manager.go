// ABOUTME: Connection lifecycle for the chat WebSocket: connect, dispatch, reconnect, close
// ABOUTME: Linear backoff (base delay times attempt number) capped at MaxAttempts

package wsclient

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lugha/lugha-gateway/internal/relay"
	"github.com/lugha/lugha-gateway/internal/store"
)

// State describes the manager's connection lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	// StateOffline means the reconnect attempt ceiling was reached.
	// Only an explicit Connect call leaves this state.
	StateOffline State = "offline"
	// StateClosed is terminal for intentional closes.
	StateClosed State = "closed"
)

const (
	// DefaultReconnectDelay is the backoff base: attempt n waits n times this.
	DefaultReconnectDelay = 2 * time.Second
	// DefaultMaxAttempts caps automatic reconnection.
	DefaultMaxAttempts = 5
)

// ErrOffline is returned by Send after reconnection attempts are exhausted.
var ErrOffline = errors.New("wsclient: offline, reconnect attempts exhausted")

// ErrClosed is returned by Send and Connect after an intentional Close.
var ErrClosed = errors.New("wsclient: closed")

// Options configures a Manager.
type Options struct {
	// ReconnectDelay is the linear backoff base. Zero means DefaultReconnectDelay.
	ReconnectDelay time.Duration
	// MaxAttempts caps automatic reconnection. Zero means DefaultMaxAttempts.
	MaxAttempts int
	// Dialer overrides the WebSocket dialer, mainly for tests.
	Dialer *websocket.Dialer
}

// Manager maintains one WebSocket connection to the relay endpoint.
// All methods are safe for concurrent use.
type Manager struct {
	url    string
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	attempts int
	pending  [][]byte
	timer    *time.Timer

	// writeMu serializes frame writes; gorilla conns allow one writer at a
	// time and Send callers may be concurrent with the pending flush.
	writeMu sync.Mutex

	onMessage []func(*store.Message)
	onError   []func(string)
	onState   []func(State)
}

// New creates a Manager for the given ws:// or wss:// URL. No connection
// is opened until Connect or the first Send.
func New(url string, opts Options) *Manager {
	if opts.ReconnectDelay == 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Manager{
		url:    url,
		opts:   opts,
		state:  StateDisconnected,
		logger: slog.Default().With("component", "wsclient"),
	}
}

// OnMessage registers a listener for inbound message frames.
func (m *Manager) OnMessage(fn func(*store.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = append(m.onMessage, fn)
}

// OnError registers a listener for inbound error frames.
func (m *Manager) OnError(fn func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = append(m.onError, fn)
}

// OnConnectionState registers a listener for state transitions.
func (m *Manager) OnConnectionState(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onState = append(m.onState, fn)
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the current reconnect attempt counter. It resets to
// zero on every successful open.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Connect opens the connection if one is not already open. Idempotent:
// an open connection is reused. Calling Connect after reaching the
// offline state resets the attempt counter and tries again.
func (m *Manager) Connect() error {
	m.mu.Lock()
	switch m.state {
	case StateClosed:
		m.mu.Unlock()
		return ErrClosed
	case StateConnected:
		m.mu.Unlock()
		return nil
	case StateOffline:
		m.attempts = 0
	}
	m.state = StateConnecting
	listeners := append([]func(State){}, m.onState...)
	m.mu.Unlock()

	notify(listeners, StateConnecting)
	return m.dial()
}

// dial performs one connection attempt and, on success, starts the read
// loop and flushes pending sends.
func (m *Manager) dial() error {
	conn, _, err := m.opts.Dialer.Dial(m.url, nil)
	if err != nil {
		m.logger.Warn("dial failed", "url", m.url, "error", err)
		m.scheduleReconnect()
		return err
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	m.conn = conn
	m.state = StateConnected
	m.attempts = 0
	pending := m.pending
	m.pending = nil
	listeners := append([]func(State){}, m.onState...)
	m.mu.Unlock()

	m.logger.Info("connected", "url", m.url)
	notify(listeners, StateConnected)

	for i, raw := range pending {
		if err := m.write(conn, raw); err != nil {
			m.logger.Warn("flushing pending send failed", "error", err)
			// Keep the unflushed frames for the next successful open.
			m.requeue(pending[i:])
			break
		}
	}

	go m.readLoop(conn)
	return nil
}

// write sends one frame under the write mutex.
func (m *Manager) write(conn *websocket.Conn, raw []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, raw)
}

// requeue puts unflushed frames back at the head of the pending queue,
// preserving their original order.
func (m *Manager) requeue(frames [][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return
	}
	m.pending = append(append([][]byte{}, frames...), m.pending...)
}

// Send delivers one chat message. If the connection is not open, the
// frame is held and a connection attempt is triggered; the frame goes out
// when the open succeeds. Sends are rejected, not buffered, once the
// manager is offline or closed.
func (m *Manager) Send(conversationID int64, content string, userID int64, language string) error {
	raw, err := json.Marshal(relay.InboundFrame{
		Type:           relay.FrameMessage,
		ConversationID: conversationID,
		Content:        content,
		UserID:         userID,
		Language:       language,
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	switch m.state {
	case StateClosed:
		m.mu.Unlock()
		return ErrClosed
	case StateOffline:
		m.mu.Unlock()
		return ErrOffline
	case StateConnected:
		conn := m.conn
		m.mu.Unlock()
		return m.write(conn, raw)
	}

	// Not open yet: hold the frame and make sure a connect is in flight.
	m.pending = append(m.pending, raw)
	needConnect := m.state == StateDisconnected
	m.mu.Unlock()

	if needConnect {
		go m.Connect()
	}
	return nil
}

// readLoop dispatches inbound frames until the connection drops.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.handleDisconnect(conn, err)
			return
		}

		var frame relay.OutboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			m.logger.Warn("unparseable frame", "error", err)
			continue
		}

		m.mu.Lock()
		msgListeners := append([]func(*store.Message){}, m.onMessage...)
		errListeners := append([]func(string){}, m.onError...)
		m.mu.Unlock()

		switch frame.Type {
		case relay.FrameMessage:
			for _, fn := range msgListeners {
				fn(frame.Message)
			}
		case relay.FrameError:
			for _, fn := range errListeners {
				fn(frame.Error)
			}
		default:
			m.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

// handleDisconnect decides whether a dropped connection warrants
// reconnection. Normal and going-away closes do not reconnect.
func (m *Manager) handleDisconnect(conn *websocket.Conn, err error) {
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	intentional := m.state == StateClosed
	listeners := append([]func(State){}, m.onState...)
	m.mu.Unlock()

	if intentional {
		return
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway {
			m.mu.Lock()
			m.state = StateDisconnected
			m.mu.Unlock()
			notify(listeners, StateDisconnected)
			return
		}
	}

	m.logger.Warn("connection lost", "error", err)
	m.scheduleReconnect()
}

// scheduleReconnect arms the backoff timer for the next attempt, or goes
// offline once the ceiling is reached.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}

	m.attempts++
	if m.attempts > m.opts.MaxAttempts {
		m.state = StateOffline
		listeners := append([]func(State){}, m.onState...)
		m.mu.Unlock()
		m.logger.Warn("reconnect attempts exhausted", "max_attempts", m.opts.MaxAttempts)
		notify(listeners, StateOffline)
		return
	}

	attempt := m.attempts
	delay := time.Duration(attempt) * m.opts.ReconnectDelay
	m.state = StateConnecting
	listeners := append([]func(State){}, m.onState...)
	m.timer = time.AfterFunc(delay, func() {
		m.dial()
	})
	m.mu.Unlock()

	m.logger.Info("reconnect scheduled", "attempt", attempt, "delay", delay)
	notify(listeners, StateConnecting)
}

// Close shuts the connection down intentionally. No reconnection occurs
// and any armed reconnect timer is cancelled.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosed
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn := m.conn
	m.conn = nil
	m.pending = nil
	listeners := append([]func(State){}, m.onState...)
	m.mu.Unlock()

	notify(listeners, StateClosed)

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		return conn.Close()
	}
	return nil
}

func notify(listeners []func(State), state State) {
	for _, fn := range listeners {
		fn(state)
	}
}
