// ABOUTME: Tests for connect idempotence, deferred sends and the reconnect policy
// ABOUTME: Uses httptest WebSocket servers with scripted close behavior

package wsclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugha/lugha-gateway/internal/relay"
	"github.com/lugha/lugha-gateway/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// fastOptions keeps backoff short so reconnect tests finish quickly.
func fastOptions() Options {
	return Options{ReconnectDelay: 10 * time.Millisecond, MaxAttempts: 3}
}

func TestConnect_Idempotent(t *testing.T) {
	var accepts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepts.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	m := New(wsURL(srv), fastOptions())
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Connect())
	require.NoError(t, m.Connect())
	require.NoError(t, m.Connect())

	assert.Equal(t, StateConnected, m.State())
	assert.Equal(t, int32(1), accepts.Load())
}

func TestSend_DeferredUntilOpen(t *testing.T) {
	received := make(chan relay.InboundFrame, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		var frame relay.InboundFrame
		if err := conn.ReadJSON(&frame); err == nil {
			received <- frame
		}
	}))
	t.Cleanup(srv.Close)

	m := New(wsURL(srv), fastOptions())
	t.Cleanup(func() { m.Close() })

	// Send before any Connect call: the manager must connect and deliver.
	require.NoError(t, m.Send(7, "habari", 3, "swa"))

	select {
	case frame := <-received:
		assert.Equal(t, relay.FrameMessage, frame.Type)
		assert.Equal(t, int64(7), frame.ConversationID)
		assert.Equal(t, "habari", frame.Content)
		assert.Equal(t, int64(3), frame.UserID)
		assert.Equal(t, "swa", frame.Language)
	case <-time.After(2 * time.Second):
		t.Fatal("deferred send never arrived")
	}
}

func TestDispatch_MessageAndErrorListeners(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn.WriteJSON(relay.OutboundFrame{
			Type:    relay.FrameMessage,
			Message: &store.Message{ID: 1, ConversationID: 7, Content: "sopa", IsUserMessage: false},
		})
		conn.WriteJSON(relay.OutboundFrame{Type: relay.FrameError, Error: "bad frame"})
		// Unknown types are ignored, not fatal.
		conn.WriteJSON(map[string]any{"type": "typing"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	m := New(wsURL(srv), fastOptions())
	t.Cleanup(func() { m.Close() })

	messages := make(chan *store.Message, 1)
	errs := make(chan string, 1)
	m.OnMessage(func(msg *store.Message) { messages <- msg })
	m.OnError(func(e string) { errs <- e })

	require.NoError(t, m.Connect())

	select {
	case msg := <-messages:
		assert.Equal(t, "sopa", msg.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("message listener never fired")
	}

	select {
	case e := <-errs:
		assert.Equal(t, "bad frame", e)
	case <-time.After(2 * time.Second):
		t.Fatal("error listener never fired")
	}
}

func TestReconnect_StopsAtAttemptCeiling(t *testing.T) {
	var accepts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepts.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		// Unclean close on every connection.
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom"),
			time.Now().Add(time.Second))
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	m := New(wsURL(srv), fastOptions())
	t.Cleanup(func() { m.Close() })

	states := make(chan State, 64)
	m.OnConnectionState(func(s State) { states <- s })

	m.Connect()

	require.Eventually(t, func() bool {
		return m.State() == StateOffline
	}, 5*time.Second, 10*time.Millisecond)

	// Initial connect plus MaxAttempts reconnects, never a sixth.
	assert.Equal(t, int32(1+3), accepts.Load())

	// Offline is surfaced via the state listener and blocks sends.
	sawOffline := false
	for len(states) > 0 {
		if <-states == StateOffline {
			sawOffline = true
		}
	}
	assert.True(t, sawOffline)
	assert.ErrorIs(t, m.Send(7, "hi", 1, "swa"), ErrOffline)
}

func TestReconnect_NotTriggeredByCleanClose(t *testing.T) {
	var accepts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepts.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		// Wait for the client's close response before dropping.
		conn.ReadMessage()
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	m := New(wsURL(srv), fastOptions())
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Connect())

	require.Eventually(t, func() bool {
		return m.State() == StateDisconnected
	}, 5*time.Second, 10*time.Millisecond)

	// Give any (wrong) reconnect a chance to fire, then check none did.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), accepts.Load())
}

func TestReconnect_CounterResetsOnSuccessfulOpen(t *testing.T) {
	var accepts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := accepts.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		if n <= 2 {
			// First two connections drop uncleanly.
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom"),
				time.Now().Add(time.Second))
			conn.Close()
			return
		}
		// Third connection stays open.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	m := New(wsURL(srv), fastOptions())
	t.Cleanup(func() { m.Close() })

	m.Connect()

	require.Eventually(t, func() bool {
		return m.State() == StateConnected
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, m.Attempts())
}

func TestSend_ConcurrentSenders(t *testing.T) {
	const senders, perSender = 8, 50

	received := make(chan struct{}, senders*perSender)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		for {
			var frame relay.InboundFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			received <- struct{}{}
		}
	}))
	t.Cleanup(srv.Close)

	m := New(wsURL(srv), fastOptions())
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.Connect())

	// Many goroutines share the one connection; every frame must arrive
	// intact, which requires writes to be serialized.
	var wg sync.WaitGroup
	for g := 0; g < senders; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				assert.NoError(t, m.Send(7, "habari", 1, "swa"))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < senders*perSender; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of %d frames arrived", i, senders*perSender)
		}
	}
}

func TestRequeue_KeepsUnflushedFramesInOrder(t *testing.T) {
	m := New("ws://unused", fastOptions())

	m.mu.Lock()
	m.pending = [][]byte{[]byte("later")}
	m.mu.Unlock()

	// Frames that failed to flush go back to the head of the queue.
	m.requeue([][]byte{[]byte("first"), []byte("second")})

	m.mu.Lock()
	got := make([]string, len(m.pending))
	for i, raw := range m.pending {
		got[i] = string(raw)
	}
	m.mu.Unlock()
	assert.Equal(t, []string{"first", "second", "later"}, got)

	// After an intentional close nothing is kept.
	require.NoError(t, m.Close())
	m.requeue([][]byte{[]byte("dropped")})
	m.mu.Lock()
	assert.Empty(t, m.pending)
	m.mu.Unlock()
}

func TestClose_Intentional(t *testing.T) {
	var accepts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepts.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	m := New(wsURL(srv), fastOptions())
	require.NoError(t, m.Connect())
	require.NoError(t, m.Close())

	assert.Equal(t, StateClosed, m.State())
	assert.ErrorIs(t, m.Send(7, "hi", 1, "swa"), ErrClosed)
	assert.ErrorIs(t, m.Connect(), ErrClosed)

	// No reconnection follows an intentional close.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), accepts.Load())
}
