// ABOUTME: Tests for the conversation SSE stream
// ABOUTME: Reads raw event frames off a live httptest server

package gateway

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugha/lugha-gateway/internal/store"
)

type sseEvent struct {
	name string
	data string
}

// readSSEEvent reads one "event:"/"data:" pair off the stream.
func readSSEEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if ev.name != "" || ev.data != "" {
				return ev
			}
		}
	}
}

func TestConversationEvents_StreamsPublishedMessages(t *testing.T) {
	gw, srv, client := newTestGateway(t)
	registerUser(t, client, srv.URL, "wanjiku")
	conv := createConversation(t, client, srv.URL, "Greetings", "mas")

	resp, err := client.Get(fmt.Sprintf("%s/api/conversations/%d/events", srv.URL, conv.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	connected := readSSEEvent(t, reader)
	assert.Equal(t, "connected", connected.name)
	assert.JSONEq(t, fmt.Sprintf(`{"conversationId": %d}`, conv.ID), connected.data)

	// Give the subscriber time to register before publishing.
	time.Sleep(50 * time.Millisecond)
	gw.broadcaster.Publish(&store.Message{
		ID:             1,
		ConversationID: conv.ID,
		Content:        "Sopa",
		IsUserMessage:  true,
		CreatedAt:      time.Now(),
	})

	ev := readSSEEvent(t, reader)
	assert.Equal(t, "message", ev.name)

	var msg store.Message
	require.NoError(t, json.Unmarshal([]byte(ev.data), &msg))
	assert.Equal(t, conv.ID, msg.ConversationID)
	assert.Equal(t, "Sopa", msg.Content)
	assert.True(t, msg.IsUserMessage)
}

func TestConversationEvents_OwnerScoped(t *testing.T) {
	_, srv, ownerClient := newTestGateway(t)
	registerUser(t, ownerClient, srv.URL, "wanjiku")
	conv := createConversation(t, ownerClient, srv.URL, "Private", "swa")

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	intruder := &http.Client{Jar: jar}
	registerUser(t, intruder, srv.URL, "otieno")

	resp, err := intruder.Get(fmt.Sprintf("%s/api/conversations/%d/events", srv.URL, conv.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestConversationEvents_UnknownConversation(t *testing.T) {
	_, srv, client := newTestGateway(t)
	registerUser(t, client, srv.URL, "wanjiku")

	resp, err := client.Get(srv.URL + "/api/conversations/9999/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
