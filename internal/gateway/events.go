// ABOUTME: Server-sent events endpoint streaming a conversation's new messages
// ABOUTME: Lets additional viewers follow a conversation live without holding the WebSocket

package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// writeSSEEvent writes one named SSE event with a JSON payload.
func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

// handleConversationEvents streams messages persisted to the conversation
// until the client disconnects. Owner-scoped like the other conversation
// routes.
func (g *Gateway) handleConversationEvents(w http.ResponseWriter, r *http.Request) {
	conv := g.conversationForRequest(w, r)
	if conv == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		g.sendJSONError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch, _ := g.broadcaster.Subscribe(r.Context(), conv.ID)

	writeSSEEvent(w, "connected", map[string]int64{"conversationId": conv.ID})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, "message", msg)
			flusher.Flush()
		}
	}
}
