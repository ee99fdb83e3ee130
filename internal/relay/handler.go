// ABOUTME: WebSocket endpoint that feeds connection frames into the relay pipeline
// ABOUTME: Optional token authentication; frames on one connection are handled in order

package relay

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// TokenVerifier validates a connection token and returns the user id it
// was issued for. Satisfied by auth.TokenIssuer.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Handler upgrades HTTP requests to WebSocket connections and runs the
// relay pipeline over them.
type Handler struct {
	relay    *Relay
	verifier TokenVerifier
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler. If verifier is non-nil,
// connections must carry a valid token in the "token" query parameter.
func NewHandler(relay *Relay, verifier TokenVerifier) *Handler {
	return &Handler{
		relay:    relay,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client connects from the app's own origin; cookies
			// are not used on this endpoint, tokens are.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: slog.Default().With("component", "ws"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.verifier != nil {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		userID, err := h.verifier.Verify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		h.logger.Debug("connection authenticated", "user_id", userID)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("connection established", "remote", conn.RemoteAddr())

	// Reads and pipeline steps run sequentially, so each inbound frame is
	// processed to completion before the next is accepted.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("connection closed unexpectedly", "error", err)
			} else {
				h.logger.Info("connection closed", "remote", conn.RemoteAddr())
			}
			return
		}

		h.relay.HandleFrame(r.Context(), data, func(frame *OutboundFrame) error {
			return conn.WriteJSON(frame)
		})
	}
}
