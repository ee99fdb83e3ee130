// ABOUTME: Wire protocol frames exchanged over the chat WebSocket
// ABOUTME: JSON frames discriminated by a type field, camelCase keys

package relay

import (
	"errors"
	"strings"

	"github.com/lugha/lugha-gateway/internal/store"
)

// Frame type discriminators.
const (
	FrameMessage = "message"
	FrameError   = "error"
)

// InboundFrame is a client-to-server chat frame.
type InboundFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
	UserID         int64  `json:"userId"`
	Language       string `json:"language"`
}

// OutboundFrame is a server-to-client frame. Exactly one of Message or
// Error is set, matching Type.
type OutboundFrame struct {
	Type    string         `json:"type"`
	Message *store.Message `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// errorFrame builds an error frame for the originating connection.
func errorFrame(msg string) *OutboundFrame {
	return &OutboundFrame{Type: FrameError, Error: msg}
}

// messageFrame wraps a persisted message for delivery.
func messageFrame(msg *store.Message) *OutboundFrame {
	return &OutboundFrame{Type: FrameMessage, Message: msg}
}

// Validate checks the frame's shape. Language membership is checked
// separately against the store's catalog.
func (f *InboundFrame) Validate() error {
	if f.Type != FrameMessage {
		return errors.New("unknown frame type")
	}
	if f.ConversationID <= 0 {
		return errors.New("conversationId must be a positive integer")
	}
	if strings.TrimSpace(f.Content) == "" {
		return errors.New("content must not be empty")
	}
	if f.Language == "" {
		return errors.New("language is required")
	}
	return nil
}
