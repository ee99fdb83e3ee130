// ABOUTME: Per-connection message pipeline: validate, persist, echo, respond, persist, send
// ABOUTME: Transport-agnostic; the WebSocket handler feeds it raw frames and an emit function

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/lugha/lugha-gateway/internal/store"
)

// MessageStore is the slice of the store the relay needs.
type MessageStore interface {
	GetLanguageByCode(ctx context.Context, code string) (*store.Language, error)
	CreateMessage(ctx context.Context, msg *store.Message) error
}

// ResponseGenerator produces assistant replies. Satisfied by ai.Responder.
// It never fails; degraded replies are still usable strings.
type ResponseGenerator interface {
	Respond(ctx context.Context, message, language string) string
}

// Relay runs the chat pipeline for inbound frames. One Relay serves all
// connections; per-connection serialization is the transport's concern
// (each connection feeds frames sequentially).
type Relay struct {
	store       MessageStore
	responder   ResponseGenerator
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewRelay creates a relay. The broadcaster may be nil, in which case
// persisted messages are only echoed to the originating connection.
func NewRelay(s MessageStore, responder ResponseGenerator, broadcaster *Broadcaster) *Relay {
	return &Relay{
		store:       s,
		responder:   responder,
		broadcaster: broadcaster,
		logger:      slog.Default().With("component", "relay"),
	}
}

// EmitFunc delivers an outbound frame to the originating connection.
type EmitFunc func(frame *OutboundFrame) error

// HandleFrame processes one raw inbound frame to completion. All failures
// are reported to the sender as error frames; the connection stays open.
// Valid frames produce exactly two outbound message frames: the persisted
// user turn, then the persisted assistant turn.
func (r *Relay) HandleFrame(ctx context.Context, raw []byte, emit EmitFunc) {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.logger.Warn("malformed inbound frame", "error", err)
		r.emit(emit, errorFrame("An error occurred processing your message"))
		return
	}

	if err := frame.Validate(); err != nil {
		r.emit(emit, errorFrame(err.Error()))
		return
	}

	lang, err := r.store.GetLanguageByCode(ctx, frame.Language)
	if err != nil || !lang.IsActive {
		r.emit(emit, errorFrame("unknown language code"))
		return
	}

	userMsg := &store.Message{
		ConversationID: frame.ConversationID,
		Content:        frame.Content,
		IsUserMessage:  true,
	}
	if err := r.store.CreateMessage(ctx, userMsg); err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			r.emit(emit, errorFrame("conversation not found"))
			return
		}
		r.logger.Error("persisting user message failed", "error", err)
		r.emit(emit, errorFrame("could not store your message"))
		return
	}

	if !r.emit(emit, messageFrame(userMsg)) {
		return
	}
	r.publish(userMsg)

	reply := r.responder.Respond(ctx, frame.Content, frame.Language)

	aiMsg := &store.Message{
		ConversationID: frame.ConversationID,
		Content:        reply,
		IsUserMessage:  false,
	}
	if err := r.store.CreateMessage(ctx, aiMsg); err != nil {
		r.logger.Error("persisting assistant message failed", "error", err)
		r.emit(emit, errorFrame("could not store the assistant reply"))
		return
	}

	r.emit(emit, messageFrame(aiMsg))
	r.publish(aiMsg)
}

func (r *Relay) emit(emit EmitFunc, frame *OutboundFrame) bool {
	if err := emit(frame); err != nil {
		r.logger.Warn("emit failed, abandoning frame", "error", err)
		return false
	}
	return true
}

func (r *Relay) publish(msg *store.Message) {
	if r.broadcaster != nil {
		r.broadcaster.Publish(msg)
	}
}
