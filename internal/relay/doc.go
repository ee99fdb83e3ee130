// ABOUTME: Real-time message relay between chat clients, storage and the AI responder
// ABOUTME: Owns the WebSocket endpoint, per-connection pipeline and conversation fan-out

// Package relay mediates chat traffic between connected clients, the
// store and the AI responder.
//
// Each WebSocket connection runs its own pipeline: an inbound message
// frame is validated, persisted as the user's turn, echoed back, then
// answered by the AI responder whose reply is persisted and sent as the
// assistant's turn. Frames on one connection are processed strictly in
// arrival order; connections run independently of each other.
//
// Outbound frames go only to the originating connection. Persisted
// messages are additionally published to the Broadcaster so other
// viewers of the conversation can follow along over server-sent events.
package relay
