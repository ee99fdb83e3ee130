// ABOUTME: Client-side WebSocket connection manager with linear-backoff reconnection
// ABOUTME: Counterpart to the relay endpoint, used by Go clients and the CLI health probe

// Package wsclient maintains a single chat connection to the gateway.
//
// The Manager owns exactly one underlying WebSocket at a time. Sends
// issued while disconnected are held until the connection opens, then
// delivered exactly once. Unclean disconnects trigger automatic
// reconnection with a linearly growing delay, capped at a fixed number
// of attempts, after which the manager goes offline until Connect is
// called again. An intentional Close never reconnects.
package wsclient
