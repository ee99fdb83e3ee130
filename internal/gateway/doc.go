// ABOUTME: Gateway orchestrator that wires the store, auth, AI responder and relay
// ABOUTME: Owns the HTTP server, route registration, health endpoints and shutdown

// Package gateway assembles the running server.
//
// New builds the component graph from configuration: the store (SQLite
// or in-memory), the auth service with its session cookies and WS
// tokens, the AI responder, the message relay with its broadcaster, and
// the HTTP API on a single mux. Run starts the HTTP server and blocks
// until the context is cancelled or the server fails, then shuts down
// gracefully.
package gateway
