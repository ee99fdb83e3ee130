// ABOUTME: Session authentication, password hashing and WebSocket token issuance
// ABOUTME: Cookie sessions back the HTTP API; short-lived JWTs authenticate the relay

// Package auth provides authentication for the HTTP API and the relay.
//
// HTTP requests authenticate with a store-backed session cookie created
// at login. The WebSocket endpoint cannot rely on middleware-friendly
// cookies in every client, so authenticated users exchange their session
// for a short-lived HS256 JWT carried in the connection URL.
package auth
