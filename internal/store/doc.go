// ABOUTME: Persistence layer for users, conversations, messages, API keys and languages
// ABOUTME: Defines the Store interface with SQLite and in-memory implementations

// Package store provides the persistence layer for the gateway.
//
// The Store interface covers all entities the gateway tracks: users and
// their sessions, conversations and their messages, provider API keys,
// and the supported language catalog. Two implementations exist:
//
//   - SQLiteStore: production storage backed by modernc.org/sqlite with
//     WAL mode and automatic schema creation
//   - MemStore: in-memory storage for tests and ephemeral deployments
//
// Both implementations seed the embedded default language catalog into
// an empty store, and both uphold the same ordering guarantees: messages
// within a conversation are returned oldest first, and a user's
// conversations are returned most recently updated first.
package store
