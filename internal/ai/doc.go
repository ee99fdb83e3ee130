// ABOUTME: AI response service with Gemini and OpenAI providers
// ABOUTME: Degrades to language-aware canned responses when no provider is reachable

// Package ai generates assistant replies, translations and language
// insights for conversations.
//
// The Responder resolves provider credentials at call time, first from
// environment variables (GEMINI_API_KEY, OPENAI_API_KEY) and then from
// active keys in the store, so keys added through the admin API take
// effect without a restart. Providers are tried in configured order.
//
// Respond never returns an error: when no provider is configured or the
// upstream call fails, it falls back to a canned response keyed on the
// conversation language, so the chat relay always has something to send.
package ai
