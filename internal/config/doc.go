// Package config handles configuration loading for lugha-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${LUGHA_JWT_SECRET}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  session_duration: "168h"
//	ai:
//	  request_timeout: "30s"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # API, websocket relay, uploads
//
// Database:
//
//	database:
//	  driver: "sqlite"            # sqlite or memory
//	  path: "/var/lib/lugha/gateway.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${LUGHA_JWT_SECRET}"
//	  session_duration: "168h"
//
// AI response service:
//
//	ai:
//	  providers: ["gemini", "openai"]   # preference order
//	  gemini_model: "gemini-pro"
//	  openai_model: "gpt-4o-mini"
//	  request_timeout: "30s"
//
// Uploads:
//
//	uploads:
//	  dir: "uploads"
//	  max_bytes: 5242880
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
