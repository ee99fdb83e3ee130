// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  driver: "sqlite"
  path: "./test.db"

auth:
  jwt_secret: "test-secret"
  session_duration: "24h"

ai:
  providers: ["gemini"]
  request_timeout: "10s"

uploads:
  dir: "/tmp/uploads"
  max_bytes: 1048576

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("expected http_addr 0.0.0.0:8080, got %s", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("expected database path ./test.db, got %s", cfg.Database.Path)
	}
	if cfg.Auth.SessionDuration != 24*time.Hour {
		t.Errorf("expected session_duration 24h, got %v", cfg.Auth.SessionDuration)
	}
	if cfg.AI.RequestTimeout != 10*time.Second {
		t.Errorf("expected request_timeout 10s, got %v", cfg.AI.RequestTimeout)
	}
	if cfg.Uploads.MaxBytes != 1048576 {
		t.Errorf("expected max_bytes 1048576, got %d", cfg.Uploads.MaxBytes)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./test.db"

auth:
  jwt_secret: "test-secret"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("expected default http_addr, got %s", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected default driver sqlite, got %s", cfg.Database.Driver)
	}
	if cfg.Auth.SessionDuration != DefaultSessionDuration {
		t.Errorf("expected default session duration, got %v", cfg.Auth.SessionDuration)
	}
	if len(cfg.AI.Providers) != 2 || cfg.AI.Providers[0] != "gemini" {
		t.Errorf("unexpected default providers: %v", cfg.AI.Providers)
	}
	if cfg.Uploads.MaxBytes != DefaultUploadMaxBytes {
		t.Errorf("expected default upload cap, got %d", cfg.Uploads.MaxBytes)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("LUGHA_TEST_SECRET", "secret-from-env")

	configPath := writeConfig(t, `
database:
  path: "./test.db"

auth:
  jwt_secret: "${LUGHA_TEST_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Auth.JWTSecret != "secret-from-env" {
		t.Errorf("expected env var expansion, got %q", cfg.Auth.JWTSecret)
	}
}

func TestLoad_MemoryDriverNeedsNoPath(t *testing.T) {
	configPath := writeConfig(t, `
database:
  driver: "memory"

auth:
  jwt_secret: "test-secret"
`)

	if _, err := Load(configPath); err != nil {
		t.Fatalf("Load() failed for memory driver: %v", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing database path",
			content: `
auth:
  jwt_secret: "s"
`,
			wantErr: "database.path",
		},
		{
			name: "missing jwt secret",
			content: `
database:
  path: "./test.db"
`,
			wantErr: "jwt_secret",
		},
		{
			name: "unknown driver",
			content: `
database:
  driver: "postgres"
  path: "./test.db"
auth:
  jwt_secret: "s"
`,
			wantErr: "database.driver",
		},
		{
			name: "unknown ai provider",
			content: `
database:
  path: "./test.db"
auth:
  jwt_secret: "s"
ai:
  providers: ["replicate"]
`,
			wantErr: "unknown ai provider",
		},
		{
			name: "bad duration",
			content: `
database:
  path: "./test.db"
auth:
  jwt_secret: "s"
  session_duration: "one week"
`,
			wantErr: "session_duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)
			_, err := Load(configPath)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
