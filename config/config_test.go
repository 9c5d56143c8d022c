package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "app:\n  name: scribe\n")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Jobs.Workers != 4 {
		t.Errorf("Jobs.Workers = %d, want 4", cfg.Jobs.Workers)
	}
	if cfg.Jobs.QueueSize != 256 {
		t.Errorf("Jobs.QueueSize = %d, want 256", cfg.Jobs.QueueSize)
	}
	if cfg.Groq.Model != "whisper-large-v3" {
		t.Errorf("Groq.Model = %q, want whisper-large-v3", cfg.Groq.Model)
	}
	if cfg.Groq.Timeout != 10*time.Minute {
		t.Errorf("Groq.Timeout = %v, want 10m", cfg.Groq.Timeout)
	}
	if cfg.Observability.ServiceName != "scribe" {
		t.Errorf("Observability.ServiceName = %q, want scribe", cfg.Observability.ServiceName)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
app:
  name: scribe-test
  environment: test
server:
  port: 9090
jobs:
  workers: 2
  queue_size: 16
  retention: 30m
groq:
  base_url: http://localhost:9999
  timeout: 5s
`
	path := writeFile(t, t.TempDir(), "config.yml", content)

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Jobs.Workers != 2 {
		t.Errorf("Jobs.Workers = %d, want 2", cfg.Jobs.Workers)
	}
	if cfg.Jobs.Retention != 30*time.Minute {
		t.Errorf("Jobs.Retention = %v, want 30m", cfg.Jobs.Retention)
	}
	if cfg.Groq.BaseURL != "http://localhost:9999" {
		t.Errorf("Groq.BaseURL = %q", cfg.Groq.BaseURL)
	}
	if cfg.Groq.Timeout != 5*time.Second {
		t.Errorf("Groq.Timeout = %v, want 5s", cfg.Groq.Timeout)
	}
	// Propagated from app section.
	if cfg.Observability.ServiceName != "scribe-test" {
		t.Errorf("Observability.ServiceName = %q, want scribe-test", cfg.Observability.ServiceName)
	}
	if cfg.Observability.Environment != "test" {
		t.Errorf("Observability.Environment = %q, want test", cfg.Observability.Environment)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "server:\n  port: 9090\n")
	t.Setenv("SCRIBE_SERVER_PORT", "7070")

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want env override 7070", cfg.Server.Port)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "server:\n  port: -1\n")

	if _, err := Load(WithConfigFile(path)); err == nil {
		t.Fatal("Load() with negative port succeeded, want error")
	}
}

func TestValidateGroqBaseURL(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Groq.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with empty groq.base_url succeeded, want error")
	}
}
