package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: sarah-memory
databases:
  mysql:
    address: "localhost:3306"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":8000" {
		t.Errorf("expected default server address, got %q", cfg.Server.Address)
	}
	if cfg.Databases.Milvus.CollectionName != "conversational_memories" {
		t.Errorf("expected default collection name, got %q", cfg.Databases.Milvus.CollectionName)
	}
	if cfg.Databases.Milvus.Dimension != 384 {
		t.Errorf("expected default dimension 384, got %d", cfg.Databases.Milvus.Dimension)
	}
	if cfg.Memory.TurnChannel != "conversation_turns" {
		t.Errorf("expected default turn channel, got %q", cfg.Memory.TurnChannel)
	}
	if cfg.Memory.ExtractionTimeout != 30 {
		t.Errorf("expected default extraction timeout 30, got %d", cfg.Memory.ExtractionTimeout)
	}
	if cfg.Memory.ConsumerBackoff != 5 {
		t.Errorf("expected default consumer backoff 5, got %d", cfg.Memory.ConsumerBackoff)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9100"
  rateLimit: 50
databases:
  milvus:
    dimension: 768
memory:
  turnChannel: custom_turns
  maxTextLength: 2048
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":9100" {
		t.Errorf("expected overridden address, got %q", cfg.Server.Address)
	}
	if cfg.Server.RateLimitBurst != 50 {
		t.Errorf("expected burst to default to the rate, got %d", cfg.Server.RateLimitBurst)
	}
	if cfg.Databases.Milvus.Dimension != 768 {
		t.Errorf("expected overridden dimension, got %d", cfg.Databases.Milvus.Dimension)
	}
	if cfg.Memory.TurnChannel != "custom_turns" {
		t.Errorf("expected overridden channel, got %q", cfg.Memory.TurnChannel)
	}
	if cfg.Memory.MaxTextLength != 2048 {
		t.Errorf("expected overridden max text length, got %d", cfg.Memory.MaxTextLength)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}
