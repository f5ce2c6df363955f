package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Errorf("expected llama-3.3-70b-versatile, got %s", cfg.LLM.Model)
	}
	if cfg.Store.Collection != "byelaws" {
		t.Errorf("expected collection byelaws, got %s", cfg.Store.Collection)
	}
	if cfg.Store.Backend != "bolt" {
		t.Errorf("expected bolt backend, got %s", cfg.Store.Backend)
	}
	if cfg.Document.Path != "byelaws.pdf" {
		t.Errorf("expected byelaws.pdf, got %s", cfg.Document.Path)
	}
	if cfg.LLM.APIKeyEnv != "GROQ_API_KEY" {
		t.Errorf("expected GROQ_API_KEY, got %s", cfg.LLM.APIKeyEnv)
	}
	if cfg.Server.Addr != ":5000" || cfg.Server.RateLimit != 0 {
		t.Errorf("expected :5000 without rate limit, got %s %v", cfg.Server.Addr, cfg.Server.RateLimit)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "byelaws.yaml")

	content := `
document:
  path: docs/society.pdf
  extractor: pdftotext
store:
  backend: sqlite
embedding:
  provider: mock
  dimension: 64
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Document.Path != "docs/society.pdf" {
		t.Errorf("expected docs/society.pdf, got %s", cfg.Document.Path)
	}
	if cfg.Document.Extractor != "pdftotext" {
		t.Errorf("expected pdftotext, got %s", cfg.Document.Extractor)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.Store.Backend)
	}
	if cfg.Embedding.Dimension != 64 {
		t.Errorf("expected Dimension=64, got %d", cfg.Embedding.Dimension)
	}
	// Unset fields keep their defaults.
	if cfg.Store.Collection != "byelaws" {
		t.Errorf("expected default collection, got %s", cfg.Store.Collection)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "byelaws.yaml")
	if err := os.WriteFile(configPath, []byte("store: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".byelaws"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".byelaws", "config.yaml")

	content := `
server:
  addr: ":8081"
  rate_limit: 2.5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8081" {
		t.Errorf("expected :8081, got %s", cfg.Server.Addr)
	}
	if cfg.Server.RateLimit != 2.5 {
		t.Errorf("expected rate limit 2.5, got %v", cfg.Server.RateLimit)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "byelaws.yaml")
	cfg := DefaultConfig()
	cfg.LLM.Model = "other-model"

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.LLM.Model != "other-model" {
		t.Errorf("expected other-model, got %s", loaded.LLM.Model)
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.StorePath("/home/user/society")
	expected := filepath.Join("/home/user/society", ".byelaws", "index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Store.Path = "/var/lib/byelaws/index.db"
	if got := cfg.StorePath("/ignored"); got != "/var/lib/byelaws/index.db" {
		t.Errorf("expected absolute path to be kept, got %s", got)
	}
}

func TestTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embedding.TimeoutSecs = 0
	if cfg.Embedding.Timeout() != 60*time.Second {
		t.Errorf("expected 60s fallback, got %s", cfg.Embedding.Timeout())
	}
	cfg.LLM.TimeoutSecs = 5
	if cfg.LLM.Timeout() != 5*time.Second {
		t.Errorf("expected 5s, got %s", cfg.LLM.Timeout())
	}
}
