package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("defaults with env api key", func(t *testing.T) {
		t.Setenv("NEXUS_OPENAI_API_KEY", "sk-test")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Provider != ProviderOpenAI {
			t.Errorf("provider = %q, want openai", cfg.Provider)
		}
		if cfg.CEOModel != "gpt-4" || cfg.FastModel != "gpt-3.5-turbo" {
			t.Errorf("unexpected model defaults: %+v", cfg)
		}
		if cfg.ListenAddr != ":8082" {
			t.Errorf("listen_addr = %q", cfg.ListenAddr)
		}
		if cfg.MaxTextLength != 4096 {
			t.Errorf("max_text_length = %d", cfg.MaxTextLength)
		}
	})

	t.Run("env overrides defaults", func(t *testing.T) {
		t.Setenv("NEXUS_OPENAI_API_KEY", "sk-test")
		t.Setenv("NEXUS_CEO_MODEL", "gpt-4-turbo")
		t.Setenv("NEXUS_LISTEN_ADDR", ":9999")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.CEOModel != "gpt-4-turbo" {
			t.Errorf("ceo_model = %q, want gpt-4-turbo", cfg.CEOModel)
		}
		if cfg.ListenAddr != ":9999" {
			t.Errorf("listen_addr = %q, want :9999", cfg.ListenAddr)
		}
	})

	t.Run("config file", func(t *testing.T) {
		t.Setenv("NEXUS_OPENAI_API_KEY", "sk-test")

		path := filepath.Join(t.TempDir(), "nexus.yaml")
		content := "executor_model: local-model\nbatch_workers: 4\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.ExecutorModel != "local-model" {
			t.Errorf("executor_model = %q", cfg.ExecutorModel)
		}
		if cfg.BatchWorkers != 4 {
			t.Errorf("batch_workers = %d", cfg.BatchWorkers)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		if _, err := Load("/nonexistent/nexus.yaml"); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("missing api key still loads", func(t *testing.T) {
		// Keys may be resolved from the encrypted vault later, so an
		// empty key is not a load error.
		t.Setenv("NEXUS_OPENAI_API_KEY", "")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.OpenAIAPIKey != "" {
			t.Errorf("openai_api_key = %q, want empty", cfg.OpenAIAPIKey)
		}
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		t.Setenv("NEXUS_PROVIDER", "ollama")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.OllamaHost != "http://localhost:11434" {
			t.Errorf("ollama_host = %q", cfg.OllamaHost)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("NEXUS_PROVIDER", "skynet")

		_, err := Load("")
		if !errors.Is(err, ErrInvalidProvider) {
			t.Fatalf("err = %v, want ErrInvalidProvider", err)
		}
	})
}

func TestValidate(t *testing.T) {
	base := Config{
		Provider:      ProviderOllama,
		OllamaHost:    "http://localhost:11434",
		BatchWorkers:  1,
		BatchRate:     1,
		MaxTextLength: 100,
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	bad := base
	bad.BatchWorkers = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero workers")
	}

	bad = base
	bad.BatchRate = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative rate")
	}
}
