package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/nexus/internal/agent"
	"github.com/felixgeelhaar/nexus/internal/batch"
	"github.com/felixgeelhaar/nexus/internal/config"
	"github.com/felixgeelhaar/nexus/internal/credential"
	"github.com/felixgeelhaar/nexus/internal/dispatch"
	"github.com/felixgeelhaar/nexus/internal/limits"
	"github.com/felixgeelhaar/nexus/internal/memory"
	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/rag"
	"github.com/felixgeelhaar/nexus/internal/report"
	"github.com/felixgeelhaar/nexus/internal/store"
	"github.com/felixgeelhaar/nexus/internal/tts"
	"github.com/felixgeelhaar/nexus/internal/vision"
	"github.com/felixgeelhaar/nexus/internal/workflow"
)

// platform bundles every running service for the CLI commands.
type platform struct {
	cfg         *config.Config
	store       store.Storage
	observe     *observe.Observer
	provider    provider.Provider
	registry    *agent.Registry
	kb          *rag.KnowledgeBase
	dispatcher  *dispatch.Dispatcher
	runner      *workflow.Runner
	guard       *limits.Guard
	tts         *tts.Service
	vision      *vision.Service
	reports     *report.Service
	transcriber provider.Transcriber
	pool        *batch.Pool
}

func (p *platform) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
	if p.store != nil {
		p.store.Close()
	}
}

func newObserver() *observe.Observer {
	if jsonLog {
		return observe.NewJSON(os.Stdout, verbose)
	}
	return observe.New(os.Stderr, verbose)
}

// buildPlatform assembles the full service graph from configuration.
func buildPlatform() (*platform, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	obs := newObserver()

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	s, err := store.NewSQLiteStore(filepath.Join(cfg.DataDir, "nexus.db"))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	prov, err := buildProvider(cfg, s)
	if err != nil {
		s.Close()
		return nil, err
	}

	policy := limits.DefaultPolicy
	policy.MaxTextLength = cfg.MaxTextLength
	policy.MaxUploadBytes = cfg.MaxUploadBytes
	guard := limits.New(policy)

	kb := rag.NewKnowledgeBase(s, prov, obs)
	reg := agent.NewRegistry(prov, agent.Models{
		CEO:      cfg.CEOModel,
		Fast:     cfg.FastModel,
		Executor: cfg.ExecutorModel,
	})
	d := dispatch.New(reg, kb, memory.New(s), s, guard, obs)

	p := &platform{
		cfg:        cfg,
		store:      s,
		observe:    obs,
		provider:   prov,
		registry:   reg,
		kb:         kb,
		dispatcher: d,
		runner:     workflow.NewRunner(d, obs),
		guard:      guard,
		reports:    report.New(prov, cfg.CEOModel, obs),
		pool:       batch.NewPool(kb, cfg.BatchWorkers, cfg.BatchRate, obs),
	}

	if speaker, ok := speakerOf(prov); ok {
		p.tts = tts.New(speaker, guard, obs)
	}
	if vc, ok := visionOf(prov); ok {
		p.vision = vision.New(vc, cfg.CEOModel, obs)
	}
	if tr, ok := transcriberOf(prov); ok {
		p.transcriber = tr
	}

	return p, nil
}

// buildProvider selects the backend. Missing API keys fall back to the
// encrypted vault before failing, so a key stored with "config set-key"
// is enough to serve.
func buildProvider(cfg *config.Config, s store.Storage) (provider.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		key := cfg.OpenAIAPIKey
		if key == "" {
			key = vaultSecret(s, "openai_api_key")
		}
		if key == "" {
			return nil, fmt.Errorf("%w: set NEXUS_OPENAI_API_KEY or run: nexus config set-key openai_api_key", config.ErrMissingAPIKey)
		}
		inner, err := provider.NewOpenAIProvider(key, cfg.OpenAIBase, cfg.ExecutorModel, cfg.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		return provider.NewReliable(inner, cfg.FastModel), nil
	case config.ProviderOllama:
		inner, err := provider.NewOllamaProvider(cfg.OllamaHost, cfg.ExecutorModel)
		if err != nil {
			return nil, err
		}
		return provider.NewReliable(inner, cfg.FastModel), nil
	case config.ProviderGemini:
		key := cfg.GeminiAPIKey
		if key == "" {
			key = vaultSecret(s, "gemini_api_key")
		}
		if key == "" {
			return nil, fmt.Errorf("%w: set NEXUS_GEMINI_API_KEY or run: nexus config set-key gemini_api_key", config.ErrMissingAPIKey)
		}
		inner, err := provider.NewGeminiProvider(key, cfg.ExecutorModel)
		if err != nil {
			return nil, err
		}
		return provider.NewReliable(inner, cfg.FastModel), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func vaultSecret(s store.Storage, key string) string {
	vault, err := credential.NewVault(s)
	if err != nil {
		return ""
	}
	secret, err := vault.LoadSecret(key)
	if err != nil {
		return ""
	}
	return secret
}

// speakerOf unwraps resilience layers looking for speech support.
func speakerOf(p provider.Provider) (provider.Speaker, bool) {
	if sp, ok := p.(provider.Speaker); ok {
		return sp, true
	}
	if u, ok := p.(interface{ Unwrap() provider.Provider }); ok {
		return speakerOf(u.Unwrap())
	}
	return nil, false
}

func visionOf(p provider.Provider) (provider.VisionCapable, bool) {
	if vc, ok := p.(provider.VisionCapable); ok {
		return vc, true
	}
	if u, ok := p.(interface{ Unwrap() provider.Provider }); ok {
		return visionOf(u.Unwrap())
	}
	return nil, false
}

func transcriberOf(p provider.Provider) (provider.Transcriber, bool) {
	if tr, ok := p.(provider.Transcriber); ok {
		return tr, true
	}
	if u, ok := p.(interface{ Unwrap() provider.Provider }); ok {
		return transcriberOf(u.Unwrap())
	}
	return nil, false
}
