package workflow

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/nexus/internal/agent"
	"github.com/felixgeelhaar/nexus/internal/dispatch"
	"github.com/felixgeelhaar/nexus/internal/limits"
	"github.com/felixgeelhaar/nexus/internal/memory"
	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/store"
)

func newTestRunner(t *testing.T, stub *provider.StubProvider) *Runner {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "wf.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	obs := observe.New(io.Discard, false)
	d := dispatch.New(
		agent.NewRegistry(stub, agent.DefaultModels),
		nil,
		memory.New(s),
		s,
		limits.New(limits.DefaultPolicy),
		obs,
	)
	return NewRunner(d, obs)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		def     Definition
		valid   bool
		errPart string
	}{
		{
			name:  "valid pipeline",
			def:   Definition{Steps: []Step{{AgentType: "research", Query: "find options"}, {AgentType: "executor", Query: "summarize"}}},
			valid: true,
		},
		{
			name:  "auto routing allowed",
			def:   Definition{Steps: []Step{{AgentType: "auto", Query: "debug this"}}},
			valid: true,
		},
		{
			name:    "no steps",
			def:     Definition{},
			valid:   false,
			errPart: "at least one step",
		},
		{
			name:    "missing query",
			def:     Definition{Steps: []Step{{AgentType: "executor"}}},
			valid:   false,
			errPart: "no query",
		},
		{
			name:    "unknown agent",
			def:     Definition{Steps: []Step{{AgentType: "wizard", Query: "cast spell"}}},
			valid:   false,
			errPart: "unknown agent_type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.def)
			if res.Valid != tc.valid {
				t.Fatalf("valid = %v, want %v (errors %v)", res.Valid, tc.valid, res.Errors)
			}
			if tc.errPart != "" && !strings.Contains(strings.Join(res.Errors, " "), tc.errPart) {
				t.Errorf("errors %v do not mention %q", res.Errors, tc.errPart)
			}
		})
	}

	t.Run("long pipeline warns", func(t *testing.T) {
		def := Definition{}
		for i := 0; i < 11; i++ {
			def.Steps = append(def.Steps, Step{AgentType: "executor", Query: "step"})
		}
		res := Validate(def)
		if !res.Valid {
			t.Fatalf("long pipeline should still be valid, got %v", res.Errors)
		}
		if len(res.Warnings) == 0 {
			t.Error("expected a length warning")
		}
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "wf.yaml")
		content := "name: review\nsteps:\n  - agent_type: code_analyzer\n    query: analyze the code\n  - agent_type: executor\n    query: summarize findings\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		def, err := Load(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if def.Name != "review" || len(def.Steps) != 2 {
			t.Errorf("unexpected definition %+v", def)
		}
		if def.Steps[0].AgentType != "code_analyzer" {
			t.Errorf("step 1 agent = %q", def.Steps[0].AgentType)
		}
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "wf.json")
		content := `{"steps": [{"agent_type": "research", "query": "look it up"}]}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		def, err := Load(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(def.Steps) != 1 {
			t.Errorf("got %d steps, want 1", len(def.Steps))
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "wf.toml")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatal("expected error for unsupported format")
		}
	})
}

func TestRunner_Run(t *testing.T) {
	t.Run("sequential with chained context", func(t *testing.T) {
		stub := provider.NewStubProvider(
			provider.Response{Content: "step one output"},
			provider.Response{Content: "step two output"},
		)
		r := newTestRunner(t, stub)

		res, err := r.Run(context.Background(), Definition{
			Name: "two-step",
			Steps: []Step{
				{AgentType: "research", Query: "gather facts"},
				{AgentType: "executor", Query: "write summary"},
			},
		})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !res.Success {
			t.Fatalf("expected success: %+v", res)
		}
		if len(res.Steps) != 2 {
			t.Fatalf("got %d steps, want 2", len(res.Steps))
		}
		if res.FinalResult != "step two output" {
			t.Errorf("final result = %q", res.FinalResult)
		}

		// The second call must have seen the first step's output.
		calls := stub.ChatCalls()
		if len(calls) != 2 {
			t.Fatalf("got %d provider calls, want 2", len(calls))
		}
		if !strings.Contains(calls[1], "step one output") {
			t.Errorf("second call missing previous result: %q", calls[1])
		}
	})

	t.Run("stops at failing step", func(t *testing.T) {
		stub := provider.NewStubProvider(provider.Response{Content: "ok"})
		r := newTestRunner(t, stub)
		stub.ChatErr = nil

		failing := provider.NewStubProvider()
		failing.ChatErr = context.DeadlineExceeded
		r2 := newTestRunner(t, failing)

		res, err := r2.Run(context.Background(), Definition{
			Steps: []Step{
				{AgentType: "executor", Query: "first"},
				{AgentType: "executor", Query: "second"},
			},
		})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if res.Success {
			t.Fatal("expected pipeline failure")
		}
		if len(res.Steps) != 1 {
			t.Errorf("got %d steps, want 1 (stop on failure)", len(res.Steps))
		}
		_ = r
	})

	t.Run("invalid definition", func(t *testing.T) {
		r := newTestRunner(t, provider.NewStubProvider())
		if _, err := r.Run(context.Background(), Definition{}); err == nil {
			t.Fatal("expected error for empty workflow")
		}
	})
}
