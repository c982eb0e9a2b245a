package report

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
)

func newTestService(p provider.Provider) *Service {
	return New(p, "gpt-4", observe.New(io.Discard, false))
}

func TestService_Generate(t *testing.T) {
	t.Run("analysis report with metadata", func(t *testing.T) {
		stub := provider.NewStubProvider(provider.Response{
			Content: `{"summary": "sales dipped in Q2", "findings": ["June was the low point"]}`,
		})
		svc := newTestService(stub)

		out, err := svc.Generate(context.Background(), Request{
			Data:       map[string]any{"q1": 120, "q2": 80},
			ReportType: "analysis",
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if out["summary"] != "sales dipped in Q2" {
			t.Errorf("summary = %v", out["summary"])
		}
		meta := out["_metadata"].(map[string]any)
		if meta["report_type"] != "analysis" {
			t.Errorf("report_type = %v", meta["report_type"])
		}
	})

	t.Run("unknown type falls back to analysis", func(t *testing.T) {
		stub := provider.NewStubProvider(provider.Response{Content: `{"summary": "x", "findings": []}`})
		svc := newTestService(stub)

		out, err := svc.Generate(context.Background(), Request{
			Data:       map[string]any{"k": "v"},
			ReportType: "astrology",
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		meta := out["_metadata"].(map[string]any)
		if meta["report_type"] != "analysis" {
			t.Errorf("report_type = %v, want analysis", meta["report_type"])
		}
	})

	t.Run("data reaches the prompt", func(t *testing.T) {
		stub := provider.NewStubProvider(provider.Response{Content: `{"summary": "x", "findings": []}`})
		svc := newTestService(stub)

		_, err := svc.Generate(context.Background(), Request{
			Data:       map[string]any{"region": "emea"},
			ReportType: "business",
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		calls := stub.ChatCalls()
		if len(calls) != 1 || !strings.Contains(calls[0], "emea") {
			t.Errorf("data missing from prompt: %v", calls)
		}
	})

	t.Run("custom schema overrides preset", func(t *testing.T) {
		stub := provider.NewStubProvider(provider.Response{Content: `{"mood": "calm"}`})
		svc := newTestService(stub)

		out, err := svc.Generate(context.Background(), Request{
			Data:   map[string]any{"k": "v"},
			Schema: json.RawMessage(`{"type": "object", "properties": {"mood": {"type": "string"}}}`),
		})
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if out["mood"] != "calm" {
			t.Errorf("mood = %v", out["mood"])
		}
	})

	t.Run("invalid custom schema", func(t *testing.T) {
		svc := newTestService(provider.NewStubProvider())

		_, err := svc.Generate(context.Background(), Request{
			Data:   map[string]any{"k": "v"},
			Schema: json.RawMessage(`{not json`),
		})
		if err == nil || !strings.Contains(err.Error(), "schema") {
			t.Fatalf("err = %v, want schema error", err)
		}
	})

	t.Run("empty data", func(t *testing.T) {
		svc := newTestService(provider.NewStubProvider())

		if _, err := svc.Generate(context.Background(), Request{}); err == nil {
			t.Fatal("expected error for empty data")
		}
	})

	t.Run("non-JSON model reply", func(t *testing.T) {
		stub := provider.NewStubProvider(provider.Response{Content: "here is your report"})
		svc := newTestService(stub)

		_, err := svc.Generate(context.Background(), Request{Data: map[string]any{"k": "v"}})
		if err == nil || !strings.Contains(err.Error(), "invalid report JSON") {
			t.Fatalf("err = %v, want invalid JSON error", err)
		}
	})
}

func TestAvailableTypes(t *testing.T) {
	types := AvailableTypes()
	want := []string{"analysis", "business", "technical"}
	if len(types) != len(want) {
		t.Fatalf("types = %v", types)
	}
	for i, w := range want {
		if types[i] != w {
			t.Errorf("types[%d] = %q, want %q", i, types[i], w)
		}
	}
}
