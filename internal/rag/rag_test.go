package rag

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/store"
)

func newKB(t *testing.T) *KnowledgeBase {
	t.Helper()
	tmpDir, _ := os.MkdirTemp("", "rag-test-*")
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := store.NewSQLiteStore(filepath.Join(tmpDir, "nexus.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return NewKnowledgeBase(s, provider.NewStubProvider(), observe.New(io.Discard, false))
}

func TestDocumentIDDeterministic(t *testing.T) {
	a := DocumentID("guide.md", "some content")
	b := DocumentID("guide.md", "some content")
	c := DocumentID("guide.md", "other content")

	if a != b {
		t.Error("Same source and content must produce the same ID")
	}
	if a == c {
		t.Error("Different content must produce a different ID")
	}
	if !strings.HasPrefix(a, "guide.md-") {
		t.Errorf("ID should be prefixed by source, got %s", a)
	}
}

func TestAddDocumentIdempotent(t *testing.T) {
	kb := newKB(t)
	ctx := context.Background()

	id1, err := kb.AddDocument(ctx, "profile before optimizing", "perf.md", nil)
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	id2, err := kb.AddDocument(ctx, "profile before optimizing", "perf.md", nil)
	if err != nil {
		t.Fatalf("Second AddDocument failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Expected same ID on re-upload, got %s vs %s", id1, id2)
	}

	if got := kb.Status().DocumentCount; got != 1 {
		t.Errorf("Expected 1 document, got %d", got)
	}
}

func TestAddDocumentEmpty(t *testing.T) {
	kb := newKB(t)
	if _, err := kb.AddDocument(context.Background(), "", "x.md", nil); err == nil {
		t.Fatal("Expected error for empty content")
	}
}

func TestSearchRanksRelevantFirst(t *testing.T) {
	kb := newKB(t)
	ctx := context.Background()

	docs := map[string]string{
		"perf.md":  "profile the hot path before optimizing anything",
		"tests.md": "write table driven tests for every exported function",
		"sec.md":   "validate all user input at the boundary",
	}
	for source, content := range docs {
		if _, err := kb.AddDocument(ctx, content, source, nil); err != nil {
			t.Fatalf("AddDocument(%s) failed: %v", source, err)
		}
	}

	results, err := kb.Search(ctx, "profile the hot path before optimizing anything", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Source != "perf.md" {
		t.Errorf("Expected perf.md first, got %s", results[0].Source)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("Expected descending scores: %f < %f", results[0].Score, results[1].Score)
	}
}

func TestSearchEmptyKB(t *testing.T) {
	kb := newKB(t)

	results, err := kb.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search on empty knowledge base should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestEnhanceUsesSpecializations(t *testing.T) {
	kb := newKB(t)
	ctx := context.Background()

	kb.AddDocument(ctx, "always reproduce the bug with a failing test first", "debugging.md", nil)
	kb.AddDocument(ctx, "prefer small focused functions", "style.md", nil)

	ec, err := kb.Enhance(ctx, "code_debugger", "nil pointer crash in handler", 2)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	if _, ok := ec.Sections[QueryDebugging]; !ok {
		t.Error("Expected debugging_patterns section for code_debugger")
	}
	if _, ok := ec.Sections[QueryTestingStrategy]; !ok {
		t.Error("Expected testing_strategies section for code_debugger")
	}

	rendered := ec.Render()
	if !strings.Contains(rendered, "Relevant knowledge") {
		t.Errorf("Expected preamble in rendered context, got %q", rendered)
	}
	if !strings.Contains(rendered, "Sources:") {
		t.Errorf("Expected sources line, got %q", rendered)
	}
}

func TestEnhanceUnknownAgentFallsBack(t *testing.T) {
	kb := newKB(t)

	ec, err := kb.Enhance(context.Background(), "audio", "transcribe this", 2)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if len(ec.Order) != 1 || ec.Order[0] != QueryBestPractices {
		t.Errorf("Expected best_practices fallback, got %v", ec.Order)
	}
}

func TestContextEmptyRender(t *testing.T) {
	ec := &Context{Sections: map[QueryType][]Result{}}
	if !ec.Empty() {
		t.Error("Expected empty context")
	}
	if ec.Render() != "" {
		t.Error("Empty context should render to empty string")
	}
}
