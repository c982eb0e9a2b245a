package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/nexus/internal/store"
)

func newRecaller(t *testing.T) *Recaller {
	t.Helper()
	tmpDir, _ := os.MkdirTemp("", "memory-test-*")
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := store.NewSQLiteStore(filepath.Join(tmpDir, "nexus.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("The database query was slow because the database index was missing")

	if len(kws) == 0 {
		t.Fatal("Expected keywords")
	}
	// "database" appears twice, so it should rank first.
	if kws[0] != "database" {
		t.Errorf("Expected 'database' first by frequency, got %v", kws)
	}
	for _, kw := range kws {
		if kw == "the" || kw == "was" {
			t.Errorf("Stop word %q leaked into keywords", kw)
		}
	}
}

func TestExtractKeywordsShortWordsDropped(t *testing.T) {
	kws := ExtractKeywords("go is ok")
	for _, kw := range kws {
		if len(kw) <= 2 {
			t.Errorf("Short word %q should have been dropped", kw)
		}
	}
}

func TestRememberAndRecall(t *testing.T) {
	r := newRecaller(t)
	ctx := context.Background()

	entries := []struct {
		content   string
		agent     string
		entryType string
	}{
		{"Fixed a slow database query by adding an index on user_id", "Code Repair", "task_result"},
		{"Generated unit tests for the payment service", "Test Generator", "task_result"},
		{"Discussed caching strategies for the API layer", "Performance Analyst", "conversation"},
	}
	for _, e := range entries {
		if _, err := r.Remember(ctx, e.content, e.agent, e.entryType, nil); err != nil {
			t.Fatalf("Remember failed: %v", err)
		}
	}

	got, err := r.Recall(ctx, "database query is slow", "", "", 3)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(got))
	}
	if got[0].AgentName != "Code Repair" {
		t.Errorf("Expected database memory to rank first, got %q (%f)", got[0].Content, got[0].Relevance)
	}
	if got[0].Relevance <= got[1].Relevance {
		t.Errorf("Expected descending relevance, got %f <= %f", got[0].Relevance, got[1].Relevance)
	}
}

func TestRecallFilters(t *testing.T) {
	r := newRecaller(t)
	ctx := context.Background()

	r.Remember(ctx, "analyzed image composition", "Image Agent", "task_result", nil)
	r.Remember(ctx, "transcribed meeting audio", "Audio Agent", "task_result", nil)

	got, err := r.Recall(ctx, "audio", "Audio Agent", "", 5)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected agent filter to apply, got %d results", len(got))
	}
	if got[0].AgentName != "Audio Agent" {
		t.Errorf("Wrong agent: %s", got[0].AgentName)
	}
}

func TestRecallEmptyStore(t *testing.T) {
	r := newRecaller(t)

	got, err := r.Recall(context.Background(), "anything", "", "", 5)
	if err != nil {
		t.Fatalf("Recall on empty store should not error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no results, got %d", len(got))
	}
}

func TestRememberEmptyContent(t *testing.T) {
	r := newRecaller(t)
	if _, err := r.Remember(context.Background(), "", "Agent", "knowledge", nil); err == nil {
		t.Fatal("Expected error for empty content")
	}
}

func TestJaccard(t *testing.T) {
	if got := jaccard([]string{"a", "b"}, []string{"a", "b"}); got != 1.0 {
		t.Errorf("Identical sets: expected 1.0, got %f", got)
	}
	if got := jaccard([]string{"a"}, []string{"b"}); got != 0.0 {
		t.Errorf("Disjoint sets: expected 0.0, got %f", got)
	}
	if got := jaccard(nil, []string{"a"}); got != 0.0 {
		t.Errorf("Empty set: expected 0.0, got %f", got)
	}
}

func TestTFIDFCosine(t *testing.T) {
	same := tfidfCosine("hello world", "hello world")
	if same < 0.999 {
		t.Errorf("Identical texts: expected ~1.0, got %f", same)
	}
	disjoint := tfidfCosine("hello world", "goodbye moon")
	if disjoint != 0.0 {
		t.Errorf("Disjoint texts: expected 0.0, got %f", disjoint)
	}
	if got := tfidfCosine("", ""); got != 0.0 {
		t.Errorf("Empty texts: expected 0.0, got %f", got)
	}
}
