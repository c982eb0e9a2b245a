package batch

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/rag"
	"github.com/felixgeelhaar/nexus/internal/store"
)

func newTestPool(t *testing.T) (*Pool, *rag.KnowledgeBase) {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "batch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	obs := observe.New(io.Discard, false)
	kb := rag.NewKnowledgeBase(s, provider.NewStubProvider(), obs)

	p := NewPool(kb, 2, 1000, obs)
	t.Cleanup(p.Close)
	return p, kb
}

func waitForDone(t *testing.T, p *Pool, id string) *JobStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, err := p.Status(id)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if st.Status == StatusCompleted || st.Status == StatusFailed {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", id)
	return nil
}

func TestPool_Submit(t *testing.T) {
	t.Run("processes all documents", func(t *testing.T) {
		p, kb := newTestPool(t)

		id, err := p.Submit([]Item{
			{Source: "a.md", Content: "alpha document"},
			{Source: "b.md", Content: "beta document"},
			{Source: "c.md", Content: "gamma document"},
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		st := waitForDone(t, p, id)
		if st.Status != StatusCompleted {
			t.Fatalf("status = %s, want completed", st.Status)
		}
		if st.Succeeded != 3 || st.Failed != 0 {
			t.Errorf("succeeded=%d failed=%d, want 3/0", st.Succeeded, st.Failed)
		}

		results, err := p.Results(id)
		if err != nil {
			t.Fatalf("results: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("got %d results, want 3", len(results))
		}
		for _, r := range results {
			if !r.Success || r.DocumentID == "" {
				t.Errorf("item %q: success=%v id=%q", r.Source, r.Success, r.DocumentID)
			}
		}

		status := kb.Status()
		if status.DocumentCount != 3 {
			t.Errorf("knowledge base has %d documents, want 3", status.DocumentCount)
		}
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		p, _ := newTestPool(t)
		if _, err := p.Submit(nil); err == nil {
			t.Fatal("expected error for empty batch")
		}
	})

	t.Run("rejects item without content", func(t *testing.T) {
		p, _ := newTestPool(t)
		if _, err := p.Submit([]Item{{Source: "x.md"}}); err == nil {
			t.Fatal("expected error for missing content")
		}
	})

	t.Run("rejects item without source", func(t *testing.T) {
		p, _ := newTestPool(t)
		if _, err := p.Submit([]Item{{Content: "text"}}); err == nil {
			t.Fatal("expected error for missing source")
		}
	})
}

func TestPool_Status(t *testing.T) {
	p, _ := newTestPool(t)

	if _, err := p.Status("01ARZ3NDEKTSV4RRFFQ69G5FAV"); err == nil {
		t.Fatal("expected error for unknown job")
	}

	id, err := p.Submit([]Item{{Source: "a.md", Content: "alpha"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	st := waitForDone(t, p, id)
	if st.Total != 1 || st.Processed != 1 {
		t.Errorf("total=%d processed=%d, want 1/1", st.Total, st.Processed)
	}
	if st.CompletedAt.IsZero() {
		t.Error("completed_at should be set")
	}
}

func TestPool_Results(t *testing.T) {
	p, _ := newTestPool(t)

	if _, err := p.Results("nope"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}
