// Package batch ingests document sets into the knowledge base through a
// rate-limited background worker pool.
package batch

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/rag"
)

// Status is the lifecycle of a submitted job.
type Status string

const (
	StatusValidating Status = "validating"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Item is one document in a batch submission.
type Item struct {
	Source  string            `json:"source"`
	Content string            `json:"content"`
	Meta    map[string]string `json:"metadata,omitempty"`
}

// ItemResult reports the outcome of a single item.
type ItemResult struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// JobStatus is a point-in-time snapshot of a job.
type JobStatus struct {
	ID          string    `json:"id"`
	Status      Status    `json:"status"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	SubmittedAt time.Time `json:"submitted_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

type job struct {
	id        string
	status    Status
	items     []Item
	results   []ItemResult
	processed int
	succeeded int
	failed    int
	submitted time.Time
	completed time.Time
}

// Pool runs batch ingestion jobs on background workers. Provider calls
// are throttled by a shared rate limiter so large batches cannot starve
// interactive requests.
type Pool struct {
	kb      *rag.KnowledgeBase
	limiter *rate.Limiter
	observe *observe.Observer

	mu   sync.Mutex
	jobs map[string]*job

	queue  chan *job
	cancel context.CancelFunc
	wg     sync.WaitGroup

	entropy *ulid.MonotonicEntropy
}

// NewPool starts workers goroutines draining the job queue. rps bounds
// embedding calls per second across all jobs.
func NewPool(kb *rag.KnowledgeBase, workers int, rps float64, o *observe.Observer) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		kb:      kb,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		observe: o,
		jobs:    make(map[string]*job),
		queue:   make(chan *job, 64),
		cancel:  cancel,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return p
}

// Close stops the workers. Queued jobs that have not started stay in
// validating state.
func (p *Pool) Close() {
	p.cancel()
	p.wg.Wait()
}

// Submit validates the items and enqueues a job, returning its ID.
func (p *Pool) Submit(items []Item) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("batch must contain at least one document")
	}
	for i, it := range items {
		if it.Content == "" {
			return "", fmt.Errorf("document %d has no content", i)
		}
		if it.Source == "" {
			return "", fmt.Errorf("document %d has no source", i)
		}
	}

	p.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
	j := &job{
		id:        id,
		status:    StatusValidating,
		items:     items,
		submitted: time.Now(),
	}
	p.jobs[id] = j
	p.mu.Unlock()

	select {
	case p.queue <- j:
	default:
		p.mu.Lock()
		j.status = StatusFailed
		j.completed = time.Now()
		p.mu.Unlock()
		return "", fmt.Errorf("batch queue is full")
	}

	p.observe.Log().Info().Str("job", id).Int("documents", len(items)).Msg("batch submitted")
	return id, nil
}

// Status returns a snapshot of the job.
func (p *Pool) Status(id string) (*JobStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[id]
	if !ok {
		return nil, fmt.Errorf("unknown batch job: %s", id)
	}
	return &JobStatus{
		ID:          j.id,
		Status:      j.status,
		Total:       len(j.items),
		Processed:   j.processed,
		Succeeded:   j.succeeded,
		Failed:      j.failed,
		SubmittedAt: j.submitted,
		CompletedAt: j.completed,
	}, nil
}

// Results returns per-item outcomes for a finished job.
func (p *Pool) Results(id string) ([]ItemResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[id]
	if !ok {
		return nil, fmt.Errorf("unknown batch job: %s", id)
	}
	if j.status != StatusCompleted && j.status != StatusFailed {
		return nil, fmt.Errorf("batch job %s is still %s", id, j.status)
	}
	out := make([]ItemResult, len(j.results))
	copy(out, j.results)
	return out, nil
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.queue:
			p.run(ctx, j)
		}
	}
}

func (p *Pool) run(ctx context.Context, j *job) {
	p.mu.Lock()
	j.status = StatusInProgress
	p.mu.Unlock()

	for _, it := range j.items {
		if err := p.limiter.Wait(ctx); err != nil {
			p.finish(j, StatusFailed)
			return
		}

		res := ItemResult{Source: it.Source}
		id, err := p.kb.AddDocument(ctx, it.Content, it.Source, it.Meta)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.DocumentID = id
			res.Success = true
		}

		p.mu.Lock()
		j.results = append(j.results, res)
		j.processed++
		if res.Success {
			j.succeeded++
		} else {
			j.failed++
		}
		p.mu.Unlock()
	}

	final := StatusCompleted
	if j.succeeded == 0 {
		final = StatusFailed
	}
	p.finish(j, final)
}

func (p *Pool) finish(j *job, s Status) {
	p.mu.Lock()
	j.status = s
	j.completed = time.Now()
	p.mu.Unlock()
	p.observe.Log().Info().
		Str("job", j.id).
		Str("status", string(s)).
		Int("succeeded", j.succeeded).
		Int("failed", j.failed).
		Msg("batch finished")
}
