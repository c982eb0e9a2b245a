// Package dispatch runs the request pipeline: triage, knowledge retrieval,
// agent execution, memory write, task record.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/nexus/internal/agent"
	"github.com/felixgeelhaar/nexus/internal/limits"
	"github.com/felixgeelhaar/nexus/internal/memory"
	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/rag"
	"github.com/felixgeelhaar/nexus/internal/store"
	"github.com/felixgeelhaar/nexus/internal/triage"
)

// Result is the response envelope for one dispatched request.
type Result struct {
	TaskID        string            `json:"task_id"`
	AgentName     string            `json:"agent_name"`
	Result        string            `json:"result"`
	Success       bool              `json:"success"`
	ExecutionTime float64           `json:"execution_time"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Error         string            `json:"error,omitempty"`

	// Rejected marks failures caused by the request itself, such as an
	// unknown agent type or a policy violation, so callers can report a
	// client error instead of a server error.
	Rejected bool `json:"-"`
}

// Dispatcher wires the agent registry to retrieval, memory and persistence.
type Dispatcher struct {
	registry *agent.Registry
	kb       *rag.KnowledgeBase
	recaller *memory.Recaller
	store    store.Storage
	guard    *limits.Guard
	observe  *observe.Observer
}

func New(reg *agent.Registry, kb *rag.KnowledgeBase, rec *memory.Recaller, s store.Storage, g *limits.Guard, o *observe.Observer) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		kb:       kb,
		recaller: rec,
		store:    s,
		guard:    g,
		observe:  o,
	}
}

// Process handles one request end to end. agentType "auto" (or empty) routes
// through triage; any other value must name a known agent. Failures are
// reported in the envelope, never as a panic or bare error to the caller.
func (d *Dispatcher) Process(ctx context.Context, query, agentType string, reqCtx map[string]string) Result {
	ctx, span := d.observe.StartSpan(ctx, "dispatch.Process")
	defer span.End()

	start := time.Now()

	var task triage.Task
	if agentType == "" || agentType == "auto" {
		task = triage.Analyze(query, reqCtx)
	} else {
		at := triage.AgentType(agentType)
		if !at.Valid() {
			return d.reject(start, fmt.Sprintf("unknown agent type: %s", agentType))
		}
		task = triage.Task{
			ID:         "task-" + uuid.New().String(),
			Content:    query,
			AgentType:  at,
			Complexity: triage.ComplexityMedium,
			Context:    reqCtx,
			Priority:   1,
			CreatedAt:  time.Now(),
		}
	}

	if v := d.guard.CheckTokenBudget(query); v != nil {
		return d.reject(start, v.Error())
	}

	ag, err := d.registry.Get(task.AgentType)
	if err != nil {
		return d.failure(start, err.Error())
	}

	log := d.observe.Log().With().Str("task", task.ID).Str("agent", string(task.AgentType)).Logger()
	log.Info().Str("complexity", string(task.Complexity)).Msg("dispatching task")

	// Caller-supplied context reaches the agent verbatim, ahead of
	// anything retrieved.
	var extraContext string
	if len(reqCtx) > 0 {
		keys := make([]string, 0, len(reqCtx))
		for k := range reqCtx {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		for _, k := range keys {
			sb.WriteString(k + ": " + reqCtx[k] + "\n")
		}
		extraContext = sb.String()
	}

	// Retrieve knowledge base context for agents with a specialization.
	var sources []string
	if d.kb != nil {
		if ec, err := d.kb.Enhance(ctx, string(task.AgentType), query, 3); err == nil && !ec.Empty() {
			if extraContext != "" {
				extraContext += "\n"
			}
			extraContext += ec.Render()
			sources = ec.Sources
			log.Info().Int("sources", len(sources)).Msg("knowledge context attached")
		}
	}

	// Recall related past work for the same agent.
	if d.recaller != nil {
		if past, err := d.recaller.Recall(ctx, query, ag.Name(), "", 3); err == nil && len(past) > 0 {
			var sb strings.Builder
			sb.WriteString("Relevant past experiences:\n")
			for _, m := range past {
				sb.WriteString("- " + m.Content + "\n")
			}
			if extraContext != "" {
				extraContext += "\n"
			}
			extraContext += sb.String()
		}
	}

	output, err := ag.Run(ctx, query, extraContext)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Msg("agent execution failed")
		res := d.failure(start, err.Error())
		d.record(task, ag.Name(), "", false, err.Error(), elapsed)
		return res
	}

	log.Info().Int("result_len", len(output)).Msg("task completed")

	d.record(task, ag.Name(), output, true, "", elapsed)
	d.remember(ctx, task, ag.Name(), output)

	meta := map[string]string{
		"agent_type": string(task.AgentType),
		"complexity": string(task.Complexity),
	}
	if len(sources) > 0 {
		meta["rag_sources"] = strings.Join(sources, ",")
	}

	return Result{
		TaskID:        task.ID,
		AgentName:     ag.Name(),
		Result:        output,
		Success:       true,
		ExecutionTime: elapsed.Seconds(),
		Metadata:      meta,
	}
}

// Status reports platform health: agent inventory, integrations, memory size.
func (d *Dispatcher) Status() map[string]any {
	details := make(map[string]any)
	for at, ag := range d.registry.All() {
		details[string(at)] = map[string]any{
			"name":   ag.Name(),
			"model":  ag.Model(),
			"status": "ready",
			"stats":  ag.Stats(),
		}
	}

	memoryCount := 0
	if d.recaller != nil {
		memoryCount = d.recaller.Count()
	}

	return map[string]any{
		"system_status": "operational",
		"total_agents":  d.registry.Len(),
		"agent_details": details,
		"integrations": map[string]bool{
			"rag_system": d.kb != nil,
			"memory":     d.recaller != nil,
		},
		"memory_usage": memoryCount,
	}
}

func (d *Dispatcher) reject(start time.Time, msg string) Result {
	res := d.failure(start, msg)
	res.Rejected = true
	return res
}

func (d *Dispatcher) failure(start time.Time, msg string) Result {
	return Result{
		TaskID:        "error-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		AgentName:     "System",
		Success:       false,
		ExecutionTime: time.Since(start).Seconds(),
		Error:         msg,
	}
}

func (d *Dispatcher) record(task triage.Task, agentName, result string, success bool, errMsg string, elapsed time.Duration) {
	if d.store == nil {
		return
	}
	rec := &store.TaskRecord{
		ID:            task.ID,
		Query:         task.Content,
		AgentType:     string(task.AgentType),
		AgentName:     agentName,
		Result:        result,
		Success:       success,
		Error:         errMsg,
		Complexity:    string(task.Complexity),
		ExecutionTime: elapsed,
	}
	if err := d.store.RecordTask(rec); err != nil {
		d.observe.Log().Warn().Str("task", task.ID).Err(err).Msg("failed to record task")
	}
}

func (d *Dispatcher) remember(ctx context.Context, task triage.Task, agentName, output string) {
	if d.recaller == nil {
		return
	}
	summary := task.Content
	if len(output) > 0 {
		trimmed := output
		if len(trimmed) > 500 {
			trimmed = trimmed[:500]
		}
		summary = task.Content + " -> " + trimmed
	}
	if _, err := d.recaller.Remember(ctx, summary, agentName, "task_result", map[string]string{"task_id": task.ID}); err != nil {
		d.observe.Log().Warn().Str("task", task.ID).Err(err).Msg("failed to store memory")
	}
}
