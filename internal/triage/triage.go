// Package triage routes incoming requests to an agent type using keyword
// matching and estimates task complexity from query length.
package triage

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AgentType identifies one of the specialized agent profiles.
type AgentType string

const (
	AgentCEO           AgentType = "ceo"
	AgentExecutor      AgentType = "executor"
	AgentTriage        AgentType = "triage"
	AgentResearch      AgentType = "research"
	AgentPerformance   AgentType = "performance"
	AgentCoaching      AgentType = "coaching"
	AgentTestGenerator AgentType = "test_generator"
	AgentCodeAnalyzer  AgentType = "code_analyzer"
	AgentCodeDebugger  AgentType = "code_debugger"
	AgentCodeRepair    AgentType = "code_repair"
	AgentImage         AgentType = "image"
	AgentAudio         AgentType = "audio"
)

// AllAgentTypes lists every routable agent type.
var AllAgentTypes = []AgentType{
	AgentCEO, AgentExecutor, AgentTriage, AgentResearch, AgentPerformance,
	AgentCoaching, AgentTestGenerator, AgentCodeAnalyzer, AgentCodeDebugger,
	AgentCodeRepair, AgentImage, AgentAudio,
}

// Valid reports whether t names a known agent type.
func (t AgentType) Valid() bool {
	for _, known := range AllAgentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Complexity buckets a task by estimated effort.
type Complexity string

const (
	ComplexityLow      Complexity = "low"
	ComplexityMedium   Complexity = "medium"
	ComplexityHigh     Complexity = "high"
	ComplexityCritical Complexity = "critical"
)

// Task is a triaged request ready for dispatch.
type Task struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	AgentType  AgentType         `json:"agent_type"`
	Complexity Complexity        `json:"complexity"`
	Context    map[string]string `json:"context,omitempty"`
	Priority   int               `json:"priority"`
	CreatedAt  time.Time         `json:"created_at"`
}

// rule maps a keyword to its agent chain. The first chain entry is the
// primary agent; the rest are documented alternatives.
type rule struct {
	keyword string
	agents  []AgentType
}

// Rules are checked in order; the first keyword contained in the query wins.
// "code" outranks "debug", so "debug this code" routes to the analyzer.
var rules = []rule{
	{"code", []AgentType{AgentCodeAnalyzer, AgentCodeDebugger, AgentCodeRepair}},
	{"debug", []AgentType{AgentCodeDebugger, AgentTestGenerator}},
	{"performance", []AgentType{AgentPerformance, AgentCodeAnalyzer}},
	{"research", []AgentType{AgentResearch, AgentCEO}},
	{"image", []AgentType{AgentImage}},
	{"audio", []AgentType{AgentAudio}},
	{"test", []AgentType{AgentTestGenerator}},
	{"coach", []AgentType{AgentCoaching}},
	{"complex", []AgentType{AgentCEO, AgentExecutor}},
}

const (
	highComplexityWords = 50
	lowComplexityWords  = 10
)

// Analyze triages a query into a structured task. Unmatched queries default
// to the executor.
func Analyze(query string, context map[string]string) Task {
	lower := strings.ToLower(query)

	agentType := AgentExecutor
	for _, r := range rules {
		if strings.Contains(lower, r.keyword) {
			agentType = r.agents[0]
			break
		}
	}

	words := len(strings.Fields(query))
	complexity := ComplexityMedium
	switch {
	case words > highComplexityWords || strings.Contains(lower, "complex"):
		complexity = ComplexityHigh
	case words < lowComplexityWords:
		complexity = ComplexityLow
	}

	return Task{
		ID:         "task-" + uuid.New().String(),
		Content:    query,
		AgentType:  agentType,
		Complexity: complexity,
		Context:    context,
		Priority:   1,
		CreatedAt:  time.Now(),
	}
}

// Alternatives returns the fallback agent chain for a keyword-matched type.
func Alternatives(t AgentType) []AgentType {
	for _, r := range rules {
		if r.agents[0] == t && len(r.agents) > 1 {
			return r.agents[1:]
		}
	}
	return nil
}
