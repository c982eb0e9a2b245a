// Package workflow chains agents into sequential pipelines. Each step's
// output is fed into the next step's context.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/nexus/internal/dispatch"
	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/triage"
)

// Step names an agent and the query it receives.
type Step struct {
	AgentType string `json:"agent_type" yaml:"agent_type"`
	Query     string `json:"query" yaml:"query"`
}

// Definition is an ordered agent pipeline.
type Definition struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// ValidationResult reports lint findings for a definition.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Step      int     `json:"step"`
	AgentType string  `json:"agent_type"`
	AgentName string  `json:"agent_name"`
	Result    string  `json:"result"`
	Success   bool    `json:"success"`
	Error     string  `json:"error,omitempty"`
	Duration  float64 `json:"duration_seconds"`
}

// RunResult is the outcome of a full pipeline run.
type RunResult struct {
	Name        string       `json:"name,omitempty"`
	Steps       []StepResult `json:"steps"`
	FinalResult string       `json:"final_result"`
	Success     bool         `json:"success"`
	Duration    float64      `json:"duration_seconds"`
}

// Load reads a definition from a JSON or YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var def Definition
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON workflow: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML workflow: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported workflow format: %s (use .json or .yaml)", ext)
	}

	return &def, nil
}

// Validate checks a definition for completeness.
func Validate(def Definition) ValidationResult {
	res := ValidationResult{
		Valid:    true,
		Warnings: []string{},
		Errors:   []string{},
	}

	if len(def.Steps) == 0 {
		res.Valid = false
		res.Errors = append(res.Errors, "workflow must have at least one step")
	}
	if len(def.Steps) > 10 {
		res.Warnings = append(res.Warnings, "workflows with more than 10 steps are slow and expensive")
	}

	for i, s := range def.Steps {
		if s.Query == "" {
			res.Valid = false
			res.Errors = append(res.Errors, fmt.Sprintf("step %d has no query", i+1))
		}
		if s.AgentType == "" {
			res.Valid = false
			res.Errors = append(res.Errors, fmt.Sprintf("step %d has no agent_type", i+1))
			continue
		}
		if s.AgentType != "auto" && !triage.AgentType(s.AgentType).Valid() {
			res.Valid = false
			res.Errors = append(res.Errors, fmt.Sprintf("step %d has unknown agent_type %q", i+1, s.AgentType))
		}
	}

	return res
}

// Runner executes definitions through the dispatcher.
type Runner struct {
	dispatcher *dispatch.Dispatcher
	observe    *observe.Observer
}

func NewRunner(d *dispatch.Dispatcher, o *observe.Observer) *Runner {
	return &Runner{dispatcher: d, observe: o}
}

// Run executes the steps in order. Each step sees the previous step's
// output under the previous_result context key. The pipeline stops at
// the first failing step.
func (r *Runner) Run(ctx context.Context, def Definition) (*RunResult, error) {
	if v := Validate(def); !v.Valid {
		return nil, fmt.Errorf("invalid workflow: %s", strings.Join(v.Errors, "; "))
	}

	ctx, span := r.observe.StartSpan(ctx, "workflow.Run")
	defer span.End()

	start := time.Now()
	out := &RunResult{Name: def.Name, Success: true}

	var previous string
	for i, step := range def.Steps {
		stepCtx := map[string]string{}
		if previous != "" {
			stepCtx["previous_result"] = previous
		}

		res := r.dispatcher.Process(ctx, step.Query, step.AgentType, stepCtx)
		out.Steps = append(out.Steps, StepResult{
			Step:      i + 1,
			AgentType: step.AgentType,
			AgentName: res.AgentName,
			Result:    res.Result,
			Success:   res.Success,
			Error:     res.Error,
			Duration:  res.ExecutionTime,
		})

		if !res.Success {
			out.Success = false
			r.observe.Log().Warn().
				Int("step", i+1).
				Str("agent_type", step.AgentType).
				Str("error", res.Error).
				Msg("workflow step failed")
			break
		}

		previous = res.Result
		out.FinalResult = res.Result
	}

	out.Duration = time.Since(start).Seconds()
	return out, nil
}
