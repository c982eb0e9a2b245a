// Package agent defines the specialized agent profiles. Every profile is a
// canned system prompt plus model and sampling settings; behavior differences
// between agents live entirely in those values.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/triage"
)

// Profile is the static definition of an agent.
type Profile struct {
	Type         triage.AgentType
	Name         string
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

// Stats tracks an agent's execution history.
type Stats struct {
	Name                 string  `json:"name"`
	Model                string  `json:"model"`
	TotalExecutions      int     `json:"total_executions"`
	SuccessfulExecutions int     `json:"successful_executions"`
	SuccessRate          float64 `json:"success_rate"`
	UptimeSeconds        float64 `json:"uptime_seconds"`
}

// Agent binds a profile to a provider.
type Agent struct {
	profile  Profile
	provider provider.Provider

	mu         sync.Mutex
	total      int
	successful int
	createdAt  time.Time
}

func New(p Profile, prov provider.Provider) *Agent {
	return &Agent{
		profile:   p,
		provider:  prov,
		createdAt: time.Now(),
	}
}

func (a *Agent) Name() string {
	return a.profile.Name
}

func (a *Agent) Type() triage.AgentType {
	return a.profile.Type
}

func (a *Agent) Model() string {
	return a.profile.Model
}

// Run sends the query through the agent's prompt and returns the model's
// answer. Extra context (e.g. retrieved knowledge) is prepended to the user
// message when present.
func (a *Agent) Run(ctx context.Context, query string, extraContext string) (string, error) {
	a.mu.Lock()
	a.total++
	a.mu.Unlock()

	userContent := query
	if extraContext != "" {
		userContent = extraContext + "\n\n" + query
	}

	resp, err := a.provider.Chat(ctx, []provider.Message{
		{Role: "system", Content: a.profile.SystemPrompt},
		{Role: "user", Content: userContent},
	}, provider.ChatOptions{
		Model:       a.profile.Model,
		Temperature: a.profile.Temperature,
		MaxTokens:   a.profile.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("agent %s failed: %w", a.profile.Name, err)
	}

	a.mu.Lock()
	a.successful++
	a.mu.Unlock()

	return resp.Content, nil
}

// Stats returns a snapshot of the agent's execution history.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	rate := 0.0
	if a.total > 0 {
		rate = float64(a.successful) / float64(a.total) * 100
	}
	return Stats{
		Name:                 a.profile.Name,
		Model:                a.profile.Model,
		TotalExecutions:      a.total,
		SuccessfulExecutions: a.successful,
		SuccessRate:          rate,
		UptimeSeconds:        time.Since(a.createdAt).Seconds(),
	}
}
