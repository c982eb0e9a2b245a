// Package report generates schema-constrained JSON reports from raw data.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
)

// Schemas maps each report type to its JSON schema. Unknown types fall
// back to "analysis".
var Schemas = map[string]json.RawMessage{
	"business": json.RawMessage(`{
		"type": "object",
		"properties": {
			"executive_summary": {"type": "string"},
			"key_metrics": {
				"type": "object",
				"properties": {
					"revenue": {"type": "number"},
					"growth_rate": {"type": "number"},
					"market_share": {"type": "number"}
				},
				"required": ["revenue", "growth_rate"]
			},
			"recommendations": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"action": {"type": "string"},
						"priority": {"type": "string"},
						"timeline": {"type": "string"},
						"impact": {"type": "string"}
					},
					"required": ["action", "priority"]
				}
			},
			"risk_assessment": {"type": "string"}
		},
		"required": ["executive_summary", "key_metrics", "recommendations"]
	}`),
	"technical": json.RawMessage(`{
		"type": "object",
		"properties": {
			"overview": {"type": "string"},
			"technical_details": {
				"type": "object",
				"properties": {
					"performance_metrics": {"type": "object"},
					"issues_identified": {"type": "array", "items": {"type": "string"}},
					"recommendations": {"type": "array", "items": {"type": "string"}}
				}
			},
			"action_items": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"task": {"type": "string"},
						"priority": {"type": "string"},
						"assignee": {"type": "string"}
					},
					"required": ["task", "priority"]
				}
			}
		},
		"required": ["overview", "technical_details"]
	}`),
	"analysis": json.RawMessage(`{
		"type": "object",
		"properties": {
			"summary": {"type": "string"},
			"findings": {"type": "array", "items": {"type": "string"}},
			"insights": {"type": "array", "items": {"type": "string"}},
			"next_steps": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["summary", "findings"]
	}`),
}

// AvailableTypes lists the named report types in stable order.
func AvailableTypes() []string {
	types := make([]string, 0, len(Schemas))
	for t := range Schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Request is one report generation call. A custom Schema overrides the
// named report type's preset.
type Request struct {
	Data       map[string]any  `json:"data"`
	ReportType string          `json:"report_type,omitempty"`
	Schema     json.RawMessage `json:"schema,omitempty"`
}

// Service turns raw data into structured reports via a chat provider.
type Service struct {
	chat    provider.Provider
	model   string
	observe *observe.Observer
}

func New(p provider.Provider, model string, o *observe.Observer) *Service {
	return &Service{chat: p, model: model, observe: o}
}

// Generate asks the model for a report matching the schema and parses
// the JSON reply. The schema rides in the prompt as well, so backends
// without structured-output support still produce usable JSON.
func (s *Service) Generate(ctx context.Context, req Request) (map[string]any, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("data is required")
	}

	reportType := req.ReportType
	if _, ok := Schemas[reportType]; !ok {
		reportType = "analysis"
	}
	schema := req.Schema
	if len(schema) == 0 {
		schema = Schemas[reportType]
	} else if !json.Valid(schema) {
		return nil, fmt.Errorf("custom schema is not valid JSON")
	}

	dataJSON, err := json.MarshalIndent(req.Data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report data: %w", err)
	}

	ctx, span := s.observe.StartSpan(ctx, "report.Generate")
	defer span.End()

	resp, err := s.chat.Chat(ctx, []provider.Message{
		{
			Role:    "system",
			Content: fmt.Sprintf("You are a data analyst generating structured %s reports. Respond with a single JSON object matching this schema exactly:\n%s", reportType, schema),
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Create a structured report from this data:\n\n%s\n\nReport type: %s", dataJSON, reportType),
		},
	}, provider.ChatOptions{
		Model:       s.model,
		Temperature: 0.1,
		SchemaName:  reportType + "_report",
		Schema:      schema,
	})
	if err != nil {
		return nil, fmt.Errorf("report generation failed: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(resp.Content), &out); err != nil {
		return nil, fmt.Errorf("model returned invalid report JSON: %w", err)
	}

	s.observe.Log().Info().
		Str("report_type", reportType).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("report generated")

	out["_metadata"] = map[string]any{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"report_type":  reportType,
		"model":        resp.Model,
		"tokens_used":  resp.Usage.TotalTokens,
	}
	return out, nil
}
