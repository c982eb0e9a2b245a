package rag

import (
	"context"
	"fmt"
	"strings"
)

// QueryType is a knowledge specialization used to bias retrieval for a
// particular kind of agent work.
type QueryType string

const (
	QueryCodeAnalysis    QueryType = "code_analysis"
	QueryPerformance     QueryType = "performance_optimization"
	QueryDebugging       QueryType = "debugging_patterns"
	QueryBestPractices   QueryType = "best_practices"
	QuerySecurityReview  QueryType = "security_review"
	QueryTestingStrategy QueryType = "testing_strategies"
)

// Specializations maps agent types to the query specializations used to
// enrich their prompts.
var Specializations = map[string][]QueryType{
	"code_analyzer":  {QueryCodeAnalysis, QueryBestPractices},
	"code_debugger":  {QueryDebugging, QueryTestingStrategy},
	"code_repair":    {QueryDebugging, QueryBestPractices},
	"performance":    {QueryPerformance, QueryBestPractices},
	"test_generator": {QueryTestingStrategy, QueryBestPractices},
	"ceo":            {QueryBestPractices, QuerySecurityReview},
	"research":       {QueryBestPractices, QueryCodeAnalysis},
}

var queryPrefixes = map[QueryType]string{
	QueryCodeAnalysis:    "code analysis patterns for",
	QueryPerformance:     "performance optimization techniques for",
	QueryDebugging:       "debugging patterns and common fixes for",
	QueryBestPractices:   "best practices for",
	QuerySecurityReview:  "security considerations for",
	QueryTestingStrategy: "testing strategies for",
}

// Context is retrieved knowledge ready to be prepended to an agent prompt.
type Context struct {
	Order    []QueryType
	Sections map[QueryType][]Result
	Sources  []string
}

// Empty reports whether nothing relevant was found.
func (c *Context) Empty() bool {
	for _, results := range c.Sections {
		if len(results) > 0 {
			return false
		}
	}
	return true
}

// Enhance runs the specialized searches for an agent type and collects the
// results. A failed search for one specialization does not abort the others.
func (kb *KnowledgeBase) Enhance(ctx context.Context, agentType, query string, perType int) (*Context, error) {
	types, ok := Specializations[agentType]
	if !ok {
		types = []QueryType{QueryBestPractices}
	}
	if perType <= 0 {
		perType = 3
	}

	ec := &Context{Sections: make(map[QueryType][]Result)}
	seen := make(map[string]struct{})

	for _, qt := range types {
		specialized := fmt.Sprintf("%s %s", queryPrefixes[qt], query)
		results, err := kb.Search(ctx, specialized, perType)
		if err != nil {
			kb.observe.Log().Warn().Str("query_type", string(qt)).Err(err).Msg("specialized search failed")
			continue
		}
		ec.Order = append(ec.Order, qt)
		ec.Sections[qt] = results
		for _, r := range results {
			if _, dup := seen[r.Source]; !dup {
				seen[r.Source] = struct{}{}
				ec.Sources = append(ec.Sources, r.Source)
			}
		}
	}

	return ec, nil
}

// Render formats retrieved knowledge as a prompt preamble.
func (c *Context) Render() string {
	if c.Empty() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant knowledge from the knowledge base:\n")
	for _, qt := range c.Order {
		results := c.Sections[qt]
		if len(results) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n[%s]\n", qt))
		for _, r := range results {
			sb.WriteString(fmt.Sprintf("- %s (source: %s)\n", strings.TrimSpace(r.Content), r.Source))
		}
	}
	if len(c.Sources) > 0 {
		sb.WriteString("\nSources: " + strings.Join(c.Sources, ", ") + "\n")
	}
	return sb.String()
}
