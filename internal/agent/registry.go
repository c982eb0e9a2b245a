package agent

import (
	"fmt"

	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/triage"
)

// Models selects which model each agent tier uses.
type Models struct {
	CEO      string // strategic and analytical agents
	Fast     string // triage and lightweight agents
	Executor string // default task execution
}

// DefaultModels mirrors the platform defaults.
var DefaultModels = Models{
	CEO:      "gpt-4",
	Fast:     "gpt-3.5-turbo",
	Executor: "gpt-3.5-turbo",
}

// Registry holds the twelve agent profiles bound to a provider.
type Registry struct {
	agents map[triage.AgentType]*Agent
}

// NewRegistry constructs every agent profile against the given provider.
func NewRegistry(prov provider.Provider, models Models) *Registry {
	if models.CEO == "" {
		models.CEO = DefaultModels.CEO
	}
	if models.Fast == "" {
		models.Fast = DefaultModels.Fast
	}
	if models.Executor == "" {
		models.Executor = DefaultModels.Executor
	}

	profiles := []Profile{
		{
			Type:  triage.AgentCEO,
			Name:  "Chief Executive Officer",
			Model: models.CEO,
			SystemPrompt: `You are the Chief Executive Officer agent, responsible for:
- High-level strategic planning and decision-making
- Complex problem solving and coordination
- Multi-faceted project management
- Resource allocation and optimization
- Executive-level analysis and recommendations
- Coordinating between different specialized agents
Provide comprehensive, strategic solutions with clear action plans.`,
			Temperature: 0.7,
			MaxTokens:   2000,
		},
		{
			Type:         triage.AgentExecutor,
			Name:         "Executor",
			Model:        models.Executor,
			SystemPrompt: `You are an expert executor agent. Execute tasks efficiently and accurately with comprehensive solutions.`,
			Temperature:  0.7,
			MaxTokens:    2000,
		},
		{
			Type:  triage.AgentTriage,
			Name:  "Triage Specialist",
			Model: models.Fast,
			SystemPrompt: `You are a triage specialist responsible for:
- Analyzing incoming requests and determining urgency
- Routing tasks to the most appropriate specialist
- Breaking down complex problems into manageable components
- Providing initial assessment and recommendations
- Coordinating multi-agent workflows
Provide clear analysis and routing recommendations.`,
			Temperature: 0.3,
			MaxTokens:   1000,
		},
		{
			Type:         triage.AgentResearch,
			Name:         "Research Analyst",
			Model:        models.CEO,
			SystemPrompt: `You are an expert research analyst. Investigate the topic thoroughly, compare approaches, cite trade-offs, and summarize findings with clear recommendations.`,
			Temperature:  0.7,
			MaxTokens:    2000,
		},
		{
			Type:  triage.AgentPerformance,
			Name:  "Performance Analyst",
			Model: models.CEO,
			SystemPrompt: `You are an expert performance profiler. Analyze the code for:
1. Time complexity analysis
2. Space complexity analysis
3. Performance bottlenecks identification
4. Memory usage optimization opportunities
5. Algorithm efficiency improvements
6. Platform-specific optimizations
7. Caching opportunities
8. Parallelization possibilities

Provide specific, actionable optimization recommendations with code examples.`,
			Temperature: 0.3,
			MaxTokens:   2000,
		},
		{
			Type:         triage.AgentCoaching,
			Name:         "AI Coach",
			Model:        models.CEO,
			SystemPrompt: `You are an experienced engineering coach. Guide the user step by step, explain the reasoning behind each suggestion, and encourage good habits over quick fixes.`,
			Temperature:  0.7,
			MaxTokens:    2000,
		},
		{
			Type:  triage.AgentTestGenerator,
			Name:  "Test Generator",
			Model: models.CEO,
			SystemPrompt: `You are an expert test generation agent. Create comprehensive tests including:
1. Unit tests for individual functions/methods
2. Integration tests for component interactions
3. Edge case testing
4. Error condition testing
5. Performance testing scenarios
6. Mock and fixture setups
7. Test data generation
8. Coverage analysis recommendations

Generate complete, runnable test code with proper setup and teardown.`,
			Temperature: 0.5,
			MaxTokens:   2000,
		},
		{
			Type:  triage.AgentCodeAnalyzer,
			Name:  "Code Analyzer",
			Model: models.CEO,
			SystemPrompt: `You are an expert code analyzer. Analyze the provided code and provide:
1. Code quality assessment
2. Potential bugs or issues
3. Performance considerations
4. Best practices recommendations
5. Security vulnerabilities if any
6. Maintainability score (1-10)

Provide your analysis in a structured JSON format.`,
			Temperature: 0.3,
			MaxTokens:   2000,
		},
		{
			Type:  triage.AgentCodeDebugger,
			Name:  "Code Debugger",
			Model: models.CEO,
			SystemPrompt: `You are an expert debugging agent. For the provided code and error:
1. Identify the root cause of the issue
2. Explain why the error occurs
3. Provide step-by-step debugging approach
4. Suggest multiple solution approaches
5. Highlight preventive measures for similar issues

Format your response as structured debugging report.`,
			Temperature: 0.2,
			MaxTokens:   2000,
		},
		{
			Type:  triage.AgentCodeRepair,
			Name:  "Code Repair",
			Model: models.CEO,
			SystemPrompt: `You are an expert code repair agent. For the provided code:
1. Fix all identified issues and bugs
2. Improve code quality and readability
3. Optimize performance where possible
4. Ensure best practices are followed
5. Add necessary comments and documentation
6. Provide the corrected code with explanations

Return both the fixed code and detailed explanation of changes made.`,
			Temperature: 0.3,
			MaxTokens:   2000,
		},
		{
			Type:  triage.AgentImage,
			Name:  "Image Agent",
			Model: models.CEO,
			SystemPrompt: `You are an expert image analysis agent. Help with image processing tasks and visual content analysis.
Provide guidance on image processing techniques, computer vision approaches, and visual analysis.`,
			Temperature: 0.7,
			MaxTokens:   2000,
		},
		{
			Type:  triage.AgentAudio,
			Name:  "Audio Agent",
			Model: models.CEO,
			SystemPrompt: `You are an expert audio processing specialist. You help with:
- Audio analysis and manipulation
- Audio format conversion
- Sound quality improvement
- Audio transcription and processing
- Music and speech analysis
Provide practical solutions and code examples when appropriate.`,
			Temperature: 0.7,
			MaxTokens:   2000,
		},
	}

	agents := make(map[triage.AgentType]*Agent, len(profiles))
	for _, p := range profiles {
		agents[p.Type] = New(p, prov)
	}

	return &Registry{agents: agents}
}

// Get returns the agent for a type.
func (r *Registry) Get(t triage.AgentType) (*Agent, error) {
	a, ok := r.agents[t]
	if !ok {
		return nil, fmt.Errorf("unknown agent type: %s", t)
	}
	return a, nil
}

// All returns every agent keyed by type.
func (r *Registry) All() map[triage.AgentType]*Agent {
	return r.agents
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}
