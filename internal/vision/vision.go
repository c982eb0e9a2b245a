// Package vision analyzes images through a vision-capable provider.
package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
)

// AnalysisPrompts maps each analysis type to the instruction sent with
// the image. Unknown types fall back to "general".
var AnalysisPrompts = map[string]string{
	"general":   "Describe this image in detail. What do you see?",
	"technical": "Analyze this image from a technical perspective. Identify any code, diagrams, architecture, or technical content and explain it.",
	"chart":     "This image contains a chart or graph. Extract the data, describe the trends, and summarize the key findings.",
	"document":  "This image contains a document or text. Transcribe the text and summarize its contents.",
}

// Request is one image analysis call. Exactly one of URL or Base64Data
// must be set.
type Request struct {
	URL          string `json:"image_url,omitempty"`
	Base64Data   string `json:"image_base64,omitempty"`
	MIMEType     string `json:"mime_type,omitempty"`
	AnalysisType string `json:"analysis_type,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
}

// Result carries the model's description plus call metadata.
type Result struct {
	Analysis     string `json:"analysis"`
	AnalysisType string `json:"analysis_type"`
	Model        string `json:"model"`
	TokensUsed   int    `json:"tokens_used"`
	AnalyzedAt   string `json:"analyzed_at"`
}

// Service fronts a vision-capable provider.
type Service struct {
	vision  provider.VisionCapable
	model   string
	observe *observe.Observer
}

func New(v provider.VisionCapable, model string, o *observe.Observer) *Service {
	return &Service{vision: v, model: model, observe: o}
}

// Available reports whether the configured provider supports vision.
func (s *Service) Available() bool {
	return s.vision != nil
}

// Types lists the supported analysis types.
func (s *Service) Types() []string {
	return []string{"general", "technical", "chart", "document"}
}

// Analyze sends the image and an analysis prompt to the provider. A
// custom Prompt overrides the analysis type preset.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	if s.vision == nil {
		return nil, fmt.Errorf("image analysis is not available with the configured provider")
	}
	if req.URL == "" && req.Base64Data == "" {
		return nil, fmt.Errorf("either image_url or image_base64 is required")
	}
	if req.URL != "" && req.Base64Data != "" {
		return nil, fmt.Errorf("provide image_url or image_base64, not both")
	}

	analysisType := req.AnalysisType
	if _, ok := AnalysisPrompts[analysisType]; !ok {
		analysisType = "general"
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = AnalysisPrompts[analysisType]
	}

	mime := req.MIMEType
	if mime == "" {
		mime = "image/png"
	}

	ctx, span := s.observe.StartSpan(ctx, "vision.Analyze")
	defer span.End()

	resp, err := s.vision.ChatVision(ctx, prompt, provider.ImageInput{
		URL:        req.URL,
		Base64Data: req.Base64Data,
		MIMEType:   mime,
	}, provider.ChatOptions{Model: s.model, Temperature: 0.3, MaxTokens: 1500})
	if err != nil {
		return nil, fmt.Errorf("image analysis failed: %w", err)
	}

	s.observe.Log().Info().
		Str("analysis_type", analysisType).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("image analyzed")

	return &Result{
		Analysis:     resp.Content,
		AnalysisType: analysisType,
		Model:        resp.Model,
		TokensUsed:   resp.Usage.TotalTokens,
		AnalyzedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}
