// Package limits enforces request policy: text and upload sizes, speech
// parameters, file patterns, and per-request token budgets.
package limits

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkoukk/tiktoken-go"
)

// Policy defines the limits applied to incoming requests.
type Policy struct {
	MaxTextLength    int      `json:"max_text_length"`
	MaxUploadBytes   int64    `json:"max_upload_bytes"`
	MaxPromptTokens  int      `json:"max_prompt_tokens"`
	MinSpeechSpeed   float64  `json:"min_speech_speed"`
	MaxSpeechSpeed   float64  `json:"max_speech_speed"`
	AllowedFormats   []string `json:"allowed_formats"`
	AllowedFileGlobs []string `json:"allowed_file_globs"`
}

// Violation represents a specific breach of policy.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// DefaultPolicy provides the platform defaults.
var DefaultPolicy = Policy{
	MaxTextLength:    4096,
	MaxUploadBytes:   16 << 20, // 16MB
	MaxPromptTokens:  8000,
	MinSpeechSpeed:   0.25,
	MaxSpeechSpeed:   4.0,
	AllowedFormats:   []string{"mp3", "opus", "aac", "flac"},
	AllowedFileGlobs: []string{"*.txt", "*.md", "*.pdf", "*.html", "*.json", "*.csv", "*.go", "*.py"},
}

// Guard enforces the policy.
type Guard struct {
	policy  Policy
	encoder *tiktoken.Tiktoken
}

func New(p Policy) *Guard {
	// cl100k_base covers the gpt-4 and gpt-3.5 families. Encoder load can
	// fail offline; token budgets are then skipped rather than fatal.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil
	}
	return &Guard{policy: p, encoder: enc}
}

// Policy returns the guard's current policy configuration.
func (g *Guard) Policy() Policy {
	return g.policy
}

// CheckText verifies text length against the policy.
func (g *Guard) CheckText(text string) *Violation {
	if text == "" {
		return &Violation{Rule: "text", Message: "text cannot be empty"}
	}
	if g.policy.MaxTextLength > 0 && len(text) > g.policy.MaxTextLength {
		return &Violation{
			Rule:    "max_text_length",
			Message: fmt.Sprintf("text exceeds maximum length of %d characters", g.policy.MaxTextLength),
		}
	}
	return nil
}

// CheckSpeech validates speech synthesis parameters. All violations are
// returned, not just the first.
func (g *Guard) CheckSpeech(voice string, speed float64, format string, voices map[string]bool) []Violation {
	var violations []Violation

	if !voices[voice] {
		violations = append(violations, Violation{
			Rule:    "voice",
			Message: fmt.Sprintf("invalid voice %q", voice),
		})
	}

	if speed < g.policy.MinSpeechSpeed || speed > g.policy.MaxSpeechSpeed {
		violations = append(violations, Violation{
			Rule:    "speed",
			Message: fmt.Sprintf("speed must be between %.2f and %.2f", g.policy.MinSpeechSpeed, g.policy.MaxSpeechSpeed),
		})
	}

	formatOK := false
	for _, f := range g.policy.AllowedFormats {
		if f == format {
			formatOK = true
			break
		}
	}
	if !formatOK {
		violations = append(violations, Violation{
			Rule:    "format",
			Message: fmt.Sprintf("invalid format %q, allowed: %v", format, g.policy.AllowedFormats),
		})
	}

	return violations
}

// CheckFile verifies an upload filename against the allowed globs.
func (g *Guard) CheckFile(name string) *Violation {
	base := filepath.Base(name)
	for _, pattern := range g.policy.AllowedFileGlobs {
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return nil
		}
	}
	return &Violation{Rule: "allowed_file_globs", Message: "file type not allowed: " + base}
}

// CheckUploadSize verifies an upload against the size cap.
func (g *Guard) CheckUploadSize(size int64) *Violation {
	if g.policy.MaxUploadBytes > 0 && size > g.policy.MaxUploadBytes {
		return &Violation{
			Rule:    "max_upload_bytes",
			Message: fmt.Sprintf("upload of %d bytes exceeds limit of %d", size, g.policy.MaxUploadBytes),
		}
	}
	return nil
}

// CountTokens returns the token count for text, or a character-based
// estimate when no encoder is available.
func (g *Guard) CountTokens(text string) int {
	if g.encoder == nil {
		return len(text) / 4
	}
	return len(g.encoder.Encode(text, nil, nil))
}

// CheckTokenBudget verifies a prompt fits the per-request token budget.
func (g *Guard) CheckTokenBudget(prompt string) *Violation {
	if g.policy.MaxPromptTokens <= 0 {
		return nil
	}
	if tokens := g.CountTokens(prompt); tokens > g.policy.MaxPromptTokens {
		return &Violation{
			Rule:    "max_prompt_tokens",
			Message: fmt.Sprintf("prompt of %d tokens exceeds budget of %d", tokens, g.policy.MaxPromptTokens),
		}
	}
	return nil
}

// MaxUploadBytes exposes the upload cap for servers that need it when
// parsing multipart forms.
func (g *Guard) MaxUploadBytes() int64 {
	return g.policy.MaxUploadBytes
}
