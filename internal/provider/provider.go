package provider

import (
	"context"
	"encoding/json"
	"io"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tune a single chat call. Agent profiles differ only in these
// values and their system prompt.
type ChatOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`

	// Schema, when set, constrains the completion to the given JSON
	// schema on backends that support structured outputs. SchemaName
	// labels the schema for the API.
	SchemaName string          `json:"schema_name,omitempty"`
	Schema     json.RawMessage `json:"schema,omitempty"`
}

// Response represents the output from the model.
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider defines the interface for AI model interactions.
type Provider interface {
	// Chat sends a list of messages to the model and returns a response.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (*Response, error)

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider identifier (e.g. "openai", "ollama").
	Name() string
}

// SpeechRequest describes a text-to-speech synthesis call.
type SpeechRequest struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice"`
	Speed  float64 `json:"speed"`
	Format string  `json:"format"`
}

// Speaker is implemented by providers that can synthesize speech.
type Speaker interface {
	Speak(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// Transcriber is implemented by providers that can turn audio into text.
// The filename carries the format extension the backend needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// ImageInput is either a URL or raw base64 data, never both.
type ImageInput struct {
	URL        string `json:"url,omitempty"`
	Base64Data string `json:"base64_data,omitempty"`
	MIMEType   string `json:"mime_type,omitempty"`
}

// VisionCapable is implemented by providers that accept image inputs.
type VisionCapable interface {
	ChatVision(ctx context.Context, prompt string, image ImageInput, opts ChatOptions) (*Response, error)
}

// BatchEmbedder is implemented by providers that can embed many texts in one call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
