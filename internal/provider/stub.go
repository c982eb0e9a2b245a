package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// StubProvider is a simple provider for testing. Responses are returned in
// order; when exhausted, Chat falls back to echoing the last user message.
type StubProvider struct {
	mu        sync.Mutex
	Responses []Response
	ChatErr   error
	EmbedErr  error
	Calls     []ChatOptions
	prompts   []string
}

func NewStubProvider(responses ...Response) *StubProvider {
	return &StubProvider{Responses: responses}
}

func (m *StubProvider) Chat(ctx context.Context, messages []Message, opts ChatOptions) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.ChatErr != nil {
		return nil, m.ChatErr
	}

	m.Calls = append(m.Calls, opts)

	var prompt string
	for _, msg := range messages {
		if msg.Role == "user" {
			prompt = msg.Content
		}
	}
	m.prompts = append(m.prompts, prompt)

	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return &resp, nil
	}

	return &Response{
		Content: "stub: " + prompt,
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

// Embed returns a deterministic vector derived from the text so that
// identical texts are identical vectors and different texts diverge.
func (m *StubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}

	vec := make([]float32, 8)
	for i, w := range strings.Fields(strings.ToLower(text)) {
		for _, r := range w {
			vec[i%8] += float32(r) / 1000
		}
	}
	return vec, nil
}

func (m *StubProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func (m *StubProvider) Speak(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if req.Text == "" {
		return nil, errors.New("empty text")
	}
	return []byte("audio:" + req.Voice + ":" + req.Text), nil
}

func (m *StubProvider) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty audio")
	}
	return "transcript of " + filename, nil
}

func (m *StubProvider) ChatVision(ctx context.Context, prompt string, image ImageInput, opts ChatOptions) (*Response, error) {
	if image.URL == "" && image.Base64Data == "" {
		return nil, errors.New("no image provided")
	}
	return &Response{
		Content: "stub vision: " + prompt,
		Usage:   Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
	}, nil
}

// ChatCalls returns the user prompt of each Chat call in order.
func (m *StubProvider) ChatCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

func (m *StubProvider) Name() string {
	return "stub"
}
