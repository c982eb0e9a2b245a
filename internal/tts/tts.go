// Package tts synthesizes speech through a provider and validates
// requests against the speech policy before spending tokens.
package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/felixgeelhaar/nexus/internal/limits"
	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
)

// Voices maps each supported voice to a short character description.
var Voices = map[string]string{
	"alloy":   "Neutral and balanced",
	"ash":     "Warm and engaging",
	"ballad":  "Expressive and storytelling",
	"coral":   "Friendly and upbeat",
	"echo":    "Calm and measured",
	"fable":   "Bright and animated",
	"onyx":    "Deep and authoritative",
	"nova":    "Energetic and clear",
	"shimmer": "Soft and soothing",
}

// speech rate used for duration estimates, in characters per minute
const charsPerMinute = 150

// Validation reports whether a request would be accepted, with every
// policy violation listed rather than just the first.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Result is a completed synthesis: base64 audio plus request metadata.
type Result struct {
	AudioBase64       string  `json:"audio_base64"`
	Format            string  `json:"format"`
	Voice             string  `json:"voice"`
	Speed             float64 `json:"speed"`
	SizeBytes         int     `json:"size_bytes"`
	EstimatedDuration float64 `json:"estimated_duration_seconds"`
	GeneratedAt       string  `json:"generated_at"`
}

// Service fronts a speech-capable provider with request validation.
type Service struct {
	speaker provider.Speaker
	guard   *limits.Guard
	observe *observe.Observer
}

func New(speaker provider.Speaker, guard *limits.Guard, o *observe.Observer) *Service {
	return &Service{speaker: speaker, guard: guard, observe: o}
}

// Available reports whether the configured provider can synthesize speech.
func (s *Service) Available() bool {
	return s.speaker != nil
}

// Validate checks a request without synthesizing anything.
func (s *Service) Validate(req provider.SpeechRequest) Validation {
	v := Validation{Valid: true}

	if req.Text == "" {
		v.Errors = append(v.Errors, "text must not be empty")
	} else if tv := s.guard.CheckText(req.Text); tv != nil {
		v.Errors = append(v.Errors, tv.Message)
	}

	voices := make(map[string]bool, len(Voices))
	for name := range Voices {
		voices[name] = true
	}
	for _, sv := range s.guard.CheckSpeech(req.Voice, req.Speed, req.Format, voices) {
		v.Errors = append(v.Errors, sv.Message)
	}

	if req.Speed != 0 && (req.Speed < 0.5 || req.Speed > 2.0) {
		v.Warnings = append(v.Warnings, "speeds outside 0.5-2.0 may sound unnatural")
	}

	v.Valid = len(v.Errors) == 0
	return v
}

// Speak validates the request and synthesizes audio. Defaults are filled
// in for voice (alloy), speed (1.0) and format (mp3) before validation.
func (s *Service) Speak(ctx context.Context, req provider.SpeechRequest) (*Result, error) {
	if s.speaker == nil {
		return nil, fmt.Errorf("speech synthesis is not available with the configured provider")
	}

	if req.Voice == "" {
		req.Voice = "alloy"
	}
	if req.Speed == 0 {
		req.Speed = 1.0
	}
	if req.Format == "" {
		req.Format = "mp3"
	}

	if v := s.Validate(req); !v.Valid {
		return nil, fmt.Errorf("invalid speech request: %v", v.Errors)
	}

	ctx, span := s.observe.StartSpan(ctx, "tts.Speak")
	defer span.End()

	audio, err := s.speaker.Speak(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}

	s.observe.Log().Info().
		Str("voice", req.Voice).
		Str("format", req.Format).
		Int("bytes", len(audio)).
		Msg("speech generated")

	return &Result{
		AudioBase64:       base64.StdEncoding.EncodeToString(audio),
		Format:            req.Format,
		Voice:             req.Voice,
		Speed:             req.Speed,
		SizeBytes:         len(audio),
		EstimatedDuration: estimateDuration(req.Text, req.Speed),
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// estimateDuration approximates playback length in seconds from text
// length and the requested speed.
func estimateDuration(text string, speed float64) float64 {
	if speed <= 0 {
		speed = 1.0
	}
	minutes := float64(len(text)) / charsPerMinute
	return (minutes * 60) / speed
}
