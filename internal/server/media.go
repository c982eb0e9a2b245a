package server

import (
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/tts"
	"github.com/felixgeelhaar/nexus/internal/vision"
)

type ttsRequest struct {
	Text   string  `json:"text"`
	Voice  string  `json:"voice,omitempty"`
	Speed  float64 `json:"speed,omitempty"`
	Format string  `json:"response_format,omitempty"`
}

func (s *Server) handleTTSGenerate(w http.ResponseWriter, r *http.Request) {
	if s.tts == nil || !s.tts.Available() {
		s.respondError(w, http.StatusServiceUnavailable, "speech synthesis is not available")
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	speech := fillSpeechDefaults(provider.SpeechRequest{
		Text:   req.Text,
		Voice:  req.Voice,
		Speed:  req.Speed,
		Format: req.Format,
	})

	if v := s.tts.Validate(speech); !v.Valid {
		s.respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":  false,
			"error":    "invalid speech request",
			"details":  v.Errors,
			"warnings": v.Warnings,
		})
		return
	}

	res, err := s.tts.Speak(r.Context(), speech)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"audio":   res,
	})
}

func fillSpeechDefaults(req provider.SpeechRequest) provider.SpeechRequest {
	if req.Voice == "" {
		req.Voice = "alloy"
	}
	if req.Speed == 0 {
		req.Speed = 1.0
	}
	if req.Format == "" {
		req.Format = "mp3"
	}
	return req
}

func (s *Server) handleTTSVoices(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"voices":  tts.Voices,
		"count":   len(tts.Voices),
	})
}

func (s *Server) handleVisionAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.vision == nil || !s.vision.Available() {
		s.respondError(w, http.StatusServiceUnavailable, "image analysis is not available")
		return
	}

	var req vision.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.vision.Analyze(r.Context(), req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": res,
	})
}

func (s *Server) handleVisionCapabilities(w http.ResponseWriter, r *http.Request) {
	available := s.vision != nil && s.vision.Available()
	payload := map[string]any{
		"success":   true,
		"available": available,
	}
	if available {
		payload["analysis_types"] = s.vision.Types()
		payload["prompts"] = vision.AnalysisPrompts
	}
	s.respondJSON(w, http.StatusOK, payload)
}

type embeddingsRequest struct {
	Texts []string `json:"texts"`
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Texts) == 0 {
		s.respondError(w, http.StatusBadRequest, "texts is required")
		return
	}
	for _, t := range req.Texts {
		if v := s.guard.CheckText(t); v != nil {
			s.respondError(w, http.StatusBadRequest, v.Message)
			return
		}
	}

	var vectors [][]float32
	if be, ok := s.embedder.(provider.BatchEmbedder); ok {
		vs, err := be.EmbedBatch(r.Context(), req.Texts)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		vectors = vs
	} else {
		for _, t := range req.Texts {
			v, err := s.embedder.Embed(r.Context(), t)
			if err != nil {
				s.respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			vectors = append(vectors, v)
		}
	}

	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"embeddings": vectors,
		"count":      len(vectors),
		"dimensions": dims,
	})
}

// handleTranscribe accepts one multipart audio file and returns its
// transcript.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		s.respondError(w, http.StatusServiceUnavailable, "transcription is not available")
		return
	}

	if err := r.ParseMultipartForm(s.guard.MaxUploadBytes()); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer f.Close()

	if v := s.guard.CheckUploadSize(fh.Size); v != nil {
		s.respondError(w, http.StatusBadRequest, v.Message)
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), f, fh.Filename)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"transcript": text,
		"filename":   fh.Filename,
	})
}
