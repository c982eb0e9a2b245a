package server

import (
	"encoding/json"
	"io"
	"net/http"
)

// handleRAGUpload accepts multipart file uploads and indexes each file
// as one document, keyed by its filename.
func (s *Server) handleRAGUpload(w http.ResponseWriter, r *http.Request) {
	if s.kb == nil {
		s.respondError(w, http.StatusServiceUnavailable, "knowledge base is not configured")
		return
	}

	if err := r.ParseMultipartForm(s.guard.MaxUploadBytes()); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	added := 0
	var failures []string
	for _, fh := range files {
		if v := s.guard.CheckFile(fh.Filename); v != nil {
			failures = append(failures, v.Message)
			continue
		}
		if v := s.guard.CheckUploadSize(fh.Size); v != nil {
			failures = append(failures, v.Message)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			failures = append(failures, fh.Filename+": "+err.Error())
			continue
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			failures = append(failures, fh.Filename+": "+err.Error())
			continue
		}

		if _, err := s.kb.AddDocument(r.Context(), string(content), fh.Filename, nil); err != nil {
			failures = append(failures, fh.Filename+": "+err.Error())
			continue
		}
		added++
	}

	if added == 0 {
		s.respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":  false,
			"error":    "no documents were added",
			"failures": failures,
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"document_count": added,
		"failures":       failures,
	})
}

type ragSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

func (s *Server) handleRAGSearch(w http.ResponseWriter, r *http.Request) {
	if s.kb == nil {
		s.respondError(w, http.StatusServiceUnavailable, "knowledge base is not configured")
		return
	}

	var req ragSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := s.kb.Search(r.Context(), req.Query, req.MaxResults)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleRAGStatus(w http.ResponseWriter, r *http.Request) {
	if s.kb == nil {
		s.respondError(w, http.StatusServiceUnavailable, "knowledge base is not configured")
		return
	}
	s.respondJSON(w, http.StatusOK, s.kb.Status())
}
