package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/felixgeelhaar/nexus/internal/batch"
)

type batchSubmitRequest struct {
	Documents []batch.Item `json:"documents"`
}

func (s *Server) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		s.respondError(w, http.StatusServiceUnavailable, "batch processing is not configured")
		return
	}

	var req batchSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.pool.Submit(req.Documents)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"job_id":  id,
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		s.respondError(w, http.StatusServiceUnavailable, "batch processing is not configured")
		return
	}

	st, err := s.pool.Status(mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job":     st,
	})
}

func (s *Server) handleBatchResults(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		s.respondError(w, http.StatusServiceUnavailable, "batch processing is not configured")
		return
	}

	id := mux.Vars(r)["id"]
	results, err := s.pool.Results(id)
	if err != nil {
		status := http.StatusNotFound
		if strings.Contains(err.Error(), "still") {
			status = http.StatusConflict
		}
		s.respondError(w, status, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"job_id":  id,
		"results": results,
	})
}
