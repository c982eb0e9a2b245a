package server

import (
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/nexus/internal/dispatch"
	"github.com/felixgeelhaar/nexus/internal/triage"
	"github.com/felixgeelhaar/nexus/internal/workflow"
)

type queryRequest struct {
	Query     string            `json:"query"`
	AgentType string            `json:"agent_type,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.AgentType == "" {
		req.AgentType = "auto"
	}

	res := s.dispatcher.Process(r.Context(), req.Query, req.AgentType, req.Context)
	if !res.Success {
		s.respondJSON(w, failureStatus(res), map[string]any{
			"success": false,
			"error":   res.Error,
			"task_id": res.TaskID,
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"response": res,
	})
}

// handleDirect pins a request to one agent type, skipping triage.
func (s *Server) handleDirect(agentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			s.respondError(w, http.StatusBadRequest, "query is required")
			return
		}

		res := s.dispatcher.Process(r.Context(), req.Query, agentType, req.Context)
		if !res.Success {
			s.respondJSON(w, failureStatus(res), map[string]any{
				"success": false,
				"error":   res.Error,
				"task_id": res.TaskID,
			})
			return
		}

		s.respondJSON(w, http.StatusOK, map[string]any{
			"status":   "success",
			"response": res,
		})
	}
}

// failureStatus maps dispatch failures to HTTP status codes. Request
// errors are the client's fault; everything else is a server error.
func failureStatus(res dispatch.Result) int {
	if res.Rejected {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	var def workflow.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if v := workflow.Validate(def); !v.Valid {
		s.respondJSON(w, http.StatusBadRequest, map[string]any{
			"success":  false,
			"error":    "invalid workflow",
			"details":  v.Errors,
			"warnings": v.Warnings,
		})
		return
	}

	res, err := s.runner.Run(r.Context(), def)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"workflow": res,
	})
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.dispatcher.Status())
}

func (s *Server) handleAgentTypes(w http.ResponseWriter, r *http.Request) {
	types := make([]string, 0, len(triage.AllAgentTypes))
	for _, t := range triage.AllAgentTypes {
		types = append(types, string(t))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"agent_types": types,
		"count":       len(types),
	})
}
