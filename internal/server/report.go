package server

import (
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/nexus/internal/report"
)

func (s *Server) handleStructuredReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		s.respondError(w, http.StatusServiceUnavailable, "report generation is not available")
		return
	}

	var req report.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Data) == 0 {
		s.respondError(w, http.StatusBadRequest, "data is required")
		return
	}

	reportType := req.ReportType
	if reportType == "" {
		reportType = "analysis"
	}

	out, err := s.reports.Generate(r.Context(), req)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"report":      out,
		"report_type": reportType,
	})
}

func (s *Server) handleReportSchemas(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"available_schemas":     report.AvailableTypes(),
		"custom_schema_support": true,
	})
}
