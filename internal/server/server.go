// Package server exposes the agent platform over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/felixgeelhaar/nexus/internal/batch"
	"github.com/felixgeelhaar/nexus/internal/dispatch"
	"github.com/felixgeelhaar/nexus/internal/limits"
	"github.com/felixgeelhaar/nexus/internal/observe"
	"github.com/felixgeelhaar/nexus/internal/provider"
	"github.com/felixgeelhaar/nexus/internal/rag"
	"github.com/felixgeelhaar/nexus/internal/report"
	"github.com/felixgeelhaar/nexus/internal/tts"
	"github.com/felixgeelhaar/nexus/internal/vision"
	"github.com/felixgeelhaar/nexus/internal/workflow"
)

// Server wires the platform services to their HTTP routes.
type Server struct {
	dispatcher  *dispatch.Dispatcher
	runner      *workflow.Runner
	kb          *rag.KnowledgeBase
	tts         *tts.Service
	vision      *vision.Service
	pool        *batch.Pool
	reports     *report.Service
	transcriber provider.Transcriber
	embedder    provider.Provider
	guard       *limits.Guard
	observe     *observe.Observer

	router *mux.Router
	http   *http.Server
}

// Options carries the services a Server fronts. Nil optional services
// turn their routes into 503 responses.
type Options struct {
	Dispatcher  *dispatch.Dispatcher
	Runner      *workflow.Runner
	Knowledge   *rag.KnowledgeBase
	TTS         *tts.Service
	Vision      *vision.Service
	Batch       *batch.Pool
	Reports     *report.Service
	Transcriber provider.Transcriber
	Embedder    provider.Provider
	Guard       *limits.Guard
	Observer    *observe.Observer
}

func New(addr string, opts Options) *Server {
	s := &Server{
		dispatcher:  opts.Dispatcher,
		runner:      opts.Runner,
		kb:          opts.Knowledge,
		tts:         opts.TTS,
		vision:      opts.Vision,
		pool:        opts.Batch,
		reports:     opts.Reports,
		transcriber: opts.Transcriber,
		embedder:    opts.Embedder,
		guard:       opts.Guard,
		observe:     opts.Observer,
		router:      mux.NewRouter(),
	}
	s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logging)

	api := s.router.PathPrefix("/api").Subrouter()

	agents := api.PathPrefix("/agents").Subrouter()
	agents.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	agents.HandleFunc("/research", s.handleDirect("research")).Methods(http.MethodPost)
	agents.HandleFunc("/performance", s.handleDirect("performance")).Methods(http.MethodPost)
	agents.HandleFunc("/coaching", s.handleDirect("coaching")).Methods(http.MethodPost)
	agents.HandleFunc("/code/analyze", s.handleDirect("code_analyzer")).Methods(http.MethodPost)
	agents.HandleFunc("/code/debug", s.handleDirect("code_debugger")).Methods(http.MethodPost)
	agents.HandleFunc("/code/repair", s.handleDirect("code_repair")).Methods(http.MethodPost)
	agents.HandleFunc("/test/generate", s.handleDirect("test_generator")).Methods(http.MethodPost)
	agents.HandleFunc("/workflow", s.handleWorkflow).Methods(http.MethodPost)
	agents.HandleFunc("/status", s.handleAgentStatus).Methods(http.MethodGet)
	agents.HandleFunc("/types", s.handleAgentTypes).Methods(http.MethodGet)
	agents.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	ragAPI := api.PathPrefix("/rag").Subrouter()
	ragAPI.HandleFunc("/upload", s.handleRAGUpload).Methods(http.MethodPost)
	ragAPI.HandleFunc("/search", s.handleRAGSearch).Methods(http.MethodPost)
	ragAPI.HandleFunc("/status", s.handleRAGStatus).Methods(http.MethodGet)

	ttsAPI := api.PathPrefix("/tts").Subrouter()
	ttsAPI.HandleFunc("/generate", s.handleTTSGenerate).Methods(http.MethodPost)
	ttsAPI.HandleFunc("/voices", s.handleTTSVoices).Methods(http.MethodGet)

	audioAPI := api.PathPrefix("/audio").Subrouter()
	audioAPI.HandleFunc("/transcribe", s.handleTranscribe).Methods(http.MethodPost)

	visionAPI := api.PathPrefix("/vision").Subrouter()
	visionAPI.HandleFunc("/analyze", s.handleVisionAnalyze).Methods(http.MethodPost)
	visionAPI.HandleFunc("/capabilities", s.handleVisionCapabilities).Methods(http.MethodGet)

	api.HandleFunc("/embeddings/enhanced", s.handleEmbeddings).Methods(http.MethodPost)

	structuredAPI := api.PathPrefix("/structured").Subrouter()
	structuredAPI.HandleFunc("/report", s.handleStructuredReport).Methods(http.MethodPost)
	structuredAPI.HandleFunc("/schemas", s.handleReportSchemas).Methods(http.MethodGet)

	batchAPI := api.PathPrefix("/batch").Subrouter()
	batchAPI.HandleFunc("/submit", s.handleBatchSubmit).Methods(http.MethodPost)
	batchAPI.HandleFunc("/status/{id}", s.handleBatchStatus).Methods(http.MethodGet)
	batchAPI.HandleFunc("/results/{id}", s.handleBatchResults).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.observe.Log().Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.observe.LogRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.observe.Log().Warn().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "nexus",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
