// Package httpapi exposes the pipeline's three entry points plus a
// health check and two read-only introspection endpoints over
// HTTP/JSON under /api.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hotreloadd/compileserver/internal/apperrors"
	"github.com/hotreloadd/compileserver/internal/pipeline"
)

// Server wires a pipeline.Server into chi routes.
type Server struct {
	Pipeline *pipeline.Server
	Logger   *zap.Logger
	Timeout  time.Duration
}

// Router builds the chi.Router serving every /api endpoint.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/check-initialized", s.handleCheckInitialized)
		r.Get("/hook-type-infos", s.handleHookTypeInfos)
		r.Post("/initialize", s.handleInitialize)
		r.Post("/compile", s.handleCompile)
		r.Post("/clear", s.handleClear)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.Logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheckInitialized(w http.ResponseWriter, r *http.Request) {
	projectPath := r.URL.Query().Get("projectPath")
	if projectPath == "" {
		writeError(w, http.StatusBadRequest, "projectPath is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"initialized": s.Pipeline.CheckInitialized(projectPath)})
}

func (s *Server) handleHookTypeInfos(w http.ResponseWriter, r *http.Request) {
	projectPath := r.URL.Query().Get("projectPath")
	if projectPath == "" {
		writeError(w, http.StatusBadRequest, "projectPath is required")
		return
	}
	infos, ok := s.Pipeline.HookTypeInfos(projectPath)
	if !ok {
		writeError(w, http.StatusConflict, apperrors.ErrNotInitialized.Error())
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req pipeline.InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	if err := s.Pipeline.Initialize(ctx, req); err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectPath string `json:"projectPath"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	if err := s.Pipeline.Clear(ctx, req.ProjectPath); err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	projectPath := r.URL.Query().Get("projectPath")
	if projectPath == "" {
		writeError(w, http.StatusBadRequest, "projectPath is required")
		return
	}
	var req pipeline.CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	resp := s.Pipeline.Compile(ctx, projectPath, req)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if apperrors.KindOf(err) == apperrors.KindNotInitialized {
		status = http.StatusConflict
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
