package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

// Server exposes the tool registry over HTTP JSON.
type Server struct {
	registry *Registry
	server   *http.Server
	log      *slog.Logger
}

// NewServer creates the tool server.
func NewServer(registry *Registry, port int, log *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		registry: registry,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		log: log,
	}

	mux.HandleFunc("/v1/tools", s.handleList)
	mux.HandleFunc("/v1/tools/", s.handleInvoke)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.List()})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/v1/tools/")
	requestID := r.Header.Get("X-Request-Id")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	handler, ok := s.registry.Get(name)
	if !ok {
		s.writeError(w, name, requestID, remoteerr.NewValidation(
			fmt.Sprintf("Unknown tool %q.", name),
			domain.NewOperationContext(name, "tools").WithRequestID(requestID),
		))
		return
	}

	req := &Request{Tool: name, RequestID: requestID}
	if err := json.NewDecoder(r.Body).Decode(&req.Params); err != nil {
		s.writeError(w, name, requestID, remoteerr.NewValidation(
			"Request body is not valid JSON.",
			domain.NewOperationContext(name, "tools").WithRequestID(requestID),
		))
		return
	}

	result, err := handler(r.Context(), req)
	if err != nil {
		opCtx := domain.NewOperationContext(name, "tools").WithRequestID(requestID)
		s.writeError(w, name, requestID, remoteerr.Sanitize(err, opCtx))
		return
	}

	writeJSON(w, http.StatusOK, RenderSuccess(result, requestID))
}

func (s *Server) writeError(w http.ResponseWriter, tool, requestID string, re *remoteerr.RemoteError) {
	s.log.Warn("tool invocation failed",
		"tool", tool,
		"classification", string(re.Classification),
		"status", re.Status,
		"correlation_id", re.CorrelationID)

	status := re.Status
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, RenderError(re, requestID))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
