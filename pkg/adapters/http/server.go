package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/manifest"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
)

// Identity headers set by the orchestrator.
const (
	HeaderAppID              = "x-monkeys-appid"
	HeaderUserID             = "x-monkeys-userid"
	HeaderTeamID             = "x-monkeys-teamid"
	HeaderWorkflowInstanceID = "x-monkeys-workflow-instanceid"

	// HeaderTaskID carries the task id of a tool response.
	HeaderTaskID = "x-monkeys-task-id"
)

// maxBodyBytes bounds tool request bodies. Files travel by URL, never inline.
const maxBodyBytes = 8 << 20

// Dispatcher runs tool invocations.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv domain.Invocation) (domain.Output, error)
	Registry() *registry.Registry
}

// Options configures the handler.
type Options struct {
	Namespace    string
	ContactEmail string
	Version      string
	// Metrics is served at /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
	// Events receives dispatch events for /events subscribers.
	Events *StreamManager
}

// Server serves the tool endpoints of a sealed registry.
type Server struct {
	dispatcher Dispatcher
	opts       Options
	manifest   manifest.Manifest
	document   []byte
	apiVersion string
	logger     *slog.Logger
}

// NewHandler builds the router. The OpenAPI document is generated once, so
// tools registered afterwards are not served.
func NewHandler(ctx context.Context, d Dispatcher, opts Options) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tools := d.Registry().List()
	doc, err := manifest.Document(ctx, manifest.Info{
		Title:       "Monkey Tools: Text",
		Version:     opts.Version,
		Description: "Document conversion, OCR and text processing tools",
	}, tools)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}

	s := &Server{
		dispatcher: d,
		opts:       opts,
		manifest:   manifest.New(opts.Namespace, "/swagger.json", opts.ContactEmail),
		document:   raw,
		apiVersion: doc.OpenAPI,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/manifest.json", s.GetManifest)
	r.Get("/openapi.json", s.GetOpenAPI)
	r.Get("/swagger.json", s.GetOpenAPI)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/tools", s.GetTools)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.Events != nil {
		r.Get("/events", s.SubscribeEvents)
	}

	for _, t := range tools {
		r.Post(t.Path, s.InvokeTool(t.Name))
	}
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", HeaderAppID, HeaderUserID, HeaderTeamID, HeaderWorkflowInstanceID,
		}, ", "))
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Monkey Tools API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/swagger.json',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// ErrorResponse is the body of every failed tool call.
type ErrorResponse struct {
	Error  string           `json:"error"`
	Kind   domain.ErrorKind `json:"kind"`
	TaskID string           `json:"taskId,omitempty"`
}

// InvokeTool handles POST <tool path>.
func (s *Server) InvokeTool(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv := domain.Invocation{
			TaskID:   uuid.NewString(),
			ToolName: name,
			Caller:   CallerFromHeaders(r.Header),
		}
		w.Header().Set(HeaderTaskID, inv.TaskID)

		params, err := decodeParams(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.logger.Warn("invalid request body", "tool", name, "error", err)
			writeError(w, s.logger, inv.TaskID, domain.InvalidInput("invalid request body: %v", err))
			return
		}
		inv.Params = params

		out, err := s.dispatcher.Dispatch(r.Context(), inv)
		if err != nil {
			writeError(w, s.logger, inv.TaskID, err)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, out)
	}
}

// decodeParams accepts an empty body as no parameters.
func decodeParams(body io.Reader) (map[string]any, error) {
	params := map[string]any{}
	dec := json.NewDecoder(body)
	if err := dec.Decode(&params); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

// CallerFromHeaders reads the orchestrator identity headers. Values are
// sanitized before they reach logs.
func CallerFromHeaders(h http.Header) domain.CallerIdentity {
	return domain.CallerIdentity{
		AppID:              sanitizeHeader(h.Get(HeaderAppID)),
		UserID:             sanitizeHeader(h.Get(HeaderUserID)),
		TeamID:             sanitizeHeader(h.Get(HeaderTeamID)),
		WorkflowInstanceID: sanitizeHeader(h.Get(HeaderWorkflowInstanceID)),
	}
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnsupported:
		return http.StatusUnprocessableEntity
	case domain.KindDownloadFailed, domain.KindUploadFailed, domain.KindExternalFailure:
		return http.StatusBadGateway
	case domain.KindExternalTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, taskID string, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		logger.Error("tool request failed", "task_id", taskID, "kind", kind, "error", err)
	}
	writeJSON(w, logger, status, ErrorResponse{Error: err.Error(), Kind: kind, TaskID: taskID})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

// GetManifest handles GET /manifest.json.
func (s *Server) GetManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.manifest)
}

// GetOpenAPI handles GET /openapi.json and its /swagger.json alias.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.document)
}

// GetTools handles GET /tools.
func (s *Server) GetTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.dispatcher.Registry().List())
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"app":         "monkey-tools-text",
		"version":     strings.TrimSpace(s.opts.Version),
		"api_version": s.apiVersion,
		"tools":       s.dispatcher.Registry().Len(),
	})
}
