package toolhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/i2y/toolwrap/internal/domain"
	"github.com/i2y/toolwrap/internal/usecase"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// ToolService is the part of the wrapper facade the HTTP surface needs.
type ToolService interface {
	GetAvailableTools(ctx context.Context) ([]domain.ToolDescriptor, error)
	FunctionSchemas(ctx context.Context) ([]domain.FunctionSchema, error)
	CallMCPTool(ctx context.Context, toolName string, args map[string]interface{}) domain.ToolResult
	Invoke(ctx context.Context, name string, args map[string]interface{}) (domain.ToolResult, error)
}

// ServerDiscoverer probes a single custom server.
type ServerDiscoverer interface {
	Execute(ctx context.Context, cfg domain.ServerConfig) (usecase.DiscoveryReport, error)
}

// Handlers holds dependencies for the HTTP handlers.
type Handlers struct {
	tools      ToolService
	discoverer ServerDiscoverer
	version    string
	logger     *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(tools ToolService, discoverer ServerDiscoverer, version string, logger *slog.Logger) *Handlers {
	return &Handlers{
		tools:      tools,
		discoverer: discoverer,
		version:    version,
		logger:     logger.With("component", "toolhttp_handler"),
	}
}

// RegisterRoutes sets up the tool and admin endpoints.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /tools", h.handleListTools)
	mux.HandleFunc("POST /tools/{method}", h.handleInvoke)
	mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)
	mux.HandleFunc("POST /admin/discover", h.handleDiscover)
}

// CallRequest is the body of POST /tools/call_mcp_tool.
type CallRequest struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ListResponse is the body of GET /tools.
type ListResponse struct {
	Tools   []domain.ToolDescriptor `json:"tools"`
	Schemas []domain.FunctionSchema `json:"schemas"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

func (h *Handlers) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.tools.GetAvailableTools(r.Context())
	if err != nil {
		h.fail(w, http.StatusServiceUnavailable, "Failed to initialize tools", err)
		return
	}
	schemas, err := h.tools.FunctionSchemas(r.Context())
	if err != nil {
		h.fail(w, http.StatusServiceUnavailable, "Failed to list tool schemas", err)
		return
	}
	h.writeJSON(w, http.StatusOK, ListResponse{Tools: tools, Schemas: schemas})
}

func (h *Handlers) handleCallMCPTool(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ToolName == "" {
		h.logger.Warn("Call request missing tool_name field")
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing 'tool_name' field in request body"})
		return
	}

	h.logger.Info("Received tool call", slog.String("tool_name", req.ToolName))
	h.writeJSON(w, http.StatusOK, h.tools.CallMCPTool(r.Context(), req.ToolName, req.Arguments))
}

func (h *Handlers) handleInvoke(w http.ResponseWriter, r *http.Request) {
	method := r.PathValue("method")
	if method == usecase.CallMCPToolName {
		h.handleCallMCPTool(w, r)
		return
	}
	args := map[string]interface{}{}
	if err := decodeBody(r, &args); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.tools.Invoke(r.Context(), method, args)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, domain.ErrToolNotFound) {
			status = http.StatusNotFound
		}
		h.fail(w, status, "Failed to invoke tool", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.tools.FunctionSchemas(r.Context())
	if err != nil {
		h.fail(w, http.StatusServiceUnavailable, "Failed to list tool schemas", err)
		return
	}
	h.writeJSON(w, http.StatusOK, BuildOpenAPI(schemas, h.version))
}

func (h *Handlers) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ServerConfig
	if err := decodeBody(r, &cfg); err != nil {
		h.fail(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	report, err := h.discoverer.Execute(r.Context(), cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		h.fail(w, status, "Failed to discover server", err)
		return
	}
	status := http.StatusOK
	if report.Error != "" {
		status = http.StatusBadGateway
		if report.TimedOut {
			status = http.StatusGatewayTimeout
		}
	}
	h.writeJSON(w, status, report)
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handlers) fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, slog.Int("status", status), slog.Any("error", err))
	} else {
		h.logger.Warn(msg, slog.Int("status", status), slog.Any("error", err))
	}
	h.writeJSON(w, status, errorResponse{Error: fmt.Sprintf("%s: %v", msg, err)})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", slog.Any("error", err))
	}
}
