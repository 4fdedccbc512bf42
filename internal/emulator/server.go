package emulator

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperengineering/waypoint/internal/sqlrpc"
)

// JSON-RPC error codes returned by the emulator.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeExecution      = -32000
)

// maxRequestBody bounds an envelope body.
const maxRequestBody = 1 << 20

// Runner executes SQL. *Store satisfies it.
type Runner interface {
	Run(ctx context.Context, query string, params []any) ([]map[string]any, error)
}

// Server answers tools/call envelopes.
type Server struct {
	runner Runner
	token  string
	stream bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithStream makes the server answer with text/event-stream bodies.
func WithStream(on bool) ServerOption {
	return func(s *Server) {
		s.stream = on
	}
}

// NewServer creates a Server that accepts requests bearing token.
func NewServer(runner Runner, token string, opts ...ServerOption) *Server {
	s := &Server{runner: runner, token: token}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving POST / and POST /mcp.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.authMiddleware)

	r.Post("/", s.handleRPC)
	r.Post("/mcp", s.handleRPC)

	return r
}

// extractBearerToken returns the token of a "Bearer " Authorization header,
// or "" when the header is missing or malformed.
func extractBearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" || !constantTimeEqual(token, s.token) {
			slog.Warn("emulator auth failure",
				"path", r.URL.Path,
				"remote_ip", r.RemoteAddr,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(rpcResponse{
				JSONRPC: "2.0",
				Error:   &sqlrpc.RPCError{Code: CodeInvalidRequest, Message: "missing or invalid bearer token"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *sqlrpc.RPCError `json:"error,omitempty"`
}

type sqlArgs struct {
	SQL    string            `json:"sql"`
	Params []json.RawMessage `json:"params"`
}

type integrationArgs struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, rpcResponse{
			JSONRPC: "2.0",
			Error:   &sqlrpc.RPCError{Code: CodeInvalidRequest, Message: "invalid JSON body"},
		})
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	result, rows, rpcErr := s.dispatch(r.Context(), req)
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}

	slog.Info("emulator call",
		"tool", req.Params.Name,
		"request_id", middleware.GetReqID(r.Context()),
		"call_id", r.Header.Get("X-Request-ID"),
		"rows", rows,
		"error", rpcErr != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.writeStatus(w, http.StatusOK, resp)
}

// dispatch runs the tool named in req and wraps its rows at the path the
// remote service uses for that tool.
func (s *Server) dispatch(ctx context.Context, req rpcRequest) (any, int, *sqlrpc.RPCError) {
	if req.Method != sqlrpc.MethodToolsCall {
		return nil, 0, &sqlrpc.RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method %q", req.Method)}
	}

	switch req.Params.Name {
	case sqlrpc.ToolRunSQL:
		rows, rpcErr := s.runSQL(ctx, req.Params.Arguments)
		if rpcErr != nil {
			return nil, 0, rpcErr
		}
		return wrapRows(rows, sqlrpc.PathDirect), len(rows), nil

	case sqlrpc.ToolCallIntegration:
		var args integrationArgs
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, 0, &sqlrpc.RPCError{Code: CodeInvalidRequest, Message: "invalid integration arguments"}
		}
		if args.Name != sqlrpc.ToolRunSQL {
			return nil, 0, &sqlrpc.RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown tool %q", args.Name)}
		}
		rows, rpcErr := s.runSQL(ctx, args.Arguments)
		if rpcErr != nil {
			return nil, 0, rpcErr
		}
		return wrapRows(rows, sqlrpc.PathRouted), len(rows), nil

	default:
		return nil, 0, &sqlrpc.RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown tool %q", req.Params.Name)}
	}
}

func (s *Server) runSQL(ctx context.Context, raw json.RawMessage) ([]map[string]any, *sqlrpc.RPCError) {
	var args sqlArgs
	if err := json.Unmarshal(raw, &args); err != nil || strings.TrimSpace(args.SQL) == "" {
		return nil, &sqlrpc.RPCError{Code: CodeInvalidRequest, Message: "sql is required"}
	}

	params := make([]any, len(args.Params))
	for i, p := range args.Params {
		v, err := bindValue(p)
		if err != nil {
			return nil, &sqlrpc.RPCError{Code: CodeInvalidRequest, Message: fmt.Sprintf("param %d: %v", i, err)}
		}
		params[i] = v
	}

	rows, err := s.runner.Run(ctx, args.SQL, params)
	if err != nil {
		slog.Warn("emulator sql failed", "error", err)
		return nil, &sqlrpc.RPCError{Code: CodeExecution, Message: err.Error()}
	}
	return rows, nil
}

// bindValue converts a JSON parameter to a SQLite bind value. Integral
// numbers bind as integers so comparisons against INTEGER columns match.
func bindValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		return x.Float64()
	case nil, string, bool:
		return x, nil
	default:
		return string(raw), nil
	}
}

// wrapRows nests rows under path, minus the leading "result" member which
// the envelope supplies.
func wrapRows(rows []map[string]any, path sqlrpc.Path) any {
	var v any = rows
	for i := len(path) - 1; i >= 1; i-- {
		v = map[string]any{path[i]: v}
	}
	return v
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, resp rpcResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to encode emulator response", "error", err)
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}

	if s.stream && status == http.StatusOK {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(status)
		fmt.Fprintf(w, "event: message\ndata: %s\n\ndata: [DONE]\n\n", body)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
