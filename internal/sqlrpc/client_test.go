package sqlrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// recordingServer counts calls and captures the last request.
type recordingServer struct {
	mu          sync.Mutex
	calls       atomic.Int32
	lastHeader  http.Header
	lastBody    []byte
	status      int
	contentType string
	body        string
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.lastHeader = r.Header.Clone()
	s.lastBody = body
	s.mu.Unlock()

	ct := s.contentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, s.body)
}

func (s *recordingServer) last() (http.Header, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeader, s.lastBody
}

func newTestServer(t *testing.T, rs *recordingServer) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_MissingTokenMakesNoRequest(t *testing.T) {
	rs := &recordingServer{body: directRows}
	srv := newTestServer(t, rs)
	t.Setenv("WAYPOINT_TEST_TOKEN", "")

	client := NewClient(srv.URL, EnvCredentials{Key: "WAYPOINT_TEST_TOKEN"})
	_, err := client.Call(context.Background(), RunSQL("SELECT 1"))

	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("error = %v, want ErrMissingToken", err)
	}
	if n := rs.calls.Load(); n != 0 {
		t.Errorf("server calls = %d, want 0", n)
	}
}

func TestClient_SendsEnvelopeAndHeaders(t *testing.T) {
	rs := &recordingServer{body: directRows}
	srv := newTestServer(t, rs)
	t.Setenv("WAYPOINT_TEST_TOKEN", "secret-token")

	client := NewClient(srv.URL, EnvCredentials{Key: "WAYPOINT_TEST_TOKEN"})
	ctx := WithCallID(context.Background(), "01HXCALLID")

	resp, err := client.Call(ctx, RunSQL("SELECT ?", "x"))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	header, sent := rs.last()
	if got := header.Get("Authorization"); got != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want Bearer secret-token", got)
	}
	if got := header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := header.Get("X-Request-ID"); got != "01HXCALLID" {
		t.Errorf("X-Request-ID = %q, want 01HXCALLID", got)
	}

	var env Request
	if err := json.Unmarshal(sent, &env); err != nil {
		t.Fatalf("server got invalid JSON: %v", err)
	}
	if env.Method != MethodToolsCall || env.Params.Name != ToolRunSQL {
		t.Errorf("envelope = %+v", env)
	}

	rows, err := resp.Rows(PathDirect)
	if err != nil || len(rows) != 1 {
		t.Errorf("Rows() = %v, %v", rows, err)
	}
}

func TestClient_TokenReadPerCall(t *testing.T) {
	rs := &recordingServer{body: directRows}
	srv := newTestServer(t, rs)
	client := NewClient(srv.URL, EnvCredentials{Key: "WAYPOINT_TEST_TOKEN"})

	t.Setenv("WAYPOINT_TEST_TOKEN", "first")
	if _, err := client.Call(context.Background(), RunSQL("SELECT 1")); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	t.Setenv("WAYPOINT_TEST_TOKEN", "second")
	if _, err := client.Call(context.Background(), RunSQL("SELECT 1")); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	header, _ := rs.last()
	if got := header.Get("Authorization"); got != "Bearer second" {
		t.Errorf("Authorization = %q, want Bearer second", got)
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	rs := &recordingServer{status: http.StatusBadGateway, body: "upstream exploded"}
	srv := newTestServer(t, rs)

	client := NewClient(srv.URL, StaticCredentials("tok"))
	_, err := client.Call(context.Background(), RunSQL("SELECT 1"))

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want %d", statusErr.Status, http.StatusBadGateway)
	}
	if n := rs.calls.Load(); n != 1 {
		t.Errorf("server calls = %d, want exactly 1 (no retry)", n)
	}
}

func TestClient_EventStreamResponse(t *testing.T) {
	rs := &recordingServer{
		contentType: "text/event-stream",
		body:        "event: message\ndata: " + directRows + "\n\ndata: [DONE]\n\n",
	}
	srv := newTestServer(t, rs)

	client := NewClient(srv.URL, StaticCredentials("tok"))
	resp, err := client.Call(context.Background(), RunSQL("SELECT 1"))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !resp.Streamed {
		t.Error("Streamed = false, want true")
	}
}

func TestClient_EventStreamWithoutPayload(t *testing.T) {
	rs := &recordingServer{contentType: "text/event-stream", body: "data: [DONE]\n\n"}
	srv := newTestServer(t, rs)

	client := NewClient(srv.URL, StaticCredentials("tok"))
	_, err := client.Call(context.Background(), RunSQL("SELECT 1"))

	if !errors.Is(err, ErrNoPayload) {
		t.Fatalf("error = %v, want ErrNoPayload", err)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, StaticCredentials("tok"))
	_, err := client.Call(context.Background(), RunSQL("SELECT 1"))

	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_WithHTTPClient(t *testing.T) {
	used := false
	client := NewClient("http://remote.invalid/mcp", StaticCredentials("tok"), WithHTTPClient(doerFunc(func(r *http.Request) (*http.Response, error) {
		used = true
		rec := httptest.NewRecorder()
		rec.Header().Set("Content-Type", "application/json")
		rec.WriteString(directRows)
		return rec.Result(), nil
	})))

	if _, err := client.Call(context.Background(), RunSQL("SELECT 1")); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !used {
		t.Error("custom HTTP client was not used")
	}
}

func TestCallIDFromContext_GeneratesWhenMissing(t *testing.T) {
	a := CallIDFromContext(context.Background())
	b := CallIDFromContext(context.Background())
	if len(a) != 26 || len(b) != 26 {
		t.Errorf("call IDs should be ULIDs, got %q and %q", a, b)
	}
	if a == b {
		t.Error("generated call IDs should differ")
	}
}
