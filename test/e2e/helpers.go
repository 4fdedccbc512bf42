package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperengineering/waypoint/internal/api"
	"github.com/hyperengineering/waypoint/internal/emulator"
	"github.com/hyperengineering/waypoint/internal/roadmap"
	"github.com/hyperengineering/waypoint/internal/sqlrpc"
)

const testToken = "e2e-remote-token"

// stack is the API served in-process against a seeded emulator.
type stack struct {
	api      *httptest.Server
	store    *emulator.Store
	emulator *httptest.Server
}

type stackOptions struct {
	stream   bool
	cacheTTL time.Duration
	token    string
}

// newStack wires router → handler → service → client → emulator → SQLite.
func newStack(t *testing.T, opts stackOptions) *stack {
	t.Helper()

	store, err := emulator.OpenStore(filepath.Join(t.TempDir(), "emulator.db"))
	if err != nil {
		t.Fatalf("open emulator store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if _, err := store.SeedFeatures(context.Background(), emulator.DefaultFeatures); err != nil {
		t.Fatalf("seed features: %v", err)
	}

	emu := httptest.NewServer(emulator.NewServer(store, testToken, emulator.WithStream(opts.stream)).Handler())
	t.Cleanup(emu.Close)

	token := opts.token
	if token == "" {
		token = testToken
	}
	client := sqlrpc.NewClient(emu.URL+"/mcp", sqlrpc.StaticCredentials(token))
	svc := roadmap.NewService(client, "i:databases-management", roadmap.WithListCache(opts.cacheTTL))

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc, "e2e")))
	t.Cleanup(srv.Close)

	return &stack{api: srv, store: store, emulator: emu}
}

// getJSON fetches path and decodes a JSON body into dst. It returns the status.
func getJSON(t *testing.T, baseURL, path string, dst any) int {
	t.Helper()
	resp, err := http.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	decodeBody(t, resp, dst)
	return resp.StatusCode
}

// postJSON posts body as JSON and decodes the response into dst. It returns
// the status.
func postJSON(t *testing.T, baseURL, path string, body, dst any) int {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal %s body: %v", path, err)
	}
	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	decodeBody(t, resp, dst)
	return resp.StatusCode
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if dst == nil {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
}

// findFeature returns the feature titled title.
func findFeature(t *testing.T, features []roadmap.Feature, title string) roadmap.Feature {
	t.Helper()
	for _, f := range features {
		if f.Title == title {
			return f
		}
	}
	t.Fatalf("feature %q not found", title)
	return roadmap.Feature{}
}

// storedUpvotes reads a feature's counter straight from the emulator database.
func (s *stack) storedUpvotes(t *testing.T, id int64) int64 {
	t.Helper()
	rows, err := s.store.Run(context.Background(), `SELECT upvotes FROM roadmap_features WHERE id = ?`, []any{id})
	if err != nil || len(rows) != 1 {
		t.Fatalf("read upvotes for %d: %v (%d rows)", id, err, len(rows))
	}
	n, ok := rows[0]["upvotes"].(int64)
	if !ok {
		t.Fatalf("upvotes has type %T", rows[0]["upvotes"])
	}
	return n
}
