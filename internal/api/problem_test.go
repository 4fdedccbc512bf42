package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperengineering/waypoint/internal/roadmap"
	"github.com/hyperengineering/waypoint/internal/validation"
)

func TestWriteProblem_Fields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/roadmap/vote", nil)

	WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON: unexpected EOF")

	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v, want application/problem+json", ct)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to unmarshal problem: %v", err)
	}
	if p.Type != "https://waypoint.dev/errors/bad-request" {
		t.Errorf("type = %v", p.Type)
	}
	if p.Title != "Bad Request" || p.Status != 400 {
		t.Errorf("title/status = %v/%d", p.Title, p.Status)
	}
	if p.Detail != "Invalid JSON: unexpected EOF" || p.Instance != "/api/v1/roadmap/vote" {
		t.Errorf("detail/instance = %v/%v", p.Detail, p.Instance)
	}
}

func TestWriteProblem_UnknownStatus(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteProblem(w, r, http.StatusTeapot, "short and stout")

	var p Problem
	json.Unmarshal(w.Body.Bytes(), &p)
	if p.Type != "https://waypoint.dev/errors/unknown" || p.Title != "I'm a teapot" {
		t.Errorf("problem = %+v", p)
	}
}

func TestWriteProblemWithErrors(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/roadmap/suggestions", nil)

	WriteProblemWithErrors(w, r, "Suggestion contains invalid fields", []validation.ValidationError{
		{Field: "title", Message: "is required"},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Type != "https://waypoint.dev/errors/validation-error" {
		t.Errorf("type = %v", p.Type)
	}
	if len(p.Errors) != 1 || p.Errors[0].Field != "title" {
		t.Errorf("errors = %+v", p.Errors)
	}
}

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		kind roadmap.FailureKind
		want int
	}{
		{roadmap.FailureConfiguration, http.StatusServiceUnavailable},
		{roadmap.FailureUpstream, http.StatusBadGateway},
		{roadmap.FailureProcessing, http.StatusBadGateway},
		{roadmap.FailureInvalid, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		if got := failureStatus(tt.kind); got != tt.want {
			t.Errorf("failureStatus(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
