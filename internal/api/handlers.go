package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hyperengineering/waypoint/internal/board"
	"github.com/hyperengineering/waypoint/internal/roadmap"
	"github.com/hyperengineering/waypoint/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// List views accepted by ListFeatures.
const (
	ViewList     = "list"
	ViewColumns  = "columns"
	ViewTimeline = "timeline"
)

var views = []string{ViewList, ViewColumns, ViewTimeline}

// RoadmapService is the roadmap operations the handlers call.
// *roadmap.Service satisfies it.
type RoadmapService interface {
	List(ctx context.Context) ([]roadmap.Feature, error)
	Submit(ctx context.Context, req roadmap.SubmitRequest) roadmap.SubmitResult
	Vote(ctx context.Context, req roadmap.VoteRequest) roadmap.VoteResult
}

// Handler implements the API handlers
type Handler struct {
	roadmap RoadmapService
	version string
}

// NewHandler creates a new Handler
func NewHandler(svc RoadmapService, version string) *Handler {
	return &Handler{
		roadmap: svc,
		version: version,
	}
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// FeaturePage is the list view of GET /api/v1/roadmap/features.
type FeaturePage struct {
	Features []roadmap.Feature `json:"features"`
	board.PageInfo
}

// FeatureColumns is the columns and timeline view of GET /api/v1/roadmap/features.
type FeatureColumns struct {
	Columns map[roadmap.Status][]roadmap.Feature `json:"columns"`
	Order   []roadmap.Status                     `json:"order"`
	Total   int                                  `json:"total"`
}

// ListErrorResponse is the failure body of the list endpoint.
type ListErrorResponse struct {
	Error *roadmap.Error `json:"error"`
}

// Health returns the health status. It does not call the remote service.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: h.version,
	})
}

// ListFeatures handles GET /api/v1/roadmap/features
func (h *Handler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var c validation.Collector
	page, pageErr := intParam(q.Get("page"), 1)
	if pageErr != nil {
		c.Add(&validation.ValidationError{Field: "page", Message: "must be an integer"})
	}
	perPage, perPageErr := intParam(q.Get("per_page"), board.DefaultPerPage)
	if perPageErr != nil {
		c.Add(&validation.ValidationError{Field: "per_page", Message: "must be an integer"})
	}
	view := q.Get("view")
	if view == "" {
		view = ViewList
	}
	c.Add(validation.ValidateEnum("view", view, views))
	c.Add(validation.ValidateStatusFilter("status", q.Get("status")))
	c.Add(validation.ValidateMaxLength("q", q.Get("q"), validation.MaxTitleLength))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Query contains invalid parameters", c.Errors())
		return
	}

	features, err := h.roadmap.List(r.Context())
	if err != nil {
		var listErr *roadmap.Error
		if !errors.As(err, &listErr) {
			slog.Error("unexpected list error", "error", err)
			WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeJSON(w, failureStatus(listErr.Kind), ListErrorResponse{Error: listErr})
		return
	}

	filter := board.Filter{
		Status:   roadmap.Status(q.Get("status")),
		Category: q.Get("category"),
		Query:    q.Get("q"),
	}

	var opts []board.Option
	if view == ViewTimeline {
		opts = append(opts, board.WithStatusTable(roadmap.TimelineStatuses))
	}
	b := board.New(features, opts...)

	if view == ViewList {
		items, info := b.Page(filter, page, perPage)
		writeJSON(w, http.StatusOK, FeaturePage{Features: items, PageInfo: info})
		return
	}

	resp := FeatureColumns{Columns: make(map[roadmap.Status][]roadmap.Feature)}
	for _, col := range b.Columns(filter) {
		resp.Columns[col.Status] = col.Features
		resp.Order = append(resp.Order, col.Status)
		resp.Total += len(col.Features)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitSuggestion handles POST /api/v1/roadmap/suggestions
func (h *Handler) SubmitSuggestion(w http.ResponseWriter, r *http.Request) {
	var req roadmap.SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if errs := validation.ValidateSubmitRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Suggestion contains invalid fields", errs)
		return
	}

	res := h.roadmap.Submit(r.Context(), req)
	if !res.Success {
		writeJSON(w, failureStatus(res.Failure), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Vote handles POST /api/v1/roadmap/vote
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req roadmap.VoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if errs := validation.ValidateVoteRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Vote contains invalid fields", errs)
		return
	}

	res := h.roadmap.Vote(r.Context(), req)
	if !res.Success {
		writeJSON(w, failureStatus(res.Failure), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeBody decodes a JSON body into dst, writing a problem response and
// returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteProblem(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", maxBodyBytes))
		return false
	}
	WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
	return false
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
