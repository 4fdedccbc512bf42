package roadmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hyperengineering/waypoint/internal/sqlrpc"
	"github.com/patrickmn/go-cache"
)

const (
	msgUnavailable = "Service temporarily unavailable. Please try again later."
	msgProcessing  = "Failed to process server response"

	featuresCacheKey = "features"
)

// Service runs the roadmap operations against the remote data service.
// Each operation is a single round trip; nothing is retried.
type Service struct {
	caller        sqlrpc.Caller
	integrationID string
	listCache     *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithListCache caches List results for ttl. Votes invalidate the cache.
// A zero ttl disables caching.
func WithListCache(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.listCache = cache.New(ttl, 2*ttl)
		}
	}
}

// NewService creates a Service. integrationID names the integration the
// List operation is routed through.
func NewService(caller sqlrpc.Caller, integrationID string, opts ...Option) *Service {
	s := &Service{
		caller:        caller,
		integrationID: integrationID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit inserts a feature suggestion. Title and description are sent as
// given; an absent or blank email is bound to NULL.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) SubmitResult {
	var email any
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		email = *req.Email
	}

	resp, err := s.caller.Call(ctx, sqlrpc.RunSQL(InsertSuggestionSQL, req.Title, req.Description, email))
	if err != nil {
		kind, status, msg := classify(err, "submit suggestion")
		slog.Error("suggestion submit failed", "failure", kind, "error", err)
		return SubmitResult{
			Outcome: OutcomeFailure,
			Error:   msg,
			Status:  status,
			Failure: kind,
			Err:     err,
		}
	}

	id, err := firstInt(resp, sqlrpc.PathDirect, "id")
	if err != nil {
		slog.Warn("suggestion submitted without confirmed id", "error", err)
		return SubmitResult{Success: true, Outcome: OutcomeAmbiguous, Err: err}
	}

	slog.Info("suggestion submitted", "suggestion_id", id)
	return SubmitResult{Success: true, Outcome: OutcomeSuccess, FeatureID: &id}
}

// Vote moves a feature's upvote counter by one. An empty action upvotes.
func (s *Service) Vote(ctx context.Context, req VoteRequest) VoteResult {
	action := req.Action
	if action == "" {
		action = ActionUpvote
	}

	stmt, ok := voteSQL(action)
	if !ok {
		return VoteResult{
			Outcome:   OutcomeFailure,
			FeatureID: req.FeatureID,
			Error:     fmt.Sprintf("Unknown vote action %q", action),
			Failure:   FailureInvalid,
		}
	}

	resp, err := s.caller.Call(ctx, sqlrpc.RunSQL(stmt, req.FeatureID))
	if err != nil {
		kind, status, msg := classify(err, "record vote")
		slog.Error("vote failed", "feature_id", req.FeatureID, "action", action, "failure", kind, "error", err)
		return VoteResult{
			Outcome:   OutcomeFailure,
			FeatureID: req.FeatureID,
			Error:     msg,
			Status:    status,
			Failure:   kind,
			Err:       err,
		}
	}

	// The write went through either way, so cached counts are stale.
	s.invalidateList()

	upvotes, err := firstInt(resp, sqlrpc.PathDirect, "upvotes")
	if err != nil {
		slog.Warn("vote recorded without confirmed count", "feature_id", req.FeatureID, "action", action, "error", err)
		return VoteResult{Success: true, Outcome: OutcomeAmbiguous, FeatureID: req.FeatureID, Err: err}
	}

	slog.Info("vote recorded", "feature_id", req.FeatureID, "action", action, "upvotes", upvotes)
	return VoteResult{Success: true, Outcome: OutcomeSuccess, FeatureID: req.FeatureID, Upvotes: &upvotes}
}

// List fetches every roadmap feature through the integration route.
// Failures are returned as *Error.
func (s *Service) List(ctx context.Context) ([]Feature, error) {
	if s.listCache != nil {
		if cached, ok := s.listCache.Get(featuresCacheKey); ok {
			return cloneFeatures(cached.([]Feature)), nil
		}
	}

	req := sqlrpc.RunSQLVia(s.integrationID, ListFeaturesSQL)
	resp, err := s.caller.Call(ctx, req)
	if err != nil {
		return nil, listError(err)
	}

	rows, err := resp.Rows(req.ResultPath())
	if err != nil {
		return nil, listError(err)
	}

	features := make([]Feature, 0, len(rows))
	for i, row := range rows {
		f, ok := featureFromRow(row)
		if !ok {
			slog.Warn("skipping roadmap row without id", "index", i)
			continue
		}
		features = append(features, f)
	}

	if s.listCache != nil {
		s.listCache.SetDefault(featuresCacheKey, cloneFeatures(features))
	}

	slog.Debug("roadmap features listed", "count", len(features))
	return features, nil
}

func (s *Service) invalidateList() {
	if s.listCache != nil {
		s.listCache.Delete(featuresCacheKey)
	}
}

// classify maps a call error to a failure kind, the upstream HTTP status if
// any, and a user-facing message.
func classify(err error, what string) (FailureKind, int, string) {
	var statusErr *sqlrpc.StatusError
	var decodeErr *sqlrpc.DecodeError

	switch {
	case errors.Is(err, sqlrpc.ErrMissingToken):
		return FailureConfiguration, 0, msgUnavailable
	case errors.As(err, &statusErr):
		return FailureUpstream, statusErr.Status,
			fmt.Sprintf("Failed to %s (status %d). Please try again later.", what, statusErr.Status)
	case errors.As(err, &decodeErr), errors.Is(err, sqlrpc.ErrShapeMismatch):
		return FailureProcessing, 0, msgProcessing
	default:
		// transport failures and JSON-RPC error objects
		return FailureUpstream, 0, fmt.Sprintf("Failed to %s. Please try again later.", what)
	}
}

func listError(err error) *Error {
	kind, status, msg := classify(err, "load roadmap features")
	code := "UPSTREAM_ERROR"
	switch kind {
	case FailureConfiguration:
		code = "CONFIGURATION_ERROR"
	case FailureProcessing:
		code = "PROCESSING_ERROR"
	}
	slog.Error("roadmap list failed", "code", code, "status", status, "error", err)
	return &Error{Code: code, Message: msg, Kind: kind, Err: err}
}

// firstInt reads column from the first row at path.
func firstInt(resp *sqlrpc.Response, path sqlrpc.Path, column string) (int64, error) {
	rows, err := resp.Rows(path)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: no row returned", sqlrpc.ErrShapeMismatch)
	}
	v, ok := rows[0].Int64(column)
	if !ok {
		return 0, fmt.Errorf("%w: column %s missing", sqlrpc.ErrShapeMismatch, column)
	}
	return v, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

func featureFromRow(row sqlrpc.Row) (Feature, bool) {
	id, ok := row.Int64("id")
	if !ok {
		return Feature{}, false
	}

	f := Feature{ID: id}
	f.Title, _ = row.Text("title")
	f.Description, _ = row.Text("description")
	f.Category, _ = row.Text("category")
	f.RawStatus, _ = row.Text("status")
	f.Status = BoardStatuses.Normalize(f.RawStatus)

	if up, ok := row.Int64("upvotes"); ok && up > 0 {
		f.Upvotes = up
	}

	priority, _ := row.Bool("isPriority", "is_priority")
	f.IsPriority = priority || isPriorityStatus(f.RawStatus)

	if raw, ok := row.Text("created_at", "createdAt"); ok {
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				utc := t.UTC()
				f.CreatedAt = &utc
				break
			}
		}
	}

	return f, true
}

func cloneFeatures(in []Feature) []Feature {
	out := make([]Feature, len(in))
	copy(out, in)
	return out
}
