// Package board holds the presentation state of the roadmap: vote counts as
// last seen, per-session vote toggles, and the filtered, paginated and
// column views rendered from them. Nothing here is persisted.
package board

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hyperengineering/waypoint/internal/roadmap"
)

// ErrUnknownFeature is returned when a vote targets a feature not on the board.
var ErrUnknownFeature = errors.New("feature not on board")

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Voter records a vote remotely. *roadmap.Service satisfies it.
type Voter interface {
	Vote(ctx context.Context, req roadmap.VoteRequest) roadmap.VoteResult
}

// Board is an in-memory view of the roadmap. It is safe for concurrent use.
type Board struct {
	statuses roadmap.StatusTable

	mu       sync.RWMutex
	features []roadmap.Feature
	index    map[int64]int
	voted    map[int64]bool
}

// Option configures a Board.
type Option func(*Board)

// WithStatusTable sets the table used to place features into columns.
// The default is roadmap.BoardStatuses.
func WithStatusTable(t roadmap.StatusTable) Option {
	return func(b *Board) {
		b.statuses = t
	}
}

// New creates a Board from a copy of features.
func New(features []roadmap.Feature, opts ...Option) *Board {
	b := &Board{
		statuses: roadmap.BoardStatuses,
		index:    make(map[int64]int, len(features)),
		voted:    make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.features = make([]roadmap.Feature, 0, len(features))
	for _, f := range features {
		if _, dup := b.index[f.ID]; dup {
			continue
		}
		f.Status = f.StatusIn(b.statuses)
		b.index[f.ID] = len(b.features)
		b.features = append(b.features, f)
	}
	return b
}

// Len returns the number of features on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.features)
}

// Feature returns the feature with id.
func (b *Board) Feature(id int64) (roadmap.Feature, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.index[id]
	if !ok {
		return roadmap.Feature{}, false
	}
	return b.features[i], true
}

// HasVoted reports whether this board has an outstanding upvote for id.
func (b *Board) HasVoted(id int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.voted[id]
}

// NextAction is the action a vote on id would take: upvote when not yet
// voted, downvote to take the vote back.
func (b *Board) NextAction(id int64) roadmap.VoteAction {
	if b.HasVoted(id) {
		return roadmap.ActionDownvote
	}
	return roadmap.ActionUpvote
}

// Vote toggles the board's vote on id. The count and toggle change before
// the remote call; a failed call rolls both back, a confirmed count replaces
// the local one and an ambiguous result keeps the local value.
func (b *Board) Vote(ctx context.Context, voter Voter, id int64) (roadmap.VoteResult, error) {
	b.mu.Lock()
	i, ok := b.index[id]
	if !ok {
		b.mu.Unlock()
		return roadmap.VoteResult{}, ErrUnknownFeature
	}

	action := roadmap.ActionUpvote
	if b.voted[id] {
		action = roadmap.ActionDownvote
	}
	delta := applyVote(&b.features[i], action)
	b.voted[id] = action == roadmap.ActionUpvote
	b.mu.Unlock()

	res := voter.Vote(ctx, roadmap.VoteRequest{FeatureID: id, Action: action})

	b.mu.Lock()
	defer b.mu.Unlock()
	f := &b.features[b.index[id]]

	switch {
	case !res.Success:
		f.Upvotes -= delta
		if f.Upvotes < 0 {
			f.Upvotes = 0
		}
		b.voted[id] = action != roadmap.ActionUpvote
		slog.Warn("vote rolled back", "feature_id", id, "action", action, "error", res.Error)
	case res.Upvotes != nil:
		f.Upvotes = max(*res.Upvotes, 0)
	default:
		slog.Debug("vote kept optimistic count", "feature_id", id, "upvotes", f.Upvotes)
	}

	return res, nil
}

// applyVote moves f's count by one and returns the change actually applied.
func applyVote(f *roadmap.Feature, action roadmap.VoteAction) int64 {
	if action == roadmap.ActionUpvote {
		f.Upvotes++
		return 1
	}
	if f.Upvotes > 0 {
		f.Upvotes--
		return -1
	}
	return 0
}

// Filter narrows the features shown. Zero fields match everything.
type Filter struct {
	Status   roadmap.Status
	Category string
	// Query matches title or description, case-insensitively.
	Query string
}

func (f Filter) match(feat roadmap.Feature) bool {
	if f.Status != "" && feat.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(feat.Category, f.Category) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(feat.Title), q) &&
			!strings.Contains(strings.ToLower(feat.Description), q) {
			return false
		}
	}
	return true
}

// Filtered returns the features matching f in board order.
func (b *Board) Filtered(f Filter) []roadmap.Feature {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]roadmap.Feature, 0, len(b.features))
	for _, feat := range b.features {
		if f.match(feat) {
			out = append(out, feat)
		}
	}
	return out
}

// Categories returns the distinct categories on the board, sorted.
func (b *Board) Categories() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, feat := range b.features {
		if feat.Category == "" {
			continue
		}
		if _, ok := seen[feat.Category]; ok {
			continue
		}
		seen[feat.Category] = struct{}{}
		out = append(out, feat.Category)
	}
	sort.Strings(out)
	return out
}
