package board

import (
	"sort"

	"github.com/hyperengineering/waypoint/internal/roadmap"
)

// PageInfo describes a page of results. Page is 1-based.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Page returns one page of the features matching f. perPage falls back to
// DefaultPerPage when not positive and is capped at MaxPerPage; page is
// clamped into [1, TotalPages].
func (b *Board) Page(f Filter, page, perPage int) ([]roadmap.Feature, PageInfo) {
	items := b.Filtered(f)

	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)

	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	return items[start:end], PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Column is one status lane of the board.
type Column struct {
	Status   roadmap.Status    `json:"status"`
	Features []roadmap.Feature `json:"features"`
}

// Columns groups the features matching f by status, one column per status in
// roadmap.Statuses order. Within a column priority features come first, then
// higher upvote counts.
func (b *Board) Columns(f Filter) []Column {
	cols := make([]Column, len(roadmap.Statuses))
	pos := make(map[roadmap.Status]int, len(roadmap.Statuses))
	for i, s := range roadmap.Statuses {
		cols[i] = Column{Status: s, Features: []roadmap.Feature{}}
		pos[s] = i
	}

	for _, feat := range b.Filtered(f) {
		i, ok := pos[feat.Status]
		if !ok {
			i = pos[roadmap.StatusBacklog]
		}
		cols[i].Features = append(cols[i].Features, feat)
	}

	for i := range cols {
		sortColumn(cols[i].Features)
	}
	return cols
}

func sortColumn(features []roadmap.Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		a, b := features[i], features[j]
		if a.IsPriority != b.IsPriority {
			return a.IsPriority
		}
		return a.Upvotes > b.Upvotes
	})
}
