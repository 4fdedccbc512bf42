package roadmap

import "strings"

// StatusTable maps folded status spellings to normalized statuses.
type StatusTable map[string]Status

// BoardStatuses is used by the roadmap board, where items awaiting review get
// their own column.
var BoardStatuses = StatusTable{
	"priority":     StatusBacklog,
	"planned":      StatusBacklog,
	"backlog":      StatusBacklog,
	"todo":         StatusBacklog,
	"in_progress":  StatusInProgress,
	"doing":        StatusInProgress,
	"started":      StatusInProgress,
	"under_review": StatusUnderReview,
	"review":       StatusUnderReview,
	"reviewing":    StatusUnderReview,
	"done":         StatusReleased,
	"released":     StatusReleased,
	"shipped":      StatusReleased,
	"completed":    StatusReleased,
}

// TimelineStatuses is used by the release timeline, which has no review
// stage and shows reviewed items as in progress.
var TimelineStatuses = StatusTable{
	"priority":     StatusBacklog,
	"planned":      StatusBacklog,
	"backlog":      StatusBacklog,
	"todo":         StatusBacklog,
	"in_progress":  StatusInProgress,
	"doing":        StatusInProgress,
	"started":      StatusInProgress,
	"under_review": StatusInProgress,
	"review":       StatusInProgress,
	"reviewing":    StatusInProgress,
	"done":         StatusReleased,
	"released":     StatusReleased,
	"shipped":      StatusReleased,
	"completed":    StatusReleased,
}

// NormalizeStatus normalizes raw with the board table.
func NormalizeStatus(raw string) Status {
	return BoardStatuses.Normalize(raw)
}

// Normalize folds raw and looks it up. Unknown values map to backlog.
func (t StatusTable) Normalize(raw string) Status {
	if s, ok := t[foldStatus(raw)]; ok {
		return s
	}
	return StatusBacklog
}

// foldStatus lower-cases raw and joins words with single underscores:
// "Under Review", "under-review" and "UNDER_REVIEW" all fold to "under_review".
func foldStatus(raw string) string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	})
	return strings.Join(fields, "_")
}

// isPriorityStatus reports whether raw is the "priority" alias.
func isPriorityStatus(raw string) bool {
	return foldStatus(raw) == "priority"
}
