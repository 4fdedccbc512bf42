package roadmap

import "testing"

func TestNormalizeStatus_BoardTable(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Priority", StatusBacklog},
		{"planned", StatusBacklog},
		{"Backlog", StatusBacklog},
		{"In Progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"IN_PROGRESS", StatusInProgress},
		{"Under Review", StatusUnderReview},
		{"under_review", StatusUnderReview},
		{"Done", StatusReleased},
		{"released", StatusReleased},
		{"  Shipped  ", StatusReleased},
		{"", StatusBacklog},
		{"something else", StatusBacklog},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeStatus(tt.raw); got != tt.want {
				t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_TimelineTableFoldsReviewIntoProgress(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Priority", StatusBacklog},
		{"Done", StatusReleased},
		{"Under Review", StatusInProgress},
		{"review", StatusInProgress},
		{"in progress", StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := TimelineStatuses.Normalize(tt.raw); got != tt.want {
				t.Errorf("TimelineStatuses.Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStatusTables_CoverSameSpellings(t *testing.T) {
	for key := range BoardStatuses {
		if _, ok := TimelineStatuses[key]; !ok {
			t.Errorf("timeline table missing %q", key)
		}
	}
	for key := range TimelineStatuses {
		if _, ok := BoardStatuses[key]; !ok {
			t.Errorf("board table missing %q", key)
		}
	}
}

func TestFeature_StatusIn(t *testing.T) {
	f := Feature{RawStatus: "Under Review", Status: StatusUnderReview}

	if got := f.StatusIn(BoardStatuses); got != StatusUnderReview {
		t.Errorf("StatusIn(board) = %q, want under_review", got)
	}
	if got := f.StatusIn(TimelineStatuses); got != StatusInProgress {
		t.Errorf("StatusIn(timeline) = %q, want in_progress", got)
	}

	// Without a raw status the normalized value is kept.
	g := Feature{Status: StatusReleased}
	if got := g.StatusIn(TimelineStatuses); got != StatusReleased {
		t.Errorf("StatusIn() = %q, want released", got)
	}
}
