package board

import (
	"fmt"
	"testing"

	"github.com/hyperengineering/waypoint/internal/roadmap"
)

func manyFeatures(n int) []roadmap.Feature {
	out := make([]roadmap.Feature, n)
	for i := range out {
		out[i] = roadmap.Feature{ID: int64(i + 1), Title: fmt.Sprintf("feature %d", i+1)}
	}
	return out
}

func TestPage(t *testing.T) {
	b := New(manyFeatures(23))

	tests := []struct {
		name      string
		page      int
		perPage   int
		wantIDs   []int64
		wantInfo  PageInfo
	}{
		{"first page", 1, 10, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, PageInfo{1, 10, 23, 3}},
		{"last partial page", 3, 10, []int64{21, 22, 23}, PageInfo{3, 10, 23, 3}},
		{"page past end clamps", 9, 10, []int64{21, 22, 23}, PageInfo{3, 10, 23, 3}},
		{"page zero clamps", 0, 5, []int64{1, 2, 3, 4, 5}, PageInfo{1, 5, 23, 5}},
		{"default per page", 2, 0, []int64{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, PageInfo{2, DefaultPerPage, 23, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, info := b.Page(Filter{}, tt.page, tt.perPage)
			if info != tt.wantInfo {
				t.Errorf("info = %+v, want %+v", info, tt.wantInfo)
			}
			got := ids(items)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
			}
			for i := range got {
				if got[i] != tt.wantIDs[i] {
					t.Fatalf("ids = %v, want %v", got, tt.wantIDs)
				}
			}
		})
	}
}

func TestPage_PerPageCapped(t *testing.T) {
	b := New(manyFeatures(150))

	items, info := b.Page(Filter{}, 1, 1000)

	if info.PerPage != MaxPerPage || len(items) != MaxPerPage {
		t.Errorf("per page = %d, items = %d, want %d", info.PerPage, len(items), MaxPerPage)
	}
	if info.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", info.TotalPages)
	}
}

func TestPage_Empty(t *testing.T) {
	b := New(nil)

	items, info := b.Page(Filter{}, 3, 10)

	if len(items) != 0 {
		t.Errorf("items = %v, want none", items)
	}
	if info != (PageInfo{Page: 1, PerPage: 10, Total: 0, TotalPages: 1}) {
		t.Errorf("info = %+v", info)
	}
}

func TestColumns_OrderAndSorting(t *testing.T) {
	b := New([]roadmap.Feature{
		{ID: 1, Status: roadmap.StatusBacklog, Upvotes: 3},
		{ID: 2, Status: roadmap.StatusBacklog, Upvotes: 10},
		{ID: 3, Status: roadmap.StatusBacklog, Upvotes: 1, IsPriority: true},
		{ID: 4, Status: roadmap.StatusReleased, Upvotes: 4},
		{ID: 5, RawStatus: "Under Review", Upvotes: 2},
		{ID: 6, Status: roadmap.StatusBacklog, Upvotes: 10},
	})

	cols := b.Columns(Filter{})

	if len(cols) != 4 {
		t.Fatalf("len(cols) = %d, want 4", len(cols))
	}
	for i, want := range roadmap.Statuses {
		if cols[i].Status != want {
			t.Errorf("cols[%d].Status = %q, want %q", i, cols[i].Status, want)
		}
	}

	backlog := ids(cols[0].Features)
	wantBacklog := []int64{3, 2, 6, 1}
	for i := range wantBacklog {
		if i >= len(backlog) || backlog[i] != wantBacklog[i] {
			t.Fatalf("backlog = %v, want %v", backlog, wantBacklog)
		}
	}

	if len(cols[1].Features) != 0 {
		t.Errorf("in_progress = %v, want empty", ids(cols[1].Features))
	}
	if cols[1].Features == nil {
		t.Error("empty column should be a non-nil slice")
	}
	if got := ids(cols[2].Features); len(got) != 1 || got[0] != 5 {
		t.Errorf("under_review = %v, want [5]", got)
	}
	if got := ids(cols[3].Features); len(got) != 1 || got[0] != 4 {
		t.Errorf("released = %v, want [4]", got)
	}
}

func TestColumns_TimelineFoldsReview(t *testing.T) {
	b := New([]roadmap.Feature{
		{ID: 1, RawStatus: "Under Review", Upvotes: 1},
		{ID: 2, RawStatus: "In Progress", Upvotes: 5},
	}, WithStatusTable(roadmap.TimelineStatuses))

	cols := b.Columns(Filter{})

	if got := ids(cols[1].Features); len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("in_progress = %v, want [2 1]", got)
	}
	if len(cols[2].Features) != 0 {
		t.Errorf("under_review = %v, want empty", ids(cols[2].Features))
	}
}

func TestColumns_Filtered(t *testing.T) {
	b := New(sampleFeatures())

	cols := b.Columns(Filter{Category: "core"})

	total := 0
	for _, c := range cols {
		total += len(c.Features)
	}
	if total != 2 {
		t.Errorf("features across columns = %d, want 2", total)
	}
}
