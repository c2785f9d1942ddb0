package scraper

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGroup(t *testing.T) {
	rows := []Row{
		{Cols: []string{"T1548", "Abuse Elevation Control", "desc"}},
		{Cols: []string{"", ".001", "Setuid and Setgid", "sub desc"}},
		{Cols: []string{"", ".002", "Bypass UAC", "sub desc"}},
		{Cols: []string{"T1134", "Access Token Manipulation", "desc"}},
		{Cols: []string{"", ".001", "Token Impersonation", "sub desc"}},
	}

	groups, err := Group(rows, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if len(groups[0].Children) != 2 || len(groups[1].Children) != 1 {
		t.Fatalf("children per group = %d, %d; want 2, 1",
			len(groups[0].Children), len(groups[1].Children))
	}
	if v, _ := groups[0].Parent.Col(0); v != "T1548" {
		t.Errorf("first parent = %q", v)
	}
	if v, _ := groups[1].Children[0].Col(1); v != ".001" {
		t.Errorf("second group child marker = %q", v)
	}
}

func TestGroupAllParents(t *testing.T) {
	rows := []Row{
		{Cols: []string{"a"}},
		{Cols: []string{"b"}},
	}
	groups, err := Group(rows, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for i, g := range groups {
		if len(g.Children) != 0 {
			t.Errorf("group %d has %d children, want 0", i, len(g.Children))
		}
	}
}

func TestGroupNeverNestsFurther(t *testing.T) {
	rows := []Row{
		{Cols: []string{"T1548", "Abuse Elevation Control", "desc"}},
		{Cols: []string{"", ".001", "Setuid and Setgid", "sub desc"}},
		{Cols: []string{"", ".002", "Bypass UAC", "sub desc"}},
	}
	groups, err := Group(rows, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Children all have a blank marker, so re-grouping them cannot invent
	// a deeper level; it reports them as orphans instead.
	if _, err := Group(groups[0].Children, 0); !errors.Is(err, ErrOrphanRow) {
		t.Errorf("re-grouping children: err = %v, want ErrOrphanRow", err)
	}

	// Re-grouping the parents alone is stable.
	parents := []Row{groups[0].Parent}
	regrouped, err := Group(parents, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []RowGroup{{Parent: groups[0].Parent}}
	if diff := cmp.Diff(want, regrouped); diff != "" {
		t.Errorf("re-grouped parents mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupOrphanRow(t *testing.T) {
	rows := []Row{
		{Cols: []string{"", ".001", "orphan"}},
		{Cols: []string{"T1548", "parent"}},
	}
	_, err := Group(rows, 0)
	if !errors.Is(err, ErrOrphanRow) {
		t.Fatalf("err = %v, want ErrOrphanRow", err)
	}
}

func TestGroupMarkerBeyondRowWidth(t *testing.T) {
	// A row too short to have the marker column counts as a child.
	rows := []Row{
		{Cols: []string{"p", "x", "parent"}},
		{Cols: []string{"short"}},
	}
	groups, err := Group(rows, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || len(groups[0].Children) != 1 {
		t.Fatalf("groups = %+v, want one parent with one child", groups)
	}
}

func TestPropagate(t *testing.T) {
	rows := []Row{
		{Cols: []string{"T1548", "Process", "Process Creation", "detects a"}},
		{Cols: []string{"", "", "OS API Execution", "detects b"}},
		{Cols: []string{"", "Command", "Command Execution", "detects c"}},
	}

	got := Propagate(rows, 0, 1)

	want := []Row{
		{Cols: []string{"T1548", "Process", "Process Creation", "detects a"}},
		{Cols: []string{"T1548", "Process", "OS API Execution", "detects b"}},
		{Cols: []string{"T1548", "Command", "Command Execution", "detects c"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("propagated rows mismatch (-want +got):\n%s", diff)
	}

	// The input must stay untouched.
	if rows[1].Cols[0] != "" {
		t.Error("Propagate modified its input")
	}
}

func TestPropagateLeadingBlank(t *testing.T) {
	rows := []Row{
		{Cols: []string{"", "x"}},
		{Cols: []string{"a", "y"}},
	}
	got := Propagate(rows, 0)
	if got[0].Cols[0] != "" {
		t.Errorf("leading blank with no carry became %q", got[0].Cols[0])
	}
	if got[1].Cols[0] != "a" {
		t.Errorf("non-blank value changed to %q", got[1].Cols[0])
	}
}
