package attck

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fwxs/mitre-cli/internal/webfetch"
)

func TestParseDomain(t *testing.T) {
	for _, s := range []string{"enterprise", " Mobile ", "ICS"} {
		if _, err := ParseDomain(s); err != nil {
			t.Errorf("ParseDomain(%q) = %v", s, err)
		}
	}
	if _, err := ParseDomain("cloud"); err == nil {
		t.Error("ParseDomain accepted an unknown domain")
	}
}

func TestSplitAssociated(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"APT28", []string{"APT28"}},
		{"IRON TWILIGHT, SNAKEMACKEREL , Swallowtail", []string{"IRON TWILIGHT", "SNAKEMACKEREL", "Swallowtail"}},
		{" , ", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitAssociated(tt.in)); diff != "" {
			t.Errorf("splitAssociated(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestTactics(t *testing.T) {
	fake := &webfetch.Fake{Body: `<table>
		<thead><tr><th>ID</th><th>Name</th><th>Description</th></tr></thead>
		<tbody>
			<tr><td>TA0001</td><td>Initial Access</td><td>Getting in.</td></tr>
			<tr><td>TA0002</td><td>Execution</td><td>Running
			code.</td></tr>
		</tbody>
	</table>`}

	tactics, err := NewClient(fake).Tactics(context.Background(), Enterprise)
	if err != nil {
		t.Fatal(err)
	}

	want := []TacticRow{
		{ID: "TA0001", Name: "Initial Access", Description: "Getting in."},
		{ID: "TA0002", Name: "Execution", Description: "Running code."},
	}
	if diff := cmp.Diff(want, tactics); diff != "" {
		t.Errorf("tactics mismatch (-want +got):\n%s", diff)
	}

	wantURL := "https://attack.mitre.org/tactics/enterprise/"
	if len(fake.Requested) != 1 || fake.Requested[0] != wantURL {
		t.Errorf("requested %v, want [%s]", fake.Requested, wantURL)
	}
}

func TestTacticsEmptyPage(t *testing.T) {
	fake := &webfetch.Fake{Body: `<html><body><p>maintenance</p></body></html>`}
	tactics, err := NewClient(fake).Tactics(context.Background(), Mobile)
	if err != nil {
		t.Fatal(err)
	}
	if tactics != nil {
		t.Errorf("table-less page returned %v, want nil", tactics)
	}
}

func TestTechniques(t *testing.T) {
	fake := &webfetch.Fake{Body: `<table><tbody>
		<tr><td>T1548</td><td>Abuse Elevation Control Mechanism</td><td>Abusing
		elevation.</td></tr>
		<tr><td></td><td>.001</td><td>Setuid and Setgid</td><td>Setuid abuse.</td></tr>
		<tr><td></td><td>.002</td><td>Bypass User Account Control</td><td>UAC bypass.</td></tr>
		<tr><td>T1566</td><td>Phishing</td><td>Phishing people.</td></tr>
	</tbody></table>`}

	techniques, err := NewClient(fake).Techniques(context.Background(), Enterprise)
	if err != nil {
		t.Fatal(err)
	}

	want := []TechniqueRow{
		{
			ID: "T1548", Name: "Abuse Elevation Control Mechanism",
			Description: "Abusing\nelevation.",
			SubTechniques: []SubTechniqueRow{
				{ID: ".001", Name: "Setuid and Setgid", Description: "Setuid abuse."},
				{ID: ".002", Name: "Bypass User Account Control", Description: "UAC bypass."},
			},
		},
		{ID: "T1566", Name: "Phishing", Description: "Phishing people."},
	}
	if diff := cmp.Diff(want, techniques); diff != "" {
		t.Errorf("techniques mismatch (-want +got):\n%s", diff)
	}
}

func TestTechniquesOrphanRow(t *testing.T) {
	fake := &webfetch.Fake{Body: `<table><tbody>
		<tr><td></td><td>.001</td><td>Orphan</td><td>no parent</td></tr>
	</tbody></table>`}

	_, err := NewClient(fake).Techniques(context.Background(), Enterprise)
	if err == nil {
		t.Fatal("orphan sub-technique row did not fail")
	}
}

func TestFetchErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	fake := &webfetch.Fake{Err: wantErr}
	if _, err := NewClient(fake).Groups(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestGroups(t *testing.T) {
	fake := &webfetch.Fake{Body: `<table><tbody>
		<tr><td>G0007</td><td>APT28</td><td>IRON TWILIGHT, SNAKEMACKEREL</td><td>APT28 is a threat group.</td></tr>
		<tr><td>G0016</td><td>APT29</td><td></td><td>APT29 is a threat group.</td></tr>
	</tbody></table>`}

	groups, err := NewClient(fake).Groups(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := []GroupRow{
		{
			ID: "G0007", Name: "APT28",
			AssociatedGroups: []string{"IRON TWILIGHT", "SNAKEMACKEREL"},
			Description:      "APT28 is a threat group.",
		},
		{ID: "G0016", Name: "APT29", Description: "APT29 is a threat group."},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}

	if fake.Requested[0] != "https://attack.mitre.org/groups/" {
		t.Errorf("requested %s", fake.Requested[0])
	}
}
