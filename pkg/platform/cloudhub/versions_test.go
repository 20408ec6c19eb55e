package cloudhub

import (
	"testing"

	"github.com/Masterminds/semver/v3"
)

func mustConstraint(t *testing.T, rng string) *semver.Constraints {
	t.Helper()
	c, err := semver.NewConstraint(rng)
	if err != nil {
		t.Fatalf("NewConstraint(%q): %v", rng, err)
	}
	return c
}

func TestFilterRuntimeVersions(t *testing.T) {
	catalog := []MuleVersion{
		{Version: "4.1.1-API-GATEWAY", State: "ACTIVE"},
		{Version: "API-GATEWAY-4.1.2", State: "ACTIVE"},
		{Version: "API Gateway 4.1.3", State: "ACTIVE"},
		{Version: "4.1.4", State: "ACTIVE"},
		{Version: "4.1.5-API-GATEWAY-hf1", State: "ACTIVE"},
		{Version: "api gateway 4.1.6", State: "ACTIVE"},
		{Version: "4.1.7", State: "DEPRECATED"},
		{Version: "4.2.0-SNAPSHOT", State: "ACTIVE"},
		{Version: "weird-name", State: "ACTIVE"},
		{Version: "3.9.0", State: "ACTIVE"},
	}

	got := filterRuntimeVersions(catalog, mustConstraint(t, ">=4.0.0"))

	want := []string{
		"4.1.1-API-GATEWAY", "API-GATEWAY-4.1.2", "API Gateway 4.1.3",
		"4.1.4", "4.1.5-API-GATEWAY-hf1", "api gateway 4.1.6",
	}
	if len(got) != len(want) {
		t.Fatalf("kept %d versions, want %d: %+v", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("candidate %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestFindSuitableVersion(t *testing.T) {
	candidates := []RuntimeVersion{
		{Semver: semver.MustParse("4.1.1"), Name: "4.1.1-API-GATEWAY"},
		{Semver: semver.MustParse("4.2.0"), Name: "4.2.0"},
		{Semver: semver.MustParse("4.1.4"), Name: "4.1.4"},
	}

	tests := []struct {
		name     string
		wanted   string
		wantName string
	}{
		{"highest in range", ">=4.1.0 <4.2.0", "4.1.4"},
		{"whole range", ">=4.0.0", "4.2.0"},
		{"exact match", "4.1.1", "4.1.1-API-GATEWAY"},
		{"nothing satisfies", ">=5.0.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindSuitableVersion(candidates, mustConstraint(t, tt.wanted))
			if got.Name != tt.wantName {
				t.Errorf("FindSuitableVersion(%q).Name = %q, want %q", tt.wanted, got.Name, tt.wantName)
			}
		})
	}
}

func TestFindSuitableVersionEmptyCandidates(t *testing.T) {
	got := FindSuitableVersion(nil, mustConstraint(t, ">=4.0.0"))
	if got.Name != "" {
		t.Errorf("Name = %q, want empty sentinel", got.Name)
	}
	if got.Semver == nil || !got.Semver.Equal(semver.MustParse("0.0.0")) {
		t.Errorf("Semver = %v, want 0.0.0 sentinel", got.Semver)
	}
}
