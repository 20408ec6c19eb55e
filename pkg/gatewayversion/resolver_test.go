package gatewayversion

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"empty", "", ""},
		{"already normalized", "4.0.0", "4.0.0"},
		{"snapshot suffix", "2.0.0-SNAPSHOT", "2.0.0"},
		{"build suffix", "4.1.2-rc.1", "4.1.2"},
		{"wildcard patch", "1.2.x", "1.2.0"},
		{"missing patch", "1.2", "1.2.0"},
		{"wildcard patch with suffix", "4.0.x-SNAPSHOT", "4.0.0"},
		{"major only untouched", "4", "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.version); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.version, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, version := range []string{"", "4.0.0", "1.2.x", "2.0.0-SNAPSHOT", "1.2"} {
		once := Normalize(version)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", version, once, twice)
		}
	}
}

func twoEntryCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog([]Descriptor{
		{
			ID:                      "4.1.0",
			Label:                   "4.1.x",
			Condition:               ">=4.1.0",
			BackwardsCompatibleWith: []string{"4.0.0"},
			RAMLVersionSupported:    "<=1.0.0",
		},
		{
			ID:                   "4.0.0",
			Label:                "4.0.x",
			Condition:            ">=4.0.0 <4.1.0",
			RAMLVersionSupported: "<=0.8.0",
		},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return catalog
}

func TestResolve(t *testing.T) {
	catalog := twoEntryCatalog(t)

	tests := []struct {
		name    string
		version string
		wantID  string
	}{
		{"matches first entry", "4.2.1", "4.1.0"},
		{"matches second entry", "4.0.5", "4.0.0"},
		{"wildcard resolves", "4.0.x", "4.0.0"},
		{"suffix stripped", "4.1.0-SNAPSHOT", "4.1.0"},
		{"below every entry", "3.9.0", ""},
		{"empty version", "", ""},
		{"garbage version", "not-a-version", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := catalog.Resolve(tt.version)
			if tt.wantID == "" {
				if entry != nil {
					t.Fatalf("Resolve(%q) = %v, want nil", tt.version, entry)
				}
				return
			}
			if entry == nil {
				t.Fatalf("Resolve(%q) = nil, want %q", tt.version, tt.wantID)
			}
			if entry.ID != tt.wantID {
				t.Errorf("Resolve(%q).ID = %q, want %q", tt.version, entry.ID, tt.wantID)
			}
		})
	}
}

func TestResolveCompatible(t *testing.T) {
	catalog := twoEntryCatalog(t)

	tests := []struct {
		name     string
		versions []string
		wantID   string
	}{
		{"empty set", nil, ""},
		{"single version", []string{"4.0.2"}, "4.0.0"},
		{"same entry twice", []string{"4.1.1", "4.2.0"}, "4.1.0"},
		{"backwards compatible pair", []string{"4.1.0", "4.0.1"}, "4.0.0"},
		{"unresolvable member", []string{"4.1.0", "3.0.0"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := catalog.ResolveCompatible(tt.versions)
			if tt.wantID == "" {
				if entry != nil {
					t.Fatalf("ResolveCompatible(%v) = %v, want nil", tt.versions, entry)
				}
				return
			}
			if entry == nil {
				t.Fatalf("ResolveCompatible(%v) = nil, want %q", tt.versions, tt.wantID)
			}
			if entry.ID != tt.wantID {
				t.Errorf("ResolveCompatible(%v).ID = %q, want %q", tt.versions, entry.ID, tt.wantID)
			}
		})
	}
}

func TestVersionsByRAML(t *testing.T) {
	catalog := twoEntryCatalog(t)

	matches := catalog.VersionsByRAML("1.0")
	if len(matches) != 1 || matches[0].ID != "4.1.0" {
		t.Fatalf("VersionsByRAML(1.0) = %v, want the 4.1.0 entry", matches)
	}

	matches = catalog.VersionsByRAML("0.8")
	if len(matches) != 2 {
		t.Fatalf("VersionsByRAML(0.8) returned %d entries, want 2", len(matches))
	}

	if matches := catalog.VersionsByRAML("junk"); matches != nil {
		t.Fatalf("VersionsByRAML(junk) = %v, want nil", matches)
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()
	entry := catalog.Resolve("4.0.1")
	if entry == nil || entry.ID != "4.0.0" {
		t.Fatalf("Default().Resolve(4.0.1) = %v, want the 4.0.0 entry", entry)
	}
}
