// Package gatewayversion resolves requested gateway versions against the
// static gateway version catalog. The catalog is immutable after
// construction; every operation is a pure function over it.
package gatewayversion

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Descriptor is one catalog entry describing a known gateway version line.
type Descriptor struct {
	// ID is the canonical version id, e.g. "4.0.0".
	ID string

	// Label is the human readable label, e.g. "4.0.x".
	Label string

	// ProxyFileNameSuffix is appended to generated proxy file names.
	ProxyFileNameSuffix string

	// Condition is the semver range a requested version must satisfy to
	// resolve to this entry.
	Condition string

	// BackwardsCompatibleWith lists ids of entries this version can replace.
	BackwardsCompatibleWith []string

	// RAMLVersionSupported is the semver range of RAML versions this
	// gateway line supports.
	RAMLVersionSupported string
}

// Catalog is an immutable set of gateway version descriptors with their
// pre-parsed range constraints.
type Catalog struct {
	entries    []Descriptor
	conditions []*semver.Constraints
	ramlRanges []*semver.Constraints
}

// NewCatalog builds a catalog from descriptors, validating every range.
func NewCatalog(entries []Descriptor) (*Catalog, error) {
	c := &Catalog{
		entries:    make([]Descriptor, len(entries)),
		conditions: make([]*semver.Constraints, len(entries)),
		ramlRanges: make([]*semver.Constraints, len(entries)),
	}
	copy(c.entries, entries)

	for i, entry := range entries {
		cond, err := semver.NewConstraint(entry.Condition)
		if err != nil {
			return nil, fmt.Errorf("gateway version %q: invalid condition %q: %w", entry.ID, entry.Condition, err)
		}
		c.conditions[i] = cond

		if entry.RAMLVersionSupported != "" {
			raml, err := semver.NewConstraint(entry.RAMLVersionSupported)
			if err != nil {
				return nil, fmt.Errorf("gateway version %q: invalid raml range %q: %w", entry.ID, entry.RAMLVersionSupported, err)
			}
			c.ramlRanges[i] = raml
		}
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	catalog, err := NewCatalog([]Descriptor{
		{
			ID:                      "4.0.0",
			Label:                   "4.0.x",
			ProxyFileNameSuffix:     "4.0.x",
			Condition:               ">=4.0.0",
			BackwardsCompatibleWith: []string{},
			RAMLVersionSupported:    "<=1.0.0",
		},
	})
	if err != nil {
		// The built-in catalog is a compile-time constant.
		panic(err)
	}
	return catalog
}

// All returns the catalog entries in declaration order.
func (c *Catalog) All() []Descriptor {
	entries := make([]Descriptor, len(c.entries))
	copy(entries, c.entries)
	return entries
}

var (
	wildcardPatch = regexp.MustCompile(`^\d+\.\d+\.x`)
	missingPatch  = regexp.MustCompile(`^(\d+\.\d+)$`)
)

// Normalize returns a version number usable in comparisons: any
// pre-release or build suffix is stripped (2.0.0-SNAPSHOT -> 2.0.0) and a
// wildcard or missing patch part becomes .0 (1.2.x and 1.2 -> 1.2.0).
// Normalize is idempotent; the empty string normalizes to itself.
func Normalize(version string) string {
	if version == "" {
		return ""
	}

	normalized, _, _ := strings.Cut(version, "-")

	if wildcardPatch.MatchString(normalized) || missingPatch.MatchString(normalized) {
		parts := strings.Split(normalized, ".")
		normalized = parts[0] + "." + parts[1] + ".0"
	}
	return normalized
}

// Resolve returns the first catalog entry whose condition the normalized
// version satisfies, or nil when the version is empty, unparseable or
// matches no entry.
func (c *Catalog) Resolve(version string) *Descriptor {
	normalized := Normalize(version)
	if normalized == "" {
		return nil
	}
	v, err := semver.NewVersion(normalized)
	if err != nil {
		return nil
	}
	for i := range c.entries {
		if c.conditions[i].Check(v) {
			entry := c.entries[i]
			return &entry
		}
	}
	return nil
}

// ResolveCompatible resolves a set of requested versions to the single
// catalog entry able to serve all of them: versions are walked from highest
// to lowest and each step must resolve to the same entry as the previous
// one or to an entry the previous one is backwards compatible with. It
// returns nil when the versions span incompatible entries.
func (c *Catalog) ResolveCompatible(versions []string) *Descriptor {
	if len(versions) == 0 {
		return nil
	}
	if len(versions) == 1 {
		return c.Resolve(versions[0])
	}

	normalized := make([]string, len(versions))
	for i, version := range versions {
		normalized[i] = Normalize(version)
	}
	sort.Slice(normalized, func(i, j int) bool {
		a, errA := semver.NewVersion(normalized[i])
		b, errB := semver.NewVersion(normalized[j])
		if errA != nil || errB != nil {
			return normalized[i] > normalized[j]
		}
		return a.GreaterThan(b)
	})

	previous := c.Resolve(normalized[0])
	for _, version := range normalized[1:] {
		current := c.Resolve(version)
		if previous == nil || current == nil {
			return nil
		}
		if previous.ID != current.ID && !contains(previous.BackwardsCompatibleWith, current.ID) {
			return nil
		}
		previous = current
	}
	return previous
}

// VersionsByRAML returns the catalog entries supporting the given RAML
// version.
func (c *Catalog) VersionsByRAML(ramlVersion string) []Descriptor {
	normalized := Normalize(ramlVersion)
	v, err := semver.NewVersion(normalized)
	if err != nil {
		return nil
	}

	var matches []Descriptor
	for i := range c.entries {
		if c.ramlRanges[i] != nil && c.ramlRanges[i].Check(v) {
			matches = append(matches, c.entries[i])
		}
	}
	return matches
}

func contains(haystack []string, needle string) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}
