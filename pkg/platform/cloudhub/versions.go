package cloudhub

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CloudHub publishes runtime images under several naming conventions.
// Names are matched case-insensitively on their prefix, so hotfix suffixes
// like "4.1.4-API-GATEWAY-hf1" still resolve. Every pattern captures the
// bare semver in group 1.
var runtimeNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(\d+\.\d+\.\d+)-API-GATEWAY`),
	regexp.MustCompile(`(?i)^API-GATEWAY-(\d+\.\d+\.\d+)`),
	regexp.MustCompile(`(?i)^API Gateway (\d+\.\d+\.\d+)`),
	regexp.MustCompile(`^(\d+\.\d+\.\d+)`),
}

// parseRuntimeName extracts the semver from a runtime image name, or
// returns nil when the name follows none of the known conventions.
func parseRuntimeName(name string) *semver.Version {
	for _, pattern := range runtimeNamePatterns {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		v, err := semver.NewVersion(m[1])
		if err != nil {
			return nil
		}
		return v
	}
	return nil
}

// filterRuntimeVersions keeps the catalog entries that are deployable:
// active, non-snapshot, named by a known convention and inside the
// supported range. The result is in catalog order.
func filterRuntimeVersions(catalog []MuleVersion, supported *semver.Constraints) []RuntimeVersion {
	var out []RuntimeVersion
	for _, entry := range catalog {
		if entry.State != "ACTIVE" {
			continue
		}
		if strings.Contains(entry.Version, "SNAPSHOT") {
			continue
		}
		v := parseRuntimeName(entry.Version)
		if v == nil {
			continue
		}
		if supported != nil && !supported.Check(v) {
			continue
		}
		out = append(out, RuntimeVersion{Semver: v, Name: entry.Version})
	}
	return out
}

// versionSentinel is the starting point for the suitable-version scan.
// When no candidate satisfies the wanted range the sentinel's empty name
// flows into the application spec and the platform rejects it, which
// keeps range mismatches visible at deploy time instead of silently
// pinning an arbitrary runtime.
var versionSentinel = semver.MustParse("0.0.0")

// FindSuitableVersion picks the highest candidate satisfying wanted,
// scanning left to right and keeping strictly greater matches. The
// returned RuntimeVersion has an empty Name when nothing satisfies.
func FindSuitableVersion(candidates []RuntimeVersion, wanted *semver.Constraints) RuntimeVersion {
	best := RuntimeVersion{Semver: versionSentinel}
	for _, candidate := range candidates {
		if candidate.Semver == nil {
			continue
		}
		if wanted != nil && !wanted.Check(candidate.Semver) {
			continue
		}
		if candidate.Semver.GreaterThan(best.Semver) {
			best = candidate
		}
	}
	return best
}
