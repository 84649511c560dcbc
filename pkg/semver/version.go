package semver

import (
	"fmt"

	masterminds "github.com/Masterminds/semver/v3"
)

const versionLogPrefix = "semver:version"

// ValidateVersion returns an error unless v is a strict MAJOR.MINOR.PATCH version.
func ValidateVersion(v string) error {
	if _, err := masterminds.StrictNewVersion(v); err != nil {
		return fmt.Errorf("%s - invalid version %q: %w", versionLogPrefix, v, err)
	}
	return nil
}

// SatisfiesRange checks if a version string satisfies a range.
// An empty range matches every valid version.
func SatisfiesRange(version, rangeStr string) bool {
	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return false
	}
	if rangeStr == "" {
		return true
	}
	if IsMajorOnly(rangeStr) {
		return int(sv.Major()) == ExtractMajorFromRange(rangeStr)
	}
	if IsExactVersion(rangeStr) {
		return Compare(version, rangeStr) == 0
	}

	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return false
	}
	return constraint.Check(sv)
}

// Compare returns -1, 0 or 1 as a is lower, equal or higher than b.
// Unparseable versions sort below every valid one.
func Compare(a, b string) int {
	va, errA := masterminds.NewVersion(a)
	vb, errB := masterminds.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}
