// Package semver parses capability references and checks capability versions.
package semver

import (
	"fmt"
	"regexp"
	"strings"
)

const logPrefix = "semver:parser"

// CapabilityRef holds the parsed components of a capability reference string.
type CapabilityRef struct {
	// ID is the capability id without any version (e.g. "nasdaq.analyze_stock").
	ID string
	// Namespace is the segment before the first dot (e.g. "nasdaq").
	Namespace string
	// Action is everything after the first dot (e.g. "analyze_stock").
	Action string
	// Range is the version constraint after "@", or "" when absent.
	Range string
	Raw   string
}

var (
	actionRegex       = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)
	namespaceRegex    = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// ParseCapabilityRef parses a capability reference.
//
// Supported formats:
//   - nasdaq.analyze_stock           (no version)
//   - nasdaq.analyze_stock@1         (major only)
//   - nasdaq.analyze_stock@1.0.0     (exact version)
//   - nasdaq.analyze_stock@^1.2.0    (caret range)
//   - nasdaq.analyze_stock@>=1.0.0   (comparison range)
func ParseCapabilityRef(input string) (*CapabilityRef, error) {
	raw := strings.TrimSpace(input)

	idPart, rangeStr, _ := strings.Cut(raw, "@")

	namespace, action, found := strings.Cut(idPart, ".")
	if !found {
		return nil, fmt.Errorf("%s - invalid capability id, missing namespace: %s", logPrefix, raw)
	}
	if namespace == "" || action == "" {
		return nil, fmt.Errorf("%s - invalid capability id: %s", logPrefix, raw)
	}

	return &CapabilityRef{
		ID:        idPart,
		Namespace: namespace,
		Action:    action,
		Range:     rangeStr,
		Raw:       raw,
	}, nil
}

// ValidateCapabilityID reports whether id is a well-formed "namespace.action" id.
func ValidateCapabilityID(id string) error {
	ref, err := ParseCapabilityRef(id)
	if err != nil {
		return err
	}
	if ref.Range != "" {
		return fmt.Errorf("%s - capability id must not carry a version: %s", logPrefix, id)
	}
	if !namespaceRegex.MatchString(ref.Namespace) {
		return fmt.Errorf("%s - namespace must be lowercase alphanumeric with hyphens: %s", logPrefix, ref.Namespace)
	}
	if !actionRegex.MatchString(ref.Action) {
		return fmt.Errorf("%s - action must start with a letter and contain only letters, digits, dots, hyphens, underscores: %s", logPrefix, ref.Action)
	}
	return nil
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g., "3.2.1").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}

// ExtractMajorFromRange extracts the major version if the range is major-only.
// Returns -1 if not a major-only range.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	var major int
	fmt.Sscanf(rangeStr, "%d", &major)
	return major
}
