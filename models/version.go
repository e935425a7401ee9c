package models

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// VersionTag is a parsed protocol version. Versions are parsed once at the
// boundary and passed around as values; they are never persisted on their own
// (resources keep the original string in their ob_version column).
//
// A missing patch component parses as patch 0, which is the lowest value under
// the total order, so "3.1" sorts below "3.1.5".
type VersionTag struct {
	raw string
	v   *semver.Version
}

// ParseVersion parses a "major.minor[.patch]" version identifier, with or
// without a leading "v".
func ParseVersion(s string) (VersionTag, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return VersionTag{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return VersionTag{raw: s, v: v}, nil
}

// MustParseVersion is for fixtures and tests with known-good literals.
func MustParseVersion(s string) VersionTag {
	t, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t VersionTag) String() string {
	return t.raw
}

// Compare orders by major, then minor, then patch. Returns -1, 0 or 1.
func (t VersionTag) Compare(other VersionTag) int {
	return t.v.Compare(other.v)
}

// AtLeast reports whether t >= other. A resource created under version Vc is
// readable by a caller on version Vr exactly when Vr.AtLeast(Vc): the newer
// schema is a superset of the older one, while an older-version caller could
// not correctly interpret fields introduced after its version.
func (t VersionTag) AtLeast(other VersionTag) bool {
	return t.v.Compare(other.v) >= 0
}
