package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Version is a release token such as "v257". Curated files occasionally carry
// bare-digit markers ("211"); ParseVersion normalizes both spellings to the
// v-prefixed form.
type Version string

// ParseVersion validates and normalizes a version token.
func ParseVersion(s string) (Version, error) {
	digits := strings.TrimPrefix(s, "v")
	if digits == "" {
		return "", fmt.Errorf("empty version")
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid version %q", s)
	}
	return Version("v" + digits), nil
}

// Num returns the numeric part of the version, or 0 for an invalid token.
func (v Version) Num() int {
	n, err := strconv.Atoi(strings.TrimPrefix(string(v), "v"))
	if err != nil {
		return 0
	}
	return n
}

// Compare returns -1, 0 or 1 ordering v against o by release number.
func (v Version) Compare(o Version) int {
	a, b := v.Num(), o.Num()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v Version) String() string {
	return string(v)
}

// SortVersions orders versions ascending by release number, in place.
func SortVersions(versions []Version) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) < 0
	})
}
