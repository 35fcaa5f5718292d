// Package symbol validates trading-pair symbols and provides an unordered
// set type with case-insensitive equality.
package symbol

import (
	"sort"
	"strings"
)

// Length bounds. Config entries are held to the tighter exchange-listing
// range; messages arriving on the stream allow the full wire range.
const (
	MinLen       = 4
	MaxConfigLen = 12
	MaxStreamLen = 20
)

// isAlnum reports whether s is non-empty ASCII letters and digits only.
func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// ValidConfig reports whether s is acceptable as a configured symbol
// (alphanumeric, 4-12 characters).
func ValidConfig(s string) bool {
	return len(s) >= MinLen && len(s) <= MaxConfigLen && isAlnum(s)
}

// ValidStream reports whether s is acceptable on an inbound stream message
// (alphanumeric, 4-20 characters).
func ValidStream(s string) bool {
	return len(s) >= MinLen && len(s) <= MaxStreamLen && isAlnum(s)
}

// Set is an unordered collection of uppercase symbols. Ordering and
// duplicates of the input are ignored.
type Set map[string]struct{}

// NewSet builds a Set from symbols, uppercasing each. Empty strings are
// skipped.
func NewSet(symbols ...string) Set {
	s := make(Set, len(symbols))
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		s[strings.ToUpper(sym)] = struct{}{}
	}
	return s
}

// Contains reports membership, case-insensitively.
func (s Set) Contains(sym string) bool {
	_, ok := s[strings.ToUpper(sym)]
	return ok
}

// Equal reports set equality.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for sym := range s {
		if _, ok := o[sym]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Key returns a canonical string form, stable across input ordering.
// Used as a cache key.
func (s Set) Key() string {
	return strings.Join(s.Sorted(), ",")
}

// Intersect returns the members of s that are also in o.
func (s Set) Intersect(o Set) Set {
	out := make(Set)
	for sym := range s {
		if _, ok := o[sym]; ok {
			out[sym] = struct{}{}
		}
	}
	return out
}
