package completion

import (
	"fmt"
	"slices"
	"strings"
)

// Ordering selects where underscore-prefixed names are placed.
type Ordering string

const (
	// UnderscoresLast places public names first, then _private names, then __special__ names.
	UnderscoresLast Ordering = "underscoresLast"
	// UnderscoresFirst places __special__ names first, then _private names, then public names.
	UnderscoresFirst Ordering = "underscoresFirst"
)

// ParseOrdering validates an ordering name. An empty name selects UnderscoresLast.
func ParseOrdering(name string) (Ordering, error) {
	switch Ordering(name) {
	case "", UnderscoresLast:
		return UnderscoresLast, nil
	case UnderscoresFirst:
		return UnderscoresFirst, nil
	default:
		return "", fmt.Errorf("unknown completion ordering %q", name)
	}
}

type nameGroup int

const (
	_groupPublic nameGroup = iota
	_groupPrivate
	_groupSpecial
)

func groupOf(name string) nameGroup {
	switch {
	case len(name) >= 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return _groupSpecial
	case strings.HasPrefix(name, "_"):
		return _groupPrivate
	default:
		return _groupPublic
	}
}

// CompareNames orders a before b under o. Names differing only by case are ordered ordinally, so only identical names
// compare equal.
func CompareNames(a, b string, o Ordering) int {
	ga, gb := groupOf(a), groupOf(b)
	if ga != gb {
		if o == UnderscoresFirst {
			return int(gb) - int(ga)
		}
		return int(ga) - int(gb)
	}
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Order returns a copy of candidates sorted by name under o.
func Order(candidates []Candidate, o Ordering) []Candidate {
	result := slices.Clone(candidates)
	slices.SortStableFunc(result, func(a, b Candidate) int {
		return CompareNames(a.Name, b.Name, o)
	})
	return result
}
