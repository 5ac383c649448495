package publishers

import (
	"fmt"
	"slices"
	"strings"
)

// KindFilter selects the event kinds a publisher receives. Entries are exact
// kinds, a family wildcard such as "customer.*", or "*". An empty filter
// accepts everything.
type KindFilter []string

// Accepts reports whether events of kind pass the filter.
func (f KindFilter) Accepts(kind string) bool {
	if len(f) == 0 {
		return true
	}
	for _, pattern := range f {
		if matchKind(pattern, kind) {
			return true
		}
	}
	return false
}

func matchKind(pattern, kind string) bool {
	if pattern == "*" || pattern == kind {
		return true
	}
	prefix, ok := strings.CutSuffix(pattern, "*")
	return ok && strings.HasSuffix(prefix, ".") && strings.HasPrefix(kind, prefix)
}

// sanitizeKinds lowercases entries and drops blanks and repeats.
func sanitizeKinds(kinds []string) KindFilter {
	var out KindFilter
	for _, k := range kinds {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || slices.Contains(out, k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// validateKinds rejects patterns that can never match a watcher event, which
// would otherwise silence a publisher without any error.
func validateKinds(kinds KindFilter) error {
	for _, pattern := range kinds {
		if !slices.ContainsFunc(KnownKinds, func(kind string) bool { return matchKind(pattern, kind) }) {
			return fmt.Errorf("kind %q matches no event (known: %s)", pattern, strings.Join(KnownKinds, ", "))
		}
	}
	return nil
}
