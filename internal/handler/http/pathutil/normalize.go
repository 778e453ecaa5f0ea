// Package pathutil maps request paths to a bounded set of metric labels.
package pathutil

import (
	"regexp"
	"strings"
)

// Unmatched is the label used for every path that is not a known route.
const Unmatched = "unmatched"

var (
	numericSegment = regexp.MustCompile(`^\d+$`)
	uuidSegment    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Normalizer turns request paths into route templates so metric label
// cardinality stays bounded no matter what clients request.
type Normalizer struct {
	routes map[string]struct{}
}

// NewNormalizer returns a Normalizer that knows the given route templates.
// Templates may use ":id" for numeric or UUID segments.
func NewNormalizer(routes ...string) *Normalizer {
	n := &Normalizer{routes: make(map[string]struct{}, len(routes))}
	for _, r := range routes {
		n.routes[r] = struct{}{}
	}
	return n
}

// Normalize returns the route template for path.
//
//	Normalize("/ready")          // "/ready"
//	Normalize("/ready/")         // "/ready"
//	Normalize("/ready?verbose")  // "/ready"
//	Normalize("/items/42")       // "/items/:id" when registered
//	Normalize("/wp-login.php")   // "unmatched"
func (n *Normalizer) Normalize(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if path == "" {
		path = "/"
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	if _, ok := n.routes[path]; ok {
		return path
	}

	if templated := templateIDs(path); templated != path {
		if _, ok := n.routes[templated]; ok {
			return templated
		}
	}
	return Unmatched
}

func templateIDs(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if numericSegment.MatchString(s) || uuidSegment.MatchString(s) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// Cardinality returns the maximum number of distinct labels Normalize can
// produce.
func (n *Normalizer) Cardinality() int {
	return len(n.routes) + 1
}
