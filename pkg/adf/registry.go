package adf

import (
	"fmt"
	"regexp"
	"strconv"
)

// Placeholder delimiters. NUL cannot appear in asciidoc source text, so a
// NUL-framed token never collides with author content.
const placeholderPrefix = "\x00adfnode:"
const placeholderSuffix = "\x00"

// placeholderPattern matches a registry placeholder embedded in text.
var placeholderPattern = regexp.MustCompile(`\x00adfnode:([0-9a-f]+)\x00`)

// Registry maps opaque ids to fully built inline nodes. Inline handlers
// register their output and embed the returned placeholder in plain text;
// the expansion pass at the end of a conversion resolves placeholders back
// into structured nodes. A Registry is scoped to one conversion and is not
// safe for concurrent use. Nested sub-document conversions share the outer
// registry by injection so ids resolve in the scope that expands them.
type Registry struct {
	next  int
	nodes map[int]*Node
}

// NewRegistry creates an empty registry with ids starting at 0.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[int]*Node)}
}

// Register stores a node and returns its placeholder token.
func (r *Registry) Register(node *Node) string {
	id := r.next
	r.next++
	r.nodes[id] = node
	return fmt.Sprintf("%s%x%s", placeholderPrefix, id, placeholderSuffix)
}

// Resolve returns the node for an id. Unknown ids report ok=false; callers
// keep the placeholder text verbatim rather than erroring so a later outer
// pass over a shared registry can still resolve it.
func (r *Registry) Resolve(id int) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Len reports the number of registered nodes.
func (r *Registry) Len() int { return len(r.nodes) }

// parsePlaceholderID decodes the hex id captured by placeholderPattern.
func parsePlaceholderID(hexID string) (int, bool) {
	id, err := strconv.ParseInt(hexID, 16, 64)
	if err != nil {
		return 0, false
	}
	return int(id), true
}
