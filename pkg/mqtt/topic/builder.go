package topic

import (
	"strings"
)

// Standard MQTT wildcards.
const (
	// Wildcard matches exactly one topic level.
	Wildcard = "+"

	// MultiWildcard matches the current level and every level below it.
	MultiWildcard = "#"
)

// Builder constructs topic strings of the form {root}/{segment}/{id}.
type Builder struct {
	root string
}

// NewBuilder creates a Builder rooted at the given namespace, e.g. "rfmapper/v1".
// Leading and trailing slashes are trimmed.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Root returns the namespace the builder was created with.
func (b *Builder) Root() string {
	return b.root
}

// Build returns {root}/{segment}/{id}. An empty root is omitted.
func (b *Builder) Build(segment, id string) string {
	parts := make([]string, 0, 3)
	if b.root != "" {
		parts = append(parts, b.root)
	}
	parts = append(parts, strings.Trim(segment, "/"), id)
	return strings.Join(parts, "/")
}

// Wildcard returns the filter matching a segment for every identifier.
func (b *Builder) Wildcard(segment string) string {
	return b.Build(segment, Wildcard)
}
