// Package reference resolves string literals, annotated methods and manifest
// values of plugin projects to the declarations they name, and enumerates
// completion candidates for them.
//
// Every query is computed from the graph.Accessor it is given. Nothing is
// cached between calls and strategies hold no state, so an Engine may be
// shared freely between goroutines.
package reference

import (
	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/span"
)

// Category identifies the kind of reference a strategy owns.
type Category string

const (
	CategoryCommand        Category = "command"
	CategoryPluginID       Category = "plugin-id"
	CategoryAssetPath      Category = "asset-path"
	CategoryAccessorTarget Category = "accessor-target"
	CategoryInvokerTarget  Category = "invoker-target"
	CategoryMainClass      Category = "main-class"
)

type TargetKind string

const (
	TargetType        TargetKind = "type"
	TargetField       TargetKind = "field"
	TargetMethod      TargetKind = "method"
	TargetManifestKey TargetKind = "manifest-key"
	TargetFile        TargetKind = "file"
	TargetDirectory   TargetKind = "directory"
)

// Target is a declaration a reference resolves to.
type Target struct {
	Kind TargetKind
	// Name is the qualified name of a type, Type.member for members, the
	// dotted key path of a manifest key, or the relative path of a file.
	Name string
	File string
	Span span.Span
}

// Variant is a completion candidate.
type Variant struct {
	// Text is inserted into the document.
	Text        string
	Presentable string
	// TypeText is shown next to the candidate, e.g. the owning plugin.
	TypeText string
	// Priority orders candidates, higher first.
	Priority int
	Target   *Target
}

// Pattern recognizes reference sites of one syntactic shape.
type Pattern struct {
	Name  string
	Match func(g graph.Accessor, site *Site) bool
}

// Strategy resolves and completes one category of references.
type Strategy interface {
	Category() Category
	// Patterns lists the anchors the strategy owns, in priority order.
	Patterns() []Pattern
	IsAnchor(g graph.Accessor, site *Site) bool
	Resolve(g graph.Accessor, site *Site) []Target
	CollectVariants(g graph.Accessor, site *Site) []Variant
	// IsUnresolved reports whether the site should be flagged as naming
	// nothing.
	IsUnresolved(g graph.Accessor, site *Site) bool
}

func matchesAny(patterns []Pattern, g graph.Accessor, site *Site) bool {
	for _, p := range patterns {
		if p.Match(g, site) {
			return true
		}
	}
	return false
}
