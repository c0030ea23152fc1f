// Package manifest is a structural view over a YAML plugin manifest
// (plugin.yml). It answers key lookups and maps positions back to keys; it
// does not validate the manifest against any schema.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/plugref/span"
)

// ErrNotMapping is returned when a key path leads to something that is not a
// mapping.
var ErrNotMapping = errors.New("not a mapping")

// Manifest is a parsed plugin manifest.
type Manifest struct {
	Path string
	root *yaml.Node
}

// Entry is one key/value pair of the manifest.
type Entry struct {
	Key       string
	Path      []string
	KeySpan   span.Span
	ValueSpan span.Span
	Value     *yaml.Node
}

// Scalar returns the entry's value when it is a scalar.
func (e *Entry) Scalar() (string, bool) {
	if e == nil || e.Value == nil || e.Value.Kind != yaml.ScalarNode {
		return "", false
	}
	return e.Value.Value, true
}

// QualifiedName joins the entry's key path with dots.
func (e *Entry) QualifiedName() string {
	return strings.Join(e.Path, ".")
}

// Parse parses content as a manifest. An empty document yields an empty
// manifest; a document whose top level is not a mapping is an error.
func Parse(path string, content []byte) (*Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m := &Manifest{Path: path}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		m.root = &yaml.Node{Kind: yaml.MappingNode}
		return m, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse manifest %s: top level: %w", path, ErrNotMapping)
	}
	m.root = root
	return m, nil
}

// Name returns the top-level name value.
func (m *Manifest) Name() string {
	name, _ := m.Scalar("name")
	return name
}

// Lookup finds the entry at a dotted key path, matching keys exactly.
func (m *Manifest) Lookup(qualified string) (*Entry, bool) {
	return m.lookup(splitPath(qualified), false)
}

// LookupFold is Lookup with case-insensitive key matching.
func (m *Manifest) LookupFold(qualified string) (*Entry, bool) {
	return m.lookup(splitPath(qualified), true)
}

func (m *Manifest) lookup(path []string, ignoreCase bool) (*Entry, bool) {
	if len(path) == 0 {
		return nil, false
	}
	node := m.root
	var entry *Entry
	for _, segment := range path {
		if node == nil || node.Kind != yaml.MappingNode {
			return nil, false
		}
		var found *Entry
		for j := 0; j+1 < len(node.Content); j += 2 {
			key := node.Content[j]
			if key.Value == segment || ignoreCase && strings.EqualFold(key.Value, segment) {
				found = newEntry(key, node.Content[j+1], append(pathPrefix(entry), key.Value))
				break
			}
		}
		if found == nil {
			return nil, false
		}
		entry = found
		node = found.Value
	}
	return entry, true
}

func pathPrefix(e *Entry) []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.Path...)
}

// Scalar returns the scalar value at a dotted key path.
func (m *Manifest) Scalar(qualified string) (string, bool) {
	e, ok := m.Lookup(qualified)
	if !ok {
		return "", false
	}
	return e.Scalar()
}

// Children returns the entries of the mapping at a dotted key path, in
// document order. The empty path names the top level.
func (m *Manifest) Children(qualified string) ([]*Entry, error) {
	node := m.root
	var prefix []string
	if qualified != "" {
		e, ok := m.Lookup(qualified)
		if !ok {
			return nil, nil
		}
		node = e.Value
		prefix = e.Path
	}
	if node.Kind != yaml.MappingNode {
		if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", qualified, ErrNotMapping)
	}
	var entries []*Entry
	for j := 0; j+1 < len(node.Content); j += 2 {
		path := append(append([]string(nil), prefix...), node.Content[j].Value)
		entries = append(entries, newEntry(node.Content[j], node.Content[j+1], path))
	}
	return entries, nil
}

// ChildKeys returns the keys of the mapping at a dotted key path.
func (m *Manifest) ChildKeys(qualified string) []string {
	entries, err := m.Children(qualified)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func newEntry(key, value *yaml.Node, path []string) *Entry {
	return &Entry{
		Key:       key.Value,
		Path:      path,
		KeySpan:   nodeSpan(key),
		ValueSpan: nodeSpan(value),
		Value:     value,
	}
}

// splitPath splits a dotted key path. Empty segments are dropped.
func splitPath(qualified string) []string {
	var path []string
	for _, s := range strings.Split(qualified, ".") {
		if s != "" {
			path = append(path, s)
		}
	}
	return path
}

// nodeSpan approximates the source range of a node. yaml.v3 only records
// start positions, so the end of a scalar is derived from its value and
// quoting style; collections end where their last child ends.
func nodeSpan(n *yaml.Node) span.Span {
	start := span.Position{Line: n.Line, Column: n.Column}
	switch n.Kind {
	case yaml.ScalarNode:
		width := len(n.Value)
		switch {
		case n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0:
			width += 2
		case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
			return span.Span{Start: start, End: start}
		}
		return span.Span{Start: start, End: span.Position{Line: n.Line, Column: n.Column + width}}
	case yaml.MappingNode, yaml.SequenceNode:
		if len(n.Content) == 0 {
			return span.Span{Start: start, End: start}
		}
		return span.Span{Start: start, End: nodeSpan(n.Content[len(n.Content)-1]).End}
	case yaml.AliasNode:
		return span.Span{Start: start, End: span.Position{Line: n.Line, Column: n.Column + len(n.Value) + 1}}
	}
	return span.Span{Start: start, End: start}
}
