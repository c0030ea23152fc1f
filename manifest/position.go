package manifest

import (
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/plugref/span"
)

// Location is what lies under a position in the manifest.
type Location struct {
	Entry *Entry
	// OnKey is set when the position is on the entry's key rather than its
	// value.
	OnKey bool
	// Scalar is the scalar value under the position: the entry's value, or
	// an item of the entry's sequence value.
	Scalar *yaml.Node
	Span   span.Span
	// SequenceIndex is the index of Scalar in the entry's sequence, or -1.
	SequenceIndex int
	// Prefix is the scalar text before the position.
	Prefix string
}

// Path returns the key path of the entry under the position.
func (l *Location) Path() []string {
	return l.Entry.Path
}

// At maps a position back to the innermost entry containing it. It returns
// nil when the position is outside every entry.
func (m *Manifest) At(pos span.Position) *Location {
	return locate(m.root, nil, pos)
}

func locate(node *yaml.Node, prefix []string, pos span.Position) *Location {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for j := 0; j+1 < len(node.Content); j += 2 {
		key, value := node.Content[j], node.Content[j+1]
		path := append(append([]string(nil), prefix...), key.Value)
		entry := newEntry(key, value, path)

		if entry.KeySpan.Contains(pos) {
			return &Location{Entry: entry, OnKey: true, Span: entry.KeySpan, SequenceIndex: -1, Prefix: prefixOf(key, pos)}
		}
		if !entry.ValueSpan.Contains(pos) {
			continue
		}
		switch value.Kind {
		case yaml.ScalarNode:
			return &Location{Entry: entry, Scalar: value, Span: entry.ValueSpan, SequenceIndex: -1, Prefix: prefixOf(value, pos)}
		case yaml.MappingNode:
			if loc := locate(value, path, pos); loc != nil {
				return loc
			}
		case yaml.SequenceNode:
			for i, item := range value.Content {
				itemSpan := nodeSpan(item)
				if !itemSpan.Contains(pos) {
					continue
				}
				if item.Kind == yaml.ScalarNode {
					return &Location{Entry: entry, Scalar: item, Span: itemSpan, SequenceIndex: i, Prefix: prefixOf(item, pos)}
				}
				if loc := locate(item, path, pos); loc != nil {
					return loc
				}
			}
		}
	}
	return nil
}

func prefixOf(n *yaml.Node, pos span.Position) string {
	if n.Kind != yaml.ScalarNode || pos.Line != n.Line {
		return ""
	}
	offset := pos.Column - n.Column
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		offset--
	}
	if offset <= 0 {
		return ""
	}
	if offset > len(n.Value) {
		offset = len(n.Value)
	}
	return n.Value[:offset]
}

// Values returns a location for every scalar value and scalar sequence item
// in document order.
func (m *Manifest) Values() []*Location {
	var result []*Location
	var walk func(node *yaml.Node, prefix []string)
	walk = func(node *yaml.Node, prefix []string) {
		if node == nil || node.Kind != yaml.MappingNode {
			return
		}
		for j := 0; j+1 < len(node.Content); j += 2 {
			key, value := node.Content[j], node.Content[j+1]
			path := append(append([]string(nil), prefix...), key.Value)
			entry := newEntry(key, value, path)
			switch value.Kind {
			case yaml.ScalarNode:
				result = append(result, &Location{Entry: entry, Scalar: value, Span: entry.ValueSpan, SequenceIndex: -1})
			case yaml.MappingNode:
				walk(value, path)
			case yaml.SequenceNode:
				for i, item := range value.Content {
					if item.Kind == yaml.ScalarNode {
						result = append(result, &Location{Entry: entry, Scalar: item, Span: nodeSpan(item), SequenceIndex: i})
						continue
					}
					walk(item, path)
				}
			}
		}
	}
	walk(m.root, nil)
	return result
}
