package java

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	javagrammar "github.com/smacker/go-tree-sitter/java"

	"github.com/dhamidi/plugref/span"
)

// parseTree parses Java source with tree-sitter. Syntax errors do not fail
// the parse; they show up as ERROR nodes in the tree. Callers must Close the
// returned tree.
func parseTree(source []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(javagrammar.GetLanguage())

	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse java: %w", err)
	}
	return tree, nil
}

func nodeText(n *sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}

func nodeSpan(n *sitter.Node) span.Span {
	return span.Span{Start: toPosition(n.StartPoint()), End: toPosition(n.EndPoint())}
}

func toPosition(p sitter.Point) span.Position {
	return span.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func toPoint(p span.Position) sitter.Point {
	row, col := p.Line-1, p.Column-1
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	return sitter.Point{Row: uint32(row), Column: uint32(col)}
}

func pointLess(a, b sitter.Point) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Column < b.Column
}

// isComment reports whether n is a comment node. Comments are named nodes in
// the Java grammar and can appear between any two tokens.
func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

// namedChildren returns the named, non-comment children of n.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	result := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || isComment(c) {
			continue
		}
		result = append(result, c)
	}
	return result
}

// firstChildOfType returns the first child (named or not) whose type is one of types.
func firstChildOfType(n *sitter.Node, types ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

// deepestNodeAt returns the innermost named node containing pos. A node that
// strictly contains pos wins over a sibling that merely ends at pos.
func deepestNodeAt(n *sitter.Node, pos sitter.Point) *sitter.Node {
	for {
		next := childAt(n, pos)
		if next == nil {
			return n
		}
		n = next
	}
}

func childAt(n *sitter.Node, pos sitter.Point) *sitter.Node {
	var touching *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		start, end := c.StartPoint(), c.EndPoint()
		if pointLess(pos, start) {
			break
		}
		if pointLess(pos, end) {
			return c
		}
		if pos == end && touching == nil {
			touching = c
		}
	}
	return touching
}

var typeDeclarations = map[string]ClassKind{
	"class_declaration":           ClassKindClass,
	"interface_declaration":       ClassKindInterface,
	"enum_declaration":            ClassKindEnum,
	"record_declaration":          ClassKindRecord,
	"annotation_type_declaration": ClassKindAnnotation,
}

func isTypeDeclaration(n *sitter.Node) bool {
	_, ok := typeDeclarations[n.Type()]
	return ok
}

// decodeStringLiteral returns the value of a string_literal node's text,
// including text blocks.
func decodeStringLiteral(text string) (string, bool) {
	if strings.HasPrefix(text, `"""`) {
		body := strings.TrimPrefix(text, `"""`)
		if !strings.HasSuffix(body, `"""`) {
			return "", false
		}
		body = strings.TrimSuffix(body, `"""`)
		if i := strings.IndexByte(body, '\n'); i >= 0 {
			body = body[i+1:]
		}
		return unescape(body)
	}
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", false
	}
	return unescape(text[1 : len(text)-1])
}

func unescape(s string) (string, bool) {
	if !strings.ContainsRune(s, '\\') {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 's':
			b.WriteByte(' ')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case '\n':
		case 'u':
			for i < len(s) && s[i] == 'u' {
				i++
			}
			if i+4 > len(s) {
				return "", false
			}
			r, err := strconv.ParseUint(s[i:i+4], 16, 32)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(r))
			i += 3
		default:
			if s[i] >= '0' && s[i] <= '7' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				v, _ := strconv.ParseUint(s[i:j], 8, 32)
				if v <= utf8.MaxRune {
					b.WriteRune(rune(v))
				}
				i = j - 1
				continue
			}
			return "", false
		}
	}
	return b.String(), true
}
