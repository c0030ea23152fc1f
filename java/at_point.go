package java

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dhamidi/plugref/platform"
	"github.com/dhamidi/plugref/span"
)

// PointContext describes the syntactic surroundings of a position in a Java
// file: the string expression under it, the call and annotations that
// contain that expression, and the enclosing declarations.
type PointContext struct {
	File string
	// Span covers the string literal under the position, or the method name
	// for method sites.
	Span span.Span
	// Value is the folded value of the whole string expression around the
	// literal ("a" + "b" folds to "ab"). Constant is false when folding
	// failed.
	Value     string
	Constant  bool
	IsLiteral bool
	// Prefix is the literal's text between the opening quote and the position.
	Prefix string

	Call        *CallSite
	Annotations []AnnotationSite // innermost first

	Class   *ClassModel
	Classes []*ClassModel // enclosing classes, innermost first
	Method  *MethodModel
	// OnMethod is set when the position is on a method's name or inside one
	// of its annotations.
	OnMethod bool
}

// CallSite is a method invocation whose argument list holds the site.
type CallSite struct {
	Name     string
	ArgIndex int
	Receiver *Receiver
}

// Receiver is the object a method is invoked on. Exactly one of Type and
// Call is set; Call is used when the receiver is itself an invocation whose
// type only the whole project can tell.
type Receiver struct {
	Type   string
	Static bool
	Call   *CallSite
}

// AnnotationSite is an annotation containing the site and the attribute the
// site is the value of.
type AnnotationSite struct {
	Type      string
	Attribute string
	Model     *AnnotationModel
}

// Annotation returns the innermost containing annotation of the given type.
func (c *PointContext) Annotation(typeName string) *AnnotationSite {
	for i := range c.Annotations {
		if c.Annotations[i].Type == typeName {
			return &c.Annotations[i]
		}
	}
	return nil
}

// ContextAt computes the context of pos in source. It returns nil when the
// position is neither inside a string literal nor on a method site.
func ContextAt(source []byte, path string, pos span.Position, opts ...Option) (*PointContext, error) {
	tree, err := parseTree(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	f := newPointFinder(tree.RootNode(), source, path, opts...)
	node := deepestNodeAt(tree.RootNode(), toPoint(pos))
	if node == nil {
		return nil, nil
	}
	if lit := enclosingOfType(node, "string_literal"); lit != nil {
		ctx := f.literalContext(lit)
		ctx.Prefix = literalPrefix(source, lit, pos)
		return ctx, nil
	}
	if method, onMethod := f.methodSiteNode(node); onMethod {
		return f.methodContext(method, node), nil
	}
	return nil, nil
}

// Contexts returns the context of every string expression and of every
// annotated method in source, in source order.
func Contexts(source []byte, path string, opts ...Option) ([]*PointContext, error) {
	tree, err := parseTree(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	f := newPointFinder(tree.RootNode(), source, path, opts...)
	var result []*PointContext
	seen := make(map[uint32]bool)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "string_literal":
			expr := siteExpression(n)
			if !seen[expr.StartByte()] {
				seen[expr.StartByte()] = true
				result = append(result, f.literalContext(n))
			}
			return
		case "method_declaration", "constructor_declaration":
			if mods := firstChildOfType(n, "modifiers"); mods != nil && hasAnnotation(mods) {
				if name := n.ChildByFieldName("name"); name != nil {
					result = append(result, f.methodContext(n, name))
				}
			}
		}
		for _, child := range namedChildren(n) {
			walk(child)
		}
	}
	walk(tree.RootNode())

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Span.Start.Before(result[j].Span.Start)
	})
	return result, nil
}

type pointFinder struct {
	*builder
}

func newPointFinder(root *sitter.Node, source []byte, path string, opts ...Option) *pointFinder {
	b := newBuilder(root, source, path, opts...)
	b.build()
	return &pointFinder{builder: b}
}

func hasAnnotation(mods *sitter.Node) bool {
	return firstChildOfType(mods, "annotation", "marker_annotation") != nil
}

func enclosingOfType(n *sitter.Node, types ...string) *sitter.Node {
	for ; n != nil; n = n.Parent() {
		for _, t := range types {
			if n.Type() == t {
				return n
			}
		}
	}
	return nil
}

// siteExpression returns the outermost string expression built from lit by
// concatenation and parentheses.
func siteExpression(lit *sitter.Node) *sitter.Node {
	expr := lit
	for p := expr.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "parenthesized_expression":
		case "binary_expression":
			if op := p.ChildByFieldName("operator"); op == nil || op.Type() != "+" {
				return expr
			}
		default:
			return expr
		}
		expr = p
	}
	return expr
}

// enter sets up the enclosing class chain of n so that constants fold
// against the right classes. It returns the chain innermost first.
func (f *pointFinder) enter(n *sitter.Node) []*ClassModel {
	pos := nodeSpan(n).Start
	var chain []*ClassModel
	for _, m := range f.models {
		if m.Span.Contains(pos) {
			chain = append(chain, m)
		}
	}
	// Models are recorded outer before inner, so chain is outermost first.
	f.stack = chain
	inner := make([]*ClassModel, len(chain))
	for i, m := range chain {
		inner[len(chain)-1-i] = m
	}
	return inner
}

func (f *pointFinder) literalContext(lit *sitter.Node) *PointContext {
	classes := f.enter(lit)
	expr := siteExpression(lit)
	value, ok := f.constantString(expr)
	if !ok {
		value, _ = decodeStringLiteral(f.text(lit))
	}
	ctx := &PointContext{
		File:      f.path,
		Span:      nodeSpan(lit),
		Value:     value,
		Constant:  ok,
		IsLiteral: true,
		Classes:   classes,
	}
	if len(classes) > 0 {
		ctx.Class = classes[0]
		ctx.Method = enclosingMethod(ctx.Class, lit)
	}
	ctx.Call, ctx.Annotations = f.containers(expr)
	return ctx
}

func (f *pointFinder) methodContext(method, at *sitter.Node) *PointContext {
	classes := f.enter(method)
	ctx := &PointContext{
		File:     f.path,
		Classes:  classes,
		OnMethod: true,
	}
	if name := method.ChildByFieldName("name"); name != nil {
		ctx.Span = nodeSpan(name)
	}
	if len(classes) > 0 {
		ctx.Class = classes[0]
		ctx.Method = enclosingMethod(ctx.Class, method)
	}
	if ann := enclosingOfType(at, "annotation", "marker_annotation"); ann != nil && nodeWithin(ann, method) {
		ctx.Annotations = f.annotationChain(ann, "")
	}
	return ctx
}

// methodSiteNode reports whether n is a method's name or lies inside the
// method's modifiers.
func (f *pointFinder) methodSiteNode(n *sitter.Node) (*sitter.Node, bool) {
	method := enclosingOfType(n, "method_declaration", "constructor_declaration")
	if method == nil {
		return nil, false
	}
	if name := method.ChildByFieldName("name"); name != nil && nodeWithin(n, name) {
		return method, true
	}
	if mods := firstChildOfType(method, "modifiers"); mods != nil && nodeWithin(n, mods) {
		return method, true
	}
	return nil, false
}

func nodeWithin(n, outer *sitter.Node) bool {
	return n.StartByte() >= outer.StartByte() && n.EndByte() <= outer.EndByte()
}

func enclosingMethod(cls *ClassModel, n *sitter.Node) *MethodModel {
	pos := nodeSpan(n).Start
	for i := range cls.Methods {
		if cls.Methods[i].Span.Contains(pos) {
			return &cls.Methods[i]
		}
	}
	return nil
}

// containers walks up from a site expression through the argument list of a
// call or through annotation attributes.
func (f *pointFinder) containers(expr *sitter.Node) (*CallSite, []AnnotationSite) {
	p := expr.Parent()
	if p == nil {
		return nil, nil
	}
	if p.Type() == "argument_list" {
		inv := p.Parent()
		if inv == nil || inv.Type() != "method_invocation" {
			return nil, nil
		}
		call := f.callSite(inv)
		for i, arg := range namedChildren(p) {
			if arg.StartByte() == expr.StartByte() {
				call.ArgIndex = i
			}
		}
		return call, nil
	}
	return nil, f.annotationChain(expr, "")
}

// annotationChain collects the annotations n is nested in, innermost first.
func (f *pointFinder) annotationChain(n *sitter.Node, attribute string) []AnnotationSite {
	var chain []AnnotationSite
	for p := n; p != nil; p = p.Parent() {
		switch p.Type() {
		case "element_value_array_initializer":
		case "element_value_pair":
			if key := p.ChildByFieldName("key"); key != nil {
				attribute = f.text(key)
			}
		case "annotation_argument_list":
			if attribute == "" {
				attribute = "value"
			}
		case "annotation", "marker_annotation":
			model := f.annotationModel(p)
			chain = append(chain, AnnotationSite{Type: model.Type, Attribute: attribute, Model: &model})
			attribute = ""
		default:
			if p != n {
				return chain
			}
		}
	}
	return chain
}

func (f *pointFinder) callSite(inv *sitter.Node) *CallSite {
	call := &CallSite{}
	if name := inv.ChildByFieldName("name"); name != nil {
		call.Name = f.text(name)
	}
	call.Receiver = f.receiver(inv.ChildByFieldName("object"), inv)
	return call
}

// receiver describes the object expression of an invocation. A nil object
// is the implicit this.
func (f *pointFinder) receiver(obj, at *sitter.Node) *Receiver {
	if obj == nil || obj.Type() == "this" {
		if len(f.stack) == 0 {
			return nil
		}
		return &Receiver{Type: f.stack[len(f.stack)-1].Name}
	}
	switch obj.Type() {
	case "super":
		if len(f.stack) == 0 {
			return nil
		}
		if super := f.stack[len(f.stack)-1].SuperClass; super != "" {
			return &Receiver{Type: super}
		}
		return &Receiver{Type: platform.JavaObject}
	case "identifier":
		name := f.text(obj)
		if r := f.variable(name, at); r != nil {
			return r
		}
		return &Receiver{Type: f.resolver.resolve(name), Static: true}
	case "field_access":
		if inner := obj.ChildByFieldName("object"); inner != nil && inner.Type() == "this" {
			if field := obj.ChildByFieldName("field"); field != nil {
				return f.fieldReceiver(f.text(field))
			}
		}
		return &Receiver{Type: f.resolver.resolve(f.text(obj)), Static: true}
	case "scoped_identifier", "type_identifier", "scoped_type_identifier":
		return &Receiver{Type: f.resolver.resolve(f.text(obj)), Static: true}
	case "method_invocation":
		return &Receiver{Call: f.callSite(obj)}
	case "object_creation_expression":
		return &Receiver{Type: f.typeModel(obj.ChildByFieldName("type")).Name}
	case "cast_expression":
		return &Receiver{Type: f.typeModel(obj.ChildByFieldName("type")).Name}
	case "parenthesized_expression":
		if inner := namedChildren(obj); len(inner) == 1 {
			return f.receiver(inner[0], at)
		}
	}
	return nil
}

// variable finds the declaration of name visible at node: locals declared
// before it, then parameters, then fields of the enclosing classes.
func (f *pointFinder) variable(name string, at *sitter.Node) *Receiver {
	for p := at; p != nil; p = p.Parent() {
		switch p.Type() {
		case "block", "constructor_body", "switch_block_statement_group":
			for _, stmt := range namedChildren(p) {
				if stmt.EndByte() > at.StartByte() {
					break
				}
				if stmt.Type() != "local_variable_declaration" {
					continue
				}
				if r := f.declared(stmt, name, at); r != nil {
					return r
				}
			}
		case "enhanced_for_statement":
			if n := p.ChildByFieldName("name"); n != nil && f.text(n) == name {
				return &Receiver{Type: f.typeModel(p.ChildByFieldName("type")).Name}
			}
		case "method_declaration", "constructor_declaration", "lambda_expression":
			if params := p.ChildByFieldName("parameters"); params != nil {
				for _, param := range namedChildren(params) {
					if n := param.ChildByFieldName("name"); n != nil && f.text(n) == name {
						t := f.typeModel(param.ChildByFieldName("type"))
						return &Receiver{Type: t.String()}
					}
				}
			}
		case "class_body", "interface_body", "enum_body":
			return f.fieldReceiver(name)
		}
	}
	return nil
}

func (f *pointFinder) declared(decl *sitter.Node, name string, at *sitter.Node) *Receiver {
	typeNode := decl.ChildByFieldName("type")
	for _, d := range namedChildren(decl) {
		if d.Type() != "variable_declarator" {
			continue
		}
		n := d.ChildByFieldName("name")
		if n == nil || f.text(n) != name {
			continue
		}
		if typeNode != nil && f.text(typeNode) == "var" {
			if value := d.ChildByFieldName("value"); value != nil {
				return f.receiver(value, at)
			}
			return nil
		}
		return &Receiver{Type: f.typeModel(typeNode).String()}
	}
	return nil
}

func (f *pointFinder) fieldReceiver(name string) *Receiver {
	for i := len(f.stack) - 1; i >= 0; i-- {
		if field := f.stack[i].Field(name); field != nil {
			return &Receiver{Type: field.Type.String()}
		}
	}
	return nil
}

// literalPrefix returns the literal's content up to pos.
func literalPrefix(source []byte, lit *sitter.Node, pos span.Position) string {
	offset := byteOffset(source, pos)
	start := int(lit.StartByte()) + 1
	end := int(lit.EndByte()) - 1
	if offset < start || end < start {
		return ""
	}
	if offset > end {
		offset = end
	}
	return string(source[start:offset])
}

// byteOffset converts a 1-based line and byte column to an offset into source.
func byteOffset(source []byte, pos span.Position) int {
	line := 1
	offset := 0
	for offset < len(source) && line < pos.Line {
		if source[offset] == '\n' {
			line++
		}
		offset++
	}
	offset += pos.Column - 1
	if offset > len(source) {
		return len(source)
	}
	if offset < 0 {
		return 0
	}
	return offset
}
