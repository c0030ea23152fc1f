package java

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type options struct {
	knownType func(string) bool
}

type Option func(*options)

// WithKnownTypes lets star imports resolve against names outside the
// compilation unit (library types, other project classes).
func WithKnownTypes(known func(qualifiedName string) bool) Option {
	return func(o *options) {
		o.knownType = known
	}
}

// ClassModelsFromSource parses a compilation unit and returns a model for
// every type declared in it, nested types included. Partial or invalid
// source yields the models tree-sitter could recover.
func ClassModelsFromSource(source []byte, path string, opts ...Option) ([]*ClassModel, error) {
	tree, err := parseTree(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	b := newBuilder(tree.RootNode(), source, path, opts...)
	b.build()
	return b.models, nil
}

// builder turns one parsed compilation unit into class models.
type builder struct {
	root     *sitter.Node
	source   []byte
	path     string
	resolver *typeResolver
	models   []*ClassModel
	stack    []*ClassModel // enclosing classes while building, innermost last
}

func newBuilder(root *sitter.Node, source []byte, path string, opts ...Option) *builder {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	pkg := packageFromCompilationUnit(root, source)
	return &builder{
		root:     root,
		source:   source,
		path:     path,
		resolver: newTypeResolver(pkg, importsFromCompilationUnit(root, source), o.knownType),
	}
}

func (b *builder) build() {
	b.registerInnerClasses(b.root, "")
	b.walkDeclarations(b.root)
}

func (b *builder) text(n *sitter.Node) string {
	return nodeText(n, b.source)
}

func packageFromCompilationUnit(root *sitter.Node, source []byte) string {
	for _, child := range namedChildren(root) {
		if child.Type() != "package_declaration" {
			continue
		}
		if name := firstChildOfType(child, "scoped_identifier", "identifier"); name != nil {
			return nodeText(name, source)
		}
	}
	return ""
}

func importsFromCompilationUnit(root *sitter.Node, source []byte) []importInfo {
	var imports []importInfo
	for _, child := range namedChildren(root) {
		if child.Type() != "import_declaration" {
			continue
		}
		imp := importInfo{}
		for i := 0; i < int(child.ChildCount()); i++ {
			c := child.Child(i)
			switch c.Type() {
			case "static":
				imp.isStatic = true
			case "asterisk":
				imp.isWildcard = true
			case "identifier", "scoped_identifier":
				imp.qualifiedName = nodeText(c, source)
			}
		}
		if imp.qualifiedName != "" {
			imports = append(imports, imp)
		}
	}
	return imports
}

// registerInnerClasses records every nested type under its simple name before
// any member is processed, so members can reference types declared later.
func (b *builder) registerInnerClasses(n *sitter.Node, outer string) {
	for _, child := range namedChildren(n) {
		if isTypeDeclaration(child) {
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			full := b.qualify(outer, b.text(name))
			if outer != "" {
				b.resolver.registerInnerClass(b.text(name), full)
			}
			b.registerInnerClasses(child.ChildByFieldName("body"), full)
			continue
		}
		switch child.Type() {
		case "enum_body_declarations", "class_body", "interface_body", "enum_body", "ERROR":
			b.registerInnerClasses(child, outer)
		}
	}
}

func (b *builder) qualify(outer, simple string) string {
	if outer != "" {
		return outer + "." + simple
	}
	if b.resolver.pkg != "" {
		return b.resolver.pkg + "." + simple
	}
	return simple
}

func (b *builder) walkDeclarations(n *sitter.Node) {
	for _, child := range namedChildren(n) {
		switch {
		case isTypeDeclaration(child):
			b.classModel(child)
		case child.Type() == "ERROR":
			b.walkDeclarations(child)
		}
	}
}

func (b *builder) classModel(node *sitter.Node) *ClassModel {
	var outer *ClassModel
	if len(b.stack) > 0 {
		outer = b.stack[len(b.stack)-1]
	}

	model := &ClassModel{
		Kind:       typeDeclarations[node.Type()],
		Package:    b.resolver.pkg,
		Visibility: VisibilityPackage,
		SourceFile: b.path,
		Span:       nodeSpan(node),
	}
	if name := node.ChildByFieldName("name"); name != nil {
		model.SimpleName = b.text(name)
		model.NameSpan = nodeSpan(name)
	}
	if outer != nil {
		model.Name = outer.Name + "." + model.SimpleName
		model.EnclosingClass = outer.Name
		outer.InnerClasses = append(outer.InnerClasses, model.Name)
		if outer.Kind == ClassKindInterface || outer.Kind == ClassKindAnnotation {
			model.IsStatic = true
		}
	} else {
		model.Name = b.qualify("", model.SimpleName)
	}

	b.models = append(b.models, model)
	b.stack = append(b.stack, model)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	if model.Kind == ClassKindInterface || model.Kind == ClassKindAnnotation {
		model.IsAbstract = true
	}

	switch model.Kind {
	case ClassKindInterface:
		if ext := firstChildOfType(node, "extends_interfaces"); ext != nil {
			model.Interfaces = b.typeList(ext)
		}
	default:
		if sc := node.ChildByFieldName("superclass"); sc != nil {
			if types := namedChildren(sc); len(types) > 0 {
				model.SuperClass = b.typeModel(types[0]).Name
			}
		}
		if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
			model.Interfaces = b.typeList(ifaces)
		}
	}
	if model.Kind == ClassKindEnum {
		model.SuperClass = "java.lang.Enum"
	}

	body := node.ChildByFieldName("body")
	members := b.bodyMembers(body)

	// Fields first so that annotations anywhere in the class can fold
	// references to the class's own constants.
	for _, m := range members {
		if m.Type() == "field_declaration" || m.Type() == "constant_declaration" {
			b.addFields(model, m)
		}
	}

	if mods := firstChildOfType(node, "modifiers"); mods != nil {
		b.applyModifiers(mods, &model.Visibility, &model.IsStatic, &model.IsFinal, &model.IsAbstract, &model.Annotations)
	}

	for _, m := range members {
		switch {
		case m.Type() == "method_declaration":
			model.Methods = append(model.Methods, b.methodModel(m, model))
		case m.Type() == "constructor_declaration" || m.Type() == "compact_constructor_declaration":
			model.Methods = append(model.Methods, b.methodModel(m, model))
		case isTypeDeclaration(m):
			b.classModel(m)
		}
	}
	return model
}

func (b *builder) bodyMembers(body *sitter.Node) []*sitter.Node {
	var members []*sitter.Node
	for _, child := range namedChildren(body) {
		if child.Type() == "enum_body_declarations" {
			members = append(members, namedChildren(child)...)
			continue
		}
		members = append(members, child)
	}
	return members
}

func (b *builder) typeList(n *sitter.Node) []string {
	var names []string
	for _, child := range namedChildren(n) {
		if child.Type() == "type_list" {
			names = append(names, b.typeList(child)...)
			continue
		}
		if t := b.typeModel(child); t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}

func (b *builder) typeModel(n *sitter.Node) TypeModel {
	if n == nil {
		return TypeModel{}
	}
	switch n.Type() {
	case "type_identifier", "scoped_type_identifier", "identifier", "scoped_identifier":
		return TypeModel{Name: b.resolver.resolve(b.text(n))}
	case "generic_type":
		if base := firstChildOfType(n, "type_identifier", "scoped_type_identifier"); base != nil {
			return TypeModel{Name: b.resolver.resolve(b.text(base))}
		}
	case "array_type":
		elem := b.typeModel(n.ChildByFieldName("element"))
		if dims := n.ChildByFieldName("dimensions"); dims != nil {
			elem.ArrayDepth += strings.Count(b.text(dims), "[")
		}
		return elem
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return TypeModel{Name: b.text(n)}
	case "annotated_type":
		children := namedChildren(n)
		if len(children) > 0 {
			return b.typeModel(children[len(children)-1])
		}
	}
	return TypeModel{Name: b.text(n)}
}

func (b *builder) applyModifiers(mods *sitter.Node, vis *Visibility, isStatic, isFinal, isAbstract *bool, anns *[]AnnotationModel) {
	for i := 0; i < int(mods.ChildCount()); i++ {
		c := mods.Child(i)
		switch c.Type() {
		case "public":
			*vis = VisibilityPublic
		case "protected":
			*vis = VisibilityProtected
		case "private":
			*vis = VisibilityPrivate
		case "static":
			*isStatic = true
		case "final":
			*isFinal = true
		case "abstract":
			*isAbstract = true
		case "annotation", "marker_annotation":
			*anns = append(*anns, b.annotationModel(c))
		}
	}
}

// addFields appends the fields of one declaration to cls. Each field is
// added before the next initializer is folded, so later constants can refer
// to earlier ones.
func (b *builder) addFields(cls *ClassModel, n *sitter.Node) {
	base := FieldModel{
		Type:       b.typeModel(n.ChildByFieldName("type")),
		Visibility: VisibilityPackage,
		Span:       nodeSpan(n),
	}
	if cls.Kind == ClassKindInterface || cls.Kind == ClassKindAnnotation {
		base.Visibility = VisibilityPublic
		base.IsStatic = true
		base.IsFinal = true
	}
	var unused bool
	if mods := firstChildOfType(n, "modifiers"); mods != nil {
		b.applyModifiers(mods, &base.Visibility, &base.IsStatic, &base.IsFinal, &unused, &base.Annotations)
	}

	for _, decl := range namedChildren(n) {
		if decl.Type() != "variable_declarator" {
			continue
		}
		f := base
		if name := decl.ChildByFieldName("name"); name != nil {
			f.Name = b.text(name)
			f.NameSpan = nodeSpan(name)
		}
		if dims := decl.ChildByFieldName("dimensions"); dims != nil {
			f.Type.ArrayDepth += strings.Count(b.text(dims), "[")
		}
		if value := decl.ChildByFieldName("value"); value != nil && f.IsFinal {
			if s, ok := b.constantString(value); ok {
				f.ConstantValue = &s
			}
		}
		cls.Fields = append(cls.Fields, f)
	}
}

func (b *builder) methodModel(n *sitter.Node, owner *ClassModel) MethodModel {
	m := MethodModel{
		Visibility: VisibilityPackage,
		Span:       nodeSpan(n),
	}
	if owner.Kind == ClassKindInterface {
		m.Visibility = VisibilityPublic
	}
	if name := n.ChildByFieldName("name"); name != nil {
		m.Name = b.text(name)
		m.NameSpan = nodeSpan(name)
	}
	if n.Type() != "method_declaration" {
		m.IsConstructor = true
		m.Name = "<init>"
		m.ReturnType = TypeModel{Name: "void"}
	} else {
		m.ReturnType = b.typeModel(n.ChildByFieldName("type"))
		if dims := n.ChildByFieldName("dimensions"); dims != nil {
			m.ReturnType.ArrayDepth += strings.Count(b.text(dims), "[")
		}
	}

	var isFinal bool
	if mods := firstChildOfType(n, "modifiers"); mods != nil {
		b.applyModifiers(mods, &m.Visibility, &m.IsStatic, &isFinal, &m.IsAbstract, &m.Annotations)
	}

	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			switch p.Type() {
			case "formal_parameter":
				param := ParameterModel{Type: b.typeModel(p.ChildByFieldName("type"))}
				if name := p.ChildByFieldName("name"); name != nil {
					param.Name = b.text(name)
				}
				if dims := p.ChildByFieldName("dimensions"); dims != nil {
					param.Type.ArrayDepth += strings.Count(b.text(dims), "[")
				}
				m.Parameters = append(m.Parameters, param)
			case "spread_parameter":
				param := ParameterModel{}
				for _, c := range namedChildren(p) {
					switch c.Type() {
					case "variable_declarator":
						if name := c.ChildByFieldName("name"); name != nil {
							param.Name = b.text(name)
						}
					case "modifiers":
					default:
						if param.Type.Name == "" {
							param.Type = b.typeModel(c)
						}
					}
				}
				param.Type.ArrayDepth++
				m.Parameters = append(m.Parameters, param)
			}
		}
	}

	body := n.ChildByFieldName("body")
	m.HasBody = body != nil
	if !m.HasBody && !m.IsConstructor && owner.Kind == ClassKindInterface && !m.IsStatic {
		m.IsAbstract = true
	}
	if body != nil {
		b.analyzeBody(body, &m)
	}
	return m
}

// analyzeBody detects the one-statement bodies of simple getters and setters.
func (b *builder) analyzeBody(body *sitter.Node, m *MethodModel) {
	stmts := namedChildren(body)
	if len(stmts) != 1 {
		return
	}
	stmt := stmts[0]
	switch stmt.Type() {
	case "return_statement":
		exprs := namedChildren(stmt)
		if len(exprs) == 1 {
			m.ReturnsField = b.fieldName(exprs[0])
		}
	case "expression_statement":
		exprs := namedChildren(stmt)
		if len(exprs) != 1 || exprs[0].Type() != "assignment_expression" || len(m.Parameters) != 1 {
			return
		}
		assign := exprs[0]
		op := assign.ChildByFieldName("operator")
		if op == nil || b.text(op) != "=" {
			return
		}
		right := assign.ChildByFieldName("right")
		if right == nil || right.Type() != "identifier" || b.text(right) != m.Parameters[0].Name {
			return
		}
		m.AssignsField = b.fieldName(assign.ChildByFieldName("left"))
	}
}

// fieldName returns f for the expressions `f` and `this.f`.
func (b *builder) fieldName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier":
		return b.text(n)
	case "field_access":
		obj := n.ChildByFieldName("object")
		field := n.ChildByFieldName("field")
		if obj != nil && obj.Type() == "this" && field != nil {
			return b.text(field)
		}
	case "parenthesized_expression":
		if inner := namedChildren(n); len(inner) == 1 {
			return b.fieldName(inner[0])
		}
	}
	return ""
}

func (b *builder) annotationModel(n *sitter.Node) AnnotationModel {
	ann := AnnotationModel{Span: nodeSpan(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		ann.Type = b.resolver.resolve(b.text(name))
	}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return ann
	}
	ann.Values = make(map[string]ElementValue)
	for _, arg := range namedChildren(args) {
		if arg.Type() == "element_value_pair" {
			key := arg.ChildByFieldName("key")
			value := arg.ChildByFieldName("value")
			if key == nil || value == nil {
				continue
			}
			ann.Values[b.text(key)] = b.elementValue(value)
			continue
		}
		ann.Values["value"] = b.elementValue(arg)
	}
	return ann
}

func (b *builder) elementValue(n *sitter.Node) ElementValue {
	ev := ElementValue{Kind: ValueOther, Span: nodeSpan(n)}
	switch n.Type() {
	case "annotation", "marker_annotation":
		ann := b.annotationModel(n)
		ev.Kind = ValueAnnotation
		ev.Annotation = &ann
		return ev
	case "element_value_array_initializer", "array_initializer":
		ev.Kind = ValueArray
		for _, child := range namedChildren(n) {
			ev.Elements = append(ev.Elements, b.elementValue(child))
		}
		return ev
	case "class_literal":
		ev.Kind = ValueClass
		if types := namedChildren(n); len(types) > 0 {
			ev.Str = b.typeModel(types[0]).Name
		}
		return ev
	}

	if s, ok := b.constantString(n); ok {
		ev.Kind = ValueString
		ev.Str = s
		return ev
	}
	if typ, field, ok := b.constantRef(n); ok {
		ev.Kind = ValueConstRef
		ev.RefType = typ
		ev.RefField = field
		return ev
	}
	ev.Str = b.text(n)
	return ev
}

// constantString folds string literals, parenthesized constants,
// concatenations and references to final string fields of the enclosing
// classes.
func (b *builder) constantString(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "string_literal":
		return decodeStringLiteral(b.text(n))
	case "parenthesized_expression":
		inner := namedChildren(n)
		if len(inner) != 1 {
			return "", false
		}
		return b.constantString(inner[0])
	case "binary_expression":
		op := n.ChildByFieldName("operator")
		if op == nil || b.text(op) != "+" {
			return "", false
		}
		left, ok := b.constantString(n.ChildByFieldName("left"))
		if !ok {
			return "", false
		}
		right, ok := b.constantString(n.ChildByFieldName("right"))
		if !ok {
			return "", false
		}
		return left + right, true
	case "identifier":
		return b.localConstant(b.text(n))
	case "field_access", "scoped_identifier":
		obj := n.ChildByFieldName("object")
		field := n.ChildByFieldName("field")
		if n.Type() == "scoped_identifier" {
			obj, field = n.ChildByFieldName("scope"), n.ChildByFieldName("name")
		}
		if obj == nil || field == nil {
			return "", false
		}
		typ := b.resolver.resolve(b.text(obj))
		for i := len(b.stack) - 1; i >= 0; i-- {
			if b.stack[i].Name == typ {
				return b.classConstant(b.stack[i], b.text(field))
			}
		}
	}
	return "", false
}

func (b *builder) localConstant(name string) (string, bool) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if s, ok := b.classConstant(b.stack[i], name); ok {
			return s, true
		}
		if b.stack[i].Field(name) != nil {
			return "", false
		}
	}
	return "", false
}

func (b *builder) classConstant(cls *ClassModel, name string) (string, bool) {
	f := cls.Field(name)
	if f == nil || f.ConstantValue == nil {
		return "", false
	}
	return *f.ConstantValue, true
}

// constantRef recognizes references to constants that live outside the
// enclosing classes: Type.NAME, a.b.Type.NAME and statically imported NAME.
func (b *builder) constantRef(n *sitter.Node) (string, string, bool) {
	switch n.Type() {
	case "field_access":
		obj := n.ChildByFieldName("object")
		field := n.ChildByFieldName("field")
		if obj == nil || field == nil {
			return "", "", false
		}
		switch obj.Type() {
		case "identifier", "field_access", "scoped_identifier":
			return b.resolver.resolve(b.text(obj)), b.text(field), true
		}
	case "scoped_identifier":
		scope := n.ChildByFieldName("scope")
		name := n.ChildByFieldName("name")
		if scope != nil && name != nil {
			return b.resolver.resolve(b.text(scope)), b.text(name), true
		}
	case "identifier":
		name := b.text(n)
		for i := len(b.stack) - 1; i >= 0; i-- {
			if b.stack[i].Field(name) != nil {
				return "", "", false
			}
		}
		if typ, ok := b.resolver.staticImport(name); ok {
			return typ, name, true
		}
	}
	return "", "", false
}
