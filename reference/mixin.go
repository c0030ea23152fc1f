package reference

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/platform"
)

var (
	accessorNamePattern = regexp.MustCompile(`^(get|is|set)([A-Z].*?)(_\$md.*)?$`)
	invokerNamePattern  = regexp.MustCompile(`^(call|invoke|new|create)([A-Z].*?)(_\$md.*)?$`)
)

// decapitalize lowers the first letter of name unless name is all upper
// case, so that getURL keeps URL.
func decapitalize(name string) string {
	if name == "" || strings.ToUpper(name) == name {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}

// mixinMethodPattern matches sites on a method carrying the given mixin
// annotation: the method name, the annotation itself, or its value literal.
func mixinMethodPattern(name, annotation string) Pattern {
	return Pattern{
		Name: name,
		Match: func(g graph.Accessor, site *Site) bool {
			ctx := site.Java
			if ctx == nil || ctx.Method == nil || ctx.Method.Annotation(annotation) == nil {
				return false
			}
			if ctx.OnMethod {
				return true
			}
			return innermostAnnotation(site, annotation, "value") != nil
		},
	}
}

func mixinTargets(g graph.Accessor, site *Site) []*java.ClassModel {
	if site.Java == nil || site.Java.Class == nil {
		return nil
	}
	return graph.MixinTargets(g, site.Java.Class, graph.ProjectScope())
}

// AccessorStrategy links @Accessor methods to the target field they expose.
type AccessorStrategy struct{}

func (AccessorStrategy) Category() Category { return CategoryAccessorTarget }

func (AccessorStrategy) Patterns() []Pattern {
	return []Pattern{mixinMethodPattern("mixin-accessor", platform.Accessor)}
}

func (s AccessorStrategy) IsAnchor(g graph.Accessor, site *Site) bool {
	return matchesAny(s.Patterns(), g, site)
}

// AccessorTargetName returns the name of the field an accessor method
// exposes.
func AccessorTargetName(g graph.Accessor, method *java.MethodModel) (string, bool) {
	if ann := method.Annotation(platform.Accessor); ann != nil {
		if name, ok := graph.AttributeString(g, ann, "value", graph.ProjectScope()); ok && name != "" {
			return name, true
		}
	}
	m := accessorNamePattern.FindStringSubmatch(method.Name)
	if m == nil {
		return "", false
	}
	if m[1] == "is" && !method.ReturnType.IsBoolean() {
		return "", false
	}
	return decapitalize(m[2]), true
}

// findAccessorTarget finds the field named name in the first target class
// declaring it, or else the first simple getter or setter of that property.
func findAccessorTarget(targets []*java.ClassModel, name string) (Target, bool) {
	for _, cls := range targets {
		if f := cls.Field(name); f != nil {
			return Target{Kind: TargetField, Name: cls.Name + "." + f.Name, File: cls.SourceFile, Span: f.NameSpan}, true
		}
	}
	for _, cls := range targets {
		for i := range cls.Methods {
			m := &cls.Methods[i]
			if prop, ok := simpleAccessorProperty(cls, m); ok && prop == name {
				return Target{Kind: TargetMethod, Name: cls.Name + "." + m.Name, File: cls.SourceFile, Span: m.NameSpan}, true
			}
		}
	}
	return Target{}, false
}

// simpleAccessorProperty returns the property of a simple getter or setter:
// a no-argument getX/isX returning a field of its class, or a one-argument
// setX assigning its parameter to a field.
func simpleAccessorProperty(cls *java.ClassModel, m *java.MethodModel) (string, bool) {
	if m.IsConstructor || !m.HasBody {
		return "", false
	}
	match := accessorNamePattern.FindStringSubmatch(m.Name)
	if match == nil {
		return "", false
	}
	switch match[1] {
	case "get", "is":
		if len(m.Parameters) != 0 || m.ReturnType.IsVoid() || m.ReturnsField == "" || cls.Field(m.ReturnsField) == nil {
			return "", false
		}
		if match[1] == "is" && !m.ReturnType.IsBoolean() {
			return "", false
		}
	case "set":
		if len(m.Parameters) != 1 || m.AssignsField == "" || cls.Field(m.AssignsField) == nil {
			return "", false
		}
	}
	return decapitalize(match[2]), true
}

func (AccessorStrategy) Resolve(g graph.Accessor, site *Site) []Target {
	if site.Java == nil || site.Java.Method == nil {
		return nil
	}
	name, ok := AccessorTargetName(g, site.Java.Method)
	if !ok {
		return nil
	}
	if t, ok := findAccessorTarget(mixinTargets(g, site), name); ok {
		return []Target{t}
	}
	return nil
}

func (AccessorStrategy) CollectVariants(g graph.Accessor, site *Site) []Variant {
	var variants []Variant
	for _, cls := range mixinTargets(g, site) {
		for i := range cls.Fields {
			f := &cls.Fields[i]
			t := Target{Kind: TargetField, Name: cls.Name + "." + f.Name, File: cls.SourceFile, Span: f.NameSpan}
			variants = append(variants, Variant{Text: f.Name, Presentable: f.Name, TypeText: f.Type.String(), Target: &t})
		}
		for i := range cls.Methods {
			m := &cls.Methods[i]
			if _, ok := simpleAccessorProperty(cls, m); !ok {
				continue
			}
			t := Target{Kind: TargetMethod, Name: cls.Name + "." + m.Name, File: cls.SourceFile, Span: m.NameSpan}
			variants = append(variants, Variant{Text: m.Name, Presentable: m.Name + "()", TypeText: m.ReturnType.String(), Target: &t})
		}
	}
	return variants
}

// IsUnresolved reports accessors whose target classes are all known but
// declare no matching member.
func (s AccessorStrategy) IsUnresolved(g graph.Accessor, site *Site) bool {
	if site.Java == nil || site.Java.Method == nil || len(mixinTargets(g, site)) == 0 {
		return false
	}
	return len(s.Resolve(g, site)) == 0
}

// InvokerStrategy links @Invoker methods to the target method or
// constructor they call.
type InvokerStrategy struct{}

func (InvokerStrategy) Category() Category { return CategoryInvokerTarget }

func (InvokerStrategy) Patterns() []Pattern {
	return []Pattern{mixinMethodPattern("mixin-invoker", platform.Invoker)}
}

func (s InvokerStrategy) IsAnchor(g graph.Accessor, site *Site) bool {
	return matchesAny(s.Patterns(), g, site)
}

// InvokerTargetName returns the name of the method an invoker calls.
// Constructors are named <init>.
func InvokerTargetName(g graph.Accessor, method *java.MethodModel) (string, bool) {
	if ann := method.Annotation(platform.Invoker); ann != nil {
		if name, ok := graph.AttributeString(g, ann, "value", graph.ProjectScope()); ok && name != "" {
			return name, true
		}
	}
	m := invokerNamePattern.FindStringSubmatch(method.Name)
	if m == nil {
		return "", false
	}
	if m[1] == "new" || m[1] == "create" {
		return "<init>", true
	}
	return decapitalize(m[2]), true
}

func findInvokerTarget(targets []*java.ClassModel, name string, arity int) (Target, bool) {
	var fallback *Target
	for _, cls := range targets {
		for i := range cls.Methods {
			m := &cls.Methods[i]
			if m.Name != name {
				continue
			}
			t := Target{Kind: TargetMethod, Name: cls.Name + "." + m.Name, File: cls.SourceFile, Span: m.NameSpan}
			if len(m.Parameters) == arity {
				return t, true
			}
			if fallback == nil {
				fallback = &t
			}
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Target{}, false
}

func (InvokerStrategy) Resolve(g graph.Accessor, site *Site) []Target {
	if site.Java == nil || site.Java.Method == nil {
		return nil
	}
	name, ok := InvokerTargetName(g, site.Java.Method)
	if !ok {
		return nil
	}
	if t, ok := findInvokerTarget(mixinTargets(g, site), name, len(site.Java.Method.Parameters)); ok {
		return []Target{t}
	}
	return nil
}

func (InvokerStrategy) CollectVariants(g graph.Accessor, site *Site) []Variant {
	var variants []Variant
	for _, cls := range mixinTargets(g, site) {
		for i := range cls.Methods {
			m := &cls.Methods[i]
			t := Target{Kind: TargetMethod, Name: cls.Name + "." + m.Name, File: cls.SourceFile, Span: m.NameSpan}
			presentable := m.Name
			if m.IsConstructor {
				presentable = cls.SimpleName
			}
			variants = append(variants, Variant{
				Text:        m.Name,
				Presentable: presentable + "(" + parameterList(m) + ")",
				TypeText:    m.ReturnType.String(),
				Target:      &t,
			})
		}
	}
	return variants
}

func (s InvokerStrategy) IsUnresolved(g graph.Accessor, site *Site) bool {
	if site.Java == nil || site.Java.Method == nil || len(mixinTargets(g, site)) == 0 {
		return false
	}
	return len(s.Resolve(g, site)) == 0
}

func parameterList(m *java.MethodModel) string {
	types := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		types[i] = java.SimpleName(p.Type.String())
	}
	return strings.Join(types, ", ")
}
