package java

import "github.com/dhamidi/plugref/span"

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	VisibilityPackage   Visibility = "package"
)

type ClassKind string

const (
	ClassKindClass      ClassKind = "class"
	ClassKindInterface  ClassKind = "interface"
	ClassKindEnum       ClassKind = "enum"
	ClassKindAnnotation ClassKind = "annotation"
	ClassKindRecord     ClassKind = "record"
)

// ClassModel is a type declared in a source file. Nested types are separate
// models whose EnclosingClass names the outer type.
type ClassModel struct {
	Name           string
	SimpleName     string
	Package        string
	SuperClass     string
	Interfaces     []string
	Visibility     Visibility
	Kind           ClassKind
	IsFinal        bool
	IsAbstract     bool
	IsStatic       bool
	SourceFile     string
	Span           span.Span
	NameSpan       span.Span
	EnclosingClass string
	InnerClasses   []string
	Annotations    []AnnotationModel
	Fields         []FieldModel
	Methods        []MethodModel
}

type FieldModel struct {
	Name        string
	Type        TypeModel
	Visibility  Visibility
	IsStatic    bool
	IsFinal     bool
	Span        span.Span
	NameSpan    span.Span
	Annotations []AnnotationModel
	// ConstantValue holds the value of a final field initialized with a
	// compile-time string constant.
	ConstantValue *string
}

type MethodModel struct {
	Name          string
	ReturnType    TypeModel
	Parameters    []ParameterModel
	Visibility    Visibility
	IsStatic      bool
	IsAbstract    bool
	IsConstructor bool
	HasBody       bool
	Span          span.Span
	NameSpan      span.Span
	Annotations   []AnnotationModel
	// ReturnsField is set when the body is exactly `return f;` or
	// `return this.f;`.
	ReturnsField string
	// AssignsField is set when the body is exactly `f = p;` or
	// `this.f = p;` where p is the only parameter.
	AssignsField string
}

type ParameterModel struct {
	Name string
	Type TypeModel
}

type TypeModel struct {
	Name       string
	ArrayDepth int
}

func (t TypeModel) IsPrimitive() bool {
	if t.ArrayDepth > 0 {
		return false
	}
	switch t.Name {
	case "boolean", "byte", "char", "short", "int", "long", "float", "double":
		return true
	}
	return false
}

func (t TypeModel) IsVoid() bool {
	return t.Name == "void" && t.ArrayDepth == 0
}

func (t TypeModel) IsBoolean() bool {
	return t.Name == "boolean" && t.ArrayDepth == 0
}

func (t TypeModel) String() string {
	s := t.Name
	for i := 0; i < t.ArrayDepth; i++ {
		s += "[]"
	}
	return s
}

type AnnotationModel struct {
	Type   string
	Span   span.Span
	Values map[string]ElementValue
}

// Value returns the attribute with the given name.
func (a *AnnotationModel) Value(name string) (ElementValue, bool) {
	if a == nil || a.Values == nil {
		return ElementValue{}, false
	}
	v, ok := a.Values[name]
	return v, ok
}

type ValueKind string

const (
	ValueString     ValueKind = "string"
	ValueConstRef   ValueKind = "constref"
	ValueClass      ValueKind = "class"
	ValueAnnotation ValueKind = "annotation"
	ValueArray      ValueKind = "array"
	ValueOther      ValueKind = "other"
)

// ElementValue is an annotation attribute value.
//
// ValueString carries an already folded constant in Str. ValueConstRef is a
// reference to a constant declared in another type (RefType.RefField) that
// can only be folded against the whole project. ValueClass holds the
// resolved type of a class literal in Str.
type ElementValue struct {
	Kind       ValueKind
	Str        string
	RefType    string
	RefField   string
	Annotation *AnnotationModel
	Elements   []ElementValue
	Span       span.Span
}

// Flatten returns the value itself, or its elements when it is an array.
func (v ElementValue) Flatten() []ElementValue {
	if v.Kind == ValueArray {
		return v.Elements
	}
	return []ElementValue{v}
}

// Annotation returns the annotation of the given qualified type.
func (c *ClassModel) Annotation(typeName string) *AnnotationModel {
	return findAnnotation(c.Annotations, typeName)
}

func (m *MethodModel) Annotation(typeName string) *AnnotationModel {
	return findAnnotation(m.Annotations, typeName)
}

func findAnnotation(anns []AnnotationModel, typeName string) *AnnotationModel {
	for i := range anns {
		if anns[i].Type == typeName {
			return &anns[i]
		}
	}
	return nil
}

// Field returns the field with the given name declared directly in c.
func (c *ClassModel) Field(name string) *FieldModel {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// MethodsByName returns the methods with the given name declared directly in c.
func (c *ClassModel) MethodsByName(name string) []*MethodModel {
	var result []*MethodModel
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			result = append(result, &c.Methods[i])
		}
	}
	return result
}

// Constructors returns the constructors declared in c.
func (c *ClassModel) Constructors() []*MethodModel {
	var result []*MethodModel
	for i := range c.Methods {
		if c.Methods[i].IsConstructor {
			result = append(result, &c.Methods[i])
		}
	}
	return result
}
