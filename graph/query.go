package graph

import (
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/platform"
)

// DirectSupertypes returns the superclass and interfaces of a type, using
// the project's classes first and the library table otherwise.
func DirectSupertypes(g Accessor, typeName string, scope Scope) []string {
	if cls := g.FindType(typeName, scope); cls != nil {
		var supers []string
		if cls.SuperClass != "" {
			supers = append(supers, cls.SuperClass)
		}
		return append(supers, cls.Interfaces...)
	}
	return platform.LibrarySupertypes(typeName)
}

// Hierarchy returns typeName followed by all its supertypes, breadth first.
func Hierarchy(g Accessor, typeName string, scope Scope) []string {
	if typeName == "" {
		return nil
	}
	seen := map[string]bool{typeName: true}
	result := []string{typeName}
	for i := 0; i < len(result); i++ {
		for _, super := range DirectSupertypes(g, result[i], scope) {
			if !seen[super] {
				seen[super] = true
				result = append(result, super)
			}
		}
	}
	return result
}

// IsSubtype reports whether typeName is superName or inherits from it.
func IsSubtype(g Accessor, typeName, superName string, scope Scope) bool {
	for _, t := range Hierarchy(g, typeName, scope) {
		if t == superName {
			return true
		}
	}
	return false
}

// HierarchyKnown reports whether every type in the hierarchy of typeName is
// either a project class or a library type with known supertypes. When it
// is not, IsSubtype can miss supertypes and a negative answer proves nothing.
func HierarchyKnown(g Accessor, typeName string, scope Scope) bool {
	for _, t := range Hierarchy(g, typeName, scope) {
		if g.FindType(t, scope) == nil && !platform.IsKnownLibraryType(t) {
			return false
		}
	}
	return true
}

// ReturnType returns the declared return type of method on owner, looking
// through the owner's supertypes. Methods declared in the project win over
// the library table.
func ReturnType(g Accessor, owner, method string, scope Scope) string {
	for _, t := range Hierarchy(g, owner, scope) {
		if cls := g.FindType(t, scope); cls != nil {
			for _, m := range cls.MethodsByName(method) {
				if !m.ReturnType.IsVoid() {
					return m.ReturnType.String()
				}
			}
			continue
		}
		if r, ok := platform.LibraryReturnType(t, method); ok {
			return r
		}
	}
	return ""
}

// ReceiverType evaluates the static type of a call receiver, following
// chained calls through their return types.
func ReceiverType(g Accessor, r *java.Receiver, scope Scope) string {
	if r == nil {
		return ""
	}
	if r.Call != nil {
		owner := ReceiverType(g, r.Call.Receiver, scope)
		if owner == "" {
			return ""
		}
		return ReturnType(g, owner, r.Call.Name, scope)
	}
	return r.Type
}

// IsCallOn reports whether call invokes name on a receiver that is a
// subtype of owner.
func IsCallOn(g Accessor, call *java.CallSite, owner, name string, scope Scope) bool {
	if call == nil || call.Name != name {
		return false
	}
	t := ReceiverType(g, call.Receiver, scope)
	return t != "" && IsSubtype(g, t, owner, scope)
}

// StringValue evaluates an annotation value to a string constant. References
// to constants of other classes are folded through the project's classes.
func StringValue(g Accessor, v java.ElementValue, scope Scope) (string, bool) {
	switch v.Kind {
	case java.ValueString:
		return v.Str, true
	case java.ValueConstRef:
		cls := g.FindType(v.RefType, scope)
		if cls == nil {
			return "", false
		}
		f := cls.Field(v.RefField)
		if f == nil || f.ConstantValue == nil {
			return "", false
		}
		return *f.ConstantValue, true
	}
	return "", false
}

// AttributeString evaluates a single string attribute of an annotation.
func AttributeString(g Accessor, ann *java.AnnotationModel, attribute string, scope Scope) (string, bool) {
	v, ok := ann.Value(attribute)
	if !ok {
		return "", false
	}
	return StringValue(g, v, scope)
}

// EnclosingClasses returns cls followed by its enclosing classes, innermost
// first.
func EnclosingClasses(g Accessor, cls *java.ClassModel, scope Scope) []*java.ClassModel {
	var chain []*java.ClassModel
	for cls != nil {
		chain = append(chain, cls)
		if cls.EnclosingClass == "" {
			break
		}
		cls = g.FindType(cls.EnclosingClass, scope)
	}
	return chain
}
