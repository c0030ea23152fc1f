package java

import (
	"strings"
)

type importInfo struct {
	qualifiedName string
	isStatic      bool
	isWildcard    bool
}

// typeResolver turns simple type names written in a compilation unit into
// qualified names, following single-type imports, nested types, star imports
// and java.lang, and finally the unit's own package.
type typeResolver struct {
	pkg          string
	imports      []importInfo
	innerClasses map[string]string // simple name -> qualified name
	knownType    func(string) bool
}

func newTypeResolver(pkg string, imports []importInfo, knownType func(string) bool) *typeResolver {
	return &typeResolver{
		pkg:          pkg,
		imports:      imports,
		innerClasses: make(map[string]string),
		knownType:    knownType,
	}
}

func (r *typeResolver) registerInnerClass(simpleName, fullName string) {
	if _, ok := r.innerClasses[simpleName]; !ok {
		r.innerClasses[simpleName] = fullName
	}
}

var javaLangTypes = map[string]bool{
	"Object": true, "String": true, "Class": true, "System": true,
	"Throwable": true, "Exception": true, "RuntimeException": true, "Error": true,
	"Integer": true, "Long": true, "Short": true, "Byte": true,
	"Float": true, "Double": true, "Character": true, "Boolean": true,
	"Number": true, "Comparable": true, "CharSequence": true,
	"Iterable": true, "Cloneable": true, "Runnable": true,
	"Thread": true, "StringBuilder": true, "StringBuffer": true,
	"Math": true, "Enum": true, "Record": true, "Void": true,
	"Override": true, "Deprecated": true, "SuppressWarnings": true, "FunctionalInterface": true,
}

func (r *typeResolver) resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if i := strings.IndexByte(name, '.'); i >= 0 {
		// Outer.Inner resolves through its first segment when that segment
		// looks like a type; a lowercase first segment is a package.
		head, rest := name[:i], name[i:]
		if isUpper(head[0]) {
			return r.resolve(head) + rest
		}
		return name
	}

	switch name {
	case "boolean", "byte", "char", "short", "int", "long", "float", "double", "void", "var":
		return name
	}

	if fullName, ok := r.innerClasses[name]; ok {
		return fullName
	}

	for _, imp := range r.imports {
		if imp.isWildcard || imp.isStatic {
			continue
		}
		if lastSegment(imp.qualifiedName) == name {
			return imp.qualifiedName
		}
	}

	if r.knownType != nil {
		for _, imp := range r.imports {
			if !imp.isWildcard || imp.isStatic {
				continue
			}
			candidate := imp.qualifiedName + "." + name
			if r.knownType(candidate) {
				return candidate
			}
		}
	}

	if javaLangTypes[name] {
		return "java.lang." + name
	}

	if r.pkg != "" {
		return r.pkg + "." + name
	}
	return name
}

// staticImport returns the type that a single static import of member
// brings into scope.
func (r *typeResolver) staticImport(member string) (string, bool) {
	for _, imp := range r.imports {
		if !imp.isStatic || imp.isWildcard {
			continue
		}
		if lastSegment(imp.qualifiedName) == member {
			return strings.TrimSuffix(imp.qualifiedName, "."+member), true
		}
	}
	return "", false
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

// SimpleName returns the last segment of a qualified name.
func SimpleName(qualifiedName string) string {
	return lastSegment(qualifiedName)
}

// NormalizeBinaryName converts JVM-style names (a/b/C$D) to source form (a.b.C.D).
func NormalizeBinaryName(name string) string {
	name = strings.ReplaceAll(name, "/", ".")
	return strings.ReplaceAll(name, "$", ".")
}
