// Package graph defines the read-only view of a project that reference
// resolution runs against, and the queries built on top of it.
package graph

import (
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/manifest"
)

// Scope restricts a query to one module. The zero Scope is the whole project.
type Scope struct {
	Module string
}

// ProjectScope covers every module of the project.
func ProjectScope() Scope { return Scope{} }

// ModuleScope covers a single module, identified by its directory.
func ModuleScope(module string) Scope { return Scope{Module: module} }

// Includes reports whether module lies in the scope.
func (s Scope) Includes(module string) bool {
	return s.Module == "" || s.Module == module
}

// AnnotationUse is one occurrence of an annotation on a declaration.
// Exactly one of Method and Field is set for member annotations; both are
// nil for class annotations.
type AnnotationUse struct {
	Annotation *java.AnnotationModel
	Class      *java.ClassModel
	Method     *java.MethodModel
	Field      *java.FieldModel
}

// File is the source file holding the annotation.
func (u AnnotationUse) File() string {
	return u.Class.SourceFile
}

// Entry is a file or directory found in the project tree.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
}

// Accessor is the host's current view of the project. Implementations must
// be safe for concurrent use; callers never hold locks across calls.
type Accessor interface {
	// FindType returns the class with the given qualified name.
	FindType(name string, scope Scope) *java.ClassModel
	// FindSubtypes returns every class in scope that extends or implements
	// name, directly or indirectly, ordered by name.
	FindSubtypes(name string, scope Scope) []*java.ClassModel
	// FindAnnotationInstances returns every use of the annotation type in
	// scope, ordered by file path and then by position.
	FindAnnotationInstances(annotationType string, scope Scope) []AnnotationUse
	// ParseManifest parses the manifest at path from its current content.
	ParseManifest(path string) (*manifest.Manifest, error)
	// SourceRoots returns the source and resource roots of a module, in
	// lookup order.
	SourceRoots(module string) []string
	// FindByRelativePath looks up rel below root.
	FindByRelativePath(root, rel string) (Entry, bool)
	// Content returns the current text of a file, including unsaved edits.
	Content(path string) ([]byte, error)
	// ModuleOf returns the module directory a file belongs to.
	ModuleOf(path string) string
	// ManifestFiles returns the plugin manifests in scope, ordered by path.
	ManifestFiles(scope Scope) []string
	// Children lists a directory, ordered by name.
	Children(dir string) ([]Entry, error)
}
