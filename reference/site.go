package reference

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/manifest"
	"github.com/dhamidi/plugref/span"
)

// Site is a candidate reference: a string expression or annotated method in
// Java source, or a scalar in a manifest.
type Site struct {
	File   string
	Module string
	Span   span.Span
	// Value is the referenced text: the folded string constant, the method
	// name of a method site, or the manifest scalar.
	Value    string
	Constant bool
	// Prefix is the part of Value before the cursor.
	Prefix string

	Java *java.PointContext

	Manifest *manifest.Manifest
	Location *manifest.Location
}

// Scope is the module scope of the site.
func (s *Site) Scope() graph.Scope {
	return graph.ModuleScope(s.Module)
}

// IsManifest reports whether the site is a manifest scalar.
func (s *Site) IsManifest() bool {
	return s.Location != nil
}

// IsJava reports whether the site lies in Java source.
func (s *Site) IsJava() bool {
	return s.Java != nil
}

// IsJavaFile reports whether path names Java source.
func IsJavaFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".java")
}

// IsManifestFile reports whether path is one of the project's plugin
// manifests.
func IsManifestFile(g graph.Accessor, path string) bool {
	for _, m := range g.ManifestFiles(graph.ProjectScope()) {
		if m == path {
			return true
		}
	}
	return false
}

// SiteAt builds the site under pos in file, from the file's current
// content. It returns nil when nothing under pos can be a reference.
func SiteAt(g graph.Accessor, file string, pos span.Position) (*Site, error) {
	switch {
	case IsJavaFile(file):
		content, err := g.Content(file)
		if err != nil {
			return nil, fmt.Errorf("site at %s:%s: %w", file, pos, err)
		}
		ctx, err := java.ContextAt(content, file, pos, knownTypes(g))
		if err != nil {
			return nil, fmt.Errorf("site at %s:%s: %w", file, pos, err)
		}
		if ctx == nil {
			return nil, nil
		}
		site := javaSite(g, file, ctx)
		site.Prefix = ctx.Prefix
		if ctx.OnMethod && !ctx.IsLiteral {
			site.Prefix = ""
		}
		return site, nil

	case IsManifestFile(g, file):
		m, err := g.ParseManifest(file)
		if err != nil {
			// Broken YAML is an ordinary state while typing.
			return nil, nil
		}
		loc := m.At(pos)
		if loc == nil || loc.OnKey || loc.Scalar == nil {
			return nil, nil
		}
		site := manifestSite(g, file, m, loc)
		site.Prefix = loc.Prefix
		return site, nil
	}
	return nil, nil
}

// Sites returns every candidate site in file.
func Sites(g graph.Accessor, file string) ([]*Site, error) {
	switch {
	case IsJavaFile(file):
		content, err := g.Content(file)
		if err != nil {
			return nil, fmt.Errorf("sites in %s: %w", file, err)
		}
		contexts, err := java.Contexts(content, file, knownTypes(g))
		if err != nil {
			return nil, fmt.Errorf("sites in %s: %w", file, err)
		}
		sites := make([]*Site, 0, len(contexts))
		for _, ctx := range contexts {
			sites = append(sites, javaSite(g, file, ctx))
		}
		return sites, nil

	case IsManifestFile(g, file):
		m, err := g.ParseManifest(file)
		if err != nil {
			return nil, nil
		}
		var sites []*Site
		for _, loc := range m.Values() {
			sites = append(sites, manifestSite(g, file, m, loc))
		}
		return sites, nil
	}
	return nil, nil
}

func knownTypes(g graph.Accessor) java.Option {
	return java.WithKnownTypes(func(name string) bool {
		return g.FindType(name, graph.ProjectScope()) != nil
	})
}

func javaSite(g graph.Accessor, file string, ctx *java.PointContext) *Site {
	site := &Site{
		File:     file,
		Module:   g.ModuleOf(file),
		Span:     ctx.Span,
		Value:    ctx.Value,
		Constant: ctx.Constant,
		Java:     ctx,
	}
	if ctx.OnMethod && !ctx.IsLiteral && ctx.Method != nil {
		site.Value = ctx.Method.Name
		site.Constant = true
	}
	return site
}

func manifestSite(g graph.Accessor, file string, m *manifest.Manifest, loc *manifest.Location) *Site {
	return &Site{
		File:     file,
		Module:   g.ModuleOf(file),
		Span:     loc.Span,
		Value:    loc.Scalar.Value,
		Constant: true,
		Manifest: m,
		Location: loc,
	}
}

// javaCall returns the call containing a Java literal site.
func javaCall(site *Site) *java.CallSite {
	if site.Java == nil || !site.Java.IsLiteral {
		return nil
	}
	return site.Java.Call
}

// innermostAnnotation returns the annotation the site is directly the value
// of, when it has the given type and attribute.
func innermostAnnotation(site *Site, typeName, attribute string) *java.AnnotationSite {
	if site.Java == nil || !site.Java.IsLiteral || len(site.Java.Annotations) == 0 {
		return nil
	}
	a := &site.Java.Annotations[0]
	if a.Type != typeName || a.Attribute != attribute {
		return nil
	}
	return a
}

// manifestKey reports whether a manifest site is a value of the given key
// path.
func manifestKey(site *Site, path ...string) bool {
	if site.Location == nil || site.Location.OnKey {
		return false
	}
	got := site.Location.Path()
	if len(got) != len(path) {
		return false
	}
	for i := range path {
		if got[i] != path[i] {
			return false
		}
	}
	return true
}
