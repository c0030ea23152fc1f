package graph

import (
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/platform"
)

// MixinAnnotation returns the @Mixin annotation governing cls, which is the
// one on cls or on its nearest enclosing class.
func MixinAnnotation(g Accessor, cls *java.ClassModel, scope Scope) *java.AnnotationModel {
	for _, c := range EnclosingClasses(g, cls, scope) {
		if ann := c.Annotation(platform.Mixin); ann != nil {
			return ann
		}
	}
	return nil
}

// MixinTargetNames returns the qualified names of the classes a mixin
// targets: class literals of `value` first, then the `targets` strings, which
// may use / and $ separators.
func MixinTargetNames(ann *java.AnnotationModel) []string {
	if ann == nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if v, ok := ann.Value("value"); ok {
		for _, e := range v.Flatten() {
			if e.Kind == java.ValueClass {
				add(e.Str)
			}
		}
	}
	if v, ok := ann.Value("targets"); ok {
		for _, e := range v.Flatten() {
			if e.Kind == java.ValueString {
				add(java.NormalizeBinaryName(e.Str))
			}
		}
	}
	return names
}

// MixinTargets returns the target classes of the mixin governing cls that
// exist in the project, in declaration order.
func MixinTargets(g Accessor, cls *java.ClassModel, scope Scope) []*java.ClassModel {
	var targets []*java.ClassModel
	for _, name := range MixinTargetNames(MixinAnnotation(g, cls, scope)) {
		if t := g.FindType(name, scope); t != nil {
			targets = append(targets, t)
		}
	}
	return targets
}
