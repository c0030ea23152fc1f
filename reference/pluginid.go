package reference

import (
	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/platform"
)

// PluginIDStrategy links Sponge plugin ids to the @Plugin declaration that
// declares them.
type PluginIDStrategy struct{}

func (PluginIDStrategy) Category() Category { return CategoryPluginID }

func (PluginIDStrategy) Patterns() []Pattern {
	return []Pattern{
		{
			Name: "plugin-id",
			Match: func(g graph.Accessor, site *Site) bool {
				return innermostAnnotation(site, platform.SpongePlugin, "id") != nil
			},
		},
		{
			Name: "dependency-id",
			Match: func(g graph.Accessor, site *Site) bool {
				return innermostAnnotation(site, platform.SpongeDependency, "id") != nil
			},
		},
		{
			Name: "plugin-manager-lookup",
			Match: func(g graph.Accessor, site *Site) bool {
				call := javaCall(site)
				return graph.IsCallOn(g, call, platform.SpongePluginManager, "getPlugin", graph.ProjectScope()) ||
					graph.IsCallOn(g, call, platform.SpongePluginManager, "isLoaded", graph.ProjectScope())
			},
		},
		{
			Name: "game-registry-all-for",
			Match: func(g graph.Accessor, site *Site) bool {
				call := javaCall(site)
				return call != nil && call.ArgIndex == 0 &&
					graph.IsCallOn(g, call, platform.SpongeGameRegistry, "getAllFor", graph.ProjectScope())
			},
		},
	}
}

func (s PluginIDStrategy) IsAnchor(g graph.Accessor, site *Site) bool {
	return matchesAny(s.Patterns(), g, site)
}

// PluginDeclaration is a class annotated with @Plugin.
type PluginDeclaration struct {
	ID   string
	Name string
	// Valid is false when the id is not a well-formed plugin id.
	Valid bool
	Use   graph.AnnotationUse
}

// Target is the annotated class.
func (d PluginDeclaration) Target() Target {
	return Target{
		Kind: TargetType,
		Name: d.Use.Class.Name,
		File: d.Use.File(),
		Span: d.Use.Class.NameSpan,
	}
}

// PluginDeclarations returns every @Plugin class of the project whose id is
// a constant, ordered by file path and position.
func PluginDeclarations(g graph.Accessor) []PluginDeclaration {
	var decls []PluginDeclaration
	for _, use := range g.FindAnnotationInstances(platform.SpongePlugin, graph.ProjectScope()) {
		if use.Method != nil || use.Field != nil {
			continue
		}
		id, ok := graph.AttributeString(g, use.Annotation, "id", graph.ProjectScope())
		if !ok {
			continue
		}
		name, _ := graph.AttributeString(g, use.Annotation, "name", graph.ProjectScope())
		decls = append(decls, PluginDeclaration{
			ID:    id,
			Name:  name,
			Valid: platform.IsValidPluginID(id),
			Use:   use,
		})
	}
	return decls
}

// FindPlugin returns the first declaration of id.
func FindPlugin(g graph.Accessor, id string) (PluginDeclaration, bool) {
	if !platform.IsValidPluginID(id) {
		return PluginDeclaration{}, false
	}
	for _, d := range PluginDeclarations(g) {
		if d.ID == id {
			return d, true
		}
	}
	return PluginDeclaration{}, false
}

func (PluginIDStrategy) Resolve(g graph.Accessor, site *Site) []Target {
	if !site.Constant {
		return nil
	}
	d, ok := FindPlugin(g, site.Value)
	if !ok {
		return nil
	}
	return []Target{d.Target()}
}

func (PluginIDStrategy) CollectVariants(g graph.Accessor, site *Site) []Variant {
	if innermostAnnotation(site, platform.SpongePlugin, "id") != nil {
		return nil
	}

	// Inside a dependency list the plugin itself and the ids it already
	// depends on are not offered. Lookups offer every declared id.
	exclude := make(map[string]bool)
	if innermostAnnotation(site, platform.SpongeDependency, "id") != nil {
		if plugin := enclosingPlugin(site); plugin != nil {
			if id, ok := graph.AttributeString(g, plugin, "id", graph.ProjectScope()); ok {
				exclude[id] = true
			}
			for _, dep := range dependencies(plugin) {
				if dep.Span == site.Span {
					continue
				}
				if id, ok := graph.StringValue(g, dep, graph.ProjectScope()); ok {
					exclude[id] = true
				}
			}
		}
	}

	var variants []Variant
	for _, d := range PluginDeclarations(g) {
		if !d.Valid || exclude[d.ID] {
			continue
		}
		exclude[d.ID] = true
		target := d.Target()
		variants = append(variants, Variant{
			Text:        d.ID,
			Presentable: d.ID,
			TypeText:    d.Name,
			Target:      &target,
		})
	}
	return variants
}

// enclosingPlugin returns the @Plugin annotation of the site's nearest
// enclosing plugin class.
func enclosingPlugin(site *Site) *java.AnnotationModel {
	if site.Java == nil {
		return nil
	}
	for _, a := range site.Java.Annotations {
		if a.Type == platform.SpongePlugin {
			return a.Model
		}
	}
	for _, cls := range site.Java.Classes {
		if ann := cls.Annotation(platform.SpongePlugin); ann != nil {
			return ann
		}
	}
	return nil
}

// dependencies returns the id values of a @Plugin's dependencies.
func dependencies(plugin *java.AnnotationModel) []java.ElementValue {
	v, ok := plugin.Value("dependencies")
	if !ok {
		return nil
	}
	var ids []java.ElementValue
	for _, e := range v.Flatten() {
		if e.Kind != java.ValueAnnotation || e.Annotation.Type != platform.SpongeDependency {
			continue
		}
		if id, ok := e.Annotation.Value("id"); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s PluginIDStrategy) IsUnresolved(g graph.Accessor, site *Site) bool {
	return site.Constant && len(s.Resolve(g, site)) == 0
}
