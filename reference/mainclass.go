package reference

import (
	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/platform"
)

// MainClassStrategy links the main key of plugin.yml to the plugin class.
type MainClassStrategy struct{}

func (MainClassStrategy) Category() Category { return CategoryMainClass }

func (MainClassStrategy) Patterns() []Pattern {
	return []Pattern{
		{
			Name: "manifest-main",
			Match: func(g graph.Accessor, site *Site) bool {
				return manifestKey(site, "main") && site.Location.SequenceIndex < 0
			},
		},
	}
}

func (s MainClassStrategy) IsAnchor(g graph.Accessor, site *Site) bool {
	return matchesAny(s.Patterns(), g, site)
}

func (MainClassStrategy) Resolve(g graph.Accessor, site *Site) []Target {
	cls := g.FindType(java.NormalizeBinaryName(site.Value), graph.ProjectScope())
	if cls == nil {
		return nil
	}
	return []Target{classTarget(cls)}
}

func classTarget(cls *java.ClassModel) Target {
	return Target{Kind: TargetType, Name: cls.Name, File: cls.SourceFile, Span: cls.NameSpan}
}

// CollectVariants offers the concrete plugin classes of the module.
func (MainClassStrategy) CollectVariants(g graph.Accessor, site *Site) []Variant {
	var variants []Variant
	for _, cls := range g.FindSubtypes(platform.BukkitPlugin, site.Scope()) {
		if cls.IsAbstract || cls.Kind != java.ClassKindClass {
			continue
		}
		t := classTarget(cls)
		variants = append(variants, Variant{
			Text:        cls.Name,
			Presentable: cls.SimpleName,
			TypeText:    cls.Package,
			Target:      &t,
		})
	}
	return variants
}

func (s MainClassStrategy) IsUnresolved(g graph.Accessor, site *Site) bool {
	return len(s.Resolve(g, site)) == 0
}
