package reference

import (
	"strings"

	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/manifest"
	"github.com/dhamidi/plugref/platform"
)

// CommandStrategy links command names used in code to the commands section
// of plugin.yml.
type CommandStrategy struct{}

func (CommandStrategy) Category() Category { return CategoryCommand }

func (CommandStrategy) Patterns() []Pattern {
	return []Pattern{
		{
			Name: "java-plugin-get-command",
			Match: func(g graph.Accessor, site *Site) bool {
				call := javaCall(site)
				return call != nil && call.ArgIndex == 0 &&
					graph.IsCallOn(g, call, platform.BukkitJavaPlugin, "getCommand", graph.ProjectScope())
			},
		},
		{
			Name: "server-get-plugin-command",
			Match: func(g graph.Accessor, site *Site) bool {
				call := javaCall(site)
				if call == nil || call.ArgIndex != 0 {
					return false
				}
				return graph.IsCallOn(g, call, platform.BukkitServer, "getPluginCommand", graph.ProjectScope()) ||
					graph.IsCallOn(g, call, platform.BukkitFacade, "getPluginCommand", graph.ProjectScope())
			},
		},
		{
			Name: "manifest-commands-value",
			Match: func(g graph.Accessor, site *Site) bool {
				return manifestKey(site, "commands")
			},
		},
	}
}

func (s CommandStrategy) IsAnchor(g graph.Accessor, site *Site) bool {
	return matchesAny(s.Patterns(), g, site)
}

// NormalizeCommand lowercases a command name and strips a namespace prefix
// ("myplugin:heal" becomes "heal").
func NormalizeCommand(name string) string {
	name = strings.ToLower(name)
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func (CommandStrategy) Resolve(g graph.Accessor, site *Site) []Target {
	if !site.Constant {
		return nil
	}
	name := NormalizeCommand(site.Value)
	if name == "" {
		return nil
	}
	for _, m := range commandManifests(g, site) {
		if e, ok := lookupCommand(m, name); ok {
			return []Target{commandTarget(m, e)}
		}
	}
	return nil
}

// lookupCommand finds commands.<name> ignoring case. A name containing a dot
// is not a key path, so it is compared against the command keys directly.
func lookupCommand(m *manifest.Manifest, name string) (*manifest.Entry, bool) {
	if !strings.Contains(name, ".") {
		return m.LookupFold("commands." + name)
	}
	entries, err := m.Children("commands")
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		if strings.EqualFold(e.Key, name) {
			return e, true
		}
	}
	return nil, false
}

func commandTarget(m *manifest.Manifest, e *manifest.Entry) Target {
	return Target{
		Kind: TargetManifestKey,
		Name: e.QualifiedName(),
		File: m.Path,
		Span: e.KeySpan,
	}
}

// commandManifests returns the manifests of the site's module. A manifest
// site always searches its own manifest first.
func commandManifests(g graph.Accessor, site *Site) []*manifest.Manifest {
	var result []*manifest.Manifest
	if site.Manifest != nil {
		result = append(result, site.Manifest)
	}
	for _, path := range g.ManifestFiles(site.Scope()) {
		if site.Manifest != nil && path == site.Manifest.Path {
			continue
		}
		m, err := g.ParseManifest(path)
		if err != nil {
			continue
		}
		result = append(result, m)
	}
	return result
}

func (CommandStrategy) CollectVariants(g graph.Accessor, site *Site) []Variant {
	manifests := commandManifests(g, site)
	var plain, qualified []Variant
	for _, m := range manifests {
		entries, err := m.Children("commands")
		if err != nil {
			continue
		}
		namespace := strings.ToLower(m.Name())
		for _, e := range entries {
			target := commandTarget(m, e)
			name := strings.ToLower(e.Key)
			plain = append(plain, Variant{
				Text:        name,
				Presentable: e.Key,
				TypeText:    m.Name(),
				Target:      &target,
			})
			if namespace != "" {
				qualified = append(qualified, Variant{
					Text:        namespace + ":" + name,
					Presentable: namespace + ":" + e.Key,
					TypeText:    m.Name(),
					Priority:    -1,
					Target:      &target,
				})
			}
		}
	}
	return append(plain, qualified...)
}

func (s CommandStrategy) IsUnresolved(g graph.Accessor, site *Site) bool {
	return site.Constant && len(s.Resolve(g, site)) == 0
}
