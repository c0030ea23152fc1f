package reference

import (
	"path"
	"strings"

	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/platform"
)

// AssetStrategy links @AssetId values to files below assets/<plugin id>/ in
// the module's resource roots.
type AssetStrategy struct{}

func (AssetStrategy) Category() Category { return CategoryAssetPath }

func (AssetStrategy) Patterns() []Pattern {
	return []Pattern{
		{
			Name: "asset-id",
			Match: func(g graph.Accessor, site *Site) bool {
				return innermostAnnotation(site, platform.SpongeAssetID, "value") != nil
			},
		},
	}
}

func (s AssetStrategy) IsAnchor(g graph.Accessor, site *Site) bool {
	return matchesAny(s.Patterns(), g, site)
}

// assetPluginID returns the id of the plugin class enclosing the site.
func assetPluginID(g graph.Accessor, site *Site) (string, bool) {
	if site.Java == nil {
		return "", false
	}
	for _, cls := range site.Java.Classes {
		if ann := cls.Annotation(platform.SpongePlugin); ann != nil {
			return graph.AttributeString(g, ann, "id", graph.ProjectScope())
		}
	}
	return "", false
}

// assetPath returns the path of an asset relative to a source root, or false
// when the value leaves the plugin's asset directory.
func assetPath(pluginID, value string) (string, bool) {
	base := platform.AssetsDir + "/" + pluginID
	value = strings.ReplaceAll(value, "\\", "/")
	p := path.Clean(base + "/" + value)
	if p != base && !strings.HasPrefix(p, base+"/") {
		return "", false
	}
	return p, true
}

func (AssetStrategy) Resolve(g graph.Accessor, site *Site) []Target {
	if !site.Constant {
		return nil
	}
	id, ok := assetPluginID(g, site)
	if !ok {
		return nil
	}
	rel, ok := assetPath(id, site.Value)
	if !ok {
		return nil
	}
	for _, root := range g.SourceRoots(site.Module) {
		entry, ok := g.FindByRelativePath(root, rel)
		if !ok {
			continue
		}
		kind := TargetFile
		if entry.IsDir {
			kind = TargetDirectory
		}
		return []Target{{Kind: kind, Name: rel, File: entry.Path}}
	}
	return nil
}

// CollectVariants lists the directory the typed text names, or the
// directory it is being typed in.
func (AssetStrategy) CollectVariants(g graph.Accessor, site *Site) []Variant {
	id, ok := assetPluginID(g, site)
	if !ok {
		return nil
	}
	typed := strings.ReplaceAll(site.Prefix, "\\", "/")
	roots := g.SourceRoots(site.Module)

	dirPrefix := ""
	if typed != "" && assetDirExists(g, roots, id, typed) {
		dirPrefix = strings.TrimSuffix(typed, "/") + "/"
	} else if i := strings.LastIndexByte(typed, '/'); i >= 0 {
		dirPrefix = typed[:i+1]
	}

	rel, ok := assetPath(id, dirPrefix)
	if !ok {
		return nil
	}
	var variants []Variant
	seen := make(map[string]bool)
	for _, root := range roots {
		dir, ok := g.FindByRelativePath(root, rel)
		if !ok || !dir.IsDir {
			continue
		}
		children, err := g.Children(dir.Path)
		if err != nil {
			continue
		}
		for _, child := range children {
			if seen[child.Name] {
				continue
			}
			seen[child.Name] = true
			name := child.Name
			kind := TargetFile
			if child.IsDir {
				name += "/"
				kind = TargetDirectory
			}
			target := Target{Kind: kind, Name: rel + "/" + child.Name, File: child.Path}
			variants = append(variants, Variant{
				Text:        dirPrefix + name,
				Presentable: child.Name,
				TypeText:    id,
				Target:      &target,
			})
		}
	}
	return variants
}

func assetDirExists(g graph.Accessor, roots []string, id, typed string) bool {
	rel, ok := assetPath(id, typed)
	if !ok {
		return false
	}
	for _, root := range roots {
		if e, ok := g.FindByRelativePath(root, rel); ok && e.IsDir {
			return true
		}
	}
	return false
}

func (s AssetStrategy) IsUnresolved(g graph.Accessor, site *Site) bool {
	if !site.Constant {
		return false
	}
	if _, ok := assetPluginID(g, site); !ok {
		return false
	}
	return len(s.Resolve(g, site)) == 0
}
