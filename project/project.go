package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dhamidi/plugref/platform"
)

// Project is a plugin project made of one or more modules.
type Project struct {
	RootDir       string
	Modules       []*Module
	ManifestNames []string

	ignore *ignore.GitIgnore
}

// Module is a single buildable unit: a directory with its own sources and
// resources, and usually its own plugin manifest.
type Module struct {
	Name        string // relative to the project root, "." for the root itself
	Dir         string
	SourceRoots []string
	Manifests   []string
	Project     *Project
}

// Options tune project detection.
type Options struct {
	// ManifestNames are the file names of plugin manifests. Defaults to
	// plugin.yml.
	ManifestNames []string
	// Ignore holds extra gitignore-style patterns, relative to the root.
	Ignore []string
}

// moduleMarkers mark a directory as a module when any of them exists.
var moduleMarkers = []string{
	filepath.Join("src", "main", "java"),
	filepath.Join("src", "main", "resources"),
	"build.gradle",
	"build.gradle.kts",
	"pom.xml",
}

// sourceRootCandidates are checked in order; the first existing ones become
// the module's source roots.
var sourceRootCandidates = []string{
	filepath.Join("src", "main", "java"),
	filepath.Join("src", "main", "kotlin"),
	filepath.Join("src", "main", "resources"),
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"build":        {},
	"out":          {},
	"target":       {},
	"bin":          {},
}

// Load detects the project in the current directory.
func Load() (*Project, error) {
	return LoadFrom(".", Options{})
}

// LoadFrom detects the project rooted at rootDir. Every directory carrying
// a module marker becomes a module; when there is none, the root itself is
// the only module.
func LoadFrom(rootDir string, opts Options) (*Project, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rootDir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("read project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("read project root: %s is not a directory", abs)
	}

	proj := &Project{
		RootDir:       abs,
		ManifestNames: opts.ManifestNames,
		ignore:        loadIgnore(abs, opts.Ignore),
	}
	if len(proj.ManifestNames) == 0 {
		proj.ManifestNames = []string{platform.DefaultManifestName}
	}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != abs {
			name := d.Name()
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") || proj.Ignored(path) {
				return filepath.SkipDir
			}
			if name == "src" {
				return filepath.SkipDir
			}
		}
		if isModuleDir(path) {
			proj.addModule(path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan project %s: %w", abs, err)
	}

	if len(proj.Modules) == 0 {
		proj.addModule(abs)
	}
	return proj, nil
}

func loadIgnore(root string, extra []string) *ignore.GitIgnore {
	var lines []string
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	lines = append(lines, extra...)
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}

func isModuleDir(dir string) bool {
	for _, marker := range moduleMarkers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

func (p *Project) addModule(dir string) {
	name, err := filepath.Rel(p.RootDir, dir)
	if err != nil {
		name = dir
	}
	m := &Module{
		Name:    filepath.ToSlash(name),
		Dir:     dir,
		Project: p,
	}
	m.SourceRoots = detectSourceRoots(dir)
	for _, root := range m.SourceRoots {
		for _, manifest := range p.ManifestNames {
			path := filepath.Join(root, manifest)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				m.Manifests = append(m.Manifests, path)
			}
		}
	}
	p.Modules = append(p.Modules, m)
}

func detectSourceRoots(dir string) []string {
	var roots []string
	for _, candidate := range sourceRootCandidates {
		path := filepath.Join(dir, candidate)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			roots = append(roots, path)
		}
	}
	if len(roots) > 0 {
		return roots
	}
	if info, err := os.Stat(filepath.Join(dir, "src")); err == nil && info.IsDir() {
		return []string{filepath.Join(dir, "src")}
	}
	return []string{dir}
}

// Ignored reports whether path matches the project's ignore rules.
func (p *Project) Ignored(path string) bool {
	if p.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(p.RootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return p.ignore.MatchesPath(filepath.ToSlash(rel))
}

// Module returns the module with the given name, or nil if not found.
func (p *Project) Module(name string) *Module {
	for _, m := range p.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ModuleOf returns the innermost module containing path.
func (p *Project) ModuleOf(path string) *Module {
	var best *Module
	for _, m := range p.Modules {
		if !within(path, m.Dir) {
			continue
		}
		if best == nil || len(m.Dir) > len(best.Dir) {
			best = m
		}
	}
	return best
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Manifests returns the manifests of every module, ordered by path.
func (p *Project) Manifests() []string {
	var result []string
	for _, m := range p.Modules {
		result = append(result, m.Manifests...)
	}
	sort.Strings(result)
	return result
}

// IsManifestName reports whether base is a configured manifest file name.
func (p *Project) IsManifestName(base string) bool {
	for _, name := range p.ManifestNames {
		if name == base {
			return true
		}
	}
	return false
}

// JavaFiles returns all .java files below the module's source roots, skipping
// ignored paths and files that belong to a nested module.
func (m *Module) JavaFiles() ([]string, error) {
	var files []string
	for _, root := range m.SourceRoots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && (strings.HasPrefix(d.Name(), ".") || m.Project.Ignored(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".java") || m.Project.Ignored(path) {
				return nil
			}
			if m.Project.ModuleOf(path) != m {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan java files in %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}
