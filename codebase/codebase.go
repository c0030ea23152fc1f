// Package codebase holds the live, in-memory snapshot of a plugin project:
// parsed Java classes, plugin manifests and the unsaved text of open
// documents. It implements graph.Accessor for the reference engine and hosts
// the file watcher and the language server.
package codebase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/plugref/config"
	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/java"
	"github.com/dhamidi/plugref/manifest"
	"github.com/dhamidi/plugref/project"
)

var log = commonlog.GetLogger("plugref.codebase")

type Codebase struct {
	mu        sync.RWMutex
	project   *project.Project
	config    *config.Config
	files     map[string]*FileInfo
	classes   map[string][]*java.ClassModel // qualified name -> declarations ordered by file
	manifests map[string]string             // manifest path -> module dir
	overlays  map[string][]byte             // unsaved text of open documents
}

// FileInfo is the parsed state of one Java source file.
type FileInfo struct {
	Path     string
	Module   string
	Content  []byte
	Classes  []*java.ClassModel
	ParseErr error
}

var _ graph.Accessor = (*Codebase)(nil)

// New creates an empty codebase for proj. Call ScanAll to load it.
func New(proj *project.Project, cfg *config.Config) *Codebase {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Codebase{
		project:   proj,
		config:    cfg,
		files:     make(map[string]*FileInfo),
		classes:   make(map[string][]*java.ClassModel),
		manifests: make(map[string]string),
		overlays:  make(map[string][]byte),
	}
	for _, m := range proj.Modules {
		for _, path := range m.Manifests {
			c.manifests[path] = m.Dir
		}
	}
	return c
}

// Open detects the project at root, loads its configuration and scans it.
func Open(ctx context.Context, root string, cfg *config.Config) (*Codebase, error) {
	if cfg == nil {
		loaded, err := config.LoadFromRoot(root)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	proj, err := project.LoadFrom(root, project.Options{
		ManifestNames: cfg.ManifestNames,
		Ignore:        cfg.Ignore,
	})
	if err != nil {
		return nil, err
	}
	c := New(proj, cfg)
	if err := c.ScanAll(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Codebase) RootDir() string {
	return c.project.RootDir
}

func (c *Codebase) Project() *project.Project {
	return c.project
}

func (c *Codebase) Config() *config.Config {
	return c.config
}

// ScanAll parses every Java file of every module in parallel. Files with
// star imports are parsed a second time once all class names are known, so
// that their simple type names resolve against the whole project.
func (c *Codebase) ScanAll(ctx context.Context) error {
	var paths []string
	for _, m := range c.project.Modules {
		files, err := m.JavaFiles()
		if err != nil {
			return err
		}
		paths = append(paths, files...)
	}
	log.Infof("scanning %d java files in %s", len(paths), c.project.RootDir)

	parsed, err := c.parseAll(ctx, paths, nil)
	if err != nil {
		return err
	}
	c.commit(parsed)

	var again []string
	for _, f := range parsed {
		if hasStarImport(f.Content) {
			again = append(again, f.Path)
		}
	}
	if len(again) == 0 {
		return nil
	}
	reparsed, err := c.parseAll(ctx, again, c.knownTypes())
	if err != nil {
		return err
	}
	c.commit(reparsed)
	return nil
}

func (c *Codebase) parseAll(ctx context.Context, paths []string, known func(string) bool) ([]*FileInfo, error) {
	results := make([]*FileInfo, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := c.read(path)
			if err != nil {
				log.Warningf("skipping %s: %s", path, err)
				return nil
			}
			results[i] = c.parse(path, content, known)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.project.RootDir, err)
	}

	var files []*FileInfo
	for _, f := range results {
		if f != nil {
			files = append(files, f)
		}
	}
	return files, nil
}

func (c *Codebase) parse(path string, content []byte, known func(string) bool) *FileInfo {
	var opts []java.Option
	if known != nil {
		opts = append(opts, java.WithKnownTypes(known))
	}
	classes, err := java.ClassModelsFromSource(content, path, opts...)
	if err != nil {
		log.Debugf("parse %s: %s", path, err)
	}
	return &FileInfo{
		Path:     path,
		Module:   c.ModuleOf(path),
		Content:  content,
		Classes:  classes,
		ParseErr: err,
	}
}

func (c *Codebase) commit(files []*FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range files {
		c.files[f.Path] = f
	}
	c.rebuildClassesLocked()
}

func (c *Codebase) rebuildClassesLocked() {
	all := make(map[string][]*java.ClassModel)
	for _, f := range c.files {
		for _, cls := range f.Classes {
			all[cls.Name] = append(all[cls.Name], cls)
		}
	}
	for _, decls := range all {
		sort.SliceStable(decls, func(i, j int) bool {
			return decls[i].SourceFile < decls[j].SourceFile
		})
	}
	c.classes = all
}

// knownTypes returns a lookup over a copy of the current class names, safe
// to call while the codebase is being updated.
func (c *Codebase) knownTypes() func(string) bool {
	c.mu.RLock()
	names := make(map[string]bool, len(c.classes))
	for name := range c.classes {
		names[name] = true
	}
	c.mu.RUnlock()
	return func(name string) bool { return names[name] }
}

func hasStarImport(content []byte) bool {
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "import ") && strings.HasSuffix(line, ".*;") {
			return true
		}
	}
	return false
}

// read returns the overlay of path if the document is open, else the file
// on disk.
func (c *Codebase) read(path string) ([]byte, error) {
	c.mu.RLock()
	content, ok := c.overlays[path]
	c.mu.RUnlock()
	if ok {
		return content, nil
	}
	return os.ReadFile(path)
}

// ScanFile reloads path from its current content. Java files are reparsed,
// manifests are (un)registered, anything else is ignored.
func (c *Codebase) ScanFile(path string) error {
	path = filepath.Clean(path)
	content, err := c.read(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.RemoveFile(path)
			return nil
		}
		return fmt.Errorf("scan %s: %w", path, err)
	}
	return c.UpdateFile(path, content)
}

// UpdateFile replaces the content of path.
func (c *Codebase) UpdateFile(path string, content []byte) error {
	path = filepath.Clean(path)
	if c.project.Ignored(path) {
		return nil
	}
	switch {
	case strings.EqualFold(filepath.Ext(path), ".java"):
		if c.project.ModuleOf(path) == nil {
			return nil
		}
		f := c.parse(path, content, c.knownTypes())
		c.commit([]*FileInfo{f})
		log.Debugf("updated %s (%d classes)", path, len(f.Classes))
	case c.isManifestPath(path):
		c.mu.Lock()
		c.manifests[path] = c.ModuleOf(path)
		c.mu.Unlock()
		log.Debugf("updated manifest %s", path)
	}
	return nil
}

// isManifestPath reports whether path is a manifest file name placed
// directly in a source root of its module.
func (c *Codebase) isManifestPath(path string) bool {
	if !c.project.IsManifestName(filepath.Base(path)) {
		return false
	}
	m := c.project.ModuleOf(path)
	if m == nil {
		return false
	}
	for _, root := range m.SourceRoots {
		if filepath.Dir(path) == root {
			return true
		}
	}
	return false
}

func (c *Codebase) RemoveFile(path string) {
	path = filepath.Clean(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.manifests, path)
	if _, ok := c.files[path]; ok {
		delete(c.files, path)
		c.rebuildClassesLocked()
	}
}

// SetOverlay records the unsaved text of an open document and reloads it.
func (c *Codebase) SetOverlay(path string, content []byte) error {
	path = filepath.Clean(path)
	c.mu.Lock()
	c.overlays[path] = content
	c.mu.Unlock()
	return c.UpdateFile(path, content)
}

// ClearOverlay forgets the unsaved text of a closed document and reloads the
// file from disk.
func (c *Codebase) ClearOverlay(path string) error {
	path = filepath.Clean(path)
	c.mu.Lock()
	delete(c.overlays, path)
	c.mu.Unlock()
	return c.ScanFile(path)
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[filepath.Clean(path)]
}

// JavaFiles returns the paths of all parsed Java files, ordered by path.
func (c *Codebase) JavaFiles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.files))
	for path := range c.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// AllClasses returns every class of the project, ordered by name and file.
func (c *Codebase) AllClasses() []*java.ClassModel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var all []*java.ClassModel
	for _, decls := range c.classes {
		all = append(all, decls...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].SourceFile < all[j].SourceFile
	})
	return all
}

func (c *Codebase) inScopeLocked(file string, scope graph.Scope) bool {
	if scope.Module == "" {
		return true
	}
	if f, ok := c.files[file]; ok {
		return scope.Includes(f.Module)
	}
	return scope.Includes(c.ModuleOf(file))
}

func (c *Codebase) FindType(name string, scope graph.Scope) *java.ClassModel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cls := range c.classes[name] {
		if c.inScopeLocked(cls.SourceFile, scope) {
			return cls
		}
	}
	return nil
}

func (c *Codebase) FindSubtypes(name string, scope graph.Scope) []*java.ClassModel {
	var candidates []*java.ClassModel
	c.mu.RLock()
	for _, decls := range c.classes {
		for _, cls := range decls {
			if cls.Name != name && c.inScopeLocked(cls.SourceFile, scope) {
				candidates = append(candidates, cls)
			}
		}
	}
	c.mu.RUnlock()

	// The hierarchy walk calls back into FindType, so it runs unlocked.
	var result []*java.ClassModel
	for _, cls := range candidates {
		if graph.IsSubtype(c, cls.Name, name, scope) {
			result = append(result, cls)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].SourceFile < result[j].SourceFile
	})
	return result
}

func (c *Codebase) FindAnnotationInstances(annotationType string, scope graph.Scope) []graph.AnnotationUse {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var uses []graph.AnnotationUse
	for path, f := range c.files {
		if !c.inScopeLocked(path, scope) {
			continue
		}
		for _, cls := range f.Classes {
			for i := range cls.Annotations {
				if cls.Annotations[i].Type == annotationType {
					uses = append(uses, graph.AnnotationUse{Annotation: &cls.Annotations[i], Class: cls})
				}
			}
			for i := range cls.Fields {
				field := &cls.Fields[i]
				for j := range field.Annotations {
					if field.Annotations[j].Type == annotationType {
						uses = append(uses, graph.AnnotationUse{Annotation: &field.Annotations[j], Class: cls, Field: field})
					}
				}
			}
			for i := range cls.Methods {
				method := &cls.Methods[i]
				for j := range method.Annotations {
					if method.Annotations[j].Type == annotationType {
						uses = append(uses, graph.AnnotationUse{Annotation: &method.Annotations[j], Class: cls, Method: method})
					}
				}
			}
		}
	}
	sort.SliceStable(uses, func(i, j int) bool {
		if uses[i].File() != uses[j].File() {
			return uses[i].File() < uses[j].File()
		}
		return uses[i].Annotation.Span.Start.Before(uses[j].Annotation.Span.Start)
	})
	return uses
}

func (c *Codebase) ParseManifest(path string) (*manifest.Manifest, error) {
	content, err := c.Content(path)
	if err != nil {
		return nil, err
	}
	return manifest.Parse(path, content)
}

func (c *Codebase) module(dir string) *project.Module {
	for _, m := range c.project.Modules {
		if m.Dir == dir {
			return m
		}
	}
	return nil
}

func (c *Codebase) SourceRoots(module string) []string {
	if m := c.module(module); m != nil {
		return m.SourceRoots
	}
	return nil
}

func (c *Codebase) FindByRelativePath(root, rel string) (graph.Entry, bool) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return graph.Entry{}, false
	}
	return graph.Entry{Name: info.Name(), Path: path, IsDir: info.IsDir()}, true
}

func (c *Codebase) Content(path string) ([]byte, error) {
	path = filepath.Clean(path)
	c.mu.RLock()
	if content, ok := c.overlays[path]; ok {
		c.mu.RUnlock()
		return content, nil
	}
	if f, ok := c.files[path]; ok {
		c.mu.RUnlock()
		return f.Content, nil
	}
	c.mu.RUnlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return content, nil
}

func (c *Codebase) ModuleOf(path string) string {
	if m := c.project.ModuleOf(path); m != nil {
		return m.Dir
	}
	return ""
}

func (c *Codebase) ManifestFiles(scope graph.Scope) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var paths []string
	for path, module := range c.manifests {
		if scope.Includes(module) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

func (c *Codebase) Children(dir string) ([]graph.Entry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var result []graph.Entry
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if c.project.Ignored(path) {
			continue
		}
		result = append(result, graph.Entry{Name: e.Name(), Path: path, IsDir: e.IsDir()})
	}
	return result, nil
}
