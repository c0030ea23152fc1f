// Package inspect turns reference resolution results into diagnostics for
// policy violations: malformed or unknown plugin ids, broken main classes,
// mixin accessors and invokers without a target, and so on.
package inspect

import (
	"fmt"
	"sort"

	"github.com/dhamidi/plugref/config"
	"github.com/dhamidi/plugref/graph"
	"github.com/dhamidi/plugref/platform"
	"github.com/dhamidi/plugref/reference"
	"github.com/dhamidi/plugref/span"
)

// Severity follows the numbering of LSP diagnostic severities.
type Severity int

const (
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

const (
	CodeInvalidPluginID    = "invalid-plugin-id"
	CodeUnknownPluginID    = "unknown-plugin-id"
	CodeDuplicatePluginID  = "duplicate-plugin-id"
	CodeMainClassMissing   = "main-class-missing"
	CodeMainClassNotPlugin = "main-class-not-plugin"
	CodeUnresolvedAccessor = "unresolved-accessor"
	CodeUnresolvedInvoker  = "unresolved-invoker"
	CodeUnknownCommand     = "unknown-command"
	CodeMissingAsset       = "missing-asset"
)

type Diagnostic struct {
	File     string
	Span     span.Span
	Severity Severity
	Code     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%s: %s: %s [%s]", d.File, d.Span.Start, d.Severity, d.Message, d.Code)
}

type Inspector struct {
	engine *reference.Engine
	config *config.Config
}

// New returns an inspector using the built-in strategies. cfg may be nil.
func New(cfg *config.Config) *Inspector {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Inspector{engine: reference.DefaultEngine(), config: cfg}
}

// Check inspects files and returns their diagnostics ordered by file and
// position.
func (in *Inspector) Check(g graph.Accessor, files []string) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, file := range files {
		found, err := in.CheckFile(g, file)
		if err != nil {
			return nil, err
		}
		diags = append(diags, found...)
	}
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		return diags[i].Span.Start.Before(diags[j].Span.Start)
	})
	return diags, nil
}

func (in *Inspector) CheckFile(g graph.Accessor, file string) ([]Diagnostic, error) {
	sites, err := reference.Sites(g, file)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", file, err)
	}
	var diags []Diagnostic
	for _, site := range sites {
		strategy, pattern, ok := in.engine.Match(g, site)
		if !ok {
			continue
		}
		if d, ok := in.checkSite(g, site, strategy, pattern); ok {
			diags = append(diags, d)
		}
	}
	return diags, nil
}

func (in *Inspector) checkSite(g graph.Accessor, site *reference.Site, s reference.Strategy, p reference.Pattern) (Diagnostic, bool) {
	report := func(severity Severity, code, format string, args ...any) (Diagnostic, bool) {
		return Diagnostic{
			File:     site.File,
			Span:     site.Span,
			Severity: severity,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
		}, true
	}

	switch s.Category() {
	case reference.CategoryPluginID:
		if !site.Constant {
			return Diagnostic{}, false
		}
		if !platform.IsValidPluginID(site.Value) {
			return report(SeverityError, CodeInvalidPluginID,
				"Plugin id %q must start with a lower case letter and contain only lower case letters, digits, '-' and '_' (2-64 characters)", site.Value)
		}
		if p.Name == "plugin-id" {
			if first, ok := firstOtherDeclaration(g, site); ok {
				return report(SeverityError, CodeDuplicatePluginID,
					"Plugin id %q is already declared by %s", site.Value, first.Use.Class.Name)
			}
			return Diagnostic{}, false
		}
		if s.IsUnresolved(g, site) && !in.config.IsKnownPluginID(site.Value) {
			return report(SeverityWarning, CodeUnknownPluginID, "Cannot resolve plugin %q", site.Value)
		}

	case reference.CategoryMainClass:
		targets := s.Resolve(g, site)
		if len(targets) == 0 {
			return report(SeverityError, CodeMainClassMissing, "Main class %q does not exist", site.Value)
		}
		// A hierarchy reaching an unknown library type cannot be checked.
		name := targets[0].Name
		if !graph.IsSubtype(g, name, platform.BukkitPlugin, graph.ProjectScope()) && graph.HierarchyKnown(g, name, graph.ProjectScope()) {
			return report(SeverityError, CodeMainClassNotPlugin, "Main class %q does not implement %s", site.Value, platform.BukkitPlugin)
		}

	case reference.CategoryAccessorTarget:
		if s.IsUnresolved(g, site) {
			return report(SeverityError, CodeUnresolvedAccessor, "Cannot find accessor target for %s", site.Value)
		}

	case reference.CategoryInvokerTarget:
		if s.IsUnresolved(g, site) {
			return report(SeverityError, CodeUnresolvedInvoker, "Cannot find invoker target for %s", site.Value)
		}

	case reference.CategoryCommand:
		if site.IsJava() && s.IsUnresolved(g, site) {
			return report(SeverityWarning, CodeUnknownCommand, "Command %q is not declared in %s", site.Value, platform.DefaultManifestName)
		}

	case reference.CategoryAssetPath:
		if s.IsUnresolved(g, site) {
			return report(SeverityWarning, CodeMissingAsset, "Cannot find asset %q", site.Value)
		}
	}
	return Diagnostic{}, false
}

// firstOtherDeclaration returns the declaration that wins the id of a
// @Plugin site when it is not the site's own declaration.
func firstOtherDeclaration(g graph.Accessor, site *reference.Site) (reference.PluginDeclaration, bool) {
	if site.Java == nil || len(site.Java.Annotations) == 0 || site.Java.Annotations[0].Model == nil {
		return reference.PluginDeclaration{}, false
	}
	own := site.Java.Annotations[0].Model.Span
	for _, d := range reference.PluginDeclarations(g) {
		if d.ID != site.Value {
			continue
		}
		if d.Use.File() == site.File && d.Use.Annotation.Span == own {
			return reference.PluginDeclaration{}, false
		}
		return d, true
	}
	return reference.PluginDeclaration{}, false
}
