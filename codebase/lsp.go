package codebase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"go.lsp.dev/uri"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/plugref/config"
	"github.com/dhamidi/plugref/inspect"
	"github.com/dhamidi/plugref/project"
	"github.com/dhamidi/plugref/reference"
	"github.com/dhamidi/plugref/span"
)

const lsName = "plugref"

type LSPServer struct {
	codebase  *Codebase
	config    *config.Config
	engine    *reference.Engine
	inspector *inspect.Inspector
	watcher   *FileWatcher
	handler   protocol.Handler
	server    *server.Server
	version   string

	mu     sync.Mutex
	open   map[string]bool
	notify glsp.NotifyFunc
}

// NewLSPServer creates a language server. cfg overrides the configuration
// file of the workspace when not nil.
func NewLSPServer(version string, cfg *config.Config) *LSPServer {
	ls := &LSPServer{
		config:  cfg,
		engine:  reference.DefaultEngine(),
		version: version,
		open:    make(map[string]bool),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentDefinition: ls.textDocumentDefinition,
		TextDocumentCompletion: ls.textDocumentCompletion,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	} else if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	}

	cfg := ls.config
	if cfg == nil {
		loaded, err := config.LoadFromRoot(rootDir)
		if err != nil {
			log.Warningf("%s, using defaults", err)
			loaded = config.Default()
		}
		cfg = loaded
	}
	proj, err := project.LoadFrom(rootDir, project.Options{
		ManifestNames: cfg.ManifestNames,
		Ignore:        cfg.Ignore,
	})
	if err != nil {
		return nil, err
	}
	ls.codebase = New(proj, cfg)
	ls.inspector = inspect.New(cfg)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.DefinitionProvider = true
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"\"", "/", ":"},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	ls.mu.Lock()
	ls.notify = ctx.Notify
	ls.mu.Unlock()

	if err := ls.codebase.ScanAll(context.Background()); err != nil {
		log.Errorf("scan: %s", err)
	}

	watcher, err := NewFileWatcher(ls.codebase)
	if err != nil {
		log.Warningf("%s, changes on disk will not be picked up", err)
		return nil
	}
	watcher.OnChange = func(string) { ls.publishOpenDiagnostics() }
	if err := watcher.Start(); err != nil {
		log.Warningf("%s, changes on disk will not be picked up", err)
		return nil
	}
	ls.watcher = watcher
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	if ls.watcher != nil {
		return ls.watcher.Stop()
	}
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.mu.Lock()
	ls.open[path] = true
	ls.mu.Unlock()

	if err := ls.codebase.SetOverlay(path, []byte(params.TextDocument.Text)); err != nil {
		log.Warningf("open %s: %s", path, err)
	}
	ls.publishDiagnostics(path)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			if err := ls.codebase.SetOverlay(path, []byte(textChange.Text)); err != nil {
				log.Warningf("change %s: %s", path, err)
			}
		}
	}
	ls.publishOpenDiagnostics()
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.mu.Lock()
	delete(ls.open, path)
	ls.mu.Unlock()

	if err := ls.codebase.ClearOverlay(path); err != nil {
		log.Warningf("close %s: %s", path, err)
	}
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		err = ls.codebase.SetOverlay(path, []byte(*params.Text))
	} else {
		err = ls.codebase.ScanFile(path)
	}
	if err != nil {
		log.Warningf("save %s: %s", path, err)
	}
	ls.publishOpenDiagnostics()
	return nil
}

// siteAt returns the reference site under an LSP position.
func (ls *LSPServer) siteAt(params protocol.TextDocumentPositionParams) (*reference.Site, []byte, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil, err
	}
	content, err := ls.codebase.Content(path)
	if err != nil {
		return nil, nil, err
	}
	site, err := reference.SiteAt(ls.codebase, path, fromProtocolPosition(content, params.Position))
	return site, content, err
}

func (ls *LSPServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	site, _, err := ls.siteAt(params.TextDocumentPositionParams)
	if err != nil || site == nil {
		return nil, nil
	}
	category, targets := ls.engine.Resolve(ls.codebase, site)
	log.Debugf("definition %s %q: %s, %d targets", site.File, site.Value, category, len(targets))

	var locations []protocol.Location
	for _, t := range targets {
		locations = append(locations, ls.location(t))
	}
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

func (ls *LSPServer) location(t reference.Target) protocol.Location {
	loc := protocol.Location{URI: protocol.DocumentUri(uri.File(t.File))}
	if t.Span.IsZero() {
		return loc
	}
	content, err := ls.codebase.Content(t.File)
	if err != nil {
		content = nil
	}
	loc.Range = toProtocolRange(content, t.Span)
	return loc
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	site, content, err := ls.siteAt(params.TextDocumentPositionParams)
	if err != nil || site == nil {
		return nil, nil
	}
	variants := ls.engine.CompleteAt(ls.codebase, site, site.Prefix)
	if len(variants) == 0 {
		return nil, nil
	}

	// The typed prefix ends at the cursor and is replaced by the candidate.
	cursor := fromProtocolPosition(content, params.Position)
	start := cursor
	start.Column -= len(site.Prefix)
	replace := toProtocolRange(content, span.Span{Start: start, End: cursor})

	items := make([]protocol.CompletionItem, 0, len(variants))
	for i, v := range variants {
		v := v
		kind := completionKind(v)
		detail := v.TypeText
		sortText := fmt.Sprintf("%05d", i)
		item := protocol.CompletionItem{
			Label:      v.Presentable,
			Kind:       &kind,
			Detail:     &detail,
			FilterText: &v.Text,
			SortText:   &sortText,
		}
		if item.Label == "" {
			item.Label = v.Text
		}
		if site.Prefix != "" {
			item.TextEdit = protocol.TextEdit{Range: replace, NewText: v.Text}
		} else {
			item.InsertText = &v.Text
		}
		items = append(items, item)
	}
	return protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

func completionKind(v reference.Variant) protocol.CompletionItemKind {
	if v.Target == nil {
		return protocol.CompletionItemKindText
	}
	switch v.Target.Kind {
	case reference.TargetType:
		return protocol.CompletionItemKindClass
	case reference.TargetField:
		return protocol.CompletionItemKindField
	case reference.TargetMethod:
		return protocol.CompletionItemKindMethod
	case reference.TargetManifestKey:
		return protocol.CompletionItemKindProperty
	case reference.TargetFile:
		return protocol.CompletionItemKindFile
	case reference.TargetDirectory:
		return protocol.CompletionItemKindFolder
	}
	return protocol.CompletionItemKindText
}

func (ls *LSPServer) publishOpenDiagnostics() {
	ls.mu.Lock()
	paths := make([]string, 0, len(ls.open))
	for path := range ls.open {
		paths = append(paths, path)
	}
	ls.mu.Unlock()
	for _, path := range paths {
		ls.publishDiagnostics(path)
	}
}

func (ls *LSPServer) publishDiagnostics(path string) {
	ls.mu.Lock()
	notify := ls.notify
	ls.mu.Unlock()
	if notify == nil {
		return
	}

	found, err := ls.inspector.CheckFile(ls.codebase, path)
	if err != nil {
		log.Warningf("inspect %s: %s", path, err)
		return
	}
	content, _ := ls.codebase.Content(path)
	source := lsName
	diagnostics := make([]protocol.Diagnostic, 0, len(found))
	for _, d := range found {
		severity := protocol.DiagnosticSeverity(d.Severity)
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    toProtocolRange(content, d.Span),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: d.Code},
			Source:   &source,
			Message:  d.Message,
		})
	}
	notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri.File(path)),
		Diagnostics: diagnostics,
	})
}

func uriToPath(u protocol.DocumentUri) (string, error) {
	parsed, err := uri.Parse(string(u))
	if err != nil {
		return "", fmt.Errorf("parse uri %s: %w", u, err)
	}
	if !strings.HasPrefix(string(parsed), uri.FileScheme+"://") {
		return "", fmt.Errorf("unsupported uri %s", u)
	}
	return filepath.Clean(parsed.Filename()), nil
}

// lineAt returns line n (0-based) of content without its line break.
func lineAt(content []byte, n int) string {
	lines := strings.Split(string(content), "\n")
	if n < 0 || n >= len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[n], "\r")
}

// fromProtocolPosition converts an LSP position, counted in UTF-16 code
// units, into a byte column position.
func fromProtocolPosition(content []byte, p protocol.Position) span.Position {
	line := lineAt(content, int(p.Line))
	units, col := 0, 0
	for col < len(line) && units < int(p.Character) {
		r, size := utf8.DecodeRuneInString(line[col:])
		units += utf16Len(r)
		col += size
	}
	return span.Position{Line: int(p.Line) + 1, Column: col + 1}
}

func toProtocolPosition(content []byte, p span.Position) protocol.Position {
	if p.Line < 1 {
		return protocol.Position{}
	}
	line := lineAt(content, p.Line-1)
	end := p.Column - 1
	if end > len(line) {
		end = len(line)
	}
	units := 0
	for _, r := range line[:max(end, 0)] {
		units += utf16Len(r)
	}
	if end < p.Column-1 {
		units += p.Column - 1 - end
	}
	return protocol.Position{Line: protocol.UInteger(p.Line - 1), Character: protocol.UInteger(units)}
}

func toProtocolRange(content []byte, s span.Span) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(content, s.Start), End: toProtocolPosition(content, s.End)}
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
