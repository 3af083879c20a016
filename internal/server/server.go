// Package server implements ServerCore (component C8): routes LSP events
// into the document/diagnostics/project components, serializing mutations
// of the shared Inner state behind one mutex (spec §5, §4.8).
package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/pr1metine/ls-ccsc/internal/document"
	"github.com/pr1metine/ls-ccsc/internal/lspext"
	"github.com/pr1metine/ls-ccsc/internal/project"
	"github.com/pr1metine/ls-ccsc/internal/uri"
)

const (
	lsName    = "ls-ccsc"
	lsVersion = "0.2.0-alpha"

	ignoredSource  = lsName
	ignoredMessage = "Document is ignored"

	errWatcherGlob = "**/*.err"
)

var logger = commonlog.GetLoggerf("ls-ccsc.server")

// inner is the Inner state of spec §5: DocumentIndex, ProjectConfig, and
// rootPath, guarded by one mutex. Handlers hold it only while they read or
// update these fields, not for the whole event: edits, diagnostics and
// hover on a Document run after it is released, serialized by that
// Document's own mutex. The parser has its own mutex (document.SharedParser) and is
// never acquired while inner.mu is held out of order (spec §9 "Shared
// mutable state": the parser mutex is a leaf lock).
type inner struct {
	mu       sync.Mutex
	rootPath string
	cfg      *project.Config
	index    project.Index
}

// Server is the LS-CCSC language server core.
type Server struct {
	inner  inner
	parser *document.SharedParser
	h      protocol.Handler
}

// New builds a Server with its LSP handler table wired, following the
// teacher's protocol.Handler construction in internal/server/server.go.
func New() *Server {
	s := &Server{parser: document.NewParser()}
	s.h = protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		TextDocumentDidOpen:            s.didOpen,
		TextDocumentDidChange:          s.didChange,
		TextDocumentHover:              s.hover,
		WorkspaceDidChangeWatchedFiles: s.didChangeWatchedFiles,
	}
	return s
}

// Run starts the server over stdio, per the teacher's main.go/server.go.
func (s *Server) Run() {
	srv := glspserver.NewServer(&s.h, lsName, false)
	if err := srv.RunStdio(); err != nil {
		logger.Errorf("server exited: %v", err)
	}
}

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	caps := s.h.CreateServerCapabilities()
	openClose := true
	change := protocol.TextDocumentSyncKindIncremental
	caps.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
	}
	caps.HoverProvider = true

	rootPath, err := resolveRootPath(params)
	if err != nil {
		return nil, err
	}

	mcpPath, err := findMcpFile(rootPath)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(mcpPath)
	if err != nil {
		return nil, lspext.Newf(lspext.CodeFileIO, "reading %q: %v", mcpPath, err)
	}
	cfg, err := project.LoadConfig(raw)
	if err != nil {
		return nil, err
	}

	idx := project.BuildIndex(cfg, rootPath, s.parser)
	errFiles := project.DiscoverErrFiles(rootPath)
	project.IngestErrFiles(idx, errFiles)

	s.inner.mu.Lock()
	s.inner.rootPath = rootPath
	s.inner.cfg = cfg
	s.inner.index = idx
	s.inner.mu.Unlock()

	logger.Infof("initialized project at %q from %q: %d tracked paths, %d seed *.err files", rootPath, mcpPath, len(idx), len(errFiles))

	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: strPtr(lsVersion),
		},
	}, nil
}

// resolveRootPath mirrors the teacher's RootURI/WorkspaceFolders fallback in
// internal/server/server.go, translated to our error-returning uri.ToPath.
func resolveRootPath(params *protocol.InitializeParams) (string, error) {
	if params.RootURI != nil {
		return toPathOrErr(*params.RootURI)
	}
	if len(params.WorkspaceFolders) > 0 {
		return toPathOrErr(params.WorkspaceFolders[0].URI)
	}
	return ".", nil
}

// toPathOrErr wraps uri.ToPath's failure as the spec §7 InvalidUri server
// error.
func toPathOrErr(u string) (string, error) {
	path, err := uri.ToPath(u)
	if err != nil {
		return "", lspext.Newf(lspext.CodeInvalidURI, "%v", err)
	}
	return path, nil
}

// findMcpFile locates the first *.mcp file directly under root (spec §4.8,
// §6: "non-recursive"). A logged warning for multiple candidates is a
// supplemented feature (SPEC_FULL.md) that does not change the documented
// "first one found" behavior; no candidate at all is returned as an error.
func findMcpFile(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", lspext.Newf(lspext.CodeFileIO, "reading project root %q: %v", root, err)
	}

	var candidates []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".mcp" {
			candidates = append(candidates, e.Name())
		}
	}
	sort.Strings(candidates)

	switch len(candidates) {
	case 0:
		return "", lspext.Newf(lspext.CodeMcpParse, "no .mcp file found under %q", root)
	case 1:
	default:
		logger.Warningf("multiple .mcp candidates found under %q: %v; using %q", root, candidates, candidates[0])
	}
	return filepath.Join(root, candidates[0]), nil
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	registration := protocol.Registration{
		ID:     "ls-ccsc-err-watcher",
		Method: "workspace/didChangeWatchedFiles",
		RegisterOptions: protocol.DidChangeWatchedFilesRegistrationOptions{
			Watchers: []protocol.FileSystemWatcher{
				{GlobPattern: errWatcherGlob},
			},
		},
	}
	ctx.Notify("client/registerCapability", protocol.RegistrationParams{
		Registrations: []protocol.Registration{registration},
	})
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	s.inner.mu.Lock()
	defer s.inner.mu.Unlock()
	s.inner.rootPath = ""
	s.inner.cfg = nil
	s.inner.index = nil
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, p *protocol.SetTraceParams) error {
	protocol.SetTraceValue(p.Value)
	return nil
}

func (s *Server) didOpen(ctx *glsp.Context, p *protocol.DidOpenTextDocumentParams) error {
	path, err := toPathOrErr(string(p.TextDocument.URI))
	if err != nil {
		return logAndReturn(err)
	}

	s.inner.mu.Lock()
	entry, tracked := s.inner.index[path]
	s.inner.mu.Unlock()

	resp := &lspext.Response{}
	if !tracked || !entry.IsSource() {
		withIgnored(resp, p.TextDocument.URI)
	} else {
		resp.WithDiagnostics(p.TextDocument.URI, entry.Doc.Diagnostics())
	}
	emit(ctx, resp)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, p *protocol.DidChangeTextDocumentParams) error {
	path, err := toPathOrErr(string(p.TextDocument.URI))
	if err != nil {
		return logAndReturn(err)
	}

	s.inner.mu.Lock()
	entry, tracked := s.inner.index[path]
	if !tracked {
		entry = document.Ignored()
		s.inner.index[path] = entry
	}
	s.inner.mu.Unlock()

	resp := &lspext.Response{}
	if !entry.IsSource() {
		withIgnored(resp, p.TextDocument.URI)
		emit(ctx, resp)
		return nil
	}

	changes := make([]document.ContentChange, 0, len(p.ContentChanges))
	for _, raw := range p.ContentChanges {
		changes = append(changes, toContentChange(raw))
	}

	log, err := entry.Doc.ApplyChanges(changes)
	if err != nil {
		return logAndReturn(err)
	}
	resp.WithLog(fmt.Sprintf("didChange %q: %d reparse steps, final byte length %d", path, len(log.Steps), lastByteLength(log)))
	resp.WithDiagnostics(p.TextDocument.URI, entry.Doc.Diagnostics())
	emit(ctx, resp)
	return nil
}

func lastByteLength(log document.ReparseLog) int {
	if len(log.Steps) == 0 {
		return 0
	}
	return log.Steps[len(log.Steps)-1].ByteLength
}

func toContentChange(raw any) document.ContentChange {
	switch ch := raw.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return document.ContentChange{Text: []byte(ch.Text)}
	case protocol.TextDocumentContentChangeEvent:
		return document.ContentChange{
			HasRange:  true,
			StartLine: uint32(ch.Range.Start.Line), StartChar: uint32(ch.Range.Start.Character),
			EndLine: uint32(ch.Range.End.Line), EndChar: uint32(ch.Range.End.Character),
			Text: []byte(ch.Text),
		}
	default:
		return document.ContentChange{}
	}
}

func (s *Server) didChangeWatchedFiles(ctx *glsp.Context, p *protocol.DidChangeWatchedFilesParams) error {
	pathSet := make(map[string]struct{}, len(p.Changes))
	for _, change := range p.Changes {
		path, err := toPathOrErr(string(change.URI))
		if err != nil {
			logger.Warningf("ignoring unresolvable watched-file URI %q: %v", change.URI, err)
			continue
		}
		pathSet[path] = struct{}{}
	}
	paths := make([]string, 0, len(pathSet))
	for path := range pathSet {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	s.inner.mu.Lock()
	aggregate := project.IngestErrFiles(s.inner.index, paths)
	s.inner.mu.Unlock()

	resp := &lspext.Response{}
	resp.WithLog(fmt.Sprintf("didChangeWatchedFiles: ingested %d *.err files, %d paths affected", len(paths), len(aggregate)))
	for path, diags := range aggregate {
		resp.WithDiagnostics(protocol.DocumentUri(uri.FromPath(path)), diags)
	}
	emit(ctx, resp)
	return nil
}

func (s *Server) hover(_ *glsp.Context, p *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := toPathOrErr(string(p.TextDocument.URI))
	if err != nil {
		return nil, err
	}

	s.inner.mu.Lock()
	entry, tracked := s.inner.index[path]
	s.inner.mu.Unlock()
	if !tracked {
		lookupErr := lspext.Newf(lspext.CodeLookupFailure, "hover on untracked path %q", path)
		logger.Warningf("%v", lookupErr)
		return nil, lookupErr
	}
	if !entry.IsSource() {
		return nil, nil
	}

	chain, rng, ok := entry.Doc.HoverAt(uint32(p.Position.Line), uint32(p.Position.Character))
	if !ok {
		return nil, nil
	}

	includes := entry.Doc.Includes()
	sort.Strings(includes)
	value := chain + "\n\n" + strings.Join(includes, "\n")

	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.PlainTextTextFormat, Value: value},
		Range:    &rng,
	}, nil
}

// withIgnored appends the ignored-document diagnostic (spec §4.8: a document
// outside the DocumentIndex, or classified Ignored, still gets a single
// warning-level diagnostic rather than silence) to resp and returns it.
func withIgnored(resp *lspext.Response, u protocol.DocumentUri) *lspext.Response {
	severity := protocol.DiagnosticSeverityWarning
	source := ignoredSource
	return resp.WithDiagnostics(u, []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 0},
		},
		Severity: &severity,
		Source:   &source,
		Message:  ignoredMessage,
	}})
}

// emit translates a Response envelope (spec §4.8) into actual LSP traffic:
// logs become info-level log lines, uriDiagnostics become one
// publishDiagnostics notification per URI.
func emit(ctx *glsp.Context, resp *lspext.Response) {
	for _, line := range resp.Logs {
		logger.Infof("%s", line)
	}
	for _, ud := range resp.UriDiagnostics {
		diags := ud.Diagnostics
		if diags == nil {
			diags = []protocol.Diagnostic{}
		}
		ctx.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
			URI:         ud.URI,
			Diagnostics: diags,
		})
	}
}

func logAndReturn(err error) error {
	logger.Errorf("%v", err)
	return fmt.Errorf("%w", err)
}

func strPtr(s string) *string { return &s }
