// Package document implements Document (component C3): a parsed CCS-C
// source file tracking its text, its incrementally-reparsed syntax tree, its
// resolved #include set, and the compiler diagnostics the Indexer attaches
// to it.
package document

import (
	"context"
	"fmt"
	"sync"

	ccsc "github.com/alexaandru/go-sitter-forest/c"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/pr1metine/ls-ccsc/internal/diagnostics"
	"github.com/pr1metine/ls-ccsc/internal/lspext"
	"github.com/pr1metine/ls-ccsc/internal/textbuf"
	"github.com/pr1metine/ls-ccsc/internal/uri"
)

var language = sitter.NewLanguage(ccsc.GetLanguage())

// includeQuery matches preprocessor #include directives, grounded on the
// prototype's PREPROC_INCLUDE_QUERY (ls-ccsc/src/docs/text_document_type.rs).
var includeQuery, includeQueryErr = sitter.NewQuery(language, []byte(`(preproc_include path: (_) @path) @include`))

// SharedParser is the single incremental-parsing engine shared by every
// Document (spec §5: "a separate shared resource guarded by its own
// mutex... stateful and not safe for concurrent parses"), grounded on the
// prototype's TextDocument.parser: Arc<Mutex<Parser>>.
type SharedParser struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewParser builds a tree-sitter parser configured for the CCS-C grammar
// stand-in, shared by every Document.
func NewParser() *SharedParser {
	p := sitter.NewParser()
	_ = p.SetLanguage(language)
	return &SharedParser{parser: p}
}

func (sp *SharedParser) parse(ctx context.Context, oldTree *sitter.Tree, source []byte) (*sitter.Tree, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.parser.ParseString(ctx, oldTree, source)
}

// ContentChange is one LSP content-change record. HasRange is false for a
// whole-document replacement (spec §4.3).
type ContentChange struct {
	HasRange             bool
	StartLine, StartChar uint32
	EndLine, EndChar     uint32
	Text                 []byte
}

// ReparseStep is one entry of a ReparseLog, grounded on the prototype's
// reparse_with_lsp log (post-edit text plus tree s-expression); we log the
// post-edit byte length and root node kind instead of a full s-expression
// dump, since the grammar is treated as opaque (see SPEC_FULL.md).
type ReparseStep struct {
	ByteLength int
	RootKind   string
}

// ReparseLog accumulates one ReparseStep per content change applied in a
// single ApplyChanges call.
type ReparseLog struct {
	Steps []ReparseStep
}

// Type is the tagged variant {Ignored | Source(Document)} of spec §3: a
// zero Type is Ignored, a Type wrapping a non-nil Document is Source. No
// shared interface is needed since Ignored carries no operations (spec §9
// "Design notes").
type Type struct {
	Doc *Document
}

// Ignored constructs the Ignored variant.
func Ignored() Type { return Type{} }

// Source constructs the Source(doc) variant.
func Source(doc *Document) Type { return Type{Doc: doc} }

// IsSource reports whether this entry carries a Document.
func (t Type) IsSource() bool { return t.Doc != nil }

// Document is a tracked CCS-C source file (spec §3, §4.3).
type Document struct {
	mu sync.Mutex

	parser       *SharedParser
	absolutePath string

	index         *textbuf.Index
	source        []byte
	tree          *sitter.Tree
	includes      map[string]struct{}
	compilerDiags []protocol.Diagnostic
}

// New parses rawText from scratch and extracts its includes.
func New(absolutePath string, rawText []byte, parser *SharedParser) (*Document, error) {
	tree, err := parser.parse(context.Background(), nil, rawText)
	if err != nil {
		return nil, fmt.Errorf("initial parse of %q: %w", absolutePath, err)
	}

	d := &Document{
		parser:       parser,
		absolutePath: absolutePath,
		index:        textbuf.NewIndex(rawText),
		source:       rawText,
		tree:         tree,
	}
	d.refreshIncludes()
	return d, nil
}

// AbsolutePath returns the document's absolute filesystem path.
func (d *Document) AbsolutePath() string {
	return d.absolutePath
}

// Includes returns the document's resolved include set as a sorted-free
// snapshot slice (set semantics; order is not significant).
func (d *Document) Includes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, 0, len(d.includes))
	for p := range d.includes {
		out = append(out, p)
	}
	return out
}

// ApplyChanges processes changes in order, per the §4.3 algorithm: each
// step resolves byte offsets from the pre-edit PositionIndex, applies the
// ranged replacement, rebuilds the PositionIndex from the post-edit text,
// resolves the new-end position from that fresh index, and submits the
// resulting InputEdit to the parser before moving to the next change.
func (d *Document) ApplyChanges(changes []ContentChange) (ReparseLog, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var log ReparseLog

	for _, change := range changes {
		startPos, oldEndPos := change.resolvePositions()

		startByte := d.index.OffsetOf(startPos)
		oldEndByte := d.index.OffsetOf(oldEndPos)
		if startByte > oldEndByte {
			return log, &lspext.Error{Code: lspext.CodePositionOutOfRange, Reason: fmt.Sprintf("change start %v after end %v in %q", startPos, oldEndPos, d.absolutePath)}
		}

		newBuffer, err := textbuf.Apply(d.source, change.Text, startByte, oldEndByte)
		if err != nil {
			return log, fmt.Errorf("applying change to %q: %w", d.absolutePath, err)
		}

		newIndex := textbuf.NewIndex(newBuffer)
		newEndByte := startByte + uint32(len(change.Text))
		newEndPos := newIndex.PositionOf(newEndByte)

		edit := sitter.InputEdit{
			StartIndex:    startByte,
			OldEndIndex:   oldEndByte,
			NewEndIndex:   newEndByte,
			StartPoint:    toPoint(startPos),
			OldEndPoint:   toPoint(oldEndPos),
			NewEndPoint:   toPoint(newEndPos),
		}

		if d.tree != nil {
			d.tree.Edit(edit)
		}
		newTree, err := d.parser.parse(context.Background(), d.tree, newBuffer)
		if err != nil {
			// Parser failure: source stands, tree is dropped until the next
			// successful reparse (spec §4.3 "Failure semantics").
			d.source = newBuffer
			d.index = newIndex
			if d.tree != nil {
				d.tree.Close()
				d.tree = nil
			}
			return log, fmt.Errorf("reparsing %q: %w", d.absolutePath, err)
		}

		if d.tree != nil {
			d.tree.Close()
		}
		d.tree = newTree
		d.source = newBuffer
		d.index = newIndex

		log.Steps = append(log.Steps, ReparseStep{
			ByteLength: len(newBuffer),
			RootKind:   d.tree.RootNode().Type(),
		})
	}

	d.refreshIncludes()
	return log, nil
}

func toPoint(pos textbuf.Position) sitter.Point {
	return sitter.Point{Row: uint32(pos.Row), Column: uint32(pos.Column)}
}

// resolvePositions turns a ContentChange into the (start, oldEnd) positions
// to resolve against the pre-edit index. An absent range is treated as
// (0,0)..(max,max), which clamps to the whole buffer per spec §4.1/§4.3.
func (c ContentChange) resolvePositions() (start, oldEnd textbuf.Position) {
	if !c.HasRange {
		return textbuf.Position{Row: 0, Column: 0}, textbuf.Position{Row: ^uint32(0), Column: ^uint32(0)}
	}
	return textbuf.Position{Row: c.StartLine, Column: c.StartChar}, textbuf.Position{Row: c.EndLine, Column: c.EndChar}
}

// refreshIncludes re-runs the include query over the current tree. Called
// after a full parse and after every ApplyChanges batch; the prototype only
// refreshes on full parse, but doing so after every batch is simpler and
// strictly more correct (see DESIGN.md, C3 "Open Question resolved"). Only
// quoted path literals are resolved; angle-bracket includes are skipped.
func (d *Document) refreshIncludes() {
	if includeQueryErr != nil || d.tree == nil {
		return
	}

	root := d.tree.RootNode()
	if root.IsNull() {
		return
	}

	dir := parentDir(d.absolutePath)
	includes := make(map[string]struct{})

	qc := sitter.NewQueryCursor()
	it := qc.Matches(includeQuery, root, d.source)
	for {
		m := it.Next()
		if m == nil {
			break
		}

		var includeNode, pathNode *sitter.Node
		for _, cap := range m.Captures {
			switch includeQuery.CaptureNameForID(cap.Index) {
			case "include":
				includeNode = &cap.Node
			case "path":
				pathNode = &cap.Node
			}
		}
		if includeNode == nil || pathNode == nil || includeNode.IsNull() || pathNode.IsNull() {
			continue
		}
		if includeNode.HasError() {
			continue
		}

		raw := pathNode.Content(d.source)
		if len(raw) <= 2 || raw[0] != '"' {
			continue
		}
		literal := raw[1 : len(raw)-1]
		includes[uri.ResolveInclude(dir, literal)] = struct{}{}
	}

	d.includes = includes
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// SyntaxDiagnostics walks the current tree via diagnostics.Walk. Returns
// NoSyntaxTree if no tree is currently available (spec §4.3 failure
// semantics: a failed reparse leaves tree absent until the next success).
func (d *Document) SyntaxDiagnostics() ([]protocol.Diagnostic, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tree == nil {
		return nil, &lspext.Error{Code: lspext.CodeNoSyntaxTree, Reason: fmt.Sprintf("no syntax tree for %q", d.absolutePath)}
	}
	return diagnostics.Walk(d.tree, d.source), nil
}

// Diagnostics returns syntaxDiagnostics() concatenated with compilerDiags
// (spec §4.3, §4.4 "Merged diagnostics"). A missing tree yields just the
// compiler diagnostics rather than failing, since compiler diagnostics are
// independently useful.
func (d *Document) Diagnostics() []protocol.Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []protocol.Diagnostic
	if d.tree != nil {
		out = append(out, diagnostics.Walk(d.tree, d.source)...)
	}
	out = append(out, d.compilerDiags...)
	return out
}

// SetCompilerDiagnostics replaces the document's compiler-derived
// diagnostics wholesale; used by the Indexer's clear-then-insert ingestion
// transaction (spec §4.5 "Ingestion side-effects").
func (d *Document) SetCompilerDiagnostics(diags []protocol.Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.compilerDiags = diags
}

// HoverAt walks the tree from root, descending via "first child spanning
// the point" until no such child exists, returning the slash-separated
// chain of node kinds from root to the deepest spanning node and that
// node's range (spec §4.8 hover).
func (d *Document) HoverAt(line, character uint32) (kindChain string, hoverRange protocol.Range, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tree == nil {
		return "", protocol.Range{}, false
	}

	point := sitter.Point{Row: line, Column: character}
	node := d.tree.RootNode()
	if node.IsNull() {
		return "", protocol.Range{}, false
	}

	chain := node.Type()
	for {
		next := firstChildSpanning(node, point)
		if next.IsNull() {
			break
		}
		node = next
		chain += "/" + node.Type()
	}

	sp, ep := node.StartPoint(), node.EndPoint()
	return chain, protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(sp.Row), Character: protocol.UInteger(sp.Column)},
		End:   protocol.Position{Line: protocol.UInteger(ep.Row), Character: protocol.UInteger(ep.Column)},
	}, true
}

func firstChildSpanning(node sitter.Node, point sitter.Point) sitter.Node {
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		sp, ep := child.StartPoint(), child.EndPoint()
		if pointLessOrEqual(sp, point) && pointLessOrEqual(point, ep) {
			return child
		}
	}
	return sitter.Node{}
}

func pointLessOrEqual(a, b sitter.Point) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Column <= b.Column
}
