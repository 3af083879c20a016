// Package diagnostics turns a parsed syntax tree into syntax diagnostics
// (component C4) and ccsc-compiler *.err records into compiler diagnostics
// (component C5).
package diagnostics

import (
	"fmt"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// SyntaxSource is the diagnostic source tag attached to every DiagnosticWalker
// finding, per spec §4.4.
const SyntaxSource = "tree-sitter-ccsc"

// Walk visits every node of tree in document order and reports one
// diagnostic per error/missing rule that fires, per spec §4.4. A single node
// may contribute up to two diagnostics (an erroneous missing node).
func Walk(tree *sitter.Tree, source []byte) []protocol.Diagnostic {
	var diags []protocol.Diagnostic
	walkNode(tree.RootNode(), source, &diags)
	return diags
}

func walkNode(node sitter.Node, source []byte, diags *[]protocol.Diagnostic) {
	if node.IsNull() {
		return
	}

	if node.IsError() {
		*diags = append(*diags, nodeDiagnostic(node, source, errorDetail(node, source)))
	}
	if node.IsMissing() {
		*diags = append(*diags, nodeDiagnostic(node, source, fmt.Sprintf("MISSING %s", node.Type())))
	}

	for i := uint32(0); i < node.ChildCount(); i++ {
		walkNode(node.Child(i), source, diags)
	}
}

func errorDetail(node sitter.Node, source []byte) string {
	if node.ChildCount() == 0 && node.EndByte() > node.StartByte() {
		return fmt.Sprintf("UNEXPECTED '%s'", node.Content(source))
	}
	return node.Type()
}

func nodeDiagnostic(node sitter.Node, source []byte, detail string) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	src := SyntaxSource
	return protocol.Diagnostic{
		Range:    nodeRange(node),
		Severity: &severity,
		Source:   &src,
		Message:  fmt.Sprintf("Syntax error: '%s'", detail),
	}
}

func nodeRange(node sitter.Node) protocol.Range {
	sp, ep := node.StartPoint(), node.EndPoint()
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(sp.Row), Character: protocol.UInteger(sp.Column)},
		End:   protocol.Position{Line: protocol.UInteger(ep.Row), Character: protocol.UInteger(ep.Column)},
	}
}
