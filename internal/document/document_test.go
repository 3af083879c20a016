package document

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyChangesRangedEditReparses(t *testing.T) {
	src := []byte("int main(void) {\n  int x = 1;\n  return x;\n}\n")
	doc, err := New("/tmp/main.c", src, NewParser())
	require.NoError(t, err)

	// Replace "1" on line 1 with "42" (spec §8 scenario 3).
	log, err := doc.ApplyChanges([]ContentChange{{
		HasRange:  true,
		StartLine: 1, StartChar: 10,
		EndLine: 1, EndChar: 11,
		Text: []byte("42"),
	}})
	require.NoError(t, err)
	require.Len(t, log.Steps, 1)
	assert.Greater(t, log.Steps[0].ByteLength, 0)

	diags, err := doc.SyntaxDiagnostics()
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestApplyChangesWholeDocumentReplace(t *testing.T) {
	doc, err := New("/tmp/main.c", []byte("int a;\n"), NewParser())
	require.NoError(t, err)

	// range=null: a whole-document replacement (spec §8 scenario 6).
	log, err := doc.ApplyChanges([]ContentChange{{
		Text: []byte("int b;\nint c;\n"),
	}})
	require.NoError(t, err)
	require.Len(t, log.Steps, 1)
	assert.Equal(t, len("int b;\nint c;\n"), log.Steps[0].ByteLength)
}

func TestApplyChangesMultipleStepsInOneBatch(t *testing.T) {
	doc, err := New("/tmp/main.c", []byte("int a;\nint b;\n"), NewParser())
	require.NoError(t, err)

	log, err := doc.ApplyChanges([]ContentChange{
		{HasRange: true, StartLine: 0, StartChar: 4, EndLine: 0, EndChar: 5, Text: []byte("x")},
		{HasRange: true, StartLine: 1, StartChar: 4, EndLine: 1, EndChar: 5, Text: []byte("y")},
	})
	require.NoError(t, err)
	assert.Len(t, log.Steps, 2)
}

func TestApplyChangesRejectsInvertedRange(t *testing.T) {
	doc, err := New("/tmp/main.c", []byte("int a;\n"), NewParser())
	require.NoError(t, err)

	_, err = doc.ApplyChanges([]ContentChange{{
		HasRange:  true,
		StartLine: 0, StartChar: 5,
		EndLine: 0, EndChar: 1,
		Text: []byte("z"),
	}})
	assert.Error(t, err)
}

func TestIncludesResolvedAfterParse(t *testing.T) {
	doc, err := New("/tmp/sub/main.c", []byte(`#include "util.h"`+"\n"), NewParser())
	require.NoError(t, err)

	includes := doc.Includes()
	require.Len(t, includes, 1)
	assert.Equal(t, "/tmp/sub/util.h", includes[0])
}

func TestIncludesAngleBracketsIgnored(t *testing.T) {
	doc, err := New("/tmp/main.c", []byte(`#include <stdio.h>`+"\n"), NewParser())
	require.NoError(t, err)
	assert.Empty(t, doc.Includes())
}

func TestDiagnosticsMergesSyntaxAndCompiler(t *testing.T) {
	doc, err := New("/tmp/main.c", []byte("int a;\n"), NewParser())
	require.NoError(t, err)

	assert.Empty(t, doc.Diagnostics())

	doc.SetCompilerDiagnostics([]protocol.Diagnostic{{Message: "compiler error"}})
	assert.Len(t, doc.Diagnostics(), 1)

	doc.SetCompilerDiagnostics(nil)
	assert.Empty(t, doc.Diagnostics())
}

func TestHoverAtReturnsDeepestSpanningNode(t *testing.T) {
	doc, err := New("/tmp/main.c", []byte("int a;\n"), NewParser())
	require.NoError(t, err)

	chain, rng, ok := doc.HoverAt(0, 0)
	require.True(t, ok)
	assert.NotEmpty(t, chain)
	assert.Equal(t, uint32(0), uint32(rng.Start.Line))
}
