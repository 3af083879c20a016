package diagnostics

import (
	"context"
	"strings"
	"testing"

	ccsc "github.com/alexaandru/go-sitter-forest/c"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, source string) (*sitter.Tree, []byte) {
	t.Helper()
	lang := sitter.NewLanguage(ccsc.GetLanguage())
	p := sitter.NewParser()
	require.NoError(t, p.SetLanguage(lang))
	src := []byte(source)
	tree, err := p.ParseString(context.Background(), nil, src)
	require.NoError(t, err)
	return tree, src
}

func TestWalkCleanSourceHasNoDiagnostics(t *testing.T) {
	tree, src := parse(t, "int main(void) {\n  return 0;\n}\n")
	assert.Empty(t, Walk(tree, src))
}

func TestWalkReportsUnexpectedToken(t *testing.T) {
	tree, src := parse(t, "int a = ;\n")
	diags := Walk(tree, src)
	require.NotEmpty(t, diags)
	assert.Equal(t, SyntaxSource, *diags[0].Source)
}

func TestWalkReportsMissingNode(t *testing.T) {
	tree, src := parse(t, "int main(void) {\n  int x = 1\n}\n")
	diags := Walk(tree, src)
	require.NotEmpty(t, diags)
	found := false
	for _, d := range diags {
		if strings.Contains(d.Message, "MISSING") {
			found = true
		}
	}
	assert.True(t, found)
}
