package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr1metine/ls-ccsc/internal/document"
)

func TestBuildIndexClassifiesFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.c"), []byte("int main(void) {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("hi\n"), 0o644))

	cfg := &Config{
		Files: map[string]FileEntry{
			"file_0": {RelativePath: "main.c"},
			"file_1": {RelativePath: "readme.txt"},
			"file_2": {RelativePath: "other.c", IsOther: true},
			"file_3": {RelativePath: "missing.c"},
		},
	}

	idx := BuildIndex(cfg, root, document.NewParser())

	mainEntry := idx[filepath.Join(root, "main.c")]
	assert.True(t, mainEntry.IsSource())

	readmeEntry := idx[filepath.Join(root, "readme.txt")]
	assert.False(t, readmeEntry.IsSource())

	otherEntry := idx[filepath.Join(root, "other.c")]
	assert.False(t, otherEntry.IsSource())

	_, tracked := idx[filepath.Join(root, "missing.c")]
	assert.False(t, tracked)
}

func TestDiscoverErrFilesFindsNestedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "a.err"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.err"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte(""), 0o644))

	found := DiscoverErrFiles(root)
	require.Len(t, found, 2)
	assert.Equal(t, filepath.Join(root, "b.err"), found[0])
	assert.Equal(t, filepath.Join(root, "build", "a.err"), found[1])
}

func TestIngestErrFilesClearsThenInserts(t *testing.T) {
	root := t.TempDir()
	sourcePath := filepath.Join(root, "foo.c")
	require.NoError(t, os.WriteFile(sourcePath, []byte("int x;\n"), 0o644))

	doc, err := document.New(sourcePath, []byte("int x;\n"), document.NewParser())
	require.NoError(t, err)
	idx := Index{sourcePath: document.Source(doc)}

	errPath := filepath.Join(root, "build.err")
	line := `>>> Error 1 "` + sourcePath + `" Line 1(0,3): nope` + "\n"
	require.NoError(t, os.WriteFile(errPath, []byte(line), 0o644))

	aggregate := IngestErrFiles(idx, []string{errPath})
	require.Len(t, aggregate[sourcePath], 1)
	assert.Len(t, doc.Diagnostics(), 1)

	aggregate = IngestErrFiles(idx, nil)
	assert.Empty(t, aggregate)
	assert.Empty(t, doc.Diagnostics())
}
