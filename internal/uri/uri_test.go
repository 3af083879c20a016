package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPathRoundTrip(t *testing.T) {
	p, err := ToPath("file:///home/dev/project/main.c")
	require.NoError(t, err)
	assert.Equal(t, "/home/dev/project/main.c", p)
}

func TestToPathRejectsNonFileScheme(t *testing.T) {
	_, err := ToPath("http://example.com/main.c")
	assert.ErrorIs(t, err, ErrNotFileScheme)
}

func TestFromPath(t *testing.T) {
	assert.Equal(t, "file:///home/dev/main.c", FromPath("/home/dev/main.c"))
}

func TestResolveIncludeRelative(t *testing.T) {
	got := ResolveInclude("/proj/src", "util.h")
	assert.Equal(t, "/proj/src/util.h", got)
}

func TestResolveIncludeParentRelative(t *testing.T) {
	got := ResolveInclude("/proj/src/sub", "../util.h")
	assert.Equal(t, "/proj/src/util.h", got)
}
