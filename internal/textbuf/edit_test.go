package textbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMiddleReplacement(t *testing.T) {
	out, err := Apply([]byte("Hello, world!"), []byte("there"), 7, 12)
	require.NoError(t, err)
	assert.Equal(t, "Hello, there!", string(out))
}

func TestApplyInsertionAtPoint(t *testing.T) {
	out, err := Apply([]byte("int a;"), []byte("b"), 5, 5)
	require.NoError(t, err)
	assert.Equal(t, "int ab;", string(out))
}

func TestApplyWholeBufferReplacement(t *testing.T) {
	out, err := Apply([]byte("old content"), []byte("new"), 0, 11)
	require.NoError(t, err)
	assert.Equal(t, "new", string(out))
}

func TestApplyRejectsStartAfterEnd(t *testing.T) {
	_, err := Apply([]byte("abcdef"), []byte(""), 4, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestApplyRejectsEndBeyondBuffer(t *testing.T) {
	_, err := Apply([]byte("abc"), []byte(""), 0, 10)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestApplyRejectsNonBoundaryOffset(t *testing.T) {
	// "é" is a 2-byte code point starting at offset 0; offset 1 splits it.
	_, err := Apply([]byte("é"), []byte("x"), 1, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
