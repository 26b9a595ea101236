package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarReportsProgress(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf, 10, "working")

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Advance(1))
	}
	require.NoError(t, b.Finish())
	assert.NotEmpty(t, buf.String())
}

func TestBarRejectsNegativeIncrement(t *testing.T) {
	b := NewBar(&bytes.Buffer{}, 10, "working")
	require.ErrorIs(t, b.Advance(-1), ErrNegativeIncrement)
}

func TestBarMessage(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf, 10, "working")
	require.NoError(t, b.Advance(3))

	require.NoError(t, b.Message("halfway there"))
	_, after, ok := strings.Cut(buf.String(), "halfway there\n")
	require.True(t, ok)
	assert.Contains(t, after, "(3/10)")
}

func TestBarUnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf, 0, "scanning")
	require.NoError(t, b.Advance(5))
	require.NoError(t, b.Finish())
}

func TestNilBarIsNoop(t *testing.T) {
	var b *Bar
	assert.NoError(t, b.Advance(1))
	assert.NoError(t, b.Message("x"))
	assert.NoError(t, b.Finish())
}
