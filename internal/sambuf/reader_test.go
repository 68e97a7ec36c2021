package sambuf

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLineBasic(t *testing.T) {
	r := NewReader(strings.NewReader("abc\ndef\r\nghi"))

	line, err := r.GetLine()
	require.NoError(t, err)
	assert.Equal(t, "abc", line.String())

	line, err = r.GetLine()
	require.NoError(t, err)
	assert.Equal(t, "def", line.String())

	line, err = r.GetLine()
	require.NoError(t, err)
	assert.Equal(t, "ghi", line.String())

	_, err = r.GetLine()
	assert.Equal(t, io.EOF, err)
}

func TestGetLineSpansMultipleFills(t *testing.T) {
	// The first fill holds long, its newline and "t"; the rest of "tail"
	// only arrives with the second fill.
	long := strings.Repeat("x", bufferSize-2)
	r := NewReader(strings.NewReader(long + "\ntail"))

	line, err := r.GetLine()
	require.NoError(t, err)
	assert.Equal(t, long, line.String())

	line, err = r.GetLine()
	require.NoError(t, err)
	assert.Equal(t, "tail", line.String())
}

func TestGetLineTooLongPanics(t *testing.T) {
	long := strings.Repeat("x", bufferSize+10)
	r := NewReader(strings.NewReader(long))
	assert.Panics(t, func() {
		_, _ = r.GetLine()
	})
}

func TestPeek(t *testing.T) {
	r := NewReader(strings.NewReader("@HD\tfoo"))
	b, ok := r.Peek()
	require.True(t, ok)
	assert.Equal(t, byte('@'), b)
}

func TestSliceSubSlice(t *testing.T) {
	buf := NewBuffer([]byte("hello world"))
	s := Of(buf, 0, 11)
	sub := s.Slice(6, 5)
	assert.Equal(t, "world", sub.String())
	assert.Equal(t, -1, s.Slice(0, 5).IndexByte('z'))
	assert.Equal(t, 4, s.IndexByte('o'))
}
