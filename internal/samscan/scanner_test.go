package samscan

import (
	"testing"

	"github.com/grailbio/bio-samfilter/internal/sambuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(s string) sambuf.Slice {
	return sambuf.Of(sambuf.NewBuffer([]byte(s)), 0, len(s))
}

func TestReadByteUntil(t *testing.T) {
	s := New(line("read1\t99\t*\t"))
	f, ok := s.ReadByteUntil('\t')
	require.True(t, ok)
	assert.Equal(t, "read1", f.String())

	n, err := s.Int()
	require.NoError(t, err)
	assert.Equal(t, 99, n)
}

func TestReadUntilTwoDelims(t *testing.T) {
	s := New(line("A:i:5\tB:Z:foo\n"))
	f, found, ok := s.ReadUntil('\t', '\n')
	require.True(t, ok)
	assert.Equal(t, byte('\t'), found)
	assert.Equal(t, "A:i:5", f.String())

	f, found, ok = s.ReadUntil('\t', '\n')
	require.True(t, ok)
	assert.Equal(t, byte('\n'), found)
	assert.Equal(t, "B:Z:foo", f.String())
}

func TestStringMissingDelimiter(t *testing.T) {
	s := New(line("noterminator"))
	_, err := s.String()
	assert.Error(t, err)
}

func TestLastString(t *testing.T) {
	s := New(line("a\tb\tc"))
	_, _ = s.String()
	_, _ = s.String()
	assert.Equal(t, "c", s.LastString())
	assert.True(t, s.Eol())
}
