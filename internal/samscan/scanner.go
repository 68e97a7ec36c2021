// Package samscan tokenizes a single SAM text line held in a sambuf.Slice.
package samscan

import (
	"strconv"

	"github.com/grailbio/bio-samfilter/internal/sambuf"
	"github.com/grailbio/bio-samfilter/samerr"
)

// Scanner walks a line left to right, handing out sub-slices as it finds
// delimiters. It never copies the underlying bytes.
type Scanner struct {
	line sambuf.Slice
	pos  int
}

// New returns a Scanner positioned at the start of line.
func New(line sambuf.Slice) *Scanner {
	return &Scanner{line: line}
}

// Eol reports whether the scanner has consumed the whole line.
func (s *Scanner) Eol() bool { return s.pos >= s.line.Len() }

// Peek returns the next byte without consuming it.
func (s *Scanner) Peek() (byte, bool) {
	if s.Eol() {
		return 0, false
	}
	return s.line.At(s.pos), true
}

// ReadByteUntil consumes and returns bytes up to (not including) the first
// occurrence of delim, advancing past delim. ok is false if delim never
// appears before the end of the line.
func (s *Scanner) ReadByteUntil(delim byte) (field sambuf.Slice, ok bool) {
	rel := s.line.Slice(s.pos, s.line.Len()-s.pos).IndexByte(delim)
	if rel < 0 {
		return sambuf.Slice{}, false
	}
	field = s.line.Slice(s.pos, rel)
	s.pos += rel + 1
	return field, true
}

// ReadUntil consumes and returns bytes up to (not including) the first
// occurrence of either delim1 or delim2, advancing past whichever was found.
// found reports which delimiter terminated the field; ok is false if
// neither appears before the end of the line.
func (s *Scanner) ReadUntil(delim1, delim2 byte) (field sambuf.Slice, found byte, ok bool) {
	rest := s.line.Slice(s.pos, s.line.Len()-s.pos)
	for i := 0; i < rest.Len(); i++ {
		b := rest.At(i)
		if b == delim1 || b == delim2 {
			field = s.line.Slice(s.pos, i)
			s.pos += i + 1
			return field, b, true
		}
	}
	return sambuf.Slice{}, 0, false
}

// Rest returns everything from the current position to the end of the line,
// without advancing.
func (s *Scanner) Rest() sambuf.Slice {
	return s.line.Slice(s.pos, s.line.Len()-s.pos)
}

// Skip advances the scanner past n bytes.
func (s *Scanner) Skip(n int) { s.pos += n }

// String reads a tab-terminated field as a string, erroring if no tab
// follows before the end of the line.
func (s *Scanner) String() (string, error) {
	field, ok := s.ReadByteUntil('\t')
	if !ok {
		return "", samerr.New(samerr.Parse, "missing tab-delimited field")
	}
	return field.String(), nil
}

// Int reads a tab-terminated integer field.
func (s *Scanner) Int() (int, error) {
	field, err := s.String()
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(field)
	if convErr != nil {
		return 0, samerr.Wrap(samerr.Parse, convErr, "expected integer field")
	}
	return n, nil
}

// LastString reads the final field of a line (no trailing delimiter
// required).
func (s *Scanner) LastString() string {
	rest := s.Rest()
	s.pos = s.line.Len()
	return rest.String()
}
