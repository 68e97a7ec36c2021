// Package sambuf provides the zero-copy byte views and buffered line reader
// that the rest of the module parses SAM text out of.
package sambuf

// Buffer is a fixed backing array for one or more Slices. A Reader never
// mutates a Buffer in place once a Slice may reference it; refilling
// allocates a new Buffer instead, so outstanding Slices stay valid for as
// long as something holds them.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data as a Buffer. data is not copied.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Slice is a zero-copy view into a Buffer: an offset and length, not a copy
// of the bytes. The zero Slice is null.
type Slice struct {
	buf    *Buffer
	off    int
	length int
}

// Of returns the Slice [off, off+length) of buf.
func Of(buf *Buffer, off, length int) Slice {
	return Slice{buf: buf, off: off, length: length}
}

// IsNull reports whether s references no Buffer.
func (s Slice) IsNull() bool { return s.buf == nil }

// Len returns the number of bytes in s.
func (s Slice) Len() int { return s.length }

// Bytes returns the bytes s views. The caller must not retain the result
// past the lifetime of the underlying Buffer's generation (i.e. must not
// mutate it); Reader never reuses a Buffer's backing array in place, so the
// slice remains valid for as long as it is reachable.
func (s Slice) Bytes() []byte {
	if s.buf == nil {
		return nil
	}
	return s.buf.data[s.off : s.off+s.length]
}

// String copies s's bytes into a new string.
func (s Slice) String() string {
	return string(s.Bytes())
}

// Slice returns the sub-view [off, off+length) of s.
func (s Slice) Slice(off, length int) Slice {
	return Slice{buf: s.buf, off: s.off + off, length: length}
}

// At returns the byte at index i.
func (s Slice) At(i int) byte {
	return s.buf.data[s.off+i]
}

// IndexByte returns the index of the first occurrence of b in s, or -1.
func (s Slice) IndexByte(b byte) int {
	for i := 0; i < s.length; i++ {
		if s.buf.data[s.off+i] == b {
			return i
		}
	}
	return -1
}
