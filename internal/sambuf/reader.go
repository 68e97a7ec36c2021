package sambuf

import (
	"io"

	"github.com/grailbio/bio-samfilter/samerr"
)

// bufferSize is the size of each generation of the Reader's backing buffer.
// A single SAM line must fit within one buffer; a longer line is a fatal
// parse error rather than something the reader grows to accommodate, since
// a line that long almost always indicates corrupt input.
const bufferSize = 64 * 1024

// Reader reads newline-terminated lines out of an io.Reader, handing back
// zero-copy Slices into its current buffer generation. Lines returned by
// GetLine remain valid even after the Reader has moved on to a later
// generation, because fill never reuses a generation's backing array.
type Reader struct {
	r      io.Reader
	buf    *Buffer
	start  int // first unconsumed byte in buf
	end    int // one past the last valid byte in buf
	eof    bool
	closed bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{r: r, buf: NewBuffer(make([]byte, bufferSize))}
	rd.fill()
	return rd
}

// fill compacts any unconsumed tail into a fresh buffer generation and reads
// more data into it. It is a no-op once EOF has been reached and the tail
// has already been reported.
func (r *Reader) fill() {
	if r.eof {
		return
	}
	tail := r.end - r.start
	if tail >= bufferSize {
		panic(samerr.New(samerr.Parse, "line exceeds buffer size; input may be corrupt"))
	}
	next := NewBuffer(make([]byte, bufferSize))
	copy(next.data, r.buf.data[r.start:r.end])
	n, err := io.ReadFull(r.r, next.data[tail:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		panic(samerr.Wrap(samerr.IO, err, "read error"))
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		r.eof = true
	}
	r.buf = next
	r.start = 0
	r.end = tail + n
}

// Eof reports whether the reader has delivered all available bytes.
func (r *Reader) Eof() bool {
	return r.eof && r.start >= r.end
}

// Peek returns the next unconsumed byte without advancing, and whether one
// is available.
func (r *Reader) Peek() (byte, bool) {
	if r.start >= r.end {
		if r.eof {
			return 0, false
		}
		r.fill()
		if r.start >= r.end {
			return 0, false
		}
	}
	return r.buf.data[r.start], true
}

// GetLine returns the next line, with its trailing "\n" (and any preceding
// "\r") stripped, or io.EOF once no data remains.
func (r *Reader) GetLine() (Slice, error) {
	for {
		if idx := indexByte(r.buf.data[r.start:r.end], '\n'); idx >= 0 {
			lineEnd := r.start + idx
			trimmed := lineEnd
			if trimmed > r.start && r.buf.data[trimmed-1] == '\r' {
				trimmed--
			}
			line := Of(r.buf, r.start, trimmed-r.start)
			r.start = lineEnd + 1
			return line, nil
		}
		if r.eof {
			if r.start < r.end {
				line := Of(r.buf, r.start, r.end-r.start)
				r.start = r.end
				return line, nil
			}
			return Slice{}, io.EOF
		}
		r.fill()
	}
}

// SkipLine discards the next line without allocating a Slice for it.
func (r *Reader) SkipLine() error {
	_, err := r.GetLine()
	return err
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
