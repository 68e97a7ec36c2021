package pipeline

import "github.com/grailbio/bio-samfilter/samio"

// Source produces the batches a Runner feeds into its first stage.
// Prepare returns the total number of items available, or a negative
// number if that count isn't known up front (e.g. a stream). Fetch moves
// up to n items into the batch Data returns next; it returns the number of
// items actually moved, 0 meaning no more data.
type Source[T any] interface {
	Prepare() int
	Fetch(n int) int
	Data() []T
}

// MemorySlice is a Source over an in-memory, already-materialized sequence.
type MemorySlice[T any] struct {
	items []T
	pos   int
	batch []T
}

// NewMemorySlice returns a Source that drains items in order.
func NewMemorySlice[T any](items []T) *MemorySlice[T] {
	return &MemorySlice[T]{items: items}
}

func (m *MemorySlice[T]) Prepare() int { return len(m.items) }

func (m *MemorySlice[T]) Fetch(n int) int {
	remaining := len(m.items) - m.pos
	if remaining <= 0 {
		m.batch = nil
		return 0
	}
	if n > remaining {
		n = remaining
	}
	m.batch = m.items[m.pos : m.pos+n]
	m.pos += n
	return n
}

func (m *MemorySlice[T]) Data() []T { return m.batch }

// batchInc and maxBatchSize govern the batch-size growth schedule used for
// sources with no known size (e.g. a stream): start at batchInc, grow by
// batchInc after every fetch, capped at maxBatchSize.
const (
	batchInc     = 1024
	maxBatchSize = 0x2000000
)

func nextBatchSize(size int) int {
	size += batchInc
	if size > maxBatchSize {
		size = maxBatchSize
	}
	return size
}

// DriveFetch pulls batches out of src and calls feed for each one, using
// the dynamic batch-size growth schedule if dataSize is negative (a
// stream), or dividing dataSize into nofBatches roughly equal batches
// otherwise. It is the shared fetch loop used by Runner.Run and by callers
// that hand-chain two Runners of different element types across a parsing
// boundary (see the line/record split in the engine package's driveLines).
func DriveFetch[T any](src Source[T], dataSize, nofBatches int, feed func(seq int, items []T)) {
	seq := 0
	if dataSize < 0 {
		size := batchInc
		for {
			n := src.Fetch(size)
			if n == 0 {
				break
			}
			feed(seq, src.Data())
			seq++
			size = nextBatchSize(size)
		}
		return
	}
	if nofBatches < 1 {
		nofBatches = 1
	}
	size := (dataSize-1)/nofBatches + 1
	if size < 1 {
		size = 1
	}
	for {
		n := src.Fetch(size)
		if n == 0 {
			break
		}
		feed(seq, src.Data())
		seq++
	}
}
