package pipeline

import (
	"runtime"
	"time"

	"github.com/grailbio/bio-samfilter/samio"
)

func defaultParallelism() int { return runtime.GOMAXPROCS(0) }

// Runner drives a Source through a chain of Stages: begin (bind filters,
// drop empty stages), merge adjacent compatible stages, feed batches
// fetched from the Source into the first surviving stage, then end every
// stage once the Source is drained.
type Runner[T any] struct {
	stages     []*Stage[T]
	nofBatches int
}

// NewRunner returns a Runner over the given stages, in pipeline order.
func NewRunner[T any](stages ...*Stage[T]) *Runner[T] {
	return &Runner[T]{stages: stages}
}

// SetNofBatches overrides the batch count used to divide a known-size
// Source's items (default: twice GOMAXPROCS, mirroring the teacher's
// 2*default_num_threads default).
func (r *Runner[T]) SetNofBatches(n int) { r.nofBatches = n }

// Begin binds every stage's filters against dataSize, drops stages left
// with nothing to do, and merges adjacent compatible stages. It returns the
// (possibly filter-refined) item count estimate.
func (r *Runner[T]) Begin(dataSize int) int {
	filtered := dataSize
	kept := r.stages[:0]
	for _, s := range r.stages {
		if s.begin(&filtered) {
			kept = append(kept, s)
		}
	}
	r.stages = kept

	merged := r.stages[:0]
	for i := 0; i < len(r.stages); i++ {
		if len(merged) > 0 && merged[len(merged)-1].tryMerge(r.stages[i]) {
			continue
		}
		merged = append(merged, r.stages[i])
	}
	r.stages = merged

	for i, s := range r.stages {
		if i+1 < len(r.stages) {
			next := r.stages[i+1]
			s.forward = func(seq int, b samio.Batch[T]) { next.Feed(b) }
		}
		s.Start()
	}
	return filtered
}

// Feed delivers one externally-produced batch to the first stage.
func (r *Runner[T]) Feed(seq int, items []T) {
	if len(r.stages) == 0 {
		return
	}
	r.stages[0].Feed(samio.Batch[T]{Seq: seq, Items: items})
}

// End signals end-of-input to every stage, in order, waiting for each to
// drain before ending the next (matching the original's sequential
// node->end() loop: a later stage's finalizer may depend on an earlier
// stage having flushed everything downstream first).
func (r *Runner[T]) End() error {
	for _, s := range r.stages {
		if err := s.End(); err != nil {
			return err
		}
	}
	return nil
}

// Run drives src through the pipeline end to end and returns the elapsed
// time, the way the original's top-level run(pipeline&) does.
func (r *Runner[T]) Run(src Source[T]) (time.Duration, error) {
	start := time.Now()
	dataSize := src.Prepare()
	r.Begin(dataSize)
	if len(r.stages) > 0 {
		nofBatches := r.nofBatches
		if nofBatches < 1 {
			nofBatches = DefaultNofBatches()
		}
		DriveFetch[T](src, dataSize, nofBatches, r.Feed)
	}
	if err := r.End(); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

// DefaultNofBatches returns twice GOMAXPROCS, the default batch count for a
// known-size Source when no override was set via SetNofBatches.
func DefaultNofBatches() int {
	return 2 * defaultParallelism()
}
