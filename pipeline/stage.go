// Package pipeline implements the batched parallel/sequential/ordered
// pipeline described by node.cpp, pipeline.cpp, and source.cpp in the
// original implementation, using Go channels and goroutines in place of
// tbb::task_group and tbb::concurrent_bounded_queue: the teacher's
// traverse.Each dispatches a Parallel stage's worker pool, and its
// errors.Once aggregates the first error any worker reports back through
// Stage.End.
package pipeline

import (
	"runtime"

	baseerrors "github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/bio-samfilter/samerr"
	"github.com/grailbio/bio-samfilter/samio"
)

// Kind is a stage's scheduling discipline.
type Kind int

const (
	// Parallel stages process every batch concurrently and independently;
	// batches may complete out of order.
	Parallel Kind = iota
	// Sequential stages process batches one at a time, in the order they
	// were fed.
	Sequential
	// Ordered is like Sequential, except the stage upstream of it is
	// allowed to feed batches out of order (e.g. a Parallel stage);
	// an Ordered stage stashes early arrivals until their turn comes.
	Ordered
)

func (k Kind) family() int {
	if k == Parallel {
		return 0
	}
	return 1 // Sequential and Ordered share a channel-based family.
}

// Receiver transforms one batch. It returns the (possibly modified, possibly
// replaced) batch to hand to the next stage.
type Receiver[T any] func(samio.Batch[T]) samio.Batch[T]

// Finalizer runs once, after every batch a stage will ever see has been
// fed and processed.
type Finalizer func()

// Filter binds against a Runner, given the stage kind it will run under and
// a pointer to the running best estimate of the item count flowing through
// the pipeline (a filter that discards items refines it; a filter with
// nothing to do returns a nil Receiver and Finalizer, and is dropped).
type Filter[T any] func(kind Kind, dataSize *int) (Receiver[T], Finalizer)

// Stage is one node of a Runner[T]'s pipeline: a list of bound filters,
// merged with its neighbors where possible, executing under one of the
// three scheduling disciplines above.
type Stage[T any] struct {
	kind    Kind
	filters []Filter[T]

	receivers  []Receiver[T]
	finalizers []Finalizer

	forward func(seq int, b samio.Batch[T])

	feed chan samio.Batch[T]
	done chan struct{}
	errs baseerrors.Once
}

// NewStage returns an unbound stage with the given kind and filters. Call
// order follows the Filter list: filters earlier in the list process a
// batch before filters later in the list.
func NewStage[T any](kind Kind, filters ...Filter[T]) *Stage[T] {
	return &Stage[T]{kind: kind, filters: filters}
}

// tryMerge merges nxt into s if they share a scheduling family (Parallel
// with Parallel, or {Sequential,Ordered} with {Sequential,Ordered}),
// appending nxt's filters/receivers/finalizers and upgrading s's kind to
// Ordered if either side was Ordered. It must be called only after both
// stages have already been bound via begin.
func (s *Stage[T]) tryMerge(nxt *Stage[T]) bool {
	if s.kind.family() != nxt.kind.family() {
		return false
	}
	if nxt.kind == Ordered {
		s.kind = Ordered
	}
	s.receivers = append(s.receivers, nxt.receivers...)
	s.finalizers = append(s.finalizers, nxt.finalizers...)
	return true
}

// begin binds every filter against the stage's kind and the running
// dataSize estimate, dropping filters that have nothing to do. It reports
// whether the stage has any work left to do at all.
func (s *Stage[T]) begin(dataSize *int) bool {
	for _, f := range s.filters {
		r, fin := f(s.kind, dataSize)
		if r != nil {
			s.receivers = append(s.receivers, r)
		}
		if fin != nil {
			s.finalizers = append(s.finalizers, fin)
		}
	}
	s.filters = nil
	return len(s.receivers) > 0 || len(s.finalizers) > 0
}

// Start launches the stage's worker loop. The Runner calls this once
// merging is final, so a stage merged away never starts a goroutine that
// would otherwise block forever waiting for a Feed/End that will never
// come.
func (s *Stage[T]) Start() { s.start() }

// apply runs every receiver over b in order, recovering a panicking
// *samerr.Error the way a worker task failing to reach completion is the
// only way it can report that back across the goroutine boundary.
func (s *Stage[T]) apply(b samio.Batch[T]) (out samio.Batch[T], err error) {
	defer samerr.Recover(&err)
	out = b
	for _, r := range s.receivers {
		out = r(out)
	}
	return out, nil
}

// process runs b through apply, records any error, and forwards the result
// downstream unless it panicked.
func (s *Stage[T]) process(b samio.Batch[T]) {
	out, err := s.apply(b)
	if err != nil {
		s.errs.Set(err)
		return
	}
	if s.forward != nil {
		s.forward(out.Seq, out)
	}
}

// start launches the stage's worker loop: a bounded pool of traverse.Each
// workers draining s.feed for Parallel, a single goroutine for Sequential
// and Ordered.
func (s *Stage[T]) start() {
	s.feed = make(chan samio.Batch[T], channelCapacity())
	s.done = make(chan struct{})
	switch s.kind {
	case Parallel:
		go func() {
			s.errs.Set(traverse.Each(parallelWorkers(), func(int) error {
				for b := range s.feed {
					s.process(b)
				}
				return nil
			}))
			close(s.done)
		}()
	case Sequential:
		go func() {
			for b := range s.feed {
				if b.End() {
					break
				}
				s.process(b)
			}
			close(s.done)
		}()
	case Ordered:
		go func() {
			stash := map[int]samio.Batch[T]{}
			run := 0
			for b := range s.feed {
				if b.End() {
					break
				}
				if b.Seq > run {
					stash[b.Seq] = b
					continue
				}
				s.process(b)
				for {
					run++
					next, ok := stash[run]
					if !ok {
						break
					}
					delete(stash, run)
					s.process(next)
				}
			}
			close(s.done)
		}()
	}
}

func channelCapacity() int {
	return 2 * runtime.GOMAXPROCS(0)
}

// parallelWorkers bounds how many of a Parallel stage's batches run at
// once: one traverse.Each task per available processor, each draining
// s.feed until it's closed.
func parallelWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// Feed delivers one batch to the stage.
func (s *Stage[T]) Feed(b samio.Batch[T]) {
	s.feed <- b
}

// End signals that no further batches will be fed, waits for all
// outstanding work, runs the stage's finalizers in order, and returns the
// first error any worker reported (nil if none did).
func (s *Stage[T]) End() error {
	if s.kind == Parallel {
		close(s.feed)
	} else {
		s.feed <- samio.EndBatch[T]()
	}
	<-s.done
	for _, fin := range s.finalizers {
		fin()
	}
	s.receivers = nil
	s.finalizers = nil
	return s.errs.Err()
}
