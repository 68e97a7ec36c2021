package markduplicates

import (
	"sync"

	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
)

// Engine is the concurrent classification state for one mark-duplicates
// run: a fragment map, a pair-rendezvous map, and a pair map, all built
// fresh per run and shared by every goroutine processing that run's
// batches.
type Engine struct {
	fragments     sync.Map // fragmentKey -> *handle[*samio.Record]
	pairFragments sync.Map // pairFragmentKey -> *samio.Record
	pairs         sync.Map // pairKey -> *handle[*pairState]
	deterministic bool
}

// NewFilter returns a pipeline.Filter that runs a fresh Engine over every
// primary, mapped record in the pipeline, setting the duplicate flag bit in
// place. Every record is kept; a subsequent filter.FilterDuplicateReads
// stage performs removal, if requested.
func NewFilter(h *samio.Header, deterministic bool) pipeline.Filter[*samio.Record] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		e := &Engine{deterministic: deterministic}
		return func(b samio.Batch[*samio.Record]) samio.Batch[*samio.Record] {
			for _, r := range b.Items {
				if !isPrimaryMapped(r) {
					continue
				}
				if err := adapt(r, h); err != nil {
					panic(err)
				}
				classifyFragment(e, r)
				classifyPair(e, r)
			}
			return b
		}, nil
	}
}

// isPrimaryMapped reports whether r is eligible for duplicate marking: not
// unmapped, not secondary, not already a duplicate, not supplementary.
func isPrimaryMapped(r *samio.Record) bool {
	return r.Flag&(samio.Unmapped|samio.Secondary|samio.Duplicate|samio.Supplementary) == 0
}
