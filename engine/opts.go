package engine

import (
	"runtime"

	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
)

// HeaderFilter is a filter constructor deferred until a header is in hand,
// the Go equivalent of elprep's header_filter
// (function<alignment_filter(shared_ptr<sam_header>)>): filter.AddRefID,
// filter.ReplaceReferenceDictionary and friends already have this shape
// once partially applied over their non-header arguments, e.g.
//
//	func(h *samio.Header) (pipeline.Filter[*samio.Record], error) {
//		return filter.AddOrReplaceReadGroup(h, fields)
//	}
type HeaderFilter func(h *samio.Header) (pipeline.Filter[*samio.Record], error)

// Opts configures one run of the filter pipeline, the Go equivalent of the
// header_filter lists elprep_filter_script assembles: Filters runs over
// the input as it is read; PostFilters runs over the (possibly
// intermediate, possibly re-sorted) result before it reaches the final
// sink — elprep's "filters2", used for --remove-duplicates, which must see
// the fully mark-duplicates-annotated, final-order record stream.
type Opts struct {
	// SortingOrder is the requested @HD SO value, or output.Keep to leave
	// the input's own order (or its header's declared order) alone.
	SortingOrder string

	Filters     []HeaderFilter
	PostFilters []HeaderFilter

	// HasReplaceReferenceDictionary and HasMarkDuplicates mirror two of
	// elprep_filter_script's own filter-presence checks: Run uses them,
	// together with SortingOrder, to decide whether this run needs the
	// two-phase buffer-then-resort-then-write pipeline or can stream
	// straight through once.
	HasReplaceReferenceDictionary bool
	HasMarkDuplicates             bool

	// Parallelism gates the in-memory fast path: a run with both an
	// in-memory source and sink and parallelism this low or lower skips
	// the goroutine pipeline entirely and runs filters directly over a
	// slice, mirroring sam_pipeline_input::run_pipeline's
	// tbb::this_task_arena::max_concurrency() <= 3 bypass.
	Parallelism int
}

func (o Opts) parallelism() int {
	if o.Parallelism > 0 {
		return o.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

// fastPathMaxConcurrency is the original's hard-coded threshold (<=3)
// below which driving a goroutine pipeline costs more than it saves.
const fastPathMaxConcurrency = 3
