package engine

import (
	"github.com/grailbio/bio-samfilter/output"
	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samerr"
	"github.com/grailbio/bio-samfilter/samio"
)

// RunRecords filters (and, if requested, sorts) an already-parsed,
// in-memory slice of records into a MemorySink. Grounded on
// sam_pipeline_input::run_pipeline: when opts.Parallelism is at or below
// the fast-path threshold, it applies every filter and the sink's own
// append/sort step directly, in order, with no goroutine pipeline at all,
// the way the original bypasses tbb entirely
// (this_task_arena::max_concurrency() <= 3) when both ends are
// already in memory.
//
// Like Run, this recovers a panicking *samerr.Error raised anywhere in its
// call tree into its returned error.
func RunRecords(records []*samio.Record, h *samio.Header, opts Opts) (sink *output.MemorySink, err error) {
	defer samerr.Recover(&err)
	return runRecords(records, h, opts)
}

func runRecords(records []*samio.Record, h *samio.Header, opts Opts) (*output.MemorySink, error) {
	original := h.SO()
	if original == "" {
		original = output.Unknown
	}
	requested := opts.SortingOrder
	if requested == "" {
		requested = output.Keep
	}

	dataSize := len(records)
	bound, err := buildAndBind(h, opts.Filters, pipeline.Parallel, &dataSize)
	if err != nil {
		return nil, err
	}
	so := effectiveSortingOrder(requested, original, h)

	sink := output.NewMemorySink()
	kind, filter, err := sink.Stage(so)
	if err != nil {
		return nil, err
	}

	if opts.parallelism() <= fastPathMaxConcurrency {
		runRecordsFastPath(records, bound, filter)
		return sink, nil
	}

	stages := append([]*pipeline.Stage[*samio.Record]{pipeline.NewStage(pipeline.Parallel, bound...)}, pipeline.NewStage(kind, filter))
	runner := pipeline.NewRunner(stages...)
	src := pipeline.NewMemorySlice(records)
	if _, err := runner.Run(src); err != nil {
		return nil, err
	}
	return sink, nil
}

// runRecordsFastPath applies every already-bound filter and the sink's own
// filter in order, synchronously, over one batch covering the whole slice.
func runRecordsFastPath(records []*samio.Record, bound []pipeline.Filter[*samio.Record], sinkFilter pipeline.Filter[*samio.Record]) {
	items := append([]*samio.Record(nil), records...)
	dataSize := len(items)
	b := samio.Batch[*samio.Record]{Items: items}
	for _, f := range bound {
		recv, _ := f(pipeline.Sequential, &dataSize)
		if recv != nil {
			b = recv(b)
		}
	}
	recv, fin := sinkFilter(pipeline.Sequential, &dataSize)
	if recv != nil {
		recv(b)
	}
	if fin != nil {
		fin()
	}
}
