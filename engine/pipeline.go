package engine

import (
	"io"
	"sync"

	"github.com/grailbio/bio-samfilter/internal/sambuf"
	"github.com/grailbio/bio-samfilter/output"
	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samerr"
	"github.com/grailbio/bio-samfilter/samio"
)

// Run reads SAM text from r, applies opts, and writes the result to w.
//
// Grounded on elprep.cpp's elprep_filter_script: whether mark-duplicates or
// a reference-dictionary replacement (with the original order otherwise
// kept) or a coordinate/queryname sort was requested decides between a
// single streaming pass and a two-phase pass through an in-memory buffer,
// the way run_best_practices_pipeline and
// run_best_practices_pipeline_intermediate_sam do.
//
// A fatal condition raised deep in the call tree (a malformed QUAL byte, a
// line too long for the read buffer, a broken entropy source) surfaces as a
// panic rather than a threaded-through error; Run is the single point that
// recovers one back into its ordinary return value, the way main's
// log.Fatalf is the single place such a condition is reported.
func Run(r io.Reader, w io.Writer, opts Opts) (err error) {
	defer samerr.Recover(&err)
	return run(r, w, opts)
}

func run(r io.Reader, w io.Writer, opts Opts) error {
	br := sambuf.NewReader(r)
	h, err := samio.ParseHeader(br)
	if err != nil {
		return err
	}
	original := h.SO()
	if original == "" {
		original = output.Unknown
	}
	requested := opts.SortingOrder
	if requested == "" {
		requested = output.Keep
	}

	if needsTwoPhase(opts, requested) {
		return runTwoPhase(br, w, h, original, requested, opts)
	}
	return runSinglePhase(br, w, h, original, requested, opts)
}

func needsTwoPhase(o Opts, requested string) bool {
	return o.HasMarkDuplicates ||
		requested == output.Coordinate ||
		requested == output.QueryName ||
		(o.HasReplaceReferenceDictionary && requested == output.Keep)
}

// buildAndBind constructs each HeaderFilter against h, then eagerly binds
// the resulting Filter against kind and a shared dataSize estimate
// (running its header-mutating side effect immediately, the way
// compose_filters does), repackaging the bound receiver/finalizer pairs as
// trivial Filters a Stage can hold without re-binding them.
func buildAndBind(h *samio.Header, headerFilters []HeaderFilter, kind pipeline.Kind, dataSize *int) ([]pipeline.Filter[*samio.Record], error) {
	bound := make([]pipeline.Filter[*samio.Record], 0, len(headerFilters))
	for _, hf := range headerFilters {
		f, err := hf(h)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		recv, fin := f(kind, dataSize)
		if recv == nil && fin == nil {
			continue
		}
		bound = append(bound, func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
			return recv, fin
		})
	}
	return bound, nil
}

// buildFilters constructs each HeaderFilter against h without eager
// binding, for use where ordinary Stage/Runner binding is good enough (no
// downstream decision depends on the filters' side effects having already
// run), e.g. opts.PostFilters in runTwoPhase's second pass.
func buildFilters(h *samio.Header, headerFilters []HeaderFilter) ([]pipeline.Filter[*samio.Record], error) {
	built := make([]pipeline.Filter[*samio.Record], 0, len(headerFilters))
	for _, hf := range headerFilters {
		f, err := hf(h)
		if err != nil {
			return nil, err
		}
		if f != nil {
			built = append(built, f)
		}
	}
	return built, nil
}

// runSinglePhase streams records straight from br to w through opts.Filters
// and a StreamSink, with no intermediate buffer.
func runSinglePhase(br *sambuf.Reader, w io.Writer, h *samio.Header, original, requested string, opts Opts) error {
	dataSize := -1
	bound, err := buildAndBind(h, opts.Filters, pipeline.Parallel, &dataSize)
	if err != nil {
		return err
	}
	so := effectiveSortingOrder(requested, original, h)

	sink := output.NewStreamSink(w)
	sinkStages, err := sink.Stages(so)
	if err != nil {
		return err
	}
	if err := samio.WriteHeader(w, h); err != nil {
		return err
	}

	stages := append([]*pipeline.Stage[*samio.Record]{pipeline.NewStage(pipeline.Parallel, bound...)}, sinkStages...)
	recRunner := pipeline.NewRunner(stages...)

	if err := driveLines(br, recRunner); err != nil {
		return err
	}
	if err := sink.Err(); err != nil {
		return err
	}
	return nil
}

// runTwoPhase buffers the filtered input in a MemorySink (sorting it if
// requested), then drains that buffer through opts.PostFilters to a
// StreamSink, mirroring run_best_practices_pipeline_intermediate_sam's two
// in-memory-backed runs.
func runTwoPhase(br *sambuf.Reader, w io.Writer, h *samio.Header, original, requested string, opts Opts) error {
	dataSize := -1
	bound, err := buildAndBind(h, opts.Filters, pipeline.Parallel, &dataSize)
	if err != nil {
		return err
	}
	so := effectiveSortingOrder(requested, original, h)

	buf := output.NewMemorySink()
	bufKind, bufFilter, err := buf.Stage(so)
	if err != nil {
		return err
	}

	phase1 := pipeline.NewRunner(
		pipeline.NewStage(pipeline.Parallel, bound...),
		pipeline.NewStage(bufKind, bufFilter),
	)
	if err := driveLines(br, phase1); err != nil {
		return err
	}

	if err := samio.WriteHeader(w, h); err != nil {
		return err
	}

	finalOrder := output.Keep
	if so == output.Unsorted {
		finalOrder = output.Unsorted
	}
	sink := output.NewStreamSink(w)
	sinkStages, err := sink.Stages(finalOrder)
	if err != nil {
		return err
	}
	postFilters, err := buildFilters(h, opts.PostFilters)
	if err != nil {
		return err
	}
	stages := append([]*pipeline.Stage[*samio.Record]{pipeline.NewStage(pipeline.Parallel, postFilters...)}, sinkStages...)
	phase2 := pipeline.NewRunner(stages...)
	src := pipeline.NewMemorySlice(buf.Items)
	if _, err := phase2.Run(src); err != nil {
		return err
	}
	return sink.Err()
}

// driveLines reads every line out of br, parses it in parallel, and feeds
// the resulting records into dst, the Go equivalent of the
// string_to_alignment parnode feeding the rest of a stream_pipeline_input's
// pipeline.
func driveLines(br *sambuf.Reader, dst *pipeline.Runner[*samio.Record]) error {
	dst.Begin(-1)

	bridge := &parseBridge{dst: dst}
	lines := pipeline.NewRunner(pipeline.NewStage(pipeline.Parallel, bridge.filter()))
	lines.Begin(-1)
	pipeline.DriveFetch[sambuf.Slice](newLineSource(br), -1, 0, lines.Feed)
	if err := lines.End(); err != nil {
		return err
	}
	if bridge.err != nil {
		return bridge.err
	}
	return dst.End()
}

// parseBridge parses each batch of lines into records and feeds them into
// the next Runner, bridging the element-type boundary DriveFetch can't
// cross on its own (a Runner is fixed to one element type for its whole
// chain).
type parseBridge struct {
	dst *pipeline.Runner[*samio.Record]

	mu  sync.Mutex
	err error
}

func (p *parseBridge) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

func (p *parseBridge) filter() pipeline.Filter[sambuf.Slice] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[sambuf.Slice], pipeline.Finalizer) {
		recv := func(b samio.Batch[sambuf.Slice]) samio.Batch[sambuf.Slice] {
			records := make([]*samio.Record, 0, len(b.Items))
			for _, line := range b.Items {
				rec, err := samio.ParseRecord(line)
				if err != nil {
					p.setErr(err)
					continue
				}
				records = append(records, rec)
			}
			p.dst.Feed(b.Seq, records)
			return b
		}
		return recv, nil
	}
}

// lineSource is a pipeline.Source[sambuf.Slice] over a Reader's lines,
// sized the way a stream is: unknown up front, fetched in the dynamic
// batch-size schedule DriveFetch falls back to for a negative Prepare.
type lineSource struct {
	r     *sambuf.Reader
	done  bool
	batch []sambuf.Slice
}

func newLineSource(r *sambuf.Reader) *lineSource { return &lineSource{r: r} }

func (s *lineSource) Prepare() int { return -1 }

func (s *lineSource) Fetch(n int) int {
	if s.done {
		s.batch = nil
		return 0
	}
	batch := make([]sambuf.Slice, 0, n)
	for len(batch) < n {
		line, err := s.r.GetLine()
		if err != nil {
			s.done = true
			break
		}
		batch = append(batch, line)
	}
	s.batch = batch
	return len(batch)
}

func (s *lineSource) Data() []sambuf.Slice { return s.batch }
