package output

import (
	"io"
	"sync"

	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samerr"
	"github.com/grailbio/bio-samfilter/samio"
)

// StreamSink writes records to w as they arrive, the Go equivalent of
// stream_pipeline_output: a parallel marshal stage renders each record
// into its Record.Line scratch slot, and a single-goroutine write stage
// drains those lines to w in order. Unlike MemorySink, a stream can't be
// re-sorted after the fact, so Stages rejects Coordinate and QueryName
// order up front the way the original does ("sorting on files not
// supported").
type StreamSink struct {
	w io.Writer

	mu  sync.Mutex
	err error
}

// NewStreamSink returns a StreamSink writing to w.
func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: w}
}

// Err returns the first write error encountered, if any.
func (s *StreamSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stages returns the marshal and write stages a Runner should append for
// the given sorting order.
func (s *StreamSink) Stages(order string) ([]*pipeline.Stage[*samio.Record], error) {
	switch order {
	case Coordinate, QueryName:
		return nil, samerr.Newf(samerr.Config, "cannot sort a streamed output by %q", order)
	}
	writeKind := pipeline.Sequential
	if order == Keep || order == Unknown || order == "" {
		writeKind = pipeline.Ordered
	}
	return []*pipeline.Stage[*samio.Record]{
		pipeline.NewStage(pipeline.Parallel, marshalFilter()),
		pipeline.NewStage(writeKind, s.writeFilter()),
	}, nil
}

func marshalFilter() pipeline.Filter[*samio.Record] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		recv := func(b samio.Batch[*samio.Record]) samio.Batch[*samio.Record] {
			for _, r := range b.Items {
				r.SetLine(samio.FormatRecord(r))
			}
			return b
		}
		return recv, nil
	}
}

func (s *StreamSink) writeFilter() pipeline.Filter[*samio.Record] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		recv := func(b samio.Batch[*samio.Record]) samio.Batch[*samio.Record] {
			if s.Err() != nil {
				return b
			}
			for _, r := range b.Items {
				if _, err := s.w.Write(r.Line()); err != nil {
					s.mu.Lock()
					if s.err == nil {
						s.err = samerr.Wrap(samerr.IO, err, "writing record")
					}
					s.mu.Unlock()
					return b
				}
				r.SetLine(nil)
			}
			return b
		}
		return recv, nil
	}
}
