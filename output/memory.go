package output

import (
	"sort"
	"sync"

	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samerr"
	"github.com/grailbio/bio-samfilter/samio"
)

// MemorySink collects every record a pipeline feeds it, the Go equivalent
// of sam_pipeline_output's in-memory to_deque sink node. Keep/Unknown order
// is delivered through an Ordered stage, so Items already arrives in feed
// order with no further work; Coordinate/QueryName order runs through a
// Sequential stage and sorts as a Finalizer once every batch is in.
type MemorySink struct {
	mu    sync.Mutex
	Items []*samio.Record
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Stage returns the stage kind and filter a Runner should use to drain
// into s under the given sorting order.
func (s *MemorySink) Stage(order string) (pipeline.Kind, pipeline.Filter[*samio.Record], error) {
	switch order {
	case Keep, Unknown, "":
		return pipeline.Ordered, s.appendFilter(nil), nil
	case Unsorted:
		return pipeline.Sequential, s.appendFilter(nil), nil
	case Coordinate:
		return pipeline.Sequential, s.appendFilter(coordinateLess), nil
	case QueryName:
		return pipeline.Sequential, s.appendFilter(queryNameLess), nil
	default:
		return 0, nil, samerr.Newf(samerr.Config, "unknown sorting order %q", order)
	}
}

func (s *MemorySink) appendFilter(less func(a, b *samio.Record) bool) pipeline.Filter[*samio.Record] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		recv := func(b samio.Batch[*samio.Record]) samio.Batch[*samio.Record] {
			if len(b.Items) > 0 {
				s.mu.Lock()
				s.Items = append(s.Items, b.Items...)
				s.mu.Unlock()
			}
			return b
		}
		var fin pipeline.Finalizer
		if less != nil {
			fin = func() {
				sort.Slice(s.Items, func(i, j int) bool { return less(s.Items[i], s.Items[j]) })
			}
		}
		return recv, fin
	}
}
