package filter

import (
	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samerr"
	"github.com/grailbio/bio-samfilter/samio"
)

// AddOrReplaceReadGroup replaces h's @RG list with a single entry built from
// fields, tags every record with that read group's ID, and keeps every
// record.
func AddOrReplaceReadGroup(h *samio.Header, fields []samio.Field) (pipeline.Filter[*samio.Record], error) {
	id, ok := fieldValue(fields, "ID")
	if !ok {
		return nil, samerr.New(samerr.Config, "read group missing ID field")
	}
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		h.RG = []samio.RGLine{{TaggedLine: samio.TaggedLine{Fields: fields}}}
		return receiver(func(r *samio.Record) bool {
			r.SetReadGroup(id)
			return true
		}), nil
	}, nil
}
