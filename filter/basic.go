package filter

import (
	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
)

// FilterUnmappedReads drops every record with the unmapped flag set.
func FilterUnmappedReads() pipeline.Filter[*samio.Record] {
	return static(func(r *samio.Record) bool { return !r.Flag.IsUnmapped() })
}

// FilterUnmappedReadsStrict drops every record that is unmapped, has no
// position, or carries no reference name — a record can lack the unmapped
// flag while having POS 0 or RNAME "*", which FilterUnmappedReads alone
// would let through.
func FilterUnmappedReadsStrict() pipeline.Filter[*samio.Record] {
	return static(func(r *samio.Record) bool {
		return !r.Flag.IsUnmapped() && r.Pos != 0 && r.RName != "*"
	})
}

// FilterDuplicateReads drops every record with the duplicate flag set.
func FilterDuplicateReads() pipeline.Filter[*samio.Record] {
	return static(func(r *samio.Record) bool { return !r.Flag.IsDuplicate() })
}

// FilterOptionalReads drops every record carrying an "sr" optional field,
// but only if the header declares an "@sr" user line — in which case that
// line is consumed (removed). Absent the "@sr" line the filter has nothing
// to do and binds to nil, dropping it from its stage.
func FilterOptionalReads(h *samio.Header) pipeline.Filter[*samio.Record] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		idx := -1
		for i, u := range h.User {
			if u.Kind == "sr" {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil
		}
		h.User = append(h.User[:idx], h.User[idx+1:]...)
		return receiver(func(r *samio.Record) bool {
			_, has := r.GetAux("sr")
			return !has
		}), nil
	}
}
