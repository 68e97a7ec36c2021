package filter

import (
	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
)

// ReplaceReferenceDictionary installs dict as h's @SQ list and drops every
// record whose RNAME is not one of dict's names.
//
// If h's sort order is "coordinate", the new dictionary is checked for
// compatibility first: each dict entry present in the old dictionary must
// appear in strictly increasing old-position order relative to the others, or the
// existing coordinate order can no longer be trusted against the new
// dictionary and SO is downgraded to "unknown".
func ReplaceReferenceDictionary(h *samio.Header, dict []samio.SQLine) pipeline.Filter[*samio.Record] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		if h.SO() == "coordinate" {
			previousPos := -1
			for _, entry := range dict {
				pos := h.RefID(entry.Name())
				if pos < 0 {
					continue
				}
				if pos > previousPos {
					previousPos = pos
				} else {
					h.SetSO("unknown")
					break
				}
			}
		}
		names := make(map[string]struct{}, len(dict))
		for _, entry := range dict {
			names[entry.Name()] = struct{}{}
		}
		h.SQ = dict
		return receiver(func(r *samio.Record) bool {
			_, ok := names[r.RName]
			return ok
		}), nil
	}
}

// AddRefID resolves every record's RefID/RNextRefID against h's @SQ order
// as it stands at bind time (after any ReplaceReferenceDictionary ahead of
// it in the same pipeline has run its header-mutating side). Unresolvable
// names (rname "*", or a name absent from the dictionary) get -1. Every
// record is kept.
func AddRefID(h *samio.Header) pipeline.Filter[*samio.Record] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		dict := make(map[string]int, len(h.SQ))
		for i, sq := range h.SQ {
			dict[sq.Name()] = i
		}
		resolve := func(name string) int {
			if idx, ok := dict[name]; ok {
				return idx
			}
			return -1
		}
		return func(b samio.Batch[*samio.Record]) samio.Batch[*samio.Record] {
			for _, r := range b.Items {
				r.RefID = resolve(r.RName)
				r.RNextRefID = resolve(r.ResolvedRNextName())
			}
			return b
		}, nil
	}
}
