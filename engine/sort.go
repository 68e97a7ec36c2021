package engine

import (
	"github.com/grailbio/bio-samfilter/output"
	"github.com/grailbio/bio-samfilter/samio"
)

// effectiveSortingOrder resolves the requested order against the header's
// own declared order, updates @HD SO/GO to match, and returns the order
// the sink should actually produce. original is the header's SO as parsed,
// captured before any filter (e.g. a reference-dictionary replacement that
// downgrades SO to "unknown") has had a chance to run; current (h.SO(),
// read after filters have bound and possibly mutated the header) is what
// actually governs the decision once requested resolves to output.Keep.
//
// Grounded on filter_pipeline.cpp's effective_sorting_order.
func effectiveSortingOrder(requested, original string, h *samio.Header) string {
	so := requested
	if so == "" || so == output.Keep {
		so = original
	}
	current := h.SO()
	switch so {
	case output.Coordinate, output.QueryName:
		if current == so {
			return output.Keep
		}
		h.SetSO(so)
	case output.Unknown, output.Unsorted:
		if current != so {
			h.SetSO(so)
		}
	}
	return so
}
