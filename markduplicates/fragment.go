package markduplicates

import "github.com/grailbio/bio-samfilter/samio"

type fragmentKey struct {
	libID    string
	refID    int
	pos      int
	reversed bool
}

// classifyFragment classifies r against e's fragment map, setting r's (or
// the evicted candidate's) duplicate bit. r must already be adapted.
func classifyFragment(e *Engine, r *samio.Record) {
	key := fragmentKey{r.LibID, r.RefID, r.AdaptedPos, r.Flag.IsReverse()}
	h := newHandle(r)
	actual, loaded := e.fragments.LoadOrStore(key, h)
	if !loaded {
		return
	}
	bestHandle := actual.(*handle[*samio.Record])

	if r.Flag.HasNoMappedMate() {
		classifyFragmentAsFragment(bestHandle, r, e.deterministic)
	} else {
		classifyFragmentAsPairMember(bestHandle, r)
	}
}

// classifyFragmentAsFragment handles an incoming true fragment: it loses to
// a true pair outright, otherwise it's a score/qname contest with whatever
// true fragment currently holds the slot.
func classifyFragmentAsFragment(bestHandle *handle[*samio.Record], r *samio.Record, deterministic bool) {
	for {
		best := bestHandle.load()
		if !best.Flag.HasNoMappedMate() {
			r.Flag |= samio.Duplicate
			return
		}
		switch {
		case best.AdaptedScore > r.AdaptedScore:
			r.Flag |= samio.Duplicate
			return
		case best.AdaptedScore == r.AdaptedScore:
			if !deterministic {
				r.Flag |= samio.Duplicate
				return
			}
			if r.QName > best.QName {
				r.Flag |= samio.Duplicate
				return
			}
			if bestHandle.compareExchange(best, r) {
				best.Flag |= samio.Duplicate
				return
			}
		default:
			if bestHandle.compareExchange(best, r) {
				best.Flag |= samio.Duplicate
				return
			}
		}
	}
}

// classifyFragmentAsPairMember handles an incoming alignment whose full pair
// logic runs separately (classifyPair): it only ever displaces a true
// fragment sitting in the fragment slot, never competes on score.
func classifyFragmentAsPairMember(bestHandle *handle[*samio.Record], r *samio.Record) {
	for {
		best := bestHandle.load()
		if !best.Flag.HasNoMappedMate() {
			return
		}
		if bestHandle.compareExchange(best, r) {
			best.Flag |= samio.Duplicate
			return
		}
	}
}
