package markduplicates

import "github.com/grailbio/bio-samfilter/samio"

type pairFragmentKey struct {
	libID string
	qname string
}

type pairKey struct {
	libID                string
	refID1, refID2       int
	pos1, pos2           int
	reversed1, reversed2 bool
}

// pairState is one candidate pair sitting in e.pairs: its combined score and
// its two mates, ordered by adapted position (aln1 is the leftmost).
type pairState struct {
	score int
	aln1  *samio.Record
	aln2  *samio.Record
}

// claimMate rendezvous-matches r against whichever mate of the same
// (library, qname) arrived first, the Go equivalent of the original's
// concurrent_hash_map insert-or-erase accessor dance: the first arrival
// stores itself and returns nil; the second arrival atomically claims
// (loads and removes) the first's slot and returns it.
func (e *Engine) claimMate(key pairFragmentKey, r *samio.Record) *samio.Record {
	for {
		actual, loaded := e.pairFragments.LoadOrStore(key, r)
		if !loaded {
			return nil
		}
		mate := actual.(*samio.Record)
		if e.pairFragments.CompareAndDelete(key, actual) {
			return mate
		}
		// Lost the race to claim the slot; retry as a fresh arrival.
	}
}

// classifyPair classifies the completed pair (r and its rendezvous-matched
// mate) against e.pairs. r must already be adapted; it is a no-op for a
// true fragment (no mate to pair with) or while waiting for its mate.
func classifyPair(e *Engine, r *samio.Record) {
	if r.Flag.HasNoMappedMate() {
		return
	}
	mate := e.claimMate(pairFragmentKey{r.LibID, r.QName}, r)
	if mate == nil {
		return
	}

	aln1, aln2 := r, mate
	if aln1.AdaptedPos > aln2.AdaptedPos {
		aln1, aln2 = aln2, aln1
	}
	score := aln1.AdaptedScore + aln2.AdaptedScore

	key := pairKey{
		libID:     aln1.LibID,
		refID1:    aln1.RefID,
		pos1:      aln1.AdaptedPos,
		reversed1: aln1.Flag.IsReverse(),
		refID2:    aln2.RefID,
		pos2:      aln2.AdaptedPos,
		reversed2: aln2.Flag.IsReverse(),
	}
	state := &pairState{score: score, aln1: aln1, aln2: aln2}
	h := newHandle(state)
	actual, loaded := e.pairs.LoadOrStore(key, h)
	if !loaded {
		return
	}
	bestHandle := actual.(*handle[*pairState])

	for {
		best := bestHandle.load()
		switch {
		case best.score > score:
			markPairDuplicate(aln1, aln2)
			return
		case best.score == score:
			if !e.deterministic {
				markPairDuplicate(aln1, aln2)
				return
			}
			if aln1.QName > best.aln1.QName {
				markPairDuplicate(aln1, aln2)
				return
			}
			if bestHandle.compareExchange(best, state) {
				markPairDuplicate(best.aln1, best.aln2)
				return
			}
		default:
			if bestHandle.compareExchange(best, state) {
				markPairDuplicate(best.aln1, best.aln2)
				return
			}
		}
	}
}

func markPairDuplicate(aln1, aln2 *samio.Record) {
	aln1.Flag |= samio.Duplicate
	aln2.Flag |= samio.Duplicate
}
