package markduplicates

import (
	"github.com/grailbio/bio-samfilter/samerr"
	"github.com/grailbio/bio-samfilter/samio"
)

func isClipOp(op byte) bool { return op == 'S' || op == 'H' }

func isRefOp(op byte) bool {
	switch op {
	case 'M', 'D', 'N', '=', 'X':
		return true
	default:
		return false
	}
}

// unclippedPosition returns the reference position r would map to if its
// soft/hard clips were included: for a forward-strand read, POS minus any
// leading clip run; for a reverse-strand read, POS plus every
// reference-consuming or trailing-clip-run operation, walked from the end
// of the CIGAR. The "clipped" flag is a saturating product (1 until the
// first non-clip op breaks the run, then 0 forever) so that only a
// contiguous trailing clip run counts.
func unclippedPosition(r *samio.Record) int {
	cigar := r.Cigar
	if len(cigar) == 0 {
		return r.Pos
	}
	if r.Flag.IsReverse() {
		clipped := 1
		result := r.Pos - 1
		for i := len(cigar) - 1; i >= 0; i-- {
			op := cigar[i].Op
			c := 0
			if isClipOp(op) {
				c = 1
			}
			ref := 0
			if isRefOp(op) {
				ref = 1
			}
			clipped *= c
			if ref|clipped != 0 {
				result += cigar[i].Length
			}
		}
		return result
	}
	result := r.Pos
	for _, op := range cigar {
		if !isClipOp(op.Op) {
			break
		}
		result -= op.Length
	}
	return result
}

// phredScore sums every quality byte at least 15 (after the usual -33
// offset), the sum of Phred-qualifying base qualities the original's
// compute_phred_score precomputes via a 512-entry lookup table. A quality
// byte outside the printable Phred range ['!'..'~'] is a fatal parse error.
func phredScore(r *samio.Record) (int, error) {
	score := 0
	for i := 0; i < len(r.Qual); i++ {
		c := r.Qual[i]
		if c < 33 || c > 126 {
			return 0, samerr.Newf(samerr.Parse, "invalid QUAL character %q", string(c))
		}
		if qual := int(c) - 33; qual >= 15 {
			score += qual
		}
	}
	return score, nil
}

// adapt populates r's LibID/AdaptedPos/AdaptedScore temps, the
// prerequisite for classifyFragment/classifyPair.
func adapt(r *samio.Record, h *samio.Header) error {
	r.LibID = h.Library(r.ReadGroup())
	r.AdaptedPos = unclippedPosition(r)
	score, err := phredScore(r)
	if err != nil {
		return err
	}
	r.AdaptedScore = score
	return nil
}
