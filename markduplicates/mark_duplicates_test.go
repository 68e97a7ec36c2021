package markduplicates

import (
	"testing"

	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragmentRecord(t *testing.T, qname string, pos, mapq int, qual string) *samio.Record {
	t.Helper()
	r := samio.NewRecord()
	r.QName = qname
	r.RName = "chr1"
	r.RefID = 0
	r.Pos = pos
	r.MapQ = mapq
	r.Qual = qual
	return r
}

func runEngine(h *samio.Header, deterministic bool, recs []*samio.Record) {
	f := NewFilter(h, deterministic)
	recv, _ := f(pipeline.Sequential, new(int))
	recv(samio.Batch[*samio.Record]{Items: recs})
}

func TestClassifyFragmentsHigherScoreWins(t *testing.T) {
	h := samio.NewHeader()
	low := fragmentRecord(t, "r1", 100, 60, "((((((((((") // quals below 15 after -33 offset: '(' = 7
	high := fragmentRecord(t, "r2", 100, 60, "IIIIIIIIII") // 'I' = 40, well above 15

	runEngine(h, true, []*samio.Record{low, high})

	assert.True(t, low.Flag.IsDuplicate())
	assert.False(t, high.Flag.IsDuplicate())
}

func TestClassifyFragmentsDeterministicTieBreak(t *testing.T) {
	h := samio.NewHeader()
	a := fragmentRecord(t, "aaa", 100, 60, "IIII")
	b := fragmentRecord(t, "bbb", 100, 60, "IIII")

	runEngine(h, true, []*samio.Record{a, b})

	assert.False(t, a.Flag.IsDuplicate())
	assert.True(t, b.Flag.IsDuplicate())
}

func TestClassifyFragmentsNondeterministicExactlyOneSurvives(t *testing.T) {
	h := samio.NewHeader()
	a := fragmentRecord(t, "aaa", 100, 60, "IIII")
	b := fragmentRecord(t, "bbb", 100, 60, "IIII")

	runEngine(h, false, []*samio.Record{a, b})

	survivors := 0
	if !a.Flag.IsDuplicate() {
		survivors++
	}
	if !b.Flag.IsDuplicate() {
		survivors++
	}
	assert.Equal(t, 1, survivors)
}

func TestTruePairBeatsTrueFragmentAtSameFingerprint(t *testing.T) {
	h := samio.NewHeader()
	single := fragmentRecord(t, "single", 100, 60, "IIII")

	left := fragmentRecord(t, "paired", 100, 60, "IIII")
	left.Flag = samio.Paired
	right := fragmentRecord(t, "paired", 200, 60, "IIII")
	right.Flag = samio.Paired | samio.Reverse

	runEngine(h, true, []*samio.Record{single, left, right})

	assert.True(t, single.Flag.IsDuplicate())
	assert.False(t, left.Flag.IsDuplicate())
	assert.False(t, right.Flag.IsDuplicate())
}

func TestClassifyPairHigherCombinedScoreWins(t *testing.T) {
	h := samio.NewHeader()

	mkPair := func(qname string, qual string) (*samio.Record, *samio.Record) {
		left := fragmentRecord(t, qname, 100, 60, qual)
		left.Flag = samio.Paired
		right := fragmentRecord(t, qname, 200, 60, qual)
		right.Flag = samio.Paired | samio.Reverse
		return left, right
	}

	l1, r1 := mkPair("p1", "((((") // low score
	l2, r2 := mkPair("p2", "IIII") // high score

	runEngine(h, true, []*samio.Record{l1, r1, l2, r2})

	assert.True(t, l1.Flag.IsDuplicate())
	assert.True(t, r1.Flag.IsDuplicate())
	assert.False(t, l2.Flag.IsDuplicate())
	assert.False(t, r2.Flag.IsDuplicate())
}

func TestUnclippedPositionForwardStrand(t *testing.T) {
	r := samio.NewRecord()
	r.Pos = 100
	r.Cigar = samio.Cigar{{Length: 5, Op: 'S'}, {Length: 30, Op: 'M'}}
	assert.Equal(t, 95, unclippedPosition(r))
}

func TestUnclippedPositionReverseStrand(t *testing.T) {
	r := samio.NewRecord()
	r.Flag = samio.Reverse
	r.Pos = 100
	r.Cigar = samio.Cigar{{Length: 30, Op: 'M'}, {Length: 5, Op: 'S'}}
	assert.Equal(t, 100+30+5-1, unclippedPosition(r))
}

func TestPhredScoreInvalidByteErrors(t *testing.T) {
	r := samio.NewRecord()
	r.Qual = string([]byte{200})
	_, err := phredScore(r)
	require.Error(t, err)
}

func TestPhredScoreFloorsAt15(t *testing.T) {
	r := samio.NewRecord()
	r.Qual = "#" // '#'-33 = 2, below 15 floor, contributes 0
	score, err := phredScore(r)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}
