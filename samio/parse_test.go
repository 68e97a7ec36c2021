package samio

import (
	"bytes"
	"testing"

	"github.com/grailbio/bio-samfilter/internal/sambuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSAM = `@HD	VN:1.5	SO:coordinate
@SQ	SN:chr1	LN:248956422
@RG	ID:rg1	LB:lib1	SM:sample1
@PG	ID:bwa	PN:bwa
@CO	a free-text comment
read1	99	chr1	100	60	35M	=	200	135	ACGT	FFFF	RG:Z:rg1	NM:i:0
read2	147	chr1	200	60	35M	=	100	-135	TTTT	GGGG	RG:Z:rg1	NM:i:1
`

func parseAll(t *testing.T, text string) (*Header, []*Record) {
	t.Helper()
	r := sambuf.NewReader(bytes.NewBufferString(text))
	h, err := ParseHeader(r)
	require.NoError(t, err)
	var recs []*Record
	for {
		line, err := r.GetLine()
		if err != nil {
			break
		}
		rec, err := ParseRecord(line)
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	return h, recs
}

func TestParseHeader(t *testing.T) {
	h, recs := parseAll(t, sampleSAM)
	assert.Equal(t, "coordinate", h.SO())
	assert.Equal(t, "", h.GO())
	require.Len(t, h.SQ, 1)
	assert.Equal(t, "chr1", h.SQ[0].Name())
	assert.Equal(t, 248956422, h.SQ[0].Length())
	assert.Equal(t, "lib1", h.Library("rg1"))
	assert.Equal(t, "Unknown Library", h.Library("missing"))
	require.Len(t, recs, 2)
}

func TestParseRecordFields(t *testing.T) {
	_, recs := parseAll(t, sampleSAM)
	r := recs[0]
	assert.Equal(t, "read1", r.QName)
	assert.Equal(t, Flag(99), r.Flag)
	assert.True(t, r.Flag.IsPaired())
	assert.True(t, r.Flag.IsProperPair())
	assert.Equal(t, 100, r.Pos)
	assert.Equal(t, Cigar{{35, 'M'}}, r.Cigar)
	assert.Equal(t, "=", r.RNextName)
	assert.Equal(t, "chr1", r.ResolvedRNextName())
	assert.Equal(t, "rg1", r.ReadGroup())
	nm, ok := r.GetAux("NM")
	require.True(t, ok)
	assert.Equal(t, int64(0), nm.Int)
}

func TestRoundTripByteIdentical(t *testing.T) {
	h, recs := parseAll(t, sampleSAM)
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, h))
	for _, r := range recs {
		require.NoError(t, WriteRecord(&buf, r))
	}
	assert.Equal(t, sampleSAM, buf.String())
}

func TestSetSOClearsGO(t *testing.T) {
	h := NewHeader()
	h.SetGO("query")
	assert.Equal(t, "query", h.GO())
	h.SetSO("coordinate")
	assert.Equal(t, "coordinate", h.SO())
	assert.Equal(t, "", h.GO())
}

func TestSetSOUnsortedLeavesGOIntact(t *testing.T) {
	h := NewHeader()
	h.SetGO("query")
	h.SetSO("unsorted")
	assert.Equal(t, "query", h.GO())
}
