package filter

import (
	"testing"

	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyStatic(t *testing.T, f pipeline.Filter[*samio.Record], recs []*samio.Record) []*samio.Record {
	t.Helper()
	dataSize := len(recs)
	recv, fin := f(pipeline.Sequential, &dataSize)
	if recv == nil {
		return recs
	}
	b := recv(samio.Batch[*samio.Record]{Items: recs})
	if fin != nil {
		fin()
	}
	return b.Items
}

func rec(rname string, flag samio.Flag, pos int) *samio.Record {
	r := samio.NewRecord()
	r.RName = rname
	r.Flag = flag
	r.Pos = pos
	return r
}

func TestFilterUnmappedReads(t *testing.T) {
	recs := []*samio.Record{
		rec("chr1", 0, 10),
		rec("*", samio.Unmapped, 0),
	}
	out := applyStatic(t, FilterUnmappedReads(), recs)
	require.Len(t, out, 1)
	assert.Equal(t, "chr1", out[0].RName)
}

func TestFilterUnmappedReadsStrictDropsPlacedButFlagged(t *testing.T) {
	recs := []*samio.Record{
		rec("chr1", samio.Unmapped, 10), // flag set despite a position: still dropped
		rec("chr1", 0, 10),
	}
	out := applyStatic(t, FilterUnmappedReadsStrict(), recs)
	require.Len(t, out, 1)
	assert.Equal(t, 10, out[0].Pos)
}

func TestFilterDuplicateReads(t *testing.T) {
	recs := []*samio.Record{
		rec("chr1", samio.Duplicate, 10),
		rec("chr1", 0, 20),
	}
	out := applyStatic(t, FilterDuplicateReads(), recs)
	require.Len(t, out, 1)
	assert.Equal(t, 20, out[0].Pos)
}

func TestFilterOptionalReadsNoOpWithoutHeaderLine(t *testing.T) {
	h := samio.NewHeader()
	f := FilterOptionalReads(h)
	dataSize := 0
	recv, fin := f(pipeline.Sequential, &dataSize)
	assert.Nil(t, recv)
	assert.Nil(t, fin)
}

func TestFilterOptionalReadsConsumesHeaderLine(t *testing.T) {
	h := samio.NewHeader()
	h.User = append(h.User, samio.UserLine{Kind: "sr", TaggedLine: samio.TaggedLine{}})
	r1 := rec("chr1", 0, 10)
	r1.SetAux(samio.Aux{Tag: [2]byte{'s', 'r'}, Type: samio.AuxInt, Int: 1})
	r2 := rec("chr1", 0, 20)

	out := applyStatic(t, FilterOptionalReads(h), []*samio.Record{r1, r2})
	require.Len(t, out, 1)
	assert.Equal(t, 20, out[0].Pos)
	assert.Empty(t, h.User)
}

func TestReplaceReferenceDictionaryFiltersByName(t *testing.T) {
	h := samio.NewHeader()
	h.SQ = []samio.SQLine{
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr1"}, {Tag: "LN", Value: "100"}}}},
	}
	newDict := []samio.SQLine{
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr2"}, {Tag: "LN", Value: "200"}}}},
	}
	recs := []*samio.Record{rec("chr1", 0, 1), rec("chr2", 0, 2)}
	out := applyStatic(t, ReplaceReferenceDictionary(h, newDict), recs)
	require.Len(t, out, 1)
	assert.Equal(t, "chr2", out[0].RName)
	require.Len(t, h.SQ, 1)
	assert.Equal(t, "chr2", h.SQ[0].Name())
}

func TestReplaceReferenceDictionaryDowngradesOutOfOrderCoordinate(t *testing.T) {
	h := samio.NewHeader()
	h.SetSO("coordinate")
	h.SQ = []samio.SQLine{
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr1"}}}},
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr2"}}}},
	}
	// new dict reverses the shared contigs' relative order
	newDict := []samio.SQLine{
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr2"}}}},
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr1"}}}},
	}
	applyStatic(t, ReplaceReferenceDictionary(h, newDict), nil)
	assert.Equal(t, "unknown", h.SO())
}

func TestReplaceReferenceDictionaryKeepsCoordinateWhenOrderPreserved(t *testing.T) {
	h := samio.NewHeader()
	h.SetSO("coordinate")
	h.SQ = []samio.SQLine{
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr1"}}}},
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr2"}}}},
	}
	newDict := []samio.SQLine{
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr1"}}}},
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr2"}}}},
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr3"}}}},
	}
	applyStatic(t, ReplaceReferenceDictionary(h, newDict), nil)
	assert.Equal(t, "coordinate", h.SO())
}

func TestAddRefIDResolvesNamesAndMateEquals(t *testing.T) {
	h := samio.NewHeader()
	h.SQ = []samio.SQLine{
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr1"}}}},
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "SN", Value: "chr2"}}}},
	}
	r := rec("chr2", 0, 5)
	r.RNextName = "="
	unresolved := rec("*", samio.Unmapped, 0)

	out := applyStatic(t, AddRefID(h), []*samio.Record{r, unresolved})
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].RefID)
	assert.Equal(t, 1, out[0].RNextRefID)
	assert.Equal(t, -1, out[1].RefID)
}

func TestAddOrReplaceReadGroupTagsEveryRecord(t *testing.T) {
	h := samio.NewHeader()
	fields := []samio.Field{{Tag: "ID", Value: "rg9"}, {Tag: "LB", Value: "libX"}}
	f, err := AddOrReplaceReadGroup(h, fields)
	require.NoError(t, err)

	out := applyStatic(t, f, []*samio.Record{rec("chr1", 0, 1)})
	require.Len(t, out, 1)
	assert.Equal(t, "rg9", out[0].ReadGroup())
	require.Len(t, h.RG, 1)
	assert.Equal(t, "rg9", h.RG[0].ID())
}

func TestAddOrReplaceReadGroupMissingIDErrors(t *testing.T) {
	h := samio.NewHeader()
	_, err := AddOrReplaceReadGroup(h, []samio.Field{{Tag: "LB", Value: "libX"}})
	assert.Error(t, err)
}

func TestAddPGLineChainsOntoTerminalAndUniquifies(t *testing.T) {
	h := samio.NewHeader()
	h.PG = []samio.PGLine{
		{TaggedLine: samio.TaggedLine{Fields: []samio.Field{{Tag: "ID", Value: "bwa"}}}},
	}
	f, err := AddPGLine(h, []samio.Field{{Tag: "ID", Value: "bwa"}, {Tag: "PN", Value: "samfilter"}})
	require.NoError(t, err)
	applyStatic(t, f, nil)

	require.Len(t, h.PG, 2)
	newPG := h.PG[1]
	assert.NotEqual(t, "bwa", newPG.ID())
	pp, ok := newPG.PP()
	require.True(t, ok)
	assert.Equal(t, "bwa", pp)
}

func TestAddPGLineMissingIDErrors(t *testing.T) {
	h := samio.NewHeader()
	_, err := AddPGLine(h, []samio.Field{{Tag: "PN", Value: "samfilter"}})
	assert.Error(t, err)
}
