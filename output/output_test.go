package output

import (
	"bytes"
	"testing"

	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(qname string, refID, pos int) *samio.Record {
	r := samio.NewRecord()
	r.QName = qname
	r.RefID = refID
	r.Pos = pos
	r.RName = "*"
	r.RNextName = "*"
	r.Seq = "*"
	r.Qual = "*"
	return r
}

func drive(t *testing.T, kind pipeline.Kind, f pipeline.Filter[*samio.Record], items []*samio.Record) {
	t.Helper()
	r := pipeline.NewRunner(pipeline.NewStage(kind, f))
	r.Begin(len(items))
	r.Feed(0, items)
	require.NoError(t, r.End())
}

func TestMemorySinkCoordinateOrder(t *testing.T) {
	s := NewMemorySink()
	kind, f, err := s.Stage(Coordinate)
	require.NoError(t, err)

	items := []*samio.Record{
		rec("b", 1, 500),
		rec("a", -1, 0), // unmapped, must sort last
		rec("c", 1, 100),
		rec("d", 0, 999),
	}
	drive(t, kind, f, items)

	require.Len(t, s.Items, 4)
	assert.Equal(t, "d", s.Items[0].QName)
	assert.Equal(t, "c", s.Items[1].QName)
	assert.Equal(t, "b", s.Items[2].QName)
	assert.Equal(t, "a", s.Items[3].QName)
}

func TestMemorySinkQueryNameOrder(t *testing.T) {
	s := NewMemorySink()
	kind, f, err := s.Stage(QueryName)
	require.NoError(t, err)

	items := []*samio.Record{rec("zz", 0, 0), rec("aa", 0, 0), rec("mm", 0, 0)}
	drive(t, kind, f, items)

	require.Len(t, s.Items, 3)
	assert.Equal(t, []string{"aa", "mm", "zz"}, []string{s.Items[0].QName, s.Items[1].QName, s.Items[2].QName})
}

func TestMemorySinkUnknownOrderPreservesFeedOrder(t *testing.T) {
	s := NewMemorySink()
	kind, f, err := s.Stage(Unknown)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Ordered, kind)

	items := []*samio.Record{rec("z", 0, 0), rec("a", 0, 0)}
	drive(t, kind, f, items)
	assert.Equal(t, []string{"z", "a"}, []string{s.Items[0].QName, s.Items[1].QName})
}

func TestMemorySinkUnknownOrderName(t *testing.T) {
	_, _, err := NewMemorySink().Stage("bogus")
	require.Error(t, err)
}

func TestStreamSinkRejectsSortedOrders(t *testing.T) {
	s := NewStreamSink(&bytes.Buffer{})
	_, err := s.Stages(Coordinate)
	require.Error(t, err)
	_, err = s.Stages(QueryName)
	require.Error(t, err)
}

func TestStreamSinkWritesRecords(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSink(&buf)
	stages, err := s.Stages(Unsorted)
	require.NoError(t, err)
	require.Len(t, stages, 2)

	r := pipeline.NewRunner(stages...)
	items := []*samio.Record{rec("r1", 0, 100), rec("r2", 0, 200)}
	r.Begin(len(items))
	r.Feed(0, items)
	require.NoError(t, r.End())
	require.NoError(t, s.Err())
	out := buf.String()
	assert.Contains(t, out, "r1\t")
	assert.Contains(t, out, "r2\t")
}

func TestCoordinateLessUnmappedSortsLast(t *testing.T) {
	mapped := rec("m", 2, 10)
	unmapped := rec("u", -1, 0)
	assert.True(t, coordinateLess(mapped, unmapped))
	assert.False(t, coordinateLess(unmapped, mapped))
}

func TestQueryNameLess(t *testing.T) {
	assert.True(t, queryNameLess(rec("a", 0, 0), rec("b", 0, 0)))
	assert.False(t, queryNameLess(rec("b", 0, 0), rec("a", 0, 0)))
}
