package output

import "github.com/grailbio/bio-samfilter/samio"

// Sorting orders a sink can be asked to produce, matching @HD SO values
// plus "keep" (the input's own order, whatever that is).
const (
	Keep       = "keep"
	Unknown    = "unknown"
	Unsorted   = "unsorted"
	Coordinate = "coordinate"
	QueryName  = "queryname"
)

// coordinateLess orders records the way sam_types.cpp's coordinate_less
// does: by reference id, with an unresolved id (RefID < 0, i.e. unmapped)
// sorting after every resolved id rather than by its raw numeric value,
// then by position within a reference.
func coordinateLess(a, b *samio.Record) bool {
	if a.RefID != b.RefID {
		if a.RefID < 0 {
			return false
		}
		if b.RefID < 0 {
			return true
		}
		return a.RefID < b.RefID
	}
	return a.Pos < b.Pos
}

// queryNameLess orders records by QNAME, matching sam_types.cpp's
// queryname_less.
func queryNameLess(a, b *samio.Record) bool {
	return a.QName < b.QName
}
