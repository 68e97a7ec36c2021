package samio

import (
	"strconv"

	"github.com/grailbio/bio-samfilter/samerr"
)

// Field is one TAG:VALUE pair of a header line.
type Field struct {
	Tag   string
	Value string
}

// TaggedLine is an ordered sequence of TAG:VALUE fields, the shape shared by
// @SQ, @RG, and @PG lines (and by unrecognized user header lines).
type TaggedLine struct {
	Fields []Field
}

// Get returns the value of the first field with the given tag.
func (l TaggedLine) Get(tag string) (string, bool) {
	for _, f := range l.Fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value of the first field with the given tag, or appends
// a new field if none exists.
func (l *TaggedLine) Set(tag, value string) {
	for i := range l.Fields {
		if l.Fields[i].Tag == tag {
			l.Fields[i].Value = value
			return
		}
	}
	l.Fields = append(l.Fields, Field{Tag: tag, Value: value})
}

// Remove deletes the first field with the given tag, if present.
func (l *TaggedLine) Remove(tag string) {
	for i := range l.Fields {
		if l.Fields[i].Tag == tag {
			l.Fields = append(l.Fields[:i], l.Fields[i+1:]...)
			return
		}
	}
}

// SQLine is a @SQ reference-sequence dictionary entry.
type SQLine struct{ TaggedLine }

func (l SQLine) Name() string { v, _ := l.Get("SN"); return v }
func (l SQLine) Length() int {
	v, _ := l.Get("LN")
	n, _ := strconv.Atoi(v)
	return n
}

// RGLine is a @RG read-group entry.
type RGLine struct{ TaggedLine }

func (l RGLine) ID() string { v, _ := l.Get("ID"); return v }

// PGLine is a @PG program-record entry.
type PGLine struct{ TaggedLine }

func (l PGLine) ID() string { v, _ := l.Get("ID"); return v }
func (l PGLine) PP() (string, bool) { return l.Get("PP") }

// UserLine is any header line whose tag is not one of the five SAM-defined
// kinds (HD, SQ, RG, PG, CO): a user-defined extension header, per
// is_header_user_tag in the original implementation.
type UserLine struct {
	Kind string
	TaggedLine
}

// Header is the parsed @-line preamble of a SAM file.
type Header struct {
	HD   *TaggedLine // nil if no @HD line was present
	SQ   []SQLine
	RG   []RGLine
	PG   []PGLine
	CO   []string
	User []UserLine
}

// NewHeader returns an empty header with the teacher/spec default @HD
// VN:1.5 (sam_header defaults to VN:1.5 when none is supplied).
func NewHeader() *Header {
	return &Header{HD: &TaggedLine{Fields: []Field{{Tag: "VN", Value: "1.5"}}}}
}

// SO returns the @HD SO value, or "" if absent.
func (h *Header) SO() string {
	if h.HD == nil {
		return ""
	}
	v, _ := h.HD.Get("SO")
	return v
}

// GO returns the @HD GO value, or "" if absent.
func (h *Header) GO() string {
	if h.HD == nil {
		return ""
	}
	v, _ := h.HD.Get("GO")
	return v
}

// SetSO sets @HD SO. Setting it to "coordinate" or "queryname" clears GO,
// since those are record-level total orders incompatible with a group
// order; setting it to "unknown" or "unsorted" leaves GO untouched.
func (h *Header) SetSO(so string) {
	if h.HD == nil {
		h.HD = &TaggedLine{}
	}
	h.HD.Set("SO", so)
	if so == "coordinate" || so == "queryname" {
		h.HD.Remove("GO")
	}
}

// SetGO sets @HD GO and clears SO, the converse of SetSO: a header cannot
// claim both a total record order and a group order simultaneously.
func (h *Header) SetGO(group string) {
	if h.HD == nil {
		h.HD = &TaggedLine{}
	}
	h.HD.Set("GO", group)
	h.HD.Remove("SO")
}

// RefID returns the index of the @SQ line named name, or -1.
func (h *Header) RefID(name string) int {
	for i, sq := range h.SQ {
		if sq.Name() == name {
			return i
		}
	}
	return -1
}

// AddSQ appends a new @SQ line and returns its index, erroring if name
// is already present.
func (h *Header) AddSQ(name string, length int) (int, error) {
	if h.RefID(name) >= 0 {
		return 0, samerr.Newf(samerr.Config, "reference %q already present", name)
	}
	h.SQ = append(h.SQ, SQLine{TaggedLine{Fields: []Field{{Tag: "SN", Value: name}, {Tag: "LN", Value: strconv.Itoa(length)}}}})
	return len(h.SQ) - 1, nil
}

// ReadGroup returns the @RG line with the given ID, or false if none.
func (h *Header) ReadGroup(id string) (RGLine, bool) {
	for _, rg := range h.RG {
		if rg.ID() == id {
			return rg, true
		}
	}
	return RGLine{}, false
}

// Library returns the LB of the read group id, or "Unknown Library" if the
// read group is missing or has no LB, matching the teacher's
// GetLibrary fallback (markduplicates/helpers.go).
func (h *Header) Library(id string) string {
	rg, ok := h.ReadGroup(id)
	if !ok {
		return "Unknown Library"
	}
	if lb, ok := rg.Get("LB"); ok {
		return lb
	}
	return "Unknown Library"
}

// LastPG returns the @PG line that is not any other @PG line's PP
// predecessor — the terminal link of the program chain — and false if
// there are no @PG lines.
func (h *Header) LastPG() (PGLine, bool) {
	if len(h.PG) == 0 {
		return PGLine{}, false
	}
	isPP := make(map[string]bool, len(h.PG))
	for _, pg := range h.PG {
		if pp, ok := pg.PP(); ok {
			isPP[pp] = true
		}
	}
	for _, pg := range h.PG {
		if !isPP[pg.ID()] {
			return pg, true
		}
	}
	return h.PG[len(h.PG)-1], true
}
