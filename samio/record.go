package samio

// Record is one SAM alignment line: the eleven mandatory fields plus
// optional TAG:TYPE:VALUE fields.
//
// RName/RNextName hold the raw reference-name text ("*" for unmapped, "="
// for "same as RNAME"), the way the original implementation's
// sam_alignment does, rather than eagerly resolving an index: replacing
// the reference dictionary (filter.ReplaceReferenceDictionary) must see
// the original text, and only a later filter (filter.AddRefID) converts
// name to index once the dictionary is final. RefID/RNextRefID are -1
// until that filter has run.
type Record struct {
	QName string
	Flag  Flag
	RName string // "*" if unmapped
	Pos   int    // 1-based leftmost mapping position, 0 if unavailable
	MapQ  int
	Cigar Cigar

	RNextName string // "*", "=", or a reference name
	PNext     int

	TLen int

	Seq  string // "*" if unavailable
	Qual string // "*" if unavailable

	Aux []Aux

	// RefID/RNextRefID are populated by filter.AddRefID, resolving RName
	// and ResolvedRNextName() against the header's current @SQ order.
	// -1 means "*" or not yet resolved.
	RefID      int
	RNextRefID int

	// LibID/AdaptedPos/AdaptedScore are scratch temps populated by
	// markduplicates.Engine and never serialized, the Go equivalent of the
	// original's sam_alignment.temps: LIBID (the RG's library name),
	// the unclipped 5' position, and the summed Phred-qualifying quality.
	LibID        string
	AdaptedPos   int
	AdaptedScore int

	// line is the renderedLine scratch buffer the output pipeline's
	// parallel marshal stage fills in and the write stage
	// consumes and clears; it carries no meaning outside that path.
	line []byte
}

// NewRecord returns a Record with RefID/RNextRefID unresolved.
func NewRecord() *Record {
	return &Record{RefID: -1, RNextRefID: -1}
}

// ResolvedRNextName returns RNextName with "=" expanded to RName.
func (r *Record) ResolvedRNextName() string {
	if r.RNextName == "=" {
		return r.RName
	}
	return r.RNextName
}

// GetAux returns the first optional field with the given tag.
func (r *Record) GetAux(tag string) (Aux, bool) {
	for _, a := range r.Aux {
		if a.TagString() == tag {
			return a, true
		}
	}
	return Aux{}, false
}

// SetAux replaces the first optional field with the given tag, or appends a
// new one if none exists.
func (r *Record) SetAux(a Aux) {
	for i := range r.Aux {
		if r.Aux[i].TagString() == a.TagString() {
			r.Aux[i] = a
			return
		}
	}
	r.Aux = append(r.Aux, a)
}

// RemoveAux deletes the first optional field with the given tag, if any.
func (r *Record) RemoveAux(tag string) {
	for i := range r.Aux {
		if r.Aux[i].TagString() == tag {
			r.Aux = append(r.Aux[:i], r.Aux[i+1:]...)
			return
		}
	}
}

// ReadGroup returns the RG:Z optional field's value, or "" if absent.
func (r *Record) ReadGroup() string {
	if a, ok := r.GetAux("RG"); ok {
		return a.Str
	}
	return ""
}

// SetReadGroup sets the RG:Z optional field.
func (r *Record) SetReadGroup(id string) {
	r.SetAux(Aux{Tag: [2]byte{'R', 'G'}, Type: AuxString, Str: id})
}

// Unmapped reports whether the record has no alignment position.
func (r *Record) Unmapped() bool {
	return r.Flag.IsUnmapped() || r.RName == "*"
}

// SetLine stashes a pre-rendered line in the output-pipeline scratch slot;
// see the line field's doc comment.
func (r *Record) SetLine(b []byte) { r.line = b }

// Line returns the output-pipeline scratch slot set by SetLine, or nil.
func (r *Record) Line() []byte { return r.line }
