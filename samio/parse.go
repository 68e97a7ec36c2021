package samio

import (
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/bio-samfilter/internal/sambuf"
	"github.com/grailbio/bio-samfilter/internal/samscan"
	"github.com/grailbio/bio-samfilter/samerr"
)

// ParseHeader reads consecutive '@'-prefixed lines from r and returns the
// parsed Header. It stops (without consuming) at the first line that does
// not begin with '@'.
func ParseHeader(r *sambuf.Reader) (*Header, error) {
	h := &Header{}
	for {
		b, ok := r.Peek()
		if !ok || b != '@' {
			break
		}
		line, err := r.GetLine()
		if err != nil {
			return nil, samerr.Wrap(samerr.IO, err, "reading header")
		}
		if err := parseHeaderLine(h, line.String()); err != nil {
			return nil, err
		}
	}
	if h.HD == nil {
		h.HD = &TaggedLine{Fields: []Field{{Tag: "VN", Value: "1.5"}}}
	}
	return h, nil
}

func parseHeaderLine(h *Header, line string) error {
	if len(line) < 3 || line[0] != '@' {
		return samerr.Newf(samerr.Parse, "malformed header line %q", line)
	}
	kind := line[1:3]
	rest := ""
	if len(line) > 3 {
		rest = line[4:] // skip the tab after the 3-char tag
	}
	if kind == "CO" {
		h.CO = append(h.CO, rest)
		return nil
	}
	fields, err := parseTaggedFields(rest)
	if err != nil {
		return samerr.Wrap(samerr.Parse, err, "header line "+line)
	}
	switch kind {
	case "HD":
		if h.HD != nil {
			return samerr.New(samerr.Parse, "duplicate @HD line")
		}
		h.HD = &TaggedLine{Fields: fields}
	case "SQ":
		h.SQ = append(h.SQ, SQLine{TaggedLine{Fields: fields}})
	case "RG":
		h.RG = append(h.RG, RGLine{TaggedLine{Fields: fields}})
	case "PG":
		h.PG = append(h.PG, PGLine{TaggedLine{Fields: fields}})
	default:
		if !isHeaderUserTag(kind) {
			return samerr.Newf(samerr.Parse, "unknown SAM record type code %q", kind)
		}
		h.User = append(h.User, UserLine{Kind: kind, TaggedLine: TaggedLine{Fields: fields}})
	}
	return nil
}

// isHeaderUserTag reports whether code may introduce a user-defined header
// line: it must contain at least one lowercase letter, distinguishing e.g.
// "zz" from a typo'd or unsupported standard tag like "XX".
func isHeaderUserTag(code string) bool {
	for _, c := range code {
		if c >= 'a' && c <= 'z' {
			return true
		}
	}
	return false
}

func parseTaggedFields(rest string) ([]Field, error) {
	if rest == "" {
		return nil, nil
	}
	parts := strings.Split(rest, "\t")
	fields := make([]Field, 0, len(parts))
	seen := map[string]bool{}
	for _, p := range parts {
		if len(p) < 3 || p[2] != ':' {
			return nil, samerr.Newf(samerr.Parse, "malformed header field %q", p)
		}
		tag := p[:2]
		if seen[tag] {
			return nil, samerr.Newf(samerr.Parse, "duplicate header field tag %q", tag)
		}
		seen[tag] = true
		fields = append(fields, Field{Tag: tag, Value: p[3:]})
	}
	return fields, nil
}

// ParseRecordFromHeaderField parses a read-group string given on the
// command line (e.g. "ID:foo\tLB:bar"), the same TAG:VALUE grammar as a
// header line's body, used by filter.AddOrReplaceReadGroup.
func ParseRecordFromHeaderField(s string) ([]Field, error) {
	return parseTaggedFields(s)
}

// ParseRecord parses one SAM alignment line. RefID/RNextRefID are left
// unresolved (-1); run filter.AddRefID against the header to populate them.
func ParseRecord(line sambuf.Slice) (*Record, error) {
	s := samscan.New(line)
	r := NewRecord()

	var err error
	if r.QName, err = s.String(); err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "QNAME")
	}
	flagN, err := s.Int()
	if err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "FLAG")
	}
	r.Flag = Flag(flagN)

	if r.RName, err = s.String(); err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "RNAME")
	}

	if r.Pos, err = s.Int(); err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "POS")
	}
	if r.MapQ, err = s.Int(); err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "MAPQ")
	}
	cigarStr, err := s.String()
	if err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "CIGAR")
	}
	if r.Cigar, err = ParseCigar(cigarStr); err != nil {
		return nil, err
	}

	if r.RNextName, err = s.String(); err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "RNEXT")
	}

	if r.PNext, err = s.Int(); err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "PNEXT")
	}
	if r.TLen, err = s.Int(); err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "TLEN")
	}
	if r.Seq, err = s.String(); err != nil {
		return nil, samerr.Wrap(samerr.Parse, err, "SEQ")
	}

	if s.Eol() {
		return nil, samerr.New(samerr.Parse, "missing QUAL field")
	}
	// QUAL is tab-terminated only if optional fields follow.
	if qual, ok := s.ReadByteUntil('\t'); ok {
		r.Qual = qual.String()
	} else {
		r.Qual = s.LastString()
		return r, nil
	}

	for !s.Eol() {
		field, ok := s.ReadByteUntil('\t')
		var text string
		if ok {
			text = field.String()
		} else {
			text = s.LastString()
		}
		a, err := parseAux(text)
		if err != nil {
			return nil, err
		}
		r.Aux = append(r.Aux, a)
	}
	return r, nil
}

// WriteHeader formats h in SAM text.
func WriteHeader(w io.Writer, h *Header) error {
	if h.HD != nil {
		if err := writeLine(w, "HD", h.HD.Fields); err != nil {
			return err
		}
	}
	for _, sq := range h.SQ {
		if err := writeLine(w, "SQ", sq.Fields); err != nil {
			return err
		}
	}
	for _, rg := range h.RG {
		if err := writeLine(w, "RG", rg.Fields); err != nil {
			return err
		}
	}
	for _, pg := range h.PG {
		if err := writeLine(w, "PG", pg.Fields); err != nil {
			return err
		}
	}
	for _, co := range h.CO {
		if _, err := io.WriteString(w, "@CO\t"+co+"\n"); err != nil {
			return samerr.Wrap(samerr.IO, err, "writing header")
		}
	}
	for _, u := range h.User {
		if err := writeLine(w, u.Kind, u.Fields); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, kind string, fields []Field) error {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(kind)
	for _, f := range fields {
		b.WriteByte('\t')
		b.WriteString(f.Tag)
		b.WriteByte(':')
		b.WriteString(f.Value)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	if err != nil {
		return samerr.Wrap(samerr.IO, err, "writing header")
	}
	return nil
}

// WriteRecord formats r in SAM text.
func WriteRecord(w io.Writer, r *Record) error {
	_, err := w.Write(FormatRecord(r))
	if err != nil {
		return samerr.Wrap(samerr.IO, err, "writing record")
	}
	return nil
}

// FormatRecord renders r as a single newline-terminated SAM text line.
func FormatRecord(r *Record) []byte {
	var b strings.Builder
	b.WriteString(r.QName)
	b.WriteByte('\t')
	b.WriteString(itoa(int(r.Flag)))
	b.WriteByte('\t')
	b.WriteString(emptyAsStar(r.RName))
	b.WriteByte('\t')
	b.WriteString(itoa(r.Pos))
	b.WriteByte('\t')
	b.WriteString(itoa(r.MapQ))
	b.WriteByte('\t')
	b.WriteString(r.Cigar.String())
	b.WriteByte('\t')
	b.WriteString(emptyAsStar(r.RNextName))
	b.WriteByte('\t')
	b.WriteString(itoa(r.PNext))
	b.WriteByte('\t')
	b.WriteString(itoa(r.TLen))
	b.WriteByte('\t')
	b.WriteString(emptyAsStar(r.Seq))
	b.WriteByte('\t')
	b.WriteString(emptyAsStar(r.Qual))
	for _, a := range r.Aux {
		b.WriteByte('\t')
		b.WriteString(a.Format())
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func emptyAsStar(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func itoa(n int) string { return strconv.Itoa(n) }
