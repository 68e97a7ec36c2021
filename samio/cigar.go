package samio

import (
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/bio-samfilter/samerr"
)

// CigarOp is one CIGAR operation, e.g. "35M".
type CigarOp struct {
	Length int
	Op     byte // one of MIDNSHP=X
}

// Cigar is a sequence of CIGAR operations. A nil Cigar represents "*".
type Cigar []CigarOp

// cigarCache memoizes the parse of each distinct CIGAR string seen so far,
// process-wide, the way the teacher memoizes other per-record derived
// values rather than recomputing them per duplicate-marking pass. Lookup
// and insertion are lock-free: sync.Map already does add-if-absent without
// a mutex, which is all scan_cigar_string needs.
var cigarCache sync.Map // string -> Cigar

func init() {
	cigarCache.Store("*", Cigar(nil))
}

// ParseCigar parses s, consulting and populating the process-wide cache.
func ParseCigar(s string) (Cigar, error) {
	if v, ok := cigarCache.Load(s); ok {
		return v.(Cigar), nil
	}
	c, err := parseCigarUncached(s)
	if err != nil {
		return nil, err
	}
	actual, loaded := cigarCache.LoadOrStore(s, c)
	if loaded {
		log.Debug.Printf("samio: lost CIGAR cache race for %q, using winner", s)
		return actual.(Cigar), nil
	}
	return c, nil
}

func parseCigarUncached(s string) (Cigar, error) {
	var ops Cigar
	n := 0
	haveDigit := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			haveDigit = true
			continue
		}
		if !haveDigit {
			return nil, samerr.Newf(samerr.Parse, "malformed CIGAR string %q", s)
		}
		if !isCigarOp(c) {
			return nil, samerr.Newf(samerr.Parse, "malformed CIGAR string %q: unknown operation %q", s, string(c))
		}
		ops = append(ops, CigarOp{Length: n, Op: c})
		n = 0
		haveDigit = false
	}
	if haveDigit {
		return nil, samerr.Newf(samerr.Parse, "malformed CIGAR string %q: trailing length with no operation", s)
	}
	return ops, nil
}

func isCigarOp(c byte) bool {
	switch c {
	case 'M', 'I', 'D', 'N', 'S', 'H', 'P', '=', 'X':
		return true
	default:
		return false
	}
}

// String renders the CIGAR back to its textual form, or "*" if empty.
func (c Cigar) String() string {
	if len(c) == 0 {
		return "*"
	}
	var b strings.Builder
	for _, op := range c {
		b.WriteString(strconv.Itoa(op.Length))
		b.WriteByte(op.Op)
	}
	return b.String()
}

// ReferenceLength returns the number of reference bases the CIGAR consumes
// (M, D, N, =, X operations).
func (c Cigar) ReferenceLength() int {
	n := 0
	for _, op := range c {
		switch op.Op {
		case 'M', 'D', 'N', '=', 'X':
			n += op.Length
		}
	}
	return n
}
