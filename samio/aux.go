package samio

import (
	"strconv"
	"strings"

	"github.com/grailbio/bio-samfilter/samerr"
)

// AuxType is the SAM optional-field type character.
type AuxType byte

// The five scalar optional-field types plus the array type B, whose element
// kind is itself one of seven numeric subtypes (c, C, s, S, i, I, f) —
// twelve tagged-union variants in all.
const (
	AuxChar    AuxType = 'A'
	AuxInt     AuxType = 'i'
	AuxFloat   AuxType = 'f'
	AuxString  AuxType = 'Z'
	AuxHex     AuxType = 'H'
	AuxArray   AuxType = 'B'
)

// Aux is a single SAM optional field, e.g. "NM:i:3".
type Aux struct {
	Tag  [2]byte
	Type AuxType

	Char    byte
	Int     int64
	Float   float32
	Str     string
	Hex     []byte
	ArrSub  byte // one of c, C, s, S, i, I, f
	ArrInt  []int64
	ArrFlt  []float32
}

// TagString returns the two-letter tag, e.g. "NM".
func (a Aux) TagString() string { return string(a.Tag[:]) }

// parseAux parses the TAG:TYPE:VALUE form of a single optional field.
func parseAux(s string) (Aux, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || len(parts[0]) != 2 {
		return Aux{}, samerr.Newf(samerr.Parse, "malformed optional field %q", s)
	}
	a := Aux{Type: AuxType(parts[1][0])}
	copy(a.Tag[:], parts[0])
	val := parts[2]
	var err error
	switch a.Type {
	case AuxChar:
		if len(val) != 1 {
			return Aux{}, samerr.Newf(samerr.Parse, "optional field %q: A value must be one byte", s)
		}
		a.Char = val[0]
	case AuxInt:
		a.Int, err = strconv.ParseInt(val, 10, 64)
	case AuxFloat:
		var f float64
		f, err = strconv.ParseFloat(val, 32)
		a.Float = float32(f)
	case AuxString:
		a.Str = val
	case AuxHex:
		a.Hex, err = decodeHex(val)
	case AuxArray:
		err = parseAuxArray(&a, val)
	default:
		return Aux{}, samerr.Newf(samerr.Parse, "optional field %q: unknown type %q", s, string(a.Type))
	}
	if err != nil {
		return Aux{}, samerr.Wrap(samerr.Parse, err, "optional field "+s)
	}
	return a, nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, samerr.New(samerr.Parse, "hex value has odd length")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		n, err := strconv.ParseUint(s[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(n)
	}
	return out, nil
}

func encodeHex(b []byte) string {
	const hexDigits = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[2*i] = hexDigits[c>>4]
		out[2*i+1] = hexDigits[c&0xf]
	}
	return string(out)
}

func parseAuxArray(a *Aux, val string) error {
	if len(val) < 1 {
		return samerr.New(samerr.Parse, "empty B array value")
	}
	a.ArrSub = val[0]
	fields := strings.Split(val[1:], ",")
	if len(fields) == 1 && fields[0] == "" {
		fields = nil
	}
	switch a.ArrSub {
	case 'f':
		a.ArrFlt = make([]float32, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return err
			}
			a.ArrFlt[i] = float32(v)
		}
	case 'c', 'C', 's', 'S', 'i', 'I':
		a.ArrInt = make([]int64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return err
			}
			a.ArrInt[i] = v
		}
	default:
		return samerr.Newf(samerr.Parse, "unknown B array subtype %q", string(a.ArrSub))
	}
	return nil
}

// Format renders a as TAG:TYPE:VALUE.
func (a Aux) Format() string {
	var b strings.Builder
	b.Write(a.Tag[:])
	b.WriteByte(':')
	b.WriteByte(byte(a.Type))
	b.WriteByte(':')
	switch a.Type {
	case AuxChar:
		b.WriteByte(a.Char)
	case AuxInt:
		b.WriteString(strconv.FormatInt(a.Int, 10))
	case AuxFloat:
		b.WriteString(strconv.FormatFloat(float64(a.Float), 'g', -1, 32))
	case AuxString:
		b.WriteString(a.Str)
	case AuxHex:
		b.WriteString(encodeHex(a.Hex))
	case AuxArray:
		b.WriteByte(a.ArrSub)
		if a.ArrSub == 'f' {
			for _, v := range a.ArrFlt {
				b.WriteByte(',')
				b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
			}
		} else {
			for _, v := range a.ArrInt {
				b.WriteByte(',')
				b.WriteString(strconv.FormatInt(v, 10))
			}
		}
	}
	return b.String()
}
