package samio

// Flag is the SAM FLAG bitmask, named the way the teacher's flag predicates
// are (encoding/bam/util_test.go's TestFlagParser: IsPaired, IsProperPair,
// IsUnmapped, ...).
type Flag uint16

const (
	Paired        Flag = 1 << 0
	ProperPair    Flag = 1 << 1
	Unmapped      Flag = 1 << 2
	MateUnmapped  Flag = 1 << 3
	Reverse       Flag = 1 << 4
	MateReverse   Flag = 1 << 5
	Read1         Flag = 1 << 6
	Read2         Flag = 1 << 7
	Secondary     Flag = 1 << 8
	QCFail        Flag = 1 << 9
	Duplicate     Flag = 1 << 10
	Supplementary Flag = 1 << 11
)

func (f Flag) IsPaired() bool        { return f&Paired != 0 }
func (f Flag) IsProperPair() bool    { return f&ProperPair != 0 }
func (f Flag) IsUnmapped() bool      { return f&Unmapped != 0 }
func (f Flag) IsMateUnmapped() bool  { return f&MateUnmapped != 0 }
func (f Flag) IsReverse() bool       { return f&Reverse != 0 }
func (f Flag) IsMateReverse() bool   { return f&MateReverse != 0 }
func (f Flag) IsRead1() bool         { return f&Read1 != 0 }
func (f Flag) IsRead2() bool         { return f&Read2 != 0 }
func (f Flag) IsSecondary() bool     { return f&Secondary != 0 }
func (f Flag) IsQCFail() bool        { return f&QCFail != 0 }
func (f Flag) IsDuplicate() bool     { return f&Duplicate != 0 }
func (f Flag) IsSupplementary() bool { return f&Supplementary != 0 }

// IsPrimary reports whether the record is neither secondary nor
// supplementary.
func (f Flag) IsPrimary() bool { return !f.IsSecondary() && !f.IsSupplementary() }

// HasNoMappedMate reports whether the record is unpaired or its mate is
// unmapped.
func (f Flag) HasNoMappedMate() bool { return !f.IsPaired() || f.IsMateUnmapped() }
