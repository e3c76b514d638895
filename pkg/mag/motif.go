package mag

import (
	"fmt"
	"strconv"
	"strings"
)

// ModType is a DNA base modification.
type ModType uint8

const (
	// SixMA is N6-methyladenine.
	SixMA ModType = iota + 1
	// FiveMC is 5-methylcytosine.
	FiveMC
	// FourMC is N4-methylcytosine.
	FourMC
)

// ParseModType accepts either the pileup code (a, m, 21839) or the long name
// (6mA, 5mC, 4mC).
func ParseModType(s string) (ModType, error) {
	switch strings.TrimSpace(s) {
	case "a", "6mA":
		return SixMA, nil
	case "m", "5mC":
		return FiveMC, nil
	case "21839", "4mC":
		return FourMC, nil
	}
	return 0, fmt.Errorf("unsupported modification type %q", s)
}

// PileupCode returns the short code used in pileup files and motif names.
func (m ModType) PileupCode() string {
	switch m {
	case SixMA:
		return "a"
	case FiveMC:
		return "m"
	case FourMC:
		return "21839"
	}
	return "?"
}

func (m ModType) String() string {
	switch m {
	case SixMA:
		return "6mA"
	case FiveMC:
		return "5mC"
	case FourMC:
		return "4mC"
	}
	return "unknown"
}

// base is the unmodified nucleotide carrying the modification.
func (m ModType) base() byte {
	if m == SixMA {
		return 'A'
	}
	return 'C'
}

// iupacCodes holds every accepted nucleotide code.
var iupacCodes = map[byte]struct{}{
	'A': {}, 'C': {}, 'G': {}, 'T': {},
	'R': {}, 'Y': {}, 'S': {}, 'W': {}, 'K': {}, 'M': {},
	'B': {}, 'D': {}, 'H': {}, 'V': {}, 'N': {},
}

// MotifKey identifies a methylation motif: a sequence pattern, the
// modification it carries and the 0-based position of the modified base. It
// is a comparable value and is used directly as a map key.
type MotifKey struct {
	Sequence string
	Mod      ModType
	Position uint8
}

// ParseMotif validates the raw triple from a methylation record and returns
// the corresponding key. The sequence is upper-cased.
func ParseMotif(sequence, modType string, position uint8) (MotifKey, error) {
	fail := func(reason string) (MotifKey, error) {
		return MotifKey{}, &MotifParseError{
			Sequence: sequence,
			ModType:  modType,
			Position: int(position),
			Reason:   reason,
		}
	}

	seq := strings.ToUpper(strings.TrimSpace(sequence))
	if seq == "" {
		return fail("empty motif sequence")
	}
	for i := 0; i < len(seq); i++ {
		if _, ok := iupacCodes[seq[i]]; !ok {
			return fail(fmt.Sprintf("invalid IUPAC base %q at %d", seq[i], i))
		}
	}

	mod, err := ParseModType(modType)
	if err != nil {
		return fail(err.Error())
	}

	if int(position) >= len(seq) {
		return fail(fmt.Sprintf("position %d outside motif of length %d", position, len(seq)))
	}
	if seq[position] != mod.base() {
		return fail(fmt.Sprintf("%s requires %q at position %d, found %q",
			mod, mod.base(), position, seq[position]))
	}

	return MotifKey{Sequence: seq, Mod: mod, Position: position}, nil
}

// String renders the motif as <sequence>_<mod-code>_<position>.
func (k MotifKey) String() string {
	return k.Sequence + "_" + k.Mod.PileupCode() + "_" + strconv.Itoa(int(k.Position))
}
