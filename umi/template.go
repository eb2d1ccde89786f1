package umi

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
)

const (
	baseA uint8 = 1 << iota
	baseC
	baseG
	baseT
	// anyBase matches every byte, including N and other non-ACGT symbols.
	anyBase uint8 = 0xff
)

// iupacMap maps an IUPAC nucleotide code to the set of bases it admits.
var iupacMap = map[byte]uint8{
	'A': baseA,
	'C': baseC,
	'G': baseG,
	'T': baseT,
	'U': baseT,
	'R': baseA | baseG,
	'Y': baseC | baseT,
	'S': baseC | baseG,
	'W': baseA | baseT,
	'K': baseG | baseT,
	'M': baseA | baseC,
	'B': baseC | baseG | baseT,
	'D': baseA | baseG | baseT,
	'H': baseA | baseC | baseT,
	'V': baseA | baseC | baseG,
	'N': anyBase,
}

// baseBits maps a read base to its bit in a template position. Bases other
// than ACGT map to zero and only match N positions.
var baseBits [256]uint8

func init() {
	baseBits['A'], baseBits['a'] = baseA, baseA
	baseBits['C'], baseBits['c'] = baseC, baseC
	baseBits['G'], baseBits['g'] = baseG, baseG
	baseBits['T'], baseBits['t'] = baseT, baseT
}

// Template is a UMI structure written in IUPAC nucleotide codes, e.g.
// "WSNNWSNNV". Each position restricts the bases allowed in the UMI at that
// position.
type Template struct {
	pattern string
	sets    []uint8
}

// ParseTemplate parses an IUPAC template. It is case-insensitive.
func ParseTemplate(pattern string) (Template, error) {
	pattern = strings.ToUpper(pattern)
	if pattern == "" {
		return Template{}, errors.E(errors.Invalid, "empty UMI template")
	}
	sets := make([]uint8, len(pattern))
	for i := 0; i < len(pattern); i++ {
		set, ok := iupacMap[pattern[i]]
		if !ok {
			return Template{}, errors.E(errors.Invalid,
				fmt.Sprintf("invalid symbol %q at position %d of UMI template %s", pattern[i], i, pattern))
		}
		sets[i] = set
	}
	return Template{pattern: pattern, sets: sets}, nil
}

// String returns the template in upper case.
func (t Template) String() string { return t.pattern }

// Len returns the number of positions in the template.
func (t Template) Len() int { return len(t.sets) }

// Match reports whether umi has the template's length and every base is
// admitted by the corresponding template position.
func (t Template) Match(umi string) bool {
	if len(umi) != len(t.sets) {
		return false
	}
	for i := 0; i < len(umi); i++ {
		set := t.sets[i]
		if set != anyBase && set&baseBits[umi[i]] == 0 {
			return false
		}
	}
	return true
}
