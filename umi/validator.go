package umi

import (
	"github.com/grailbio/stqc/trim"
)

// Window returns s[start:end], clipped to the length of s.
func Window(s string, start, end int) string {
	if end > len(s) {
		end = len(s)
	}
	if start > end {
		return ""
	}
	return s[start:end]
}

// Validator checks the UMI window [Start, End) of a forward read.
type Validator struct {
	Start, End int
	// Template is checked only if CheckTemplate is set.
	Template      Template
	CheckTemplate bool
	// A UMI with more than MaxLowQualityBases bases scoring below
	// MinQuality fails the quality check.
	MinQuality         int
	MaxLowQualityBases int
	Encoding           trim.Encoding
}

// MatchTemplate reports whether the UMI in seq matches the template. It
// always succeeds when CheckTemplate is unset.
func (v *Validator) MatchTemplate(seq string) bool {
	if !v.CheckTemplate {
		return true
	}
	return v.Template.Match(Window(seq, v.Start, v.End))
}

// LowQualityBases counts the UMI bases in qual scoring below MinQuality.
func (v *Validator) LowQualityBases(qual string) int {
	n := 0
	w := Window(qual, v.Start, v.End)
	for i := 0; i < len(w); i++ {
		if v.Encoding.Score(w[i]) < v.MinQuality {
			n++
		}
	}
	return n
}

// GoodQuality reports whether the UMI in qual has at most
// MaxLowQualityBases low-quality bases.
func (v *Validator) GoodQuality(qual string) bool {
	return v.LowQualityBases(qual) <= v.MaxLowQualityBases
}
