package trim

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Encoding is the ASCII offset of a quality string: a Phred score q is
// encoded as the byte q+Encoding.
type Encoding int

const (
	// Phred33 is the Sanger / Illumina 1.8+ encoding.
	Phred33 Encoding = 33
	// Phred64 is the Illumina 1.3-1.7 encoding.
	Phred64 Encoding = 64
)

// Score decodes one quality byte.
func (e Encoding) Score(q byte) int { return int(q) - int(e) }

// Validate checks that e is one of the supported encodings.
func (e Encoding) Validate() error {
	if e != Phred33 && e != Phred64 {
		return errors.E(errors.Invalid, fmt.Sprintf("unsupported quality encoding %d, want 33 or 64", int(e)))
	}
	return nil
}

// QualityTrimIndex returns the position at which to cut the low-quality 3'
// end of a read: bases [0, index) are kept.
//
// The scan runs from the last base towards the first, accumulating
// cutoff-q into a running sum. The scan stops as soon as the sum drops
// below zero, and the index is moved only when the sum strictly exceeds
// its previous maximum, so among ties the rightmost maximizing position,
// the first one reached, wins. This is BWA's trimming rule.
//
// G bases are scored as cutoff-1 regardless of their quality: two-color
// instruments call dark cycles, e.g. past the end of the fragment, as
// high-quality G.
func QualityTrimIndex(seq, qual string, cutoff int, enc Encoding) int {
	n := len(qual)
	if len(seq) < n {
		n = len(seq)
	}
	var sum, maxSum int
	index := n
	for i := n - 1; i >= 0; i-- {
		q := enc.Score(qual[i])
		if seq[i] == 'G' {
			q = cutoff - 1
		}
		sum += cutoff - q
		if sum < 0 {
			break
		}
		if sum > maxSum {
			maxSum = sum
			index = i
		}
	}
	return index
}

// Quality trims the low-quality 3' end of a read using QualityTrimIndex. It
// returns the trimmed sequence and quality, and false if the read is
// shorter than minLength either before or after trimming.
func Quality(seq, qual string, minQuality, minLength int, enc Encoding) (string, string, bool) {
	if len(seq) < minLength {
		return "", "", false
	}
	index := QualityTrimIndex(seq, qual, minQuality, enc)
	if index < minLength {
		return "", "", false
	}
	return seq[:index], qual[:index], true
}
