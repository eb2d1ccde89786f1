package filter

import (
	"fmt"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// Reason is the outcome of filtering one read pair.
type Reason int

const (
	// Kept means the pair passed every stage.
	Kept Reason = iota
	// UMIMismatch means the UMI does not match the template.
	UMIMismatch
	// UMILowQuality means the UMI has too many low-quality bases.
	UMILowQuality
	// HighATContent means the reverse read is mostly A and T.
	HighATContent
	// AdaptorTooShort means the reverse read is below the minimum length
	// after homopolymer adaptors were stripped.
	AdaptorTooShort
	// TrimTooShort means the reverse read is below the minimum length after
	// quality trimming.
	TrimTooShort
)

var reasonNames = [...]string{
	Kept:            "kept",
	UMIMismatch:     "umi_mismatch",
	UMILowQuality:   "umi_low_quality",
	HighATContent:   "high_at_content",
	AdaptorTooShort: "adaptor_too_short",
	TrimTooShort:    "trim_too_short",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("Reason(%d)", int(r))
	}
	return reasonNames[r]
}

// Stats counts read pairs by outcome. Every pair is counted in Total and in
// exactly one of the outcome fields.
type Stats struct {
	Total           int64
	Kept            int64
	UMIMismatch     int64
	UMILowQuality   int64
	HighATContent   int64
	AdaptorTooShort int64
	TrimTooShort    int64
}

func (s *Stats) add(r Reason) {
	s.Total++
	switch r {
	case Kept:
		s.Kept++
	case UMIMismatch:
		s.UMIMismatch++
	case UMILowQuality:
		s.UMILowQuality++
	case HighATContent:
		s.HighATContent++
	case AdaptorTooShort:
		s.AdaptorTooShort++
	case TrimTooShort:
		s.TrimTooShort++
	default:
		log.Panicf("unknown reason %v", r)
	}
}

// Dropped returns the number of pairs dropped for any reason.
func (s Stats) Dropped() int64 {
	return s.UMIMismatch + s.UMILowQuality + s.HighATContent + s.AdaptorTooShort + s.TrimTooShort
}

func (s Stats) counts() []struct {
	reason Reason
	n      int64
} {
	return []struct {
		reason Reason
		n      int64
	}{
		{Kept, s.Kept},
		{UMIMismatch, s.UMIMismatch},
		{UMILowQuality, s.UMILowQuality},
		{HighATContent, s.HighATContent},
		{AdaptorTooShort, s.AdaptorTooShort},
		{TrimTooShort, s.TrimTooShort},
	}
}

func percent(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

// Log writes the run summary to the log.
func (s Stats) Log() {
	log.Printf("Trimming stats total reads (pair): %d", s.Total)
	log.Printf("Trimming stats %d reads have been dropped!", s.Dropped())
	log.Printf("Trimming stats you just lost about %.2f%% of your data", percent(s.Dropped(), s.Total))
	log.Printf("Trimming stats reads remaining: %d", s.Kept)
	log.Printf("Trimming stats dropped pairs due to incorrect UMI: %d", s.UMIMismatch)
	log.Printf("Trimming stats dropped pairs due to low quality UMI: %d", s.UMILowQuality)
	log.Printf("Trimming stats dropped pairs due to high AT content: %d", s.HighATContent)
	log.Printf("Trimming stats dropped pairs due to presence of artifacts: %d", s.AdaptorTooShort)
	log.Printf("Trimming stats dropped pairs due to length after trimming: %d", s.TrimTooShort)
}

// WriteTSV writes one line per outcome with its count and its percentage of
// the total.
func (s Stats) WriteTSV(w io.Writer) error {
	out := tsv.NewWriter(w)
	out.WriteString("REASON\tPAIRS\tPERCENT")
	if err := out.EndLine(); err != nil {
		return err
	}
	out.WriteString("total")
	out.WriteInt64(s.Total)
	out.WriteString("100.00")
	if err := out.EndLine(); err != nil {
		return err
	}
	for _, c := range s.counts() {
		out.WriteString(c.reason.String())
		out.WriteInt64(c.n)
		out.WriteString(fmt.Sprintf("%.2f", percent(c.n, s.Total)))
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}
