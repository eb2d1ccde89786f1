// Package filter implements quality control of paired-end reads. Each pair
// is checked in a fixed order: UMI template, UMI quality, AT content of the
// reverse read, homopolymer adaptor removal and quality trimming of the
// reverse read. The first failing check drops the pair.
package filter

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/simd"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/stqc/encoding/fastq"
	"github.com/grailbio/stqc/trim"
	"github.com/grailbio/stqc/umi"
)

// Filter applies the per-pair checks and accumulates Stats. A Filter is not
// threadsafe.
type Filter struct {
	opts     Opts
	enc      trim.Encoding
	adaptors []trim.Adaptor
	// umi is nil when UMI checks are disabled.
	umi   *umi.Validator
	stats Stats
}

// New creates a filter. It returns an error if opts are invalid. A UMI
// window that overlaps the barcode disables UMI checks with a warning.
func New(opts Opts) (*Filter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f := &Filter{
		opts:     opts,
		enc:      opts.Encoding(),
		adaptors: opts.Adaptors(),
	}
	if opts.MolecularBarcodes {
		if !opts.UMIWindowValid() {
			log.Error.Printf("UMI window [%d, %d) overlaps the barcode [%d, %d); UMI checks are disabled",
				opts.UMIStart, opts.UMIEnd, opts.BarcodeStart, opts.BarcodeStart+opts.BarcodeLength)
		} else {
			f.umi = &umi.Validator{
				Start:              opts.UMIStart,
				End:                opts.UMIEnd,
				CheckTemplate:      opts.UMIFilter,
				MinQuality:         opts.MinQuality,
				MaxLowQualityBases: opts.UMIQualityBases,
				Encoding:           f.enc,
			}
			if opts.UMIFilter {
				// Validate already parsed the template.
				f.umi.Template, _ = umi.ParseTemplate(opts.UMITemplate)
			}
		}
	}
	return f, nil
}

// UMIEnabled reports whether UMI checks run.
func (f *Filter) UMIEnabled() bool { return f.umi != nil }

// Stats returns the counts accumulated so far.
func (f *Filter) Stats() Stats { return f.stats }

// ATContent returns the percentage of A and T bases in seq. It is zero for
// an empty sequence.
func ATContent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	at := simd.Count2Bytes(gunsafe.StringToBytes(seq), 'A', 'T')
	return 100 * float64(at) / float64(len(seq))
}

// Pair filters one read pair and counts the outcome. When the pair is kept,
// the returned read is the trimmed reverse read; the forward read is kept
// unchanged. When the pair is dropped, the returned read is the reverse read
// as it was read, whichever stage rejected it.
func (f *Filter) Pair(r1, r2 *fastq.Read) (fastq.Read, Reason) {
	out, reason := f.pair(r1, r2)
	f.stats.add(reason)
	return out, reason
}

func (f *Filter) pair(r1, r2 *fastq.Read) (fastq.Read, Reason) {
	if f.umi != nil {
		if !f.umi.MatchTemplate(r1.Seq) {
			return *r2, UMIMismatch
		}
		if !f.umi.GoodQuality(r1.Qual) {
			return *r2, UMILowQuality
		}
	}
	if ATContent(r2.Seq) >= f.opts.FilterATContent {
		return *r2, HighATContent
	}
	out := *r2
	out.Seq, out.Qual = trim.StripAdaptors(r2.Seq, r2.Qual, f.adaptors)
	if len(out.Seq) < f.opts.MinLength {
		return *r2, AdaptorTooShort
	}
	seq, qual, ok := trim.Quality(out.Seq, out.Qual, f.opts.MinQuality, f.opts.MinLength, f.enc)
	if !ok {
		return *r2, TrimTooShort
	}
	out.Seq, out.Qual = seq, qual
	return out, Kept
}
