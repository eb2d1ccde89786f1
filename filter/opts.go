package filter

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/stqc/trim"
	"github.com/grailbio/stqc/umi"
)

// Opts configures a filter run.
type Opts struct {
	// BarcodeStart and BarcodeLength locate the spatial barcode in the
	// forward read.
	BarcodeStart  int `toml:"barcode-start"`
	BarcodeLength int `toml:"barcode-length"`

	// MolecularBarcodes is set when forward reads carry a UMI at
	// [UMIStart, UMIEnd). The UMI quality check runs whenever it is set.
	MolecularBarcodes bool `toml:"molecular-barcodes"`
	UMIStart          int  `toml:"umi-start"`
	UMIEnd            int  `toml:"umi-end"`
	// UMIFilter enables the UMI template check against UMITemplate, an IUPAC
	// pattern such as "WSNNWSNNV".
	UMIFilter   bool   `toml:"umi-filter"`
	UMITemplate string `toml:"umi-template"`
	// UMIQualityBases is the number of UMI bases allowed below MinQuality.
	UMIQualityBases int `toml:"umi-quality-bases"`

	// MinQuality is the Phred cutoff for quality trimming and for UMI bases.
	MinQuality int `toml:"min-quality"`
	// MinLength is the minimum reverse read length after adaptor removal and
	// after trimming.
	MinLength int `toml:"min-length"`
	// FilterATContent drops pairs whose reverse read has at least this
	// percentage of A and T bases.
	FilterATContent float64 `toml:"filter-at-content"`

	// Poly{A,T,G,C}MinRun are the minimum trailing homopolymer run lengths
	// stripped from reverse reads. Zero disables the base.
	PolyAMinRun int `toml:"polya-min-run"`
	PolyTMinRun int `toml:"polyt-min-run"`
	PolyGMinRun int `toml:"polyg-min-run"`
	PolyCMinRun int `toml:"polyc-min-run"`
	// AdaptorMismatches is the number of other bases tolerated inside a
	// homopolymer run.
	AdaptorMismatches int `toml:"adaptor-mismatches"`

	// Qual64 selects Phred64 quality strings instead of Phred33.
	Qual64 bool `toml:"qual64"`
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	BarcodeStart:      0,
	BarcodeLength:     18,
	MolecularBarcodes: false,
	UMIStart:          18,
	UMIEnd:            27,
	UMIFilter:         false,
	UMITemplate:       "WSNNWSNNV",
	UMIQualityBases:   3,
	MinQuality:        20,
	MinLength:         28,
	FilterATContent:   90,
	AdaptorMismatches: 0,
	Qual64:            false,
}

// Encoding returns the quality encoding selected by Qual64.
func (o Opts) Encoding() trim.Encoding {
	if o.Qual64 {
		return trim.Phred64
	}
	return trim.Phred33
}

// Adaptors returns the homopolymer adaptors in the order they are stripped.
func (o Opts) Adaptors() []trim.Adaptor {
	return []trim.Adaptor{
		{Base: 'A', MinRunLength: o.PolyAMinRun, MaxMismatches: o.AdaptorMismatches},
		{Base: 'T', MinRunLength: o.PolyTMinRun, MaxMismatches: o.AdaptorMismatches},
		{Base: 'G', MinRunLength: o.PolyGMinRun, MaxMismatches: o.AdaptorMismatches},
		{Base: 'C', MinRunLength: o.PolyCMinRun, MaxMismatches: o.AdaptorMismatches},
	}
}

// UMIWindowValid reports whether the UMI window lies after the barcode. An
// overlapping window disables UMI checks for the run.
func (o Opts) UMIWindowValid() bool {
	barcodeEnd := o.BarcodeStart + o.BarcodeLength
	return o.UMIStart >= barcodeEnd && o.UMIEnd >= barcodeEnd
}

func invalidf(format string, args ...interface{}) error {
	return errors.E(errors.Invalid, fmt.Sprintf(format, args...))
}

// Validate checks the options for values no run can use.
func (o Opts) Validate() error {
	for _, v := range []struct {
		name  string
		value int
	}{
		{"barcode-start", o.BarcodeStart},
		{"barcode-length", o.BarcodeLength},
		{"umi-start", o.UMIStart},
		{"umi-end", o.UMIEnd},
		{"umi-quality-bases", o.UMIQualityBases},
		{"min-length", o.MinLength},
		{"polya-min-run", o.PolyAMinRun},
		{"polyt-min-run", o.PolyTMinRun},
		{"polyg-min-run", o.PolyGMinRun},
		{"polyc-min-run", o.PolyCMinRun},
		{"adaptor-mismatches", o.AdaptorMismatches},
	} {
		if v.value < 0 {
			return invalidf("%s must be non-negative, got %d", v.name, v.value)
		}
	}
	if err := o.Encoding().Validate(); err != nil {
		return err
	}
	if o.FilterATContent < 0 || o.FilterATContent > 100 {
		return invalidf("filter-at-content must be in [0, 100], got %v", o.FilterATContent)
	}
	if o.MolecularBarcodes && o.UMIEnd <= o.UMIStart {
		return invalidf("umi-end (%d) must be greater than umi-start (%d)", o.UMIEnd, o.UMIStart)
	}
	if o.MolecularBarcodes && o.UMIFilter {
		tmpl, err := umi.ParseTemplate(o.UMITemplate)
		if err != nil {
			return err
		}
		if tmpl.Len() != o.UMIEnd-o.UMIStart {
			return invalidf("umi-template %s has length %d, but the UMI window [%d, %d) has length %d",
				tmpl, tmpl.Len(), o.UMIStart, o.UMIEnd, o.UMIEnd-o.UMIStart)
		}
	}
	return nil
}
