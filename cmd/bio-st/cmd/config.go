package cmd

import (
	"bytes"
	"context"
	"flag"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/stqc/filter"
	"github.com/pelletier/go-toml/v2"
)

// bindFilterFlags registers one flag per filter option, each defaulting to
// the current value in opts.
func bindFilterFlags(fs *flag.FlagSet, opts *filter.Opts) {
	fs.IntVar(&opts.BarcodeStart, "barcode-start", opts.BarcodeStart, "Start of the spatial barcode in the forward read")
	fs.IntVar(&opts.BarcodeLength, "barcode-length", opts.BarcodeLength, "Length of the spatial barcode")
	fs.BoolVar(&opts.MolecularBarcodes, "molecular-barcodes", opts.MolecularBarcodes, "Forward reads carry a UMI; enables the UMI quality check")
	fs.IntVar(&opts.UMIStart, "umi-start", opts.UMIStart, "Start of the UMI in the forward read")
	fs.IntVar(&opts.UMIEnd, "umi-end", opts.UMIEnd, "End (exclusive) of the UMI in the forward read")
	fs.BoolVar(&opts.UMIFilter, "umi-filter", opts.UMIFilter, "Drop pairs whose UMI does not match -umi-template")
	fs.StringVar(&opts.UMITemplate, "umi-template", opts.UMITemplate, "IUPAC template the UMI must match")
	fs.IntVar(&opts.UMIQualityBases, "umi-quality-bases", opts.UMIQualityBases, "Max number of UMI bases below -min-quality")
	fs.IntVar(&opts.MinQuality, "min-quality", opts.MinQuality, "Phred cutoff for 3' trimming and UMI bases")
	fs.IntVar(&opts.MinLength, "min-length", opts.MinLength, "Minimum reverse read length after adaptor removal and trimming")
	fs.Float64Var(&opts.FilterATContent, "filter-at-content", opts.FilterATContent, "Drop pairs whose reverse read has at least this percentage of A and T")
	fs.IntVar(&opts.PolyAMinRun, "polya-min-run", opts.PolyAMinRun, "Strip trailing poly-A runs at least this long; 0 disables")
	fs.IntVar(&opts.PolyTMinRun, "polyt-min-run", opts.PolyTMinRun, "Strip trailing poly-T runs at least this long; 0 disables")
	fs.IntVar(&opts.PolyGMinRun, "polyg-min-run", opts.PolyGMinRun, "Strip trailing poly-G runs at least this long; 0 disables")
	fs.IntVar(&opts.PolyCMinRun, "polyc-min-run", opts.PolyCMinRun, "Strip trailing poly-C runs at least this long; 0 disables")
	fs.IntVar(&opts.AdaptorMismatches, "adaptor-mismatches", opts.AdaptorMismatches, "Other bases tolerated inside a homopolymer run")
	fs.BoolVar(&opts.Qual64, "qual64", opts.Qual64, "Quality strings are Phred+64")
}

// loadConfig fills opts from the TOML file at path. Flags set on the command
// line keep their values.
func loadConfig(ctx context.Context, fs *flag.FlagSet, path string, opts *filter.Opts) error {
	explicit := map[string]string{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })

	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return errors.E(err, "read config", path)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(opts); err != nil {
		return errors.E(errors.Invalid, err, "parse config", path)
	}
	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return errors.E(errors.Invalid, err, "flag", name)
		}
	}
	return nil
}
