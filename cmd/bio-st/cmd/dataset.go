package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/stqc/dataset"
	"github.com/grailbio/stqc/qa"
	"v.io/x/lib/cmdline"
)

func newCmdDataset() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "dataset",
		Short:    "Build the ST dataset from annotated reads",
		Long:     "Dataset runs " + dataset.DefaultProgram + " and records the counters it reports in the QA stats.",
		ArgsName: "path",
	}
	b := &dataset.ExecBuilder{Opts: dataset.DefaultOpts}
	var qaStats string
	cmd.Flags.BoolVar(&b.Opts.MolecularBarcodes, "molecular-barcodes", false, "Remove PCR duplicates using UMIs")
	cmd.Flags.StringVar(&b.Opts.Cluster, "mc-cluster", b.Opts.Cluster, "UMI clustering method: naive or hierarchical")
	cmd.Flags.IntVar(&b.Opts.AllowedMismatches, "mc-allowed-mismatches", b.Opts.AllowedMismatches, "Mismatches allowed when clustering UMIs")
	cmd.Flags.IntVar(&b.Opts.MinClusterSize, "min-cluster-size", b.Opts.MinClusterSize, "Minimum UMI cluster size")
	cmd.Flags.StringVar(&b.Opts.OutputFolder, "output-folder", "", "Directory for the dataset files")
	cmd.Flags.StringVar(&b.Opts.OutputTemplate, "output-file-template", "", "Name of the dataset")
	cmd.Flags.BoolVar(&b.Opts.Verbose, "verbose", b.Opts.Verbose, "Log the builder's output")
	cmd.Flags.StringVar(&b.Program, "program", dataset.DefaultProgram, "Dataset builder executable")
	cmd.Flags.StringVar(&qaStats, "qa-stats", "", "If set, record the builder's counters in this QA stats JSON file")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("dataset takes one pathname argument, but got %v", argv)
		}
		b.Env = env.Vars
		return buildDataset(vcontext.Background(), b, argv[0], qaStats)
	})
	return cmd
}

func buildDataset(ctx context.Context, b dataset.Builder, path, qaPath string) error {
	var stats qa.Stats
	if qaPath != "" {
		var err error
		if stats, err = readQAStats(ctx, qaPath); err != nil {
			return err
		}
	}
	if err := b.Build(ctx, path, &stats); err != nil {
		return err
	}
	if qaPath == "" {
		return nil
	}
	return stats.WriteFile(ctx, qaPath)
}
