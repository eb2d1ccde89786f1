package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/stqc/filter"
	"github.com/grailbio/stqc/qa"
	"v.io/x/lib/cmdline"
)

type filterFlags struct {
	config    string
	discarded string
	qaStats   string
	statsTSV  string
}

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "filter",
		Short: "Quality-filter paired-end reads",
		Long: `Filter drops read pairs whose forward read has a malformed or low-quality
UMI, or whose reverse read is AT-rich, ends in a homopolymer adaptor, or is too
short after 3' quality trimming. Kept pairs are written to out-r1 and out-r2,
with the reverse read trimmed. Outputs ending in .gz are gzip-compressed.`,
		ArgsName: "r1 r2 out-r1 out-r2",
	}
	opts := filter.DefaultOpts
	bindFilterFlags(&cmd.Flags, &opts)
	flags := filterFlags{}
	cmd.Flags.StringVar(&flags.config, "config", "", "TOML file of filter options. Flags given on the command line take precedence")
	cmd.Flags.StringVar(&flags.discarded, "discarded", "", "If set, write the reverse read of dropped pairs to this FASTQ file")
	cmd.Flags.StringVar(&flags.qaStats, "qa-stats", "", "If set, record read counts in this QA stats JSON file")
	cmd.Flags.StringVar(&flags.statsTSV, "stats-tsv", "", "If set, write per-reason pair counts to this TSV file")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 4 {
			return fmt.Errorf("filter takes r1 r2 out-r1 out-r2, but got %v", argv)
		}
		ctx := vcontext.Background()
		if flags.config != "" {
			if err := loadConfig(ctx, &cmd.Flags, flags.config, &opts); err != nil {
				return err
			}
		}
		paths := filter.Paths{R1: argv[0], R2: argv[1], OutR1: argv[2], OutR2: argv[3], Discarded: flags.discarded}
		return runFilter(ctx, opts, paths, flags)
	})
	return cmd
}

func runFilter(ctx context.Context, opts filter.Opts, paths filter.Paths, flags filterFlags) error {
	log.Printf("filter %s with options %+v", paths, opts)
	stats, err := filter.Run(ctx, opts, paths)
	if err != nil {
		return err
	}
	if flags.statsTSV != "" {
		if err := writeStatsTSV(ctx, flags.statsTSV, stats); err != nil {
			return err
		}
	}
	if flags.qaStats != "" {
		qaStats, err := readQAStats(ctx, flags.qaStats)
		if err != nil {
			return err
		}
		qaStats.SetFiltered(stats.Total, stats.Kept)
		return qaStats.WriteFile(ctx, flags.qaStats)
	}
	return nil
}

func writeStatsTSV(ctx context.Context, path string, stats filter.Stats) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	return stats.WriteTSV(out.Writer(ctx))
}

// readQAStats reads the stats left by an earlier step, or returns zero stats
// if there are none yet.
func readQAStats(ctx context.Context, path string) (qa.Stats, error) {
	if _, err := file.Stat(ctx, path); err != nil {
		if errors.Is(errors.NotExist, err) || os.IsNotExist(err) {
			return qa.Stats{}, nil
		}
		return qa.Stats{}, err
	}
	return qa.ReadFile(ctx, path)
}
