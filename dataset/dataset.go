// Package dataset runs the external dataset builder over annotated,
// demultiplexed reads and collects the counters it reports into qa.Stats.
package dataset

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/stqc/qa"
	"v.io/x/lib/envvar"
	"v.io/x/lib/lookpath"
)

// Builder creates a dataset from an annotated read file and records its
// counters in stats.
type Builder interface {
	Build(ctx context.Context, inputPath string, stats *qa.Stats) error
}

// DefaultProgram is the dataset builder executable.
const DefaultProgram = "createDataset.py"

// Opts configures ExecBuilder.
type Opts struct {
	// MolecularBarcodes enables UMI-based duplicate removal.
	MolecularBarcodes bool
	// Cluster is the UMI clustering method, "naive" or "hierarchical".
	Cluster           string
	AllowedMismatches int
	MinClusterSize    int
	// OutputFolder and OutputTemplate are passed on when nonempty.
	OutputFolder   string
	OutputTemplate string
	// Verbose logs every line the builder writes.
	Verbose bool
}

// DefaultOpts are the builder's own defaults.
var DefaultOpts = Opts{
	Cluster:           "naive",
	AllowedMismatches: 1,
	MinClusterSize:    2,
	Verbose:           true,
}

// ExecBuilder runs the dataset builder as a subprocess.
type ExecBuilder struct {
	Opts Opts
	// Program is the executable. A bare name is looked up in Env's PATH.
	// Defaults to DefaultProgram.
	Program string
	// Env is the subprocess environment. Defaults to the current one.
	Env map[string]string
}

// Args returns the builder's command-line arguments.
func (o Opts) Args(inputPath string) ([]string, error) {
	args := []string{"--input", inputPath}
	if o.MolecularBarcodes {
		if o.Cluster != "naive" && o.Cluster != "hierarchical" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown UMI clustering method %q", o.Cluster))
		}
		args = append(args,
			"--molecular-barcodes",
			"--mc-allowed-mismatches", strconv.Itoa(o.AllowedMismatches),
			"--min-cluster-size", strconv.Itoa(o.MinClusterSize),
			"--mc-cluster", o.Cluster)
	}
	if o.OutputFolder != "" {
		args = append(args, "--output-folder", o.OutputFolder)
	}
	if o.OutputTemplate != "" {
		args = append(args, "--output-file-template", o.OutputTemplate)
	}
	return args, nil
}

func (b *ExecBuilder) env() map[string]string {
	if b.Env != nil {
		return b.Env
	}
	return envvar.SliceToMap(os.Environ())
}

func (b *ExecBuilder) program(env map[string]string) (string, error) {
	prog := b.Program
	if prog == "" {
		prog = DefaultProgram
	}
	if strings.ContainsRune(prog, filepath.Separator) {
		return prog, nil
	}
	path, err := lookpath.Look(env, prog)
	if err != nil {
		return "", errors.E(errors.NotExist, err, "dataset builder executable not found", prog)
	}
	return path, nil
}

// Build implements Builder. It fails if the input does not exist, if the
// builder exits with an error or writes anything to stderr, or if its
// output cannot be parsed.
func (b *ExecBuilder) Build(ctx context.Context, inputPath string, stats *qa.Stats) error {
	if _, err := file.Stat(ctx, inputPath); err != nil {
		return errors.E(errors.NotExist, err, "input file not present", inputPath)
	}
	args, err := b.Opts.Args(inputPath)
	if err != nil {
		return err
	}
	env := b.env()
	prog, err := b.program(env)
	if err != nil {
		return err
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Env = envvar.MapToSlice(env)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	log.Debug.Printf("running %s %s", prog, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return errors.E(err, "dataset builder failed", fmt.Sprintf("stdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String()))
	}
	if stderr.Len() > 0 {
		return errors.E("dataset builder wrote error messages",
			fmt.Sprintf("stdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String()))
	}
	return ParseOutput(&stdout, stats, b.Opts.Verbose)
}

type counter struct {
	label string
	field func(*qa.Stats) *int64
}

// counters are matched in order; the first label found in a line wins.
var counters = []counter{
	{"Number of unique transcripts present:", func(s *qa.Stats) *int64 { return &s.ReadsAfterDuplicateRemoval }},
	{"Number of unique events (gene-barcode) present:", func(s *qa.Stats) *int64 { return &s.UniqueEvents }},
	{"Number of unique barcodes present:", func(s *qa.Stats) *int64 { return &s.BarcodesFound }},
	{"Number of unique genes present:", func(s *qa.Stats) *int64 { return &s.GenesFound }},
	{"Number of discarded reads (possible PCR duplicates):", func(s *qa.Stats) *int64 { return &s.DuplicatesFound }},
	{"Max number of genes over all features:", func(s *qa.Stats) *int64 { return &s.MaxGenesFeature }},
	{"Min number of genes over all features:", func(s *qa.Stats) *int64 { return &s.MinGenesFeature }},
	{"Max number of reads over all features:", func(s *qa.Stats) *int64 { return &s.MaxReadsFeature }},
	{"Min number of reads over all features:", func(s *qa.Stats) *int64 { return &s.MinReadsFeature }},
	{"Max number of reads over all unique events:", func(s *qa.Stats) *int64 { return &s.MaxReadsUniqueEvent }},
	{"Min number of reads over all unique events:", func(s *qa.Stats) *int64 { return &s.MinReadsUniqueEvent }},
}

// ParseOutput reads the builder's report from r and stores each labeled
// counter, the last token of its line, in stats. A labeled line whose last
// token is not an integer is an error. With verbose set, every line is
// logged.
func ParseOutput(r io.Reader, stats *qa.Stats, verbose bool) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if verbose {
			log.Printf("%s", line)
		}
		for _, c := range counters {
			if !strings.Contains(line, c.label) {
				continue
			}
			tokens := strings.Fields(line)
			v, err := strconv.ParseInt(tokens[len(tokens)-1], 10, 64)
			if err != nil {
				return errors.E(errors.Invalid, err, "parse dataset builder output", line)
			}
			*c.field(stats) = v
			break
		}
	}
	return sc.Err()
}
