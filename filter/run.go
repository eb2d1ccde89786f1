package filter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/stqc/encoding/fastq"
)

// Paths lists the files of a filter run.
type Paths struct {
	// R1 and R2 are the forward and reverse inputs.
	R1, R2 string
	// OutR1 and OutR2 receive kept pairs.
	OutR1, OutR2 string
	// Discarded, if nonempty, receives the reverse read of dropped pairs.
	Discarded string
}

const progressInterval = 1 << 20

type outputs struct {
	r1, r2, discarded *fastq.Writer
}

func (o *outputs) close(ctx context.Context, once *errors.Once) {
	for _, w := range []*fastq.Writer{o.r1, o.r2, o.discarded} {
		if w != nil {
			once.Set(w.Close(ctx))
		}
	}
}

func createOutputs(ctx context.Context, paths Paths) (*outputs, error) {
	o := &outputs{}
	var err error
	if o.r2, err = fastq.Create(ctx, paths.OutR2); err != nil {
		return nil, err
	}
	if o.r1, err = fastq.Create(ctx, paths.OutR1); err != nil {
		once := errors.Once{}
		o.close(ctx, &once)
		return nil, err
	}
	if paths.Discarded != "" {
		if o.discarded, err = fastq.Create(ctx, paths.Discarded); err != nil {
			once := errors.Once{}
			o.close(ctx, &once)
			return nil, err
		}
	}
	return o, nil
}

// Run filters the read pairs in paths.R1 and paths.R2 and writes the kept
// pairs to paths.OutR1 and paths.OutR2. It returns the outcome counts.
//
// Run fails before reading anything if an input cannot be opened or an
// output cannot be created. It fails mid-run if the inputs have different
// numbers of reads, a read lacks a quality string, or an output cannot be
// written; all files are closed before the error is returned and partial
// outputs are left in place. After the run, both kept outputs must exist
// and be nonempty.
func Run(ctx context.Context, opts Opts, paths Paths) (stats Stats, err error) {
	f, err := New(opts)
	if err != nil {
		return Stats{}, err
	}
	in1, err := fastq.Open(ctx, paths.R1)
	if err != nil {
		return Stats{}, err
	}
	in2, err := fastq.Open(ctx, paths.R2)
	if err != nil {
		in1.Close(ctx) // nolint: errcheck
		return Stats{}, err
	}
	out, err := createOutputs(ctx, paths)
	if err != nil {
		in1.Close(ctx) // nolint: errcheck
		in2.Close(ctx) // nolint: errcheck
		return Stats{}, err
	}

	once := errors.Once{}
	once.Set(f.run(in1, in2, out, paths))
	once.Set(in1.Close(ctx))
	once.Set(in2.Close(ctx))
	out.close(ctx, &once)
	stats = f.Stats()
	if err := once.Err(); err != nil {
		log.Error.Printf("filtering %s, %s: %v", paths.R1, paths.R2, err)
		return stats, err
	}
	stats.Log()
	if n := int64(out.r1.Count()); n != stats.Kept || int64(out.r2.Count()) != n {
		return stats, errors.E(errors.Integrity,
			fmt.Sprintf("wrote %d, %d reads for %d kept pairs", n, out.r2.Count(), stats.Kept))
	}
	if out.discarded != nil {
		log.Printf("Wrote %d discarded reads to %s", out.discarded.Count(), paths.Discarded)
	}
	for _, path := range []string{paths.OutR1, paths.OutR2} {
		if _, err := verifyOutput(ctx, path); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (f *Filter) run(in1, in2 *fastq.Input, out *outputs, paths Paths) error {
	var (
		sc     = fastq.NewPairScanner(in1.Reader(), in2.Reader(), fastq.All)
		r1, r2 fastq.Read
	)
	for sc.Scan(&r1, &r2) {
		if !r1.HasQual || !r2.HasQual {
			return errors.E(errors.Invalid,
				fmt.Sprintf("read pair %s, %s has no quality string", r1.Name(), r2.Name()))
		}
		if r1.Name() != r2.Name() {
			log.Error.Printf("Pair reads found with different names %s and %s", r1.ID, r2.ID)
		}
		rev, reason := f.Pair(&r1, &r2)
		if reason == Kept {
			if err := out.r2.Write(&rev); err != nil {
				return errors.E(err, "write", paths.OutR2)
			}
			if err := out.r1.Write(&r1); err != nil {
				return errors.E(err, "write", paths.OutR1)
			}
		} else if out.discarded != nil {
			if err := out.discarded.Write(&rev); err != nil {
				return errors.E(err, "write", paths.Discarded)
			}
		}
		if n := f.stats.Total; n%progressInterval == 0 {
			log.Printf("%s: %dMi readpairs", paths.R1, n/progressInterval)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.E(err, fmt.Sprintf("input files %s, %s are not of the same length", paths.R1, paths.R2))
	}
	return nil
}

// verifyOutput checks that path exists and is nonempty, and logs its size
// and seahash digest. The file is hashed as it streams.
func verifyOutput(ctx context.Context, path string) (digest uint64, err error) {
	info, err := file.Stat(ctx, path)
	if err != nil {
		return 0, errors.E(errors.Precondition, err, "output file not present", path)
	}
	if info.Size() == 0 {
		return 0, errors.E(errors.Precondition, "output file is empty", path)
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return 0, errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	h := seahash.New()
	if _, err = io.Copy(h, in.Reader(ctx)); err != nil {
		return 0, errors.E(err, "read", path)
	}
	digest = h.Sum64()
	log.Printf("Wrote %s: %d bytes, seahash %016x", path, info.Size(), digest)
	return digest, nil
}

// String summarizes the paths for logging.
func (p Paths) String() string {
	parts := []string{"r1=" + p.R1, "r2=" + p.R2, "out-r1=" + p.OutR1, "out-r2=" + p.OutR2}
	if p.Discarded != "" {
		parts = append(parts, "discarded="+p.Discarded)
	}
	return strings.Join(parts, " ")
}
