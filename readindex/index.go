// Package readindex maps demultiplexed read names to the spatial coordinate
// tags, and optionally the UMI, that the demultiplexer appended to them. The
// dataset builder looks reads up by the first token of their name after
// alignment, which drops the tags.
package readindex

import (
	"context"
	"fmt"
	"strings"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/stqc/encoding/fastq"
	"github.com/grailbio/stqc/umi"
)

// UMITagPrefix precedes the UMI bases in the UMI tag.
const UMITagPrefix = "B3:Z:"

// Tags are the values stored for one read.
type Tags struct {
	// X and Y are the last two tokens of the read name, verbatim.
	X, Y string
	// UMI is the UMI bases, or empty.
	UMI string
}

// Fields returns the tags as name tokens: X, Y, then the UMI tag if a UMI
// is present.
func (t Tags) Fields() []string {
	if t.UMI == "" {
		return []string{t.X, t.Y}
	}
	return []string{t.X, t.Y, UMITagPrefix + t.UMI}
}

// Key returns the index key of a read name: the 64-bit farm fingerprint of
// its first whitespace-delimited token. Distinct names can share a key; such
// collisions are neither detected nor reported, and the later read wins.
func Key(name string) uint64 {
	return farm.Fingerprint64(gunsafe.StringToBytes(fastq.FirstToken(name)))
}

// Opts configures Build.
type Opts struct {
	// HasUMI is set when reads carry a UMI at [UMIStart, UMIEnd) of their
	// sequence.
	HasUMI   bool
	UMIStart int
	UMIEnd   int
}

// Build reads the FASTQ or FASTA file at path and puts one entry per read
// into store, then finalizes store. It returns the number of reads indexed.
// Read names must have at least two tokens.
func Build(ctx context.Context, path string, opts Opts, store Store) (n int, err error) {
	if opts.HasUMI && (opts.UMIStart < 0 || opts.UMIStart >= opts.UMIEnd) {
		return 0, errors.E(errors.Invalid,
			fmt.Sprintf("invalid UMI window [%d, %d)", opts.UMIStart, opts.UMIEnd))
	}
	in, err := fastq.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	var (
		sc = fastq.NewScanner(in.Reader(), fastq.ID|fastq.Seq)
		r  fastq.Read
	)
	for sc.Scan(&r) {
		tokens := strings.Fields(r.ID)
		if len(tokens) < 2 {
			return n, errors.E(errors.Invalid, "read name has no coordinates", r.ID)
		}
		tags := Tags{X: tokens[len(tokens)-2], Y: tokens[len(tokens)-1]}
		if opts.HasUMI {
			tags.UMI = umi.Window(r.Seq, opts.UMIStart, opts.UMIEnd)
		}
		if err := store.Put(Key(tokens[0]), tags); err != nil {
			return n, errors.E(err, "index", r.ID)
		}
		n++
		if n%(1<<20) == 0 {
			log.Debug.Printf("%s: indexed %d reads", path, n)
		}
	}
	if err := sc.Err(); err != nil {
		return n, errors.E(err, "read", path)
	}
	if err := store.Finalize(); err != nil {
		return n, err
	}
	log.Printf("%s: indexed %d reads", path, n)
	return n, nil
}
