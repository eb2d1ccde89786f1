package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"hash"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errors"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/stqc/encoding/fastq"
	"v.io/x/lib/cmdline"
)

// fileChecksum summarizes a FASTQ or FASTA file. The hashes are sums of
// per-record digests, so they do not depend on record order.
type fileChecksum struct {
	Records  int64  `json:"records"`
	Bases    int64  `json:"bases"`
	NameHash uint64 `json:"name_hash"`
	SeqHash  uint64 `json:"seq_hash"`
	QualHash uint64 `json:"qual_hash"`
}

func hashField(h hash.Hash64, value string) uint64 {
	h.Reset()
	h.Write(gunsafe.StringToBytes(value)) // nolint: errcheck
	return h.Sum64()
}

func (c *fileChecksum) add(r *fastq.Read, h hash.Hash64) {
	c.Records++
	c.Bases += int64(len(r.Seq))
	c.NameHash += hashField(h, r.ID)
	c.SeqHash += hashField(h, r.Seq)
	if r.HasQual {
		c.QualHash += hashField(h, r.Qual)
	}
}

func checksumFile(ctx context.Context, path string) (c fileChecksum, err error) {
	in, err := fastq.Open(ctx, path)
	if err != nil {
		return c, err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	var (
		sc = fastq.NewScanner(in.Reader(), fastq.ID|fastq.Seq|fastq.Qual)
		h  = seahash.New()
		r  fastq.Read
	)
	for sc.Scan(&r) {
		c.add(&r, h)
	}
	if err := sc.Err(); err != nil {
		return c, errors.E(err, "read", path)
	}
	return c, nil
}

func checksum(ctx context.Context, out io.Writer, path string) error {
	c, err := checksumFile(ctx, path)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func newCmdChecksum() *cmdline.Command {
	cmd := &cmdline.Command{
		Name: "checksum",
		Short: `Compute a checksum of a FASTQ or FASTA file.
The checksum is a JSON string of record and base counts and order-independent
hashes of the names, sequences and qualities`,
		ArgsName: "path",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("checksum takes a path, but found %v", argv)
		}
		return checksum(vcontext.Background(), env.Stdout, argv[0])
	})
	return cmd
}
