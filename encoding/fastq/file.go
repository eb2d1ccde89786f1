package fastq

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
)

// Input is a FASTA or FASTQ file opened for reading. Compressed files are
// decompressed transparently based on the path extension.
type Input struct {
	f   file.File
	r   io.Reader
	dec io.ReadCloser // nil if uncompressed
}

// Open opens the file at path for reading.
func Open(ctx context.Context, path string) (*Input, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	in := &Input{f: f, r: f.Reader(ctx)}
	if u := compress.NewReaderPath(in.r, f.Name()); u != nil {
		in.dec, in.r = u, u
	}
	return in, nil
}

// Reader returns the uncompressed contents of the file.
func (in *Input) Reader() io.Reader { return in.r }

// Close closes the input. It must be called exactly once.
func (in *Input) Close(ctx context.Context) error {
	once := errors.Once{}
	if in.dec != nil {
		once.Set(in.dec.Close())
	}
	once.Set(in.f.Close(ctx))
	return once.Err()
}

// Create creates a FASTQ file at path and returns a writer for it. If path
// ends with ".gz" the output is gzip-compressed. The caller must Close the
// writer.
func Create(ctx context.Context, path string) (*Writer, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	out := f.Writer(ctx)
	if !strings.HasSuffix(path, ".gz") {
		w := NewWriter(out)
		w.close = f.Close
		return w, nil
	}
	gz := gzip.NewWriter(out)
	w := NewWriter(gz)
	w.close = func(ctx context.Context) error {
		once := errors.Once{}
		once.Set(gz.Close())
		once.Set(f.Close(ctx))
		return once.Err()
	}
	return w, nil
}
