package fastq

import (
	"bufio"
	"context"
	"io"

	gunsafe "github.com/grailbio/base/unsafe"
)

var (
	newline = []byte{'\n'}
	plus    = []byte{'+'}
)

// Writer is a FASTQ file writer. Writes are buffered; Close must be called
// to flush the buffered reads and release the underlying output.
type Writer struct {
	w     *bufio.Writer
	close func(ctx context.Context) error
	err   error
	n     int
}

// NewWriter constructs a new FASTQ writer
// that writes reads to the underlying writer w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 1<<20)}
}

// Write writes the read r in FASTQ format. The ID is prefixed with '@' and
// line 3 is always written as a bare '+'. Reads without a quality string of
// the same length as the sequence are rejected with ErrInvalid. An error is
// returned if the write failed; once a write fails, all later writes fail
// with the same error.
func (w *Writer) Write(r *Read) error {
	if w.err != nil {
		return w.err
	}
	if !r.HasQual || len(r.Qual) != len(r.Seq) {
		return ErrInvalid
	}
	w.writeByte('@')
	w.writeln(r.ID)
	w.writeln(r.Seq)
	w.writeBytes(plus)
	w.writeBytes(newline)
	w.writeln(r.Qual)
	if w.err == nil {
		w.n++
	}
	return w.err
}

// Count returns the number of reads written so far.
func (w *Writer) Count() int { return w.n }

func (w *Writer) writeByte(b byte) {
	if w.err != nil {
		return
	}
	w.err = w.w.WriteByte(b)
}

func (w *Writer) writeBytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *Writer) writeln(line string) {
	w.writeBytes(gunsafe.StringToBytes(line))
	w.writeBytes(newline)
}

// Flush writes any buffered reads to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	w.err = w.w.Flush()
	return w.err
}

// Close flushes the writer and, for writers obtained from Create, closes
// the output file. It must be called exactly once. The first error seen by
// the writer, if any, is returned.
func (w *Writer) Close(ctx context.Context) error {
	err := w.Flush()
	if w.close != nil {
		if e := w.close(ctx); e != nil && err == nil {
			err = e
		}
		w.close = nil
	}
	return err
}
