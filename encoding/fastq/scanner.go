package fastq

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrInvalid is returned when a read cannot be written in FASTQ form.
	ErrInvalid = errors.New("invalid FASTQ read")
	// ErrDiscordant is returned when two underlying FASTQ files are discordant.
	ErrDiscordant = errors.New("discordant FASTQ pairs")
)

// A Read is a FASTA or FASTQ record. ID is the header line without its
// leading '>' or '@'. Unk is line 3 ("unknown", including the '+') and Qual
// the quality string; both are empty when HasQual is false.
type Read struct {
	ID, Seq, Unk, Qual string
	// HasQual is set when the record carried a complete quality string.
	HasQual bool
}

// Name returns the first token of the ID.
func (r *Read) Name() string { return FirstToken(r.ID) }

// FirstToken returns the first whitespace-delimited token of s, splitting the
// way strings.Fields does.
func FirstToken(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}

var errEOF = errors.New("eof")

// maxLineLength bounds a single input line.
const maxLineLength = 64 << 20

// Scanner provides a convenient interface for reading FASTA and FASTQ
// data. The Scan method returns the next read, returning a boolean
// indicating whether the read succeeded. Scanners are not
// threadsafe.
//
// Scanner is lenient: text before the first '>' or '@' header is skipped,
// sequence lines accumulate until a line starting with '@', '+' or '>',
// and a '+' line starts a quality block that ends once the quality is at
// least as long as the sequence. A record without a '+' line is returned
// with HasQual unset. A trailing record whose quality block is cut short by
// the end of the input is also returned with HasQual unset, rather than
// reported as an error.
type Scanner struct {
	b      *bufio.Scanner
	err    error
	fields Field

	// header holds a header line that terminated the previous record.
	header    []byte
	hasHeader bool
	seq, qual []byte
}

// Field enumerates FASTQ fields. It is used to specify fields to read in
// NewScanner.
type Field uint

const (
	// ID causes the Read.ID field to be filled
	ID Field = 1 << iota
	// Seq causes the Read.Seq field to be filled
	Seq
	// Unk causes the Read.Unk field to be filled
	Unk
	// Qual causes the Read.Qual field to be filled
	Qual
	// All equals ID|Seq|Unk|Qual.
	All = ID | Seq | Unk | Qual
)

// NewScanner constructs a new Scanner that reads raw FASTA or FASTQ data
// from the provided reader. Fields is a bitset of the fields to read. A
// typical value would be All or ID|Seq|Qual. HasQual is always filled.
func NewScanner(r io.Reader, fields Field) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 64<<10), maxLineLength)
	return &Scanner{b: b, fields: fields}
}

func isHeader(line []byte) bool {
	return len(line) > 0 && (line[0] == '>' || line[0] == '@')
}

func isTerminator(line []byte) bool {
	return len(line) > 0 && (line[0] == '@' || line[0] == '+' || line[0] == '>')
}

// Scan the next read into the provided read. Scan returns a boolean
// indicating whether the scan succeeded. Once Scan returns false, it
// never returns true again. Upon completion, the user should check
// the Err method to determine whether scanning stopped because of an
// error or because the end of the stream was reached.
func (f *Scanner) Scan(read *Read) bool {
	if f.err != nil {
		return false
	}
	if !f.hasHeader {
		for {
			if !f.b.Scan() {
				f.stop()
				return false
			}
			if line := f.b.Bytes(); isHeader(line) {
				f.header = append(f.header[:0], line...)
				break
			}
		}
	}
	f.hasHeader = false
	id := f.header[1:]
	if f.fields&ID != 0 {
		read.ID = string(id)
	}

	f.seq = f.seq[:0]
	terminated := false
	for f.b.Scan() {
		line := f.b.Bytes()
		if isTerminator(line) {
			f.header = append(f.header[:0], line...)
			terminated = true
			break
		}
		f.seq = append(f.seq, line...)
	}
	if err := f.b.Err(); err != nil {
		f.err = err
		return false
	}
	if !terminated || f.header[0] != '+' {
		// FASTA record. The terminator, if any, heads the next record.
		f.hasHeader = terminated
		f.fill(read, "", nil, false)
		return true
	}

	unk := string(f.header)
	f.qual = f.qual[:0]
	for f.b.Scan() {
		f.qual = append(f.qual, f.b.Bytes()...)
		if len(f.qual) >= len(f.seq) {
			f.fill(read, unk, f.qual, true)
			return true
		}
	}
	if err := f.b.Err(); err != nil {
		f.err = err
		return false
	}
	// The input ended inside the quality block.
	f.fill(read, "", nil, false)
	return true
}

func (f *Scanner) fill(read *Read, unk string, qual []byte, hasQual bool) {
	if f.fields&Seq != 0 {
		read.Seq = string(f.seq)
	}
	if f.fields&Unk != 0 {
		read.Unk = unk
	}
	if f.fields&Qual != 0 {
		read.Qual = string(qual)
	}
	read.HasQual = hasQual
}

func (f *Scanner) stop() {
	if f.err = f.b.Err(); f.err == nil {
		f.err = errEOF
	}
}

// Err returns the scanning error, if any.
func (f *Scanner) Err() error {
	if f.err == errEOF {
		return nil
	}
	return f.err
}

// PairScanner composes a pair of scanners to scan a pair of FASTQ
// streams.
type PairScanner struct {
	r1, r2 *Scanner
	err    error
}

// NewPairScanner creates a new FASTQ pair scanner from the provided
// R1 and R2 readers.
func NewPairScanner(r1, r2 io.Reader, fields Field) *PairScanner {
	return &PairScanner{
		r1: NewScanner(r1, fields),
		r2: NewScanner(r2, fields),
	}
}

// Scan scans the next read pair into r1, r2. Scan returns a boolean
// indicating whether the scan succeeded. Once Scan returns false, it
// never returns true again. Upon completion, the user should check
// the Err method to determine whether scanning stopped because of an
// error or because the end of the stream was reached. Streams that end
// after a different number of reads yield an error whose cause is
// ErrDiscordant.
func (p *PairScanner) Scan(r1, r2 *Read) bool {
	if p.err != nil {
		return false
	}
	ok1 := p.r1.Scan(r1)
	ok2 := p.r2.Scan(r2)
	if ok1 && ok2 {
		return true
	}
	if p.r1.Err() != nil || p.r2.Err() != nil {
		return false
	}
	if ok1 {
		p.err = pkgerrors.Wrap(ErrDiscordant, "more reads in R1 input than in R2 input")
	} else if ok2 {
		p.err = pkgerrors.Wrap(ErrDiscordant, "more reads in R2 input than in R1 input")
	}
	return false
}

// Err returns the scanning error, if any. It should be checked
// after Scan returns false.
func (p *PairScanner) Err() error {
	if err := p.r1.Err(); err != nil {
		return pkgerrors.Wrap(err, "error reading R1 input")
	}
	if err := p.r2.Err(); err != nil {
		return pkgerrors.Wrap(err, "error reading R2 input")
	}
	return p.err
}
