package filter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/stqc/encoding/fastq"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const (
	barcode  = "ACGTACGTACGTACGTAC"
	goodUMI  = "ACCGACCGA"
	badUMI   = "ATCGATCGA"
	fwdTail  = "TTTTTTTTTTTTTTTTTTTTTTTTTTTTTT"
	mixedRev = "ACGTACGTACACGTACGTACACGTACGTACACGTACGTAC"
)

func read(id, seq, qual string) fastq.Read {
	return fastq.Read{ID: id, Seq: seq, Unk: "+", Qual: qual, HasQual: true}
}

func highQual(n int) string { return strings.Repeat("I", n) }

func forward(umi, umiQual string) fastq.Read {
	seq := barcode + umi + fwdTail
	qual := highQual(len(barcode)) + umiQual + highQual(len(fwdTail))
	return read("r 1:N", seq, qual)
}

func umiOpts() Opts {
	opts := DefaultOpts
	opts.MolecularBarcodes = true
	opts.UMIFilter = true
	return opts
}

func TestATContent(t *testing.T) {
	expect.EQ(t, ATContent(""), 0.0)
	expect.EQ(t, ATContent("AATT"), 100.0)
	expect.EQ(t, ATContent("ACGT"), 50.0)
	expect.EQ(t, ATContent("CCGG"), 0.0)
	// Lower-case bases are not counted.
	expect.EQ(t, ATContent("aaTT"), 50.0)
}

func TestNewInvalidOpts(t *testing.T) {
	for _, mod := range []func(*Opts){
		func(o *Opts) { o.MinLength = -1 },
		func(o *Opts) { o.FilterATContent = 101 },
		func(o *Opts) { o.MolecularBarcodes = true; o.UMIEnd = o.UMIStart },
		func(o *Opts) { o.MolecularBarcodes = true; o.UMIFilter = true; o.UMITemplate = "WSN" },
		func(o *Opts) { o.MolecularBarcodes = true; o.UMIFilter = true; o.UMITemplate = "WSNNWSNNX" },
	} {
		opts := DefaultOpts
		mod(&opts)
		_, err := New(opts)
		expect.True(t, errors.Is(errors.Invalid, err), "opts %+v: %v", opts, err)
	}
}

func TestPairKept(t *testing.T) {
	f, err := New(umiOpts())
	assert.NoError(t, err)
	assert.True(t, f.UMIEnabled())

	r1 := forward(goodUMI, highQual(9))
	r2 := read("r 2:N", mixedRev, highQual(len(mixedRev)))
	out, reason := f.Pair(&r1, &r2)
	expect.EQ(t, reason, Kept)
	expect.EQ(t, out, r2)
	expect.EQ(t, f.Stats(), Stats{Total: 1, Kept: 1})
}

func TestPairReasons(t *testing.T) {
	opts := umiOpts()
	opts.PolyAMinRun = 10
	f, err := New(opts)
	assert.NoError(t, err)

	var (
		good      = forward(goodUMI, highQual(9))
		lowQual   = forward(goodUMI, "I####IIII")
		atRich    = strings.Repeat("AAAAAAAAAATTTTTTTTTT", 2)
		polyA     = "ACGTCCGTACACGTCCGTAC" + strings.Repeat("A", 20)
		lowTail   = strings.Repeat("ACGT", 10)
		lowTailQ  = highQual(20) + strings.Repeat("#", 20)
		mixedQual = highQual(len(mixedRev))
	)
	tests := []struct {
		name    string
		r1, r2  fastq.Read
		reason  Reason
		outSeq  string
		outQual string
	}{
		{"umi mismatch", forward(badUMI, highQual(9)), read("a", mixedRev, mixedQual), UMIMismatch, mixedRev, mixedQual},
		{"umi low quality", lowQual, read("b", mixedRev, mixedQual), UMILowQuality, mixedRev, mixedQual},
		{"at rich", good, read("c", atRich, highQual(40)), HighATContent, atRich, highQual(40)},
		{"adaptor", good, read("d", polyA, highQual(40)), AdaptorTooShort, polyA, highQual(40)},
		{"trim", good, read("e", lowTail, lowTailQ), TrimTooShort, lowTail, lowTailQ},
		{"kept", good, read("f", mixedRev, mixedQual), Kept, mixedRev, mixedQual},
	}
	for _, test := range tests {
		out, reason := f.Pair(&test.r1, &test.r2)
		expect.EQ(t, reason, test.reason, test.name)
		expect.EQ(t, out.Seq, test.outSeq, test.name)
		expect.EQ(t, out.Qual, test.outQual, test.name)
		expect.EQ(t, out.ID, test.r2.ID, test.name)
	}
	stats := f.Stats()
	expect.EQ(t, stats, Stats{
		Total:           6,
		Kept:            1,
		UMIMismatch:     1,
		UMILowQuality:   1,
		HighATContent:   1,
		AdaptorTooShort: 1,
		TrimTooShort:    1,
	})
	expect.EQ(t, stats.Kept+stats.Dropped(), stats.Total)
}

func TestPairTrimsReverseRead(t *testing.T) {
	f, err := New(DefaultOpts)
	assert.NoError(t, err)
	seq := mixedRev + "ACACACAC"
	qual := highQual(len(mixedRev)) + "########"
	r1 := read("r", barcode+goodUMI, highQual(27))
	r2 := read("r", seq, qual)
	out, reason := f.Pair(&r1, &r2)
	expect.EQ(t, reason, Kept)
	expect.EQ(t, out.Seq, mixedRev)
	expect.EQ(t, out.Qual, highQual(len(mixedRev)))
	// The input is left untouched.
	expect.EQ(t, r2.Seq, seq)
}

func TestUMIOverlapDisablesChecks(t *testing.T) {
	opts := umiOpts()
	opts.UMIStart = 10
	opts.UMIEnd = 19
	f, err := New(opts)
	assert.NoError(t, err)
	expect.False(t, f.UMIEnabled())

	r1 := forward(badUMI, "#########")
	r2 := read("r", mixedRev, highQual(len(mixedRev)))
	_, reason := f.Pair(&r1, &r2)
	expect.EQ(t, reason, Kept)
}

func TestUMIQualityWithoutTemplate(t *testing.T) {
	opts := umiOpts()
	opts.UMIFilter = false
	opts.UMITemplate = "not a template"
	f, err := New(opts)
	assert.NoError(t, err)

	r2 := read("r", mixedRev, highQual(len(mixedRev)))
	r1 := forward(badUMI, highQual(9))
	_, reason := f.Pair(&r1, &r2)
	expect.EQ(t, reason, Kept)

	r1 = forward(badUMI, "I####IIII")
	_, reason = f.Pair(&r1, &r2)
	expect.EQ(t, reason, UMILowQuality)
}

func TestATThreshold(t *testing.T) {
	opts := DefaultOpts
	opts.FilterATContent = 50
	f, err := New(opts)
	assert.NoError(t, err)
	r1 := read("r", barcode, highQual(len(barcode)))
	// Exactly 50% AT is dropped.
	r2 := read("r", mixedRev, highQual(len(mixedRev)))
	_, reason := f.Pair(&r1, &r2)
	expect.EQ(t, reason, HighATContent)
}

func TestStats(t *testing.T) {
	s := Stats{Total: 4, Kept: 1, UMIMismatch: 1, TrimTooShort: 2}
	expect.EQ(t, s.Dropped(), int64(3))
	expect.EQ(t, percent(1, 0), 0.0)
	expect.EQ(t, TrimTooShort.String(), "trim_too_short")
	expect.EQ(t, Reason(42).String(), "Reason(42)")

	var buf bytes.Buffer
	assert.NoError(t, s.WriteTSV(&buf))
	expect.EQ(t, buf.String(), `REASON	PAIRS	PERCENT
total	4	100.00
kept	1	25.00
umi_mismatch	1	25.00
umi_low_quality	0	0.00
high_at_content	0	0.00
adaptor_too_short	0	0.00
trim_too_short	2	50.00
`)
}
