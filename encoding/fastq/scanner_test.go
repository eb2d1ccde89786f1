package fastq

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
)

const fq = `@NB500956:89:HW2FHBGX2:1:11101:25648:1069 1:N:0:ATCACG
ATACAGGCCTGANCCACTGTGCCCAGNCTANNTNATTANTGAANANAGAATNGTTNTAAATANANNNNNTNTNNNC
+
AAAAAEEEEEEE#EEAEEEEEEEEEE#EEE##E#EEEE#EEEE#E#EEEEE#EEE#EEEAEE#A#####E#E###E
@NB500956:89:HW2FHBGX2:1:11101:13871:1070 1:N:0:ATCACG
CTCAACTCTGAGNCAGACAGAAATACNTTTNNTNTGAGTTACANCNTTCTTTTTCNACATATNCNNNNNTNGNNNT
+
AAAAAEEEEEEE#EEEEEEEEEEEEE#EEE##E#EEEEEEEEE#E#EEEEEEEEE#EAEEEE#A#####E#A###E
@NB500956:89:HW2FHBGX2:1:11101:9975:1070 1:N:0:ATCACG
GAGTAACCACGTNCCCATGGCCACAGNTGANNGNGTCACACCTNANCCGGGAGAGNCAATCCNGNNNNNGNANNNC
+
AAAAAEEEEEEE#EEEEEEEEEAEEE#EEA##E#EEEEEEEE<#E#<EEEEEEEE#<EEEA/#/#####A#E###A
@NB500956:89:HW2FHBGX2:1:11101:20247:1070 1:N:0:ATCACG
GATCGGAAGAGCNCACGTCTGAACTCNAGTNNCNTCCCGATCTNGNATGCCGTCTNCTGCTTNANNNNNANANNNG
+
AAAAAEEEEEEE#EEEEEEEEEEEEE#AEE##E#A////6AE<#E#EEEEEEEEA#A/EE/E#E#####/#E###E
@NB500956:89:HW2FHBGX2:1:11101:17754:1070 1:N:0:ATCACG
CAAGCAACTTACNTTACTTTAGGCTGNAAANNGNCTGCCTGAANTNCCTGCTCACNAATCCCNCNNNNNCNTNNNT
+
AAAAAEEEEEEE#EEAEEEEEEEEEE#EEE##E#EEEEEEEEE#E#EEEEEEEEE#EAEAEA#/#####E#A###E
@NB500956:89:HW2FHBGX2:1:11101:26223:1070 1:N:0:ATCACG
TCAATTTCAGAACTTTTTATTGGTCTNTTCNNGNATTCATCTTNTNCCTGGTTTANTCTTGGNANNNNNTNTNNNT
+
AAAAAEEEEEEEEEEEEEEEEEEEEE#EEA##E#EEEEEEEEE#E#<EAEEEEEE#EEEEEE#E#####E#E###E
`

func stringScanner(s string) *Scanner {
	return NewScanner(bytes.NewReader([]byte(s)), All)
}

func scanAll(t *testing.T, s string) []Read {
	scan := stringScanner(s)
	var reads []Read
	var r Read
	for scan.Scan(&r) {
		reads = append(reads, r)
	}
	expect.NoError(t, scan.Err())
	return reads
}

func TestFASTQ(t *testing.T) {
	s := stringScanner(fq)
	var r Read
	if !s.Scan(&r) {
		t.Fatal(s.Err())
	}
	expect := Read{
		ID:      "NB500956:89:HW2FHBGX2:1:11101:25648:1069 1:N:0:ATCACG",
		Seq:     "ATACAGGCCTGANCCACTGTGCCCAGNCTANNTNATTANTGAANANAGAATNGTTNTAAATANANNNNNTNTNNNC",
		Unk:     "+",
		Qual:    "AAAAAEEEEEEE#EEAEEEEEEEEEE#EEE##E#EEEE#EEEE#E#EEEEE#EEE#EEEAEE#A#####E#E###E",
		HasQual: true,
	}
	if got, want := r, expect; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := r.Name(), "NB500956:89:HW2FHBGX2:1:11101:25648:1069"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	var n int
	for s.Scan(&r) {
		n++
	}
	if got, want := n, 5; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if err := s.Err(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFASTA(t *testing.T) {
	reads := scanAll(t, "junk before header\n>r1 desc\nACGT\nTTGG\n>r2\nGGCC\n")
	expect.EQ(t, reads, []Read{
		{ID: "r1 desc", Seq: "ACGTTTGG"},
		{ID: "r2", Seq: "GGCC"},
	})
}

func TestMultilineQuality(t *testing.T) {
	// Quality lines may start with '@' once the quality block has begun.
	reads := scanAll(t, "@r1\nACGT\nAC\n+r1\n@@II\nIIII\n@r2\nA\n+\nI\n")
	expect.EQ(t, reads, []Read{
		{ID: "r1", Seq: "ACGTAC", Unk: "+r1", Qual: "@@IIIIII", HasQual: true},
		{ID: "r2", Seq: "A", Unk: "+", Qual: "I", HasQual: true},
	})
}

func TestTruncatedTrailingRecord(t *testing.T) {
	reads := scanAll(t, "@r1\nACGT\n+\nIIII\n@r2\nACGTACGT\n+\nIII\n")
	expect.EQ(t, len(reads), 2)
	expect.True(t, reads[0].HasQual)
	expect.EQ(t, reads[1], Read{ID: "r2", Seq: "ACGTACGT"})

	// A '+' line at the very end of the input.
	reads = scanAll(t, "@r1\nACGT\n+\n")
	expect.EQ(t, reads, []Read{{ID: "r1", Seq: "ACGT"}})
}

func TestFields(t *testing.T) {
	s := NewScanner(strings.NewReader(fq), ID|Seq)
	var r Read
	expect.True(t, s.Scan(&r))
	expect.EQ(t, r.Unk, "")
	expect.EQ(t, r.Qual, "")
	expect.True(t, r.HasQual)
}

func TestEmpty(t *testing.T) {
	expect.EQ(t, len(scanAll(t, "")), 0)
	expect.EQ(t, len(scanAll(t, "no header here\n")), 0)
}

func TestWriter(t *testing.T) {
	var (
		s = stringScanner(fq)
		b = new(bytes.Buffer)
		w = NewWriter(b)
		r Read
	)
	for s.Scan(&r) {
		if err := w.Write(&r); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, want := b.String(), fq; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	expect.EQ(t, w.Count(), 6)
}

func TestWriterRejectsUnqualified(t *testing.T) {
	w := NewWriter(new(bytes.Buffer))
	expect.EQ(t, w.Write(&Read{ID: "r", Seq: "ACGT"}), ErrInvalid)
	expect.EQ(t, w.Write(&Read{ID: "r", Seq: "ACGT", Qual: "II", HasQual: true}), ErrInvalid)
	expect.EQ(t, w.Count(), 0)
}

func TestPairScanner(t *testing.T) {
	const (
		two   = "@a\nAC\n+\nII\n@b\nGT\n+\nII\n"
		three = two + "@c\nTT\n+\nII\n"
	)
	tests := []struct {
		r1, r2 string
		n      int
		err    string
	}{
		{two, two, 2, ""},
		{three, two, 2, "more reads in R1 input than in R2 input: discordant FASTQ pairs"},
		{two, three, 2, "more reads in R2 input than in R1 input: discordant FASTQ pairs"},
		{"", "", 0, ""},
	}
	for _, test := range tests {
		p := NewPairScanner(strings.NewReader(test.r1), strings.NewReader(test.r2), All)
		var r1, r2 Read
		n := 0
		for p.Scan(&r1, &r2) {
			n++
		}
		expect.EQ(t, n, test.n)
		if test.err == "" {
			expect.NoError(t, p.Err())
			continue
		}
		expect.EQ(t, p.Err().Error(), test.err)
		expect.EQ(t, errors.Cause(p.Err()), ErrDiscordant)
		expect.False(t, p.Scan(&r1, &r2))
	}
}
