package trim

// Adaptor describes a homopolymer artifact at the 3' end of a read: a run of
// Base at least MinRunLength long. MaxMismatches other bases may be
// interleaved with the run, which tolerates sequencing errors inside it.
type Adaptor struct {
	Base          byte
	MinRunLength  int
	MaxMismatches int
}

// Active reports whether the adaptor should be searched for at all.
func (a Adaptor) Active() bool { return a.MinRunLength > 0 }

// RunStart returns the start of the trailing run of a.Base in seq, or
// len(seq) if there is no run of at least a.MinRunLength bases.
//
// The scan walks back from the last base. Matching bases extend the run;
// other bases are absorbed while the mismatch budget lasts, but a run never
// starts with a mismatch.
func (a Adaptor) RunStart(seq string) int {
	if !a.Active() || len(seq) < a.MinRunLength {
		return len(seq)
	}
	var (
		start      = len(seq)
		matched    int
		mismatched int
	)
	for i := len(seq) - 1; i >= 0; i-- {
		if seq[i] == a.Base {
			matched++
			start = i
			continue
		}
		if mismatched == a.MaxMismatches {
			break
		}
		mismatched++
	}
	if matched < a.MinRunLength {
		return len(seq)
	}
	return start
}

// Strip removes the trailing run of a.Base, if any, from seq and qual.
func (a Adaptor) Strip(seq, qual string) (string, string) {
	i := a.RunStart(seq)
	if i == len(seq) {
		return seq, qual
	}
	if i < len(qual) {
		qual = qual[:i]
	}
	return seq[:i], qual
}

// StripAdaptors applies each active adaptor in order; each one sees the
// output of the previous one.
func StripAdaptors(seq, qual string, adaptors []Adaptor) (string, string) {
	for _, a := range adaptors {
		if a.Active() {
			seq, qual = a.Strip(seq, qual)
		}
	}
	return seq, qual
}
