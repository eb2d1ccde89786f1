// Package qa holds the run-wide quality statistics reported to the caller of
// the pipeline.
package qa

import (
	"context"
	"encoding/json"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Stats are the QA counters of one pipeline run. The filter fills the read
// counts and the dataset builder fills the rest.
type Stats struct {
	InputReadsForward          int64 `json:"input_reads_forward"`
	InputReadsReverse          int64 `json:"input_reads_reverse"`
	ReadsAfterTrimmingForward  int64 `json:"reads_after_trimming_forward"`
	ReadsAfterTrimmingReverse  int64 `json:"reads_after_trimming_reverse"`
	ReadsAfterDuplicateRemoval int64 `json:"reads_after_duplicates_removal"`
	UniqueEvents               int64 `json:"unique_events"`
	BarcodesFound              int64 `json:"barcodes_found"`
	GenesFound                 int64 `json:"genes_found"`
	DuplicatesFound            int64 `json:"duplicates_found"`
	MaxGenesFeature            int64 `json:"max_genes_feature"`
	MinGenesFeature            int64 `json:"min_genes_feature"`
	MaxReadsFeature            int64 `json:"max_reads_feature"`
	MinReadsFeature            int64 `json:"min_reads_feature"`
	MaxReadsUniqueEvent        int64 `json:"max_reads_unique_event"`
	MinReadsUniqueEvent        int64 `json:"min_reads_unique_event"`
}

// SetFiltered records the outcome of a filter run over total pairs, of which
// kept survived. Forward reads are never dropped on their own, so the
// forward count after trimming equals the input count.
func (s *Stats) SetFiltered(total, kept int64) {
	s.InputReadsForward = total
	s.InputReadsReverse = total
	s.ReadsAfterTrimmingForward = total
	s.ReadsAfterTrimmingReverse = kept
}

// WriteFile writes the stats to path as indented JSON.
func (s *Stats) WriteFile(ctx context.Context, path string) (err error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if _, err = out.Writer(ctx).Write(append(data, '\n')); err != nil {
		return errors.E(err, "write", path)
	}
	log.Debug.Printf("wrote QA stats to %s", path)
	return nil
}

// ReadFile reads stats written by WriteFile.
func ReadFile(ctx context.Context, path string) (Stats, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return Stats{}, errors.E(err, "read", path)
	}
	var s Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return Stats{}, errors.E(errors.Invalid, err, "parse", path)
	}
	return s, nil
}
