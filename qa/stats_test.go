package qa

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFiltered(t *testing.T) {
	var s Stats
	s.SetFiltered(10, 7)
	assert.Equal(t, Stats{
		InputReadsForward:         10,
		InputReadsReverse:         10,
		ReadsAfterTrimmingForward: 10,
		ReadsAfterTrimmingReverse: 7,
	}, s)
}

func TestWriteFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := filepath.Join(dir, "qa_stats.json")

	s := Stats{GenesFound: 3, MaxReadsUniqueEvent: 9}
	s.SetFiltered(4, 2)
	require.NoError(t, s.WriteFile(ctx, path))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reads_after_trimming_reverse": 2`)
	assert.Contains(t, string(data), `"genes_found": 3`)

	got, err := ReadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}
