package statsdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/samifriedrich/seq-recovery/interval"
	"github.com/samifriedrich/seq-recovery/orthology"
	"github.com/samifriedrich/seq-recovery/recovery"
	"github.com/stretchr/testify/require"
)

func testResult() *recovery.Result {
	track := &interval.Track{}
	track.Append(
		interval.Interval{Chrom: "chr1", Start: 0, End: 10, Name: "A"},
		interval.Interval{Chrom: "chr1", Start: 200, End: 210, Name: "A"},
		interval.Interval{Chrom: "chr3", Start: 0, End: 5, Name: "TPCN3"},
	)
	return &recovery.Result{
		Track: track,
		Stats: []recovery.GeneRecoveryStats{
			{Gene: "A", Chrom: "chr1", RefBlocks: 3, CmpBlocks: 1, RecoveredBlocks: 2, RecoveredBases: 20, Status: recovery.Recovered},
			{Gene: "B", Chrom: "chr2", RefBlocks: 1, CmpBlocks: 1, Status: recovery.ChromosomeMismatch},
			{Gene: "TPCN3", Chrom: "chr3", RefBlocks: 2, CmpBlocks: 1, RecoveredBlocks: 1, RecoveredBases: 5, Status: recovery.Overridden},
		},
		Events: []recovery.Event{
			{Gene: "B", Err: &recovery.ChromosomeMismatchError{Gene: "B", RefChrom: "chr2", CmpChrom: "chr5"}},
			{Gene: "TPCN3", Err: &recovery.ChromosomeIncongruencyWarning{
				Gene: "TPCN3", Side: orthology.Cmp, Transcripts: []string{"Z1", "Z2"}, Chroms: []string{"chr3", "chrUn"},
			}},
		},
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "sub", "stats.db")

	assert.NoError(t, Save(ctx, path, testResult()))
	// Saving again replaces the previous contents.
	assert.NoError(t, Save(ctx, path, testResult()))

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	genes, err := Genes(ctx, db)
	assert.NoError(t, err)
	expect.EQ(t, genes, []GeneRow{
		{Gene: "A", Chrom: "chr1", RefBlocks: 3, CmpBlocks: 1, RecoveredBlocks: 2, RecoveredBases: 20, Status: "recovered"},
		{Gene: "B", Chrom: "chr2", RefBlocks: 1, CmpBlocks: 1, Status: "chromosome_mismatch"},
		{Gene: "TPCN3", Chrom: "chr3", RefBlocks: 2, CmpBlocks: 1, RecoveredBlocks: 1, RecoveredBases: 5, Status: "override"},
	})

	bases, err := RecoveredBases(ctx, db)
	assert.NoError(t, err)
	expect.EQ(t, bases, map[string]int{"chr1": 20, "chr3": 5})

	var nIntervals, nSkipped int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM intervals`).Scan(&nIntervals))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM events WHERE skipped = 1`).Scan(&nSkipped))
	expect.EQ(t, nIntervals, 3)
	expect.EQ(t, nSkipped, 1)

	var kind, msg string
	require.NoError(t, db.QueryRow(`SELECT kind, message FROM events WHERE gene = ?`, "TPCN3").Scan(&kind, &msg))
	expect.EQ(t, kind, "chromosome_incongruency")
	expect.HasSubstr(t, msg, "TPCN3")
}

func TestSaveEmpty(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "empty.db")
	assert.NoError(t, Save(ctx, path, &recovery.Result{Track: &interval.Track{}}))

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	genes, err := Genes(ctx, db)
	assert.NoError(t, err)
	expect.EQ(t, len(genes), 0)
	bases, err := RecoveredBases(ctx, db)
	assert.NoError(t, err)
	expect.EQ(t, len(bases), 0)
}
