package interval

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func testTrack() *Track {
	t := &Track{}
	t.Append(Interval{"chr3", 100, 150, "TPCN3"}, Interval{"chr3", 10, 20, "TPCN3"})
	t.Append(Interval{"chr1", 5, 5, "EMPTY"})
	t.Append(Interval{"chr1", 0, 7, "MYH7"})
	return t
}

func TestTrackWritePreservesOrder(t *testing.T) {
	tr := testTrack()
	expect.EQ(t, tr.Len(), 4)
	expect.EQ(t, tr.Bases(), 67)
	var buf bytes.Buffer
	assert.NoError(t, tr.Write(&buf))
	expect.EQ(t, buf.String(), "chr3 100 150 TPCN3\nchr3 10 20 TPCN3\nchr1 5 5 EMPTY\nchr1 0 7 MYH7\n")
}

func TestReadTrack(t *testing.T) {
	var buf bytes.Buffer
	tr := testTrack()
	assert.NoError(t, tr.Write(&buf))
	ivs, err := ReadTrack(&buf)
	assert.NoError(t, err)
	expect.EQ(t, ivs, tr.Intervals())

	ivs, err = ReadTrack(strings.NewReader("chr1\t1\t2\tA\n\n  chr2  3 4 B extra\n"))
	assert.NoError(t, err)
	expect.EQ(t, ivs, []Interval{{"chr1", 1, 2, "A"}, {"chr2", 3, 4, "B"}})

	for _, bad := range []string{"chr1 1 2\n", "chr1 x 2 A\n", "chr1 1 y A\n", "chr1 5 2 A\n"} {
		_, err = ReadTrack(strings.NewReader(bad))
		expect.NotNil(t, err, bad)
	}
}

func TestWriteFile(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	tr := testTrack()

	plain := filepath.Join(tempDir, "out.bed")
	assert.NoError(t, tr.WriteFile(ctx, plain))
	data, err := ioutil.ReadFile(plain)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "chr3 100 150 TPCN3\nchr3 10 20 TPCN3\nchr1 5 5 EMPTY\nchr1 0 7 MYH7\n")

	compressed := filepath.Join(tempDir, "out.bed.gz")
	assert.NoError(t, tr.WriteFile(ctx, compressed))
	f, err := os.Open(compressed)
	assert.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	assert.NoError(t, err)
	ivs, err := ReadTrack(gz)
	assert.NoError(t, err)
	expect.EQ(t, ivs, tr.Intervals())
}

func TestEmptyTrack(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, (&Track{}).Write(&buf))
	expect.EQ(t, buf.Len(), 0)
}
