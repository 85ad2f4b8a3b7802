package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// Interval is one track row. Start and End are 0-based, half-open.
type Interval struct {
	Chrom string
	Start int
	End   int
	Name  string
}

// Len returns the number of bases covered by the interval.
func (iv Interval) Len() int { return iv.End - iv.Start }

// Track accumulates intervals in the order they are appended. It never sorts,
// merges, or drops rows. Thread compatible.
type Track struct {
	rows []Interval
}

// Append adds intervals to the end of the track.
func (t *Track) Append(ivs ...Interval) { t.rows = append(t.rows, ivs...) }

// Len returns the number of rows.
func (t *Track) Len() int { return len(t.rows) }

// Intervals returns the rows in append order. The caller must not modify the
// returned slice.
func (t *Track) Intervals() []Interval { return t.rows }

// Bases returns the total length of all rows.
func (t *Track) Bases() int {
	n := 0
	for _, iv := range t.rows {
		n += iv.Len()
	}
	return n
}

// Write emits the track as space-separated "chrom start end name" lines
// without a header.
func (t *Track) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	for _, iv := range t.rows {
		buf = buf[:0]
		buf = append(buf, iv.Chrom...)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(iv.Start), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(iv.End), 10)
		buf = append(buf, ' ')
		buf = append(buf, iv.Name...)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the track to path. The output is gzip-compressed when the
// path ends in ".gz".
func (t *Track) WriteFile(ctx context.Context, path string) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create track", path)
	}
	var (
		e  errors.Once
		w  = out.Writer(ctx)
		gz *gzip.Writer
	)
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(w)
		w = gz
	}
	e.Set(t.Write(w))
	if gz != nil {
		e.Set(gz.Close())
	}
	e.Set(out.Close(ctx))
	if err := e.Err(); err != nil {
		return errors.E(err, "write track", path)
	}
	log.Printf("interval: wrote %d intervals (%d bases) to %s", t.Len(), t.Bases(), path)
	return nil
}

// getTokens splits curLine at runs of characters <= ' ', filling up to
// len(tokens) entries. It returns the number of tokens found.
func getTokens(tokens []string, curLine string) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// ReadTrack parses rows written by Track.Write. Any whitespace separates
// columns, so tab-separated BED4 is accepted too. Blank lines are skipped.
func ReadTrack(r io.Reader) ([]Interval, error) {
	var (
		ivs    []Interval
		tokens [4]string
		sc     = bufio.NewScanner(r)
		lineno int
	)
	for sc.Scan() {
		lineno++
		n := getTokens(tokens[:], sc.Text())
		if n == 0 {
			continue
		}
		if n < 4 {
			return nil, errors.E(fmt.Sprintf("track line %d: found %d columns, want 4", lineno, n))
		}
		start, err := strconv.Atoi(tokens[1])
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("track line %d", lineno))
		}
		end, err := strconv.Atoi(tokens[2])
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("track line %d", lineno))
		}
		if end < start {
			return nil, errors.E(fmt.Sprintf("track line %d: end %d precedes start %d", lineno, end, start))
		}
		ivs = append(ivs, Interval{Chrom: tokens[0], Start: start, End: end, Name: tokens[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.E(err, "read track")
	}
	return ivs, nil
}
