// Package psl reads and writes alignments in the 21-column PSL format
// produced by BLAT and related aligners.
//
// Only target-side block coordinates are interpreted beyond parsing; the
// remaining columns are carried through so records can be written back
// unchanged.
package psl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

const (
	// HeaderSentinel starts the first line of an optional psLayout header.
	HeaderSentinel = "psLayout"
	// HeaderLines is the number of lines in a psLayout header, including the
	// sentinel line.
	HeaderLines = 5
)

// Record is one alignment of a query sequence to a target sequence.
// BlockSizes, QStarts and TStarts have BlockCount elements each.
type Record struct {
	Score      int // "matches" column; alignments are ranked by it.
	Mismatch   int
	RepMatch   int
	NCount     int
	QGapCount  int
	QGapBases  int
	TGapCount  int
	TGapBases  int
	Strand     string
	QName      string
	QSize      int
	QStart     int
	QEnd       int
	TName      string
	TSize      int
	TStart     int
	TEnd       int
	BlockCount int
	BlockSizes []int
	QStarts    []int
	TStarts    []int
}

// TEnds returns the exclusive target end of every block.
func (r *Record) TEnds() []int {
	ends := make([]int, len(r.TStarts))
	for i := range r.TStarts {
		ends[i] = r.TStarts[i] + r.BlockSizes[i]
	}
	return ends
}

// MalformedBlockListError reports a record whose block lists disagree in
// length with each other or with the block count column.
type MalformedBlockListError struct {
	Line       int
	QName      string
	BlockCount int
	NSizes     int
	NQStarts   int
	NTStarts   int
}

func (e *MalformedBlockListError) Error() string {
	return fmt.Sprintf("psl line %d, query %s: block count %d, but found %d sizes, %d qStarts, %d tStarts",
		e.Line, e.QName, e.BlockCount, e.NSizes, e.NQStarts, e.NTStarts)
}

// row is the raw column layout. Field order must match the file.
type row struct {
	Score      int
	Mismatch   int
	RepMatch   int
	NCount     int
	QGapCount  int
	QGapBases  int
	TGapCount  int
	TGapBases  int
	Strand     string
	QName      string
	QSize      int
	QStart     int
	QEnd       int
	TName      string
	TSize      int
	TStart     int
	TEnd       int
	BlockCount int
	BlockSizes string
	QStarts    string
	TStarts    string
}

// parseList splits a comma-separated integer list. Empty tokens, such as the
// one after a trailing comma, are dropped.
func parseList(s string) ([]int, error) {
	var vals []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// Reader parses PSL records. A psLayout header, if present, is skipped.
//
// Example:
//   r := psl.NewReader(in)
//   for r.Scan() {
//     rec := r.Record()
//     ...
//   }
//   if err := r.Err(); err != nil { ... }
type Reader struct {
	r    *tsv.Reader
	line int
	rec  *Record
	err  error
}

// NewReader creates a Reader. It consumes the header block immediately when
// the input starts with HeaderSentinel.
func NewReader(in io.Reader) *Reader {
	br := bufio.NewReaderSize(in, 64<<10)
	r := &Reader{}
	if b, _ := br.Peek(len(HeaderSentinel)); string(b) == HeaderSentinel {
		log.Printf("psl: trimming %d-line %s header", HeaderLines, HeaderSentinel)
		for i := 0; i < HeaderLines; i++ {
			if _, err := br.ReadString('\n'); err != nil {
				if err != io.EOF {
					r.err = errors.Wrap(err, "psl: read header")
				}
				break
			}
			r.line++
		}
	}
	r.r = tsv.NewReader(br)
	return r
}

// Scan reads the next record. It returns false at EOF or on error.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	var raw row
	if err := r.r.Read(&raw); err != nil {
		if err != io.EOF {
			r.err = errors.Wrapf(err, "psl: line %d", r.line+1)
		}
		return false
	}
	r.line++
	rec := &Record{
		Score: raw.Score, Mismatch: raw.Mismatch, RepMatch: raw.RepMatch, NCount: raw.NCount,
		QGapCount: raw.QGapCount, QGapBases: raw.QGapBases, TGapCount: raw.TGapCount, TGapBases: raw.TGapBases,
		Strand: raw.Strand,
		QName:  raw.QName, QSize: raw.QSize, QStart: raw.QStart, QEnd: raw.QEnd,
		TName: raw.TName, TSize: raw.TSize, TStart: raw.TStart, TEnd: raw.TEnd,
		BlockCount: raw.BlockCount,
	}
	var err error
	if rec.BlockSizes, err = parseList(raw.BlockSizes); err != nil {
		r.err = errors.Wrapf(err, "psl: line %d: blockSizes", r.line)
		return false
	}
	if rec.QStarts, err = parseList(raw.QStarts); err != nil {
		r.err = errors.Wrapf(err, "psl: line %d: qStarts", r.line)
		return false
	}
	if rec.TStarts, err = parseList(raw.TStarts); err != nil {
		r.err = errors.Wrapf(err, "psl: line %d: tStarts", r.line)
		return false
	}
	if n := len(rec.BlockSizes); n != len(rec.TStarts) || n != len(rec.QStarts) || n != rec.BlockCount {
		r.err = &MalformedBlockListError{
			Line:       r.line,
			QName:      rec.QName,
			BlockCount: rec.BlockCount,
			NSizes:     len(rec.BlockSizes),
			NQStarts:   len(rec.QStarts),
			NTStarts:   len(rec.TStarts),
		}
		return false
	}
	r.rec = rec
	return true
}

// Record returns the record read by the last successful Scan. Each call to
// Scan allocates a new Record, so the result may be retained.
func (r *Reader) Record() *Record { return r.rec }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// ReadAll reads every record from in.
func ReadAll(in io.Reader) ([]*Record, error) {
	var recs []*Record
	r := NewReader(in)
	for r.Scan() {
		recs = append(recs, r.Record())
	}
	return recs, r.Err()
}

func formatList(vals []int) string {
	var b strings.Builder
	for _, v := range vals {
		b.WriteString(strconv.Itoa(v))
		b.WriteByte(',')
	}
	return b.String()
}

// Writer emits records in headerless PSL. Lists are written with a trailing
// comma, as BLAT does.
type Writer struct {
	w *tsv.Writer
}

// NewWriter creates a Writer. Flush must be called after the last Write.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: tsv.NewWriter(w)}
}

// Write appends one record.
func (w *Writer) Write(r *Record) error {
	for _, v := range []int{r.Score, r.Mismatch, r.RepMatch, r.NCount,
		r.QGapCount, r.QGapBases, r.TGapCount, r.TGapBases} {
		w.w.WriteInt64(int64(v))
	}
	w.w.WriteString(r.Strand)
	w.w.WriteString(r.QName)
	w.w.WriteInt64(int64(r.QSize))
	w.w.WriteInt64(int64(r.QStart))
	w.w.WriteInt64(int64(r.QEnd))
	w.w.WriteString(r.TName)
	w.w.WriteInt64(int64(r.TSize))
	w.w.WriteInt64(int64(r.TStart))
	w.w.WriteInt64(int64(r.TEnd))
	w.w.WriteInt64(int64(r.BlockCount))
	w.w.WriteString(formatList(r.BlockSizes))
	w.w.WriteString(formatList(r.QStarts))
	w.w.WriteString(formatList(r.TStarts))
	return w.w.EndLine()
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }
