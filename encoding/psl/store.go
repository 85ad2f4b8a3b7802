package psl

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Store indexes the best-scoring alignments of every query. Read-only after
// construction.
type Store struct {
	queries []string // in order of first appearance
	hits    map[string][]*Record
	nInput  int
	nKept   int
}

// NewStore keeps, for each query name, every record whose score equals the
// maximum score among that query's records. Ties are all kept, in input
// order.
func NewStore(recs []*Record) *Store {
	s := &Store{hits: map[string][]*Record{}, nInput: len(recs)}
	best := map[string]int{}
	for _, r := range recs {
		top, ok := best[r.QName]
		if !ok {
			s.queries = append(s.queries, r.QName)
		}
		if !ok || r.Score > top {
			best[r.QName] = r.Score
		}
	}
	for _, r := range recs {
		if r.Score == best[r.QName] {
			s.hits[r.QName] = append(s.hits[r.QName], r)
			s.nKept++
		}
	}
	return s
}

// Lookup returns the best-scoring records for the query, or nil if the query
// has no alignment.
func (s *Store) Lookup(query string) []*Record { return s.hits[query] }

// Queries lists the query names in order of first appearance.
func (s *Store) Queries() []string { return s.queries }

// Len returns the number of retained records.
func (s *Store) Len() int { return s.nKept }

// NumInput returns the number of records before filtering.
func (s *Store) NumInput() int { return s.nInput }

// Write emits the retained records, grouped by query in order of first
// appearance.
func (s *Store) Write(w io.Writer) error {
	pw := NewWriter(w)
	for _, q := range s.queries {
		for _, r := range s.hits[q] {
			if err := pw.Write(r); err != nil {
				return err
			}
		}
	}
	return pw.Flush()
}

// Load reads a PSL file and returns its best-hit store. Compressed files are
// decompressed based on their extension.
func Load(ctx context.Context, path string) (s *Store, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = errors.Wrapf(e, "close %s", path)
		}
	}()
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	recs, err := ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	s = NewStore(recs)
	log.Printf("psl: read %d alignments of %d queries from %s, kept %d best-scoring",
		s.NumInput(), len(s.queries), path, s.Len())
	return s, nil
}
