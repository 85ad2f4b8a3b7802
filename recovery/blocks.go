package recovery

import (
	"github.com/samifriedrich/seq-recovery/encoding/psl"
	"github.com/samifriedrich/seq-recovery/orthology"
)

// AlignmentSource yields the alignments kept for a transcript. *psl.Store
// implements it.
type AlignmentSource interface {
	Lookup(query string) []*psl.Record
}

// Blocks is the flattened target-side block list of every alignment of one
// side of a gene. Sizes, Starts and Ends are parallel.
type Blocks struct {
	// Chroms holds the target of each contributing alignment, in order.
	Chroms []string
	Sizes  []int
	Starts []int
	Ends   []int
}

// Len returns the number of blocks.
func (b *Blocks) Len() int { return len(b.Sizes) }

// Chrom returns the chromosome used for the block set: the target of the
// first alignment.
func (b *Blocks) Chrom() string {
	if len(b.Chroms) == 0 {
		return ""
	}
	return b.Chroms[0]
}

// Incongruent reports whether the contributing alignments disagree on the
// chromosome.
func (b *Blocks) Incongruent() bool {
	if len(b.Chroms) < 2 {
		return false
	}
	for _, c := range b.Chroms[1:] {
		if c != b.Chroms[0] {
			return true
		}
	}
	return false
}

// Extract concatenates the blocks of every alignment of the gene's
// transcripts on the given side, in transcript order and then alignment
// order. A transcript without alignments yields *MissingAlignmentError.
func Extract(g *orthology.GeneOrthology, side orthology.Side, alignments AlignmentSource) (*Blocks, error) {
	b := &Blocks{}
	for _, tr := range g.Transcripts(side) {
		recs := alignments.Lookup(tr)
		if len(recs) == 0 {
			return nil, &MissingAlignmentError{Gene: g.Gene, Side: side, Transcript: tr}
		}
		for _, r := range recs {
			b.Chroms = append(b.Chroms, r.TName)
			b.Sizes = append(b.Sizes, r.BlockSizes...)
			b.Starts = append(b.Starts, r.TStarts...)
		}
	}
	b.Ends = make([]int, len(b.Starts))
	for i := range b.Starts {
		b.Ends[i] = b.Starts[i] + b.Sizes[i]
	}
	return b, nil
}

// incongruency returns a warning when the blocks span several chromosomes,
// and nil otherwise.
func incongruency(g *orthology.GeneOrthology, side orthology.Side, b *Blocks) *ChromosomeIncongruencyWarning {
	if !b.Incongruent() {
		return nil
	}
	return &ChromosomeIncongruencyWarning{
		Gene:        g.Gene,
		Side:        side,
		Transcripts: g.Transcripts(side),
		Chroms:      b.Chroms,
	}
}
