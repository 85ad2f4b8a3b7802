package recovery

import (
	"github.com/grailbio/base/log"
	"github.com/samifriedrich/seq-recovery/interval"
)

// Engine decides which reference blocks of a gene have no counterpart in the
// comparison alignment.
type Engine struct {
	// Overrides maps a gene name to the chromosome to use when the two sides of
	// that gene disagree. Genes not listed are excluded on disagreement.
	Overrides map[string]string
}

// Recovery is the outcome of Engine.Recover for one gene.
type Recovery struct {
	// Chrom is the chromosome written to the track.
	Chrom string
	// Overridden is set when Chrom came from Engine.Overrides.
	Overridden bool
	// Intervals holds one row per recoverable reference block, in block order.
	Intervals []interval.Interval
	// Bases is the summed size of the recoverable blocks.
	Bases int
}

// closedOverlap checks whether [aStart, aEnd] and [bStart, bEnd] share a
// position. Both ends are inclusive, so touching blocks overlap.
func closedOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// recoverable checks the closed reference block [start, start+size] against
// every comparison block and stops at the first intersection.
func recoverable(start, size int, cmp *Blocks) bool {
	end := start + size
	for j := range cmp.Starts {
		if closedOverlap(start, end, cmp.Starts[j], cmp.Starts[j]+cmp.Sizes[j]) {
			return false
		}
	}
	return true
}

// Recover emits every reference block that intersects no comparison block.
// Overlap is tested on closed intervals, while emitted intervals are
// half-open. A reference block touching a comparison block at a single
// position is therefore not recovered, and any intersection excludes the
// whole block. With no comparison blocks every reference block is recovered.
//
// If ref and cmp name different chromosomes, Recover returns
// *ChromosomeMismatchError unless the gene has an override.
func (e *Engine) Recover(gene string, ref, cmp *Blocks) (Recovery, error) {
	rec := Recovery{Chrom: ref.Chrom()}
	if ref.Chrom() != cmp.Chrom() {
		sub, ok := e.Overrides[gene]
		if !ok {
			return Recovery{}, &ChromosomeMismatchError{Gene: gene, RefChrom: ref.Chrom(), CmpChrom: cmp.Chrom()}
		}
		rec.Chrom, rec.Overridden = sub, true
	}
	for i := range ref.Starts {
		start, size := ref.Starts[i], ref.Sizes[i]
		if !recoverable(start, size, cmp) {
			continue
		}
		if log.At(log.Debug) {
			log.Debug.Printf("recover %s block %d: %s:%d-%d", gene, i, rec.Chrom, start, start+size)
		}
		rec.Intervals = append(rec.Intervals, interval.Interval{
			Chrom: rec.Chrom,
			Start: start,
			End:   start + size,
			Name:  gene,
		})
		rec.Bases += size
	}
	return rec, nil
}
