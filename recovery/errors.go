package recovery

import (
	"fmt"
	"strings"

	"github.com/samifriedrich/seq-recovery/orthology"
)

// MissingAlignmentError reports a transcript of the gene that has no
// alignment. The gene is excluded from recovery.
type MissingAlignmentError struct {
	Gene       string
	Side       orthology.Side
	Transcript string
}

func (e *MissingAlignmentError) Error() string {
	return fmt.Sprintf("gene %s: %s transcript %s has no alignment", e.Gene, e.Side, e.Transcript)
}

// ChromosomeMismatchError reports a gene whose reference and comparison
// alignments land on different chromosomes. The gene is excluded unless it has
// an override.
type ChromosomeMismatchError struct {
	Gene     string
	RefChrom string
	CmpChrom string
}

func (e *ChromosomeMismatchError) Error() string {
	return fmt.Sprintf("gene %s: chromosomes disagree between species, ref %s, cmp %s", e.Gene, e.RefChrom, e.CmpChrom)
}

// ChromosomeIncongruencyWarning reports that the alignments of one side of a
// gene do not all share a chromosome. Chroms lists the target of every
// contributing alignment, in block order; the first one is used.
type ChromosomeIncongruencyWarning struct {
	Gene        string
	Side        orthology.Side
	Transcripts []string
	Chroms      []string
}

func (e *ChromosomeIncongruencyWarning) Error() string {
	return fmt.Sprintf("gene %s: %s transcripts [%s] align to several chromosomes [%s], using %s",
		e.Gene, e.Side, strings.Join(e.Transcripts, ","), strings.Join(e.Chroms, ","), e.Chroms[0])
}
