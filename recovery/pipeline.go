// Package recovery finds reference-species alignment blocks that have no
// overlapping block in the comparison species' alignment of the orthologous
// gene, and collects them as a track of named intervals.
package recovery

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"
	"github.com/samifriedrich/seq-recovery/interval"
	"github.com/samifriedrich/seq-recovery/orthology"
)

// Opts configures Run.
type Opts struct {
	// Overrides maps a gene name to the chromosome substituted when its
	// reference and comparison alignments disagree. See Engine.
	Overrides map[string]string
	// Parallelism is the number of genes processed concurrently. Output order
	// does not depend on it.
	Parallelism int
}

// DefaultOpts processes genes one at a time, with no overrides.
var DefaultOpts = Opts{
	Parallelism: 1,
}

// Status summarizes how a gene went through recovery.
type Status int

const (
	// Recovered genes were compared. They may still have zero recovered blocks.
	Recovered Status = iota
	// Overridden genes were compared on a substitute chromosome.
	Overridden
	// MissingAlignment genes were skipped because a transcript had no alignment.
	MissingAlignment
	// ChromosomeMismatch genes were skipped because the sides disagree on the
	// chromosome.
	ChromosomeMismatch
)

func (s Status) String() string {
	switch s {
	case Recovered:
		return "recovered"
	case Overridden:
		return "override"
	case MissingAlignment:
		return "missing_alignment"
	case ChromosomeMismatch:
		return "chromosome_mismatch"
	}
	return "unknown"
}

// GeneRecoveryStats is the per-gene summary of a run.
type GeneRecoveryStats struct {
	Gene            string
	Chrom           string
	RefBlocks       int
	CmpBlocks       int
	RecoveredBlocks int
	RecoveredBases  int
	Status          Status
}

// Event is a skipped gene or a warning raised while processing a gene. Err is
// one of *MissingAlignmentError, *ChromosomeMismatchError or
// *ChromosomeIncongruencyWarning.
type Event struct {
	Gene string
	Err  error
}

// Skipped reports whether the event excluded the gene from the track.
func (ev Event) Skipped() bool {
	switch ev.Err.(type) {
	case *ChromosomeIncongruencyWarning:
		return false
	}
	return true
}

// Kind names the event type.
func (ev Event) Kind() string {
	switch ev.Err.(type) {
	case *MissingAlignmentError:
		return "missing_alignment"
	case *ChromosomeMismatchError:
		return "chromosome_mismatch"
	case *ChromosomeIncongruencyWarning:
		return "chromosome_incongruency"
	}
	return "unknown"
}

// Result is the output of Run. Stats follows catalog order and Events is
// ordered by gene, then by the order the conditions were found.
type Result struct {
	Track  *interval.Track
	Stats  []GeneRecoveryStats
	Events []Event
}

// NumSkipped returns the number of genes excluded from the track.
func (r *Result) NumSkipped() int {
	n := 0
	for _, s := range r.Stats {
		if s.Status == MissingAlignment || s.Status == ChromosomeMismatch {
			n++
		}
	}
	return n
}

type geneResult struct {
	stats     GeneRecoveryStats
	events    []Event
	intervals []interval.Interval
}

func processGene(g *orthology.GeneOrthology, alignments AlignmentSource, engine *Engine) geneResult {
	res := geneResult{stats: GeneRecoveryStats{Gene: g.Gene}}
	var sides [2]*Blocks
	for _, side := range []orthology.Side{orthology.Ref, orthology.Cmp} {
		b, err := Extract(g, side, alignments)
		if err != nil {
			res.stats.Status = MissingAlignment
			res.events = append(res.events, Event{Gene: g.Gene, Err: err})
			return res
		}
		if w := incongruency(g, side, b); w != nil {
			res.events = append(res.events, Event{Gene: g.Gene, Err: w})
		}
		sides[side] = b
	}
	ref, cmp := sides[orthology.Ref], sides[orthology.Cmp]
	res.stats.Chrom = ref.Chrom()
	res.stats.RefBlocks = ref.Len()
	res.stats.CmpBlocks = cmp.Len()

	rec, err := engine.Recover(g.Gene, ref, cmp)
	if err != nil {
		res.stats.Status = ChromosomeMismatch
		res.events = append(res.events, Event{Gene: g.Gene, Err: err})
		return res
	}
	if rec.Overridden {
		res.stats.Status = Overridden
	}
	res.stats.Chrom = rec.Chrom
	res.stats.RecoveredBlocks = len(rec.Intervals)
	res.stats.RecoveredBases = rec.Bases
	res.intervals = rec.Intervals
	return res
}

// Run compares every gene of the catalog, in catalog order. Genes whose
// alignments are missing or disagree on the chromosome are skipped and
// reported as events; they never fail the run.
func Run(c *orthology.Catalog, alignments AlignmentSource, opts Opts) (*Result, error) {
	var (
		genes   = c.Genes()
		engine  = &Engine{Overrides: opts.Overrides}
		results = make([]geneResult, len(genes))
		par     = opts.Parallelism
	)
	if par > len(genes) {
		par = len(genes)
	}
	if par <= 1 {
		for i, g := range genes {
			results[i] = processGene(g, alignments, engine)
		}
	} else {
		// Each shard owns the genes with index = shard (mod par) and writes only
		// its own results slots.
		err := traverse.Each(par, func(shard int) error {
			for i := shard; i < len(genes); i += par {
				results[i] = processGene(genes[i], alignments, engine)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "recovery")
		}
	}

	r := &Result{Track: &interval.Track{}, Stats: make([]GeneRecoveryStats, len(genes))}
	for i, res := range results {
		for _, ev := range res.events {
			if ev.Skipped() {
				log.Error.Printf("%v; excluded from recovery", ev.Err)
			} else {
				log.Error.Printf("%v", ev.Err)
			}
		}
		if res.stats.Status == Overridden {
			log.Printf("gene %s: chromosome overridden to %s", res.stats.Gene, res.stats.Chrom)
		}
		r.Events = append(r.Events, res.events...)
		r.Stats[i] = res.stats
		r.Track.Append(res.intervals...)
	}
	log.Printf("recovery: %d genes, %d skipped, %d warnings, %d intervals, %d bases recovered",
		len(genes), r.NumSkipped(), len(r.Events)-r.NumSkipped(), r.Track.Len(), r.Track.Bases())
	return r, nil
}
