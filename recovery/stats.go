package recovery

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// WriteStats writes one TSV row per gene, with a header line.
func WriteStats(w io.Writer, stats []GeneRecoveryStats) error {
	out := tsv.NewWriter(w)
	out.WriteString("gene\tchrom\tref_blocks\tcmp_blocks\trecovered_blocks\trecovered_bases\tstatus")
	if err := out.EndLine(); err != nil {
		return err
	}
	for _, s := range stats {
		out.WriteString(s.Gene)
		out.WriteString(s.Chrom)
		out.WriteInt64(int64(s.RefBlocks))
		out.WriteInt64(int64(s.CmpBlocks))
		out.WriteInt64(int64(s.RecoveredBlocks))
		out.WriteInt64(int64(s.RecoveredBases))
		out.WriteString(s.Status.String())
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// WriteStatsFile writes the per-gene stats of r to path.
func (r *Result) WriteStatsFile(ctx context.Context, path string) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create stats", path)
	}
	e := errors.Once{}
	e.Set(WriteStats(out.Writer(ctx), r.Stats))
	e.Set(out.Close(ctx))
	if err := e.Err(); err != nil {
		return errors.E(err, "write stats", path)
	}
	log.Printf("recovery: wrote stats for %d genes to %s", len(r.Stats), path)
	return nil
}
