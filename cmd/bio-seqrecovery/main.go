package main

import (
	"fmt"
	"log"
	"runtime"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/samifriedrich/seq-recovery/orthology"
	"github.com/samifriedrich/seq-recovery/recovery"
	"v.io/x/lib/cmdline"
)

func newCmdRecover() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "recover",
		Short: "Write reference alignment blocks that have no comparison-species counterpart",
	}
	flags := recoverFlags{}
	cmd.Flags.StringVar(&flags.orthologyPath, "orthology", "", "Tab-separated orthology table: gene name, then gene models of both species")
	cmd.Flags.StringVar(&flags.conversionPath, "conversion", "", "Comma-separated gene model to transcript table")
	cmd.Flags.StringVar(&flags.pslPath, "psl", "", "PSL alignments of the transcripts of both species to the reference genome")
	cmd.Flags.StringVar(&flags.output, "output", "recovered_seqs.txt", "Output track path. Gzip-compressed if it ends in .gz")
	cmd.Flags.StringVar(&flags.statsPath, "stats", "", "If set, per-gene recovery stats are written to this TSV file")
	cmd.Flags.StringVar(&flags.statsDBPath, "stats-db", "", "If set, the run is also saved to this SQLite database")
	cmd.Flags.StringVar(&flags.overrides, "override", "", `Comma-separated list of gene=chrom pairs. When the two species'
alignments of the gene disagree on the chromosome, chrom is used
instead of excluding the gene. For example, "TPCN3=chr3".`)
	cmd.Flags.StringVar(&flags.refPrefix, "ref-prefix", orthology.DefaultOpts.RefModelPrefix, "Gene model prefix of the reference species")
	cmd.Flags.StringVar(&flags.cmpPrefix, "cmp-prefix", orthology.DefaultOpts.CmpModelPrefix, "Gene model prefix of the comparison species")
	cmd.Flags.IntVar(&flags.parallelism, "parallelism", recovery.DefaultOpts.Parallelism, "Number of genes compared concurrently; 0 = runtime.NumCPU()")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("recover takes no positional arguments, but got %v", argv)
		}
		if flags.parallelism <= 0 {
			flags.parallelism = runtime.NumCPU()
		}
		return runRecover(vcontext.Background(), flags)
	})
	return cmd
}

func newCmdBestHits() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "besthits",
		Short: "Write the best-scoring alignments of every query of a PSL file, without the header",
	}
	var pslPath, output string
	cmd.Flags.StringVar(&pslPath, "psl", "", "Input PSL path")
	cmd.Flags.StringVar(&output, "output", "trimmed.psl", "Output PSL path")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("besthits takes no positional arguments, but got %v", argv)
		}
		if pslPath == "" {
			return fmt.Errorf("besthits: -psl is required")
		}
		return runBestHits(vcontext.Background(), pslPath, output)
	})
	return cmd
}

func newCmdCatalog() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "catalog",
		Short: "Dump the resolved gene/transcript catalog as TSV",
	}
	var orthologyPath, conversionPath, output, refPrefix, cmpPrefix string
	cmd.Flags.StringVar(&orthologyPath, "orthology", "", "Tab-separated orthology table")
	cmd.Flags.StringVar(&conversionPath, "conversion", "", "Comma-separated gene model to transcript table")
	cmd.Flags.StringVar(&output, "output", "catalog.tsv", "Output TSV path")
	cmd.Flags.StringVar(&refPrefix, "ref-prefix", orthology.DefaultOpts.RefModelPrefix, "Gene model prefix of the reference species")
	cmd.Flags.StringVar(&cmpPrefix, "cmp-prefix", orthology.DefaultOpts.CmpModelPrefix, "Gene model prefix of the comparison species")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("catalog takes no positional arguments, but got %v", argv)
		}
		if orthologyPath == "" || conversionPath == "" {
			return fmt.Errorf("catalog: -orthology and -conversion are required")
		}
		opts := orthology.Opts{RefModelPrefix: refPrefix, CmpModelPrefix: cmpPrefix}
		return runCatalog(vcontext.Background(), orthologyPath, conversionPath, output, opts)
	})
	return cmd
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-seqrecovery",
			Short:    "Recover reference genome sequence missing from an ortholog's alignments",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdRecover(),
				newCmdBestHits(),
				newCmdCatalog(),
			},
		})
}
