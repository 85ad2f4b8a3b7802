package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/samifriedrich/seq-recovery/encoding/psl"
	"github.com/samifriedrich/seq-recovery/orthology"
	"github.com/samifriedrich/seq-recovery/recovery"
	"github.com/samifriedrich/seq-recovery/statsdb"
)

type recoverFlags struct {
	orthologyPath  string
	conversionPath string
	pslPath        string
	output         string
	statsPath      string
	statsDBPath    string
	overrides      string
	refPrefix      string
	cmpPrefix      string
	parallelism    int
}

// parseOverrides parses "gene=chrom,gene=chrom". Empty entries are ignored.
func parseOverrides(s string) (map[string]string, error) {
	m := map[string]string{}
	for _, kv := range strings.Split(s, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		i := strings.Index(kv, "=")
		if i <= 0 || i == len(kv)-1 {
			return nil, fmt.Errorf("override %q: want gene=chrom", kv)
		}
		gene, chrom := strings.TrimSpace(kv[:i]), strings.TrimSpace(kv[i+1:])
		if prev, ok := m[gene]; ok && prev != chrom {
			return nil, fmt.Errorf("gene %s overridden to both %s and %s", gene, prev, chrom)
		}
		m[gene] = chrom
	}
	return m, nil
}

func runRecover(ctx context.Context, flags recoverFlags) error {
	if flags.orthologyPath == "" || flags.conversionPath == "" || flags.pslPath == "" {
		return fmt.Errorf("recover: -orthology, -conversion and -psl are required")
	}
	overrides, err := parseOverrides(flags.overrides)
	if err != nil {
		return err
	}
	catalog, err := orthology.ReadCatalog(ctx, flags.orthologyPath, flags.conversionPath,
		orthology.Opts{RefModelPrefix: flags.refPrefix, CmpModelPrefix: flags.cmpPrefix})
	if err != nil {
		return err
	}
	var unknown []string
	for gene := range overrides {
		if catalog.Lookup(gene) == nil {
			unknown = append(unknown, gene)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		log.Printf("overrides for genes not in the catalog: %s", strings.Join(unknown, ","))
	}
	store, err := psl.Load(ctx, flags.pslPath)
	if err != nil {
		return err
	}
	result, err := recovery.Run(catalog, store, recovery.Opts{
		Overrides:   overrides,
		Parallelism: flags.parallelism,
	})
	if err != nil {
		return err
	}
	if err := result.Track.WriteFile(ctx, flags.output); err != nil {
		return err
	}
	if flags.statsPath != "" {
		if err := result.WriteStatsFile(ctx, flags.statsPath); err != nil {
			return err
		}
	}
	if flags.statsDBPath != "" {
		if err := statsdb.Save(ctx, flags.statsDBPath, result); err != nil {
			return err
		}
	}
	log.Printf("recover: wrote %d intervals (%d bases) to %s", result.Track.Len(), result.Track.Bases(), flags.output)
	return nil
}

// createAndWrite creates path and passes its writer to fn.
func createAndWrite(ctx context.Context, path string, fn func(out file.File) error) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	e := errors.Once{}
	e.Set(fn(out))
	e.Set(out.Close(ctx))
	if err := e.Err(); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}

func runBestHits(ctx context.Context, pslPath, output string) error {
	store, err := psl.Load(ctx, pslPath)
	if err != nil {
		return err
	}
	if err := createAndWrite(ctx, output, func(out file.File) error {
		return store.Write(out.Writer(ctx))
	}); err != nil {
		return err
	}
	log.Printf("besthits: wrote %d of %d alignments to %s", store.Len(), store.NumInput(), output)
	return nil
}

func runCatalog(ctx context.Context, orthologyPath, conversionPath, output string, opts orthology.Opts) error {
	catalog, err := orthology.ReadCatalog(ctx, orthologyPath, conversionPath, opts)
	if err != nil {
		return err
	}
	if err := createAndWrite(ctx, output, func(out file.File) error {
		return catalog.WriteTSV(out.Writer(ctx))
	}); err != nil {
		return err
	}
	log.Printf("catalog: wrote %d genes to %s", catalog.Len(), output)
	return nil
}
