// Package orthology builds the gene catalog that links a gene name to the
// gene models and transcripts annotated for it in a reference species and a
// comparison species.
package orthology

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// Side selects one species' half of an ortholog pair.
type Side int

const (
	// Ref is the reference species (chicken in the default configuration).
	// Its blocks are the candidates for recovery.
	Ref Side = iota
	// Cmp is the comparison species (zebra finch). Its blocks exclude
	// overlapping reference blocks.
	Cmp
)

func (s Side) String() string {
	switch s {
	case Ref:
		return "ref"
	case Cmp:
		return "cmp"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Opts controls how gene-model tokens are recognized in the orthology table.
type Opts struct {
	// RefModelPrefix starts every reference-species gene-model identifier.
	RefModelPrefix string
	// CmpModelPrefix starts every comparison-species gene-model identifier.
	// The two prefixes must not match each other's tokens.
	CmpModelPrefix string
}

// DefaultOpts matches Ensembl chicken (ENSGALG) and zebra finch (ENSTGUG)
// gene identifiers.
var DefaultOpts = Opts{
	RefModelPrefix: "ENSGALG",
	CmpModelPrefix: "ENSTGUG",
}

// GeneOrthology is one catalog entry. Model and transcript lists are
// parallel: Transcripts(s)[i] is the transcript of Models(s)[i].
type GeneOrthology struct {
	Gene           string
	RefModels      []string
	CmpModels      []string
	RefTranscripts []string
	CmpTranscripts []string
}

// Models returns the gene-model identifiers for the given side.
func (g *GeneOrthology) Models(s Side) []string {
	if s == Ref {
		return g.RefModels
	}
	return g.CmpModels
}

// Transcripts returns the transcript identifiers for the given side.
func (g *GeneOrthology) Transcripts(s Side) []string {
	if s == Ref {
		return g.RefTranscripts
	}
	return g.CmpTranscripts
}

// UnresolvedModelError reports a gene-model identifier that is absent from
// the model->transcript conversion table.
type UnresolvedModelError struct {
	Gene  string
	Model string
}

func (e *UnresolvedModelError) Error() string {
	return fmt.Sprintf("gene %s: model %s has no transcript in the conversion table", e.Gene, e.Model)
}

// Catalog maps gene names to their GeneOrthology. Genes are kept in the order
// they first appear in the orthology table. Immutable once built.
type Catalog struct {
	genes  []*GeneOrthology
	byName map[string]*GeneOrthology
}

// Len returns the number of genes in the catalog.
func (c *Catalog) Len() int { return len(c.genes) }

// Genes returns the catalog entries in iteration order. The caller must not
// modify the returned slice.
func (c *Catalog) Genes() []*GeneOrthology { return c.genes }

// Lookup finds the entry for the gene. It returns nil if the gene is not
// registered.
func (c *Catalog) Lookup(gene string) *GeneOrthology { return c.byName[gene] }

// ParseConversionTable reads "model_id,transcript_id" lines. All whitespace
// is removed before splitting, blank lines are ignored, and a later line for
// the same model overwrites an earlier one.
func ParseConversionTable(r io.Reader) (map[string]string, error) {
	conv := map[string]string{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 16<<20)
	nLine := 0
	for sc.Scan() {
		nLine++
		line := strings.Join(strings.Fields(sc.Text()), "")
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return nil, errors.Errorf("conversion table line %d: expect 'model,transcript', but found %q", nLine, line)
		}
		conv[parts[0]] = parts[1]
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read conversion table")
	}
	return conv, nil
}

func tokenRE(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(prefix) + `\w*`)
}

// BuildCatalog reads the tab-separated orthology table and resolves every
// gene model to its transcript through conv. Quotation marks are stripped,
// the gene name is the first field, and gene models are found by prefix
// anywhere in the line. Lines without at least one model of each species are
// skipped. A model missing from conv yields *UnresolvedModelError.
func BuildCatalog(r io.Reader, conv map[string]string, opts Opts) (*Catalog, error) {
	if opts.RefModelPrefix == "" || opts.CmpModelPrefix == "" {
		return nil, errors.Errorf("orthology: empty model prefix in %+v", opts)
	}
	var (
		refRE   = tokenRE(opts.RefModelPrefix)
		cmpRE   = tokenRE(opts.CmpModelPrefix)
		c       = &Catalog{byName: map[string]*GeneOrthology{}}
		nSkip   int
		resolve = func(gene string, models []string) ([]string, error) {
			transcripts := make([]string, len(models))
			for i, m := range models {
				t, ok := conv[m]
				if !ok {
					return nil, &UnresolvedModelError{Gene: gene, Model: m}
				}
				transcripts[i] = t
			}
			return transcripts, nil
		}
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 16<<20)
	for sc.Scan() {
		line := strings.TrimRight(strings.Replace(sc.Text(), `"`, "", -1), "\r")
		refModels := refRE.FindAllString(line, -1)
		cmpModels := cmpRE.FindAllString(line, -1)
		if len(refModels) < 1 || len(cmpModels) < 1 {
			nSkip++
			continue
		}
		g := &GeneOrthology{
			Gene:      strings.Split(line, "\t")[0],
			RefModels: refModels,
			CmpModels: cmpModels,
		}
		var err error
		if g.CmpTranscripts, err = resolve(g.Gene, cmpModels); err != nil {
			return nil, err
		}
		if g.RefTranscripts, err = resolve(g.Gene, refModels); err != nil {
			return nil, err
		}
		if old, ok := c.byName[g.Gene]; ok {
			// A repeated gene keeps its original position.
			*old = *g
			continue
		}
		c.byName[g.Gene] = g
		c.genes = append(c.genes, g)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read orthology table")
	}
	log.Printf("orthology: %d genes cataloged, %d lines without models in both species", len(c.genes), nSkip)
	return c, nil
}

func openInput(ctx context.Context, path string) (file.File, io.Reader, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	return in, r, nil
}

// ReadConversionTable is ParseConversionTable over a file. Compressed files
// are decompressed based on their extension.
func ReadConversionTable(ctx context.Context, path string) (conv map[string]string, err error) {
	in, r, err := openInput(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = errors.Wrapf(e, "close %s", path)
		}
	}()
	if conv, err = ParseConversionTable(r); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return conv, nil
}

// ReadCatalog loads the conversion table and then builds the catalog from
// the orthology table.
func ReadCatalog(ctx context.Context, orthologyPath, conversionPath string, opts Opts) (c *Catalog, err error) {
	conv, err := ReadConversionTable(ctx, conversionPath)
	if err != nil {
		return nil, err
	}
	log.Printf("orthology: %d model->transcript entries in %s", len(conv), conversionPath)
	in, r, err := openInput(ctx, orthologyPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = errors.Wrapf(e, "close %s", orthologyPath)
		}
	}()
	if c, err = BuildCatalog(r, conv, opts); err != nil {
		return nil, errors.Wrap(err, orthologyPath)
	}
	return c, nil
}

// WriteTSV dumps the catalog, one gene per row, in iteration order. List
// columns are comma-separated.
func (c *Catalog) WriteTSV(w io.Writer) error {
	out := tsv.NewWriter(w)
	out.WriteString("gene\tref_models\tcmp_models\tref_transcripts\tcmp_transcripts")
	if err := out.EndLine(); err != nil {
		return err
	}
	for _, g := range c.genes {
		out.WriteString(g.Gene)
		out.WriteString(strings.Join(g.RefModels, ","))
		out.WriteString(strings.Join(g.CmpModels, ","))
		out.WriteString(strings.Join(g.RefTranscripts, ","))
		out.WriteString(strings.Join(g.CmpTranscripts, ","))
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}
