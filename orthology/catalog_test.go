package orthology

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
)

const testConversion = `ENSGALG001, ENSGALT001
ENSGALG002,ENSGALT002
ENSTGUG001,ENSTGUT001
ENSTGUG002 , ENSTGUT002

ENSTGUG003,ENSTGUT003
ENSTGUG003,ENSTGUT003b
`

const testOrthology = `"TPCN3"	"ENSTGUG001"	"ENSGALG001"
"MYH7"	"ENSTGUG002;ENSTGUG003"	"ENSGALG002"
"NOFINCH"	""	"ENSGALG002"
"NOCHICK"	"ENSTGUG002"	""
`

func TestParseConversionTable(t *testing.T) {
	conv, err := ParseConversionTable(strings.NewReader(testConversion))
	assert.NoError(t, err)
	expect.EQ(t, len(conv), 5)
	expect.EQ(t, conv["ENSGALG001"], "ENSGALT001")
	expect.EQ(t, conv["ENSTGUG002"], "ENSTGUT002")
	// Last write wins.
	expect.EQ(t, conv["ENSTGUG003"], "ENSTGUT003b")
}

func TestParseConversionTableMalformed(t *testing.T) {
	_, err := ParseConversionTable(strings.NewReader("ENSGALG001,ENSGALT001\nENSGALG002\n"))
	assert.NotNil(t, err)
	assert.HasSubstr(t, err.Error(), "line 2")
}

func TestBuildCatalog(t *testing.T) {
	conv, err := ParseConversionTable(strings.NewReader(testConversion))
	assert.NoError(t, err)
	c, err := BuildCatalog(strings.NewReader(testOrthology), conv, DefaultOpts)
	assert.NoError(t, err)
	assert.EQ(t, c.Len(), 2)

	genes := c.Genes()
	expect.EQ(t, genes[0].Gene, "TPCN3")
	expect.EQ(t, genes[1].Gene, "MYH7")

	g := c.Lookup("MYH7")
	assert.NotNil(t, g)
	expect.EQ(t, g.CmpModels, []string{"ENSTGUG002", "ENSTGUG003"})
	expect.EQ(t, g.Transcripts(Cmp), []string{"ENSTGUT002", "ENSTGUT003b"})
	expect.EQ(t, g.Models(Ref), []string{"ENSGALG002"})
	expect.EQ(t, g.Transcripts(Ref), []string{"ENSGALT002"})
	expect.Nil(t, c.Lookup("NOFINCH"))
	expect.Nil(t, c.Lookup("NOCHICK"))
}

func TestBuildCatalogDuplicateGene(t *testing.T) {
	conv := map[string]string{
		"ENSGALG1": "ENSGALT1", "ENSGALG2": "ENSGALT2",
		"ENSTGUG1": "ENSTGUT1", "ENSTGUG2": "ENSTGUT2",
	}
	table := "A\tENSTGUG1\tENSGALG1\nB\tENSTGUG2\tENSGALG2\nA\tENSTGUG2\tENSGALG2\n"
	c, err := BuildCatalog(strings.NewReader(table), conv, DefaultOpts)
	assert.NoError(t, err)
	assert.EQ(t, c.Len(), 2)
	expect.EQ(t, c.Genes()[0].Gene, "A")
	expect.EQ(t, c.Genes()[0].RefTranscripts, []string{"ENSGALT2"})
	expect.EQ(t, c.Genes()[1].Gene, "B")
}

func TestBuildCatalogUnresolved(t *testing.T) {
	conv := map[string]string{"ENSGALG1": "ENSGALT1"}
	_, err := BuildCatalog(strings.NewReader("A\tENSTGUG9\tENSGALG1\n"), conv, DefaultOpts)
	assert.NotNil(t, err)
	e, ok := errors.Cause(err).(*UnresolvedModelError)
	assert.True(t, ok)
	expect.EQ(t, e.Gene, "A")
	expect.EQ(t, e.Model, "ENSTGUG9")
}

func TestBuildCatalogCustomPrefixes(t *testing.T) {
	conv := map[string]string{"REF1": "REFT1", "CMP1": "CMPT1"}
	c, err := BuildCatalog(strings.NewReader("G\tCMP1 REF1\n"), conv, Opts{RefModelPrefix: "REF", CmpModelPrefix: "CMP"})
	assert.NoError(t, err)
	assert.EQ(t, c.Len(), 1)
	expect.EQ(t, c.Lookup("G").Transcripts(Ref), []string{"REFT1"})

	_, err = BuildCatalog(strings.NewReader(""), conv, Opts{RefModelPrefix: "REF"})
	expect.NotNil(t, err)
}

func TestReadCatalogAndWriteTSV(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	convPath := filepath.Join(tempDir, "gene_to_transcript.txt")
	orthPath := filepath.Join(tempDir, "ENS_key.txt")
	assert.NoError(t, ioutil.WriteFile(convPath, []byte(testConversion), 0644))
	assert.NoError(t, ioutil.WriteFile(orthPath, []byte(testOrthology), 0644))

	c, err := ReadCatalog(context.Background(), orthPath, convPath, DefaultOpts)
	assert.NoError(t, err)
	assert.EQ(t, c.Len(), 2)

	var buf bytes.Buffer
	assert.NoError(t, c.WriteTSV(&buf))
	expect.EQ(t, buf.String(), "gene\tref_models\tcmp_models\tref_transcripts\tcmp_transcripts\n"+
		"TPCN3\tENSGALG001\tENSTGUG001\tENSGALT001\tENSTGUT001\n"+
		"MYH7\tENSGALG002\tENSTGUG002,ENSTGUG003\tENSGALT002\tENSTGUT002,ENSTGUT003b\n")

	_, err = ReadCatalog(context.Background(), orthPath, filepath.Join(tempDir, "missing.txt"), DefaultOpts)
	expect.NotNil(t, err)
}

func TestSideString(t *testing.T) {
	expect.EQ(t, Ref.String(), "ref")
	expect.EQ(t, Cmp.String(), "cmp")
}
