/*
bio-seqrecovery finds the parts of a reference genome (taeGut1) that are
covered by the reference species' transcripts but by none of the comparison
species' orthologous transcripts, and writes them as a track.

The inputs are an orthology table (gene name followed by the Ensembl gene
models of both species), a gene-model to transcript conversion table, and a
PSL file aligning transcripts of both species to the reference genome. Only
the best-scoring alignments of each transcript are used.

Sample usage:

	bio-seqrecovery recover \
	    -orthology orthologs.tsv \
	    -conversion gene_to_transcript.csv \
	    -psl transcripts_vs_taeGut1.psl.gz \
	    -override TPCN3=chr3 \
	    -stats recovery_stats.tsv \
	    -output recovered_seqs.txt

The "besthits" command writes the filtered alignments, and "catalog" dumps the
resolved gene/transcript catalog.
*/
package main
