// Package statsdb saves the outcome of a recovery run to a SQLite database so
// that per-gene results can be queried after the run.
package statsdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
	"github.com/samifriedrich/seq-recovery/recovery"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS genes (
		gene TEXT PRIMARY KEY,
		ord INTEGER NOT NULL,
		chrom TEXT NOT NULL,
		ref_blocks INTEGER NOT NULL,
		cmp_blocks INTEGER NOT NULL,
		recovered_blocks INTEGER NOT NULL,
		recovered_bases INTEGER NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS intervals (
		ord INTEGER PRIMARY KEY,
		chrom TEXT NOT NULL,
		chrom_start INTEGER NOT NULL,
		chrom_end INTEGER NOT NULL,
		gene TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		ord INTEGER PRIMARY KEY,
		gene TEXT NOT NULL,
		kind TEXT NOT NULL,
		skipped INTEGER NOT NULL,
		message TEXT NOT NULL
	)`,
}

// Open opens (creating if needed) the database at path and ensures the
// tables exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrapf(err, "statsdb: mkdir for %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "statsdb: open %s", path)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "statsdb: create tables")
		}
	}
	return db, nil
}

// Save replaces the contents of the database at path with r. Rows are
// numbered by their position in r, so reading them back by "ord" restores
// the run order.
func Save(ctx context.Context, path string, r *recovery.Result) (err error) {
	db, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "statsdb: close")
		}
	}()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "statsdb: begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, table := range []string{"genes", "intervals", "events"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "statsdb: clear %s", table)
		}
	}
	for i, s := range r.Stats {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO genes(gene,ord,chrom,ref_blocks,cmp_blocks,recovered_blocks,recovered_bases,status)
			VALUES(?,?,?,?,?,?,?,?)
			ON CONFLICT(gene) DO UPDATE SET ord=excluded.ord, chrom=excluded.chrom,
				ref_blocks=excluded.ref_blocks, cmp_blocks=excluded.cmp_blocks,
				recovered_blocks=excluded.recovered_blocks, recovered_bases=excluded.recovered_bases,
				status=excluded.status`,
			s.Gene, i, s.Chrom, s.RefBlocks, s.CmpBlocks, s.RecoveredBlocks, s.RecoveredBases, s.Status.String()); err != nil {
			return errors.Wrapf(err, "statsdb: insert gene %s", s.Gene)
		}
	}
	for i, iv := range r.Track.Intervals() {
		if _, err = tx.ExecContext(ctx, `INSERT INTO intervals(ord,chrom,chrom_start,chrom_end,gene) VALUES(?,?,?,?,?)`,
			i, iv.Chrom, iv.Start, iv.End, iv.Name); err != nil {
			return errors.Wrapf(err, "statsdb: insert interval %d", i)
		}
	}
	for i, ev := range r.Events {
		if _, err = tx.ExecContext(ctx, `INSERT INTO events(ord,gene,kind,skipped,message) VALUES(?,?,?,?,?)`,
			i, ev.Gene, ev.Kind(), ev.Skipped(), ev.Err.Error()); err != nil {
			return errors.Wrapf(err, "statsdb: insert event %d", i)
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "statsdb: commit")
	}
	log.Printf("statsdb: saved %d genes, %d intervals, %d events to %s",
		len(r.Stats), r.Track.Len(), len(r.Events), path)
	return nil
}

// GeneRow is a row of the genes table.
type GeneRow struct {
	Gene            string
	Chrom           string
	RefBlocks       int
	CmpBlocks       int
	RecoveredBlocks int
	RecoveredBases  int
	Status          string
}

// Genes reads back the genes table in run order.
func Genes(ctx context.Context, db *sql.DB) ([]GeneRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT gene,chrom,ref_blocks,cmp_blocks,recovered_blocks,recovered_bases,status FROM genes ORDER BY ord`)
	if err != nil {
		return nil, errors.Wrap(err, "statsdb: select genes")
	}
	defer func() { _ = rows.Close() }()
	var out []GeneRow
	for rows.Next() {
		var g GeneRow
		if err := rows.Scan(&g.Gene, &g.Chrom, &g.RefBlocks, &g.CmpBlocks, &g.RecoveredBlocks, &g.RecoveredBases, &g.Status); err != nil {
			return nil, errors.Wrap(err, "statsdb: scan gene")
		}
		out = append(out, g)
	}
	return out, errors.Wrap(rows.Err(), "statsdb: genes")
}

// RecoveredBases returns the total length of the saved intervals per
// chromosome.
func RecoveredBases(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `SELECT chrom, SUM(chrom_end - chrom_start) FROM intervals GROUP BY chrom`)
	if err != nil {
		return nil, errors.Wrap(err, "statsdb: select intervals")
	}
	defer func() { _ = rows.Close() }()
	out := map[string]int{}
	for rows.Next() {
		var (
			chrom string
			n     int
		)
		if err := rows.Scan(&chrom, &n); err != nil {
			return nil, errors.Wrap(err, "statsdb: scan interval sum")
		}
		out[chrom] = n
	}
	return out, errors.Wrap(rows.Err(), "statsdb: intervals")
}
