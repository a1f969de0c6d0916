/*******************************************************************************
 * Copyright (c) 2026 Genome Research Ltd.
 *
 * Authors:
 *	- Sendu Bala <sb10@sanger.ac.uk>
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

// Package statsdb stores the per-sample statistics of runs in a MySQL
// database.
package statsdb

import (
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/stats"
)

const (
	sqlDriverName   = "mysql"
	connMaxLifetime = time.Minute * 3
	maxOpenConns    = 10
	maxIdleConns    = 10

	// AmbiguousName and UnmatchedName are the sample names used for the rows
	// of reads that weren't assigned.
	AmbiguousName = "ambiguous"
	UnmatchedName = "unmatched"
)

// DB is a connection to the statistics database.
type DB struct {
	pool *sql.DB
}

// New returns a new DB connection using a mysql.Config that you can get from
// config.FromEnv().MySQLConfig(). The anglerfish_stats table is created if it
// doesn't already exist.
func New(c *mysql.Config) (*DB, error) {
	pool, err := sql.Open(sqlDriverName, c.FormatDSN())
	if err != nil {
		return nil, err
	}

	pool.SetConnMaxLifetime(connMaxLifetime)
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxIdleConns)

	if err = pool.Ping(); err != nil {
		return nil, err
	}

	if _, err = pool.Exec(createTable); err != nil {
		return nil, errors.Wrap(err, "creating table")
	}

	return &DB{pool: pool}, nil
}

const createTable = `
CREATE TABLE IF NOT EXISTS anglerfish_stats (
  id INT AUTO_INCREMENT PRIMARY KEY,
  run_id VARCHAR(255) NOT NULL,
  group_name VARCHAR(255) NOT NULL,
  sample_name VARCHAR(255) NOT NULL,
  barcode VARCHAR(255) NOT NULL,
  num_reads INT NOT NULL,
  mean_distance DOUBLE NOT NULL,
  max_distance INT NOT NULL,
  ambiguous_with INT NOT NULL,
  created DATETIME NOT NULL,
  INDEX (run_id)
)
`

// Row is one stored sample's statistics.
type Row struct {
	RunID         string
	Group         string
	SampleName    string
	Barcode       string
	Reads         int
	MeanDistance  float64
	MaxDistance   int
	AmbiguousWith int
}

// Rows converts the statistics of a group in a run to database rows: one per
// sample, then one each for ambiguous and unmatched reads.
func Rows(runID, group string, r stats.RunStatistics) []Row {
	rows := make([]Row, 0, len(r.Samples)+2) //nolint:mnd

	for _, s := range r.Samples {
		rows = append(rows, Row{
			RunID:         runID,
			Group:         group,
			SampleName:    s.Name,
			Barcode:       s.Barcode,
			Reads:         s.Reads,
			MeanDistance:  s.Distances.Mean(),
			MaxDistance:   s.Distances.Max(),
			AmbiguousWith: s.AmbiguousWith,
		})
	}

	rows = append(rows, outcomeRow(runID, group, AmbiguousName, r.Ambiguous),
		outcomeRow(runID, group, UnmatchedName, r.Unmatched))

	return rows
}

func outcomeRow(runID, group, name string, o stats.OutcomeStats) Row {
	return Row{
		RunID:        runID,
		Group:        group,
		SampleName:   name,
		Reads:        o.Reads,
		MeanDistance: o.Distances.Mean(),
		MaxDistance:  o.Distances.Max(),
	}
}

const insertRow = `
INSERT INTO anglerfish_stats (run_id, group_name, sample_name, barcode, num_reads,
mean_distance, max_distance, ambiguous_with, created)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Store inserts the Rows() of the given statistics in a single transaction.
func (d *DB) Store(runID, group string, r stats.RunStatistics) error {
	tx, err := d.pool.Begin()
	if err != nil {
		return err
	}

	now := time.Now()

	for _, row := range Rows(runID, group, r) {
		if _, err = tx.Exec(insertRow, row.RunID, row.Group, row.SampleName, row.Barcode,
			row.Reads, row.MeanDistance, row.MaxDistance, row.AmbiguousWith, now); err != nil {
			tx.Rollback() //nolint:errcheck

			return errors.Wrapf(err, "storing %s", row.SampleName)
		}
	}

	return tx.Commit()
}

const getRows = `
SELECT run_id, group_name, sample_name, barcode, num_reads, mean_distance,
max_distance, ambiguous_with
FROM anglerfish_stats
WHERE run_id = ?
ORDER BY id
`

// RowsForRun returns all stored rows for the given run.
func (d *DB) RowsForRun(runID string) ([]Row, error) {
	rows, err := d.pool.Query(getRows, runID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []Row

	for rows.Next() {
		var row Row

		if err := rows.Scan(
			&row.RunID,
			&row.Group,
			&row.SampleName,
			&row.Barcode,
			&row.Reads,
			&row.MeanDistance,
			&row.MaxDistance,
			&row.AmbiguousWith,
		); err != nil {
			return nil, err
		}

		out = append(out, row)
	}

	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Close closes the connection to the database.
func (d *DB) Close() error {
	return d.pool.Close()
}
