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

// Package samplesheet reads the samples of a run from CSV samplesheets or
// from rows retrieved elsewhere, eg. a Google sheet.
package samplesheet

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/types"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrColumns         = Error("wrong number of samplesheet columns")
	ErrMissingValue    = Error("missing samplesheet value")
	ErrDuplicateSample = Error("duplicate sample name")
	ErrNoSamples       = Error("no samples in samplesheet")

	ColumnSampleName = "sample_name"
	ColumnAdaptor    = "adaptor"
	ColumnIndex      = "index"
	ColumnFastqPath  = "fastq_path"

	commentChar = '#'
)

// Columns are the samplesheet columns in the order FromRows() expects.
var Columns = []string{ColumnSampleName, ColumnAdaptor, ColumnIndex, ColumnFastqPath} //nolint:gochecknoglobals

// ParseFile parses the CSV samplesheet at the given path.
func ParseFile(path string) ([]*types.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := Parse(f)

	return samples, errors.Wrapf(err, "samplesheet %s", path)
}

// Parse reads CSV rows of sample_name,adaptor,index,fastq_path. A first row
// that matches those column names is skipped, as are lines starting with #.
func Parse(r io.Reader) ([]*types.Sample, error) {
	cr := csv.NewReader(r)
	cr.Comment = commentChar
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) > 0 && isHeader(rows[0]) {
		rows = rows[1:]
	}

	return FromRows(rows)
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), ColumnSampleName)
}

// FromRows converts rows with the values of Columns in to Samples. Blank rows
// are skipped. The kit of each sample is implied by its index, and sample
// names must be unique.
func FromRows(rows [][]string) ([]*types.Sample, error) {
	samples := make([]*types.Sample, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for i, row := range rows {
		if isBlank(row) {
			continue
		}

		s, err := rowToSample(row)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}

		if seen[s.Name] {
			return nil, errors.Wrapf(ErrDuplicateSample, "%s", s.Name)
		}

		seen[s.Name] = true
		samples = append(samples, s)
	}

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	return samples, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

func rowToSample(row []string) (*types.Sample, error) {
	if len(row) != len(Columns) {
		return nil, errors.Wrapf(ErrColumns, "%d", len(row))
	}

	c := &converter{}

	s := &types.Sample{
		Name:     c.Required(row[0], ColumnSampleName),
		Adaptor:  c.Required(row[1], ColumnAdaptor),
		ReadPath: c.Required(row[3], ColumnFastqPath),
	}

	s.Kit, s.Index1, s.Index2 = c.ToBarcode(c.Required(row[2], ColumnIndex))

	return s, c.Err
}
