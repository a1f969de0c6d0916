/*******************************************************************************
 * Copyright (c) 2025 Genome Research Ltd.
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

package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/config"
	"github.com/wtsi-hgi/anglerfish/samplesheet"
	"github.com/wtsi-hgi/anglerfish/types"
	"google.golang.org/api/option"
	googleSheets "google.golang.org/api/sheets/v4"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrEmptySheet    = Error("sheet is empty")
	ErrMissingColumn = Error("column not found")
)

// Sheets allows the retrieval of samplesheets from Google docs.
type Sheets struct {
	srv *googleSheets.Service
}

// New returns a Sheets that you can Read() sheets from Google docs with.
func New(sc *ServiceCredentials) (*Sheets, error) {
	ctx := context.Background()
	client := sc.toJWTConfig().Client(ctx)

	srv, err := googleSheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}

	return &Sheets{srv: srv}, nil
}

// NewFromConfig returns a Sheets authenticated with the service account key
// file in the given config.
func NewFromConfig(c *config.Config) (*Sheets, error) {
	sc, err := ServiceCredentialsFromConfig(c)
	if err != nil {
		return nil, err
	}

	return New(sc)
}

// Sheet contains the retrieved cells in a Google sheet.
type Sheet struct {
	ColumnHeaders []string
	Rows          [][]string
}

// Read retrieves the contents of a given document and sheet within that
// document. The id of a Google sheet is the long string of characters in the
// URL when viewing that document.
func (s *Sheets) Read(docID, sheetName string) (*Sheet, error) {
	valRange, err := s.srv.Spreadsheets.Values.Get(docID, sheetName).Do()
	if err != nil {
		return nil, err
	}

	if len(valRange.Values) == 0 {
		return nil, errors.Wrapf(ErrEmptySheet, "%s", sheetName)
	}

	var header []string

	rows := make([][]string, len(valRange.Values)-1)

	for i, row := range valRange.Values {
		if i == 0 {
			header = rowToStringSlice(row)
		} else {
			rows[i-1] = rowToStringSlice(row)
		}
	}

	return &Sheet{
		ColumnHeaders: header,
		Rows:          rows,
	}, nil
}

func rowToStringSlice(in []any) []string {
	out := make([]string, len(in))

	for i, cols := range in {
		out[i] = fmt.Sprint(cols)
	}

	return out
}

// Columns returns the values of the given columns for every row, in the order
// of the given column names. Header names are matched case-insensitively.
// Rows shorter than the header have blanks for their missing cells.
func (s *Sheet) Columns(names ...string) ([][]string, error) {
	indexes := make([]int, len(names))

	for i, name := range names {
		indexes[i] = s.columnIndex(name)
		if indexes[i] == -1 {
			return nil, errors.Wrapf(ErrMissingColumn, "%s", name)
		}
	}

	cols := make([][]string, len(s.Rows))

	for r, row := range s.Rows {
		cols[r] = make([]string, len(indexes))

		for i, c := range indexes {
			if c < len(row) {
				cols[r][i] = row[c]
			}
		}
	}

	return cols, nil
}

func (s *Sheet) columnIndex(name string) int {
	for i, header := range s.ColumnHeaders {
		if strings.EqualFold(strings.TrimSpace(header), name) {
			return i
		}
	}

	return -1
}

// Samples returns the samples in the given sheet, which must have the same
// columns as a CSV samplesheet, in any order.
func (s *Sheet) Samples() ([]*types.Sample, error) {
	rows, err := s.Columns(samplesheet.Columns...)
	if err != nil {
		return nil, err
	}

	return samplesheet.FromRows(rows)
}

// Samples reads the named sheet in the given document and returns the samples
// in it.
func (s *Sheets) Samples(docID, sheetName string) ([]*types.Sample, error) {
	sheet, err := s.Read(docID, sheetName)
	if err != nil {
		return nil, err
	}

	return sheet.Samples()
}
