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

package samplesheet

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/types"
)

// converter converts samplesheet cells to sample fields. The conversions do
// not return errors, but instead set the error field. Check that field after
// doing all your conversions.
type converter struct {
	Err error
}

// Required returns the trimmed value, setting the error field if it is blank.
//
// If the error field is already set, this function does nothing and returns
// blank.
func (c *converter) Required(s, column string) string {
	if c.Err != nil {
		return ""
	}

	s = strings.TrimSpace(s)
	if s == "" {
		c.Err = errors.Wrapf(ErrMissingValue, "%s", column)
	}

	return s
}

// ToBarcode splits a barcode spec in to its kit and indexes, setting the error
// field if it is invalid.
//
// If the error field is already set, this function does nothing and returns
// blanks.
func (c *converter) ToBarcode(s string) (types.KitType, string, string) {
	if c.Err != nil {
		return "", "", ""
	}

	kit, i1, i2, err := types.ParseBarcodeSpec(s)
	if err != nil {
		c.Err = errors.Wrapf(err, "%q", s)
	}

	return kit, i1, i2
}
