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

// Package catalog holds the expected barcodes of the samples in a run.
package catalog

import (
	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/types"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrDuplicateBarcode = Error("duplicate barcode")
	ErrInvalidSequence  = Error("invalid barcode sequence")
	ErrDuplicateSample  = Error("duplicate sample name")
	ErrNilSample        = Error("nil sample")
)

// Entry is one expected barcode sequence of one sample.
type Entry struct {
	Sample   *types.Sample
	Slot     types.Slot
	Sequence string
}

// Catalog is an immutable set of samples and their barcodes. It is safe to
// share between goroutines.
type Catalog struct {
	samples []*types.Sample
	entries []Entry
}

// Build validates the given samples and returns a Catalog of their barcodes.
//
// Barcode sequences are upper-cased; anything other than ACGTN, or an empty
// sequence, results in an ErrInvalidSequence. Two samples with the same kit
// and barcodes result in an ErrDuplicateBarcode. The given samples are not
// modified; the Catalog holds normalised copies.
func Build(samples []*types.Sample) (*Catalog, error) {
	c := &Catalog{
		samples: make([]*types.Sample, 0, len(samples)),
		entries: make([]Entry, 0, len(samples)*types.KitDual.Slots()),
	}

	names := make(map[string]bool, len(samples))
	keys := make(map[string]string, len(samples))

	for _, s := range samples {
		ns, err := normalise(s)
		if err != nil {
			return nil, err
		}

		if names[ns.Name] {
			return nil, errors.Wrapf(ErrDuplicateSample, "%s", ns.Name)
		}

		names[ns.Name] = true

		if other, exists := keys[ns.Key()]; exists {
			return nil, errors.Wrapf(ErrDuplicateBarcode, "samples %s and %s share %s barcode %s",
				other, ns.Name, ns.Kit, ns.Barcode())
		}

		keys[ns.Key()] = ns.Name

		c.add(ns)
	}

	return c, nil
}

func normalise(s *types.Sample) (*types.Sample, error) {
	if s == nil {
		return nil, ErrNilSample
	}

	ns := s.Clone()

	i1, err := normaliseIndex(ns.Name, types.Index1, ns.Index1)
	if err != nil {
		return nil, err
	}

	ns.Index1 = i1

	switch ns.Kit {
	case types.KitSingle:
		if ns.Index2 != "" {
			return nil, errors.Wrapf(ErrInvalidSequence, "single-index sample %s has an index2", ns.Name)
		}
	case types.KitDual:
		i2, err := normaliseIndex(ns.Name, types.Index2, ns.Index2)
		if err != nil {
			return nil, err
		}

		ns.Index2 = i2
	default:
		return nil, errors.Wrapf(types.ErrInvalidKit, "sample %s has kit %q", ns.Name, ns.Kit)
	}

	return ns, nil
}

func normaliseIndex(name string, slot types.Slot, seq string) (string, error) {
	norm, ok := types.NormaliseSequence(seq)
	if !ok {
		return "", errors.Wrapf(ErrInvalidSequence, "sample %s %s %q", name, slot, seq)
	}

	return norm, nil
}

func (c *Catalog) add(s *types.Sample) {
	c.samples = append(c.samples, s)

	for slot := types.Index1; int(slot) <= s.Kit.Slots(); slot++ {
		c.entries = append(c.entries, Entry{Sample: s, Slot: slot, Sequence: s.Index(slot)})
	}
}

// Samples returns the catalog's samples in the order they were given to
// Build().
func (c *Catalog) Samples() []*types.Sample {
	out := make([]*types.Sample, len(c.samples))
	for i, s := range c.samples {
		out[i] = s.Clone()
	}

	return out
}

// Entries returns every (sample, slot, sequence) in the catalog.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = Entry{Sample: e.Sample.Clone(), Slot: e.Slot, Sequence: e.Sequence}
	}

	return out
}

// Len returns the number of samples in the catalog.
func (c *Catalog) Len() int {
	return len(c.samples)
}

// Each calls cb for every sample in the catalog, in order, without copying.
// cb must not modify the sample.
func (c *Catalog) Each(cb func(s *types.Sample)) {
	for _, s := range c.samples {
		cb(s)
	}
}
