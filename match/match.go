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

// Package match scores the index fragments extracted from a read against the
// barcodes in a catalog.
package match

import (
	"github.com/wtsi-hgi/anglerfish/catalog"
	"github.com/wtsi-hgi/anglerfish/types"
)

// NoDistance is the distance reported for a slot a sample doesn't have.
const NoDistance = -1

// Fragment is the sequence found at a read's adaptor index site.
type Fragment struct {
	Slot     types.Slot
	Sequence string
	Strand   byte
}

// Fragments are the fragments of one read, at most one per slot is used.
type Fragments []Fragment

// Get returns the normalised sequence of the first fragment for the given
// slot. ok is false if there is no such fragment or it is empty or contains
// something other than ACGTN.
func (f Fragments) Get(slot types.Slot) (string, bool) {
	for _, frag := range f {
		if frag.Slot != slot {
			continue
		}

		return types.NormaliseSequence(frag.Sequence)
	}

	return "", false
}

// Candidate is a sample whose barcodes passed the distance threshold for a
// read.
type Candidate struct {
	Sample    string
	Distance1 int
	Distance2 int
	Score     int
}

// Distances returns the slot distances of the candidate, omitting absent
// slots.
func (c Candidate) Distances() []int {
	if c.Distance2 == NoDistance {
		return []int{c.Distance1}
	}

	return []int{c.Distance1, c.Distance2}
}

// Match compares the given fragments to every sample in the catalog and
// returns a Candidate for each sample where every one of its barcodes is
// within maxDistance edits of the fragment for that slot. Single-index samples
// only consider the Index1 fragment. A sample missing a fragment for one of its
// slots can't match.
//
// Candidates are returned in catalog order.
func Match(fragments Fragments, c *catalog.Catalog, maxDistance int) []Candidate {
	if maxDistance < 0 {
		return nil
	}

	frag1, ok1 := fragments.Get(types.Index1)
	frag2, ok2 := fragments.Get(types.Index2)

	if !ok1 {
		return nil
	}

	var candidates []Candidate

	c.Each(func(s *types.Sample) {
		d1, pass := bounded(frag1, s.Index1, maxDistance)
		if !pass {
			return
		}

		cand := Candidate{Sample: s.Name, Distance1: d1, Distance2: NoDistance, Score: d1}

		if s.Kit == types.KitDual {
			if !ok2 {
				return
			}

			d2, pass := bounded(frag2, s.Index2, maxDistance)
			if !pass {
				return
			}

			cand.Distance2 = d2
			cand.Score += d2
		}

		candidates = append(candidates, cand)
	})

	return candidates
}

// bounded returns the distance between fragment and barcode and whether it is
// within maxDistance. Pairs whose lengths differ by more than maxDistance are
// rejected without computing the distance, since that difference is a lower
// bound.
func bounded(fragment, barcode string, maxDistance int) (int, bool) {
	if lengthDiff(fragment, barcode) > maxDistance {
		return 0, false
	}

	d := Distance(fragment, barcode)

	return d, d <= maxDistance
}

func lengthDiff(a, b string) int {
	if len(a) > len(b) {
		return len(a) - len(b)
	}

	return len(b) - len(a)
}
