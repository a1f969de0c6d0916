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

// Package assign turns a read's match candidates in to a single decision.
package assign

import (
	"slices"
	"sort"

	"github.com/wtsi-hgi/anglerfish/match"
)

type Outcome int

const (
	Unmatched Outcome = iota
	Assigned
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Assigned:
		return "assigned"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unmatched"
	}
}

// Assignment is the decision made for one read.
type Assignment struct {
	ReadID  string
	Outcome Outcome

	// Sample is set when Outcome is Assigned.
	Sample string

	// Tied holds the names of the samples sharing the best score, sorted, when
	// Outcome is Ambiguous.
	Tied []string

	// Best holds the slot distances of the assigned candidate, or of the first
	// of the tied candidates.
	Best []int
}

// Assign decides which sample, if any, the read belongs to. With no
// candidates the read is Unmatched. Otherwise the candidate with the lowest
// Score wins, unless other candidates share that score, in which case the read
// is Ambiguous between all of them. There is no other tie-break.
//
// candidates is not modified.
func Assign(readID string, candidates []match.Candidate) Assignment {
	a := Assignment{ReadID: readID, Outcome: Unmatched}

	if len(candidates) == 0 {
		return a
	}

	sorted := slices.Clone(candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score < sorted[j].Score
	})

	best := sorted[0]
	a.Best = best.Distances()

	tied := 1
	for tied < len(sorted) && sorted[tied].Score == best.Score {
		tied++
	}

	if tied == 1 {
		a.Outcome = Assigned
		a.Sample = best.Sample

		return a
	}

	a.Outcome = Ambiguous
	a.Tied = make([]string, tied)

	for i := range tied {
		a.Tied[i] = sorted[i].Sample
	}

	sort.Strings(a.Tied)

	return a
}
