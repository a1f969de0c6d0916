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

// Package stats accumulates barcode assignment statistics over a run.
package stats

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/assign"
	"github.com/wtsi-hgi/anglerfish/catalog"
	"github.com/wtsi-hgi/anglerfish/types"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrFinalized     = Error("statistics already finalized")
	ErrUnknownSample = Error("sample not in catalog")

	// MaxUnknowns is the number of most frequent unknown indexes kept in a
	// snapshot.
	MaxUnknowns = 10
)

// Distribution is a histogram of edit distances, where Histogram[d] is the
// number of times distance d was observed.
type Distribution struct {
	Histogram []int `json:"histogram"`
}

func (d *Distribution) add(distance int) {
	if distance < 0 {
		return
	}

	for len(d.Histogram) <= distance {
		d.Histogram = append(d.Histogram, 0)
	}

	d.Histogram[distance]++
}

func (d Distribution) clone() Distribution {
	if d.Histogram == nil {
		return Distribution{}
	}

	return Distribution{Histogram: append([]int(nil), d.Histogram...)}
}

// N returns the number of distances observed.
func (d Distribution) N() int {
	n := 0
	for _, c := range d.Histogram {
		n += c
	}

	return n
}

// Mean returns the mean observed distance, or 0 if there were none.
func (d Distribution) Mean() float64 {
	n, sum := 0, 0

	for dist, c := range d.Histogram {
		n += c
		sum += dist * c
	}

	if n == 0 {
		return 0
	}

	return float64(sum) / float64(n)
}

// Max returns the largest observed distance, or 0 if there were none.
func (d Distribution) Max() int {
	for dist := len(d.Histogram) - 1; dist >= 0; dist-- {
		if d.Histogram[dist] > 0 {
			return dist
		}
	}

	return 0
}

// SampleStats are the statistics for one sample.
type SampleStats struct {
	Name      string       `json:"name"`
	Barcode   string       `json:"barcode"`
	Reads     int          `json:"reads"`
	Distances Distribution `json:"distances"`

	// AmbiguousWith is the number of ambiguous reads where this sample was one
	// of the tied best matches.
	AmbiguousWith int `json:"ambiguous_with"`
}

// OutcomeStats are the statistics for reads that were not assigned.
type OutcomeStats struct {
	Reads     int          `json:"reads"`
	Distances Distribution `json:"distances"`
}

// UnknownIndex is an index sequence seen on unmatched reads.
type UnknownIndex struct {
	Index string `json:"index"`
	Reads int    `json:"reads"`
}

// RunStatistics is a read-only snapshot of an Aggregator.
type RunStatistics struct {
	Total     int            `json:"total"`
	Samples   []SampleStats  `json:"samples"`
	Ambiguous OutcomeStats   `json:"ambiguous"`
	Unmatched OutcomeStats   `json:"unmatched"`
	Layouts   map[string]int `json:"layouts"`
	Unknowns  []UnknownIndex `json:"unknowns"`
}

// Assigned returns the total number of reads assigned to samples.
func (r RunStatistics) Assigned() int {
	n := 0
	for _, s := range r.Samples {
		n += s.Reads
	}

	return n
}

// Aggregator accumulates the outcomes of reads. It is safe for concurrent use.
// Counts only ever increase; once Finalize() has been called nothing more can
// be recorded.
type Aggregator struct {
	samples   []*SampleStats
	lookup    map[string]*SampleStats
	ambiguous OutcomeStats
	unmatched OutcomeStats
	total     int
	layouts   map[string]int
	unknowns  map[string]int

	snapshot *RunStatistics
	mu       sync.Mutex
}

// New returns an Aggregator that reports on every sample in the given catalog,
// including those that end up with no reads.
func New(c *catalog.Catalog) *Aggregator {
	a := &Aggregator{
		lookup:   make(map[string]*SampleStats, c.Len()),
		layouts:  make(map[string]int),
		unknowns: make(map[string]int),
	}

	c.Each(func(s *types.Sample) {
		ss := &SampleStats{Name: s.Name, Barcode: s.Barcode()}
		a.samples = append(a.samples, ss)
		a.lookup[s.Name] = ss
	})

	return a
}

// Record counts the read's outcome and adds the given distances to that
// outcome's distribution. Ambiguous reads also count towards each tied
// sample's AmbiguousWith.
func (a *Aggregator) Record(as assign.Assignment, distances []int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snapshot != nil {
		return errors.Wrapf(ErrFinalized, "recording read %s", as.ReadID)
	}

	switch as.Outcome {
	case assign.Assigned:
		ss, ok := a.lookup[as.Sample]
		if !ok {
			return errors.Wrapf(ErrUnknownSample, "%s", as.Sample)
		}

		ss.Reads++
		addAll(&ss.Distances, distances)
	case assign.Ambiguous:
		for _, name := range as.Tied {
			if _, ok := a.lookup[name]; !ok {
				return errors.Wrapf(ErrUnknownSample, "%s", name)
			}
		}

		for _, name := range as.Tied {
			a.lookup[name].AmbiguousWith++
		}

		a.ambiguous.Reads++
		addAll(&a.ambiguous.Distances, distances)
	default:
		a.unmatched.Reads++
		addAll(&a.unmatched.Distances, distances)
	}

	a.total++

	return nil
}

func addAll(d *Distribution, distances []int) {
	for _, dist := range distances {
		d.add(dist)
	}
}

// RecordLayout counts a read as having the given adaptor layout.
func (a *Aggregator) RecordLayout(layout string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snapshot != nil {
		return errors.Wrapf(ErrFinalized, "recording layout %s", layout)
	}

	a.layouts[layout]++

	return nil
}

// RecordUnknown counts an index sequence seen on an unmatched read.
func (a *Aggregator) RecordUnknown(index string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snapshot != nil {
		return errors.Wrapf(ErrFinalized, "recording unknown index %s", index)
	}

	a.unknowns[index]++

	return nil
}

// Finalize stops further recording and returns a snapshot of the statistics.
// It can be called repeatedly, always returning equal snapshots.
func (a *Aggregator) Finalize() RunStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snapshot == nil {
		snap := a.freeze()
		a.snapshot = &snap
	}

	return a.snapshot.clone()
}

func (a *Aggregator) freeze() RunStatistics {
	r := RunStatistics{
		Total:     a.total,
		Samples:   make([]SampleStats, len(a.samples)),
		Ambiguous: OutcomeStats{Reads: a.ambiguous.Reads, Distances: a.ambiguous.Distances.clone()},
		Unmatched: OutcomeStats{Reads: a.unmatched.Reads, Distances: a.unmatched.Distances.clone()},
		Layouts:   make(map[string]int, len(a.layouts)),
		Unknowns:  topUnknowns(a.unknowns, MaxUnknowns),
	}

	for i, ss := range a.samples {
		r.Samples[i] = *ss
		r.Samples[i].Distances = ss.Distances.clone()
	}

	for k, v := range a.layouts {
		r.Layouts[k] = v
	}

	return r
}

func topUnknowns(unknowns map[string]int, n int) []UnknownIndex {
	out := make([]UnknownIndex, 0, len(unknowns))
	for index, reads := range unknowns {
		out = append(out, UnknownIndex{Index: index, Reads: reads})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Reads != out[j].Reads {
			return out[i].Reads > out[j].Reads
		}

		return out[i].Index < out[j].Index
	})

	if len(out) > n {
		out = out[:n]
	}

	return out
}

func (r RunStatistics) clone() RunStatistics {
	c := r
	c.Samples = make([]SampleStats, len(r.Samples))

	for i, ss := range r.Samples {
		c.Samples[i] = ss
		c.Samples[i].Distances = ss.Distances.clone()
	}

	c.Ambiguous.Distances = r.Ambiguous.Distances.clone()
	c.Unmatched.Distances = r.Unmatched.Distances.clone()

	c.Layouts = make(map[string]int, len(r.Layouts))
	for k, v := range r.Layouts {
		c.Layouts[k] = v
	}

	c.Unknowns = append([]UnknownIndex{}, r.Unknowns...)

	return c
}
