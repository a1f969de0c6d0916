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

// Package demux runs reads through matching, assignment and statistics
// gathering in parallel.
package demux

import (
	"context"
	"io"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/assign"
	"github.com/wtsi-hgi/anglerfish/catalog"
	"github.com/wtsi-hgi/anglerfish/match"
	"github.com/wtsi-hgi/anglerfish/stats"
	"github.com/wtsi-hgi/anglerfish/types"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxDistance = 2
	DefaultThreads     = 4

	// UnknownSeparator joins index1 and index2 of an unknown index.
	UnknownSeparator = "+"
)

// Read is what a FragmentSource knows about one read.
type Read struct {
	ID        string
	Fragments match.Fragments

	// Layout describes the adaptor hits found on the read, eg. "fragment". It
	// is counted in the statistics if not blank.
	Layout string

	// InsertStart and InsertEnd are the 0-based, half-open coordinates of the
	// library insert between the adaptors.
	InsertStart int
	InsertEnd   int
}

// FragmentSource supplies reads and their index fragments. Next returns io.EOF
// when there are no more reads.
type FragmentSource interface {
	Next() (Read, error)
}

// Router is told the outcome of every read, eg. to write out assigned reads.
// It must be safe for concurrent use.
type Router interface {
	Route(a assign.Assignment, r Read) error
}

// Demuxer assigns reads to the samples in a catalog.
type Demuxer struct {
	catalog     *catalog.Catalog
	maxDistance int
	threads     int
	stats       *stats.Aggregator
	router      Router
	logger      log15.Logger

	// fullLength is the summed barcode lengths by kit, used to recognise
	// unmatched reads with complete index fragments.
	fullLength map[types.KitType]map[int]bool
}

// Options configure a Demuxer.
type Options struct {
	MaxDistance int
	Threads     int

	// Router is optional.
	Router Router

	// Logger is optional; logging is discarded if nil.
	Logger log15.Logger
}

// New returns a Demuxer that records in to the given aggregator, which should
// have been made for the same catalog.
func New(c *catalog.Catalog, agg *stats.Aggregator, opts Options) *Demuxer {
	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	d := &Demuxer{
		catalog:     c,
		maxDistance: opts.MaxDistance,
		threads:     threads,
		stats:       agg,
		router:      opts.Router,
		logger:      logger,
		fullLength:  make(map[types.KitType]map[int]bool),
	}

	c.Each(func(s *types.Sample) {
		if d.fullLength[s.Kit] == nil {
			d.fullLength[s.Kit] = make(map[int]bool)
		}

		d.fullLength[s.Kit][len(s.Index1)+len(s.Index2)] = true
	})

	return d
}

// Run reads everything from the source, processing up to Threads reads at
// once, and returns the number of reads processed. The first error from the
// source, the router or the statistics aggregator stops the run, as does
// cancelling ctx, in which case its error is returned.
//
// Reads are never rejected for data quality reasons; reads without usable
// fragments are simply unmatched.
func (d *Demuxer) Run(ctx context.Context, src FragmentSource) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.threads)

	n := 0

	for gctx.Err() == nil {
		r, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if werr := g.Wait(); werr != nil {
				d.logger.Warn("processing failed while reading stopped", "err", werr)
			}

			return n, errors.Wrap(err, "reading fragments")
		}

		n++

		g.Go(func() error {
			return d.Process(r)
		})
	}

	if err := g.Wait(); err != nil {
		return n, err
	}

	if err := context.Cause(ctx); err != nil {
		return n, err
	}

	d.logger.Debug("demultiplexed reads", "reads", n)

	return n, nil
}

// Process matches, assigns, records and routes a single read.
func (d *Demuxer) Process(r Read) error {
	candidates := match.Match(r.Fragments, d.catalog, d.maxDistance)
	a := assign.Assign(r.ID, candidates)

	if err := d.record(a, r); err != nil {
		return err
	}

	if a.Outcome == assign.Ambiguous {
		d.logger.Debug("ambiguous read", "read", r.ID, "samples", strings.Join(a.Tied, ","))
	}

	if d.router == nil {
		return nil
	}

	return d.router.Route(a, r)
}

func (d *Demuxer) record(a assign.Assignment, r Read) error {
	if err := d.stats.Record(a, a.Best); err != nil {
		return err
	}

	if r.Layout != "" {
		if err := d.stats.RecordLayout(r.Layout); err != nil {
			return err
		}
	}

	if a.Outcome != assign.Unmatched {
		return nil
	}

	if unknown, ok := d.unknownIndex(r.Fragments); ok {
		return d.stats.RecordUnknown(unknown)
	}

	return nil
}

// unknownIndex returns the read's index fragments joined together, if they
// have the full length of some catalog sample's barcodes.
func (d *Demuxer) unknownIndex(f match.Fragments) (string, bool) {
	i1, ok := f.Get(types.Index1)
	if !ok {
		return "", false
	}

	i2, ok2 := f.Get(types.Index2)

	if ok2 && d.fullLength[types.KitDual][len(i1)+len(i2)] {
		return i1 + UnknownSeparator + i2, true
	}

	if d.fullLength[types.KitSingle][len(i1)] {
		return i1, true
	}

	return "", false
}
