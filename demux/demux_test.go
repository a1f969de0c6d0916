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

package demux

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/anglerfish/assign"
	"github.com/wtsi-hgi/anglerfish/catalog"
	"github.com/wtsi-hgi/anglerfish/match"
	"github.com/wtsi-hgi/anglerfish/stats"
	"github.com/wtsi-hgi/anglerfish/types"
)

var errMock = errors.New("mock error")

type sliceSource struct {
	reads []Read
	err   error
	i     int
}

func (s *sliceSource) Next() (Read, error) {
	if s.i >= len(s.reads) {
		if s.err != nil {
			return Read{}, s.err
		}

		return Read{}, io.EOF
	}

	r := s.reads[s.i]
	s.i++

	return r, nil
}

type mockRouter struct {
	routed map[string]assign.Assignment
	err    error
	mu     sync.Mutex
}

func (m *mockRouter) Route(a assign.Assignment, r Read) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.routed == nil {
		m.routed = make(map[string]assign.Assignment)
	}

	m.routed[r.ID] = a

	return m.err
}

// gatedSource supplies one read, then releases its router before returning
// errMock.
type gatedSource struct {
	release chan struct{}
	done    bool
}

func (s *gatedSource) Next() (Read, error) {
	if s.done {
		close(s.release)

		return Read{}, errMock
	}

	s.done = true

	return Read{ID: "r1", Fragments: dual("AAAA", "TTTT")}, nil
}

type gatedRouter struct {
	release chan struct{}
	err     error
}

func (g *gatedRouter) Route(_ assign.Assignment, _ Read) error {
	<-g.release

	return g.err
}

type recordingHandler struct {
	records []*log15.Record
	mu      sync.Mutex
}

func (h *recordingHandler) Log(r *log15.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, r)

	return nil
}

func single(seq string) match.Fragments {
	return match.Fragments{{Slot: types.Index1, Sequence: seq, Strand: '+'}}
}

func dual(i1, i2 string) match.Fragments {
	return match.Fragments{
		{Slot: types.Index1, Sequence: i1, Strand: '+'},
		{Slot: types.Index2, Sequence: i2, Strand: '+'},
	}
}

func TestDemuxer(t *testing.T) {
	Convey("Given a dual-index catalog with one sample", t, func() {
		c, err := catalog.Build([]*types.Sample{
			{Name: "S1", Kit: types.KitDual, Index1: "AAAA", Index2: "TTTT"},
		})
		So(err, ShouldBeNil)

		agg := stats.New(c)
		router := &mockRouter{}
		d := New(c, agg, Options{MaxDistance: DefaultMaxDistance, Threads: 2, Router: router})

		Convey("A read with exact fragments is assigned to it", func() {
			n, err := d.Run(context.Background(), &sliceSource{reads: []Read{
				{ID: "r1", Fragments: dual("AAAA", "TTTT"), Layout: "fragment"},
				{ID: "r2", Fragments: dual("GGGG", "CCCC"), Layout: "fragment"},
				{ID: "r3", Layout: "singleton"},
			}})
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)

			So(router.routed["r1"].Outcome, ShouldEqual, assign.Assigned)
			So(router.routed["r1"].Sample, ShouldEqual, "S1")
			So(router.routed["r2"].Outcome, ShouldEqual, assign.Unmatched)
			So(router.routed["r3"].Outcome, ShouldEqual, assign.Unmatched)

			r := agg.Finalize()
			So(r.Total, ShouldEqual, 3)
			So(r.Samples[0].Reads, ShouldEqual, 1)
			So(r.Samples[0].Distances.Histogram, ShouldResemble, []int{2})
			So(r.Unmatched.Reads, ShouldEqual, 2)
			So(r.Layouts, ShouldResemble, map[string]int{"fragment": 2, "singleton": 1})
			So(r.Unknowns, ShouldResemble, []stats.UnknownIndex{{Index: "GGGG+CCCC", Reads: 1}})
		})

		Convey("Source errors stop the run", func() {
			_, err := d.Run(context.Background(), &sliceSource{
				reads: []Read{{ID: "r1", Fragments: dual("AAAA", "TTTT")}},
				err:   errMock,
			})
			So(errors.Cause(err), ShouldEqual, errMock)
		})

		Convey("Router errors stop the run", func() {
			router.err = errMock

			_, err := d.Run(context.Background(), &sliceSource{
				reads: []Read{{ID: "r1", Fragments: dual("AAAA", "TTTT")}},
			})
			So(err, ShouldEqual, errMock)
		})

		Convey("A cancelled context stops the run with its error", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			n, err := d.Run(ctx, &sliceSource{
				reads: []Read{{ID: "r1", Fragments: dual("AAAA", "TTTT")}},
			})
			So(errors.Cause(err), ShouldEqual, context.Canceled)
			So(n, ShouldEqual, 0)
			So(agg.Finalize().Total, ShouldEqual, 0)
		})

		Convey("A processing error during a source error is logged", func() {
			release := make(chan struct{})
			errRoute := errors.New("route error")
			handler := &recordingHandler{}
			logger := log15.New()
			logger.SetHandler(handler)

			d = New(c, agg, Options{
				MaxDistance: DefaultMaxDistance,
				Threads:     2,
				Router:      &gatedRouter{release: release, err: errRoute},
				Logger:      logger,
			})

			n, err := d.Run(context.Background(), &gatedSource{release: release})
			So(errors.Cause(err), ShouldEqual, errMock)
			So(n, ShouldEqual, 1)

			So(handler.records, ShouldHaveLength, 1)
			So(handler.records[0].Lvl, ShouldEqual, log15.LvlWarn)
			So(handler.records[0].Ctx, ShouldResemble, []any{"err", errRoute})
		})

		Convey("Running after finalizing the statistics fails", func() {
			agg.Finalize()

			_, err := d.Run(context.Background(), &sliceSource{
				reads: []Read{{ID: "r1", Fragments: dual("AAAA", "TTTT")}},
			})
			So(errors.Cause(err), ShouldEqual, stats.ErrFinalized)
		})
	})

	Convey("Given single-index samples one edit apart", t, func() {
		c, err := catalog.Build([]*types.Sample{
			{Name: "S1", Kit: types.KitSingle, Index1: "AAAA"},
			{Name: "S2", Kit: types.KitSingle, Index1: "AAAT"},
		})
		So(err, ShouldBeNil)

		agg := stats.New(c)
		router := &mockRouter{}
		d := New(c, agg, Options{MaxDistance: 2, Router: router})

		Convey("A fragment equidistant to both is ambiguous", func() {
			So(d.Process(Read{ID: "r1", Fragments: single("AAAC")}), ShouldBeNil)
			So(router.routed["r1"].Outcome, ShouldEqual, assign.Ambiguous)
			So(router.routed["r1"].Tied, ShouldResemble, []string{"S1", "S2"})

			r := agg.Finalize()
			So(r.Ambiguous.Reads, ShouldEqual, 1)
			So(r.Samples[0].Reads, ShouldEqual, 0)
			So(r.Samples[0].AmbiguousWith, ShouldEqual, 1)
			So(r.Samples[1].AmbiguousWith, ShouldEqual, 1)
		})

		Convey("A distant fragment is unmatched", func() {
			So(d.Process(Read{ID: "r1", Fragments: single("GGGG")}), ShouldBeNil)
			So(router.routed["r1"].Outcome, ShouldEqual, assign.Unmatched)
			So(agg.Finalize().Unknowns, ShouldResemble, []stats.UnknownIndex{{Index: "GGGG", Reads: 1}})
		})

		Convey("A short unmatched fragment is not an unknown index", func() {
			So(d.Process(Read{ID: "r1", Fragments: single("G")}), ShouldBeNil)
			So(agg.Finalize().Unknowns, ShouldBeEmpty)
		})
	})

	Convey("Many reads processed in parallel are all counted", t, func() {
		c, err := catalog.Build([]*types.Sample{
			{Name: "S1", Kit: types.KitSingle, Index1: "AAAAAA"},
			{Name: "S2", Kit: types.KitSingle, Index1: "CCCCCC"},
			{Name: "S3", Kit: types.KitSingle, Index1: "AAAAAC"},
		})
		So(err, ShouldBeNil)

		frags := []string{"AAAAAA", "CCCCCC", "AAAAAG", "GGGGGG", "", "CCCCCA"}
		reads := make([]Read, 0, 1000)

		for i := range 1000 {
			reads = append(reads, Read{ID: fmt.Sprintf("r%d", i), Fragments: single(frags[i%len(frags)])})
		}

		for _, threads := range []int{0, 1, 8} {
			agg := stats.New(c)
			d := New(c, agg, Options{MaxDistance: 1, Threads: threads})

			n, err := d.Run(context.Background(), &sliceSource{reads: reads})
			So(err, ShouldBeNil)
			So(n, ShouldEqual, len(reads))

			r := agg.Finalize()
			So(r.Assigned()+r.Ambiguous.Reads+r.Unmatched.Reads, ShouldEqual, len(reads))
			So(r.Samples[0].Reads, ShouldEqual, 167)
			So(r.Samples[1].Reads, ShouldEqual, 333)
			So(r.Ambiguous.Reads, ShouldEqual, 167)
			So(r.Unmatched.Reads, ShouldEqual, 333)
		}
	})
}
