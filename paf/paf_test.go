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

package paf

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/anglerfish/adaptor"
	"github.com/wtsi-hgi/anglerfish/demux"
	"github.com/wtsi-hgi/anglerfish/match"
	"github.com/wtsi-hgi/anglerfish/types"
)

func pafLine(read string, start, end int, strand, target string, mapq int, cs string) string {
	return fmt.Sprintf("%s\t1000\t%d\t%d\t%s\t%s\t70\t0\t70\t60\t70\t%d\ttp:A:P\tcs:Z:%s\n",
		read, start, end, strand, target, mapq, cs)
}

func dualGroup() *adaptor.Group {
	a, err := adaptor.Builtin().Get("truseq_dual")
	if err != nil {
		panic(err)
	}

	return &adaptor.Group{
		Name:    "truseq_dual",
		Adaptor: a,
		Samples: []*types.Sample{{Name: "s1", Kit: types.KitDual, Index1: "AAAA", Index2: "CCCC"}},
	}
}

func TestParseLine(t *testing.T) {
	Convey("You can parse PAF lines", t, func() {
		a, err := ParseLine(pafLine("r1", 10, 80, "-", "g_i7", 60, ":10*na*nc:5"))
		So(err, ShouldBeNil)
		So(a, ShouldResemble, Alignment{
			Read: "r1", ReadLength: 1000, Start: 10, End: 80, Strand: '-',
			Target: "g_i7", MapQ: 60, CS: ":10*na*nc:5",
		})

		a, err = ParseLine("r1\t1000\t10\t80\t+\tg_i7\t70\t0\t70\t60\t70\t0")
		So(err, ShouldBeNil)
		So(a.CS, ShouldEqual, "")
		So(a.MapQ, ShouldEqual, 0)

		Convey("Bad lines are rejected", func() {
			_, err = ParseLine("r1\t1000\t10")
			So(errors.Cause(err), ShouldEqual, ErrTooFewColumns)

			_, err = ParseLine("r1\t1000\tx\t80\t+\tg_i7\t70\t0\t70\t60\t70\t0")
			So(errors.Cause(err), ShouldEqual, ErrBadColumn)

			_, err = ParseLine("r1\t1000\t10\t80\t+-\tg_i7\t70\t0\t70\t60\t70\t0")
			So(errors.Cause(err), ShouldEqual, ErrBadColumn)
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Reads are classified by their alignments", t, func() {
		i5 := Alignment{Target: "i5", Start: 0, End: 50}
		i7 := Alignment{Target: "i7", Start: 500, End: 560}
		i5b := Alignment{Target: "i5", Start: 600, End: 650}
		i7b := Alignment{Target: "i7", Start: 900, End: 960}

		layout, pair := Classify([]Alignment{i5}, "i5", "i7")
		So(layout, ShouldEqual, LayoutSingleton)
		So(pair, ShouldBeNil)

		layout, pair = Classify([]Alignment{i7, i5}, "i5", "i7")
		So(layout, ShouldEqual, LayoutFragment)
		So(pair, ShouldResemble, []Alignment{i5, i7})

		layout, _ = Classify([]Alignment{i5, i7, i5b, i7b}, "i5", "i7")
		So(layout, ShouldEqual, LayoutConcat)

		layout, _ = Classify([]Alignment{i5, i7, i5b}, "i5", "i7")
		So(layout, ShouldEqual, LayoutConcat)

		layout, _ = Classify([]Alignment{i5, i5b}, "i5", "i7")
		So(layout, ShouldEqual, LayoutUnknown)

		layout, _ = Classify([]Alignment{i7, i7b}, "i5", "i7")
		So(layout, ShouldEqual, LayoutUnknown)
	})
}

func TestSource(t *testing.T) {
	Convey("Given a PAF of alignments to a dual index group", t, func() {
		g := dualGroup()
		i5, i7 := g.Target(types.Index2), g.Target(types.Index1)

		paf := pafLine("r1", 0, 60, "+", i5, 60, ":29*nc*nc*nc*nc:33") +
			pafLine("r1", 500, 560, "+", i7, 60, ":33*na*na*na*nt:25") +
			pafLine("r2", 0, 60, "+", i5, 60, ":29*nc*nc*nc*nc:33") +
			pafLine("r3", 0, 60, "+", i5, 0, ":29*nc*nc*nc*nc:33") +
			pafLine("r3", 500, 560, "+", i7, 60, ":33*na*na*na*nt:25") +
			"garbage\n" +
			pafLine("r4", 0, 60, "-", i7, 60, ":33*ng*ng*ng*ng:25") +
			pafLine("r4", 65, 120, "-", i5, 60, ":29*nc*nc*nc*nc:33")

		src := NewSource(strings.NewReader(paf), g, Options{MinQual: DefaultMinQual, MinInsert: DefaultMinInsert})

		Convey("You get a Read per read name", func() {
			r, err := src.Next()
			So(err, ShouldBeNil)
			So(r, ShouldResemble, demux.Read{
				ID:     "r1",
				Layout: LayoutFragment,
				Fragments: match.Fragments{
					{Slot: types.Index1, Sequence: "AAAT", Strand: '+'},
					{Slot: types.Index2, Sequence: "CCCC", Strand: '+'},
				},
				InsertStart: 60,
				InsertEnd:   500,
			})

			r, err = src.Next()
			So(err, ShouldBeNil)
			So(r, ShouldResemble, demux.Read{ID: "r2", Layout: LayoutSingleton})

			r, err = src.Next()
			So(err, ShouldBeNil)
			So(r.ID, ShouldEqual, "r3")
			So(r.Layout, ShouldEqual, LayoutSingleton)

			r, err = src.Next()
			So(err, ShouldBeNil)
			So(r.ID, ShouldEqual, "r4")
			So(r.Layout, ShouldEqual, LayoutFragment)
			So(r.InsertEnd-r.InsertStart, ShouldBeLessThan, DefaultMinInsert)
			So(r.Fragments, ShouldBeNil)

			_, err = src.Next()
			So(err, ShouldEqual, io.EOF)

			So(src.Close(), ShouldBeNil)
		})
	})

	Convey("Single index groups only yield an Index1 fragment", t, func() {
		a, err := adaptor.Builtin().Get("truseq")
		So(err, ShouldBeNil)

		g := &adaptor.Group{Name: "ts", Adaptor: a}
		paf := pafLine("r1", 0, 60, "+", "ts_i5", 60, ":60") +
			pafLine("r1", 500, 560, "+", "ts_i7", 60, ":33*ng*ng*ng*ng:25")

		src := NewSource(strings.NewReader(paf), g, Options{MinInsert: DefaultMinInsert})

		r, err := src.Next()
		So(err, ShouldBeNil)
		So(r.Fragments, ShouldResemble, match.Fragments{{Slot: types.Index1, Sequence: "GGGG", Strand: '+'}})
	})

	Convey("You can open gzipped PAF files", t, func() {
		path := filepath.Join(t.TempDir(), "g.paf.gz")

		f, err := os.Create(path)
		So(err, ShouldBeNil)

		gz := gzip.NewWriter(f)
		_, err = gz.Write([]byte(pafLine("r1", 0, 60, "+", "truseq_dual_i5", 60, ":60")))
		So(err, ShouldBeNil)
		So(gz.Close(), ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		src, err := Open(path, dualGroup(), Options{})
		So(err, ShouldBeNil)

		r, err := src.Next()
		So(err, ShouldBeNil)
		So(r.ID, ShouldEqual, "r1")

		_, err = src.Next()
		So(err, ShouldEqual, io.EOF)
		So(src.Close(), ShouldBeNil)

		_, err = Open(filepath.Join(t.TempDir(), "missing.paf"), dualGroup(), Options{})
		So(err, ShouldNotBeNil)
	})
}
