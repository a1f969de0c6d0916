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

package statsdb

import (
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/anglerfish/config"
	"github.com/wtsi-hgi/anglerfish/stats"
)

func testStats() stats.RunStatistics {
	return stats.RunStatistics{
		Total: 10,
		Samples: []stats.SampleStats{
			{Name: "s1", Barcode: "AAAA-CCCC", Reads: 4, Distances: stats.Distribution{Histogram: []int{6, 1, 1}}},
			{Name: "s2", Barcode: "GGGG-TTTT", Reads: 0, AmbiguousWith: 1},
		},
		Ambiguous: stats.OutcomeStats{Reads: 1, Distances: stats.Distribution{Histogram: []int{0, 2}}},
		Unmatched: stats.OutcomeStats{Reads: 5},
	}
}

func TestRows(t *testing.T) {
	Convey("Statistics convert to a row per sample and outcome", t, func() {
		rows := Rows("run1", "truseq_dual", testStats())
		So(rows, ShouldResemble, []Row{
			{
				RunID: "run1", Group: "truseq_dual", SampleName: "s1", Barcode: "AAAA-CCCC",
				Reads: 4, MeanDistance: 0.375, MaxDistance: 2,
			},
			{
				RunID: "run1", Group: "truseq_dual", SampleName: "s2", Barcode: "GGGG-TTTT",
				AmbiguousWith: 1,
			},
			{RunID: "run1", Group: "truseq_dual", SampleName: AmbiguousName, Reads: 1, MeanDistance: 1, MaxDistance: 1},
			{RunID: "run1", Group: "truseq_dual", SampleName: UnmatchedName, Reads: 5},
		})
	})
}

func TestDB(t *testing.T) {
	c, err := config.FromEnv("..")
	if err != nil || !c.HasSQL() {
		SkipConvey("skipping statsdb tests without ANGLERFISH_SQL_* set", t, func() {})

		return
	}

	Convey("Given a working New DB", t, func() {
		db, err := New(c.MySQLConfig())
		So(err, ShouldBeNil)
		So(db, ShouldNotBeNil)

		defer db.Close()

		Convey("You can store and retrieve the statistics of a run", func() {
			runID := fmt.Sprintf("test_%d", time.Now().UnixNano())

			err = db.Store(runID, "truseq_dual", testStats())
			So(err, ShouldBeNil)

			rows, err := db.RowsForRun(runID)
			So(err, ShouldBeNil)
			So(rows, ShouldResemble, Rows(runID, "truseq_dual", testStats()))

			rows, err = db.RowsForRun("invalid run")
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 0)
		})
	})
}
