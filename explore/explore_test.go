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


package explore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/anglerfish/adaptor"
	"github.com/wtsi-hgi/anglerfish/paf"
)

func pafLine(read string, start int, strand, target string, mapq int, cs string) string {
	return fmt.Sprintf("%s\t100\t%d\t%d\t%s\t%s\t62\t0\t62\t60\t62\t%d\tcs:Z:%s\n",
		read, start, start+20, strand, target, mapq, cs)
}

const (
	dualI5 = "truseq_dual_i5"
	dualI7 = "truseq_dual_i7"
)

var dualPAF = strings.Join([]string{ //nolint:gochecknoglobals
	pafLine("r1", 0, "+", dualI5, 60, ":29+acgtacgt:33"),
	pafLine("r1", 80, "+", dualI7, 60, ":33+ttttgggg:24"),
	pafLine("r2", 0, "+", dualI5, 10, ":29+aaaaaaaa:33"),
	pafLine("r2", 0, "+", dualI5, 60, ":29+acgtacga:33"),
	pafLine("r2", 80, "+", dualI7, 60, ":33+ttttggga:24"),
	pafLine("r3", 0, "+", dualI5, 60, ":10*ag:18+acgt:33"),
	pafLine("r3", 80, "+", dualI7, 60, ":20+tttt:24"),
	pafLine("r4", 80, "+", dualI7, 60, ":33+tttt:24"),
	pafLine("r5", 0, "+", dualI5, 0, ":29+acgtacgt:33"),
	pafLine("r6", 80, "+", dualI7, 60, ":33+"+strings.Repeat("t", 31)+":24"),
	pafLine("r7", 80, "+", dualI7, 60, ":33+tttttttt:24"),
	pafLine("r7", 10, "-", dualI7, 60, ":30+tttt:24"),
	"not a paf line\n",
}, "")

func TestAnalyse(t *testing.T) {
	set := adaptor.Builtin()

	Convey("Given alignments against the unmasked truseq_dual adaptor", t, func() {
		opts := DefaultOptions()
		opts.MinHits = 2

		r, err := Analyse(strings.NewReader(dualPAF), set["truseq_dual"], opts)
		So(err, ShouldBeNil)

		Convey("Reads with quality alignments are counted by layout", func() {
			So(r.Adaptor, ShouldEqual, "truseq_dual")
			So(r.Reads, ShouldEqual, 6)
			So(r.Layouts, ShouldResemble, map[string]int{
				paf.LayoutFragment:  3,
				paf.LayoutSingleton: 2,
				paf.LayoutUnknown:   1,
			})
		})

		Convey("Good hits are the best alignment per read, with a short insert between exact matches", func() {
			So(r.I5.Target, ShouldEqual, dualI5)
			So(r.I5.HasIndex, ShouldBeTrue)
			So(r.I5.GoodHits, ShouldEqual, 2)
			So(r.I5.Inserts, ShouldResemble, []string{"ACGTACGT", "ACGTACGA"})

			So(r.I7.GoodHits, ShouldEqual, 4)
			So(r.I7.Inserts, ShouldResemble, []string{"TTTTGGGG", "TTTTGGGA", "TTTT", "TTTTTTTT"})
			So(r.I7.InsertLengths(), ShouldResemble, map[int]int{4: 1, 8: 3})
			So(r.I7.MedianInsertLength(), ShouldEqual, 8)
			So(r.Ends(), ShouldResemble, []*EndResult{&r.I5, &r.I7})
		})

		Convey("The adaptor is included when both ends have enough good hits", func() {
			So(r.Included, ShouldBeTrue)

			opts.MinHits = 3
			r, err = Analyse(strings.NewReader(dualPAF), set["truseq_dual"], opts)
			So(err, ShouldBeNil)
			So(r.Included, ShouldBeFalse)
		})

		Convey("You can write histograms and, for long inserts, entropies", func() {
			dir := t.TempDir()

			paths, err := r.WriteOutputs(dir, opts)
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{
				filepath.Join(dir, "truseq_dual_i5.hist.csv"),
				filepath.Join(dir, "truseq_dual_i7.hist.csv"),
			})

			data, err := os.ReadFile(paths[1])
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "insert_length,count\n4,1\n8,3\n")

			opts.UMIThreshold = 7
			paths, err = r.WriteOutputs(dir, opts)
			So(err, ShouldBeNil)
			So(paths, ShouldHaveLength, 4)
			So(paths[1], ShouldEqual, filepath.Join(dir, "truseq_dual_i5.entropy.csv"))

			data, err = os.ReadFile(paths[1])
			So(err, ShouldBeNil)
			So(string(data), ShouldStartWith, "position,relative_entropy\n0,4.00\n")

			r.Included = false
			paths, err = r.WriteOutputs(dir, opts)
			So(err, ShouldBeNil)
			So(paths, ShouldBeEmpty)
		})

		Convey("You can write a summary report", func() {
			var buf bytes.Buffer

			So(WriteReport(&buf, []*Result{r}), ShouldBeNil)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 2)
			So(strings.Fields(lines[0])[0], ShouldEqual, "adaptor")
			So(strings.Fields(lines[1]), ShouldResemble,
				[]string{"truseq_dual", "6", "3", "2", "0", "1", "2", "4", "8.0", "8.0", "true"})
		})
	})

	Convey("Ends without an index need a long exact match", t, func() {
		r, err := Analyse(strings.NewReader(
			pafLine("r1", 0, "+", "truseq_i5", 60, ":58")+
				pafLine("r2", 0, "+", "truseq_i5", 60, ":50")+
				pafLine("r3", 0, "+", "truseq_i5", 60, ":55")+
				pafLine("r3", 80, "+", "truseq_i7", 60, ":33+acgtac:24"),
		), set["truseq"], DefaultOptions())
		So(err, ShouldBeNil)
		So(r.I5.HasIndex, ShouldBeFalse)
		So(r.I5.GoodHits, ShouldEqual, 2)
		So(r.I5.Inserts, ShouldBeNil)
		So(r.I7.GoodHits, ShouldEqual, 1)
		So(r.Included, ShouldBeFalse)

		var buf bytes.Buffer

		So(WriteReport(&buf, []*Result{r}), ShouldBeNil)
		So(strings.Fields(strings.Split(buf.String(), "\n")[1])[8], ShouldEqual, "-")
	})

	Convey("You can analyse a PAF file", t, func() {
		path := filepath.Join(t.TempDir(), "truseq_dual.paf")
		So(os.WriteFile(path, []byte(dualPAF), 0600), ShouldBeNil)

		r, err := AnalyseFile(path, set["truseq_dual"], DefaultOptions())
		So(err, ShouldBeNil)
		So(r.I7.GoodHits, ShouldEqual, 4)
		So(r.Included, ShouldBeFalse)

		_, err = AnalyseFile(path+".missing", set["truseq_dual"], DefaultOptions())
		So(err, ShouldNotBeNil)
	})

	Convey("Invalid options are rejected", t, func() {
		for _, mod := range []func(*Options){
			func(o *Options) { o.GoodHitThreshold = 1.5 },
			func(o *Options) { o.InsertMax = o.InsertMin - 1 },
			func(o *Options) { o.KmerLength = 0 },
		} {
			opts := DefaultOptions()
			mod(&opts)

			_, err := Analyse(strings.NewReader(dualPAF), set["truseq_dual"], opts)
			So(errors.Cause(err), ShouldEqual, ErrBadOptions)
		}
	})

	Convey("The file paths for an adaptor are in the given directory", t, func() {
		So(ReferencePath("/out", set["truseq"]), ShouldEqual, "/out/truseq.fasta")
		So(PAFPath("/out", set["truseq"]), ShouldEqual, "/out/truseq.paf")
	})
}

func TestRelativeEntropy(t *testing.T) {
	Convey("Fixed positions have high relative entropy and random ones none", t, func() {
		e := &EndResult{Inserts: []string{"ACGTAA", "ACGTCC", "ACGTGG", "ACGTTT", "ACG"}}
		So(e.MedianInsertLength(), ShouldEqual, 6)
		So(e.RelativeEntropy(1), ShouldResemble, []float64{2, 2, 2, 2, 0, 0})
		So(e.RelativeEntropy(2), ShouldResemble, []float64{4, 4, 4, 2, 2})
		So(e.RelativeEntropy(7), ShouldBeNil)
		So(e.RelativeEntropy(0), ShouldBeNil)
	})

	Convey("k-mers with an N are skipped", t, func() {
		e := &EndResult{Inserts: []string{"NNNN", "NNNN"}}
		So(e.RelativeEntropy(1), ShouldResemble, []float64{0, 0, 0, 0})
	})

	Convey("Without inserts there is no median", t, func() {
		e := &EndResult{}
		So(e.MedianInsertLength(), ShouldEqual, 0)
		So(e.RelativeEntropy(1), ShouldBeNil)
	})

	Convey("You can write entropies as CSV", t, func() {
		var buf bytes.Buffer

		So(WriteEntropy(&buf, []float64{2, 0.5}), ShouldBeNil)
		So(buf.String(), ShouldEqual, "position,relative_entropy\n0,2.00\n1,0.50\n")
	})
}
