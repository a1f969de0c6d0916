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
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/shenwei356/xopen"
	"github.com/wtsi-hgi/anglerfish/paf"
)

// ReportFilename is the conventional name of the file WriteReport() output is
// saved to.
const ReportFilename = "anglerfish_explore.txt"

// WriteHistogram writes the end's insert length counts as CSV, shortest first.
func (e *EndResult) WriteHistogram(w io.Writer) error {
	counts := e.InsertLengths()

	lengths := make([]int, 0, len(counts))
	for length := range counts {
		lengths = append(lengths, length)
	}

	sort.Ints(lengths)

	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"insert_length", "count"}); err != nil {
		return err
	}

	for _, length := range lengths {
		if err := cw.Write([]string{strconv.Itoa(length), strconv.Itoa(counts[length])}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteEntropy writes relative entropies, as returned by
// EndResult.RelativeEntropy(), as CSV.
func WriteEntropy(w io.Writer, entropies []float64) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"position", "relative_entropy"}); err != nil {
		return err
	}

	for pos, e := range entropies {
		if err := cw.Write([]string{strconv.Itoa(pos), strconv.FormatFloat(e, 'f', 2, 64)}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteOutputs writes files to dir for each end with an index of an Included
// result: the insert length histogram to <adaptor>_<end>.hist.csv and, if the
// median insert is longer than opts.UMIThreshold, the relative entropy of the
// inserts to <adaptor>_<end>.entropy.csv. It returns the paths written.
func (r *Result) WriteOutputs(dir string, opts Options) ([]string, error) {
	if !r.Included {
		return nil, nil
	}

	var paths []string

	for _, e := range r.Ends() {
		if !e.HasIndex {
			continue
		}

		path := filepath.Join(dir, e.Target+histogramSuffix)
		if err := writeFile(path, e.WriteHistogram); err != nil {
			return paths, err
		}

		paths = append(paths, path)

		if e.MedianInsertLength() <= opts.UMIThreshold {
			continue
		}

		entropies := e.RelativeEntropy(opts.KmerLength)

		path = filepath.Join(dir, e.Target+entropySuffix)
		if err := writeFile(path, func(w io.Writer) error { return WriteEntropy(w, entropies) }); err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	w, err := xopen.Wopen(path)
	if err != nil {
		return err
	}

	if err = write(w); err != nil {
		w.Close()

		return err
	}

	return w.Close()
}

// WriteReport writes a table summarising the given results.
func WriteReport(w io.Writer, results []*Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0) //nolint:mnd

	fmt.Fprintln(tw, "adaptor\treads\tfragment\tsingleton\tconcat\tunknown\ti5 hits\ti7 hits\t"+
		"i5 median insert\ti7 median insert\tincluded")

	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t%t\n", r.Adaptor, r.Reads,
			r.Layouts[paf.LayoutFragment], r.Layouts[paf.LayoutSingleton],
			r.Layouts[paf.LayoutConcat], r.Layouts[paf.LayoutUnknown],
			r.I5.GoodHits, r.I7.GoodHits, medianCell(&r.I5), medianCell(&r.I7), r.Included)
	}

	return tw.Flush()
}

func medianCell(e *EndResult) string {
	if !e.HasIndex || len(e.Inserts) == 0 {
		return "-"
	}

	return strconv.FormatFloat(e.MedianInsertLength(), 'f', 1, 64)
}
