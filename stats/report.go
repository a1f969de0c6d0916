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

package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// ReportFilename is the conventional name of the file WriteReport() output
// is saved to.
const ReportFilename = "anglerfish_stats.txt"

// Group is the finalized statistics of one adaptor group of a run.
type Group struct {
	Name  string        `json:"name"`
	Stats RunStatistics `json:"stats"`
}

// WriteReport writes a human readable report of the given groups' statistics.
func WriteReport(w io.Writer, groups []Group) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0) //nolint:mnd

	for _, g := range groups {
		writeGroup(tw, g)
	}

	return tw.Flush()
}

func writeGroup(w io.Writer, g Group) {
	r := g.Stats

	fmt.Fprintf(w, "%s\n", g.Name)
	fmt.Fprintf(w, "reads:\t%d\n", r.Total)

	layouts := make([]string, 0, len(r.Layouts))
	for l := range r.Layouts {
		layouts = append(layouts, l)
	}

	sort.Strings(layouts)

	for _, l := range layouts {
		fmt.Fprintf(w, "%s:\t%d\n", l, r.Layouts[l])
	}

	fmt.Fprintf(w, "\nsample_name\tbarcode\t#reads\tmean_distance\tmax_distance\t#ambiguous_with\n")

	for _, s := range r.Samples {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%d\t%d\n",
			s.Name, s.Barcode, s.Reads, s.Distances.Mean(), s.Distances.Max(), s.AmbiguousWith)
	}

	fmt.Fprintf(w, "ambiguous\t\t%d\t%.2f\t%d\t\n",
		r.Ambiguous.Reads, r.Ambiguous.Distances.Mean(), r.Ambiguous.Distances.Max())
	fmt.Fprintf(w, "unmatched\t\t%d\t\t\t\n", r.Unmatched.Reads)

	if len(r.Unknowns) > 0 {
		fmt.Fprintf(w, "\nunknown_index\t#reads\n")

		for _, u := range r.Unknowns {
			fmt.Fprintf(w, "%s\t%d\n", u.Index, u.Reads)
		}
	}

	fmt.Fprintf(w, "\n")
}

// WriteJSON writes the given groups' statistics as indented JSON.
func WriteJSON(w io.Writer, groups []Group) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(groups)
}
