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

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/anglerfish/adaptor"
	"github.com/wtsi-hgi/anglerfish/catalog"
	"github.com/wtsi-hgi/anglerfish/match"
	"github.com/wtsi-hgi/anglerfish/types"
)

const ErrCheckFailed = Error("samplesheet has barcode problems")

var checkMaxDist int

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a samplesheet's barcodes.",
	Long: `Check a samplesheet's barcodes.

Takes the same samplesheet options as the "run" sub-command, and reports how
samples would be grouped, and the smallest edit distance between the barcodes
of any two samples in each group.

Pairs of samples whose barcodes are no more than twice --max-distance edits
apart are warned about, since a read's index could then be equally close to
both and so be ambiguous. Samples that share a barcode, or have invalid
barcodes, are errors.
`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := checkMaxDistance(checkMaxDist); err != nil {
			die(err)
		}

		groups, err := loadSampleGroups()
		if err != nil {
			die(err)
		}

		problems := 0

		for _, g := range groups {
			problems += checkGroup(g)
		}

		if problems > 0 {
			die(ErrCheckFailed)
		}
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)

	addSampleFlags(checkCmd)

	checkCmd.Flags().IntVarP(&checkMaxDist, "max-distance", "m", appConfig.MaxDistance,
		"maximum edit distance you will demultiplex with")
}

// checkGroup prints a summary of the group and returns the number of errors
// found.
func checkGroup(g *adaptor.Group) int {
	if _, err := catalog.Build(g.Samples); err != nil {
		warnf("%s: %s", g.Name, err)

		return 1
	}

	closest := -1

	for i, a := range g.Samples {
		for _, b := range g.Samples[i+1:] {
			d := barcodeDistance(a, b)

			if closest == -1 || d < closest {
				closest = d
			}

			if d <= 2*checkMaxDist {
				warnf("%s: samples %s and %s have barcodes %s and %s only %d edits apart",
					g.Name, a.Name, b.Name, a.Barcode(), b.Barcode(), d)
			}
		}
	}

	cliPrint("%s\t%s\t%d samples\tminimum barcode distance %d\n", g.Name, g.ReadPath, len(g.Samples), closest)

	return 0
}

func barcodeDistance(a, b *types.Sample) int {
	d := 0

	for _, slot := range []types.Slot{types.Index1, types.Index2} {
		ia, _ := types.NormaliseSequence(a.Index(slot))
		ib, _ := types.NormaliseSequence(b.Index(slot))
		d += match.Distance(ia, ib)
	}

	return d
}
