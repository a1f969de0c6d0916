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
)

// adaptorsCmd represents the adaptors command.
var adaptorsCmd = &cobra.Command{
	Use:   "adaptors",
	Short: "List adaptors.",
	Long: `List adaptors.

Shows the built-in adaptor constructs, plus any in the JSON file given with
--adaptors, which should look like:
{"my_adaptor": {"i5": "AATG<N>ACAC", "i7": "GATC<U8><N>ATCT"}}

In constructs, <N> is the index and <U8> is an 8 base UMI.
`,
	Run: func(_ *cobra.Command, _ []string) {
		set, err := loadAdaptors()
		if err != nil {
			die(err)
		}

		for _, name := range set.Names() {
			a := set[name]
			cliPrint("%s (%s)\n  i5: %s\n  i7: %s\n", name, a.Kit(), a.I5.Construct, a.I7.Construct)
		}
	},
}

func init() {
	RootCmd.AddCommand(adaptorsCmd)

	adaptorsCmd.Flags().StringVar(&adaptorsPath, adaptorsFlag, "",
		"JSON file of extra adaptor constructs")
}
