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
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/anglerfish/adaptor"
	"github.com/wtsi-hgi/anglerfish/explore"
	"github.com/wtsi-hgi/anglerfish/paf"
	"golang.org/x/sync/errgroup"
)

const ErrOutputExists = Error("output directory already exists; use --use-existing to continue")

// options for this cmd.
var (
	exploreFastq       string
	exploreOutput      string
	exploreThreads     int
	exploreUseExisting bool
	exploreMismatch    int
)

var exploreOpts = explore.DefaultOptions() //nolint:gochecknoglobals

// exploreCmd represents the explore command.
var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Find out which adaptors reads carry.",
	Long: `Find out which adaptors reads carry.

Aligns the reads in the -f FASTQ glob to every adaptor (the built-ins plus any in
--adaptors) without its index, so that whatever is at the index position of a
read shows up as an insertion. This needs no samplesheet, so you can use it to
find out what a pool contains.

A good hit against an adaptor end with an index aligns exactly apart from a
single insertion at the index position between --insert-min and --insert-max
bases long, with at least --good-hit-threshold of the bases either side of the
index aligned. Adaptors where both ends have at least --min-hits good hits are
included, and for their indexed ends an insert length histogram is written to
<adaptor>_<end>.hist.csv in the -o output directory. If the median insert is
longer than --umi-threshold, the inserts may contain a UMI, and the relative
entropy of their --kmer-length k-mers at each position is written to
<adaptor>_<end>.entropy.csv: fixed index positions have high entropy, and random
UMI positions low.

A summary of every adaptor, including how reads' alignments are laid out, is
written to anglerfish_explore.txt in the output directory.

With --use-existing, an existing output directory is used, and adaptors that
already have alignments there are not aligned again.
`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := exploreAdaptors(); err != nil {
			die(err)
		}
	},
}

func init() {
	RootCmd.AddCommand(exploreCmd)

	// flags specific to this sub-command
	exploreCmd.Flags().StringVarP(&exploreFastq, "fastq", "f", "",
		"glob of the (possibly gzipped) FASTQ files to explore")
	markFlagRequired(exploreCmd, "fastq")
	exploreCmd.Flags().StringVarP(&exploreOutput, outputFlag, "o", "",
		"output directory")
	markFlagRequired(exploreCmd, outputFlag)
	exploreCmd.Flags().StringVar(&adaptorsPath, adaptorsFlag, "",
		"JSON file of extra adaptor constructs")
	exploreCmd.Flags().IntVarP(&exploreThreads, "threads", "t", appConfig.Threads,
		"number of threads for minimap2 and alignment analysis")
	exploreCmd.Flags().BoolVarP(&exploreUseExisting, "use-existing", "e", false,
		"reuse an existing output directory and its alignments")
	exploreCmd.Flags().IntVar(&exploreMismatch, "minimap-b", explore.DefaultMismatchPenalty,
		"minimap2 mismatch penalty")
	exploreCmd.Flags().Float64Var(&exploreOpts.GoodHitThreshold, "good-hit-threshold",
		explore.DefaultGoodHitThreshold, "fraction of adaptor bases that must align for a good hit")
	exploreCmd.Flags().IntVar(&exploreOpts.InsertMin, "insert-min", explore.DefaultInsertMin,
		"minimum insert length of a good hit")
	exploreCmd.Flags().IntVar(&exploreOpts.InsertMax, "insert-max", explore.DefaultInsertMax,
		"maximum insert length of a good hit")
	exploreCmd.Flags().IntVar(&exploreOpts.MinHits, "min-hits", explore.DefaultMinHits,
		"good hits both ends of an adaptor need for it to be included")
	exploreCmd.Flags().Float64Var(&exploreOpts.UMIThreshold, "umi-threshold", explore.DefaultUMIThreshold,
		"median insert length above which relative entropy is calculated")
	exploreCmd.Flags().IntVar(&exploreOpts.KmerLength, "kmer-length", explore.DefaultKmerLength,
		"k-mer length for relative entropy")
	exploreCmd.Flags().IntVar(&exploreOpts.MinQual, minQualFlag, paf.DefaultMinQual,
		"minimum mapping quality of adaptor alignments")
}

func exploreAdaptors() error {
	opts := exploreOpts
	opts.Logger = appLogger

	if err := opts.Validate(); err != nil {
		return err
	}

	set, err := loadAdaptors()
	if err != nil {
		return err
	}

	if err = prepareExploreDir(); err != nil {
		return err
	}

	names := set.Names()
	adaptors := make([]*adaptor.Adaptor, len(names))

	for i, name := range names {
		adaptors[i] = set[name]

		if err = exploreAlignments(adaptors[i]); err != nil {
			return err
		}
	}

	results, err := analyseAlignments(adaptors, opts)
	if err != nil {
		return err
	}

	for _, r := range results {
		paths, err := r.WriteOutputs(exploreOutput, opts)
		if err != nil {
			return err
		}

		for _, path := range paths {
			infof("%s: wrote %s", r.Adaptor, path)
		}
	}

	reportPath := filepath.Join(exploreOutput, explore.ReportFilename)

	if err = writeFile(reportPath, func(f *os.File) error { return explore.WriteReport(f, results) }); err != nil {
		return err
	}

	infof("wrote summary to %s", reportPath)

	return nil
}

func prepareExploreDir() error {
	_, err := os.Stat(exploreOutput)
	if err == nil && !exploreUseExisting {
		return errors.Wrapf(ErrOutputExists, "%s", exploreOutput)
	}

	if err == nil {
		return nil
	}

	return createDirIfNotExist(exploreOutput, err)
}

// exploreAlignments runs minimap2 against the adaptor's unmasked reference,
// unless --use-existing was given and alignments already exist.
func exploreAlignments(a *adaptor.Adaptor) error {
	pafPath := explore.PAFPath(exploreOutput, a)

	if _, err := os.Stat(pafPath); err == nil && exploreUseExisting {
		infof("%s: using existing alignments %s", a.Name, pafPath)

		return nil
	}

	ref := explore.ReferencePath(exploreOutput, a)
	if err := a.WriteUnmaskedReference(ref); err != nil {
		return err
	}

	m := adaptor.NewMinimap2(appConfig.Minimap2, exploreThreads)
	m.MismatchPenalty = exploreMismatch
	cmd := m.Command(ref, exploreFastq, pafPath)

	infof("aligning reads to %s:\n%s", a.Name, cmd)

	return errors.Wrapf(executeCmd(cmd), "minimap2 for %s", a.Name)
}

func analyseAlignments(adaptors []*adaptor.Adaptor, opts explore.Options) ([]*explore.Result, error) {
	results := make([]*explore.Result, len(adaptors))

	var g errgroup.Group

	g.SetLimit(max(exploreThreads, 1))

	for i, a := range adaptors {
		g.Go(func() error {
			r, err := explore.AnalyseFile(explore.PAFPath(exploreOutput, a), a, opts)
			results[i] = r

			return errors.Wrapf(err, "adaptor %s", a.Name)
		})
	}

	return results, g.Wait()
}
