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
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/anglerfish/adaptor"
	"github.com/wtsi-hgi/anglerfish/demux"
	"github.com/wtsi-hgi/anglerfish/fastq"
	"github.com/wtsi-hgi/anglerfish/paf"
	"github.com/wtsi-hgi/anglerfish/stats"
	"github.com/wtsi-hgi/anglerfish/statsdb"
)

const (
	ErrPAFCount   = Error("--paf must be given once per adaptor group")
	ErrNoSQLConf  = Error("--store requires the ANGLERFISH_SQL_* settings")
	jsonFilename  = "anglerfish_stats.json"
	dirPerm       = 0755
	outputFlag    = "output"
	minQualFlag   = "min-qual"
	minInsertFlag = "min-insert"
)

// options for this cmd.
var (
	runOutput      string
	runMaxDistance int
	runThreads     int
	runJSON        bool
	runStore       bool
	runID          string
	runMinQual     int
	runMinInsert   int
	runPAFs        []string
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Demultiplex reads.",
	Long: `Demultiplex reads.

minimap2 must be in your PATH (or configured with ANGLERFISH_MINIMAP2), unless
you supply existing alignments with --paf.

Provide a samplesheet with -s, a CSV file with columns:
sample_name,adaptor,index,fastq_path

where adaptor is the name of a built-in adaptor (see the "adaptors"
sub-command) or one in the JSON file given with --adaptors, index is the i7
index sequence, or i7-i5 for dual index adaptors, and fastq_path is a glob of
the (possibly gzipped) FASTQ files the sample's reads are in. Alternatively, use
--sheet to read the same columns from a Google sheet.

Samples are grouped by adaptor, FASTQ glob and index lengths. Each group's reads
are aligned to its adaptors, and each read with a single i5-i7 adaptor pair
around an insert is assigned to the sample whose barcode is within
--max-distance edits of the index bases found in the read, and closer than any
other sample's.

The inserts of assigned reads are written to <sample>.fastq.gz files in the -o
output directory, which will be created if it doesn't exist. Statistics are
written to anglerfish_stats.txt (and anglerfish_stats.json with --json) there,
and can also be stored in MySQL with --store.
`,
	Run: func(_ *cobra.Command, _ []string) {
		if err := demultiplex(context.Background()); err != nil {
			die(err)
		}
	},
}

func init() {
	RootCmd.AddCommand(runCmd)

	addSampleFlags(runCmd)

	// flags specific to this sub-command
	runCmd.Flags().StringVarP(&runOutput, outputFlag, "o", "",
		"output directory")
	markFlagRequired(runCmd, outputFlag)
	runCmd.Flags().IntVarP(&runMaxDistance, "max-distance", "m", appConfig.MaxDistance,
		"maximum edit distance between an index and a sample's barcode")
	runCmd.Flags().IntVarP(&runThreads, "threads", "t", appConfig.Threads,
		"number of threads for minimap2 and read assignment")
	runCmd.Flags().BoolVar(&runJSON, "json", false,
		"also write statistics as JSON")
	runCmd.Flags().BoolVar(&runStore, "store", false,
		"store statistics in the configured MySQL database")
	runCmd.Flags().StringVar(&runID, "run-id", "",
		"run name for stored statistics [default: output directory name]")
	runCmd.Flags().IntVar(&runMinQual, minQualFlag, paf.DefaultMinQual,
		"minimum mapping quality of adaptor alignments")
	runCmd.Flags().IntVar(&runMinInsert, minInsertFlag, paf.DefaultMinInsert,
		"minimum insert length between adaptors")
	runCmd.Flags().StringSliceVar(&runPAFs, "paf", nil,
		"existing minimap2 alignments to use, one per adaptor group in order")
}

func demultiplex(ctx context.Context) error {
	if err := checkMaxDistance(runMaxDistance); err != nil {
		return err
	}

	groups, err := loadGroups()
	if err != nil {
		return err
	}

	if len(runPAFs) > 0 && len(runPAFs) != len(groups) {
		return errors.Wrapf(ErrPAFCount, "%d groups, %d PAFs", len(groups), len(runPAFs))
	}

	if err = createOutputDir(runOutput); err != nil {
		return err
	}

	results := make([]stats.Group, 0, len(groups))

	for i, g := range groups {
		pafPath, err := alignments(g, i)
		if err != nil {
			return err
		}

		r, err := demultiplexGroup(ctx, g, pafPath)
		if err != nil {
			return errors.Wrapf(err, "group %s", g.Name)
		}

		results = append(results, stats.Group{Name: g.Name, Stats: r})
	}

	if err = writeReports(results); err != nil {
		return err
	}

	if runStore {
		return storeStats(results)
	}

	return nil
}

func createOutputDir(outputDir string) error {
	if _, err := os.Stat(outputDir); err != nil {
		return createDirIfNotExist(outputDir, err)
	}

	return nil
}

func createDirIfNotExist(dir string, statErr error) error {
	if !os.IsNotExist(statErr) {
		return statErr
	}

	return os.MkdirAll(dir, dirPerm)
}

// alignments returns the path to the group's PAF file, running minimap2 to
// create it if PAFs weren't supplied.
func alignments(g catalogedGroup, i int) (string, error) {
	if len(runPAFs) > 0 {
		return runPAFs[i], nil
	}

	ref, err := g.WriteReference(runOutput)
	if err != nil {
		return "", err
	}

	pafPath := g.PAFPath(runOutput)
	cmd := adaptor.NewMinimap2(appConfig.Minimap2, runThreads).Command(ref, g.ReadPath, pafPath)

	infof("aligning reads for %s:\n%s", g.Name, cmd)

	if err = executeCmd(cmd); err != nil {
		return "", errors.Wrapf(err, "minimap2 for %s", g.Name)
	}

	return pafPath, nil
}

func executeCmd(cmd string) error {
	execCmd := exec.Command("bash", "-c", "set -o pipefail; "+cmd)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr

	return execCmd.Run()
}

func demultiplexGroup(ctx context.Context, g catalogedGroup, pafPath string) (stats.RunStatistics, error) {
	src, err := paf.Open(pafPath, g.Group, paf.Options{
		MinQual:   runMinQual,
		MinInsert: runMinInsert,
		Logger:    appLogger.New("group", g.Name),
	})
	if err != nil {
		return stats.RunStatistics{}, err
	}
	defer src.Close()

	agg := stats.New(g.catalog)
	router := fastq.NewRouter(runOutput, appLogger)

	d := demux.New(g.catalog, agg, demux.Options{
		MaxDistance: runMaxDistance,
		Threads:     runThreads,
		Router:      router,
		Logger:      appLogger.New("group", g.Name),
	})

	n, err := d.Run(ctx, src)
	if err != nil {
		return stats.RunStatistics{}, err
	}

	infof("%s: assigned %d of %d aligned reads", g.Name, router.Len(), n)

	if router.Len() > 0 {
		counts, err := router.Write(g.ReadPath)
		if err != nil {
			return stats.RunStatistics{}, err
		}

		for sample, count := range counts {
			infof("wrote %d reads to %s", count, router.OutputPath(sample))
		}
	}

	r := agg.Finalize()

	for _, s := range r.Samples {
		if s.Reads == 0 {
			warnf("%s: no reads assigned to sample %s", g.Name, s.Name)
		}
	}

	return r, nil
}

func writeReports(results []stats.Group) error {
	reportPath := filepath.Join(runOutput, stats.ReportFilename)

	if err := writeFile(reportPath, func(f *os.File) error { return stats.WriteReport(f, results) }); err != nil {
		return err
	}

	infof("wrote statistics to %s", reportPath)

	if !runJSON {
		return nil
	}

	jsonPath := filepath.Join(runOutput, jsonFilename)

	return writeFile(jsonPath, func(f *os.File) error { return stats.WriteJSON(f, results) })
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = write(f); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

func storeStats(results []stats.Group) error {
	if !appConfig.HasSQL() {
		return ErrNoSQLConf
	}

	db, err := statsdb.New(appConfig.MySQLConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	id := runID
	if id == "" {
		id = filepath.Base(filepath.Clean(runOutput))
	}

	for _, g := range results {
		if err = db.Store(id, g.Name, g.Stats); err != nil {
			return err
		}
	}

	infof("stored statistics for run %s", id)

	return nil
}

func markFlagRequired(cmd *cobra.Command, flagName string) {
	if err := cmd.MarkFlagRequired(flagName); err != nil {
		die(err)
	}
}
