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

// package cmd is the cobra file that enables subcommands and handles
// command-line args.

package cmd

import (
	"fmt"
	"os"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/anglerfish/config"
)

// appLogger is used for logging events in our commands.
var appLogger = log15.New()

// global options.
var verbose bool

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "anglerfish",
	Short: "anglerfish demultiplexes long reads carrying Illumina barcodes",
	Long: `anglerfish demultiplexes long reads carrying Illumina barcodes.

Nanopore reads of Illumina libraries have the Illumina adaptors, and so the
library's index sequences, within them. anglerfish aligns reads to the adaptors
with minimap2, extracts the index bases and assigns each read to the sample in
your samplesheet with the closest barcode, or to none if no sample is close
enough, or more than one sample is equally close.

Use the "check" sub-command to see if your samplesheet's barcodes are distinct
enough, then "run" to demultiplex. If you don't know which adaptors a pool's
reads carry, "explore" can find out.

Defaults can be set with ANGLERFISH_* environment variables, which can also be
in a .env file in the current directory: ANGLERFISH_MAX_DISTANCE,
ANGLERFISH_THREADS, ANGLERFISH_MINIMAP2, and to use Google Sheets or store stats
in MySQL, ANGLERFISH_CREDENTIALS_FILE, ANGLERFISH_SPREADSHEET_ID,
ANGLERFISH_SQL_USER, ANGLERFISH_SQL_PASS, ANGLERFISH_SQL_HOST,
ANGLERFISH_SQL_PORT and ANGLERFISH_SQL_DB.
`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			appLogger.SetHandler(log15.LvlFilterHandler(log15.LvlDebug, log15.StderrHandler))
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once to
// the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		die(err)
	}
}

func init() {
	// set up logging to stderr
	appLogger.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, log15.StderrHandler))

	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")
}

// appConfig is the config from the environment, loaded before flags are set up
// so that it can supply their defaults.
var appConfig = mustLoadConfig() //nolint:gochecknoglobals

func mustLoadConfig() *config.Config {
	c, err := config.FromEnv()
	if err != nil {
		die(err)
	}

	return c
}

// checkMaxDistance returns an error if the given --max-distance is negative.
func checkMaxDistance(maxDistance int) error {
	if maxDistance < 0 {
		return errors.Wrapf(config.ErrNegativeMaxDistance, "--max-distance %d", maxDistance)
	}

	return nil
}

// cliPrint outputs the message to STDOUT.
func cliPrint(msg string, a ...interface{}) {
	fmt.Fprintf(os.Stdout, msg, a...)
}

// infof is a convenience to log a message at the Info level.
func infof(msg string, a ...interface{}) {
	appLogger.Info(fmt.Sprintf(msg, a...))
}

// warnf is a convenience to log a message at the Warn level.
func warnf(msg string, a ...interface{}) {
	appLogger.Warn(fmt.Sprintf(msg, a...))
}

// die is a convenience to log an error at the Error level and exit non zero.
func die(err error) {
	appLogger.Error(err.Error())
	os.Exit(1)
}
