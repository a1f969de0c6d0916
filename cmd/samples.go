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
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/anglerfish/adaptor"
	"github.com/wtsi-hgi/anglerfish/catalog"
	"github.com/wtsi-hgi/anglerfish/samplesheet"
	"github.com/wtsi-hgi/anglerfish/sheets"
	"github.com/wtsi-hgi/anglerfish/types"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNoSamplesheet = Error("one of --samplesheet or --sheet is required")
	ErrNoSheetsConf  = Error("--sheet requires ANGLERFISH_CREDENTIALS_FILE and ANGLERFISH_SPREADSHEET_ID")

	samplesheetFlag = "samplesheet"
	sheetFlag       = "sheet"
	adaptorsFlag    = "adaptors"
)

// sample source options shared by sub-commands.
var (
	samplesheetPath string
	sheetName       string
	adaptorsPath    string
	i5Reversed      bool
	i7Reversed      bool
)

// catalogedGroup is a group of samples and the catalog of their barcodes.
type catalogedGroup struct {
	*adaptor.Group
	catalog *catalog.Catalog
}

// loadGroups builds a catalog for each of the loadSampleGroups().
func loadGroups() ([]catalogedGroup, error) {
	groups, err := loadSampleGroups()
	if err != nil {
		return nil, err
	}

	cgs := make([]catalogedGroup, len(groups))

	for i, g := range groups {
		c, err := catalog.Build(g.Samples)
		if err != nil {
			return nil, errors.Wrapf(err, "group %s", g.Name)
		}

		cgs[i] = catalogedGroup{Group: g, catalog: c}
	}

	return cgs, nil
}

// loadSampleGroups reads the samples from the samplesheet or Google sheet and
// groups them by adaptor.
func loadSampleGroups() ([]*adaptor.Group, error) {
	samples, err := loadSamples()
	if err != nil {
		return nil, err
	}

	for _, s := range samples {
		if i7Reversed {
			s.ReverseComplementIndex(types.Index1)
		}

		if i5Reversed {
			s.ReverseComplementIndex(types.Index2)
		}
	}

	set, err := loadAdaptors()
	if err != nil {
		return nil, err
	}

	return adaptor.GroupSamples(samples, set)
}

func loadSamples() ([]*types.Sample, error) {
	if sheetName != "" {
		return samplesFromSheet()
	}

	if samplesheetPath == "" {
		return nil, ErrNoSamplesheet
	}

	return samplesheet.ParseFile(samplesheetPath)
}

func samplesFromSheet() ([]*types.Sample, error) {
	if !appConfig.HasSheets() {
		return nil, ErrNoSheetsConf
	}

	s, err := sheets.NewFromConfig(appConfig)
	if err != nil {
		return nil, err
	}

	return s.Samples(appConfig.SheetID, sheetName)
}

func loadAdaptors() (adaptor.Set, error) {
	if adaptorsPath == "" {
		return adaptor.Builtin(), nil
	}

	return adaptor.Load(adaptorsPath)
}

// addSampleFlags adds the flags used by loadGroups() to the given command.
func addSampleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&samplesheetPath, samplesheetFlag, "s", "",
		"CSV samplesheet of sample_name,adaptor,index,fastq_path")
	cmd.Flags().StringVar(&sheetName, sheetFlag, "",
		"read the samplesheet from this sheet of the configured Google spreadsheet")
	cmd.Flags().StringVar(&adaptorsPath, adaptorsFlag, "",
		"JSON file of extra adaptor constructs")
	cmd.Flags().BoolVar(&i5Reversed, "i5-reversed", false,
		"samplesheet i5 indexes are reverse complemented")
	cmd.Flags().BoolVar(&i7Reversed, "i7-reversed", false,
		"samplesheet i7 indexes are reverse complemented")
}
