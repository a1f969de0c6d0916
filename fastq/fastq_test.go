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

package fastq

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/wtsi-hgi/anglerfish/assign"
	"github.com/wtsi-hgi/anglerfish/demux"
)

const testFastq = "@r1 runid=abc\nAAAACCCCGGGGTTTT\n+\nABCDEFGHIJKLMNOP\n" +
	"@r2\nACGTACGTACGT\n+\nIIIIIIIIIIII\n" +
	"@r3\nTTTTTTTT\n+\nIIIIIIII\n"

type readRecord struct {
	Name string
	Seq  string
	Qual string
}

func readAll(path string) []readRecord {
	reader, err := fastx.NewDefaultReader(path)
	So(err, ShouldBeNil)

	defer reader.Close()

	var records []readRecord

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		So(err, ShouldBeNil)

		records = append(records, readRecord{
			Name: string(record.Name),
			Seq:  string(record.Seq.Seq),
			Qual: string(record.Seq.Qual),
		})
	}

	return records
}

func TestRouter(t *testing.T) {
	Convey("Given reads routed to samples", t, func() {
		inDir := t.TempDir()
		outDir := t.TempDir()

		So(os.WriteFile(filepath.Join(inDir, "a.fastq"), []byte(testFastq), 0600), ShouldBeNil)

		f, err := os.Create(filepath.Join(inDir, "b.fastq.gz"))
		So(err, ShouldBeNil)

		gz := gzip.NewWriter(f)
		_, err = gz.Write([]byte("@r4 x\nGGGGAAAACCCC\n+\n123456789012\n"))
		So(err, ShouldBeNil)
		So(gz.Close(), ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		router := NewRouter(outDir, nil)

		route := func(id, sample string, outcome assign.Outcome, start, end int) {
			err := router.Route(
				assign.Assignment{ReadID: id, Outcome: outcome, Sample: sample},
				demux.Read{ID: id, InsertStart: start, InsertEnd: end},
			)
			So(err, ShouldBeNil)
		}

		route("r1", "s1", assign.Assigned, 4, 12)
		route("r2", "s2", assign.Ambiguous, 4, 8)
		route("r3", "s2", assign.Assigned, 0, 0)
		route("r4", "s1", assign.Assigned, 4, 100)
		route("r5", "s2", assign.Assigned, 1, 3)

		So(router.Len(), ShouldEqual, 3)

		Convey("You can write their inserts to per-sample files", func() {
			counts, err := router.Write(filepath.Join(inDir, "*.fastq*"))
			So(err, ShouldBeNil)
			So(counts, ShouldResemble, map[string]int{"s1": 2})

			path := router.OutputPath("s1")
			So(path, ShouldEqual, filepath.Join(outDir, "s1.fastq.gz"))

			So(readAll(path), ShouldResemble, []readRecord{
				{Name: "r1_s1 runid=abc", Seq: "CCCCGGGG", Qual: "EFGHIJKL"},
				{Name: "r4_s1 x", Seq: "AAAACCCC", Qual: "56789012"},
			})

			_, err = os.Stat(router.OutputPath("s2"))
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("Writing fails without input files", func() {
			_, err := router.Write(filepath.Join(inDir, "*.fq"))
			So(errors.Cause(err), ShouldEqual, ErrNoFastqs)
		})
	})
}
