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

// Package fastq writes the inserts of assigned reads to per-sample FASTQ
// files.
package fastq

import (
	"bytes"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"github.com/wtsi-hgi/anglerfish/assign"
	"github.com/wtsi-hgi/anglerfish/demux"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNoFastqs = Error("no fastq files found")

	// OutputSuffix is appended to sample names to make output file names.
	OutputSuffix = ".fastq.gz"

	nameSeparator = "_"
)

type placement struct {
	sample string
	start  int
	end    int
}

// Router remembers which sample each assigned read belongs to, and where its
// insert is, so that the reads can later be written out with Write(). It
// implements demux.Router.
type Router struct {
	outDir   string
	logger   log15.Logger
	assigned map[string]placement
	mu       sync.Mutex
}

// NewRouter returns a Router that will write to outDir. logger is optional.
func NewRouter(outDir string, logger log15.Logger) *Router {
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	return &Router{
		outDir:   outDir,
		logger:   logger,
		assigned: make(map[string]placement),
	}
}

// Route notes reads assigned to a sample that have an insert. Other reads are
// ignored.
func (r *Router) Route(a assign.Assignment, read demux.Read) error {
	if a.Outcome != assign.Assigned || read.InsertEnd <= read.InsertStart {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.assigned[read.ID] = placement{sample: a.Sample, start: read.InsertStart, end: read.InsertEnd}

	return nil
}

// Len returns the number of reads routed so far.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.assigned)
}

// OutputPath returns the path Write() uses for the given sample.
func (r *Router) OutputPath(sample string) string {
	return filepath.Join(r.outDir, sample+OutputSuffix)
}

// Write reads the (possibly compressed) FASTQ files matching the glob and
// writes the insert of each routed read to its sample's file in the output
// directory, appending "_<sample>" to the read name. It returns the number of
// reads written per sample.
func (r *Router) Write(inputGlob string) (map[string]int, error) {
	paths, err := filepath.Glob(inputGlob)
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, errors.Wrapf(ErrNoFastqs, "%s", inputGlob)
	}

	sort.Strings(paths)

	r.mu.Lock()
	defer r.mu.Unlock()

	writers := make(map[string]*xopen.Writer)
	counts := make(map[string]int)

	for _, path := range paths {
		if err = r.writeFrom(path, writers, counts); err != nil {
			break
		}
	}

	for _, w := range writers {
		if errc := w.Close(); errc != nil && err == nil {
			err = errc
		}
	}

	return counts, err
}

func (r *Router) writeFrom(path string, writers map[string]*xopen.Writer, counts map[string]int) error {
	reader, err := fastx.NewDefaultReader(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer reader.Close()

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		p, ok := r.assigned[string(record.ID)]
		if !ok {
			continue
		}

		w, err := r.writer(p.sample, writers)
		if err != nil {
			return err
		}

		insert(record, p).FormatToWriter(w, 0)
		counts[p.sample]++
	}
}

func (r *Router) writer(sample string, writers map[string]*xopen.Writer) (*xopen.Writer, error) {
	if w, ok := writers[sample]; ok {
		return w, nil
	}

	path := r.OutputPath(sample)

	w, err := xopen.Wopen(path)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("writing sample reads", "path", path)
	writers[sample] = w

	return w, nil
}

// insert returns a new record holding just the placement's part of the given
// record, renamed for its sample.
func insert(record *fastx.Record, p placement) *fastx.Record {
	s := record.Seq.Seq
	start, end := min(p.start, len(s)), min(p.end, len(s))

	id := make([]byte, 0, len(record.ID)+len(nameSeparator)+len(p.sample))
	id = append(id, record.ID...)
	id = append(id, nameSeparator...)
	id = append(id, p.sample...)

	name := append([]byte(nil), id...)
	if bytes.HasPrefix(record.Name, record.ID) {
		name = append(name, record.Name[len(record.ID):]...)
	}

	out := &seq.Seq{Alphabet: record.Seq.Alphabet, Seq: append([]byte(nil), s[start:end]...)}

	if len(record.Seq.Qual) == len(s) {
		out.Qual = append([]byte(nil), record.Seq.Qual[start:end]...)
	}

	return &fastx.Record{ID: id, Name: name, Seq: out}
}
