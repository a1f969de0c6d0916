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

// Package paf turns minimap2 alignments of reads against adaptor references
// in to the index fragments of each read.
package paf

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/wtsi-hgi/anglerfish/adaptor"
	"github.com/wtsi-hgi/anglerfish/demux"
	"github.com/wtsi-hgi/anglerfish/match"
	"github.com/wtsi-hgi/anglerfish/types"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrTooFewColumns = Error("too few PAF columns")
	ErrBadColumn     = Error("invalid PAF column")

	DefaultMinQual   = 1
	DefaultMinInsert = 10

	LayoutFragment  = "fragment"
	LayoutSingleton = "singleton"
	LayoutConcat    = "concat"
	LayoutUnknown   = "unknown"

	minColumns    = 12
	csTagPrefix   = "cs:Z:"
	maxLineLength = 16 * 1024 * 1024
)

// Alignment is one line of a PAF file.
type Alignment struct {
	Read       string
	ReadLength int
	Start      int
	End        int
	Strand     byte
	Target     string
	MapQ       int
	CS         string
}

// ParseLine parses a tab-separated PAF line. The cs tag is optional.
func ParseLine(line string) (Alignment, error) {
	cols := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(cols) < minColumns {
		return Alignment{}, errors.Wrapf(ErrTooFewColumns, "%d", len(cols))
	}

	a := Alignment{Read: cols[0], Target: cols[5]}

	if len(cols[4]) != 1 {
		return a, errors.Wrapf(ErrBadColumn, "strand %q", cols[4])
	}

	a.Strand = cols[4][0]

	for _, f := range []struct {
		col int
		dst *int
	}{{1, &a.ReadLength}, {2, &a.Start}, {3, &a.End}, {11, &a.MapQ}} {
		n, err := strconv.Atoi(cols[f.col])
		if err != nil {
			return a, errors.Wrapf(ErrBadColumn, "column %d: %s", f.col+1, cols[f.col])
		}

		*f.dst = n
	}

	for _, tag := range cols[minColumns:] {
		if strings.HasPrefix(tag, csTagPrefix) {
			a.CS = strings.TrimPrefix(tag, csTagPrefix)
		}
	}

	return a, nil
}

// Classify works out the layout of a read's alignments against the i5 and i7
// targets. A read with a single alignment is a singleton; one with exactly
// one adjacent i5/i7 pair is a fragment, in which case the pair is also
// returned ordered by read position; more than one pair is a concat; anything
// else is unknown.
func Classify(alignments []Alignment, i5, i7 string) (string, []Alignment) {
	if len(alignments) == 1 {
		return LayoutSingleton, nil
	}

	sorted := append([]Alignment(nil), alignments...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var paired []int

	for k := 0; k+1 < len(sorted); k++ {
		if !isPair(sorted[k], sorted[k+1], i5, i7) {
			continue
		}

		if len(paired) == 0 || paired[len(paired)-1] != k {
			paired = append(paired, k)
		}

		paired = append(paired, k+1)
	}

	switch {
	case len(paired) == 2:
		return LayoutFragment, []Alignment{sorted[paired[0]], sorted[paired[1]]}
	case len(paired) > 2:
		return LayoutConcat, nil
	default:
		return LayoutUnknown, nil
	}
}

func isPair(a, b Alignment, i5, i7 string) bool {
	return (a.Target == i5 && b.Target == i7) || (a.Target == i7 && b.Target == i5)
}

// Options configure a Source.
type Options struct {
	// MinQual is the minimum mapping quality of alignments to consider.
	MinQual int

	// MinInsert is the minimum insert length between the adaptors of a
	// fragment for its index fragments to be extracted.
	MinInsert int

	// Logger is optional.
	Logger log15.Logger
}

// Source reads a PAF file sorted on read name and supplies the reads in it.
// It implements demux.FragmentSource.
type Source struct {
	group   *adaptor.Group
	i5      string
	i7      string
	opts    Options
	scanner *bufio.Scanner
	closer  io.Closer
	pending *Alignment
}

// Open opens a (possibly compressed) PAF file of alignments against the
// group's reference.
func Open(path string, g *adaptor.Group, opts Options) (*Source, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, err
	}

	s := NewSource(r, g, opts)
	s.closer = r

	return s, nil
}

// NewSource returns a Source that reads PAF lines from r.
func NewSource(r io.Reader, g *adaptor.Group, opts Options) *Source {
	if opts.Logger == nil {
		opts.Logger = log15.New()
		opts.Logger.SetHandler(log15.DiscardHandler())
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	return &Source{
		group:   g,
		i5:      g.Target(types.Index2),
		i7:      g.Target(types.Index1),
		opts:    opts,
		scanner: scanner,
	}
}

// Next returns the next read, or io.EOF when there are no more.
func (s *Source) Next() (demux.Read, error) {
	alignments, err := s.nextAlignments()
	if err != nil {
		return demux.Read{}, err
	}

	return s.read(alignments), nil
}

func (s *Source) nextAlignments() ([]Alignment, error) {
	var alignments []Alignment

	if s.pending != nil {
		alignments = append(alignments, *s.pending)
		s.pending = nil
	}

	for s.scanner.Scan() {
		a, err := ParseLine(s.scanner.Text())
		if err != nil {
			s.opts.Logger.Debug("skipping PAF line", "err", err)

			continue
		}

		if a.MapQ < s.opts.MinQual {
			s.opts.Logger.Debug("low quality alignment", "read", a.Read, "mapq", a.MapQ)

			continue
		}

		if len(alignments) > 0 && a.Read != alignments[0].Read {
			s.pending = &a

			return alignments, nil
		}

		alignments = append(alignments, a)
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}

	if len(alignments) == 0 {
		return nil, io.EOF
	}

	return alignments, nil
}

func (s *Source) read(alignments []Alignment) demux.Read {
	layout, pair := Classify(alignments, s.i5, s.i7)
	r := demux.Read{ID: alignments[0].Read, Layout: layout}

	if layout != LayoutFragment {
		s.opts.Logger.Debug("not a fragment", "read", r.ID, "layout", layout)

		return r
	}

	i5, i7 := pair[0], pair[1]
	if i5.Target != s.i5 {
		i5, i7 = i7, i5
	}

	r.InsertStart = min(i5.End, i7.End)
	r.InsertEnd = max(i5.Start, i7.Start)

	if r.InsertEnd-r.InsertStart < s.opts.MinInsert {
		s.opts.Logger.Debug("insert too short", "read", r.ID, "length", r.InsertEnd-r.InsertStart)

		return r
	}

	r.Fragments = match.Fragments{{
		Slot:     types.Index1,
		Sequence: s.group.Adaptor.I7.Extract(i7.CS),
		Strand:   i7.Strand,
	}}

	if s.group.Adaptor.I5.HasIndex {
		r.Fragments = append(r.Fragments, match.Fragment{
			Slot:     types.Index2,
			Sequence: s.group.Adaptor.I5.Extract(i5.CS),
			Strand:   i5.Strand,
		})
	}

	return r
}

// Close closes the underlying file if the Source was made with Open().
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}
