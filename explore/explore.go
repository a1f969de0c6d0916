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


// Package explore finds out which adaptors the reads of a pool carry, and
// what lies between the ends of those adaptors where an index is expected.
package explore

import (
	"bufio"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/wtsi-hgi/anglerfish/adaptor"
	"github.com/wtsi-hgi/anglerfish/paf"
	"github.com/wtsi-hgi/anglerfish/types"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrBadOptions = Error("invalid explore options")

	DefaultGoodHitThreshold = 0.9
	DefaultInsertMin        = 4
	DefaultInsertMax        = 30
	DefaultMismatchPenalty  = 4
	DefaultMinHits          = 500
	DefaultUMIThreshold     = 11
	DefaultKmerLength       = 2

	referenceSuffix = ".fasta"
	pafSuffix       = ".paf"
	histogramSuffix = ".hist.csv"
	entropySuffix   = ".entropy.csv"
	i5Name          = "i5"
	i7Name          = "i7"
	maxLineLength   = 16 * 1024 * 1024
	bases           = 4
)

var (
	// match, insert, match: the only differences to an unmasked end in a good
	// hit against an end with an index.
	mimRegex   = regexp.MustCompile(`^:([1-9][0-9]*)\+([acgtn]*):([1-9][0-9]*)$`)
	matchRegex = regexp.MustCompile(`^:([1-9][0-9]*)$`)
)

// Options configure an analysis.
type Options struct {
	// GoodHitThreshold is the fraction of an end's bases either side of its
	// index that must align exactly for a hit to be good.
	GoodHitThreshold float64

	// InsertMin and InsertMax bound the number of bases inserted at the index
	// position of a good hit.
	InsertMin int
	InsertMax int

	// MinHits is the number of good hits both ends of an adaptor need for
	// the adaptor to be considered present.
	MinHits int

	// UMIThreshold is the median insert length above which the inserts are
	// suspected to contain a UMI, and so have their relative entropy
	// calculated.
	UMIThreshold float64

	// KmerLength is the k-mer length used for relative entropy.
	KmerLength int

	// MinQual is the minimum mapping quality of alignments to consider.
	MinQual int

	// Logger is optional.
	Logger log15.Logger
}

// DefaultOptions returns Options with every value at its default.
func DefaultOptions() Options {
	return Options{
		GoodHitThreshold: DefaultGoodHitThreshold,
		InsertMin:        DefaultInsertMin,
		InsertMax:        DefaultInsertMax,
		MinHits:          DefaultMinHits,
		UMIThreshold:     DefaultUMIThreshold,
		KmerLength:       DefaultKmerLength,
		MinQual:          paf.DefaultMinQual,
	}
}

// Validate returns an ErrBadOptions if the options can't be used.
func (o Options) Validate() error {
	switch {
	case o.GoodHitThreshold < 0 || o.GoodHitThreshold > 1:
		return errors.Wrapf(ErrBadOptions, "good hit threshold %g not in 0..1", o.GoodHitThreshold)
	case o.InsertMin < 0 || o.InsertMax < o.InsertMin:
		return errors.Wrapf(ErrBadOptions, "insert range %d..%d", o.InsertMin, o.InsertMax)
	case o.KmerLength < 1:
		return errors.Wrapf(ErrBadOptions, "k-mer length %d", o.KmerLength)
	}

	return nil
}

func (o Options) logger() log15.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	l := log15.New()
	l.SetHandler(log15.DiscardHandler())

	return l
}

// ReferencePath returns the path in dir of the unmasked reference for the
// adaptor.
func ReferencePath(dir string, a *adaptor.Adaptor) string {
	return filepath.Join(dir, a.Name+referenceSuffix)
}

// PAFPath returns the path in dir of the alignments against the adaptor's
// unmasked reference.
func PAFPath(dir string, a *adaptor.Adaptor) string {
	return filepath.Join(dir, a.Name+pafSuffix)
}

// EndResult holds the good hits against one end of an adaptor.
type EndResult struct {
	Name     string
	Target   string
	HasIndex bool
	GoodHits int

	// Inserts are the upper-cased bases found at the index position of each
	// good hit, if the end has an index.
	Inserts []string
}

// InsertLengths returns a count of good hits per insert length.
func (e *EndResult) InsertLengths() map[int]int {
	counts := make(map[int]int)

	for _, insert := range e.Inserts {
		counts[len(insert)]++
	}

	return counts
}

// MedianInsertLength returns the median length of the inserts, or 0 if there
// are none.
func (e *EndResult) MedianInsertLength() float64 {
	if len(e.Inserts) == 0 {
		return 0
	}

	lengths := make([]int, len(e.Inserts))
	for i, insert := range e.Inserts {
		lengths[i] = len(insert)
	}

	sort.Ints(lengths)

	mid := len(lengths) / 2 //nolint:mnd
	if len(lengths)%2 == 1 {
		return float64(lengths[mid])
	}

	return float64(lengths[mid-1]+lengths[mid]) / 2 //nolint:mnd
}

// RelativeEntropy returns, for each k-mer position along the first
// floor(median) bases of the inserts at least that long, the relative entropy
// in bits of the k-mers found there against a uniform background. Positions
// with a fixed sequence (an index shared by many reads) score near 2k, and
// random sequence (a UMI) near 0.
func (e *EndResult) RelativeEntropy(k int) []float64 {
	length := int(e.MedianInsertLength())
	if k < 1 || length < k {
		return nil
	}

	positions := length - k + 1
	counts := make([]map[string]int, positions)
	totals := make([]int, positions)

	for i := range counts {
		counts[i] = make(map[string]int)
	}

	for _, insert := range e.Inserts {
		if len(insert) < length {
			continue
		}

		for pos := range positions {
			kmer := insert[pos : pos+k]
			if strings.Contains(kmer, "N") {
				continue
			}

			counts[pos][kmer]++
			totals[pos]++
		}
	}

	background := 1 / math.Pow(bases, float64(k))
	entropies := make([]float64, positions)

	for pos, kmers := range counts {
		for _, n := range kmers {
			p := float64(n) / float64(totals[pos])
			entropies[pos] += p * math.Log2(p/background)
		}
	}

	return entropies
}

// Result is the analysis of the alignments of reads to one adaptor.
type Result struct {
	Adaptor  string
	Reads    int
	Layouts  map[string]int
	I5       EndResult
	I7       EndResult
	Included bool
}

// Ends returns the i5 and i7 results.
func (r *Result) Ends() []*EndResult {
	return []*EndResult{&r.I5, &r.I7}
}

type hitKey struct {
	read   string
	target string
	strand byte
}

// alignments are the alignments of a PAF file, both per read and the best
// per read, target and strand, in order of appearance.
type alignments struct {
	best   map[hitKey]paf.Alignment
	keys   []hitKey
	byRead map[string][]paf.Alignment
	reads  []string
}

func (al *alignments) add(aln paf.Alignment) {
	if _, seen := al.byRead[aln.Read]; !seen {
		al.reads = append(al.reads, aln.Read)
	}

	al.byRead[aln.Read] = append(al.byRead[aln.Read], aln)

	key := hitKey{read: aln.Read, target: aln.Target, strand: aln.Strand}

	prev, seen := al.best[key]
	if !seen {
		al.keys = append(al.keys, key)
	}

	if !seen || aln.MapQ > prev.MapQ {
		al.best[key] = aln
	}
}

type hit struct {
	read   string
	match  int
	insert string
}

// AnalyseFile calls Analyse() on the (possibly compressed) PAF file at path.
func AnalyseFile(path string, a *adaptor.Adaptor, opts Options) (*Result, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Analyse(r, a, opts)
}

// Analyse reads alignments of reads against the adaptor's unmasked reference
// (see Adaptor.WriteUnmaskedReference()) and counts the good hits against
// each end.
//
// Only the best quality alignment of each read to each end and strand is
// considered. For an end with an index, a good hit aligns exactly either side
// of a single insertion at the index position, with at least
// GoodHitThreshold of the bases before and after the index aligned, and an
// insertion length within InsertMin..InsertMax. For an end without an index,
// a good hit is an exact match of at least GoodHitThreshold of the end. Each
// read counts at most once per end.
//
// The adaptor is Included if both ends have at least MinHits good hits. The
// layout of every read's alignments is also counted.
func Analyse(r io.Reader, a *adaptor.Adaptor, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	al, err := readAlignments(r, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Adaptor: a.Name,
		Reads:   len(al.reads),
		Layouts: make(map[string]int),
		I5:      endResult(a, types.Index2, i5Name, al, opts),
		I7:      endResult(a, types.Index1, i7Name, al, opts),
	}

	i5 := adaptor.TargetName(a.Name, types.Index2)
	i7 := adaptor.TargetName(a.Name, types.Index1)

	for _, read := range al.reads {
		layout, _ := paf.Classify(al.byRead[read], i5, i7)
		res.Layouts[layout]++
	}

	res.Included = min(res.I5.GoodHits, res.I7.GoodHits) >= opts.MinHits

	opts.logger().Info("explored adaptor", "adaptor", a.Name, "reads", res.Reads,
		"i5_hits", res.I5.GoodHits, "i7_hits", res.I7.GoodHits, "included", res.Included)

	return res, nil
}

func readAlignments(r io.Reader, opts Options) (*alignments, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength) //nolint:mnd

	al := &alignments{
		best:   make(map[hitKey]paf.Alignment),
		byRead: make(map[string][]paf.Alignment),
	}

	for scanner.Scan() {
		aln, err := paf.ParseLine(scanner.Text())
		if err != nil {
			opts.logger().Debug("skipping PAF line", "err", err)

			continue
		}

		if aln.MapQ < opts.MinQual {
			continue
		}

		al.add(aln)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return al, nil
}

func endResult(a *adaptor.Adaptor, slot types.Slot, name string, al *alignments, opts Options) EndResult {
	end := a.End(slot)
	er := EndResult{Name: name, Target: adaptor.TargetName(a.Name, slot), HasIndex: end.HasIndex}

	perRead := make(map[string]hit)

	var order []string

	for _, key := range al.keys {
		if key.target != er.Target {
			continue
		}

		h, ok := goodHit(al.best[key], end, opts)
		if !ok {
			continue
		}

		prev, seen := perRead[h.read]
		if !seen {
			order = append(order, h.read)
		}

		if !seen || h.match > prev.match {
			perRead[h.read] = h
		}
	}

	er.GoodHits = len(order)

	if end.HasIndex {
		er.Inserts = make([]string, len(order))
		for i, read := range order {
			er.Inserts[i] = perRead[read].insert
		}
	}

	return er
}

func goodHit(aln paf.Alignment, end adaptor.End, opts Options) (hit, bool) {
	h := hit{read: aln.Read}

	if !end.HasIndex {
		m := matchRegex.FindStringSubmatch(aln.CS)
		if m == nil {
			return h, false
		}

		h.match, _ = strconv.Atoi(m[1])

		return h, h.match >= threshold(len(end.Construct), opts.GoodHitThreshold)
	}

	m := mimRegex.FindStringSubmatch(aln.CS)
	if m == nil {
		return h, false
	}

	h.match, _ = strconv.Atoi(m[1])
	after, _ := strconv.Atoi(m[3])
	h.insert = strings.ToUpper(m[2])

	return h, h.match >= threshold(len(end.Before), opts.GoodHitThreshold) &&
		after >= threshold(len(end.After), opts.GoodHitThreshold) &&
		len(h.insert) >= opts.InsertMin && len(h.insert) <= opts.InsertMax
}

func threshold(length int, fraction float64) int {
	return int(math.Round(float64(length) * fraction))
}
