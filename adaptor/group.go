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

package adaptor

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"github.com/wtsi-hgi/anglerfish/types"
)

const (
	ErrKitMismatch = Error("sample index count doesn't match adaptor")

	referenceSuffix = ".fasta"
	pafSuffix       = ".paf"
	i5Suffix        = "_i5"
	i7Suffix        = "_i7"
)

// Group is a set of samples that share an adaptor, a reads file and index
// lengths, so that their reads can be aligned against a single reference.
type Group struct {
	Name     string
	Adaptor  *Adaptor
	ReadPath string
	Samples  []*types.Sample
}

// GroupSamples groups the given samples, in order of first appearance. Groups
// are named after their adaptor, with a numeric suffix for the second and
// subsequent groups of the same adaptor.
func GroupSamples(samples []*types.Sample, set Set) ([]*Group, error) {
	var groups []*Group

	lookup := make(map[string]*Group)
	perAdaptor := make(map[string]int)

	for _, s := range samples {
		a, err := set.Get(s.Adaptor)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %s", s.Name)
		}

		if a.Kit() != s.Kit {
			return nil, errors.Wrapf(ErrKitMismatch, "sample %s is %s but adaptor %s is %s",
				s.Name, s.Kit, a.Name, a.Kit())
		}

		key := fmt.Sprintf("%s\t%s\t%d\t%d", a.Name, s.ReadPath, len(s.Index1), len(s.Index2))

		g, ok := lookup[key]
		if !ok {
			perAdaptor[a.Name]++

			name := a.Name
			if n := perAdaptor[a.Name]; n > 1 {
				name = fmt.Sprintf("%s_%d", name, n)
			}

			g = &Group{Name: name, Adaptor: a, ReadPath: s.ReadPath}
			lookup[key] = g
			groups = append(groups, g)
		}

		g.Samples = append(g.Samples, s)
	}

	return groups, nil
}

// IndexLength returns the length of the group's barcodes for the given slot.
func (g *Group) IndexLength(slot types.Slot) int {
	if len(g.Samples) == 0 {
		return 0
	}

	return len(g.Samples[0].Index(slot))
}

// Target returns the reference sequence name used for the given slot's
// adaptor end.
func (g *Group) Target(slot types.Slot) string {
	return TargetName(g.Name, slot)
}

// TargetName returns the reference sequence name for the end of the named
// adaptor or group that carries the given slot.
func TargetName(name string, slot types.Slot) string {
	if slot == types.Index2 {
		return name + i5Suffix
	}

	return name + i7Suffix
}

// ReferencePath returns the path of the group's reference FASTA in dir.
func (g *Group) ReferencePath(dir string) string {
	return filepath.Join(dir, g.Name+referenceSuffix)
}

// PAFPath returns the path of the group's alignment output in dir.
func (g *Group) PAFPath(dir string) string {
	return filepath.Join(dir, g.Name+pafSuffix)
}

// WriteReference writes a FASTA file to dir containing the group's i5 and i7
// adaptor ends, with their index and UMI positions masked, and returns its
// path.
func (g *Group) WriteReference(dir string) (string, error) {
	path := g.ReferencePath(dir)

	err := writeFASTA(path, func(slot types.Slot) (string, string) {
		return g.Target(slot), g.Adaptor.End(slot).Reference(g.IndexLength(slot))
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

// WriteUnmaskedReference writes a FASTA file to path containing the adaptor's
// i5 and i7 ends with nothing in place of their indexes, named as per
// TargetName().
func (a *Adaptor) WriteUnmaskedReference(path string) error {
	return writeFASTA(path, func(slot types.Slot) (string, string) {
		return TargetName(a.Name, slot), a.End(slot).Unmasked()
	})
}

func writeFASTA(path string, entry func(slot types.Slot) (string, string)) error {
	w, err := xopen.Wopen(path)
	if err != nil {
		return err
	}

	for _, slot := range []types.Slot{types.Index2, types.Index1} {
		target, ref := entry(slot)
		name := []byte(target)

		record := &fastx.Record{
			ID:   name,
			Name: name,
			Seq:  &seq.Seq{Alphabet: seq.DNAredundant, Seq: []byte(ref)},
		}

		record.FormatToWriter(w, 0)
	}

	return w.Close()
}
