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

// Package adaptor describes Illumina adaptor constructs, the alignment
// references made from them and how to extract index bases from alignments
// against those references.
package adaptor

import (
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/wtsi-hgi/anglerfish/types"
)

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidConstruct = Error("invalid adaptor construct")
	ErrNoIndex          = Error("adaptor i7 end has no index")
	ErrUnknownAdaptor   = Error("unknown adaptor")

	indexToken = "N"
	umiPrefix  = "U"
	maskBase   = "N"
)

var (
	tokenRegex    = regexp.MustCompile(`<(N|U\d+)>`)
	indexSubRegex = regexp.MustCompile(`\*n([acgt])`)
)

// End is one end (i5 or i7) of an adaptor. The construct is a sequence where
// <N> marks the index and tokens like <U8> mark a UMI of that length
// immediately before or after the index.
type End struct {
	Construct string
	Before    string
	After     string
	HasIndex  bool
	UMIBefore int
	UMIAfter  int
}

// ParseEnd parses a construct string.
func ParseEnd(construct string) (End, error) {
	e := End{Construct: construct}
	locs := tokenRegex.FindAllStringSubmatchIndex(construct, -1)

	if len(locs) == 0 {
		return e, checkBases(construct, construct)
	}

	e.Before = construct[:locs[0][0]]
	e.After = construct[locs[len(locs)-1][1]:]

	for i, loc := range locs {
		if i > 0 && locs[i-1][1] != loc[0] {
			return e, errors.Wrapf(ErrInvalidConstruct, "%s: tokens must be adjacent", construct)
		}

		if err := e.addToken(construct, construct[loc[2]:loc[3]]); err != nil {
			return e, err
		}
	}

	if !e.HasIndex {
		return e, errors.Wrapf(ErrInvalidConstruct, "%s: UMI without index", construct)
	}

	if err := checkBases(construct, e.Before); err != nil {
		return e, err
	}

	return e, checkBases(construct, e.After)
}

func (e *End) addToken(construct, token string) error {
	if token == indexToken {
		if e.HasIndex {
			return errors.Wrapf(ErrInvalidConstruct, "%s: more than one index", construct)
		}

		e.HasIndex = true

		return nil
	}

	length, err := strconv.Atoi(strings.TrimPrefix(token, umiPrefix))
	if err != nil || length < 1 {
		return errors.Wrapf(ErrInvalidConstruct, "%s: bad UMI %s", construct, token)
	}

	switch {
	case !e.HasIndex && e.UMIBefore == 0:
		e.UMIBefore = length
	case e.HasIndex && e.UMIAfter == 0:
		e.UMIAfter = length
	default:
		return errors.Wrapf(ErrInvalidConstruct, "%s: too many UMIs", construct)
	}

	return nil
}

func checkBases(construct, bases string) error {
	if bases == "" {
		return nil
	}

	if _, ok := types.NormaliseSequence(bases); !ok {
		return errors.Wrapf(ErrInvalidConstruct, "%s", construct)
	}

	return nil
}

// Reference returns the end's sequence with the index and any UMIs masked by
// runs of N, for an index of the given length.
func (e End) Reference(indexLength int) string {
	if !e.HasIndex {
		return strings.ToUpper(e.Construct)
	}

	mask := strings.Repeat(maskBase, e.UMIBefore+indexLength+e.UMIAfter)

	return strings.ToUpper(e.Before) + mask + strings.ToUpper(e.After)
}

// Unmasked returns the end's sequence with the index and UMI tokens removed,
// so that the bases found there in a read align as an insertion.
func (e End) Unmasked() string {
	if !e.HasIndex {
		return strings.ToUpper(e.Construct)
	}

	return strings.ToUpper(e.Before + e.After)
}

// Extract returns the index bases found in a minimap2 cs tag from an
// alignment of a read against this end's Reference(): the read bases
// substituted for the masked reference bases, with any UMI bases trimmed.
func (e End) Extract(cs string) string {
	var sb strings.Builder

	for _, m := range indexSubRegex.FindAllStringSubmatch(cs, -1) {
		sb.WriteString(m[1])
	}

	bases := sb.String()

	if e.UMIBefore > 0 {
		if len(bases) <= e.UMIBefore {
			return ""
		}

		bases = bases[e.UMIBefore:]
	}

	if e.UMIAfter > 0 {
		if len(bases) <= e.UMIAfter {
			return ""
		}

		bases = bases[:len(bases)-e.UMIAfter]
	}

	return strings.ToUpper(bases)
}

// Adaptor is a pair of i5 and i7 ends. The i7 end always carries an index,
// which is a sample's Index1; an i5 index is Index2.
type Adaptor struct {
	Name string
	I5   End
	I7   End
}

// New parses the given i5 and i7 constructs.
func New(name, i5, i7 string) (*Adaptor, error) {
	e5, err := ParseEnd(i5)
	if err != nil {
		return nil, errors.Wrapf(err, "adaptor %s i5", name)
	}

	e7, err := ParseEnd(i7)
	if err != nil {
		return nil, errors.Wrapf(err, "adaptor %s i7", name)
	}

	if !e7.HasIndex {
		return nil, errors.Wrapf(ErrNoIndex, "%s", name)
	}

	return &Adaptor{Name: name, I5: e5, I7: e7}, nil
}

// Kit returns dual if both ends carry an index, otherwise single.
func (a *Adaptor) Kit() types.KitType {
	if a.I5.HasIndex {
		return types.KitDual
	}

	return types.KitSingle
}

// End returns the end that carries the given index slot.
func (a *Adaptor) End(slot types.Slot) End {
	if slot == types.Index2 {
		return a.I5
	}

	return a.I7
}

// Set is a collection of adaptors keyed on name.
type Set map[string]*Adaptor

type constructs struct {
	I5 string `json:"i5"`
	I7 string `json:"i7"`
}

var builtins = map[string]constructs{ //nolint:gochecknoglobals
	"truseq": {
		I5: "AATGATACGGCGACCACCGAGATCTACACTCTTTCCCTACACGACGCTCTTCCGATCT",
		I7: "GATCGGAAGAGCACACGTCTGAACTCCAGTCAC<N>ATCTCGTATGCCGTCTTCTGCTTG",
	},
	"truseq_dual": {
		I5: "AATGATACGGCGACCACCGAGATCTACAC<N>ACACTCTTTCCCTACACGACGCTCTTCCGATCT",
		I7: "GATCGGAAGAGCACACGTCTGAACTCCAGTCAC<N>ATCTCGTATGCCGTCTTCTGCTTG",
	},
	"truseq_umi": {
		I5: "AATGATACGGCGACCACCGAGATCTACAC<N>ACACTCTTTCCCTACACGACGCTCTTCCGATCT",
		I7: "GATCGGAAGAGCACACGTCTGAACTCCAGTCAC<N><U9>ATCTCGTATGCCGTCTTCTGCTTG",
	},
	"nextera_dual": {
		I5: "AATGATACGGCGACCACCGAGATCTACAC<N>TCGTCGGCAGCGTC",
		I7: "CAAGCAGAAGACGGCATACGAGAT<N>GTCTCGTGGGCTCGG",
	},
}

// Builtin returns the standard adaptors.
func Builtin() Set {
	s, err := fromConstructs(builtins)
	if err != nil {
		panic(err)
	}

	return s
}

func fromConstructs(m map[string]constructs) (Set, error) {
	s := make(Set, len(m))

	for name, c := range m {
		a, err := New(name, c.I5, c.I7)
		if err != nil {
			return nil, err
		}

		s[name] = a
	}

	return s, nil
}

// Load returns the built-in adaptors plus those defined in the given JSON file,
// which is an object of names to objects with "i5" and "i7" construct strings.
// Adaptors in the file replace built-ins with the same name.
func Load(path string) (Set, error) {
	s := Builtin()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]constructs

	if err = json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing adaptors file %s", path)
	}

	extra, err := fromConstructs(m)
	if err != nil {
		return nil, err
	}

	for name, a := range extra {
		s[name] = a
	}

	return s, nil
}

// Get returns the named adaptor.
func (s Set) Get(name string) (*Adaptor, error) {
	a, ok := s[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAdaptor, "%s", name)
	}

	return a, nil
}

// Names returns the adaptor names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
