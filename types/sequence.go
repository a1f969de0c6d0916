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

package types

import "strings"

// NormaliseSequence upper-cases the given nucleotide sequence and reports
// whether it consists only of the bases A, C, G, T and N. Empty sequences are
// not valid.
func NormaliseSequence(seq string) (string, bool) {
	if seq == "" {
		return "", false
	}

	seq = strings.ToUpper(seq)

	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return seq, false
		}
	}

	return seq, true
}

// ReverseComplement returns the upper-cased reverse complement of seq. Bases
// other than A, C, G and T are kept as they are.
func ReverseComplement(seq string) string {
	seq = strings.ToUpper(seq)
	result := make([]byte, len(seq))

	for i, j := 0, len(seq)-1; j >= 0; i, j = i+1, j-1 {
		switch seq[j] {
		case 'A':
			result[i] = 'T'
		case 'T':
			result[i] = 'A'
		case 'G':
			result[i] = 'C'
		case 'C':
			result[i] = 'G'
		default:
			result[i] = seq[j]
		}
	}

	return string(result)
}
