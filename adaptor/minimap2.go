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

import "fmt"

const (
	DefaultMinimap2        = "minimap2"
	DefaultThreads         = 4
	DefaultMatchScore      = 6
	DefaultMismatchPenalty = 1
	DefaultKmerSize        = 10
	DefaultMinChainScore   = 8
	DefaultWindowSize      = 5

	logSuffix = ".log"
)

// Minimap2 represents the parameters for aligning reads to adaptor references
// with minimap2. Using NewMinimap2() defaults the scoring parameters to values
// suited to short adaptor targets.
type Minimap2 struct {
	Exe             string
	Threads         int
	MatchScore      int
	MismatchPenalty int
	KmerSize        int
	MinChainScore   int
	WindowSize      int
}

// NewMinimap2 returns a Minimap2 using the given executable and threads.
func NewMinimap2(exe string, threads int) Minimap2 {
	if exe == "" {
		exe = DefaultMinimap2
	}

	if threads < 1 {
		threads = DefaultThreads
	}

	return Minimap2{
		Exe:             exe,
		Threads:         threads,
		MatchScore:      DefaultMatchScore,
		MismatchPenalty: DefaultMismatchPenalty,
		KmerSize:        DefaultKmerSize,
		MinChainScore:   DefaultMinChainScore,
		WindowSize:      DefaultWindowSize,
	}
}

// Command generates the shell command that aligns the reads matching the
// fastq glob to the reference, writing alignments with cs tags, sorted so
// that each read's alignments are consecutive, to the paf path. minimap2's
// stderr goes to the paf path plus ".log".
func (m Minimap2) Command(reference, fastq, paf string) string {
	return fmt.Sprintf("cat %s | %s --cs -c -A %d -B %d -k %d -m %d -w %d -t %d %s - 2> %s | sort > %s",
		fastq, m.Exe, m.MatchScore, m.MismatchPenalty, m.KmerSize, m.MinChainScore,
		m.WindowSize, m.Threads, reference, paf+logSuffix, paf)
}
