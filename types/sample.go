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

type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidKit         = Error("invalid kit type")
	ErrInvalidBarcodeSpec = Error("invalid barcode spec")

	// BarcodeSeparator joins index1 and index2 in a dual-index barcode spec.
	BarcodeSeparator = "-"
)

type KitType string

const (
	KitSingle KitType = "single"
	KitDual   KitType = "dual"
)

// StringToKitType converts a string to a KitType.
func StringToKitType(s string) (KitType, error) {
	switch KitType(strings.ToLower(s)) {
	case KitSingle:
		return KitSingle, nil
	case KitDual:
		return KitDual, nil
	default:
		return "", ErrInvalidKit
	}
}

// Slots returns the number of barcode slots a sample of this kit has.
func (k KitType) Slots() int {
	if k == KitDual {
		return 2
	}

	return 1
}

// Slot identifies which index of a barcode a sequence belongs to.
type Slot int

const (
	Index1 Slot = iota + 1
	Index2
)

func (s Slot) String() string {
	switch s {
	case Index1:
		return "index1"
	case Index2:
		return "index2"
	default:
		return "unknown"
	}
}

// Sample is one library in a pool, identified by its barcode(s).
type Sample struct {
	Name     string
	Adaptor  string
	Kit      KitType
	Index1   string
	Index2   string
	ReadPath string
}

// Index returns the sequence of the given slot, or blank if the sample has no
// such slot.
func (s *Sample) Index(slot Slot) string {
	switch slot {
	case Index1:
		return s.Index1
	case Index2:
		return s.Index2
	default:
		return ""
	}
}

// Barcode returns the sample's barcode spec, eg. "ACGT" or "ACGT-TTGA".
func (s *Sample) Barcode() string {
	if s.Kit == KitDual {
		return s.Index1 + BarcodeSeparator + s.Index2
	}

	return s.Index1
}

// Key returns a key that is unique for each distinct kit and barcode tuple.
func (s *Sample) Key() string {
	return string(s.Kit) + ":" + s.Barcode()
}

// Clone returns a copy of the sample.
func (s *Sample) Clone() *Sample {
	c := *s

	return &c
}

// ParseBarcodeSpec splits a barcode spec of the form "index1" or
// "index1-index2" in to its sequences, returning the implied KitType.
func ParseBarcodeSpec(spec string) (KitType, string, string, error) {
	parts := strings.Split(strings.TrimSpace(spec), BarcodeSeparator)

	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return "", "", "", ErrInvalidBarcodeSpec
		}

		return KitSingle, parts[0], "", nil
	case 2: //nolint:mnd
		if parts[0] == "" || parts[1] == "" {
			return "", "", "", ErrInvalidBarcodeSpec
		}

		return KitDual, parts[0], parts[1], nil
	default:
		return "", "", "", ErrInvalidBarcodeSpec
	}
}

// ReverseComplementIndex replaces the sequence of the given slot with its
// reverse complement. Absent slots are left blank.
func (s *Sample) ReverseComplementIndex(slot Slot) {
	switch slot {
	case Index1:
		s.Index1 = ReverseComplement(s.Index1)
	case Index2:
		s.Index2 = ReverseComplement(s.Index2)
	}
}
