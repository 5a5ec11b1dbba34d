// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package bitvec implements fixed-width bit vectors with unsigned and two's
// complement views of the same bit pattern.
package bitvec

import (
	"errors"
	"fmt"
	"strings"
)

// MaxWidth is the widest vector that can be represented.
const MaxWidth = 64

var ErrWidth = errors.New("Invalid bit vector width")

type InvalidBitError struct {
	Index    int
	Received rune
}

func (err *InvalidBitError) Error() string {
	return fmt.Sprintf("Invalid bit character %q at index %d", err.Received, err.Index)
}

type RangeError struct {
	Offset int
	Length int
	Width  int
}

func (err *RangeError) Error() string {
	return fmt.Sprintf(
		"Bit range exceeds vector\n\twant:[%d:%d) within %d bits",
		err.Offset,
		err.Offset+err.Length,
		err.Width,
	)
}

// BitVector is an ordered sequence of bits, most significant bit first. Its
// width is fixed when it is created; every store truncates to that width.
//
// BitVector is a value type: assigning it or returning it from a function
// yields an independent copy.
type BitVector struct {
	width int
	value uint64
}

func New(width int) (BitVector, error) {
	if width < 1 || width > MaxWidth {
		return BitVector{}, ErrWidth
	}

	return BitVector{width: width}, nil
}

// MustNew is like New but panics on an invalid width. It is meant for
// vectors whose width is a compile-time constant.
func MustNew(width int) BitVector {
	bv, err := New(width)

	if err != nil {
		panic(err)
	}

	return bv
}

// Parse builds a vector from a pattern of '0' and '1' characters. The width
// of the result is the length of the pattern.
func Parse(pattern string) (BitVector, error) {
	bv, err := New(len(pattern))

	if err != nil {
		return BitVector{}, err
	}

	for i, char := range pattern {
		bv.value <<= 1

		switch char {
		case '0':
		case '1':
			bv.value |= 1
		default:
			return BitVector{}, &InvalidBitError{i, char}
		}
	}

	return bv, nil
}

func FromUnsigned(width int, value uint64) (BitVector, error) {
	bv, err := New(width)

	if err != nil {
		return BitVector{}, err
	}

	bv.SetUnsigned(value)
	return bv, nil
}

func FromSigned(width int, value int64) (BitVector, error) {
	bv, err := New(width)

	if err != nil {
		return BitVector{}, err
	}

	bv.SetSigned(value)
	return bv, nil
}

func mask(width int) uint64 {
	if width >= MaxWidth {
		return ^uint64(0)
	}

	return (uint64(1) << width) - 1
}

func (bv BitVector) Width() int {
	return bv.width
}

func (bv *BitVector) SetUnsigned(value uint64) {
	bv.value = value & mask(bv.width)
}

func (bv *BitVector) SetSigned(value int64) {
	bv.value = uint64(value) & mask(bv.width)
}

func (bv BitVector) Unsigned() uint64 {
	return bv.value
}

func (bv BitVector) Signed() int64 {
	if bv.width == 0 || bv.width == MaxWidth {
		return int64(bv.value)
	}

	if (bv.value>>(bv.width-1))&0x1 == 1 {
		return int64(bv.value | ^mask(bv.width))
	}

	return int64(bv.value)
}

// Extract returns the length bits starting offset bits from the most
// significant end.
func (bv BitVector) Extract(offset, length int) (BitVector, error) {
	if offset < 0 || length < 1 || offset+length > bv.width {
		return BitVector{}, &RangeError{offset, length, bv.width}
	}

	shift := bv.width - offset - length

	return BitVector{
		width: length,
		value: (bv.value >> shift) & mask(length),
	}, nil
}

// Bit reports bit i, counted from the most significant end.
func (bv BitVector) Bit(i int) bool {
	if i < 0 || i >= bv.width {
		panic(&RangeError{i, 1, bv.width})
	}

	return (bv.value>>(bv.width-1-i))&0x1 == 1
}

func (bv *BitVector) Invert() {
	bv.value = ^bv.value & mask(bv.width)
}

func (bv BitVector) Copy() BitVector {
	return bv
}

func (bv BitVector) Equal(other BitVector) bool {
	return bv.width == other.width && bv.value == other.value
}

func (bv BitVector) String() string {
	var builder strings.Builder
	builder.Grow(bv.width)

	for i := 0; i < bv.width; i++ {
		if bv.Bit(i) {
			builder.WriteByte('1')
		} else {
			builder.WriteByte('0')
		}
	}

	return builder.String()
}
