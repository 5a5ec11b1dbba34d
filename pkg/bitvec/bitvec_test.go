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

package bitvec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/lc3sim/pkg/bitvec"
)

func TestUnsignedRoundTrip(t *testing.T) {
	bv := bitvec.MustNew(16)

	for v := uint64(0); v < 1<<16; v++ {
		bv.SetUnsigned(v)

		if have := bv.Unsigned(); have != v {
			t.Fatalf("Unsigned mismatch\nwant:%d\nhave:%d", v, have)
		}
	}
}

func TestSignedRoundTrip(t *testing.T) {
	bv := bitvec.MustNew(16)

	for v := int64(-32768); v <= 32767; v++ {
		bv.SetSigned(v)

		if have := bv.Signed(); have != v {
			t.Fatalf("Signed mismatch\nwant:%d\nhave:%d", v, have)
		}
	}
}

func TestSignedUnsignedAgree(t *testing.T) {
	assert := assert.New(t)

	a := bitvec.MustNew(16)
	b := bitvec.MustNew(16)

	a.SetSigned(-6)
	b.SetUnsigned(0xFFFA)

	assert.Equal(a, b)
	assert.Equal("1111111111111010", a.String())
	assert.Equal(uint64(0xFFFA), a.Unsigned())
	assert.Equal(int64(-6), b.Signed())
}

func TestTruncation(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		name     string
		width    int
		signed   int64
		unsigned uint64
		bits     string
	}{
		{"wrap_16", 16, 65536 + 3, 0, "0000000000000011"},
		{"neg_one_3", 3, -1, 0, "111"},
		{"overflow_pos", 16, 32768, 0, "1000000000000000"},
		{"wide_5", 5, -16, 0, "10000"},
	}

	for _, entry := range table {
		bv := bitvec.MustNew(entry.width)
		bv.SetSigned(entry.signed)
		assert.Equal(entry.bits, bv.String(), entry.name)
		assert.Equal(entry.width, bv.Width(), entry.name)
	}

	bv := bitvec.MustNew(4)
	bv.SetUnsigned(0x1F)
	assert.Equal("1111", bv.String())
	assert.Equal(int64(-1), bv.Signed())
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	bv, err := bitvec.Parse("0001010001000010")
	require.NoError(t, err)
	assert.Equal(16, bv.Width())
	assert.Equal(uint64(0x1442), bv.Unsigned())
	assert.Equal("0001010001000010", bv.String())

	cc, err := bitvec.Parse("010")
	require.NoError(t, err)
	assert.Equal(3, cc.Width())
	assert.Equal(uint64(2), cc.Unsigned())

	_, err = bitvec.Parse("01a1")
	var bitErr *bitvec.InvalidBitError
	if assert.ErrorAs(err, &bitErr) {
		assert.Equal(2, bitErr.Index)
		assert.Equal('a', bitErr.Received)
	}

	_, err = bitvec.Parse("")
	assert.ErrorIs(err, bitvec.ErrWidth)

	_, err = bitvec.New(65)
	assert.ErrorIs(err, bitvec.ErrWidth)
}

func TestExtract(t *testing.T) {
	assert := assert.New(t)

	word, err := bitvec.Parse("0001001001111111")
	require.NoError(t, err)

	table := []struct {
		name     string
		offset   int
		length   int
		bits     string
		unsigned uint64
		signed   int64
	}{
		{"opcode", 0, 4, "0001", 1, 1},
		{"dr", 4, 3, "001", 1, 1},
		{"sr1", 7, 3, "001", 1, 1},
		{"imm_flag", 10, 1, "1", 1, -1},
		{"imm5", 11, 5, "11111", 31, -1},
		{"whole", 0, 16, "0001001001111111", 0x127F, 0x127F},
	}

	for _, entry := range table {
		field, err := word.Extract(entry.offset, entry.length)
		require.NoError(t, err, entry.name)
		assert.Equal(entry.length, field.Width(), entry.name)
		assert.Equal(entry.bits, field.String(), entry.name)
		assert.Equal(entry.unsigned, field.Unsigned(), entry.name)
		assert.Equal(entry.signed, field.Signed(), entry.name)
	}

	for _, bad := range [][2]int{{14, 3}, {-1, 2}, {0, 0}, {16, 1}} {
		_, err := word.Extract(bad[0], bad[1])
		var rangeErr *bitvec.RangeError
		assert.ErrorAs(err, &rangeErr, "offset %d length %d", bad[0], bad[1])
	}
}

func TestExtractIsIndependent(t *testing.T) {
	word, err := bitvec.Parse("1111000000100101")
	require.NoError(t, err)

	field, err := word.Extract(8, 8)
	require.NoError(t, err)

	field.Invert()

	assert.Equal(t, "1111000000100101", word.String())
	assert.Equal(t, "11011010", field.String())
}

func TestInvertInvolutive(t *testing.T) {
	assert := assert.New(t)

	for _, pattern := range []string{
		"0",
		"1",
		"101",
		"0000000000000101",
		"1000000000000000",
		"1111111111111111",
		"1010101010101010101010101010101010101010101010101010101010101010",
	} {
		bv, err := bitvec.Parse(pattern)
		require.NoError(t, err)

		original := bv.Copy()
		bv.Invert()
		assert.NotEqual(original.String(), bv.String(), pattern)
		bv.Invert()
		assert.True(original.Equal(bv), pattern)
	}

	five, _ := bitvec.FromUnsigned(16, 5)
	five.Invert()
	assert.Equal(int64(-6), five.Signed())
}

func TestCopyIsIndependent(t *testing.T) {
	bv, _ := bitvec.FromSigned(16, 42)
	cp := bv.Copy()
	cp.SetSigned(-1)

	assert.Equal(t, int64(42), bv.Signed())
	assert.Equal(t, int64(-1), cp.Signed())
}

func TestBit(t *testing.T) {
	assert := assert.New(t)

	cc, _ := bitvec.Parse("100")
	assert.True(cc.Bit(0))
	assert.False(cc.Bit(1))
	assert.False(cc.Bit(2))
	assert.Panics(func() { cc.Bit(3) })
}

func TestFullWidth(t *testing.T) {
	bv := bitvec.MustNew(64)
	bv.SetSigned(-2)

	assert.Equal(t, int64(-2), bv.Signed())
	assert.Equal(t, ^uint64(1), bv.Unsigned())
}
