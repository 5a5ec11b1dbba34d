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

package machine

import (
	"github.com/lassandro/lc3sim/pkg/bitvec"
)

type storage struct {
	registers [RegisterCount]bitvec.BitVector
	memory    [MemorySize]bitvec.BitVector
	pc        bitvec.BitVector
	ir        bitvec.BitVector
	cc        bitvec.BitVector
}

func (st *storage) reset() {
	// Registers hold their own index rather than zero; existing programs
	// and their expected results depend on it.
	for i := range st.registers {
		st.registers[i] = bitvec.MustNew(WordWidth)
		st.registers[i].SetUnsigned(uint64(i))
	}

	for i := range st.memory {
		st.memory[i] = bitvec.MustNew(WordWidth)
	}

	st.pc = bitvec.MustNew(WordWidth)
	st.ir = bitvec.MustNew(WordWidth)
	st.cc = bitvec.MustNew(ConditionBits)
}

func (st *storage) register(index int) (bitvec.BitVector, error) {
	if index < 0 || index >= RegisterCount {
		return bitvec.BitVector{}, &InvalidRegisterError{index}
	}

	return st.registers[index], nil
}

func (st *storage) setRegister(index int, value bitvec.BitVector) error {
	if index < 0 || index >= RegisterCount {
		return &InvalidRegisterError{index}
	}

	if value.Width() != WordWidth {
		return &InvalidWordError{index, bitvec.ErrWidth}
	}

	st.registers[index] = value
	return nil
}

func (st *storage) word(addr int) (bitvec.BitVector, error) {
	if addr < 0 || addr >= MemorySize {
		return bitvec.BitVector{}, &InvalidAddressError{addr}
	}

	return st.memory[addr], nil
}

func (st *storage) loadWord(addr int, word bitvec.BitVector) error {
	if addr < 0 || addr >= MemorySize {
		return &InvalidAddressError{addr}
	}

	if word.Width() != WordWidth {
		return &InvalidWordError{addr, bitvec.ErrWidth}
	}

	st.memory[addr] = word
	return nil
}
