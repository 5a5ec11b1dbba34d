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
	"github.com/sirupsen/logrus"

	"github.com/lassandro/lc3sim/pkg/bitvec"
)

// field slices the instruction register. Offsets count from the most
// significant bit; every caller passes constant, in-range positions.
func (mc *Machine) field(offset, length int) bitvec.BitVector {
	value, err := mc.state.ir.Extract(offset, length)

	if err != nil {
		panic(err)
	}

	return value
}

func (mc *Machine) registerField(offset int) int {
	return int(mc.field(offset, 3).Unsigned())
}

func (mc *Machine) writeRegister(index int, value int64) error {
	word := bitvec.MustNew(WordWidth)
	word.SetSigned(value)

	if err := mc.state.setRegister(index, word); err != nil {
		return err
	}

	mc.setFlags(mc.state.registers[index].Signed())
	return nil
}

// Second source operand of ADD and AND: SR2 or the sign extended imm5.
func (mc *Machine) operand() int64 {
	if mc.field(10, 1).Unsigned() == 1 {
		return mc.field(11, 5).Signed()
	}

	return mc.state.registers[mc.registerField(13)].Signed()
}

// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) executeBranch() error {
	// Test flags and the condition code share the N/Z/P bit order
	if mc.field(4, 3).Unsigned()&mc.state.cc.Unsigned() != 0 {
		offset := mc.field(7, 9).Signed()
		mc.state.pc.SetSigned(int64(mc.state.pc.Unsigned()) + offset)
	}

	return nil
}

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) executeAdd() error {
	dest := mc.registerField(4)
	src1 := mc.state.registers[mc.registerField(7)].Signed()

	return mc.writeRegister(dest, src1+mc.operand())
}

// LD   |0010    |DR   |PCoffset9         | Load
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) executeLoad() error {
	dest := mc.registerField(4)
	addr := int64(mc.state.pc.Unsigned()) + mc.field(7, 9).Signed()

	word, err := mc.read(addr)

	if err != nil {
		return err
	}

	value := word.Signed()

	if mc.Config.ClampNegativeLoads && value < 0 {
		value = 0
	}

	return mc.writeRegister(dest, value)
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) executeAnd() error {
	dest := mc.registerField(4)
	src1 := mc.state.registers[mc.registerField(7)].Signed()

	return mc.writeRegister(dest, src1&mc.operand())
}

// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) executeNot() error {
	dest := mc.registerField(4)
	value := mc.state.registers[mc.registerField(7)].Copy()

	value.Invert()

	return mc.writeRegister(dest, value.Signed())
}

// TRAP |1111    |0000   |trapvect8       | System call
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func (mc *Machine) executeTrap() (halt bool, err error) {
	vector := mc.field(8, 8).Unsigned()

	switch vector {
	case TRAP_OUT:
		if mc.Devices == nil || mc.Devices.Display == nil {
			break
		}

		// R0 is written as one UTF-8 rune; surrogate halves have no
		// encoding and come out as U+FFFD.
		char := rune(mc.state.registers[0].Unsigned())

		if _, err := mc.Devices.Display.WriteRune(char); err != nil {
			return false, err
		}

		if err := mc.Devices.Display.Flush(); err != nil {
			return false, err
		}

	case TRAP_HALT:
		return true, nil

	default:
		mc.log().WithFields(logrus.Fields{
			"vector": vector,
			"addr":   mc.addr,
		}).Debug("Ignoring unknown trap vector")
	}

	return false, nil
}
