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
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/lc3sim/pkg/bitvec"
	"github.com/lassandro/lc3sim/pkg/encoding"
)

func New() *Machine {
	mc := &Machine{}
	mc.Reset()
	return mc
}

// Reset restores the power-on state: registers hold their index, memory, PC
// and IR are zero, CC is 000 and the machine is running.
func (mc *Machine) Reset() {
	mc.state.reset()
	mc.status = StatusRunning
	mc.steps = 0
	mc.addr = 0
	mc.ready = true
}

func (mc *Machine) storage() *storage {
	if !mc.ready {
		mc.Reset()
	}

	return &mc.state
}

func (mc *Machine) log() logrus.FieldLogger {
	if mc.Logger == nil {
		return logrus.StandardLogger()
	}

	return mc.Logger
}

func (mc *Machine) LoadWord(address int, word bitvec.BitVector) error {
	if err := mc.storage().loadWord(address, word); err != nil {
		return err
	}

	if mc.Debugger != nil {
		mc.Debugger.Write(uint16(address), mc)
	}

	return nil
}

// LoadWords places words[i] at address i. Nothing is written unless every
// word is valid.
func (mc *Machine) LoadWords(words ...bitvec.BitVector) error {
	if len(words) == 0 || len(words) >= MemorySize {
		return &ProgramSizeError{len(words)}
	}

	for i, word := range words {
		if word.Width() != WordWidth {
			return &InvalidWordError{i, bitvec.ErrWidth}
		}
	}

	for i, word := range words {
		if err := mc.LoadWord(i, word); err != nil {
			return err
		}
	}

	return nil
}

// LoadMachineCode decodes literal bit patterns such as "0001010001000010"
// and loads them from address 0.
func (mc *Machine) LoadMachineCode(words ...string) error {
	if len(words) == 0 || len(words) >= MemorySize {
		return &ProgramSizeError{len(words)}
	}

	decoded := make([]bitvec.BitVector, len(words))

	for i, s := range words {
		word, err := encoding.DecodeWord(s)

		if err != nil {
			return &InvalidWordError{i, err}
		}

		decoded[i] = word
	}

	return mc.LoadWords(decoded...)
}

func (mc *Machine) read(addr int64) (bitvec.BitVector, error) {
	if addr < 0 || addr >= MemorySize {
		return bitvec.BitVector{}, &AddressFaultError{addr, mc.addr}
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(uint16(addr), mc)
	}

	return mc.state.memory[addr], nil
}

func (mc *Machine) fault(err error) error {
	mc.status = StatusHalted

	mc.log().WithFields(logrus.Fields{
		"addr":  mc.addr,
		"ir":    mc.state.ir.String(),
		"steps": mc.steps,
	}).Error(err)

	return err
}

// Step fetches, decodes and executes a single instruction. It does nothing
// once the machine has halted.
func (mc *Machine) Step() error {
	st := mc.storage()

	if mc.status == StatusHalted {
		return nil
	}

	mc.addr = st.pc.Unsigned()

	instruction, err := mc.read(int64(mc.addr))

	if err != nil {
		return mc.fault(err)
	}

	st.ir = instruction
	st.pc.SetUnsigned(mc.addr + 1)

	opcode := mc.field(0, 4).Unsigned()
	operation := DecodeOperation(opcode)

	mc.log().WithFields(logrus.Fields{
		"addr": mc.addr,
		"ir":   st.ir.String(),
		"op":   operation,
	}).Debug("CPU Step")

	mc.steps++

	switch operation {
	case OperationBranch:
		err = mc.executeBranch()
	case OperationAdd:
		err = mc.executeAdd()
	case OperationLoad:
		err = mc.executeLoad()
	case OperationAnd:
		err = mc.executeAnd()
	case OperationNot:
		err = mc.executeNot()
	case OperationTrap:
		var halt bool
		if halt, err = mc.executeTrap(); halt {
			mc.status = StatusHalted
		}
	case OperationUnsupported:
		err = &UnsupportedOpcodeError{opcode, mc.addr}
	}

	if err != nil {
		return mc.fault(err)
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

// Execute runs instructions until a HALT trap or a fault.
func (mc *Machine) Execute() error {
	return mc.ExecuteFor(0)
}

// ExecuteFor is Execute bounded to n more instructions, or unbounded when n is
// zero. Using up n is not an error; check Halted before resuming.
func (mc *Machine) ExecuteFor(n uint64) error {
	for count := uint64(0); !mc.Halted() && (n == 0 || count < n); count++ {
		if limit := mc.Config.MaxSteps; limit > 0 && mc.steps >= limit {
			return fmt.Errorf("%w after %d instructions", ErrStepLimit, limit)
		}

		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}

func (mc *Machine) Halted() bool {
	mc.storage()
	return mc.status == StatusHalted
}

func (mc *Machine) Status() Status {
	mc.storage()
	return mc.status
}

// Steps reports the number of instructions decoded since the last Reset.
func (mc *Machine) Steps() uint64 {
	return mc.steps
}

func (mc *Machine) Registers() [RegisterCount]bitvec.BitVector {
	return mc.storage().registers
}

func (mc *Machine) Memory() [MemorySize]bitvec.BitVector {
	return mc.storage().memory
}

func (mc *Machine) Register(index int) (bitvec.BitVector, error) {
	return mc.storage().register(index)
}

func (mc *Machine) Word(addr int) (bitvec.BitVector, error) {
	return mc.storage().word(addr)
}

func (mc *Machine) PC() bitvec.BitVector {
	return mc.storage().pc
}

func (mc *Machine) IR() bitvec.BitVector {
	return mc.storage().ir
}

func (mc *Machine) CC() bitvec.BitVector {
	return mc.storage().cc
}
