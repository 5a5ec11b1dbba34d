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
	"github.com/lassandro/lc3sim/pkg/encoding"
)

const (
	MemorySize    = 50
	RegisterCount = 8
	WordWidth     = encoding.WordWidth
	ConditionBits = 3
)

const (
	FLAG_POS  uint64 = 1 << 0
	FLAG_ZERO uint64 = 1 << 1
	FLAG_NEG  uint64 = 1 << 2
)

const (
	TRAP_OUT  uint64 = 0x21
	TRAP_HALT uint64 = 0x25
)

const (
	OP_BR   uint64 = 0b0000
	OP_ADD  uint64 = 0b0001
	OP_LD   uint64 = 0b0010
	OP_AND  uint64 = 0b0101
	OP_NOT  uint64 = 0b1001
	OP_TRAP uint64 = 0b1111
)

// Operation is the closed set of instructions the engine dispatches on.
type Operation uint8

const (
	OperationUnsupported Operation = iota
	OperationBranch
	OperationAdd
	OperationLoad
	OperationAnd
	OperationNot
	OperationTrap
)

func DecodeOperation(opcode uint64) Operation {
	switch opcode {
	case OP_BR:
		return OperationBranch
	case OP_ADD:
		return OperationAdd
	case OP_LD:
		return OperationLoad
	case OP_AND:
		return OperationAnd
	case OP_NOT:
		return OperationNot
	case OP_TRAP:
		return OperationTrap
	}

	return OperationUnsupported
}

func (op Operation) String() string {
	switch op {
	case OperationBranch:
		return "BR"
	case OperationAdd:
		return "ADD"
	case OperationLoad:
		return "LD"
	case OperationAnd:
		return "AND"
	case OperationNot:
		return "NOT"
	case OperationTrap:
		return "TRAP"
	}

	return "<unsupported>"
}

type Status uint8

const (
	StatusRunning Status = iota
	StatusHalted
)

func (status Status) String() string {
	if status == StatusHalted {
		return "HALTED"
	}

	return "RUNNING"
}
