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
	"errors"

	"github.com/lassandro/lc3sim/pkg/translate"
)

var f = translate.From

var (
	ErrInvalidArgument      = errors.New(f("Invalid argument"))
	ErrUnsupportedOperation = errors.New(f("Unsupported operation"))
	ErrAddressFault         = errors.New(f("Address fault"))
	ErrStepLimit            = errors.New(f("Step limit reached"))
)

type InvalidAddressError struct {
	Addr int
}

func (err *InvalidAddressError) Error() string {
	return f(
		"Invalid address\n\twant:[0, %d)\n\thave:%d", MemorySize, err.Addr,
	)
}

func (err *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidArgument
}

type InvalidRegisterError struct {
	Index int
}

func (err *InvalidRegisterError) Error() string {
	return f(
		"Invalid register\n\twant:[0, %d)\n\thave:%d", RegisterCount, err.Index,
	)
}

func (err *InvalidRegisterError) Is(target error) bool {
	return target == ErrInvalidArgument
}

type InvalidWordError struct {
	Addr int
	Err  error
}

func (err *InvalidWordError) Error() string {
	return f("Invalid word for slot %d: %v", err.Addr, err.Err)
}

func (err *InvalidWordError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func (err *InvalidWordError) Unwrap() error {
	return err.Err
}

type ProgramSizeError struct {
	Received int
}

func (err *ProgramSizeError) Error() string {
	return f(
		"Invalid program size\n\twant:[1, %d)\n\thave:%d",
		MemorySize,
		err.Received,
	)
}

func (err *ProgramSizeError) Is(target error) bool {
	return target == ErrInvalidArgument
}

type UnsupportedOpcodeError struct {
	Opcode uint64
	Addr   uint64
}

func (err *UnsupportedOpcodeError) Error() string {
	return f("Illegal opcode %04b at %#04x", err.Opcode, err.Addr)
}

func (err *UnsupportedOpcodeError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

type AddressFaultError struct {
	Addr int64
	PC   uint64
}

func (err *AddressFaultError) Error() string {
	return f(
		"Memory access out of range at %#04x\n\twant:[0, %d)\n\thave:%d",
		err.PC,
		MemorySize,
		err.Addr,
	)
}

func (err *AddressFaultError) Is(target error) bool {
	return target == ErrAddressFault
}
