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

// Package display renders machine state as bit strings for terminals.
package display

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lassandro/lc3sim/pkg/bitvec"
	"github.com/lassandro/lc3sim/pkg/machine"
)

// Entries printed per row for registers and memory
const Columns = 3

const (
	ansiBold  = "\033[1m"
	ansiDim   = "\033[1;30m"
	ansiReset = "\033[0m"
)

type Printer struct {
	Out   io.Writer
	Color bool
}

func (p *Printer) bold(s string) string {
	if !p.Color {
		return s
	}

	return ansiBold + s + ansiReset
}

// Word formats a word as its bits followed by its signed value. Zero words
// are dimmed when colour is enabled.
func (p *Printer) Word(word bitvec.BitVector) string {
	s := fmt.Sprintf("%s %6d", word.String(), word.Signed())

	if p.Color && word.Unsigned() == 0 {
		return ansiDim + s + ansiReset
	}

	return s
}

func (p *Printer) header(w *bufio.Writer, mc *machine.Machine) {
	fmt.Fprintf(
		w,
		"%s %s   %s %s   %s %s\n",
		p.bold("PC"), mc.PC(),
		p.bold("IR"), mc.IR(),
		p.bold("CC"), mc.CC(),
	)
}

func (p *Printer) registers(w *bufio.Writer, mc *machine.Machine) {
	for i, register := range mc.Registers() {
		fmt.Fprintf(w, "%s %s", p.bold(fmt.Sprintf("R%d", i)), p.Word(register))

		if i%Columns == Columns-1 || i == machine.RegisterCount-1 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, "   ")
		}
	}
}

func (p *Printer) memory(w *bufio.Writer, mc *machine.Machine, addr, count int) {
	if addr < 0 {
		addr = 0
	}

	end := addr + count

	if end > machine.MemorySize {
		end = machine.MemorySize
	}

	memory := mc.Memory()

	for i := addr; i < end; i++ {
		fmt.Fprintf(w, "%s %s", p.bold(fmt.Sprintf("%3d", i)), p.Word(memory[i]))

		if (i-addr)%Columns == Columns-1 || i == end-1 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, "   ")
		}
	}
}

// Header prints the PC, IR and CC on one line.
func (p *Printer) Header(mc *machine.Machine) error {
	w := bufio.NewWriter(p.Out)
	p.header(w, mc)
	return w.Flush()
}

func (p *Printer) Registers(mc *machine.Machine) error {
	w := bufio.NewWriter(p.Out)
	p.registers(w, mc)
	return w.Flush()
}

// Memory prints count words starting at addr, clipped to the memory bounds.
func (p *Printer) Memory(mc *machine.Machine, addr, count int) error {
	w := bufio.NewWriter(p.Out)
	p.memory(w, mc, addr, count)
	return w.Flush()
}

// State prints the header, every register and every memory word.
func (p *Printer) State(mc *machine.Machine) error {
	w := bufio.NewWriter(p.Out)

	fmt.Fprintln(w)
	p.header(w, mc)
	p.registers(w, mc)
	fmt.Fprintln(w)
	p.memory(w, mc, 0, machine.MemorySize)
	fmt.Fprintln(w)

	return w.Flush()
}
