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

package debugger

import (
	"bufio"
	"fmt"
	"sort"

	"github.com/lassandro/lc3sim/pkg/machine"
)

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break.Load() {
		dbg.HandleBreak(dbg, mc)
		return
	}

	pc := uint16(mc.PC().Unsigned())

	for _, breakpoint := range dbg.Breakpoints {
		if pc == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// AddBreakpoint reports false if addr already has a breakpoint.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

// AddWatchpoint widens an existing watchpoint on addr instead of adding a
// second one.
func (dbg *Debugger) AddWatchpoint(addr uint16, watchType WatchpointType) {
	for i, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr {
			if watchpoint.Type != watchType {
				dbg.Watchpoints[i].Type = ReadWriteWatch
			}
			return
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, watchType})
}

// Label looks up the label declared at addr, if any.
func (dbg *Debugger) Label(addr uint16) (string, bool) {
	if dbg.SymTable == nil {
		return "", false
	}

	label, exists := dbg.SymTable.Labels[addr]
	return label, exists
}

// Resolve finds the address of a label.
func (dbg *Debugger) Resolve(label string) (uint16, bool) {
	if dbg.SymTable == nil {
		return 0, false
	}

	for addr, name := range dbg.SymTable.Labels {
		if name == label {
			return addr, true
		}
	}

	return 0, false
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) error {
	w := bufio.NewWriter(dbg.Display.Out)

	if dbg.SymTable == nil || len(dbg.SymTable.Lines) == 0 {
		fmt.Fprintln(w, "No symbol table loaded")
		return w.Flush()
	}

	if _, exists := dbg.SymTable.Lines[addr]; !exists {
		fmt.Fprintf(w, "No instruction found at %#04x\n", addr)
		return w.Flush()
	}

	for i := addr; i < addr+count && int(i) < machine.MemorySize; i++ {
		line, exists := dbg.SymTable.Lines[i]

		if !exists {
			if dbg.Display.Color {
				fmt.Fprintln(w, "\033[1;30m~~~~~~~~\033[0m")
			} else {
				fmt.Fprintln(w, "~~~~~~~~")
			}
			continue
		}

		if dbg.Display.Color {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m %s\n", i, line)
		} else {
			fmt.Fprintf(w, "[%#04x] %s\n", i, line)
		}
	}

	return w.Flush()
}

func (dbg *Debugger) PrintLabels() error {
	w := bufio.NewWriter(dbg.Display.Out)

	if dbg.SymTable == nil || len(dbg.SymTable.Labels) == 0 {
		fmt.Fprintln(w, "No labels loaded")
		return w.Flush()
	}

	addrs := make([]uint16, 0, len(dbg.SymTable.Labels))

	for addr := range dbg.SymTable.Labels {
		addrs = append(addrs, addr)
	}

	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	for _, addr := range addrs {
		fmt.Fprintf(w, "[%#04x] %s\n", addr, dbg.SymTable.Labels[addr])
	}

	return w.Flush()
}

func (dbg *Debugger) PrintMem(mc *machine.Machine, addr, count uint16) error {
	return dbg.Display.Memory(mc, int(addr), int(count))
}

func (dbg *Debugger) PrintRegisters(mc *machine.Machine) error {
	if err := dbg.Display.Header(mc); err != nil {
		return err
	}

	return dbg.Display.Registers(mc)
}
