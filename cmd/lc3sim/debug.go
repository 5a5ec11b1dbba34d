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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/lassandro/lc3sim/pkg/bitvec"
	"github.com/lassandro/lc3sim/pkg/debugger"
	"github.com/lassandro/lc3sim/pkg/encoding"
	"github.com/lassandro/lc3sim/pkg/machine"
)

var lastcmd []string
var program *Program

// A REPL command. run reports true when the machine should resume.
type command struct {
	names []string
	usage string
	run   func(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool
}

var commands []command

func init() {
	commands = []command{
		{[]string{"b", "bp", "break", "breakpoint"}, "break [add|list|rm|clear]", debugBreak},
		{[]string{"w", "wp", "watch", "watchpoint"}, "watch [add|list|rm|clear]", debugWatch},
		{[]string{"r", "reg", "register", "registers"}, "register [R#]", debugReg},
		{[]string{"s", "src", "source"}, "source [0x##|#|label] [#]", debugSource},
		{[]string{"l", "label", "labels"}, "labels", debugLabels},
		{[]string{"m", "mem", "memory"}, "memory [0x##|#|label] [#]", debugMemory},
		{[]string{"set"}, "set [0x##|#|label] [0b################|0x####]", debugSet},
		{[]string{"c", "continue"}, "continue", func(dbg *debugger.Debugger, _ *machine.Machine, _ []string) bool {
			dbg.Break.Store(false)
			return true
		}},
		{[]string{"n", "next"}, "next", func(dbg *debugger.Debugger, _ *machine.Machine, _ []string) bool {
			dbg.Break.Store(true)
			return true
		}},
		{[]string{"q", "quit", "exit"}, "quit", func(*debugger.Debugger, *machine.Machine, []string) bool {
			shouldexit = true
			return true
		}},
		{[]string{"clear"}, "clear", func(*debugger.Debugger, *machine.Machine, []string) bool {
			fmt.Print("\033[H\033[2J")
			return false
		}},
		{[]string{"reset"}, "reset", debugReset},
		{[]string{"h", "help"}, "help", debugHelp},
	}
}

func lookup(name string) *command {
	for i := range commands {
		for _, alias := range commands[i].names {
			if alias == name {
				return &commands[i]
			}
		}
	}

	return nil
}

// parseAddr accepts hex, decimal or a label from the symbol table.
func parseAddr(dbg *debugger.Debugger, s string) (uint16, error) {
	if addr, ok := dbg.Resolve(s); ok {
		return addr, nil
	}

	addr, err := encoding.DecodeAddr(s)

	if err != nil {
		return 0, err
	}

	if int(addr) >= machine.MemorySize {
		return 0, &machine.InvalidAddressError{Addr: int(addr)}
	}

	return addr, nil
}

// Prints one numbered line per entry, padding the index to a common width
func printNumbered(count int, line func(i int) string) {
	width := len(strconv.Itoa(count))

	for i := 0; i < count; i++ {
		fmt.Printf("#%0*d: %s\n", width, i, line(i))
	}
}

// Removes the entry whose index is given as a decimal argument
func removeAt[T any](list []T, arg string) ([]T, int, error) {
	i, err := strconv.Atoi(arg)

	if err != nil {
		return list, 0, err
	}

	if i < 0 || i >= len(list) {
		return list, 0, errors.New("Invalid index")
	}

	list[i] = list[len(list)-1]
	return list[:len(list)-1], i, nil
}

func debugBreak(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "a", "add":
		if len(args) != 2 {
			log.Println("break add [0x##|#|label]")
			break
		}

		addr, err := parseAddr(dbg, args[1])

		if err != nil {
			log.Println(err)
		} else if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		printNumbered(len(dbg.Breakpoints), func(i int) string {
			return fmt.Sprintf("%#x", dbg.Breakpoints[i].Addr)
		})

	case "r", "rm", "remove":
		if len(args) != 2 {
			log.Println("break remove [#]")
			break
		}

		var i int
		var err error

		if dbg.Breakpoints, i, err = removeAt(dbg.Breakpoints, args[1]); err != nil {
			log.Println(err)
		} else {
			fmt.Printf("Breakpoint removed [%d]\n", i)
		}

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", args[0])
	}

	return false
}

var watchTypes = map[string]debugger.WatchpointType{
	"r":         debugger.ReadWatch,
	"read":      debugger.ReadWatch,
	"w":         debugger.WriteWatch,
	"write":     debugger.WriteWatch,
	"rw":        debugger.ReadWriteWatch,
	"readwrite": debugger.ReadWriteWatch,
}

func watchName(wtype debugger.WatchpointType) string {
	switch wtype {
	case debugger.ReadWatch:
		return "read"
	case debugger.WriteWatch:
		return "write"
	}

	return "readwrite"
}

func debugWatch(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "a", "add":
		const usage = "watch add [0x##|#|label] [read|write|readwrite]"

		if len(args) != 3 {
			log.Println(usage)
			break
		}

		wtype, ok := watchTypes[args[2]]

		if !ok {
			log.Println(usage)
			break
		}

		addr, err := parseAddr(dbg, args[1])

		if err != nil {
			log.Println(err)
			break
		}

		dbg.AddWatchpoint(addr, wtype)
		fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, watchName(wtype))

	case "l", "ls", "list":
		printNumbered(len(dbg.Watchpoints), func(i int) string {
			watchpoint := dbg.Watchpoints[i]
			return fmt.Sprintf("%#x %s", watchpoint.Addr, watchName(watchpoint.Type))
		})

	case "r", "rm", "remove":
		if len(args) != 2 {
			log.Println("watch remove [#]")
			break
		}

		var i int
		var err error

		if dbg.Watchpoints, i, err = removeAt(dbg.Watchpoints, args[1]); err != nil {
			log.Println(err)
		} else {
			fmt.Printf("Watchpoint removed [%d]\n", i)
		}

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", args[0])
	}

	return false
}

func debugReg(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	switch len(args) {
	case 0:
		if err := dbg.PrintRegisters(mc); err != nil {
			log.Println(err)
		}

	case 1:
		name := strings.ToUpper(args[0])

		if len(name) != 2 || name[0] != 'R' {
			log.Println("Invalid register")
			break
		}

		register, err := mc.Register(int(name[1]) - '0')

		if err != nil {
			log.Println(err)
			break
		}

		fmt.Printf("%s: %s\n", name, dbg.Display.Word(register))

	default:
		log.Println(lookup("register").usage)
	}

	return false
}

// Parses the optional [addr|label] [count] arguments of src and mem
func addrRange(dbg *debugger.Debugger, mc *machine.Machine, args []string, count uint16) (uint16, uint16, bool) {
	addr := uint16(mc.PC().Unsigned())

	if len(args) > 0 {
		var err error

		if addr, err = parseAddr(dbg, args[0]); err != nil {
			log.Println(err)
			return 0, 0, false
		}
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			log.Println(err)
			return 0, 0, false
		}

		count = uint16(value)
	}

	return addr, count, true
}

func debugSource(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	if len(args) > 2 {
		log.Println(lookup("source").usage)
	} else if addr, count, ok := addrRange(dbg, mc, args, 3); ok {
		if err := dbg.PrintSource(addr, count); err != nil {
			log.Println(err)
		}
	}

	return false
}

func debugLabels(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	if len(args) > 0 {
		log.Println(lookup("labels").usage)
	} else if err := dbg.PrintLabels(); err != nil {
		log.Println(err)
	}

	return false
}

func debugMemory(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	if len(args) > 2 {
		log.Println(lookup("memory").usage)
	} else if addr, count, ok := addrRange(dbg, mc, args, 1); ok {
		if err := dbg.PrintMem(mc, addr, count); err != nil {
			log.Println(err)
		}
	}

	return false
}

// Words are given as 16 bits (optionally 0b prefixed) or as hex
func parseWord(s string) (bitvec.BitVector, error) {
	word, err := encoding.DecodeWord(strings.TrimPrefix(s, "0b"))

	if err == nil {
		return word, nil
	}

	value, hexErr := encoding.DecodeHex(s)

	if hexErr != nil {
		return bitvec.BitVector{}, err
	}

	return bitvec.FromUnsigned(machine.WordWidth, uint64(value))
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	if len(args) != 2 {
		log.Println(lookup("set").usage)
		return false
	}

	addr, err := parseAddr(dbg, args[0])

	if err != nil {
		log.Println(err)
		return false
	}

	word, err := parseWord(args[1])

	if err != nil {
		log.Println(err)
		return false
	}

	if err := mc.LoadWord(int(addr), word); err != nil {
		log.Println(err)
	} else if err := dbg.PrintMem(mc, addr, 1); err != nil {
		log.Println(err)
	}

	return false
}

func debugReset(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	mc.Reset()

	if err := program.Load(mc); err != nil {
		log.Println(err)
	}

	return false
}

func debugHelp(dbg *debugger.Debugger, mc *machine.Machine, args []string) bool {
	for _, cmd := range commands {
		fmt.Printf("%-10s %s\n", strings.Join(cmd.names, ","), cmd.usage)
	}

	return false
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = args
		}

		cmd := lookup(args[0])

		if cmd == nil {
			fmt.Printf("error: '%s' is not a valid command\n", args[0])
			continue
		}

		if cmd.run(dbg, mc, args[1:]) {
			return
		}
	}
}

// Reports why the machine stopped, then hands control to the REPL
func stopped(dbg *debugger.Debugger, mc *machine.Machine, show func() error) {
	if shouldexit {
		return
	}

	fmt.Println()
	fmt.Println("Program stopped")

	if err := show(); err != nil {
		log.Println(err)
	}

	debugREPL(dbg, mc)
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if dbg.Break.Load() {
		if !shouldexit {
			debugREPL(dbg, mc)
		}
		return
	}

	stopped(dbg, mc, func() error {
		return dbg.PrintSource(uint16(mc.PC().Unsigned()), 8)
	})
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	stopped(dbg, mc, func() error { return dbg.PrintMem(mc, addr, 1) })
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	stopped(dbg, mc, func() error { return dbg.PrintMem(mc, addr, 1) })
}
