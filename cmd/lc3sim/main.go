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
	"encoding/gob"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/lc3sim/pkg/assembler"
	"github.com/lassandro/lc3sim/pkg/bitvec"
	"github.com/lassandro/lc3sim/pkg/config"
	"github.com/lassandro/lc3sim/pkg/debugger"
	"github.com/lassandro/lc3sim/pkg/display"
	"github.com/lassandro/lc3sim/pkg/encoding"
	"github.com/lassandro/lc3sim/pkg/machine"
	"github.com/lassandro/lc3sim/pkg/translate"
)

var helpvar bool
var debugvar bool
var tuivar bool
var asmvar bool
var configvar string
var maxstepsvar uint64
var verbosevar bool
var dumpvar bool
var shouldexit bool

const usage = "lc3sim [-debug|-tui] [-asm] [-config file] [-max-steps n] [-v] [-dump] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(&tuivar, "tui", false, "Runs the machine in a terminal UI")
	flag.BoolVar(
		&asmvar, "asm", false,
		"Treats the input file as assembly source instead of machine code",
	)
	flag.StringVar(&configvar, "config", "", "Reads settings from a TOML file")
	flag.Uint64Var(
		&maxstepsvar, "max-steps", 0,
		"Stops the machine after this many instructions, overriding the "+
			"configuration file",
	)
	flag.BoolVar(&verbosevar, "v", false, "Logs every executed instruction")
	flag.BoolVar(&dumpvar, "dump", false, "Prints the machine state on exit")
	flag.Parse()
}

// Program is a loaded input file, kept so the debugger can reload it.
type Program struct {
	Words    []bitvec.BitVector
	SymTable *assembler.SymTable
}

func (prog *Program) Load(mc *machine.Machine) error {
	return mc.LoadWords(prog.Words...)
}

func readProgram(path string, assemble bool) (*Program, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	var prog Program

	if assemble {
		var symtable assembler.SymTable

		if symtable.Source, err = filepath.Abs(path); err != nil {
			symtable.Source = path
		}

		binary, errs := assembler.AssembleSource(file, &symtable)

		if len(errs) > 0 {
			for _, err := range errs[1:] {
				log.Println(err)
			}

			return nil, errs[0]
		}

		for _, word := range binary {
			bv, err := bitvec.FromUnsigned(machine.WordWidth, uint64(word))

			if err != nil {
				return nil, err
			}

			prog.Words = append(prog.Words, bv)
		}

		prog.SymTable = &symtable
		return &prog, nil
	}

	lines, err := encoding.DecodeProgram(file)

	if err != nil {
		return nil, err
	}

	for i, line := range lines {
		word, err := encoding.DecodeWord(line)

		if err != nil {
			return nil, &machine.InvalidWordError{Addr: i, Err: err}
		}

		prog.Words = append(prog.Words, word)
	}

	return &prog, nil
}

// readSymbols loads the .lc3db table written next to a program by lc3sim-asm.
func readSymbols(path string) (*assembler.SymTable, error) {
	filename := filepath.Join(filepath.Dir(path), strings.TrimSuffix(
		filepath.Base(path), filepath.Ext(path),
	)+".lc3db")

	file, err := os.Open(filename)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		return nil, err
	}

	return &symtable, nil
}

func run(mc *machine.Machine) error {
	if !debugvar {
		return mc.Execute()
	}

	for !mc.Halted() && !shouldexit {
		if limit := mc.Config.MaxSteps; limit > 0 && mc.Steps() >= limit {
			return fmt.Errorf(
				"%w after %d instructions", machine.ErrStepLimit, limit,
			)
		}

		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}

func lc3sim() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) != 1 || (debugvar && tuivar) {
		log.Println(usage)
		return 1
	}

	cfg, err := config.Load(configvar)

	if err != nil {
		log.Println(err)
		return 1
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-steps":
			cfg.Machine.MaxSteps = maxstepsvar
		case "dump":
			cfg.Display.Dump = dumpvar
		case "v":
			cfg.Log.Level = logrus.DebugLevel.String()
		}
	})

	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stderr)

	if err := cfg.Log.Apply(logger); err != nil {
		log.Println(err)
		return 1
	}

	if err := translate.Set(cfg.Display.Locale); err != nil {
		log.Println(err)
		return 1
	}

	prog, err := readProgram(args[0], asmvar)

	if err != nil {
		log.Println(err)
		return 1
	}

	printer := display.Printer{
		Out:   os.Stdout,
		Color: cfg.Display.UseColor(isTerminal(os.Stdout.Fd())),
	}

	mc := machine.New()
	mc.Config = cfg.Machine
	mc.Logger = logger

	if tuivar {
		if err := runTUI(mc, prog, logger); err != nil {
			log.Println(err)
			return 1
		}

		return 0
	}

	stdout := bufio.NewWriter(os.Stdout)
	mc.Devices = &machine.DeviceHandler{Display: stdout}

	if debugvar {
		var dbg debugger.Debugger
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		dbg.Display = printer
		dbg.SymTable = prog.SymTable
		mc.Debugger = &dbg

		if dbg.SymTable == nil {
			if symtable, err := readSymbols(args[0]); err == nil {
				dbg.SymTable = symtable
			} else {
				log.Println("Error loading symbol file")
				log.Println(err)
			}
		}

		c := make(chan os.Signal, 1)
		defer close(c)

		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)

		go func() {
			for range c {
				fmt.Println()
				dbg.Break.Store(true)
			}
		}()

		program = prog
	}

	if err := prog.Load(mc); err != nil {
		log.Println(err)
		return 1
	}

	if debugvar {
		debugREPL(mc.Debugger.(*debugger.Debugger), mc)
	}

	status := 0

	if err := run(mc); err != nil {
		fmt.Println()
		log.Println(err)
		status = 1
	}

	logger.WithFields(logrus.Fields{
		"steps":  mc.Steps(),
		"status": mc.Status(),
	}).Info(translate.From("Machine stopped after %d steps", mc.Steps()))

	if cfg.Display.Dump {
		if err := printer.State(mc); err != nil {
			log.Println(err)
			return 1
		}
	}

	return status
}

func main() {
	os.Exit(lc3sim())
}
