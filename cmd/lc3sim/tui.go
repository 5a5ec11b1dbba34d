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
	"bytes"
	"fmt"
	"io"

	"github.com/jroimartin/gocui"
	"github.com/sirupsen/logrus"

	"github.com/lassandro/lc3sim/pkg/display"
	"github.com/lassandro/lc3sim/pkg/machine"
	"github.com/lassandro/lc3sim/pkg/translate"
)

// Steps the machine from key bindings. Everything runs on the gocui main
// loop, so no locking is needed.
type tui struct {
	mc     *machine.Machine
	prog   *Program
	output bytes.Buffer
	err    error
}

// Instructions run per press of r, so a program that never halts still
// hands control back to the key loop.
const tuiRunSteps = 10000

func runTUI(mc *machine.Machine, prog *Program, logger *logrus.Logger) error {
	t := &tui{mc: mc, prog: prog}

	// gocui owns the screen
	out := logger.Out
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(out)

	mc.Devices = &machine.DeviceHandler{Display: bufio.NewWriter(&t.output)}

	if err := prog.Load(mc); err != nil {
		return err
	}

	g, err := gocui.NewGui(gocui.OutputNormal)

	if err != nil {
		return err
	}

	defer g.Close()

	g.SetManagerFunc(t.layout)

	bindings := []struct {
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyCtrlC, quit},
		{'q', quit},
		{'s', t.step},
		{gocui.KeySpace, t.step},
		{'r', t.run},
		{'x', t.reset},
	}

	for _, binding := range bindings {
		if err := g.SetKeybinding(
			"", binding.key, gocui.ModNone, binding.handler,
		); err != nil {
			return err
		}
	}

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

func (t *tui) step(g *gocui.Gui, v *gocui.View) error {
	if !t.mc.Halted() {
		t.err = t.mc.Step()
	}

	return nil
}

func (t *tui) run(g *gocui.Gui, v *gocui.View) error {
	if !t.mc.Halted() {
		t.err = t.mc.ExecuteFor(tuiRunSteps)
	}

	return nil
}

func (t *tui) reset(g *gocui.Gui, v *gocui.View) error {
	t.mc.Reset()
	t.output.Reset()
	t.err = t.prog.Load(t.mc)

	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

// gocui layout, redrawn after every key press
func (t *tui) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	split := maxX / 2

	// left -> registers
	if v, err := g.SetView("registers", 0, 0, split-1, 5); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Registers"
	}

	// left -> program output
	if v, err := g.SetView("output", 0, 6, split-1, maxY-5); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Output"
		v.Wrap = true
		v.Autoscroll = true
	}

	// right -> memory
	if v, err := g.SetView("memory", split, 0, maxX-1, maxY-5); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Memory"
	}

	// down -> status
	if v, err := g.SetView("status", 0, maxY-4, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Wrap = true
	}

	return t.draw(g)
}

func (t *tui) draw(g *gocui.Gui) error {
	registers, err := g.View("registers")

	if err != nil {
		return err
	}

	registers.Clear()
	printer := display.Printer{Out: registers}

	if err := printer.Header(t.mc); err != nil {
		return err
	}

	if err := printer.Registers(t.mc); err != nil {
		return err
	}

	memory, err := g.View("memory")

	if err != nil {
		return err
	}

	memory.Clear()

	for addr := 0; addr < machine.MemorySize; addr++ {
		marker := "  "

		if uint64(addr) == t.mc.PC().Unsigned() {
			marker = "> "
		}

		word, _ := t.mc.Word(addr)
		fmt.Fprintf(memory, "%s%3d %s\n", marker, addr, printer.Word(word))
	}

	output, err := g.View("output")

	if err != nil {
		return err
	}

	output.Clear()
	fmt.Fprint(output, t.output.String())

	status, err := g.View("status")

	if err != nil {
		return err
	}

	status.Clear()
	fmt.Fprintln(status, translate.From(
		"%s after %d steps   [s]tep  [r]un  reset [x]  [q]uit",
		t.mc.Status(),
		t.mc.Steps(),
	))

	if t.err != nil {
		fmt.Fprintln(status, t.err)
	}

	return nil
}
