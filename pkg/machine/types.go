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
	"bufio"

	"github.com/sirupsen/logrus"
)

type DeviceHandler struct {
	Display *bufio.Writer
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Config struct {
	// Upper bound on instructions run by Execute. Zero means no bound.
	MaxSteps uint64 `toml:"max_steps"`

	// LD of a negative word stores zero instead of the word.
	ClampNegativeLoads bool `toml:"clamp_negative_loads"`
}

// Machine owns all simulator state. Use New, or call Reset before first use.
type Machine struct {
	Devices  *DeviceHandler
	Debugger MachineDebugger
	Logger   logrus.FieldLogger
	Config   Config

	state  storage
	status Status
	steps  uint64
	addr   uint64
	ready  bool
}
