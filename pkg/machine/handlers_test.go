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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMachineState struct {
	Registers map[int]uint16
	Program   uint16
	Condition uint64
	Memory    map[int]uint16
	Halted    bool
}

type testCase struct {
	Name    string
	Steps   uint
	Config  Config
	Display string
	Input   testMachineState
	Output  testMachineState
}

func testMachineSuccess(t *testing.T, test *testCase) {
	assert := assert.New(t)

	var displayBuf bytes.Buffer

	mc := New()
	mc.Config = test.Config
	mc.Devices = &DeviceHandler{Display: bufio.NewWriter(&displayBuf)}

	for i, value := range test.Input.Registers {
		mc.state.registers[i].SetUnsigned(uint64(value))
	}

	for addr, value := range test.Input.Memory {
		mc.state.memory[addr].SetUnsigned(uint64(value))
	}

	mc.state.pc.SetUnsigned(uint64(test.Input.Program))
	mc.state.cc.SetUnsigned(test.Input.Condition)

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		require.NoError(t, mc.Step())
	}

	for i := 0; i < RegisterCount; i++ {
		want := uint16(i)

		if value, ok := test.Input.Registers[i]; ok {
			want = value
		}

		if value, ok := test.Output.Registers[i]; ok {
			want = value
		}

		assert.Equal(
			uint64(want), mc.state.registers[i].Unsigned(),
			"Register mismatch (R%d)", i,
		)
	}

	assert.Equal(
		uint64(test.Output.Program), mc.state.pc.Unsigned(),
		"Program register mismatch",
	)

	assert.Equal(
		test.Output.Condition, mc.state.cc.Unsigned(),
		"Condition flag mismatch",
	)

	// Instructions in this set never write memory
	for addr, word := range mc.state.memory {
		assert.Equal(
			uint64(test.Input.Memory[addr]), word.Unsigned(),
			"Memory unexpectedly changed (%#04x)", addr,
		)
	}

	assert.Equal(test.Output.Halted, mc.Halted(), "Halt state mismatch")
	assert.Equal(test.Display, displayBuf.String(), "Display output mismatch")
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAdd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "ADD SR2 Negative",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x0001, 2: 0x8001},
				Memory:    map[int]uint16{0x0010: 0b0001_000_001_000_010},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Registers: map[int]uint16{0: 0x8002},
			},
		},
		{
			Name: "ADD SR2 Zero",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x0000, 2: 0x0000},
				Memory:    map[int]uint16{0x0010: 0b0001_000_001_000_010},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_ZERO,
				Registers: map[int]uint16{0: 0x0000},
			},
		},
		{
			Name: "ADD Overflow SR2 Zero",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0xFFFF, 2: 0x0001},
				Memory:    map[int]uint16{0x0010: 0b0001_000_001_000_010},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_ZERO,
				Registers: map[int]uint16{0: 0x0000},
			},
		},
		{
			Name: "ADD SR2 Positive",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x0001, 2: 0x0002},
				Memory:    map[int]uint16{0x0010: 0b0001_000_001_000_010},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{0: 0x0003},
			},
		},
		{
			Name: "ADD imm5 Negative",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x0001},
				Memory:    map[int]uint16{0x0010: 0b0001_000_001_1_11110},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Registers: map[int]uint16{0: 0xFFFF},
			},
		},
		{
			Name: "ADD imm5 Zero",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0xFFFF},
				Memory:    map[int]uint16{0x0010: 0b0001_000_001_1_00001},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_ZERO,
				Registers: map[int]uint16{0: 0x0000},
			},
		},
		{
			Name: "ADD Overflow imm5 Negative",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x7FFF},
				Memory:    map[int]uint16{0x0010: 0b0001_000_001_1_00001},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Registers: map[int]uint16{0: 0x8000},
			},
		},
		{
			Name: "ADD imm5 Positive",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x0001},
				Memory:    map[int]uint16{0x0010: 0b0001_000_001_1_01111},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{0: 0x0010},
			},
		},
		{
			Name: "ADD Same Register",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{3: 0x0004},
				Memory:    map[int]uint16{0x0010: 0b0001_011_011_000_011},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{3: 0x0008},
			},
		},
	})
}

// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestAnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "AND SR2 Negative",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0xFFF0, 2: 0x8FFF},
				Memory:    map[int]uint16{0x0010: 0b0101_000_001_000_010},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Registers: map[int]uint16{0: 0x8FF0},
			},
		},
		{
			Name: "AND SR2 Zero",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x0F0F, 2: 0xF0F0},
				Memory:    map[int]uint16{0x0010: 0b0101_000_001_000_010},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_ZERO,
				Registers: map[int]uint16{0: 0x0000},
			},
		},
		{
			Name: "AND SR2 Positive",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x00FF, 2: 0x0F0F},
				Memory:    map[int]uint16{0x0010: 0b0101_000_001_000_010},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{0: 0x000F},
			},
		},
		{
			Name: "AND SR2 High Register",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x00FF, 7: 0x0F0C},
				Memory:    map[int]uint16{0x0010: 0b0101_000_001_000_111},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{0: 0x000C},
			},
		},
		{
			Name: "AND imm5 Negative",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x8421},
				Memory:    map[int]uint16{0x0010: 0b0101_000_001_1_11111},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Registers: map[int]uint16{0: 0x8421},
			},
		},
		{
			Name: "AND imm5 Zero",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x1234},
				Memory:    map[int]uint16{0x0010: 0b0101_000_001_1_00000},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_ZERO,
				Registers: map[int]uint16{0: 0x0000},
			},
		},
		{
			Name: "AND imm5 Positive",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x00FF},
				Memory:    map[int]uint16{0x0010: 0b0101_000_001_1_01010},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{0: 0x000A},
			},
		},
	})
}

// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestBranch(t *testing.T) {
	branch := func(name string, flags uint16, cc uint64, taken bool) testCase {
		out := uint16(0x0011)

		if taken {
			out += 3
		}

		return testCase{
			Name: name,
			Input: testMachineState{
				Program:   0x0010,
				Condition: cc,
				Memory:    map[int]uint16{0x0010: flags<<9 | 0b000000011},
			},
			Output: testMachineState{Program: out, Condition: cc},
		}
	}

	testSuccess(t, []testCase{
		{
			Name: "BR Forwards",
			Input: testMachineState{
				Program:   0x0010,
				Condition: FLAG_POS,
				Memory:    map[int]uint16{0x0010: 0b0000_111_000000101},
			},
			Output: testMachineState{Program: 0x0016, Condition: FLAG_POS},
		},
		{
			Name: "BR Backwards",
			Input: testMachineState{
				Program:   0x0010,
				Condition: FLAG_ZERO,
				Memory:    map[int]uint16{0x0010: 0b0000_111_111110000},
			},
			Output: testMachineState{Program: 0x0001, Condition: FLAG_ZERO},
		},
		{
			Name: "BR No Condition Set",
			Input: testMachineState{
				Program: 0x0010,
				Memory:  map[int]uint16{0x0010: 0b0000_111_000000101},
			},
			Output: testMachineState{Program: 0x0011},
		},
		branch("BRn True", 0b100, FLAG_NEG, true),
		branch("BRn False", 0b100, FLAG_POS, false),
		branch("BRz True", 0b010, FLAG_ZERO, true),
		branch("BRz False", 0b010, FLAG_NEG, false),
		branch("BRp True", 0b001, FLAG_POS, true),
		branch("BRp False", 0b001, FLAG_NEG, false),
		branch("BRnz True", 0b110, FLAG_ZERO, true),
		branch("BRnz False", 0b110, FLAG_POS, false),
		branch("BRzp True", 0b011, FLAG_POS, true),
		branch("BRzp False", 0b011, FLAG_NEG, false),
		branch("BRnp True", 0b101, FLAG_NEG, true),
		branch("BRnp False", 0b101, FLAG_ZERO, false),
		branch("BRnzp True", 0b111, FLAG_ZERO, true),
		branch("BR Never", 0b000, FLAG_POS, false),
	})
}

// LD   |0010    |DR   |PCoffset9         | Load
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestLoad(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD Backwards",
			Input: testMachineState{
				Program: 0x0010,
				Memory: map[int]uint16{
					0x000D: 0x1234,
					0x0010: 0b0010_000_111111100,
				},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{0: 0x1234},
			},
		},
		{
			Name: "LD Negative",
			Input: testMachineState{
				Program: 0x0010,
				Memory: map[int]uint16{
					0x0010: 0b0010_101_000000011,
					0x0014: 0xFF00,
				},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Registers: map[int]uint16{5: 0xFF00},
			},
		},
		{
			Name:   "LD Negative Clamped",
			Config: Config{ClampNegativeLoads: true},
			Input: testMachineState{
				Program: 0x0010,
				Memory: map[int]uint16{
					0x0010: 0b0010_101_000000011,
					0x0014: 0xFF00,
				},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_ZERO,
				Registers: map[int]uint16{5: 0x0000},
			},
		},
		{
			Name: "LD Zero",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{2: 0xCAFE},
				Memory: map[int]uint16{
					0x0010: 0b0010_010_000000011,
				},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_ZERO,
				Registers: map[int]uint16{2: 0x0000},
			},
		},
		{
			Name: "LD Positive",
			Input: testMachineState{
				Program: 0x0010,
				Memory: map[int]uint16{
					0x0010: 0b0010_111_000000000,
					0x0011: 0x7FFF,
				},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{7: 0x7FFF},
			},
		},
	})
}

// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestNot(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "NOT Negative",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x0F0F},
				Memory:    map[int]uint16{0x0010: 0b1001_000_001_111111},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Registers: map[int]uint16{0: 0xF0F0},
			},
		},
		{
			Name: "NOT Zero",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0xFFFF},
				Memory:    map[int]uint16{0x0010: 0b1001_000_001_111111},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_ZERO,
				Registers: map[int]uint16{0: 0x0000},
			},
		},
		{
			Name: "NOT Positive",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0xCAFE, 1: 0x8000},
				Memory:    map[int]uint16{0x0010: 0b1001_000_001_111111},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
				Registers: map[int]uint16{0: 0x7FFF},
			},
		},
		{
			Name: "NOT In Place",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{6: 0x00FF},
				Memory:    map[int]uint16{0x0010: 0b1001_110_110_111111},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Registers: map[int]uint16{6: 0xFF00},
			},
		},
	})
}

// TRAP |1111    |0000   |trapvect8       | System call
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestTrap(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:    "TRAP OUT",
			Display: "A",
			Input: testMachineState{
				Program:   0x0010,
				Condition: FLAG_POS,
				Registers: map[int]uint16{0: 0x0041},
				Memory:    map[int]uint16{0x0010: 0b1111_0000_00100001},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_POS,
			},
		},
		{
			Name:    "TRAP OUT Code Point",
			Display: "Ω",
			Input: testMachineState{
				Program:   0x0010,
				Registers: map[int]uint16{0: 0x03A9},
				Memory:    map[int]uint16{0x0010: 0b1111_0000_00100001},
			},
			Output: testMachineState{Program: 0x0011},
		},
		{
			Name:    "TRAP OUT Repeated",
			Steps:   3,
			Display: "zzz",
			Input: testMachineState{
				Program:   0x0000,
				Registers: map[int]uint16{0: 'z'},
				Memory: map[int]uint16{
					0x0000: 0b1111_0000_00100001,
					0x0001: 0b1111_0000_00100001,
					0x0002: 0b1111_0000_00100001,
				},
			},
			Output: testMachineState{Program: 0x0003},
		},
		{
			Name: "TRAP HALT",
			Input: testMachineState{
				Program:   0x0010,
				Condition: FLAG_NEG,
				Memory:    map[int]uint16{0x0010: 0b1111_0000_00100101},
			},
			Output: testMachineState{
				Program:   0x0011,
				Condition: FLAG_NEG,
				Halted:    true,
			},
		},
		{
			Name: "TRAP Unknown Vector",
			Input: testMachineState{
				Program: 0x0010,
				Memory:  map[int]uint16{0x0010: 0b1111_0000_00100000},
			},
			Output: testMachineState{Program: 0x0011},
		},
	})
}

func TestConditionCode(t *testing.T) {
	assert := assert.New(t)

	for _, entry := range []struct {
		value int64
		bits  string
	}{
		{1, "001"},
		{32767, "001"},
		{0, "010"},
		{-1, "100"},
		{-32768, "100"},
	} {
		cc := ConditionCode(entry.value)
		assert.Equal(entry.bits, cc.String(), "value %d", entry.value)
		assert.Equal(ConditionBits, cc.Width())
	}
}

func TestTrapWithoutDisplay(t *testing.T) {
	mc := New()
	mc.state.memory[0].SetUnsigned(0b1111_0000_00100001)

	require.NoError(t, mc.Step())
	assert.Equal(t, uint64(1), mc.state.pc.Unsigned())
}
