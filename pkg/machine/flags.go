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
	"github.com/lassandro/lc3sim/pkg/bitvec"
)

// ConditionCode returns the one-hot N/Z/P code describing value.
func ConditionCode(value int64) bitvec.BitVector {
	cc := bitvec.MustNew(ConditionBits)

	if value == 0 {
		cc.SetUnsigned(FLAG_ZERO)
	} else if value < 0 {
		cc.SetUnsigned(FLAG_NEG)
	} else {
		cc.SetUnsigned(FLAG_POS)
	}

	return cc
}

func (mc *Machine) setFlags(value int64) {
	mc.state.cc = ConditionCode(value)
}
