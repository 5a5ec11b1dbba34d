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

package encoding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lassandro/lc3sim/pkg/bitvec"
)

// WordWidth is the number of bits in a machine word.
const WordWidth = 16

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (int16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return int16(result), nil
}

// Decodes an address or count in either hex or base-10 format
func DecodeAddr(s string) (uint16, error) {
	if strings.ContainsAny(s, "xX") {
		return DecodeHex(s)
	}

	result, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

type WordLengthError struct {
	Line     int
	Received int
}

func (err *WordLengthError) Error() string {
	return fmt.Sprintf(
		"%02d: Invalid word length\n\twant:%d\n\thave:%d",
		err.Line,
		WordWidth,
		err.Received,
	)
}

// Decodes a literal 16 character bit pattern such as 0001010001000010.
// Underscores and spaces may be used as visual separators.
func DecodeWord(s string) (bitvec.BitVector, error) {
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == ' ' || r == '\t' {
			return -1
		}

		return r
	}, s)

	if len(s) != WordWidth {
		return bitvec.BitVector{}, &WordLengthError{Received: len(s)}
	}

	return bitvec.Parse(s)
}

// Decodes a program listing with one bit pattern per line. Everything after a
// ';' is a comment and blank lines are skipped.
func DecodeProgram(reader io.Reader) ([]string, error) {
	var words []string

	scanner := bufio.NewScanner(reader)
	line := 0

	for scanner.Scan() {
		line++
		text := scanner.Text()

		if i := strings.IndexByte(text, ';'); i != -1 {
			text = text[:i]
		}

		text = strings.TrimSpace(text)

		if text == "" {
			continue
		}

		word, err := DecodeWord(text)

		if err != nil {
			var lengthErr *WordLengthError
			if errors.As(err, &lengthErr) {
				lengthErr.Line = line
				return nil, lengthErr
			}

			return nil, fmt.Errorf("%02d: %w", line, err)
		}

		words = append(words, word.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return words, nil
}

// Encodes words as a program listing accepted by DecodeProgram.
func EncodeProgram(writer io.Writer, words []uint16) error {
	buffered := bufio.NewWriter(writer)

	for _, value := range words {
		word, err := bitvec.FromUnsigned(WordWidth, uint64(value))

		if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(buffered, word.String()); err != nil {
			return err
		}
	}

	return buffered.Flush()
}
