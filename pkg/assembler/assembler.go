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

package assembler

import (
	"bufio"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/lassandro/lc3sim/pkg/encoding"
	"github.com/lassandro/lc3sim/pkg/machine"
)

var directives = map[string]DirectiveType{
	".ORIG":    DIRECTIVE_ORIG,
	".FILL":    DIRECTIVE_FILL,
	".BLKW":    DIRECTIVE_BLKW,
	".STRINGZ": DIRECTIVE_STRINGZ,
	".END":     DIRECTIVE_END,
}

var instructions = map[string]InstructionType{
	"ADD":   INSTRUCTION_ADD,
	"AND":   INSTRUCTION_AND,
	"BR":    INSTRUCTION_BR,
	"BRN":   INSTRUCTION_BRn,
	"BRZ":   INSTRUCTION_BRz,
	"BRP":   INSTRUCTION_BRp,
	"BRNZ":  INSTRUCTION_BRnz,
	"BRZP":  INSTRUCTION_BRzp,
	"BRNP":  INSTRUCTION_BRnp,
	"BRNZP": INSTRUCTION_BRnzp,
	"LD":    INSTRUCTION_LD,
	"NOT":   INSTRUCTION_NOT,
	"TRAP":  INSTRUCTION_TRAP,
	"OUT":   INSTRUCTION_OUT,
	"HALT":  INSTRUCTION_HALT,
}

// N/Z/P test bits for each branch mnemonic. Plain BR tests every flag.
var branchFlags = map[InstructionType]uint16{
	INSTRUCTION_BR:    0b111,
	INSTRUCTION_BRn:   0b100,
	INSTRUCTION_BRz:   0b010,
	INSTRUCTION_BRp:   0b001,
	INSTRUCTION_BRnz:  0b110,
	INSTRUCTION_BRzp:  0b011,
	INSTRUCTION_BRnp:  0b101,
	INSTRUCTION_BRnzp: 0b111,
}

func parseDirective(ident string) DirectiveType {
	return directives[strings.ToUpper(ident)]
}

func parseInstruction(ident string) InstructionType {
	return instructions[strings.ToUpper(ident)]
}

func parseRegister(token *Token) (uint16, bool) {
	ident := token.Value

	if len(ident) != 2 || (ident[0] != 'R' && ident[0] != 'r') {
		return 0, false
	}

	if ident[1] < '0' || ident[1] > '7' {
		return 0, false
	}

	return uint16(ident[1] - '0'), true
}

// Range of values a literal of the given width may take. Trap vectors are
// unsigned, everything else is two's complement.
func literalRange(bits LiteralType) (int64, int64) {
	switch bits {
	case LITERAL_TRAPVEC8:
		return 0, (1 << bits) - 1
	case LITERAL_WORD:
		return -(1 << (bits - 1)), (1 << bits) - 1
	}

	return -(1 << (bits - 1)), (1 << (bits - 1)) - 1
}

func checkLiteral(token *Token, value int64, bits LiteralType) (uint16, error) {
	low, high := literalRange(bits)

	if value < low || value > high {
		return 0, &OversizedLiteralError{at(token.Position), high, value}
	}

	return uint16(value) & uint16((1<<bits)-1), nil
}

func parseLiteral(token *Token, bits LiteralType) (uint16, error) {
	if strings.ContainsAny(token.Value, "xX") {
		result, err := encoding.DecodeHex(token.Value)

		if err != nil {
			return 0, &InvalidLiteralError{at(token.Position)}
		}

		// Hex literals are raw bit patterns
		if bits < LITERAL_WORD && result >= uint16(1)<<bits {
			return 0, &OversizedLiteralError{
				at(token.Position), (1 << bits) - 1, result,
			}
		}

		return result, nil
	}

	result, err := encoding.DecodeInt(token.Value)

	if errors.Is(err, strconv.ErrRange) {
		return 0, &OversizedLiteralError{
			at(token.Position), int16(math.MaxInt16), token.Value,
		}
	} else if err != nil {
		return 0, &InvalidLiteralError{at(token.Position)}
	}

	return checkLiteral(token, int64(result), bits)
}

// evalExpr evaluates the body of a $(...) operand. Labels declared so far and
// HERE, the address being assembled, are predeclared.
func evalExpr(token *Token, labels map[string]uint16, here uint16, bits LiteralType) (uint16, error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{EXPR_HERE: starlark.MakeInt(int(here))}

	for label, addr := range labels {
		pred[label] = starlark.MakeInt(int(addr))
	}

	prog := "rc = " + token.Value + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)

	if err != nil {
		return 0, &InvalidExpressionError{at(token.Position), err}
	}

	rc, ok := dict["rc"].(starlark.Int)

	if !ok {
		return 0, &InvalidLiteralError{at(token.Position)}
	}

	value, ok := rc.Int64()

	if !ok {
		return 0, &InvalidLiteralError{at(token.Position)}
	}

	return checkLiteral(token, value, bits)
}

func isWordBreak(char rune) bool {
	return unicode.IsSpace(char) || char == ',' || char == ';' || char == '"'
}

func isIdentChar(char rune) bool {
	return char == '_' || (char <= unicode.MaxASCII &&
		(unicode.IsLetter(char) || unicode.IsDigit(char)))
}

func isHexLiteral(word string) bool {
	if len(word) < 2 || (word[0] != 'x' && word[0] != 'X') {
		return false
	}

	for _, char := range word[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", char) {
			return false
		}
	}

	return true
}

// tokenize splits one source line into tokens. cursor carries the line number
// and the byte offset of the start of the line.
func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	column := 0
	i := 0

	emit := func(tokenType TokenType, start, startColumn int, value string) {
		tokens = append(tokens, Token{
			Type: tokenType,
			Position: Cursor{
				Line:     cursor.Line,
				Column:   startColumn,
				Byte:     cursor.LineByte + int64(start),
				Size:     int64(i - start),
				LineByte: cursor.LineByte,
			},
			Value: value,
		})
	}

	for i < len(line) {
		char, size := utf8.DecodeRuneInString(line[i:])
		column++

		position := Cursor{
			Line:     cursor.Line,
			Column:   column,
			Byte:     cursor.LineByte + int64(i),
			Size:     1,
			LineByte: cursor.LineByte,
		}

		switch {
		// Whitespace and operand separators
		case unicode.IsSpace(char) || char == ',':
			i += size
			continue

		// Comments
		case char == ';':
			return tokens, errs

		// String Literal
		case char == '"':
			start, startColumn := i, column
			end := -1

			for j := i + 1; j < len(line); j++ {
				if line[j] == '\\' {
					j++
				} else if line[j] == '"' {
					end = j
					break
				}
			}

			if end == -1 {
				errs = append(errs, &InvalidStringError{at(position)})
				return tokens, errs
			}

			column += utf8.RuneCountInString(line[i+1 : end+1])
			i = end + 1
			emit(TOKEN_STRING, start, startColumn, line[start:i])
			continue

		// Compile-time expression, i.e. $(LOOP - HERE - 1)
		case char == '$' && strings.HasPrefix(line[i:], "$("):
			start, startColumn := i, column
			depth := 0
			end := -1

			for j := i + 1; j < len(line) && end == -1; j++ {
				switch line[j] {
				case '(':
					depth++
				case ')':
					depth--
					if depth == 0 {
						end = j
					}
				}
			}

			if end == -1 {
				errs = append(errs, &UnexpectedCharacterError{at(position), char})
				return tokens, errs
			}

			column += utf8.RuneCountInString(line[i+1 : end+1])
			i = end + 1
			emit(TOKEN_EXPR, start, startColumn, line[start+2:end])
			continue

		case char > unicode.MaxASCII:
			errs = append(errs, &OversizedCharacterError{at(position)})
			i += size
			continue
		}

		// Everything else is a word running up to the next break
		start, startColumn := i, column
		j := i + size

		for j < len(line) {
			next, nextSize := utf8.DecodeRuneInString(line[j:])

			if isWordBreak(next) {
				break
			}

			j += nextSize
			column++
		}

		word := line[i:j]
		i = j

		switch {
		// Assembler Directives
		case char == '.':
			for _, c := range word[1:] {
				if !unicode.IsLetter(c) {
					errs = append(errs, &UnexpectedCharacterError{at(position), c})
					break
				}
			}

			emit(TOKEN_DIRECTIVE, start, startColumn, word)

		// Base 10 Literal (i.e. #42, -3) or hex literal (i.e. x2A)
		case char == '#' || char == '-' || unicode.IsDigit(char) || isHexLiteral(word):
			emit(TOKEN_LITERAL, start, startColumn, word)

		// Identifier
		case char == '_' || unicode.IsLetter(char):
			valid := true

			for _, c := range word {
				if !isIdentChar(c) {
					errs = append(errs, &UnexpectedCharacterError{at(position), c})
					valid = false
					break
				}
			}

			if valid {
				emit(TOKEN_IDENT, start, startColumn, word)
			}

		default:
			errs = append(errs, &UnexpectedCharacterError{at(position), char})
		}
	}

	return tokens, errs
}

// AssembleSource assembles a program for the simulator. The result holds one
// word per address starting at 0. When symtable is non-nil it is filled with
// the labels and source lines of every assembled address.
func AssembleSource(input io.Reader, symtable *SymTable) (result []uint16, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     uint16
		Position Cursor
	}

	type FillRef struct {
		Label    string
		Addr     uint16
		Position Cursor
	}

	var labels = make(map[string]uint16)
	var labelRefs []LabelRef
	var fillRefs []FillRef

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 0}

	result = make([]uint16, 0, machine.MemorySize)
	errs = make([]error, 0)

	if symtable != nil {
		if symtable.Lines == nil {
			symtable.Lines = make(map[uint16]string)
		}

		if symtable.Labels == nil {
			symtable.Labels = make(map[uint16]string)
		}
	}

	// Resolves a label, literal or expression operand into a field of the
	// given width
	operand := func(token *Token, bits LiteralType) (uint16, bool) {
		var value uint16
		var err error

		switch token.Type {
		case TOKEN_LITERAL:
			value, err = parseLiteral(token, bits)
		case TOKEN_EXPR:
			value, err = evalExpr(token, labels, uint16(len(result)), bits)
		default:
			errs = append(errs, &InvalidOperandError{
				at(token.Position),
				[]TokenType{TOKEN_LITERAL, TOKEN_EXPR},
				token.Type,
			})
			return 0, false
		}

		if err != nil {
			errs = append(errs, err)
			return 0, false
		}

		return value, true
	}

	register := func(token *Token) uint16 {
		if token.Type != TOKEN_IDENT {
			errs = append(errs, &InvalidOperandError{
				at(token.Position), []TokenType{TOKEN_IDENT}, token.Type,
			})
			return 0
		}

		reg, ok := parseRegister(token)

		if !ok {
			errs = append(errs, &InvalidRegisterError{at(token.Position)})
		}

		return reg
	}

	// PC relative operand, either a label resolved once every label is
	// known or a raw offset
	pcOffset := func(token *Token) uint16 {
		if token.Type == TOKEN_IDENT {
			labelRefs = append(labelRefs, LabelRef{
				token.Value, uint16(len(result)), token.Position,
			})
			return 0
		}

		value, _ := operand(token, LITERAL_PCOFFSET9)
		return value
	}

	numArgs := func(keyword *Token, operands []Token, want int) bool {
		if count := len(operands); count != want {
			errs = append(
				errs, &InvalidNumArgumentsError{at(keyword.Position), want, count},
			)
			return false
		}

		return true
	}

scan:
	for scanner.Scan() {
		line := scanner.Text()

		cursor.Line++
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenize(line, cursor)
		cursor.LineByte += int64(len(line) + 1)
		cursor.Byte = cursor.LineByte

		// Pass any potential assembler errors if we already had parser errors
		if len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			continue
		}

		if len(tokens) == 0 {
			continue
		}

		var label *Token = nil
		var directive DirectiveType
		var instruction InstructionType
		var keyword *Token = nil
		var operands []Token

		for i := range tokens {
			if i > 1 {
				break
			}

			if instruction = parseInstruction(tokens[i].Value); instruction != INSTRUCTION_INVALID {
				keyword = &tokens[i]
			} else if directive = parseDirective(tokens[i].Value); directive != DIRECTIVE_INVALID {
				keyword = &tokens[i]
			} else if i == 0 && tokens[i].Type == TOKEN_IDENT {
				label = &tokens[i]
				continue
			}

			operands = tokens[i+1:]
			break
		}

		addr := uint16(len(result))

		if label != nil {
			if _, exists := labels[label.Value]; !exists {
				labels[label.Value] = addr

				if symtable != nil {
					symtable.Labels[addr] = label.Value
				}
			} else {
				errs = append(
					errs, &RedeclaredLabelError{at(label.Position), label.Value},
				)
			}

			// No need to assemble label-only statements
			if len(tokens) == 1 {
				continue
			}
		}

		if keyword == nil {
			unknown := &tokens[0]

			if label != nil {
				unknown = &tokens[1]
			}

			errs = append(
				errs, &UnknownIdentifierError{at(unknown.Position), unknown.Value},
			)
			continue
		}

		if symtable != nil && directive != DIRECTIVE_END && directive != DIRECTIVE_ORIG {
			symtable.Lines[addr] = strings.TrimSpace(line)
		}

		switch directive {
		// .END
		case DIRECTIVE_END:
			numArgs(keyword, operands, 0)
			break scan

		// .ORIG x0000
		case DIRECTIVE_ORIG:
			if !numArgs(keyword, operands, 1) {
				break
			}

			if origin, ok := operand(&operands[0], LITERAL_WORD); ok && origin != 0 {
				errs = append(errs, &InvalidOriginError{at(operands[0].Position), origin})
			}

		// .FILL #
		case DIRECTIVE_FILL:
			if !numArgs(keyword, operands, 1) {
				result = append(result, 0)
				break
			}

			if operands[0].Type == TOKEN_IDENT {
				if target, exists := labels[operands[0].Value]; exists {
					result = append(result, target)
				} else {
					fillRefs = append(fillRefs, FillRef{
						operands[0].Value, addr, operands[0].Position,
					})
					result = append(result, 0)
				}
			} else {
				value, _ := operand(&operands[0], LITERAL_WORD)
				result = append(result, value)
			}

		// .BLKW #
		case DIRECTIVE_BLKW:
			if !numArgs(keyword, operands, 1) {
				break
			}

			count, ok := operand(&operands[0], LITERAL_WORD)

			if !ok {
				break
			}

			if int(count) >= machine.MemorySize {
				errs = append(errs, &OversizedLiteralError{
					at(operands[0].Position), machine.MemorySize - 1, count,
				})
				break
			}

			result = append(result, make([]uint16, count)...)

		// .STRINGZ "..."
		case DIRECTIVE_STRINGZ:
			if !numArgs(keyword, operands, 1) {
				break
			}

			if operands[0].Type != TOKEN_STRING {
				errs = append(errs, &InvalidOperandError{
					at(operands[0].Position),
					[]TokenType{TOKEN_STRING},
					operands[0].Type,
				})
				break
			}

			s, err := strconv.Unquote(operands[0].Value)

			if err != nil {
				errs = append(errs, &InvalidStringError{at(operands[0].Position)})
				break
			}

			for _, c := range s {
				result = append(result, uint16(c))
			}

			result = append(result, 0)
		}

		if instruction == INSTRUCTION_INVALID {
			continue
		}

		var scratch uint16 = 0

		switch instruction {
		// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
		// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
		// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
		// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_ADD, INSTRUCTION_AND:
			if instruction == INSTRUCTION_ADD {
				scratch = uint16(machine.OP_ADD) << 12
			} else {
				scratch = uint16(machine.OP_AND) << 12
			}

			if !numArgs(keyword, operands, 3) {
				break
			}

			scratch |= register(&operands[0]) << 9
			scratch |= register(&operands[1]) << 6

			if operands[2].Type == TOKEN_IDENT {
				scratch |= register(&operands[2])
			} else if imm5, ok := operand(&operands[2], LITERAL_IMM5); ok {
				scratch |= 1 << 5
				scratch |= imm5 & 0x1F
			}

		// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_BR, INSTRUCTION_BRn, INSTRUCTION_BRz,
			INSTRUCTION_BRp, INSTRUCTION_BRnz, INSTRUCTION_BRzp,
			INSTRUCTION_BRnp, INSTRUCTION_BRnzp:
			scratch = uint16(machine.OP_BR)<<12 | branchFlags[instruction]<<9

			if !numArgs(keyword, operands, 1) {
				break
			}

			scratch |= pcOffset(&operands[0]) & 0x1FF

		// LD   |0010    |DR   |PCoffset9         | Load
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_LD:
			scratch = uint16(machine.OP_LD) << 12

			if !numArgs(keyword, operands, 2) {
				break
			}

			scratch |= register(&operands[0]) << 9
			scratch |= pcOffset(&operands[1]) & 0x1FF

		// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_NOT:
			scratch = uint16(machine.OP_NOT)<<12 | 0x3F

			if !numArgs(keyword, operands, 2) {
				break
			}

			scratch |= register(&operands[0]) << 9
			scratch |= register(&operands[1]) << 6

		// TRAP |1111    |0000   |trapvect8       | System call
		// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
		case INSTRUCTION_TRAP:
			scratch = uint16(machine.OP_TRAP) << 12

			if !numArgs(keyword, operands, 1) {
				break
			}

			if vector, ok := operand(&operands[0], LITERAL_TRAPVEC8); ok {
				scratch |= vector
			}

		case INSTRUCTION_OUT:
			scratch = uint16(machine.OP_TRAP)<<12 | uint16(machine.TRAP_OUT)
			numArgs(keyword, operands, 0)

		case INSTRUCTION_HALT:
			scratch = uint16(machine.OP_TRAP)<<12 | uint16(machine.TRAP_HALT)
			numArgs(keyword, operands, 0)
		}

		result = append(result, scratch)
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	for _, ref := range labelRefs {
		target, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{at(ref.Position), ref.Label})
			continue
		}

		offset := int64(target) - int64(ref.Addr) - 1

		if offset < -256 || offset > 255 {
			errs = append(errs, &OversizedLabelError{at(ref.Position), 255, offset})
			continue
		}

		result[ref.Addr] |= uint16(offset) & 0x1FF
	}

	for _, ref := range fillRefs {
		target, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{at(ref.Position), ref.Label})
			continue
		}

		result[ref.Addr] = target
	}

	if len(result) >= machine.MemorySize {
		errs = append(errs, &OversizedBinaryError{
			machine.MemorySize - 1, len(result),
		})
	}

	return result, errs
}
