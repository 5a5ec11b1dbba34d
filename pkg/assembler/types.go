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
	"strings"

	"github.com/lassandro/lc3sim/pkg/translate"
)

var f = translate.From

type LiteralType uint
type TokenType uint
type InstructionType uint
type DirectiveType uint

type Cursor struct {
	Line     int
	Column   int
	Byte     int64
	Size     int64
	LineByte int64
}

type Token struct {
	Type     TokenType
	Position Cursor
	Value    string
}

// SymTable maps assembled addresses back to the source that produced them.
type SymTable struct {
	Source string
	Lines  map[uint16]string
	Labels map[uint16]string
}

func (tokenType TokenType) String() string {
	switch tokenType {
	case TOKEN_IDENT:
		return "Identifier"
	case TOKEN_DIRECTIVE:
		return "Directive"
	case TOKEN_STRING:
		return "String"
	case TOKEN_LITERAL:
		return "Literal"
	case TOKEN_EXPR:
		return "Expression"
	}

	return "<invalid>"
}

type TokenError interface {
	error
	GetPosition() Cursor
}

// Location is embedded by every error tied to a place in the source.
type Location struct {
	Position Cursor
}

func at(position Cursor) Location {
	return Location{position}
}

func (loc Location) GetPosition() Cursor {
	return loc.Position
}

func (loc Location) format(msg string) string {
	return f("%02d:%02d: ", loc.Position.Line, loc.Position.Column) + msg
}

// want/have detail lines shared by the size and operand errors
func wantHave(want, have any) string {
	return f("\n\twant:%v\n\thave:%v", want, have)
}

type InvalidOperandError struct {
	Location
	Required []TokenType
	Received TokenType
}

func (err *InvalidOperandError) Error() string {
	names := make([]string, 0, len(err.Required))

	for _, tokenType := range err.Required {
		names = append(names, tokenType.String())
	}

	var required string

	switch count := len(names); {
	case count == 1:
		required = names[0]
	case count == 2:
		required = names[0] + " or " + names[1]
	case count > 2:
		required = strings.Join(names[:count-1], ", ") + ", or " + names[count-1]
	}

	return err.format(f("Invalid operands") + wantHave(required, err.Received))
}

type InvalidNumArgumentsError struct {
	Location
	Required int
	Received int
}

func (err *InvalidNumArgumentsError) Error() string {
	return err.format(
		f("Invalid number of arguments") + wantHave(err.Required, err.Received),
	)
}

type OversizedLabelError struct {
	Location
	Required int64
	Received int64
}

func (err *OversizedLabelError) Error() string {
	return err.format(
		f("Label exceeds allowed distance") + wantHave(err.Required, err.Received),
	)
}

type InvalidLiteralError struct {
	Location
}

func (err *InvalidLiteralError) Error() string {
	return err.format(f("Invalid numeric literal"))
}

type InvalidStringError struct {
	Location
}

func (err *InvalidStringError) Error() string {
	return err.format(f("Invalid string literal"))
}

type OversizedLiteralError struct {
	Location
	Required any
	Received any
}

func (err *OversizedLiteralError) Error() string {
	return err.format(
		f("Literal exceeds allowed size") + wantHave(err.Required, err.Received),
	)
}

type InvalidRegisterError struct {
	Location
}

func (err *InvalidRegisterError) Error() string {
	return err.format(f("Invalid register identifier"))
}

type UnexpectedCharacterError struct {
	Location
	Received rune
}

func (err *UnexpectedCharacterError) Error() string {
	return err.format(f("Unexpected character %c", err.Received))
}

type OversizedCharacterError struct {
	Location
}

func (err *OversizedCharacterError) Error() string {
	return err.format(f("Character exceeds ASCII limit"))
}

type RedeclaredLabelError struct {
	Location
	Received string
}

func (err *RedeclaredLabelError) Error() string {
	return err.format(f("Redeclaration of label '%s'", err.Received))
}

type UnknownLabelError struct {
	Location
	Received string
}

func (err *UnknownLabelError) Error() string {
	return err.format(f("Unknown label '%s'", err.Received))
}

type UnknownIdentifierError struct {
	Location
	Received string
}

func (err *UnknownIdentifierError) Error() string {
	return err.format(f("Unknown identifier '%s'", err.Received))
}

type InvalidExpressionError struct {
	Location
	Err error
}

func (err *InvalidExpressionError) Error() string {
	return err.format(f("Invalid expression: %v", err.Err))
}

func (err *InvalidExpressionError) Unwrap() error {
	return err.Err
}

type InvalidOriginError struct {
	Location
	Received uint16
}

func (err *InvalidOriginError) Error() string {
	return err.format(
		f("Programs are loaded at address 0") + wantHave("0x0000", f("%#04x", err.Received)),
	)
}

// OversizedBinaryError is the one error not tied to a source position.
type OversizedBinaryError struct {
	Limit    int
	Received int
}

func (err *OversizedBinaryError) Error() string {
	return f("Binary exceeds allowed size") + wantHave(
		f("%d words or fewer", err.Limit), err.Received,
	)
}
