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
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/lc3sim/pkg/assembler"
	"github.com/lassandro/lc3sim/pkg/encoding"
)

var helpvar bool
var debugvar bool
var outvar string

const usage = "lc3sim-asm [-debug] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.lc3db'",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

func withExt(filename, ext string) string {
	return filepath.Join(
		filepath.Dir(filename),
		strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))+ext,
	)
}

// Prints err followed by the offending source line with the token underlined
func printTokenError(source []byte, err assembler.TokenError) {
	cursor := err.GetPosition()

	if cursor.LineByte < 0 || cursor.LineByte > int64(len(source)) {
		log.Println(err)
		return
	}

	line, _ := bufio.NewReader(
		bytes.NewReader(source[cursor.LineByte:]),
	).ReadString('\n')

	underlinefmt := fmt.Sprintf(
		"%% %ds%s",
		int(cursor.Byte-cursor.LineByte)+1,
		strings.Repeat("~", max(int(cursor.Size)-1, 0)),
	)

	log.Printf(
		"%s\n%s\n\033[31m%s\033[0m",
		err,
		strings.TrimRight(line, "\r\n"),
		fmt.Sprintf(underlinefmt, "^"),
	)
}

func lc3sim_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var input io.Reader

	if stat, _ := os.Stdin.Stat(); len(args) == 0 && stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m")

		if outvar == "" {
			outvar = "out.lc3"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid LC3 assembly file", filename)
			return 1
		}

		input = file
		infile = file.Name()
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

		if outvar == "" {
			outvar = withExt(infile, ".lc3")
		}
	}

	source, err := io.ReadAll(input)

	if err != nil {
		log.Println(err)
		return 1
	}

	var symtable assembler.SymTable
	var symtarget *assembler.SymTable = nil

	if debugvar {
		if infile != "" {
			if symtable.Source, err = filepath.Abs(infile); err != nil {
				log.Println(err)
				symtable.Source = ""
			}
		}
		symtarget = &symtable
	}

	result, errs := assembler.AssembleSource(bytes.NewReader(source), symtarget)

	if len(errs) > 0 {
		for _, err := range errs {
			if tokenErr, ok := err.(assembler.TokenError); ok {
				printTokenError(source, tokenErr)
			} else {
				log.Println(err)
			}
		}

		return 1
	}

	{
		buffer := new(bytes.Buffer)

		if err := encoding.EncodeProgram(buffer, result); err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			return 1
		}

		if err := os.WriteFile(outvar, buffer.Bytes(), 0666); err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			return 1
		}
	}

	if debugvar {
		filename := withExt(outvar, ".lc3db")

		if file, err := os.OpenFile(
			filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666,
		); err == nil {
			defer file.Close()

			if err := gob.NewEncoder(file).Encode(symtable); err != nil {
				log.Println("Error writing symbol table")
				log.Println(err)
				return 1
			}
		} else {
			log.Println("Error creating symbol table")
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(lc3sim_asm())
}
