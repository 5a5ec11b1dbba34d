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

// Package translate formats user-facing messages for the current locale.
package translate

import (
	"fmt"
	"sync/atomic"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Messages are keyed by their en-US format string.
var Fallback = language.AmericanEnglish

var printer atomic.Pointer[message.Printer]

func init() {
	Use(Detect())
}

// Detect picks the first locale from the environment that parses as a BCP 47
// tag, or Fallback.
func Detect() language.Tag {
	names, err := locale.GetLocales()

	if err != nil {
		return Fallback
	}

	for _, name := range names {
		if tag, err := language.Parse(name); err == nil {
			return tag
		}
	}

	return Fallback
}

// Set selects the locale by name. An empty name keeps the detected locale.
func Set(name string) error {
	if name == "" {
		return nil
	}

	tag, err := language.Parse(name)

	if err != nil {
		return fmt.Errorf("locale %q: %w", name, err)
	}

	Use(tag)
	return nil
}

func Use(tag language.Tag) {
	printer.Store(message.NewPrinter(tag))
}

// From formats an en-US Sprintf() key for the selected locale.
func From(key message.Reference, args ...any) string {
	return printer.Load().Sprintf(key, args...)
}
