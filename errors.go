/*
Copyright © 2024 the tapioca authors.
This file is part of tapioca.

tapioca is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

tapioca is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with tapioca.  If not, see <http://www.gnu.org/licenses/>.
*/

package tapioca

import (
	"errors"
	"fmt"
)

var (
	// ErrFileType is returned when a file type other than
	// "ascii" or "binary" is requested.
	ErrFileType = errors.New("tapioca: invalid filetype")

	// ErrQuantity is returned when an unknown grid quantity is requested.
	ErrQuantity = errors.New("tapioca: invalid quantity")

	// ErrDimension is returned when the parameters file describes
	// a grid that is neither 2-D nor 3-D.
	ErrDimension = errors.New("tapioca: invalid dimension")

	// ErrPrintStep is returned when the step cadence is not positive.
	ErrPrintStep = errors.New("tapioca: print_step must be positive")
)

// RankError is returned when the number of particle rank files
// at a step differs from the number found at the first step.
type RankError struct {
	Step     int
	Expected int
	Found    int
}

func (e *RankError) Error() string {
	return fmt.Sprintf("tapioca: invalid number of ranks '%d' for step '%d' (expected %d)",
		e.Found, e.Step, e.Expected)
}

// ParseError reports malformed content in an output or parameters file.
// Line is 1-based and is zero when the error is not tied to a line,
// for example in binary files.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("tapioca: parsing %s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("tapioca: parsing %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
