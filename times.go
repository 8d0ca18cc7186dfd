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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultTimePrefix is the prefix of the files holding the
// time of each saved step.
const DefaultTimePrefix = "Tempo_"

// yearsToMa converts the native time unit to millions of years.
const yearsToMa = 1e-6

// ReadTimes returns the saved steps in dir and the time of each step
// in millions of years. Candidate steps are multiples of printStep
// starting at 0 and ending at maxSteps, or, if window is not nil,
// starting at window.Min and ending at window.Max.
//
// Steps are assumed to be contiguous: the search ends at the first
// candidate step that has no time file.
func ReadTimes(dir string, printStep, maxSteps int, window *StepWindow) (steps []int, times []float64, err error) {
	return readTimes(dir, DefaultTimePrefix, printStep, maxSteps, window)
}

func readTimes(dir, prefix string, printStep, maxSteps int, window *StepWindow) (steps []int, times []float64, err error) {
	if printStep <= 0 {
		return nil, nil, fmt.Errorf("%w (got %d)", ErrPrintStep, printStep)
	}
	first, last := 0, maxSteps
	if window != nil {
		first, last = window.Min, window.Max
	}
	for step := first; step < last+printStep; step += printStep {
		filename := filepath.Join(dir, prefix+strconv.Itoa(step)+".txt")
		if _, err := os.Stat(filename); err != nil {
			if os.IsNotExist(err) {
				break
			}
			return nil, nil, fmt.Errorf("tapioca: checking time file: %w", err)
		}
		t, err := readTime(filename)
		if err != nil {
			return nil, nil, err
		}
		steps = append(steps, step)
		times = append(times, t*yearsToMa)
	}
	return steps, times, nil
}

// readTime returns the time held in the first row of a time file.
func readTime(filename string) (float64, error) {
	rows, err := loadTextFile(filename, timeText)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, &ParseError{File: filename, Err: fmt.Errorf("no time record")}
	}
	return rows[0][0], nil
}
