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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// textConfig specifies how a column-oriented text file is laid out.
type textConfig struct {
	// SkipLines is the number of header lines at the top of the file.
	SkipLines int
	// Comment starts a comment that runs to the end of the line.
	// Lines that are empty once the comment is removed are ignored.
	// Zero means no comments.
	Comment byte
	// Delimiter separates fields. Zero means runs of whitespace.
	Delimiter rune
	// Columns, if not nil, selects the fields that are parsed;
	// the others are kept as text and discarded.
	Columns []int
}

// gridText is the layout of ascii grid field files.
var gridText = textConfig{SkipLines: 2, Comment: 'P'}

// columnText is the layout of ascii particle files.
var columnText = textConfig{}

// timeText is the layout of time record files.
var timeText = textConfig{Delimiter: ':', Columns: []int{1}}

// loadText reads the rows of a text file. name is only used
// in error messages.
func loadText(r io.Reader, name string, cfg textConfig) ([][]float64, error) {
	var rows [][]float64
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1<<30)
	line := 0
	for s.Scan() {
		line++
		if line <= cfg.SkipLines {
			continue
		}
		text := s.Text()
		if cfg.Comment != 0 {
			if i := strings.IndexByte(text, cfg.Comment); i >= 0 {
				text = text[:i]
			}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		var fields []string
		if cfg.Delimiter == 0 {
			fields = strings.Fields(text)
		} else {
			fields = strings.Split(text, string(cfg.Delimiter))
		}
		if cfg.Columns != nil {
			selected := make([]string, len(cfg.Columns))
			for i, c := range cfg.Columns {
				if c >= len(fields) {
					return nil, &ParseError{File: name, Line: line,
						Err: fmt.Errorf("no column %d in %d fields", c, len(fields))}
				}
				selected[i] = fields[c]
			}
			fields = selected
		}
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, &ParseError{File: name, Line: line, Err: err}
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	return rows, nil
}

// loadTextFile opens filename, reads it with loadText and
// closes it again.
func loadTextFile(filename string, cfg textConfig) ([][]float64, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadText(f, filename, cfg)
}

// flatten concatenates rows into a single vector.
func flatten(rows [][]float64) []float64 {
	n := 0
	for _, r := range rows {
		n += len(r)
	}
	o := make([]float64, 0, n)
	for _, r := range rows {
		o = append(o, r...)
	}
	return o
}
