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

// DefaultParametersFile is the name of the Mandyoc parameters file
// that is looked for in the output directory when no other is given.
const DefaultParametersFile = "param_1.5.3_2D.txt"

// Parameters holds the information in a Mandyoc parameters file.
//
// The file holds the length of the domain along each axis. The region
// is built assuming that the last axis points upward, so that every
// point beneath the surface has a negative vertical coordinate, while
// the horizontal axes are positive within the domain.
type Parameters struct {
	// Shape is the number of grid nodes along each axis.
	Shape []int
	// MaxCoords is the length of the domain along each axis [m].
	MaxCoords []float64
	// Region holds the minimum and maximum coordinate of each
	// axis: x_min, x_max, [y_min, y_max,] z_min, z_max.
	Region []float64
	// Dimension is the number of spatial dimensions, 2 or 3.
	Dimension int

	// PrintStep is the cadence at which steps are saved.
	PrintStep int
	// StepMax is the maximum number of steps of the simulation.
	StepMax int
	// TimeMax is the maximum simulation time.
	TimeMax float64

	// Values holds the remaining parameters as text.
	Values map[string]string
}

// unitAttrs are added to the attributes of every Dataset.
var unitAttrs = [][2]string{
	{"coords_units", "m"},
	{"times_units", "Ma"},
	{"temperature_units", "C"},
	{"density_units", "kg/m^3"},
	{"heat_units", "W/m^3"},
	{"viscosity_factor_units", "dimensionless"},
	{"viscosity_units", "Pa s"},
	{"strain_rate_units", "s^(-1)"},
	{"pressure_units", "Pa"},
}

// ReadParameters reads the parameters file at the given path.
func ReadParameters(filename string) (*Parameters, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("tapioca: opening parameters file: %w", err)
	}
	defer f.Close()
	return parseParameters(f, filename)
}

// ParseParameters parses parameters from r.
func ParseParameters(r io.Reader) (*Parameters, error) {
	return parseParameters(r, "parameters")
}

func parseParameters(r io.Reader, name string) (*Parameters, error) {
	p := &Parameters{Values: make(map[string]string)}
	var readShape, readMaxCoords bool
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		switch {
		case !readShape:
			p.Shape = make([]int, len(fields))
			for i, f := range fields {
				v, err := strconv.Atoi(f)
				if err != nil {
					return nil, &ParseError{File: name, Line: line, Err: err}
				}
				p.Shape[i] = v
			}
			p.Dimension = len(p.Shape)
			readShape = true
		case !readMaxCoords:
			p.MaxCoords = make([]float64, len(fields))
			for i, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, &ParseError{File: name, Line: line, Err: err}
				}
				p.MaxCoords[i] = v
			}
			if len(p.MaxCoords) != p.Dimension {
				return nil, fmt.Errorf("%w: %d maximum coordinates for a %d-dimensional grid in %s",
					ErrDimension, len(p.MaxCoords), p.Dimension, name)
			}
			readMaxCoords = true
		default:
			if len(fields) != 2 {
				return nil, &ParseError{File: name, Line: line,
					Err: fmt.Errorf("expected 'key value' but got %d fields", len(fields))}
			}
			if err := p.set(fields[0], fields[1]); err != nil {
				return nil, &ParseError{File: name, Line: line, Err: err}
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	if !readMaxCoords {
		return nil, fmt.Errorf("%w: %s is missing the grid shape or extent", ErrDimension, name)
	}

	switch p.Dimension {
	case 2:
		p.Region = []float64{0, p.MaxCoords[0], -p.MaxCoords[1], 0}
	case 3:
		p.Region = []float64{0, p.MaxCoords[0], 0, p.MaxCoords[1], -p.MaxCoords[2], 0}
	default:
		return nil, fmt.Errorf("%w: %d", ErrDimension, p.Dimension)
	}
	return p, nil
}

// set stores a key value pair, converting the keys
// that are known to be numeric.
func (p *Parameters) set(key, value string) error {
	var err error
	switch key {
	case "print_step":
		p.PrintStep, err = strconv.Atoi(value)
	case "stepMAX", "step_max":
		p.StepMax, err = strconv.Atoi(value)
	case "timeMAX":
		p.TimeMax, err = strconv.ParseFloat(value, 64)
	default:
		p.Values[key] = value
	}
	if err != nil {
		return fmt.Errorf("parameter %s: %w", key, err)
	}
	return nil
}

// Axes returns the names of the spatial axes: x and z for 2-D grids
// and x, y and z for 3-D grids.
func (p *Parameters) Axes() []string {
	if p.Dimension == 3 {
		return []string{"x", "y", "z"}
	}
	return []string{"x", "z"}
}

// Attrs returns the parameters as dataset attributes,
// including the units of the coordinates and quantities.
func (p *Parameters) Attrs() map[string]interface{} {
	a := make(map[string]interface{}, len(p.Values)+len(unitAttrs)+6)
	for k, v := range p.Values {
		a[k] = v
	}
	a["shape"] = append([]int(nil), p.Shape...)
	a["region"] = append([]float64(nil), p.Region...)
	a["dimension"] = p.Dimension
	a["print_step"] = p.PrintStep
	a["stepMAX"] = p.StepMax
	a["timeMAX"] = p.TimeMax
	for _, u := range unitAttrs {
		a[u[0]] = u[1]
	}
	return a
}
