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

// Package tapioca reads the output of the Mandyoc geodynamic code.
// Grid fields (temperature, density, velocity, ...) and particle
// trajectories written per step (and, for particles, per rank) are
// assembled into a labeled, time-indexed Dataset that can be
// inspected in memory or written to a netCDF file.
package tapioca

import "fmt"

// Version gives the version number.
const Version = "0.3.0"

// FileType is the physical encoding of Mandyoc output files.
type FileType string

// Valid file types.
const (
	ASCII  FileType = "ascii"
	Binary FileType = "binary"
)

// ext returns the file extension used for the file type.
func (t FileType) ext() string {
	if t == Binary {
		return ".bin"
	}
	return ".txt"
}

// Check returns an error if t is not a supported file type.
func (t FileType) Check() error {
	switch t {
	case ASCII, Binary:
		return nil
	default:
		return fmt.Errorf("%w '%s'", ErrFileType, string(t))
	}
}

// StepWindow restricts the steps that are searched for
// to the interval [Min, Max].
type StepWindow struct {
	Min, Max int
}
