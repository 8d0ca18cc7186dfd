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
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"math"
)

// Field widths of the packed binary layouts, in bytes.
const (
	sizeInt   = 4
	sizeFloat = 8
)

// petscVecClassID is the identifier PETSc writes at the top of
// a binary vector file.
const petscVecClassID = 1211214

// decodeVector decodes a binary grid field. Files written by the PETSc
// binary viewer (a big-endian class id and length followed by big-endian
// doubles) are recognized by their header; anything else is read as a
// raw little-endian vector of doubles with no header.
func decodeVector(b []byte) ([]float64, error) {
	if len(b) >= 2*sizeInt && binary.BigEndian.Uint32(b) == petscVecClassID {
		n := int(int32(binary.BigEndian.Uint32(b[sizeInt:])))
		if n >= 0 && len(b) == 2*sizeInt+n*sizeFloat {
			return decodeFloats(b[2*sizeInt:], n, binary.BigEndian), nil
		}
	}
	if len(b)%sizeFloat != 0 {
		return nil, fmt.Errorf("binary vector length %d is not a multiple of %d", len(b), sizeFloat)
	}
	return decodeFloats(b, len(b)/sizeFloat, binary.LittleEndian), nil
}

func decodeFloats(b []byte, n int, order binary.ByteOrder) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = math.Float64frombits(order.Uint64(b[i*sizeFloat:]))
	}
	return o
}

func decodeInts(b []byte, n int, order binary.ByteOrder) []int {
	o := make([]int, n)
	for i := range o {
		o[i] = int(int32(order.Uint32(b[i*sizeInt:])))
	}
	return o
}

// readVectorFile reads and decodes a binary grid field file.
func readVectorFile(filename string) ([]float64, error) {
	b, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	v, err := decodeVector(b)
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}
	return v, nil
}

// ParticleRecord holds the particles written by one rank at one step.
type ParticleRecord struct {
	// Positions holds one slice of coordinates per axis,
	// in the order x, [y,] z.
	Positions [][]float64
	IDs       []int
	Layers    []int
	// Strain is the cumulative strain of each particle.
	Strain []float64
}

// Len returns the number of particles in the record.
func (r *ParticleRecord) Len() int { return len(r.IDs) }

// DecodeParticleRecord decodes a 2-D binary particle file.
// The layout has no padding or delimiters; every field offset
// follows from the particle count n:
//
//	int32 n
//	n × (float64 x, float64 z)
//	n × int32 id
//	n × int32 layer
//	n × float64 cumulative strain
//
// All values are little-endian.
func DecodeParticleRecord(b []byte) (*ParticleRecord, error) {
	if len(b) < sizeInt {
		return nil, fmt.Errorf("particle record of %d bytes has no count", len(b))
	}
	n := int(int32(binary.LittleEndian.Uint32(b)))
	if n < 0 {
		return nil, fmt.Errorf("negative particle count %d", n)
	}
	offCoords := sizeInt
	offIDs := offCoords + 2*n*sizeFloat
	offLayers := offIDs + n*sizeInt
	offStrain := offLayers + n*sizeInt
	end := offStrain + n*sizeFloat
	if len(b) < end {
		return nil, fmt.Errorf("particle record for %d particles needs %d bytes but has %d", n, end, len(b))
	}

	coords := decodeFloats(b[offCoords:], 2*n, binary.LittleEndian)
	r := &ParticleRecord{
		Positions: [][]float64{make([]float64, n), make([]float64, n)},
		IDs:       decodeInts(b[offIDs:], n, binary.LittleEndian),
		Layers:    decodeInts(b[offLayers:], n, binary.LittleEndian),
		Strain:    decodeFloats(b[offStrain:], n, binary.LittleEndian),
	}
	for i := 0; i < n; i++ {
		r.Positions[0][i] = coords[2*i]
		r.Positions[1][i] = coords[2*i+1]
	}
	return r, nil
}
