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
	"bytes"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// This file holds helpers that write synthetic Mandyoc output for tests.

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeBytes(t *testing.T, dir, name string, b []byte) {
	t.Helper()
	if err := ioutil.WriteFile(filepath.Join(dir, name), b, 0644); err != nil {
		t.Fatal(err)
	}
}

// writeParams writes a parameters file with the default name.
func writeParams(t *testing.T, dir string, shape []int, maxCoords []float64, printStep, stepMax int) {
	t.Helper()
	var b strings.Builder
	for i, s := range shape {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%d", s)
	}
	b.WriteString("\n")
	for i, c := range maxCoords {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%g", c)
	}
	fmt.Fprintf(&b, "\n\nprint_step %d\nstepMAX %d\ntimeMAX 10.0\nrheology_model 19\n", printStep, stepMax)
	writeFile(t, dir, DefaultParametersFile, b.String())
}

// timeYears is the native time written for a step in the test fixtures.
func timeYears(step int) float64 { return float64(step) * 2500 }

// writeTimes writes a time record file for each step.
func writeTimes(t *testing.T, dir string, steps ...int) {
	t.Helper()
	for _, s := range steps {
		writeFile(t, dir, fmt.Sprintf("Tempo_%d.txt", s), fmt.Sprintf("Tempo: %g\n", timeYears(s)))
	}
}

// writeGridASCII writes an ascii grid file with the two header lines
// and a comment line that Mandyoc writes.
func writeGridASCII(t *testing.T, dir, base string, step int, values []float64) {
	t.Helper()
	var b strings.Builder
	b.WriteString("Vec Object: 1 MPI processes\n  type: seq\n")
	for i, v := range values {
		if i == len(values)/2 {
			b.WriteString("Process [0]\n")
		}
		fmt.Fprintf(&b, "%v\n", v)
	}
	writeFile(t, dir, fmt.Sprintf("%s_%d.txt", base, step), b.String())
}

// petscVector encodes values the way the PETSc binary viewer does.
func petscVector(values []float64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, int32(petscVecClassID))
	binary.Write(&buf, binary.BigEndian, int32(len(values)))
	binary.Write(&buf, binary.BigEndian, values)
	return buf.Bytes()
}

// rawVector encodes values as little-endian doubles with no header.
func rawVector(values []float64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, values)
	return buf.Bytes()
}

// encodeParticleRecord encodes a 2-D particle record in the
// packed binary layout.
func encodeParticleRecord(r *ParticleRecord) []byte {
	var buf bytes.Buffer
	n := r.Len()
	binary.Write(&buf, binary.LittleEndian, int32(n))
	for i := 0; i < n; i++ {
		binary.Write(&buf, binary.LittleEndian, r.Positions[0][i])
		binary.Write(&buf, binary.LittleEndian, r.Positions[1][i])
	}
	for _, id := range r.IDs {
		binary.Write(&buf, binary.LittleEndian, int32(id))
	}
	for _, l := range r.Layers {
		binary.Write(&buf, binary.LittleEndian, int32(l))
	}
	binary.Write(&buf, binary.LittleEndian, r.Strain)
	return buf.Bytes()
}

// particleRow describes one particle in a fixture file.
type particleRow struct {
	pos    []float64 // x, [y,] z
	id     int
	layer  int
	strain float64
}

// writeParticlesASCII writes an ascii particle file for a rank at a step.
func writeParticlesASCII(t *testing.T, dir string, step, rank int, rows []particleRow) {
	t.Helper()
	var b strings.Builder
	for _, r := range rows {
		for _, p := range r.pos {
			fmt.Fprintf(&b, "%v ", p)
		}
		fmt.Fprintf(&b, "%d %d %v\n", r.id, r.layer, r.strain)
	}
	writeFile(t, dir, particleFile(step, rank, ASCII), b.String())
}

// writeParticlesBinary writes a 2-D binary particle file for a rank at a step.
func writeParticlesBinary(t *testing.T, dir string, step, rank int, rows []particleRow) {
	t.Helper()
	rec := &ParticleRecord{Positions: [][]float64{nil, nil}}
	for _, r := range rows {
		rec.Positions[0] = append(rec.Positions[0], r.pos[0])
		rec.Positions[1] = append(rec.Positions[1], r.pos[1])
		rec.IDs = append(rec.IDs, r.id)
		rec.Layers = append(rec.Layers, r.layer)
		rec.Strain = append(rec.Strain, r.strain)
	}
	writeBytes(t, dir, particleFile(step, rank, Binary), encodeParticleRecord(rec))
}

// quietReader returns a reader for dir that does not log.
func quietReader(dir string) *Reader {
	r := NewReader(dir)
	l := logrus.New()
	l.Out = ioutil.Discard
	r.Log = l
	return r
}

func similar(a, b, tolerance float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= tolerance*math.Max(math.Abs(a), math.Abs(b))
}

func checkSimilar(t *testing.T, name string, have, want []float64) {
	t.Helper()
	if len(have) != len(want) {
		t.Errorf("%s: length %d != %d", name, len(have), len(want))
		return
	}
	for i := range have {
		if !similar(have[i], want[i], 1e-10) && math.Abs(have[i]-want[i]) > 1e-10 {
			t.Errorf("%s[%d]: %g != %g", name, i, have[i], want[i])
		}
	}
}
