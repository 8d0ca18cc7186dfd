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
	"path/filepath"
	"runtime"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// DefaultZeroThreshold is the magnitude below which grid
// values are treated as numerical noise and set to zero.
const DefaultZeroThreshold = 1e-200

// Reader reads Mandyoc output from a directory.
// NewReader returns a Reader with default settings; any field can
// be changed before reading.
type Reader struct {
	// Dir is the directory holding the output files.
	Dir string

	// ParametersFile is the name of the parameters file within Dir.
	ParametersFile string

	// FileType is the encoding of the grid and particle files.
	FileType FileType

	// Window, if not nil, restricts the steps that are read.
	Window *StepWindow

	// Basenames maps quantity names to the prefix of their files.
	Basenames map[string]string

	// TimePrefix is the prefix of the time record files.
	TimePrefix string

	// ZeroThreshold is the magnitude below which grid values
	// are set to zero.
	ZeroThreshold float64

	// Concurrency is the maximum number of files that
	// are decoded at the same time.
	Concurrency int

	// Log receives progress messages.
	Log logrus.FieldLogger
}

// NewReader returns a reader for the output in dir.
func NewReader(dir string) *Reader {
	basenames := make(map[string]string, len(quantities))
	for name, q := range quantities {
		basenames[name] = q.basename
	}
	return &Reader{
		Dir:            dir,
		ParametersFile: DefaultParametersFile,
		FileType:       ASCII,
		Basenames:      basenames,
		TimePrefix:     DefaultTimePrefix,
		ZeroThreshold:  DefaultZeroThreshold,
		Concurrency:    runtime.GOMAXPROCS(-1),
		Log:            logrus.StandardLogger(),
	}
}

// ReadGrids reads the requested grid quantities from the Mandyoc output
// in dir. If quantities is empty, all quantities are read. If window
// is nil, all saved steps are read.
func ReadGrids(dir, parametersFile string, quantities []string, window *StepWindow, fileType FileType) (*Dataset, error) {
	r := NewReader(dir)
	r.ParametersFile = parametersFile
	r.Window = window
	r.FileType = fileType
	return r.ReadGrids(quantities...)
}

// ReadParticles reads the particle files from the Mandyoc output in dir.
// If window is nil, all saved steps are read.
func ReadParticles(dir, parametersFile string, window *StepWindow, fileType FileType) (*Dataset, error) {
	r := NewReader(dir)
	r.ParametersFile = parametersFile
	r.Window = window
	r.FileType = fileType
	return r.ReadParticles()
}

// Parameters reads the parameters file.
func (r *Reader) Parameters() (*Parameters, error) {
	return ReadParameters(filepath.Join(r.Dir, r.ParametersFile))
}

// ReadTimes returns the saved steps and their times [Ma].
func (r *Reader) ReadTimes(p *Parameters) (steps []int, times []float64, err error) {
	return readTimes(r.Dir, r.TimePrefix, p.PrintStep, p.StepMax, r.Window)
}

func (r *Reader) basename(q string) string {
	if b, ok := r.Basenames[q]; ok {
		return b
	}
	return quantities[q].basename
}

func (r *Reader) concurrency() int {
	if r.Concurrency < 1 {
		return 1
	}
	return r.Concurrency
}

func (r *Reader) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// newDataset creates a dataset with the parameter attributes and
// the time and step coordinates.
func newDataset(p *Parameters, steps []int, times []float64, dims ...string) *Dataset {
	d := NewDataset(append([]string{"time"}, dims...)...)
	d.Attrs = p.Attrs()
	d.AddCoord("time", []string{"time"}, "time since the start of the simulation", "Ma", vector(times))
	stepData := sparse.ZerosDense(len(steps))
	for i, s := range steps {
		stepData.Elements[i] = float64(s)
	}
	d.AddCoord("step", []string{"time"}, "simulation step", "", stepData)
	return d
}

// vector returns a one-dimensional array holding a copy of v.
func vector(v []float64) *sparse.DenseArray {
	a := sparse.ZerosDense(len(v))
	copy(a.Elements, v)
	return a
}

// linspace returns n evenly spaced values from lo to hi, inclusive.
func linspace(lo, hi float64, n int) []float64 {
	o := make([]float64, n)
	switch n {
	case 0:
	case 1:
		o[0] = lo
	default:
		floats.Span(o, lo, hi)
	}
	return o
}
