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
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Variable is a labeled array in a Dataset.
type Variable struct {
	Dims        []string           // names of the dimensions of Data
	Description string             // variable description
	Units       string             // variable units
	Data        *sparse.DenseArray // variable data
}

// Dataset holds labeled, time-indexed arrays read from Mandyoc output.
type Dataset struct {
	// Dims are the names of the dimensions, outermost first.
	Dims []string

	// Attrs holds dataset attributes. Values are
	// strings, ints, float64s, []int or []float64.
	Attrs map[string]interface{}

	// Coords holds the coordinates, such as time, step and
	// the spatial axes, with the keys being the coordinate names.
	Coords map[string]*Variable

	// Data holds the data variables, with the keys
	// being the variable names.
	Data map[string]*Variable
}

// integerCoords are coordinates that hold integer values.
var integerCoords = map[string]bool{"step": true, "particle_id": true}

// NewDataset returns an empty dataset with the given dimensions.
func NewDataset(dims ...string) *Dataset {
	return &Dataset{
		Dims:   dims,
		Attrs:  make(map[string]interface{}),
		Coords: make(map[string]*Variable),
		Data:   make(map[string]*Variable),
	}
}

// AddCoord adds a coordinate to d.
func (d *Dataset) AddCoord(name string, dims []string, description, units string, data *sparse.DenseArray) {
	d.Coords[name] = &Variable{Dims: dims, Description: description, Units: units, Data: data}
}

// AddVariable adds data for a new variable to d.
func (d *Dataset) AddVariable(name string, dims []string, description, units string, data *sparse.DenseArray) {
	d.Data[name] = &Variable{Dims: dims, Description: description, Units: units, Data: data}
}

// Variables returns the sorted names of the data variables in d.
func (d *Dataset) Variables() []string {
	return sortedNames(d.Data)
}

func sortedNames(m map[string]*Variable) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the length of dimension dim, taken from the
// coordinate with the same name. It returns -1 if there is no
// such coordinate.
func (d *Dataset) Len(dim string) int {
	c, ok := d.Coords[dim]
	if !ok {
		return -1
	}
	return len(c.Data.Elements)
}

// Times returns the time of each step [Ma].
func (d *Dataset) Times() []float64 { return d.coordFloats("time") }

// Steps returns the saved steps.
func (d *Dataset) Steps() []int { return d.coordInts("step") }

// ParticleIDs returns the particle ids of a particle dataset.
func (d *Dataset) ParticleIDs() []int { return d.coordInts("particle_id") }

func (d *Dataset) coordFloats(name string) []float64 {
	c, ok := d.Coords[name]
	if !ok {
		return nil
	}
	return append([]float64(nil), c.Data.Elements...)
}

func (d *Dataset) coordInts(name string) []int {
	c, ok := d.Coords[name]
	if !ok {
		return nil
	}
	o := make([]int, len(c.Data.Elements))
	for i, v := range c.Data.Elements {
		o[i] = int(v)
	}
	return o
}

// Subset returns a copy of d holding only the time indices
// in the half-open interval [start, end).
func (d *Dataset) Subset(start, end int) (*Dataset, error) {
	nt := d.Len("time")
	if start < 0 || end > nt || start > end {
		return nil, fmt.Errorf("tapioca: time subset [%d, %d) is outside of [0, %d)", start, end, nt)
	}
	o := NewDataset(d.Dims...)
	for k, v := range d.Attrs {
		o.Attrs[k] = v
	}
	sub := func(v *Variable) *Variable {
		if len(v.Dims) == 0 || v.Dims[0] != "time" {
			return &Variable{Dims: v.Dims, Description: v.Description, Units: v.Units, Data: v.Data.Copy()}
		}
		return &Variable{Dims: v.Dims, Description: v.Description, Units: v.Units, Data: subsetDense(v.Data, start, end)}
	}
	for name, v := range d.Coords {
		o.Coords[name] = sub(v)
	}
	for name, v := range d.Data {
		o.Data[name] = sub(v)
	}
	return o, nil
}

// subsetDense copies the indices [start, end) of the outermost axis of a.
func subsetDense(a *sparse.DenseArray, start, end int) *sparse.DenseArray {
	shape := append([]int(nil), a.Shape...)
	shape[0] = end - start
	o := sparse.ZerosDense(shape...)
	inner := 1
	for _, n := range a.Shape[1:] {
		inner *= n
	}
	copy(o.Elements, a.Elements[start*inner:end*inner])
	return o
}

// coordinatesAttr is the global netCDF attribute listing which
// variables are coordinates.
const coordinatesAttr = "coordinates"

// Write writes d to netcdf file w.
func (d *Dataset) Write(w *os.File) error {
	lengths := make([]int, len(d.Dims))
	for i, dim := range d.Dims {
		lengths[i] = d.Len(dim)
		if lengths[i] < 0 {
			return fmt.Errorf("tapioca: writing dataset: dimension %s has no coordinate", dim)
		}
		if lengths[i] == 0 {
			return fmt.Errorf("tapioca: writing dataset: dimension %s has zero length", dim)
		}
	}
	h := cdf.NewHeader(d.Dims, lengths)
	h.AddAttribute("", "comment", "Mandyoc output read by tapioca")

	// Sort the names so they write in the same order every time.
	attrNames := make([]string, 0, len(d.Attrs))
	for n := range d.Attrs {
		attrNames = append(attrNames, n)
	}
	sort.Strings(attrNames)
	for _, name := range attrNames {
		if name == coordinatesAttr || name == "comment" {
			continue
		}
		v, err := attrValue(d.Attrs[name])
		if err != nil {
			return fmt.Errorf("tapioca: writing attribute %s: %w", name, err)
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		h.AddAttribute("", name, v)
	}
	coordNames := sortedNames(d.Coords)
	h.AddAttribute("", coordinatesAttr, strings.Join(coordNames, " "))

	varNames := d.Variables()
	for _, name := range varNames {
		if _, ok := d.Coords[name]; ok {
			return fmt.Errorf("tapioca: writing dataset: %s is both a coordinate and a variable", name)
		}
	}
	names := append(coordNames, varNames...)
	vars := make(map[string]*Variable, len(names))
	for k, v := range d.Coords {
		vars[k] = v
	}
	for k, v := range d.Data {
		vars[k] = v
	}

	for _, name := range names {
		v := vars[name]
		if integerCoords[name] {
			h.AddVariable(name, v.Dims, []int32{0})
		} else {
			h.AddVariable(name, v.Dims, []float64{0})
		}
		if v.Description != "" {
			h.AddAttribute(name, "description", v.Description)
		}
		if v.Units != "" {
			h.AddAttribute(name, "units", v.Units)
		}
		if si, ok := siDimensions(name); ok && len(si) > 0 {
			h.AddAttribute(name, "si_units", si.String())
		}
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}

	for _, name := range names {
		if err = writeNCF(f, name, vars[name].Data, integerCoords[name]); err != nil {
			return fmt.Errorf("tapioca: writing variable %s to netcdf file: %w", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// attrValue converts a dataset attribute to a type
// that can be stored in a netcdf header.
func attrValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int:
		return []int32{int32(t)}, nil
	case float64:
		return []float64{t}, nil
	case []int:
		o := make([]int32, len(t))
		for i, x := range t {
			o[i] = int32(x)
		}
		return o, nil
	case []float64:
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", v)
	}
}

func writeNCF(f *cdf.File, name string, data *sparse.DenseArray, integer bool) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range f.Header.Lengths(name) {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}

	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	var err error
	if integer {
		buf := make([]int32, len(data.Elements))
		for i, e := range data.Elements {
			buf[i] = int32(e)
		}
		_, err = w.Write(buf)
	} else {
		_, err = w.Write(data.Elements)
	}
	return err
}

// LoadDataset loads a dataset from a netcdf file created by Write.
func LoadDataset(rw cdf.ReaderWriterAt) (*Dataset, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("tapioca: LoadDataset: %w", err)
	}
	o := NewDataset(f.Header.Dimensions("")...)

	coords := make(map[string]bool)
	if c, ok := f.Header.GetAttribute("", coordinatesAttr).(string); ok {
		for _, name := range strings.Fields(c) {
			coords[name] = true
		}
	}
	for _, a := range f.Header.Attributes("") {
		if a == coordinatesAttr || a == "comment" {
			continue
		}
		o.Attrs[a] = fromAttrValue(a, f.Header.GetAttribute("", a))
	}

	for _, name := range f.Header.Variables() {
		v := &Variable{Dims: f.Header.Dimensions(name)}
		v.Description, _ = f.Header.GetAttribute(name, "description").(string)
		v.Units, _ = f.Header.GetAttribute(name, "units").(string)
		v.Data = sparse.ZerosDense(f.Header.Lengths(name)...)

		r := f.Reader(name, nil, nil)
		buf := r.Zero(len(v.Data.Elements))
		if _, err = r.Read(buf); err != nil {
			return nil, fmt.Errorf("tapioca: LoadDataset: reading %s: %w", name, err)
		}
		switch b := buf.(type) {
		case []float64:
			copy(v.Data.Elements, b)
		case []float32:
			for i, x := range b {
				v.Data.Elements[i] = float64(x)
			}
		case []int32:
			for i, x := range b {
				v.Data.Elements[i] = float64(x)
			}
		default:
			return nil, fmt.Errorf("tapioca: LoadDataset: variable %s has unsupported type %T", name, buf)
		}
		if coords[name] {
			o.Coords[name] = v
		} else {
			o.Data[name] = v
		}
	}
	return o, nil
}

// fromAttrValue reverses attrValue. Single values are returned
// as scalars, except for the attributes that are always lists.
func fromAttrValue(name string, v interface{}) interface{} {
	list := name == "shape" || name == "region"
	switch t := v.(type) {
	case []int32:
		if len(t) == 1 && !list {
			return int(t[0])
		}
		o := make([]int, len(t))
		for i, x := range t {
			o[i] = int(x)
		}
		return o
	case []float64:
		if len(t) == 1 && !list {
			return t[0]
		}
		return append([]float64(nil), t...)
	default:
		return v
	}
}
