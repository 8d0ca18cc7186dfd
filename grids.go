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
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// NextData is a type of function that returns the flat on-disk
// vector for the next step. If there are no more steps,
// it returns the io.EOF error.
type NextData func() ([]float64, error)

// ReadGrids reads the requested grid quantities for every saved
// step. If no quantities are given, all quantities are read.
// Velocity is split into one variable per axis, named velocity_x,
// [velocity_y,] and velocity_z.
func (r *Reader) ReadGrids(names ...string) (*Dataset, error) {
	if err := r.FileType.Check(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = Quantities
	}
	if err := checkQuantities(names); err != nil {
		return nil, err
	}
	p, err := r.Parameters()
	if err != nil {
		return nil, err
	}
	steps, times, err := r.ReadTimes(p)
	if err != nil {
		return nil, err
	}

	axes := p.Axes()
	d := newDataset(p, steps, times, axes...)
	for i, axis := range axes {
		d.AddCoord(axis, []string{axis}, axis+" coordinate of the grid nodes", "m",
			vector(linspace(p.Region[2*i], p.Region[2*i+1], p.Shape[i])))
	}

	fields := make([][]*sparse.DenseArray, len(names))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(r.concurrency())
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			var err error
			fields[i], err = r.readQuantity(ctx, name, p, steps)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dims := append([]string{"time"}, axes...)
	for i, name := range names {
		q := quantities[name]
		if !q.vector {
			d.AddVariable(name, dims, q.description, q.units, fields[i][0])
			continue
		}
		for c, axis := range axes {
			d.AddVariable(name+"_"+axis, dims, q.description+" along "+axis, q.units, fields[i][c])
		}
	}
	return d, nil
}

// readQuantity reads one quantity at every step. Scalars return a single
// array, vectors return one array per axis.
func (r *Reader) readQuantity(ctx context.Context, name string, p *Parameters, steps []int) ([]*sparse.DenseArray, error) {
	ncomp := 1
	if quantities[name].vector {
		ncomp = p.Dimension
	}
	n := 1
	for _, s := range p.Shape {
		n *= s
	}
	shape := append([]int{len(steps)}, p.Shape...)
	out := make([]*sparse.DenseArray, ncomp)
	for c := range out {
		out[c] = sparse.ZerosDense(shape...)
	}

	next := r.nextData(ctx, name, steps, n*ncomp)
	for t := 0; ; t++ {
		data, err := next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		for c, o := range out {
			reshapeF(o.Elements[t*n:(t+1)*n], data, p.Shape, c, ncomp, r.ZeroThreshold)
		}
	}
	r.log().WithFields(logrus.Fields{
		"quantity": name,
		"steps":    len(steps),
		"filetype": r.FileType,
	}).Info("read grid quantity")
	return out, nil
}

// nextData returns a function that reads the files of quantity
// name, one step at a time. n is the expected length of each file.
func (r *Reader) nextData(ctx context.Context, name string, steps []int, n int) NextData {
	var i int
	return func() ([]float64, error) {
		if i == len(steps) {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		filename := filepath.Join(r.Dir, fmt.Sprintf("%s_%d%s", r.basename(name), steps[i], r.FileType.ext()))
		i++
		var data []float64
		if r.FileType == Binary {
			var err error
			data, err = readVectorFile(filename)
			if err != nil {
				return nil, fmt.Errorf("tapioca: reading %s: %w", name, err)
			}
		} else {
			rows, err := loadTextFile(filename, gridText)
			if err != nil {
				return nil, fmt.Errorf("tapioca: reading %s: %w", name, err)
			}
			data = flatten(rows)
		}
		if len(data) != n {
			return nil, &ParseError{File: filename,
				Err: fmt.Errorf("expected %d values but found %d", n, len(data))}
		}
		r.log().WithField("file", filename).Debug("read grid file")
		return data, nil
	}
}

// reshapeF fills dst, a row-major block with the given shape, from
// the column-major (first axis varies fastest) vector src. Element f
// of the block is taken from src[offset+f*stride], which allows
// interleaved vector components to be separated. Values with a
// magnitude smaller than threshold are set to zero.
func reshapeF(dst, src []float64, shape []int, offset, stride int, threshold float64) {
	strides := make([]int, len(shape))
	n := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = n
		n *= shape[i]
	}
	for f := 0; f < n; f++ {
		rem, o := f, 0
		for i, ni := range shape {
			o += (rem % ni) * strides[i]
			rem /= ni
		}
		v := src[offset+f*stride]
		if math.Abs(v) < threshold {
			v = 0
		}
		dst[o] = v
	}
}
