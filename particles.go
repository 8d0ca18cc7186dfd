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
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// particleMarker is contained in the name of every particle file.
const particleMarker = "step_"

// particleFile returns the name of the file written by the
// given rank at the given step.
func particleFile(step, rank int, t FileType) string {
	return fmt.Sprintf("step_%d-rank_new%d%s", step, rank, t.ext())
}

// ReadParticles reads the position, layer and cumulative strain of
// every particle at every saved step.
//
// The particles that are tracked are the ones present at the first
// saved step. Particles that first appear at a later step are not
// included, and a tracked particle that is missing from a later
// step has NaN values at that step.
func (r *Reader) ReadParticles() (*Dataset, error) {
	if err := r.FileType.Check(); err != nil {
		return nil, err
	}
	p, err := r.Parameters()
	if err != nil {
		return nil, err
	}
	if p.Dimension == 3 && r.FileType == Binary {
		return nil, fmt.Errorf("%w: binary particle files can only be read for 2-D output", ErrFileType)
	}
	steps, times, err := r.ReadTimes(p)
	if err != nil {
		return nil, err
	}
	files, err := r.particleFiles()
	if err != nil {
		return nil, err
	}

	var nrank int
	var ids []int
	var first []*ParticleRecord
	if len(steps) > 0 {
		nrank = countRanks(files, steps[0])
		first, err = r.readStepParticles(steps[0], nrank, p.Dimension)
		if err != nil {
			return nil, err
		}
		ids = particleIDs(first)
	}

	d := newDataset(p, steps, times, "particle_id")
	idData := sparse.ZerosDense(len(ids))
	column := make(map[int]int, len(ids))
	for i, id := range ids {
		idData.Elements[i] = float64(id)
		column[id] = i
	}
	d.AddCoord("particle_id", []string{"particle_id"}, "particle identifier", "", idData)

	axes := p.Axes()
	dims := []string{"time", "particle_id"}
	positions := make([]*sparse.DenseArray, len(axes))
	for i, axis := range axes {
		positions[i] = nanDense(len(steps), len(ids))
		d.AddVariable(axis, dims, axis+" coordinate of the particle", "m", positions[i])
	}
	layer := nanDense(len(steps), len(ids))
	d.AddVariable("layer", dims, "layer the particle belongs to", "", layer)
	strain := nanDense(len(steps), len(ids))
	d.AddVariable("cumulative_strain", dims, "cumulative strain of the particle", "", strain)

	for t, step := range steps {
		if n := countRanks(files, step); n != nrank {
			return nil, &RankError{Step: step, Expected: nrank, Found: n}
		}
		records := first
		if t > 0 {
			records, err = r.readStepParticles(step, nrank, p.Dimension)
			if err != nil {
				return nil, err
			}
		}
		for _, rec := range records {
			for k, id := range rec.IDs {
				j, ok := column[id]
				if !ok {
					continue
				}
				i := layer.Index1d(t, j)
				for a, pos := range positions {
					pos.Elements[i] = rec.Positions[a][k]
				}
				layer.Elements[i] = float64(rec.Layers[k])
				strain.Elements[i] = rec.Strain[k]
			}
		}
		r.log().WithFields(logrus.Fields{
			"step":  step,
			"ranks": nrank,
		}).Info("read particles")
	}
	return d, nil
}

// particleFiles lists the particle files of the reader's file type in Dir.
func (r *Reader) particleFiles() ([]string, error) {
	entries, err := ioutil.ReadDir(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("tapioca: listing particle files: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.Contains(name, particleMarker) || filepath.Ext(name) != r.FileType.ext() {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

// countRanks returns the number of files written at step.
func countRanks(files []string, step int) int {
	marker := fmt.Sprintf("%s%d-", particleMarker, step)
	var n int
	for _, f := range files {
		if strings.Contains(f, marker) {
			n++
		}
	}
	return n
}

// readStepParticles reads the files of every rank at step with at most
// r.Concurrency files open at once, and returns them in rank order.
func (r *Reader) readStepParticles(step, nrank, dimension int) ([]*ParticleRecord, error) {
	records := make([]*ParticleRecord, nrank)
	var g errgroup.Group
	g.SetLimit(r.concurrency())
	for i := 0; i < nrank; i++ {
		i := i
		g.Go(func() error {
			rec, err := r.readParticleFile(filepath.Join(r.Dir, particleFile(step, i, r.FileType)), dimension)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// readParticleFile reads one ascii or binary particle file.
func (r *Reader) readParticleFile(filename string, dimension int) (*ParticleRecord, error) {
	r.log().WithField("file", filename).Debug("read particle file")
	if r.FileType == Binary {
		b, err := ioutil.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("tapioca: reading particles: %w", err)
		}
		rec, err := DecodeParticleRecord(b)
		if err != nil {
			return nil, &ParseError{File: filename, Err: err}
		}
		return rec, nil
	}
	rows, err := loadTextFile(filename, columnText)
	if err != nil {
		return nil, fmt.Errorf("tapioca: reading particles: %w", err)
	}
	return particleRecordFromRows(rows, dimension, filename)
}

// particleRecordFromRows converts the columns of an ascii particle file:
// x, [y,] z, id, layer and cumulative strain.
func particleRecordFromRows(rows [][]float64, dimension int, filename string) (*ParticleRecord, error) {
	ncol := dimension + 3
	rec := &ParticleRecord{
		Positions: make([][]float64, dimension),
		IDs:       make([]int, len(rows)),
		Layers:    make([]int, len(rows)),
		Strain:    make([]float64, len(rows)),
	}
	for a := range rec.Positions {
		rec.Positions[a] = make([]float64, len(rows))
	}
	for i, row := range rows {
		if len(row) != ncol {
			return nil, &ParseError{File: filename,
				Err: fmt.Errorf("row %d has %d columns but should have %d", i+1, len(row), ncol)}
		}
		for a := 0; a < dimension; a++ {
			rec.Positions[a][i] = row[a]
		}
		rec.IDs[i] = int(row[dimension])
		rec.Layers[i] = int(row[dimension+1])
		rec.Strain[i] = row[dimension+2]
	}
	return rec, nil
}

// particleIDs returns the ids in the records in the order they are
// first found.
func particleIDs(records []*ParticleRecord) []int {
	var ids []int
	seen := make(map[int]bool)
	for _, rec := range records {
		for _, id := range rec.IDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// nanDense returns a dense array filled with NaN.
func nanDense(dims ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(dims...)
	for i := range a.Elements {
		a.Elements[i] = math.NaN()
	}
	return a
}
