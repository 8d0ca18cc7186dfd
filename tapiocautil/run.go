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

package tapiocautil

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/mandyoc/tapioca"
	"github.com/sirupsen/logrus"
)

// Grids reads the grid quantities in r.Dir, calculates the
// derived variables, and writes the result to outputFile.
func Grids(r *tapioca.Reader, quantities []string, derived map[string]string, outputFile string) error {
	d, err := r.ReadGrids(quantities...)
	if err != nil {
		return err
	}
	return finish(d, derived, outputFile)
}

// Particles reads the particles in r.Dir, calculates the
// derived variables, and writes the result to outputFile.
func Particles(r *tapioca.Reader, derived map[string]string, outputFile string) error {
	d, err := r.ReadParticles()
	if err != nil {
		return err
	}
	return finish(d, derived, outputFile)
}

// finish adds the derived variables to d, logs a summary,
// and writes d to outputFile.
func finish(d *tapioca.Dataset, derived map[string]string, outputFile string) error {
	if len(derived) > 0 {
		if err := d.Derive(derived); err != nil {
			return err
		}
	}
	for _, s := range d.Summary() {
		logrus.WithFields(logrus.Fields{
			"variable": s.Name,
			"min":      s.Min,
			"max":      s.Max,
			"mean":     s.Mean,
			"missing":  s.Missing,
		}).Info("summary")
	}

	ff, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("tapioca: writing output file: %v", err)
	}
	if err := d.Write(ff); err != nil {
		ff.Close()
		return fmt.Errorf("tapioca: writing output file: %v", err)
	}
	if err := ff.Close(); err != nil {
		return fmt.Errorf("tapioca: closing output file: %v", err)
	}
	logrus.WithField("file", outputFile).Info("wrote dataset")
	return nil
}

// infoFile is the TOML layout of the info command output.
type infoFile struct {
	File      string                    `toml:"file"`
	Dims      []string                  `toml:"dims"`
	Steps     []int                     `toml:"steps"`
	Variables []tapioca.VariableSummary `toml:"variables"`
}

// Info writes summary statistics of the dataset in the netCDF file
// filename to w. format is either "text" or "toml".
func Info(w io.Writer, filename, format string) error {
	if format != "text" && format != "toml" {
		return fmt.Errorf("tapioca: invalid Format '%s'; valid options are text and toml", format)
	}
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("tapioca: info: %v", err)
	}
	defer f.Close()
	d, err := tapioca.LoadDataset(f)
	if err != nil {
		return err
	}
	info := infoFile{
		File:      filename,
		Dims:      d.Dims,
		Steps:     d.Steps(),
		Variables: d.Summary(),
	}
	if format == "toml" {
		return toml.NewEncoder(w).Encode(info)
	}

	fmt.Fprintf(w, "%s\n", info.File)
	for _, dim := range info.Dims {
		fmt.Fprintf(w, "  %s: %d\n", dim, d.Len(dim))
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "variable\tunits\tcount\tmissing\tmin\tmax\tmean")
	for _, s := range info.Variables {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%g\t%g\t%g\n", s.Name, s.Units, s.Count, s.Missing, s.Min, s.Max, s.Mean)
	}
	return tw.Flush()
}
