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
	"math"

	"github.com/GaryBoone/GoStats/stats"
)

// VariableSummary holds summary statistics of a data variable.
// Missing (NaN) and infinite values are counted in Missing but
// otherwise ignored.
type VariableSummary struct {
	Name    string   `toml:"name"`
	Dims    []string `toml:"dims"`
	Units   string   `toml:"units,omitempty"`
	Count   int      `toml:"count"`
	Missing int      `toml:"missing"`
	Min     float64  `toml:"min"`
	Max     float64  `toml:"max"`
	Mean    float64  `toml:"mean"`
}

// Summary returns summary statistics for every data variable
// in d, sorted by name.
func (d *Dataset) Summary() []VariableSummary {
	names := d.Variables()
	o := make([]VariableSummary, len(names))
	for i, name := range names {
		v := d.Data[name]
		finite := make([]float64, 0, len(v.Data.Elements))
		for _, x := range v.Data.Elements {
			if !math.IsNaN(x) && !math.IsInf(x, 0) {
				finite = append(finite, x)
			}
		}
		s := VariableSummary{
			Name:    name,
			Dims:    v.Dims,
			Units:   v.Units,
			Count:   len(finite),
			Missing: len(v.Data.Elements) - len(finite),
		}
		if len(finite) > 0 {
			s.Min = stats.StatsMin(finite)
			s.Max = stats.StatsMax(finite)
			s.Mean = stats.StatsMean(finite)
		}
		o[i] = s
	}
	return o
}
