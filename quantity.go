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

	"github.com/ctessum/unit"
)

// Quantities are the grid quantities that Mandyoc can write,
// in the order they are read by default.
var Quantities = []string{
	"temperature",
	"density",
	"radiogenic_heat",
	"viscosity",
	"strain",
	"strain_rate",
	"pressure",
	"velocity",
}

// quantity describes a grid quantity.
type quantity struct {
	basename    string
	description string
	units       string
	// si holds the SI dimensions of the quantity.
	si unit.Dimensions
	// vector is true for quantities with one component per axis.
	vector bool
}

var quantities = map[string]quantity{
	"temperature": {
		basename:    "temperature",
		description: "temperature",
		units:       "C",
		si:          unit.Kelvin,
	},
	"density": {
		basename:    "density",
		description: "density",
		units:       "kg/m^3",
		si:          unit.KilogramPerMeter3,
	},
	"radiogenic_heat": {
		basename:    "heat",
		description: "radiogenic heat production",
		units:       "W/m^3",
		si:          unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -3},
	},
	"viscosity": {
		basename:    "viscosity",
		description: "effective viscosity",
		units:       "Pa s",
		si:          unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -1},
	},
	"strain": {
		basename:    "strain",
		description: "accumulated strain",
		units:       "dimensionless",
		si:          unit.Dimless,
	},
	"strain_rate": {
		basename:    "strain_rate",
		description: "strain rate",
		units:       "s^(-1)",
		si:          unit.Herz,
	},
	"pressure": {
		basename:    "pressure",
		description: "pressure",
		units:       "Pa",
		si:          unit.Pascal,
	},
	"velocity": {
		basename:    "velocity",
		description: "velocity",
		units:       "m/s",
		si:          unit.MeterPerSecond,
		vector:      true,
	},
}

// checkQuantities returns an error if any of the names
// is not a known quantity.
func checkQuantities(names []string) error {
	for _, n := range names {
		if _, ok := quantities[n]; !ok {
			return fmt.Errorf("%w '%s'", ErrQuantity, n)
		}
	}
	return nil
}

// siDimensions returns the SI dimensions of the named dataset
// variable or coordinate, and false if they are not known.
func siDimensions(name string) (unit.Dimensions, bool) {
	switch name {
	case "x", "y", "z":
		return unit.Meter, true
	case "time":
		return unit.Second, true
	case "velocity_x", "velocity_y", "velocity_z":
		return unit.MeterPerSecond, true
	}
	if q, ok := quantities[name]; ok {
		return q.si, true
	}
	return nil, false
}
