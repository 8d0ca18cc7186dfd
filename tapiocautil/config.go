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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandyoc/tapioca"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile expands any environment variables in the output file
// and makes sure that its directory exists. If f is empty, the file
// defaultName in dir is used.
func checkOutputFile(f, dir, defaultName string) (string, error) {
	if f == "" {
		f = filepath.Join(dir, defaultName)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("tapioca: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// stepWindow converts the Steps configuration variable to a step window.
// An empty list means no window.
func stepWindow(v interface{}) (*tapioca.StepWindow, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		// Flag values are formatted as [a,b].
		s = strings.Trim(strings.TrimSpace(s), "[]")
		if s == "" {
			return nil, nil
		}
		v = strings.Split(s, ",")
	}
	steps, err := cast.ToIntSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("tapioca: reading 'Steps': %v", err)
	}
	switch len(steps) {
	case 0:
		return nil, nil
	case 2:
		if steps[0] > steps[1] {
			return nil, fmt.Errorf("tapioca: the first step in 'Steps' (%d) is after the last (%d)", steps[0], steps[1])
		}
		return &tapioca.StepWindow{Min: steps[0], Max: steps[1]}, nil
	default:
		return nil, fmt.Errorf("tapioca: 'Steps' needs a first and last step but has %d values", len(steps))
	}
}

// derivedVariables returns the DerivedVariables configuration variable,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func derivedVariables(i interface{}) (map[string]string, error) {
	switch t := i.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return t, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(t))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("tapioca: reading 'DerivedVariables': %v", err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("tapioca: invalid type for 'DerivedVariables': %#v", i)
	}
}

// reader creates a reader from the configuration.
func reader() (*tapioca.Reader, error) {
	window, err := stepWindow(Cfg.Get("Steps"))
	if err != nil {
		return nil, err
	}
	r := tapioca.NewReader(os.ExpandEnv(Cfg.GetString("Dir")))
	r.ParametersFile = os.ExpandEnv(Cfg.GetString("ParametersFile"))
	r.FileType = tapioca.FileType(Cfg.GetString("FileType"))
	r.Window = window
	r.Concurrency = Cfg.GetInt("Concurrency")
	r.Log = logrus.StandardLogger()
	if err := r.FileType.Check(); err != nil {
		return nil, err
	}
	return r, nil
}
