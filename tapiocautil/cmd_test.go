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
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/kr/pretty"
	"github.com/mandyoc/tapioca"
)

// writeOutput writes a small 2-D Mandyoc output directory with two
// saved steps of temperature, velocity and particles.
func writeOutput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		tapioca.DefaultParametersFile: "2 2\n100 50\nprint_step 5\nstepMAX 20\n",
		"Tempo_0.txt":                 "Tempo: 0\n",
		"Tempo_5.txt":                 "Tempo: 1000000\n",
		"step_0-rank_new0.txt":        "10 -5 1 0 0\n20 -6 2 1 0.5\n",
		"step_5-rank_new0.txt":        "11 -4 1 0 0.1\n",
	}
	header := "Vec Object: 1 MPI processes\n  type: seq\n"
	for _, s := range []int{0, 5} {
		files[fmt.Sprintf("temperature_%d.txt", s)] = header + "0\n100\n200\n300\n"
		files[fmt.Sprintf("velocity_%d.txt", s)] = header + "3\n4\n0\n1\n6\n8\n0\n0\n"
	}
	for name, contents := range files {
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	Root.SetOutput(buf)
	Root.SetArgs(append(args, "--LogLevel=error"))
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	if want := "tapioca v" + tapioca.Version; !strings.Contains(out, want) {
		t.Errorf("output %q should contain %q", out, want)
	}
}

func TestGridsCommand(t *testing.T) {
	dir := writeOutput(t)
	outputFile := filepath.Join(dir, "out.nc")
	Cfg.Set("Datasets", []string{"temperature", "velocity"})
	Cfg.Set("Steps", []int{0, 5})
	execute(t, "grids", "--Dir="+dir, "--FileType=ascii", "--OutputFile="+outputFile,
		`--DerivedVariables={"speed":"sqrt(velocity_x**2+velocity_z**2)"}`)

	out := execute(t, "info", outputFile, "--Format=toml")
	var info infoFile
	if _, err := toml.Decode(out, &info); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if diff := pretty.Diff(info.Steps, []int{0, 5}); len(diff) > 0 {
		t.Errorf("steps: %v", diff)
	}
	if diff := pretty.Diff(info.Dims, []string{"time", "x", "z"}); len(diff) > 0 {
		t.Errorf("dims: %v", diff)
	}
	var names []string
	for _, v := range info.Variables {
		names = append(names, v.Name)
	}
	if diff := pretty.Diff(names, []string{"speed", "temperature", "velocity_x", "velocity_z"}); len(diff) > 0 {
		t.Fatalf("variables: %v", diff)
	}
	speed := info.Variables[0]
	if speed.Min != 0 || speed.Max != 10 || speed.Count != 8 {
		t.Errorf("speed summary: %+v", speed)
	}
	if info.Variables[1].Max != 300 {
		t.Errorf("temperature summary: %+v", info.Variables[1])
	}

	text := execute(t, "info", outputFile, "--Format=text")
	for _, want := range []string{"time: 2", "velocity_z", "m/s"} {
		if !strings.Contains(text, want) {
			t.Errorf("text output should contain %q:\n%s", want, text)
		}
	}
}

func TestParticlesCommand(t *testing.T) {
	dir := writeOutput(t)
	Cfg.Set("Steps", []int{})
	execute(t, "particles", "--Dir="+dir, "--FileType=ascii", "--OutputFile=", "--DerivedVariables=")

	f, err := os.Open(filepath.Join(dir, "particles.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d, err := tapioca.LoadDataset(f)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(d.ParticleIDs(), []int{1, 2}); len(diff) > 0 {
		t.Errorf("ids: %v", diff)
	}
	if got := d.Data["x"].Data.Get(1, 0); got != 11 {
		t.Errorf("x = %g, want 11", got)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := writeOutput(t)
	Cfg.Set("Steps", []int{})
	for _, test := range []struct {
		name     string
		args     []string
		datasets []string
	}{
		{
			name:     "quantity",
			args:     []string{"grids", "--Dir=" + dir, "--FileType=ascii", "--OutputFile=", "--DerivedVariables="},
			datasets: []string{"salinity"},
		},
		{
			name: "file type",
			args: []string{"grids", "--Dir=" + dir, "--FileType=hdf5", "--OutputFile=", "--DerivedVariables="},
		},
		{
			name: "derived",
			args: []string{"grids", "--Dir=" + dir, "--FileType=ascii", "--OutputFile=", `--DerivedVariables={"a":"b*2"}`},
		},
		{
			name: "output directory",
			args: []string{"particles", "--Dir=" + dir, "--FileType=ascii",
				"--OutputFile=" + filepath.Join(dir, "missing", "p.nc"), "--DerivedVariables="},
		},
		{
			name: "missing file",
			args: []string{"info", filepath.Join(dir, "none.nc"), "--Format=text"},
		},
		{
			name: "format",
			args: []string{"info", filepath.Join(dir, "none.nc"), "--Format=yaml"},
		},
		{
			name: "log level",
			args: []string{"version", "--LogLevel=loud"},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			datasets := test.datasets
			if datasets == nil {
				datasets = []string{"temperature"}
			}
			Cfg.Set("Datasets", datasets)
			Root.SetOutput(ioutil.Discard)
			Root.SetArgs(test.args)
			if err := Root.Execute(); err == nil {
				t.Errorf("expected an error for %v", test.args)
			}
		})
	}
}

func TestStepWindow(t *testing.T) {
	for _, test := range []struct {
		in      interface{}
		want    *tapioca.StepWindow
		wantErr bool
	}{
		{in: nil},
		{in: ""},
		{in: "[]"},
		{in: []int{}},
		{in: "[]\n"},
		{in: "[100,500]", want: &tapioca.StepWindow{Min: 100, Max: 500}},
		{in: []interface{}{int64(0), int64(20)}, want: &tapioca.StepWindow{Min: 0, Max: 20}},
		{in: []int{5}, wantErr: true},
		{in: []int{50, 10}, wantErr: true},
		{in: "[a,b]", wantErr: true},
	} {
		w, err := stepWindow(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("%#v: error %v", test.in, err)
			continue
		}
		if diff := pretty.Diff(w, test.want); len(diff) > 0 {
			t.Errorf("%#v: %v", test.in, diff)
		}
	}
}

func TestDerivedVariables(t *testing.T) {
	for _, test := range []struct {
		in      interface{}
		want    map[string]string
		wantErr bool
	}{
		{in: "{}\n", want: map[string]string{}},
		{in: ""},
		{in: `{"a":"b*2"}`, want: map[string]string{"a": "b*2"}},
		{in: map[string]interface{}{"a": "b*2"}, want: map[string]string{"a": "b*2"}},
		{in: "{", wantErr: true},
		{in: 3, wantErr: true},
	} {
		got, err := derivedVariables(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("%#v: error %v", test.in, err)
			continue
		}
		if diff := pretty.Diff(got, test.want); len(diff) > 0 {
			t.Errorf("%#v: %v", test.in, diff)
		}
	}
}

func TestOptionFlags(t *testing.T) {
	for _, option := range options {
		flag := option.flagsets[0].Lookup(option.name)
		if flag == nil {
			t.Errorf("no flag for option %s", option.name)
			continue
		}
		if flag.Shorthand != option.shorthand {
			t.Errorf("%s: shorthand %q, want %q", option.name, flag.Shorthand, option.shorthand)
		}
		for _, set := range option.flagsets[1:] {
			if set.Lookup(option.name) != flag {
				t.Errorf("%s: flag sets should share one flag", option.name)
			}
		}
	}
	d := gridsCmd.Flags().Lookup("DerivedVariables")
	if d.DefValue != "{}" {
		t.Errorf("DerivedVariables default = %q, want {}", d.DefValue)
	}
	if m, err := derivedVariables(d.DefValue); err != nil || len(m) != 0 {
		t.Errorf("DerivedVariables default decodes to %v, %v", m, err)
	}
}
