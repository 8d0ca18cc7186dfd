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
	"testing"

	"github.com/kr/pretty"
)

func TestDecodeVector(t *testing.T) {
	want := []float64{0, 1.5, -2.25e10, 3}
	for _, test := range []struct {
		name string
		b    []byte
	}{
		{name: "petsc", b: petscVector(want)},
		{name: "raw", b: rawVector(want)},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, err := decodeVector(test.b)
			if err != nil {
				t.Fatal(err)
			}
			if diff := pretty.Diff(got, want); len(diff) > 0 {
				t.Error(diff)
			}
		})
	}
	t.Run("truncated", func(t *testing.T) {
		if _, err := decodeVector(rawVector(want)[:27]); err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("empty", func(t *testing.T) {
		got, err := decodeVector(nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("got %d values", len(got))
		}
	})
}

func TestDecodeParticleRecord(t *testing.T) {
	want := &ParticleRecord{
		Positions: [][]float64{{1, 2, 3}, {-10, -20, -30}},
		IDs:       []int{7, 3, 9},
		Layers:    []int{0, 1, 1},
		Strain:    []float64{0.5, 0, 1.25},
	}
	b := encodeParticleRecord(want)
	if len(b) != 4+3*(16+4+4+8) {
		t.Fatalf("record has %d bytes", len(b))
	}
	got, err := DecodeParticleRecord(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Error(diff)
	}
	if got.Len() != 3 {
		t.Errorf("Len() = %d, want 3", got.Len())
	}

	empty, err := DecodeParticleRecord(encodeParticleRecord(&ParticleRecord{Positions: [][]float64{nil, nil}}))
	if err != nil {
		t.Fatal(err)
	}
	if empty.Len() != 0 {
		t.Errorf("empty record has %d particles", empty.Len())
	}

	for _, bad := range [][]byte{
		nil,
		{1, 0},
		b[:len(b)-1],
		{0xff, 0xff, 0xff, 0xff},
	} {
		if _, err := DecodeParticleRecord(bad); err == nil {
			t.Errorf("no error for %d bytes", len(bad))
		}
	}
}
