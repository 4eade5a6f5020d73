/*
Copyright © 2026 the AntGrid authors.
This file is part of AntGrid.

AntGrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AntGrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AntGrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package richness

import (
	"math"
	"testing"
)

func TestNewRasterLayer(t *testing.T) {
	lats := []float64{-0.5, 0.5}
	lons := []float64{-0.5, 0.5, 1.5}
	l, err := NewRasterLayer("bio1", lats, lons, []float64{1, 2, 3, 4, 5, math.NaN()})
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Value(0, 2); got != 3 {
		t.Errorf("Value(0, 2) = %g, want 3", got)
	}
	if got := l.Value(1, 0); got != 4 {
		t.Errorf("Value(1, 0) = %g, want 4", got)
	}
	if got := l.Value(1, 2); !math.IsNaN(got) {
		t.Errorf("Value(1, 2) = %g, want NaN", got)
	}

	if _, err := NewRasterLayer("bad", lats, lons, []float64{1, 2}); err == nil {
		t.Error("mismatched value count should fail")
	}
	if _, err := NewRasterLayer("bad", nil, lons, nil); err == nil {
		t.Error("empty coordinates should fail")
	}
}

func TestReadCOARDSRasters(t *testing.T) {
	file := writeCOARDSFile(t, t.TempDir(), 23.5)
	layers, err := ReadCOARDSRasters(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 1 {
		t.Fatalf("got %d layers, want 1", len(layers))
	}
	l := layers[0]
	if l.Name != "temp" {
		t.Errorf("layer name = %q, want temp", l.Name)
	}
	if len(l.Lats) != 2 || len(l.Lons) != 2 {
		t.Errorf("lattice is %d×%d, want 2×2", len(l.Lats), len(l.Lons))
	}
	if got := l.Value(1, 1); got != 23.5 {
		t.Errorf("Value(1, 1) = %g, want 23.5", got)
	}

	if _, err := ReadCOARDSRasters(file, "nope"); err == nil {
		t.Error("requesting a missing variable should fail")
	}
	if _, err := ReadCOARDSRasters("does-not-exist.nc"); err == nil {
		t.Error("reading a missing file should fail")
	}
}

func TestRasterLayer_sameGeometry(t *testing.T) {
	lats := []float64{0, 1}
	lons := []float64{0, 1}
	a, err := NewRasterLayer("a", lats, lons, make([]float64, 4))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRasterLayer("b", lats, lons, make([]float64, 4))
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewRasterLayer("c", lats, []float64{0, 2}, make([]float64, 4))
	if err != nil {
		t.Fatal(err)
	}
	if !a.sameGeometry(b) {
		t.Error("a and b share a lattice")
	}
	if a.sameGeometry(c) {
		t.Error("a and c do not share a lattice")
	}
	groups := groupByGeometry([]*RasterLayer{a, b, c})
	if len(groups) != 2 || len(groups[0]) != 2 || len(groups[1]) != 1 {
		t.Errorf("groupByGeometry produced %d groups", len(groups))
	}
}
