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
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// writeBoundaryShp writes a polygon shapefile in longitude/latitude
// coordinates and returns its path.
func writeBoundaryShp(t *testing.T, dir string, polys ...geom.Polygon) string {
	t.Helper()
	file := filepath.Join(dir, "boundary.shp")
	e, err := shp.NewEncoderFromFields(file, goshp.POLYGON, goshp.NumberField("id", 10))
	if err != nil {
		t.Fatal(err)
	}
	for i, poly := range polys {
		if err := e.EncodeFields(poly, i); err != nil {
			t.Fatal(err)
		}
	}
	e.Close()
	return file
}

func TestReadBoundary(t *testing.T) {
	square := geom.Polygon([]geom.Path{{
		{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1}}})
	file := writeBoundaryShp(t, t.TempDir(), square)

	p, err := NewLAEA(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	polys, bounds, err := ReadBoundary(file, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(polys) != 1 {
		t.Fatalf("got %d polygons, want 1", len(polys))
	}
	// One degree near the projection center is about 111.2 km.
	const oneDegree = EarthRadius * math.Pi / 180
	if math.Abs(bounds.Max.X-oneDegree) > 1000 || math.Abs(bounds.Min.X+oneDegree) > 1000 {
		t.Errorf("projected x bounds = [%g, %g], want about ±%g",
			bounds.Min.X, bounds.Max.X, oneDegree)
	}
	if math.Abs(bounds.Max.Y-oneDegree) > 1000 || math.Abs(bounds.Min.Y+oneDegree) > 1000 {
		t.Errorf("projected y bounds = [%g, %g], want about ±%g",
			bounds.Min.Y, bounds.Max.Y, oneDegree)
	}
}

func TestReadBoundary_missing(t *testing.T) {
	p, err := NewLAEA(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadBoundary(filepath.Join(t.TempDir(), "nope.shp"), p); err == nil {
		t.Error("reading a missing shapefile should fail")
	}
}
