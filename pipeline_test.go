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
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
)

// Five observations of two species within half a degree of the
// projection center, so they share one 500 km tile.
const pipelineCSV = `valid_species_name,dec_long,dec_lat
Lasius.niger,0.1,0.1
Lasius.niger,-0.2,0.3
Lasius.flavus,0.3,-0.1
Lasius.flavus,-0.4,-0.3
Lasius.flavus,0.2,0.2
`

func writeOccurrenceCSV(t *testing.T, dir string) string {
	t.Helper()
	file := filepath.Join(dir, "occurrences.csv")
	if err := os.WriteFile(file, []byte(pipelineCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

// writeCOARDSFile writes a COARDS NetCDF file with a single [lat, lon]
// variable named temp whose cells all hold the given value.
func writeCOARDSFile(t *testing.T, dir string, value float64) string {
	t.Helper()
	lats := []float64{-0.5, 0.5}
	lons := []float64{-0.5, 0.5}
	h := cdf.NewHeader([]string{"lat", "lon"}, []int{len(lats), len(lons)})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddVariable("temp", []string{"lat", "lon"}, []float64{0})
	h.AddAttribute("temp", "_FillValue", []float64{-9999})
	h.Define()

	file := filepath.Join(dir, "climate.nc")
	ff, err := os.Create(file)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	write := func(name string, data []float64) {
		end := f.Header.Lengths(name)
		w := f.Writer(name, make([]int, len(end)), end)
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	write("lat", lats)
	write("lon", lons)
	write("temp", []float64{value, value, value, value})
	return file
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	outCSV := filepath.Join(dir, "richness.csv")
	p := &Pipeline{
		OccurrenceFile: writeOccurrenceCSV(t, dir),
		Format: OccurrenceFormat{
			SpeciesColumn: "valid_species_name",
			LonColumn:     "dec_long",
			LatColumn:     "dec_lat",
		},
		ClimateFiles: []string{writeCOARDSFile(t, dir, 15)},
		GridName:     "test",
		Shape:        SquareGrid,
		Dx:           500000,
		Dy:           500000,
		OutputCSV:    outCSV,
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(p.Records) != 1 {
		t.Fatalf("got %d output records, want 1", len(p.Records))
	}
	rec := p.Records[0]
	if rec.Richness != 2 {
		t.Errorf("richness = %d, want 2", rec.Richness)
	}
	if rec.Occurrences != 5 {
		t.Errorf("occurrences = %d, want 5", rec.Occurrences)
	}
	// A constant raster over the tile must average to exactly itself.
	if got := rec.Climate["temp"]; got != 15 {
		t.Errorf("temp = %g, want 15", got)
	}

	d := p.Diagnostics
	if d.Occurrences != 5 || d.UnassignedPoints != 0 || d.OccupiedTiles != 1 {
		t.Errorf("diagnostics = %+v", d)
	}
	if n := d.EmptyOverlapTiles["temp"]; n != 0 {
		t.Errorf("%d tiles without temp coverage, want 0", n)
	}

	if _, err := os.Stat(outCSV); err != nil {
		t.Errorf("output table was not written: %v", err)
	}
}

// Running the same configuration twice produces byte-identical output.
func TestPipeline_idempotent(t *testing.T) {
	dir := t.TempDir()
	occ := writeOccurrenceCSV(t, dir)
	climate := writeCOARDSFile(t, dir, 9.5)
	run := func(out string) []byte {
		p := &Pipeline{
			OccurrenceFile: occ,
			Format: OccurrenceFormat{
				SpeciesColumn: "valid_species_name",
				LonColumn:     "dec_long",
				LatColumn:     "dec_lat",
			},
			ClimateFiles: []string{climate},
			GridName:     "test",
			Shape:        HexGrid,
			Dx:           200000,
			OutputCSV:    filepath.Join(dir, out),
		}
		if err := p.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dir, out))
		if err != nil {
			t.Fatal(err)
		}
		return b
	}
	if !bytes.Equal(run("a.csv"), run("b.csv")) {
		t.Error("identical runs produced different output tables")
	}
}

func TestPipeline_boundaryMask(t *testing.T) {
	dir := t.TempDir()
	// A triangular boundary over the southwest of its own bounding box.
	// The grid covers the bounding box with 2x2 tiles, so the northeast
	// tile does not touch the boundary and is masked out.
	triangle := geom.Polygon([]geom.Path{{
		{X: -2, Y: -2}, {X: 0, Y: -2}, {X: -2, Y: 0}, {X: -2, Y: -2}}})

	occ := filepath.Join(dir, "occurrences.csv")
	table := `valid_species_name,dec_long,dec_lat
Formica.fusca,-1.8,-1.5
Formica.rufa,-1.7,-1.6
Formica.fusca,-0.5,-1.8
Formica.rufa,0.5,-0.5
Formica.fusca,-0.5,0.5
`
	if err := os.WriteFile(occ, []byte(table), 0644); err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{
		OccurrenceFile: occ,
		Format: OccurrenceFormat{
			SpeciesColumn: "valid_species_name",
			LonColumn:     "dec_long",
			LatColumn:     "dec_lat",
		},
		BoundaryFile: writeBoundaryShp(t, dir, triangle),
		GridName:     "test",
		Shape:        SquareGrid,
		Dx:           ezDegree(1),
		Dy:           ezDegree(1.5),
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	d := p.Diagnostics
	if d.TotalTiles != 4 || d.BoundaryTiles != 3 {
		t.Errorf("masking kept %d of %d tiles, want 3 of 4", d.BoundaryTiles, d.TotalTiles)
	}
	// One point is east of the grid entirely and one is in the masked
	// northeast tile.
	if d.UnassignedPoints != 2 {
		t.Errorf("%d points excluded, want 2", d.UnassignedPoints)
	}
	if d.Occurrences != 5 {
		t.Errorf("occurrences = %d, want 5", d.Occurrences)
	}
	wantTiles := map[string]int{"0_0": 2, "0_1": 1} // cell ID -> richness
	if len(p.Records) != len(wantTiles) {
		t.Fatalf("got %d occupied tiles, want %d", len(p.Records), len(wantTiles))
	}
	for _, rec := range p.Records {
		want, ok := wantTiles[rec.CellID]
		if !ok {
			t.Errorf("unexpected occupied tile %s", rec.CellID)
			continue
		}
		if rec.Richness != want {
			t.Errorf("tile %s richness = %d, want %d", rec.CellID, rec.Richness, want)
		}
	}
}

// ezDegree converts approximate degrees near the projection center to
// projected meters.
func ezDegree(deg float64) float64 {
	return deg * EarthRadius * math.Pi / 180
}
