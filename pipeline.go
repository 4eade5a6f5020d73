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
	"context"
	"fmt"
	"math"
	"os"

	"github.com/ctessum/geom"
)

// Version is the AntGrid version number.
const Version = "0.1.0"

// Diagnostics accumulates the non-fatal data-sparsity conditions of a
// pipeline run. Sparse global ecological data make these expected, so
// they are counted rather than treated as errors.
type Diagnostics struct {
	// Occurrences is the number of occurrence records loaded after
	// filtering.
	Occurrences int

	// UnassignedPoints is the number of points that fell outside
	// every grid tile.
	UnassignedPoints int

	// TotalTiles and BoundaryTiles are the tessellation size before
	// and after masking to the boundary polygons.
	TotalTiles, BoundaryTiles int

	// OccupiedTiles is the number of tiles with at least one
	// identified occurrence.
	OccupiedTiles int

	// EmptyOverlapTiles counts, per climate layer, the occupied tiles
	// with no non-missing raster coverage.
	EmptyOverlapTiles map[string]int
}

// A Pipeline runs the full occurrence-to-enriched-richness workflow:
// load occurrences, project them to an equal-area plane, tessellate the
// boundary region, assign points to tiles, aggregate distinct species
// counts, extract per-tile climate summaries, and join the results.
type Pipeline struct {
	// OccurrenceFile is the CSV table of point observations, described
	// by Format.
	OccurrenceFile string
	Format         OccurrenceFormat

	// BoundaryFile optionally names a polygon shapefile defining the
	// tessellation region; tiles not intersecting it are masked out.
	// If empty, the region is the extent of the projected occurrences
	// and no masking is done.
	BoundaryFile string

	// ClimateFiles name COARDS NetCDF raster files; ClimateVars
	// optionally restricts which variables are read from them.
	ClimateFiles []string
	ClimateVars  []string

	// Lat0 and Lon0 anchor the equal-area projection.
	Lat0, Lon0 float64

	// GridName, Shape, Dx and Dy parameterize the tessellation.
	GridName string
	Shape    GridShape
	Dx, Dy   float64

	// DiskCachePath and MemCacheSize configure the zonal statistics
	// cache (see ZonalExtractor).
	DiskCachePath string
	MemCacheSize  int

	// OutputShapefile and OutputCSV are written if non-empty.
	OutputShapefile string
	OutputCSV       string

	// MsgChan, if non-nil, receives progress messages.
	MsgChan chan string

	// Results, populated by Run.
	Grid        *Grid
	Records     []EnrichedRichnessRecord
	LayerNames  []string
	Diagnostics Diagnostics
}

func (p *Pipeline) msg(format string, args ...interface{}) {
	if p.MsgChan != nil {
		p.MsgChan <- fmt.Sprintf(format, args...)
	}
}

// Run executes the pipeline. Configuration and coordinate-range errors
// abort the run; unassigned points and missing raster coverage are
// recorded in Diagnostics and do not.
func (p *Pipeline) Run(ctx context.Context) error {
	proj, err := NewLAEA(p.Lat0, p.Lon0)
	if err != nil {
		return err
	}

	p.msg("Loading occurrence records from %s", p.OccurrenceFile)
	f, err := os.Open(p.OccurrenceFile)
	if err != nil {
		return fmt.Errorf("richness: opening occurrence table: %v", err)
	}
	occurrences, err := ReadOccurrences(f, p.Format)
	f.Close()
	if err != nil {
		return err
	}
	p.Diagnostics.Occurrences = len(occurrences)
	p.msg("Loaded %d occurrence records", len(occurrences))

	points, err := ProjectOccurrences(occurrences, proj)
	if err != nil {
		return err
	}

	var boundary []geom.Polygonal
	var bounds *geom.Bounds
	if p.BoundaryFile != "" {
		p.msg("Loading boundary from %s", p.BoundaryFile)
		boundary, bounds, err = ReadBoundary(p.BoundaryFile, proj)
		if err != nil {
			return err
		}
	} else {
		bounds = geom.NewBounds()
		for _, pt := range points {
			bounds.Extend(pt.Bounds())
		}
	}

	p.msg("Creating %s grid", p.Shape)
	grid, err := NewGrid(p.GridName, p.Shape, bounds, p.Dx, p.Dy)
	if err != nil {
		return err
	}
	p.Grid = grid
	p.Diagnostics.TotalTiles = grid.Len()
	p.Diagnostics.BoundaryTiles = grid.Len()

	var mask map[int]bool
	if boundary != nil {
		mask = grid.IntersectingCells(boundary)
		p.Diagnostics.BoundaryTiles = len(mask)
		p.msg("Masked grid to %d of %d tiles", len(mask), grid.Len())
	}

	assignment := grid.Assign(points)
	if mask != nil {
		for ci := range assignment.CellPoints {
			if !mask[ci] {
				assignment.Unassigned = append(assignment.Unassigned, assignment.CellPoints[ci]...)
				delete(assignment.CellPoints, ci)
			}
		}
	}
	p.Diagnostics.UnassignedPoints = len(assignment.Unassigned)
	if n := len(assignment.Unassigned); n > 0 {
		p.msg("%d points fall outside the tessellation and are excluded", n)
	}

	result := SpeciesRichness(assignment, points)
	p.Diagnostics.OccupiedTiles = len(result.Records)
	p.msg("Computed richness for %d occupied tiles", len(result.Records))

	var layers []*RasterLayer
	for _, file := range p.ClimateFiles {
		l, err := ReadCOARDSRasters(file, p.ClimateVars...)
		if err != nil {
			return err
		}
		layers = append(layers, l...)
	}

	table := make(ZonalTable)
	if len(layers) > 0 {
		occupied := make(map[int]bool, len(result.Records))
		for _, rec := range result.Records {
			occupied[grid.CellIndex(rec.Cell.Row, rec.Cell.Col)] = true
		}
		extractor := &ZonalExtractor{
			DiskCachePath: p.DiskCachePath,
			MemCacheSize:  p.MemCacheSize,
		}
		p.msg("Extracting zonal climate statistics for %d layers", len(layers))
		table, err = extractor.ZonalMeans(ctx, grid, proj, layers, occupied)
		if err != nil {
			return err
		}
	}

	p.LayerNames = LayerNames(layers)
	p.Records = Enrich(result, table, p.LayerNames)

	p.Diagnostics.EmptyOverlapTiles = make(map[string]int)
	for _, rec := range p.Records {
		for name, v := range rec.Climate {
			if math.IsNaN(v) {
				p.Diagnostics.EmptyOverlapTiles[name]++
			}
		}
	}

	if p.OutputShapefile != "" {
		p.msg("Writing %s", p.OutputShapefile)
		if err := WriteShapefile(p.OutputShapefile, p.Records, p.LayerNames, proj); err != nil {
			return err
		}
	}
	if p.OutputCSV != "" {
		p.msg("Writing %s", p.OutputCSV)
		w, err := os.Create(p.OutputCSV)
		if err != nil {
			return fmt.Errorf("richness: creating output table: %v", err)
		}
		if err := WriteCSV(w, p.Records, p.LayerNames); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}
