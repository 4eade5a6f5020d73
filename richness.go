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
	"runtime"
	"sort"
	"sync"

	"github.com/ctessum/sparse"
)

// A RichnessRecord is the species richness of one non-empty grid tile.
type RichnessRecord struct {
	Cell *Cell

	// Richness is the number of distinct species identifiers among the
	// occurrences assigned to the tile, excluding records with no
	// identification.
	Richness int

	// Occurrences is the total number of points assigned to the tile,
	// including unidentified ones. Richness <= Occurrences always.
	Occurrences int
}

// A RichnessResult holds per-tile species richness for the non-empty
// tiles of a tessellation.
type RichnessResult struct {
	Grid *Grid

	// Records holds one record per tile with at least one identified
	// occurrence, in row-major tile order. Tiles without data are
	// omitted rather than reported as zero: "no data" and "zero
	// richness" are different things.
	Records []RichnessRecord

	// Counts holds the same richness values on the (Ny, Nx) lattice.
	Counts *sparse.SparseArray
}

// SpeciesRichness computes the distinct species count for every tile with
// at least one assigned occurrence. Occurrences with empty species
// identifiers count toward a tile's occupancy but not toward its
// richness; a tile whose occurrences are all unidentified is omitted.
//
// Tiles are independent of one another, so they are processed by
// GOMAXPROCS workers in parallel.
func SpeciesRichness(a *Assignment, points []ProjectedPoint) *RichnessResult {
	cells := make([]int, 0, len(a.CellPoints))
	for ci := range a.CellPoints {
		cells = append(cells, ci)
	}
	sort.Ints(cells)

	nprocs := runtime.GOMAXPROCS(-1)
	cellChan := make(chan int, nprocs*2)
	recordChan := make(chan RichnessRecord, nprocs*2)
	var wg sync.WaitGroup
	for proc := 0; proc < nprocs; proc++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ci := range cellChan {
				pts := a.CellPoints[ci]
				species := make(map[string]struct{})
				for _, pi := range pts {
					if s := points[pi].Species; s != "" {
						species[s] = struct{}{}
					}
				}
				if len(species) == 0 {
					continue
				}
				row, col := a.Grid.RowCol(ci)
				recordChan <- RichnessRecord{
					Cell:        a.Grid.Cell(row, col),
					Richness:    len(species),
					Occurrences: len(pts),
				}
			}
		}()
	}
	go func() {
		for _, ci := range cells {
			cellChan <- ci
		}
		close(cellChan)
		wg.Wait()
		close(recordChan)
	}()

	result := &RichnessResult{
		Grid:   a.Grid,
		Counts: sparse.ZerosSparse(a.Grid.Ny, a.Grid.Nx),
	}
	for rec := range recordChan {
		result.Records = append(result.Records, rec)
		result.Counts.Set(float64(rec.Richness), rec.Cell.Row, rec.Cell.Col)
	}
	sort.Slice(result.Records, func(i, j int) bool {
		a := result.Records[i].Cell
		b := result.Records[j].Cell
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return result
}
