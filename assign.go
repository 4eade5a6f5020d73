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

	"github.com/ctessum/geom"
)

// A ProjectedPoint is an occurrence record transformed to the planar
// coordinate system of a grid.
type ProjectedPoint struct {
	geom.Point

	// Species is copied from the source record.
	Species string

	// Record is the index of the source record in the occurrence slice.
	Record int
}

// ProjectOccurrences transforms occurrence records to the planar
// coordinate system of projection p. Every valid record maps to exactly
// one point; a record with out-of-range coordinates causes a
// CoordinateError identifying it.
func ProjectOccurrences(recs []OccurrenceRecord, p *LAEA) ([]ProjectedPoint, error) {
	forward := p.Forward()
	points := make([]ProjectedPoint, len(recs))
	for i, rec := range recs {
		x, y, err := forward(rec.Lon, rec.Lat)
		if err != nil {
			if ce, ok := err.(*CoordinateError); ok {
				ce.Record = i
			}
			return nil, err
		}
		points[i] = ProjectedPoint{
			Point:   geom.Point{X: x, Y: y},
			Species: rec.Species,
			Record:  i,
		}
	}
	return points, nil
}

// An Assignment relates grid tiles to the points they contain.
type Assignment struct {
	Grid *Grid

	// CellPoints maps the one-dimensional tile index to the indices
	// (within the assigned point slice) of the points inside that tile.
	CellPoints map[int][]int

	// Unassigned lists the indices of points that fell outside every
	// tile. They are excluded from aggregation but reported, not
	// silently dropped.
	Unassigned []int
}

// AssignPoint returns the lattice coordinates of the tile containing p,
// computed directly from the lattice geometry without any spatial search.
// ok is false if p is outside every tile.
//
// A point exactly on a shared tile edge belongs to exactly one tile: for
// squares, tiles own half-open coordinate intervals, so the tile above or
// to the right of the edge wins (the grid's outermost maximum edges
// belong to the outermost tiles). For hexagons the tile whose center is
// nearest wins, with exact ties broken toward the larger row and then the
// larger column. The same inputs always produce the same assignment.
func (g *Grid) AssignPoint(p geom.Point) (row, col int, ok bool) {
	switch g.Shape {
	case HexGrid:
		return g.assignHex(p)
	default:
		return g.assignSquare(p)
	}
}

func (g *Grid) assignSquare(p geom.Point) (row, col int, ok bool) {
	col = int(math.Floor((p.X - g.X0) / g.Dx))
	row = int(math.Floor((p.Y - g.Y0) / g.Dy))
	// The maximum edges of the outermost tiles are part of the
	// tessellation even though the half-open intervals exclude them.
	if col == g.Nx && p.X == g.X0+float64(g.Nx)*g.Dx {
		col--
	}
	if row == g.Ny && p.Y == g.Y0+float64(g.Ny)*g.Dy {
		row--
	}
	if col < 0 || col >= g.Nx || row < 0 || row >= g.Ny {
		return 0, 0, false
	}
	return row, col, true
}

// assignHex finds the hexagon whose center is nearest to p. A hexagonal
// tessellation is the Voronoi diagram of its centers, so the nearest
// center over the full lattice identifies the containing tile; only the
// rows adjacent to p can hold that center.
func (g *Grid) assignHex(p geom.Point) (row, col int, ok bool) {
	jc := int(math.Round((p.Y - g.Y0) / g.rowSpacing))
	best := math.Inf(1)
	found := false
	for j := jc - 1; j <= jc+1; j++ {
		offset := 0.
		if j%2 != 0 { // covers negative odd rows too: (-1)%2 == -1
			offset = g.Dx / 2
		}
		ic := int(math.Round((p.X - g.X0 - offset) / g.Dx))
		for i := ic - 1; i <= ic+1; i++ {
			ctr := g.center(j, i)
			d := (p.X-ctr.X)*(p.X-ctr.X) + (p.Y-ctr.Y)*(p.Y-ctr.Y)
			if d < best || (d == best && (j > row || (j == row && i > col))) {
				best = d
				row, col = j, i
				found = true
			}
		}
	}
	if !found || row < 0 || row >= g.Ny || col < 0 || col >= g.Nx {
		return 0, 0, false
	}
	return row, col, true
}

// Assign determines the containing tile for every point. Points outside
// every tile are collected in the returned Assignment's Unassigned list.
func (g *Grid) Assign(points []ProjectedPoint) *Assignment {
	a := &Assignment{
		Grid:       g,
		CellPoints: make(map[int][]int),
	}
	for i, p := range points {
		row, col, ok := g.AssignPoint(p.Point)
		if !ok {
			a.Unassigned = append(a.Unassigned, i)
			continue
		}
		ci := g.CellIndex(row, col)
		a.CellPoints[ci] = append(a.CellPoints[ci], i)
	}
	return a
}
