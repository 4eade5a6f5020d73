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
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	goshp "github.com/jonas-p/go-shp"
)

// GridShape selects the tile shape of a tessellation.
type GridShape int

const (
	// SquareGrid tiles the plane with axis-aligned rectangles.
	SquareGrid GridShape = iota
	// HexGrid tiles the plane with pointy-top hexagons on an offset-row
	// lattice: horizontal center spacing Dx (the flat-to-flat width),
	// vertical row spacing Dx·√3/2, odd rows shifted right by Dx/2.
	HexGrid
)

func (s GridShape) String() string {
	switch s {
	case SquareGrid:
		return "square"
	case HexGrid:
		return "hexagon"
	default:
		return fmt.Sprintf("GridShape(%d)", int(s))
	}
}

// A ConfigError reports an invalid tessellation configuration. It is
// fatal: no grid is produced.
type ConfigError struct {
	Problem string
}

func (e *ConfigError) Error() string {
	return "richness: grid configuration: " + e.Problem
}

// Grid is a regular tessellation of a planar bounding region. The lattice
// origin is the minimum corner of the bounding region; tiles are indexed
// by (row, column) starting there, and may extend beyond the exact bounds.
// Grids are fully determined by (shape, bounds, cell size): constructing
// the same grid twice yields the same tiles in the same order.
//
// Tile geometries are computed on demand from their lattice coordinates
// rather than stored, so a grid over a world-scale extent at fine
// resolution occupies constant memory until cells are requested.
type Grid struct {
	Name   string
	Shape  GridShape
	Nx, Ny int
	Dx, Dy float64
	X0, Y0 float64

	// rowSpacing is the vertical distance between row centers
	// (Dy for squares, 1.5·circumradius for hexagons).
	rowSpacing float64
	// hexR is the hexagon circumradius (center to vertex); 0 for squares.
	hexR float64
}

// A Cell is one tile of a grid tessellation.
type Cell struct {
	geom.Polygonal
	Row, Col int
}

// ID returns the stable identifier of the cell, "row_col".
func (c *Cell) ID() string { return fmt.Sprintf("%d_%d", c.Row, c.Col) }

// NewGrid creates a tessellation of shape-kind tiles covering bounds.
// dx and dy are the cell edge lengths in the units of the planar
// coordinate system (meters); for hexagons dx is the flat-to-flat width
// and dy is ignored.
func NewGrid(name string, shape GridShape, bounds *geom.Bounds, dx, dy float64) (*Grid, error) {
	if shape == HexGrid {
		dy = dx * math.Sqrt(3) / 2
	}
	if dx <= 0 || dy <= 0 {
		return nil, &ConfigError{Problem: fmt.Sprintf("cell size (%g, %g) must be positive", dx, dy)}
	}
	if bounds == nil || bounds.Empty() ||
		bounds.Max.X <= bounds.Min.X || bounds.Max.Y <= bounds.Min.Y {
		return nil, &ConfigError{Problem: "degenerate bounding region"}
	}
	g := &Grid{
		Name:  name,
		Shape: shape,
		Dx:    dx,
		Dy:    dy,
		X0:    bounds.Min.X,
		Y0:    bounds.Min.Y,
	}
	w := bounds.Max.X - bounds.Min.X
	h := bounds.Max.Y - bounds.Min.Y
	switch shape {
	case SquareGrid:
		g.rowSpacing = dy
		g.Nx = int(math.Ceil(w / dx))
		g.Ny = int(math.Ceil(h / dy))
	case HexGrid:
		g.hexR = dx / math.Sqrt(3)
		g.rowSpacing = 1.5 * g.hexR
		// One extra row and column so the offset rows and the hexagon
		// margins still cover the corners of the bounding region.
		g.Nx = int(math.Ceil(w/dx)) + 1
		g.Ny = int(math.Ceil(h/g.rowSpacing)) + 1
	default:
		return nil, &ConfigError{Problem: fmt.Sprintf("unknown grid shape %d", int(shape))}
	}
	return g, nil
}

// Len returns the number of tiles in the tessellation.
func (g *Grid) Len() int { return g.Nx * g.Ny }

// CellIndex returns the one-dimensional row-major index of tile
// (row, col).
func (g *Grid) CellIndex(row, col int) int { return row*g.Nx + col }

// RowCol is the inverse of CellIndex.
func (g *Grid) RowCol(i int) (row, col int) { return i / g.Nx, i % g.Nx }

// center returns the center point of tile (row, col).
func (g *Grid) center(row, col int) geom.Point {
	switch g.Shape {
	case HexGrid:
		x := g.X0 + float64(col)*g.Dx
		if row%2 != 0 {
			x += g.Dx / 2
		}
		return geom.Point{X: x, Y: g.Y0 + float64(row)*g.rowSpacing}
	default:
		return geom.Point{
			X: g.X0 + (float64(col)+0.5)*g.Dx,
			Y: g.Y0 + (float64(row)+0.5)*g.Dy,
		}
	}
}

// Cell constructs the tile at (row, col). Tile geometry is deterministic
// in the lattice coordinates.
func (g *Grid) Cell(row, col int) *Cell {
	c := &Cell{Row: row, Col: col}
	switch g.Shape {
	case HexGrid:
		ctr := g.center(row, col)
		w2 := g.Dx / 2
		r := g.hexR
		c.Polygonal = geom.Polygon([]geom.Path{{
			{X: ctr.X, Y: ctr.Y + r},
			{X: ctr.X + w2, Y: ctr.Y + r/2},
			{X: ctr.X + w2, Y: ctr.Y - r/2},
			{X: ctr.X, Y: ctr.Y - r},
			{X: ctr.X - w2, Y: ctr.Y - r/2},
			{X: ctr.X - w2, Y: ctr.Y + r/2},
			{X: ctr.X, Y: ctr.Y + r},
		}})
	default:
		x := g.X0 + float64(col)*g.Dx
		y := g.Y0 + float64(row)*g.Dy
		c.Polygonal = geom.Polygon([]geom.Path{{
			{X: x, Y: y}, {X: x + g.Dx, Y: y},
			{X: x + g.Dx, Y: y + g.Dy}, {X: x, Y: y + g.Dy}, {X: x, Y: y}}})
	}
	return c
}

// Cells returns a generator producing every tile of the tessellation in
// row-major order. The generator returns io.EOF after the last tile.
func (g *Grid) Cells() func() (*Cell, error) {
	var row, col int
	return func() (*Cell, error) {
		if row == g.Ny {
			return nil, io.EOF
		}
		c := g.Cell(row, col)
		col++
		if col == g.Nx {
			col = 0
			row++
		}
		return c, nil
	}
}

// Extent returns the rectangular region guaranteed to be covered by the
// tessellation.
func (g *Grid) Extent() geom.Polygon {
	xMax := g.X0 + g.Dx*float64(g.Nx)
	yMax := g.Y0 + g.Dy*float64(g.Ny)
	if g.Shape == HexGrid {
		xMax = g.X0 + g.Dx*float64(g.Nx-1)
		yMax = g.Y0 + g.rowSpacing*float64(g.Ny-1) + g.hexR
	}
	return geom.Polygon([]geom.Path{{
		{X: g.X0, Y: g.Y0},
		{X: xMax, Y: g.Y0},
		{X: xMax, Y: yMax},
		{X: g.X0, Y: yMax},
		{X: g.X0, Y: g.Y0}}})
}

// IntersectingCells returns the set of one-dimensional tile indices whose
// tiles intersect at least one of the given shapes. It is used to mask a
// tessellation to a land boundary before aggregation.
func (g *Grid) IntersectingCells(shapes []geom.Polygonal) map[int]bool {
	index := rtree.NewTree(25, 50)
	for _, s := range shapes {
		index.Insert(s)
	}
	keep := make(map[int]bool)
	next := g.Cells()
	for {
		c, err := next()
		if err == io.EOF {
			break
		}
		for _, sI := range index.SearchIntersect(c.Bounds()) {
			s := sI.(geom.Polygonal)
			isect := c.Polygonal.Intersection(s)
			if isect != nil && isect.Area() > 0 {
				keep[g.CellIndex(c.Row, c.Col)] = true
				break
			}
		}
	}
	return keep
}

// WriteToShp writes the tessellation to a shapefile in directory outdir.
func (g *Grid) WriteToShp(outdir string) error {
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(filepath.Join(outdir, g.Name+ext))
	}
	fields := make([]goshp.Field, 2)
	fields[0] = goshp.NumberField("row", 10)
	fields[1] = goshp.NumberField("col", 10)
	shpf, err := shp.NewEncoderFromFields(filepath.Join(outdir, g.Name+".shp"),
		goshp.POLYGON, fields...)
	if err != nil {
		return err
	}
	next := g.Cells()
	for {
		c, err := next()
		if err == io.EOF {
			break
		}
		if err := shpf.EncodeFields(c.Polygonal, c.Row, c.Col); err != nil {
			return err
		}
	}
	shpf.Close()
	return nil
}
