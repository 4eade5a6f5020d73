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
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

func testBounds(x0, y0, x1, y1 float64) *geom.Bounds {
	b := geom.NewBounds()
	b.Extend(&geom.Bounds{Min: geom.Point{X: x0, Y: y0}, Max: geom.Point{X: x1, Y: y1}})
	return b
}

func TestNewGrid_square(t *testing.T) {
	g, err := NewGrid("test", SquareGrid, testBounds(0, 0, 2500, 1500), 1000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if g.Nx != 3 || g.Ny != 2 {
		t.Fatalf("grid is %d×%d, want 3×2", g.Nx, g.Ny)
	}
	if g.Len() != 6 {
		t.Errorf("Len() = %d, want 6", g.Len())
	}

	c := g.Cell(1, 2)
	if c.ID() != "1_2" {
		t.Errorf("cell ID = %q, want 1_2", c.ID())
	}
	want := geom.Polygon([]geom.Path{{
		{X: 2000, Y: 1000}, {X: 3000, Y: 1000},
		{X: 3000, Y: 2000}, {X: 2000, Y: 2000}, {X: 2000, Y: 1000}}})
	if !reflect.DeepEqual(c.Polygonal, want) {
		t.Errorf("cell geometry = %#v, want %#v", c.Polygonal, want)
	}
}

func TestNewGrid_hex(t *testing.T) {
	const dx = 1000.
	g, err := NewGrid("test", HexGrid, testBounds(0, 0, 3000, 3000), dx, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantRowSpacing := dx * math.Sqrt(3) / 2
	if math.Abs(g.rowSpacing-wantRowSpacing) > 1e-9 {
		t.Errorf("row spacing = %g, want %g", g.rowSpacing, wantRowSpacing)
	}
	// Odd rows are shifted right by half a cell width.
	c0 := g.center(0, 1)
	c1 := g.center(1, 1)
	if got := c1.X - c0.X; math.Abs(got-dx/2) > 1e-9 {
		t.Errorf("odd-row offset = %g, want %g", got, dx/2)
	}
	if got := c1.Y - c0.Y; math.Abs(got-g.rowSpacing) > 1e-9 {
		t.Errorf("row spacing between centers = %g, want %g", got, g.rowSpacing)
	}

	// Every hexagon has the same area, 3/2·√3·r² = √3/2·dx².
	wantArea := math.Sqrt(3) / 2 * dx * dx
	c := g.Cell(1, 1)
	if got := c.Polygonal.Area(); math.Abs(got-wantArea) > 1e-6*wantArea {
		t.Errorf("hexagon area = %g, want %g", got, wantArea)
	}
}

func TestNewGrid_errors(t *testing.T) {
	if _, err := NewGrid("test", SquareGrid, testBounds(0, 0, 1, 1), 0, 1); err == nil {
		t.Error("zero cell size should fail")
	} else if _, ok := err.(*ConfigError); !ok {
		t.Errorf("error should be a ConfigError but is %T", err)
	}
	if _, err := NewGrid("test", SquareGrid, testBounds(0, 0, 1, 1), -5, 1); err == nil {
		t.Error("negative cell size should fail")
	}
	if _, err := NewGrid("test", SquareGrid, nil, 1, 1); err == nil {
		t.Error("nil bounds should fail")
	}
	if _, err := NewGrid("test", SquareGrid, geom.NewBounds(), 1, 1); err == nil {
		t.Error("empty bounds should fail")
	}
}

func TestGrid_deterministic(t *testing.T) {
	for _, shape := range []GridShape{SquareGrid, HexGrid} {
		a, err := NewGrid("a", shape, testBounds(-500, -500, 2500, 2500), 700, 700)
		if err != nil {
			t.Fatal(err)
		}
		b, err := NewGrid("a", shape, testBounds(-500, -500, 2500, 2500), 700, 700)
		if err != nil {
			t.Fatal(err)
		}
		nextA, nextB := a.Cells(), b.Cells()
		for {
			ca, errA := nextA()
			cb, errB := nextB()
			if errA != errB {
				t.Fatalf("%v: generators disagree: %v vs %v", shape, errA, errB)
			}
			if errA == io.EOF {
				break
			}
			if !reflect.DeepEqual(ca, cb) {
				t.Fatalf("%v: cell (%d, %d) differs between identical grids", shape, ca.Row, ca.Col)
			}
		}
	}
}

func TestGrid_cellsOrder(t *testing.T) {
	g, err := NewGrid("test", SquareGrid, testBounds(0, 0, 3000, 2000), 1000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	next := g.Cells()
	n := 0
	for {
		c, err := next()
		if err == io.EOF {
			break
		}
		if wantRow, wantCol := g.RowCol(n); c.Row != wantRow || c.Col != wantCol {
			t.Fatalf("cell %d is (%d, %d), want (%d, %d)", n, c.Row, c.Col, wantRow, wantCol)
		}
		if g.CellIndex(c.Row, c.Col) != n {
			t.Fatalf("CellIndex(%d, %d) = %d, want %d", c.Row, c.Col, g.CellIndex(c.Row, c.Col), n)
		}
		n++
	}
	if n != g.Len() {
		t.Errorf("generator produced %d cells, want %d", n, g.Len())
	}
}

// Every point of the bounding region must land in exactly one tile, found
// both by the direct lattice lookup and by the tile geometry itself.
func TestGrid_coverage(t *testing.T) {
	for _, shape := range []GridShape{SquareGrid, HexGrid} {
		g, err := NewGrid("test", shape, testBounds(0, 0, 5000, 4000), 900, 700)
		if err != nil {
			t.Fatal(err)
		}
		for _, pt := range []geom.Point{
			{X: 0, Y: 0}, {X: 4999, Y: 3999}, {X: 2500, Y: 2000},
			{X: 0.1, Y: 3999.9}, {X: 4321, Y: 12},
		} {
			row, col, ok := g.AssignPoint(pt)
			if !ok {
				t.Errorf("%v: point %v is not covered", shape, pt)
				continue
			}
			c := g.Cell(row, col)
			if w := pt.Within(c.Polygonal); w == geom.Outside {
				t.Errorf("%v: point %v assigned to tile (%d, %d) that does not contain it",
					shape, pt, row, col)
			}
		}
	}
}

func TestGrid_intersectingCells(t *testing.T) {
	g, err := NewGrid("test", SquareGrid, testBounds(0, 0, 3000, 3000), 1000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	// A triangle overlapping only the lower-left quadrant.
	tri := geom.Polygon([]geom.Path{{
		{X: 100, Y: 100}, {X: 900, Y: 100}, {X: 100, Y: 900}, {X: 100, Y: 100}}})
	keep := g.IntersectingCells([]geom.Polygonal{tri})
	if !reflect.DeepEqual(keep, map[int]bool{0: true}) {
		t.Errorf("intersecting cells = %v, want only cell 0", keep)
	}

	// A band across the middle row touches every column there.
	band := geom.Polygon([]geom.Path{{
		{X: -100, Y: 1400}, {X: 3100, Y: 1400},
		{X: 3100, Y: 1600}, {X: -100, Y: 1600}, {X: -100, Y: 1400}}})
	keep = g.IntersectingCells([]geom.Polygonal{band})
	want := map[int]bool{
		g.CellIndex(1, 0): true, g.CellIndex(1, 1): true, g.CellIndex(1, 2): true,
	}
	if !reflect.DeepEqual(keep, want) {
		t.Errorf("intersecting cells = %v, want %v", keep, want)
	}
}
