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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
)

// ReadBoundary reads the polygons of a boundary shapefile (e.g. world
// country outlines) and transforms them into the planar coordinate
// system of projection p. It returns the transformed polygons and their
// combined bounds, which define the tessellation region. The boundary is
// consumed as geometry only; attribute columns are ignored.
//
// The shapefile's spatial reference is taken from its .prj sidecar and
// normalized to longitude/latitude before projecting; if no spatial
// reference is available the coordinates are assumed to already be
// longitude/latitude degrees.
func ReadBoundary(filename string, p *LAEA) ([]geom.Polygonal, *geom.Bounds, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("richness: opening boundary shapefile %s: %v", filename, err)
	}
	defer d.Close()

	var toLonLat proj.Transformer
	if boundarySR, err := d.SR(); err == nil {
		longlat, err := proj.Parse("+proj=longlat")
		if err != nil {
			panic(err)
		}
		toLonLat, err = boundarySR.NewTransform(longlat)
		if err != nil {
			return nil, nil, fmt.Errorf("richness: boundary shapefile %s: %v", filename, err)
		}
	}
	forward := p.Forward()

	var polys []geom.Polygonal
	bounds := geom.NewBounds()
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if g == nil {
			continue
		}
		if toLonLat != nil {
			g, err = g.Transform(toLonLat)
			if err != nil {
				return nil, nil, fmt.Errorf("richness: reprojecting boundary shapefile %s: %v", filename, err)
			}
		}
		g, err = g.Transform(forward)
		if err != nil {
			return nil, nil, fmt.Errorf("richness: projecting boundary shapefile %s: %v", filename, err)
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return nil, nil, fmt.Errorf("richness: boundary shapefile %s: shapes must be polygons", filename)
		}
		polys = append(polys, poly)
		bounds.Extend(poly.Bounds())
	}
	if err := d.Error(); err != nil {
		return nil, nil, fmt.Errorf("richness: reading boundary shapefile %s: %v", filename, err)
	}
	if len(polys) == 0 {
		return nil, nil, fmt.Errorf("richness: boundary shapefile %s contains no polygons", filename)
	}
	return polys, bounds, nil
}
