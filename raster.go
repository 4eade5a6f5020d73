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
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// A RasterLayer is one gridded continuous climate variable on a regular
// longitude/latitude lattice. Lats and Lons hold cell center coordinates
// in degrees; Data holds the cell values in (lat, lon) order with NaN
// marking missing cells. Layers are read-only once created.
type RasterLayer struct {
	Name       string
	Lats, Lons []float64
	Data       *sparse.DenseArray
}

// NewRasterLayer creates a raster layer from cell center coordinates and
// row-major (latitude-major) values. Missing cells are represented by
// NaN values.
func NewRasterLayer(name string, lats, lons, values []float64) (*RasterLayer, error) {
	if len(lats) == 0 || len(lons) == 0 {
		return nil, fmt.Errorf("richness: raster layer %s: empty lat or lon coordinates", name)
	}
	if len(values) != len(lats)*len(lons) {
		return nil, fmt.Errorf("richness: raster layer %s: have %d values but %d×%d cells",
			name, len(values), len(lats), len(lons))
	}
	data := sparse.ZerosDense(len(lats), len(lons))
	copy(data.Elements, values)
	return &RasterLayer{Name: name, Lats: lats, Lons: lons, Data: data}, nil
}

// Value returns the value of the raster cell in latitude row j and
// longitude column i. Missing cells are NaN.
func (l *RasterLayer) Value(j, i int) float64 { return l.Data.Get(j, i) }

// sameGeometry reports whether two layers share the same cell lattice,
// in which case their tile overlap can be computed in one shared pass.
func (l *RasterLayer) sameGeometry(o *RasterLayer) bool {
	if len(l.Lats) != len(o.Lats) || len(l.Lons) != len(o.Lons) {
		return false
	}
	for i, v := range l.Lats {
		if o.Lats[i] != v {
			return false
		}
	}
	for i, v := range l.Lons {
		if o.Lons[i] != v {
			return false
		}
	}
	return true
}

// ReadCOARDSRasters reads raster layers from a COARDS-compliant NetCDF
// file (NetCDF 4 and greater not supported). If varNames is empty, every
// floating point variable with dimensions [lat, lon] is read; otherwise
// only the named variables are read. Cells matching the variable's
// _FillValue attribute are set to NaN.
// Data in the file are assumed to be row-major (i.e., latitude-major).
// Information regarding the COARDS NetCDF conventions is available here:
// https://ferret.pmel.noaa.gov/Ferret/documentation/coards-netcdf-conventions.
func ReadCOARDSRasters(file string, varNames ...string) ([]*RasterLayer, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("richness: opening COARDS file %s: %v", file, err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("richness: opening COARDS file %s: %v", file, err)
	}

	lons, err := readCOARDSVar(nc, "lon")
	if err != nil {
		return nil, fmt.Errorf("richness: reading variable lon from COARDS file %s: %v", file, err)
	}
	lats, err := readCOARDSVar(nc, "lat")
	if err != nil {
		return nil, fmt.Errorf("richness: reading variable lat from COARDS file %s: %v", file, err)
	}
	if len(lons) < 2 || len(lats) < 2 {
		return nil, fmt.Errorf("richness: reading from COARDS file %s: lat and lon variables must be length >= 2 but are %d and %d",
			file, len(lats), len(lons))
	}

	want := make(map[string]bool)
	for _, v := range varNames {
		want[v] = true
	}
	var layers []*RasterLayer
	for _, v := range nc.Header.Variables() {
		dims := nc.Header.Dimensions(v)
		if len(dims) != 2 || dims[0] != "lat" || dims[1] != "lon" {
			continue
		}
		if len(want) > 0 && !want[v] {
			continue
		}
		data, err := readCOARDSVar(nc, v)
		if err != nil {
			return nil, fmt.Errorf("richness: reading variable %s from COARDS file %s: %v", v, file, err)
		}
		if data == nil { // not a floating point variable
			continue
		}
		layer, err := NewRasterLayer(v, lats, lons, data)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
		delete(want, v)
	}
	for v := range want {
		return nil, fmt.Errorf("richness: COARDS file %s has no [lat, lon] float variable %s", file, v)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("richness: COARDS file %s contains no [lat, lon] float variables", file)
	}
	return layers, nil
}

// readCOARDSVar reads a floating point variable from a COARDS file,
// converting _FillValue cells to NaN. It returns nil if the variable is
// not floating point.
func readCOARDSVar(nc *cdf.File, v string) ([]float64, error) {
	r := nc.Reader(v, nil, nil)
	dataI := r.Zero(-1)
	switch dataI.(type) {
	case []float32, []float64:
	default:
		return nil, nil
	}
	_, err := r.Read(dataI)
	if err != nil {
		return nil, err
	}
	var data []float64
	switch d := dataI.(type) {
	case []float64:
		data = d
	case []float32:
		data = make([]float64, len(d))
		for i, val := range d {
			data[i] = float64(val)
		}
	}

	noDataI := nc.Header.GetAttribute(v, "_FillValue")
	if noDataI != nil {
		var noData float64
		switch n := noDataI.(type) {
		case []float32:
			noData = float64(n[0])
		case []float64:
			noData = n[0]
		default:
			return nil, fmt.Errorf("invalid type for COARDS FillValue: %T", noDataI)
		}
		for i, d := range data {
			if d == noData {
				data[i] = math.NaN()
			}
		}
	}
	return data, nil
}
