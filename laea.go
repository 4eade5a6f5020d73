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

	"github.com/ctessum/geom/proj"
)

// EarthRadius is the radius of the spherical Earth model used for
// projection, in meters.
const EarthRadius = 6370997.

const (
	deg2rad = math.Pi / 180.
	rad2deg = 180. / math.Pi
	epsln   = 1.0e-10
)

// A CoordinateError reports a geographic coordinate outside the valid
// longitude/latitude range. Record identifies the offending input when
// the coordinate came from an occurrence table (-1 otherwise).
type CoordinateError struct {
	Lon, Lat float64
	Record   int
}

func (e *CoordinateError) Error() string {
	if e.Record >= 0 {
		return fmt.Sprintf("richness: record %d: coordinate (%g, %g) is outside the valid longitude/latitude range", e.Record, e.Lon, e.Lat)
	}
	return fmt.Sprintf("richness: coordinate (%g, %g) is outside the valid longitude/latitude range", e.Lon, e.Lat)
}

// validLonLat reports whether the given coordinate is a valid geographic
// coordinate in degrees.
func validLonLat(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90 &&
		!math.IsNaN(lon) && !math.IsNaN(lat)
}

// LAEA is a Lambert azimuthal equal-area projection on a spherical Earth,
// anchored at latitude Lat0 and longitude Lon0 (in degrees). The planar
// output coordinates are in meters relative to the projection center.
//
// The geom/proj package this repository otherwise uses for spatial
// references does not include this projection family, so the spherical
// forward and inverse equations are implemented here; the transformers it
// produces are interchangeable with proj.Transformer and can be passed
// directly to the Transform methods of geom geometries.
type LAEA struct {
	Lat0, Lon0 float64

	sinLat0, cosLat0 float64
}

// NewLAEA creates a Lambert azimuthal equal-area projection centered at
// lat0, lon0 (degrees).
func NewLAEA(lat0, lon0 float64) (*LAEA, error) {
	if !validLonLat(lon0, lat0) {
		return nil, &CoordinateError{Lon: lon0, Lat: lat0, Record: -1}
	}
	return &LAEA{
		Lat0:    lat0,
		Lon0:    lon0,
		sinLat0: math.Sin(lat0 * deg2rad),
		cosLat0: math.Cos(lat0 * deg2rad),
	}, nil
}

// Forward returns a transformer mapping geographic coordinates
// (longitude, latitude in degrees) to planar coordinates (meters).
// It fails with a CoordinateError for coordinates outside the valid
// geographic range, and with a separate error for the point antipodal
// to the projection center, where the projection is undefined.
func (p *LAEA) Forward() proj.Transformer {
	return func(lon, lat float64) (x, y float64, err error) {
		if !validLonLat(lon, lat) {
			return 0, 0, &CoordinateError{Lon: lon, Lat: lat, Record: -1}
		}
		sinLat := math.Sin(lat * deg2rad)
		cosLat := math.Cos(lat * deg2rad)
		dLon := adjustLonRad((lon - p.Lon0) * deg2rad)
		cosDLon := math.Cos(dLon)

		g := 1 + p.sinLat0*sinLat + p.cosLat0*cosLat*cosDLon
		if g <= epsln {
			return 0, 0, fmt.Errorf("richness: point (%g, %g) is antipodal to the projection center (%g, %g)",
				lon, lat, p.Lon0, p.Lat0)
		}
		k := math.Sqrt(2 / g)
		x = EarthRadius * k * cosLat * math.Sin(dLon)
		y = EarthRadius * k * (p.cosLat0*sinLat - p.sinLat0*cosLat*cosDLon)
		return x, y, nil
	}
}

// Inverse returns a transformer mapping planar coordinates (meters) back
// to geographic coordinates (longitude, latitude in degrees).
func (p *LAEA) Inverse() proj.Transformer {
	return func(x, y float64) (lon, lat float64, err error) {
		rho := math.Hypot(x, y)
		if rho < epsln {
			return p.Lon0, p.Lat0, nil
		}
		if rho > 2*EarthRadius {
			return 0, 0, fmt.Errorf("richness: planar point (%g, %g) is outside the projection domain", x, y)
		}
		c := 2 * math.Asin(rho/(2*EarthRadius))
		sinC := math.Sin(c)
		cosC := math.Cos(c)

		lat = math.Asin(cosC*p.sinLat0+y*sinC*p.cosLat0/rho) * rad2deg
		lonRad := math.Atan2(x*sinC, rho*p.cosLat0*cosC-y*p.sinLat0*sinC)
		lon = adjustLonRad(p.Lon0*deg2rad+lonRad) * rad2deg
		return lon, lat, nil
	}
}

// adjustLonRad wraps a longitude in radians to [-π, π].
func adjustLonRad(lon float64) float64 {
	if math.Abs(lon) <= math.Pi {
		return lon
	}
	return lon - float64(sign(lon))*2*math.Pi*math.Floor((math.Abs(lon)+math.Pi)/(2*math.Pi))
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}
