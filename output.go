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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// shpNoData is written to shapefile attribute fields in place of missing
// climate summaries, following common GIS NODATA practice; the CSV writer
// uses empty fields instead. It is never a legitimate summary value.
const shpNoData = -9999.

// An EnrichedRichnessRecord joins the species richness of a tile with its
// climate summaries. It is the pipeline's final output row.
type EnrichedRichnessRecord struct {
	CellID string
	Cell   *Cell

	Richness    int
	Occurrences int

	// Climate maps raster layer names to per-tile means. NaN means
	// the tile had no non-missing raster coverage for the layer.
	Climate map[string]float64
}

// Enrich joins per-tile richness with per-tile climate summaries on the
// tile index. The result is in row-major tile order. Tiles absent from
// the zonal table get NaN for every layer.
func Enrich(r *RichnessResult, table ZonalTable, layerNames []string) []EnrichedRichnessRecord {
	out := make([]EnrichedRichnessRecord, len(r.Records))
	for i, rec := range r.Records {
		ci := r.Grid.CellIndex(rec.Cell.Row, rec.Cell.Col)
		climate := make(map[string]float64, len(layerNames))
		for _, name := range layerNames {
			if row, ok := table[ci]; ok {
				if v, ok := row[name]; ok {
					climate[name] = v
					continue
				}
			}
			climate[name] = math.NaN()
		}
		out[i] = EnrichedRichnessRecord{
			CellID:      rec.Cell.ID(),
			Cell:        rec.Cell,
			Richness:    rec.Richness,
			Occurrences: rec.Occurrences,
			Climate:     climate,
		}
	}
	return out
}

// LayerNames returns the names of the given layers in sorted order,
// which is the column order both writers use.
func LayerNames(layers []*RasterLayer) []string {
	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}
	sort.Strings(names)
	return names
}

// WriteCSV writes the enriched richness table to w. Missing climate
// summaries become empty fields, never zero. Rows are written in the
// order given, so identical inputs produce byte-identical output.
func WriteCSV(w io.Writer, recs []EnrichedRichnessRecord, layerNames []string) error {
	cw := csv.NewWriter(w)
	header := append([]string{"cell_id", "row", "col", "richness", "occurrences"}, layerNames...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("richness: writing output table: %v", err)
	}
	line := make([]string, len(header))
	for _, rec := range recs {
		line[0] = rec.CellID
		line[1] = strconv.Itoa(rec.Cell.Row)
		line[2] = strconv.Itoa(rec.Cell.Col)
		line[3] = strconv.Itoa(rec.Richness)
		line[4] = strconv.Itoa(rec.Occurrences)
		for i, name := range layerNames {
			v := rec.Climate[name]
			if math.IsNaN(v) {
				line[5+i] = ""
			} else {
				line[5+i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("richness: writing output table: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteShapefile writes the enriched richness table to an ESRI shapefile
// with the tile polygons as geometry, plus a .prj sidecar describing the
// equal-area projection. Attribute names are truncated to the 10
// characters the DBF format allows.
func WriteShapefile(filename string, recs []EnrichedRichnessRecord, layerNames []string, p *LAEA) error {
	fileBase := strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = fileBase + ".shp"

	fields := []goshp.Field{
		goshp.NumberField("row", 10),
		goshp.NumberField("col", 10),
		goshp.NumberField("richness", 10),
		goshp.NumberField("occurs", 10),
	}
	for _, name := range layerNames {
		fields = append(fields, goshp.FloatField(dbfName(name), 14, 8))
	}
	shape, err := shp.NewEncoderFromFields(filename, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("richness: creating output shapefile: %v", err)
	}
	for _, rec := range recs {
		vals := []interface{}{rec.Cell.Row, rec.Cell.Col, rec.Richness, rec.Occurrences}
		for _, name := range layerNames {
			v := rec.Climate[name]
			if math.IsNaN(v) {
				v = shpNoData
			}
			vals = append(vals, v)
		}
		if err := shape.EncodeFields(rec.Cell.Polygonal, vals...); err != nil {
			return fmt.Errorf("richness: writing output shapefile: %v", err)
		}
	}
	shape.Close()

	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("richness: creating output prj file: %v", err)
	}
	fmt.Fprint(f, laeaWKT(p))
	return f.Close()
}

// dbfName shortens an attribute name to the DBF 10-character limit.
func dbfName(name string) string {
	if len(name) <= 10 {
		return name
	}
	return name[:10]
}

// laeaWKT returns a WKT projection definition for the output .prj file.
func laeaWKT(p *LAEA) string {
	return fmt.Sprintf(`PROJCS["Lambert_Azimuthal_Equal_Area",`+
		`GEOGCS["GCS_unnamed ellipse",DATUM["D_unknown",SPHEROID["Unknown",%g,0]],`+
		`PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]],`+
		`PROJECTION["Lambert_Azimuthal_Equal_Area"],`+
		`PARAMETER["latitude_of_origin",%g],PARAMETER["central_meridian",%g],`+
		`PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["Meter",1]]`,
		EarthRadius, p.Lat0, p.Lon0)
}
