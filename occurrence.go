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
	"strconv"
	"strings"
)

// An OccurrenceRecord is a single point observation of a species. It is
// created at load time and never modified afterward.
type OccurrenceRecord struct {
	// Species is the species identifier (e.g. "Crematogaster.scutellaris").
	// It may be empty if the source row had no identification.
	Species string

	// Lon and Lat are the geographic coordinates in degrees.
	Lon, Lat float64

	// Metadata holds any additional columns requested at load time,
	// such as country or elevation. Missing values are empty strings.
	Metadata map[string]string
}

// OccurrenceFormat describes the columns of an occurrence CSV file.
type OccurrenceFormat struct {
	// SpeciesColumn, LonColumn, and LatColumn name the columns holding
	// the species identifier and the geographic coordinates.
	SpeciesColumn, LonColumn, LatColumn string

	// MetadataColumns optionally names additional columns to carry
	// through into each record.
	MetadataColumns []string

	// FilterColumn and FilterValue optionally restrict the result to
	// rows where FilterColumn equals FilterValue (for example
	// restricting a mixed occurrence table to a single genus).
	FilterColumn, FilterValue string
}

// ReadOccurrences reads point-occurrence records from a CSV table with a
// header row. Rows excluded by the format's filter are skipped. Rows with
// coordinates outside the valid geographic range cause a CoordinateError
// identifying the row.
func ReadOccurrences(f io.Reader, format OccurrenceFormat) ([]OccurrenceRecord, error) {
	reader := csv.NewReader(f)
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("richness: reading occurrence table: %v", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("richness: occurrence table is empty")
	}

	cols := make(map[string]int)
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	required := []string{format.SpeciesColumn, format.LonColumn, format.LatColumn}
	if format.FilterColumn != "" {
		required = append(required, format.FilterColumn)
	}
	required = append(required, format.MetadataColumns...)
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("richness: occurrence table is missing column %s", name)
		}
	}

	var out []OccurrenceRecord
	for i := 1; i < len(records); i++ {
		record := records[i]
		if format.FilterColumn != "" &&
			strings.TrimSpace(record[cols[format.FilterColumn]]) != format.FilterValue {
			continue
		}
		lon, err := parseCoord(record[cols[format.LonColumn]])
		if err != nil {
			return nil, fmt.Errorf("richness: occurrence table row %d: longitude: %v", i, err)
		}
		lat, err := parseCoord(record[cols[format.LatColumn]])
		if err != nil {
			return nil, fmt.Errorf("richness: occurrence table row %d: latitude: %v", i, err)
		}
		if !validLonLat(lon, lat) {
			return nil, &CoordinateError{Lon: lon, Lat: lat, Record: i}
		}
		o := OccurrenceRecord{
			Species: strings.TrimSpace(record[cols[format.SpeciesColumn]]),
			Lon:     lon,
			Lat:     lat,
		}
		if len(format.MetadataColumns) > 0 {
			o.Metadata = make(map[string]string, len(format.MetadataColumns))
			for _, name := range format.MetadataColumns {
				o.Metadata[name] = strings.TrimSpace(record[cols[name]])
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
