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

package richnessutil

import (
	"fmt"
	"os"
	"path/filepath"

	richness "github.com/lessardlab/Mapping-Ant-Species-Richness"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// GetStringSlice returns a string-slice configuration value with its
// environment variables expanded. Values set from a configuration file
// arrive as []interface{} rather than []string, so they are converted
// here.
func GetStringSlice(varName string, cfg *viper.Viper) []string {
	return expandStringSlice(cast.ToStringSlice(cfg.Get(varName)))
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// gridShape converts a configuration string to a tile shape.
func gridShape(s string) (richness.GridShape, error) {
	switch s {
	case "square":
		return richness.SquareGrid, nil
	case "hexagon", "hex":
		return richness.HexGrid, nil
	default:
		return 0, fmt.Errorf("antgrid: Grid.Shape must be 'square' or 'hexagon' but is '%s'", s)
	}
}

// checkOutputFile makes sure the output file's directory exists and
// expands any environment variables. Empty paths pass through, meaning
// the output is skipped.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", nil
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("antgrid: the output directory doesn't exist: %v", err)
	}
	return f, nil
}

// OccurrenceFormat extracts the occurrence-table column configuration.
func OccurrenceFormat(cfg *viper.Viper) richness.OccurrenceFormat {
	return richness.OccurrenceFormat{
		SpeciesColumn:   os.ExpandEnv(cfg.GetString("Occurrences.SpeciesColumn")),
		LonColumn:       os.ExpandEnv(cfg.GetString("Occurrences.LonColumn")),
		LatColumn:       os.ExpandEnv(cfg.GetString("Occurrences.LatColumn")),
		MetadataColumns: GetStringSlice("Occurrences.MetadataColumns", cfg),
		FilterColumn:    os.ExpandEnv(cfg.GetString("Occurrences.FilterColumn")),
		FilterValue:     os.ExpandEnv(cfg.GetString("Occurrences.FilterValue")),
	}
}

// PipelineFromConfig builds a richness pipeline from the configuration.
func PipelineFromConfig(cfg *viper.Viper) (*richness.Pipeline, error) {
	occFile := os.ExpandEnv(cfg.GetString("Occurrences.File"))
	if occFile == "" {
		return nil, fmt.Errorf("antgrid: you need to specify an occurrence table " +
			"(for example: Occurrences.File=\"ants.csv\")")
	}
	shape, err := gridShape(os.ExpandEnv(cfg.GetString("Grid.Shape")))
	if err != nil {
		return nil, err
	}
	outShp, err := checkOutputFile(cfg.GetString("OutputShapefile"))
	if err != nil {
		return nil, err
	}
	outCSV, err := checkOutputFile(cfg.GetString("OutputCSV"))
	if err != nil {
		return nil, err
	}
	return &richness.Pipeline{
		OccurrenceFile:  occFile,
		Format:          OccurrenceFormat(cfg),
		BoundaryFile:    os.ExpandEnv(cfg.GetString("BoundaryFile")),
		ClimateFiles:    GetStringSlice("Climate.Files", cfg),
		ClimateVars:     GetStringSlice("Climate.Variables", cfg),
		Lat0:            cfg.GetFloat64("Projection.Lat0"),
		Lon0:            cfg.GetFloat64("Projection.Lon0"),
		GridName:        os.ExpandEnv(cfg.GetString("Grid.Name")),
		Shape:           shape,
		Dx:              cfg.GetFloat64("Grid.Dx"),
		Dy:              cfg.GetFloat64("Grid.Dy"),
		DiskCachePath:   os.ExpandEnv(cfg.GetString("Cache.DiskPath")),
		MemCacheSize:    cfg.GetInt("Cache.MemEntries"),
		OutputShapefile: outShp,
		OutputCSV:       outCSV,
	}, nil
}
