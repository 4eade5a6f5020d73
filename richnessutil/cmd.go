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

	richness "github.com/lessardlab/Mapping-Ant-Species-Richness"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to AntGrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Occurrences.File",
			usage: `
              Occurrences.File is the CSV table of point observations`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Occurrences.SpeciesColumn",
			usage: `
              Occurrences.SpeciesColumn names the column holding the species
              identifier.`,
			defaultVal: "valid_species_name",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Occurrences.LonColumn",
			usage: `
              Occurrences.LonColumn names the column holding the longitude
              in decimal degrees.`,
			defaultVal: "dec_long",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Occurrences.LatColumn",
			usage: `
              Occurrences.LatColumn names the column holding the latitude
              in decimal degrees.`,
			defaultVal: "dec_lat",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Occurrences.MetadataColumns",
			usage: `
              Occurrences.MetadataColumns lists additional columns to carry
              along with each record.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Occurrences.FilterColumn",
			usage: `
              Occurrences.FilterColumn optionally names a column used to
              filter records; only rows whose value equals
              Occurrences.FilterValue are kept.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Occurrences.FilterValue",
			usage: `
              Occurrences.FilterValue is the value the filter column must
              equal for a row to be kept.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "BoundaryFile",
			usage: `
              BoundaryFile is a polygon shapefile defining the study region.
              Tiles not intersecting it are excluded. If empty, the region
              is the extent of the projected occurrences.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), gridCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Climate.Files",
			usage: `
              Climate.Files lists COARDS-compliant NetCDF raster files whose
              variables are summarized over the tessellation tiles.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Climate.Variables",
			usage: `
              Climate.Variables restricts which variables are read from
              Climate.Files. If empty, all gridded variables are read.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Projection.Lat0",
			usage: `
              Projection.Lat0 is the latitude of the equal-area projection
              center [degrees].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), gridCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Projection.Lon0",
			usage: `
              Projection.Lon0 is the longitude of the equal-area projection
              center [degrees].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), gridCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Grid.Name",
			usage: `
              Grid.Name is the name of the tessellation, used when writing
              grid shapefiles.`,
			defaultVal: "antgrid",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), gridCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Grid.Shape",
			usage: `
              Grid.Shape is the tile shape, either "square" or "hexagon".`,
			defaultVal: "hexagon",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), gridCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Grid.Dx",
			usage: `
              Grid.Dx is the tile width in projected meters. For hexagons
              it is the flat-to-flat width.`,
			defaultVal: 500000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), gridCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Grid.Dy",
			usage: `
              Grid.Dy is the tile height in projected meters. It is ignored
              for hexagons, whose row spacing follows from Grid.Dx.`,
			defaultVal: 500000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), gridCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Cache.DiskPath",
			usage: `
              Cache.DiskPath is a directory or SQLite file (extension
              .sqlite3) for caching zonal statistics between runs. If
              empty, results are cached in memory only.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "Cache.MemEntries",
			usage: `
              Cache.MemEntries is the number of zonal results to hold in
              the in-memory cache.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "OutputShapefile",
			usage: `
              OutputShapefile is the path of the enriched richness
              shapefile to create. If empty, no shapefile is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "OutputCSV",
			usage: `
              OutputCSV is the path of the enriched richness table to
              create. If empty, no table is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), fitCmd.Flags()},
		},
		{
			name: "GridOutputDir",
			usage: `
              GridOutputDir is the directory where the grid command writes
              the tessellation shapefile.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Fit.Family",
			usage: `
              Fit.Family is the regression family for the fit command,
              either "linear" or "poisson".`,
			defaultVal: "poisson",
			flagsets:   []*pflag.FlagSet{fitCmd.Flags()},
		},
		{
			name: "Fit.Covariates",
			usage: `
              Fit.Covariates lists the climate layer names used as
              regression covariates by the fit command.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{fitCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ANTGRID")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(fitCmd)
}

// outChan returns a channel that logs progress messages.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for msg := range outChan {
			logrus.Info(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("antgrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "antgrid",
	Short: "Grid species occurrences into richness maps.",
	Long: `AntGrid aggregates georeferenced species observations onto an
equal-area tessellation and summarizes species richness and climate
covariates per tile. Use the subcommands specified below to access the
functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'ANTGRID_var' where 'var' is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of AntGrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("AntGrid v%s\n", richness.Version)
	},
	DisableAutoGenTag: true,
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Create an equal-area tessellation",
	Long: `grid creates the tessellation covering the boundary region
specified by the configuration and saves it as a polygon shapefile for
inspection in GIS software.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Grid(Cfg)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the richness pipeline.",
	Long: `run loads the occurrence table, projects the observations, grids
them, aggregates species richness and climate summaries per tile, and
writes the configured outputs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := PipelineFromConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd.Context(), p)
	},
	DisableAutoGenTag: true,
}

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit a richness-climate regression.",
	Long: `fit runs the richness pipeline and then fits a regression of
tile richness on the configured climate covariates, printing the fitted
coefficients. Zonal statistics are cached, so repeated fits over the same
grid and rasters reuse the cached extraction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := PipelineFromConfig(Cfg)
		if err != nil {
			return err
		}
		if err := Run(cmd.Context(), p); err != nil {
			return err
		}
		return Fit(cmd, p,
			Cfg.GetString("Fit.Family"),
			GetStringSlice("Fit.Covariates", Cfg))
	},
	DisableAutoGenTag: true,
}
