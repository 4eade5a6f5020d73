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
	"context"
	"fmt"
	"os"

	richness "github.com/lessardlab/Mapping-Ant-Species-Richness"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Run executes the richness pipeline and logs its diagnostics.
func Run(ctx context.Context, p *richness.Pipeline) error {
	p.MsgChan = outChan()
	defer close(p.MsgChan)
	if err := p.Run(ctx); err != nil {
		return err
	}
	d := p.Diagnostics
	logrus.WithFields(logrus.Fields{
		"occurrences": d.Occurrences,
		"tiles":       d.BoundaryTiles,
		"occupied":    d.OccupiedTiles,
		"unassigned":  d.UnassignedPoints,
	}).Info("pipeline finished")
	for layer, n := range d.EmptyOverlapTiles {
		logrus.WithFields(logrus.Fields{
			"layer": layer,
			"tiles": n,
		}).Warn("tiles without raster coverage")
	}
	return nil
}

// Grid creates the tessellation covering the boundary region specified
// in the configuration and saves it as a polygon shapefile.
func Grid(cfg *viper.Viper) error {
	boundaryFile := os.ExpandEnv(cfg.GetString("BoundaryFile"))
	if boundaryFile == "" {
		return fmt.Errorf("antgrid: the grid command requires a BoundaryFile to define the region to tessellate")
	}
	shape, err := gridShape(os.ExpandEnv(cfg.GetString("Grid.Shape")))
	if err != nil {
		return err
	}
	proj, err := richness.NewLAEA(cfg.GetFloat64("Projection.Lat0"), cfg.GetFloat64("Projection.Lon0"))
	if err != nil {
		return err
	}
	_, bounds, err := richness.ReadBoundary(boundaryFile, proj)
	if err != nil {
		return err
	}
	grid, err := richness.NewGrid(os.ExpandEnv(cfg.GetString("Grid.Name")), shape,
		bounds, cfg.GetFloat64("Grid.Dx"), cfg.GetFloat64("Grid.Dy"))
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"name":  grid.Name,
		"shape": grid.Shape.String(),
		"tiles": grid.Len(),
	}).Info("writing tessellation")
	return grid.WriteToShp(os.ExpandEnv(cfg.GetString("GridOutputDir")))
}

// Fit regresses tile richness on climate covariates using the results
// of a pipeline run and prints the fitted model. If no covariates are
// configured, all climate layers are used.
func Fit(cmd *cobra.Command, p *richness.Pipeline, family string, covariates []string) error {
	if len(covariates) == 0 {
		covariates = p.LayerNames
	}
	if len(covariates) == 0 {
		return fmt.Errorf("antgrid: fitting requires climate covariates; configure Climate.Files")
	}
	var fit *richness.ModelFit
	var err error
	switch family {
	case "linear":
		fit, err = richness.FitLinear(p.Records, covariates)
	case "poisson":
		fit, err = richness.FitPoisson(p.Records, covariates)
	default:
		return fmt.Errorf("antgrid: Fit.Family must be 'linear' or 'poisson' but is '%s'", family)
	}
	if err != nil {
		return err
	}
	cmd.Printf("family: %s, n = %d\n", family, fit.N)
	for i, term := range fit.Terms {
		cmd.Printf("%-12s % .6g\n", term, fit.Coefficients[i])
	}
	if family == "linear" {
		cmd.Printf("R2: %.4f\n", fit.R2)
	} else {
		cmd.Printf("deviance: %.4f (null %.4f) after %d iterations\n",
			fit.Deviance, fit.NullDeviance, fit.Iterations)
	}
	return nil
}
