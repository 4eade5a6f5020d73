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

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// A ModelFit summarizes a regression of per-tile richness against
// climate covariates. It reports coefficients and goodness of fit only;
// standard errors and inference are outside the scope of this package.
type ModelFit struct {
	// Terms holds the model terms: "(Intercept)" followed by the
	// covariate (raster layer) names, in the order of Coefficients.
	Terms        []string
	Coefficients []float64

	// N is the number of complete cases the model was fit to.
	N int

	// R2 is the coefficient of determination (linear fits only).
	R2 float64

	// Deviance and NullDeviance are reported for Poisson fits.
	Deviance, NullDeviance float64

	// Iterations is the number of IRLS iterations used (Poisson only).
	Iterations int
}

// designMatrix builds the design matrix (with leading intercept column)
// and response vector from the enriched table, keeping complete cases
// only: rows with a missing value in any requested covariate are
// dropped, matching the na.omit behavior of the reference analysis.
func designMatrix(recs []EnrichedRichnessRecord, covariates []string) (*mat.Dense, []float64, error) {
	if len(covariates) == 0 {
		return nil, nil, fmt.Errorf("richness: regression requires at least one covariate")
	}
	var rows []float64
	var y []float64
	for _, rec := range recs {
		complete := true
		for _, c := range covariates {
			v, ok := rec.Climate[c]
			if !ok || math.IsNaN(v) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		rows = append(rows, 1)
		for _, c := range covariates {
			rows = append(rows, rec.Climate[c])
		}
		y = append(y, float64(rec.Richness))
	}
	p := len(covariates) + 1
	n := len(y)
	if n < p {
		return nil, nil, fmt.Errorf("richness: regression needs at least %d complete cases but has %d", p, n)
	}
	return mat.NewDense(n, p, rows), y, nil
}

// solveLeastSquares solves min ‖Xβ − y‖² by QR decomposition.
func solveLeastSquares(x *mat.Dense, y []float64) ([]float64, error) {
	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewVecDense(len(y), y)); err != nil {
		return nil, fmt.Errorf("richness: singular design matrix: %v", err)
	}
	_, p := x.Dims()
	out := make([]float64, p)
	for i := range out {
		out[i] = beta.At(i, 0)
	}
	return out, nil
}

// FitLinear fits richness ~ covariates by ordinary least squares.
func FitLinear(recs []EnrichedRichnessRecord, covariates []string) (*ModelFit, error) {
	x, y, err := designMatrix(recs, covariates)
	if err != nil {
		return nil, err
	}
	beta, err := solveLeastSquares(x, y)
	if err != nil {
		return nil, err
	}

	mean := stat.Mean(y, nil)
	var rss, tss float64
	n, p := x.Dims()
	for i := 0; i < n; i++ {
		fitted := 0.
		for j := 0; j < p; j++ {
			fitted += x.At(i, j) * beta[j]
		}
		rss += (y[i] - fitted) * (y[i] - fitted)
		tss += (y[i] - mean) * (y[i] - mean)
	}
	fit := &ModelFit{
		Terms:        append([]string{"(Intercept)"}, covariates...),
		Coefficients: beta,
		N:            n,
	}
	if tss > 0 {
		fit.R2 = 1 - rss/tss
	}
	return fit, nil
}

// FitPoisson fits a Poisson generalized linear model with log link,
// richness ~ covariates, by iteratively reweighted least squares.
func FitPoisson(recs []EnrichedRichnessRecord, covariates []string) (*ModelFit, error) {
	x, y, err := designMatrix(recs, covariates)
	if err != nil {
		return nil, err
	}
	n, p := x.Dims()

	const (
		maxIter = 50
		tol     = 1e-9
	)
	beta := make([]float64, p)
	beta[0] = math.Log(stat.Mean(y, nil))

	xw := mat.NewDense(n, p, nil)
	zw := make([]float64, n)
	var iter int
	for iter = 1; iter <= maxIter; iter++ {
		// Weighted working response: for the log link the weights are
		// the fitted means and z = η + (y−μ)/μ. Scaling rows by √w
		// turns the weighted problem into an ordinary one.
		for i := 0; i < n; i++ {
			eta := 0.
			for j := 0; j < p; j++ {
				eta += x.At(i, j) * beta[j]
			}
			mu := math.Exp(eta)
			sw := math.Sqrt(mu)
			for j := 0; j < p; j++ {
				xw.Set(i, j, x.At(i, j)*sw)
			}
			zw[i] = sw * (eta + (y[i]-mu)/mu)
		}
		next, err := solveLeastSquares(xw, zw)
		if err != nil {
			return nil, err
		}
		delta := 0.
		for j := range next {
			delta = math.Max(delta, math.Abs(next[j]-beta[j]))
		}
		beta = next
		if delta < tol {
			break
		}
	}
	if iter > maxIter {
		iter = maxIter
	}

	fit := &ModelFit{
		Terms:        append([]string{"(Intercept)"}, covariates...),
		Coefficients: beta,
		N:            n,
		Iterations:   iter,
	}
	meanY := stat.Mean(y, nil)
	for i := 0; i < n; i++ {
		eta := 0.
		for j := 0; j < p; j++ {
			eta += x.At(i, j) * beta[j]
		}
		fit.Deviance += poissonDevianceTerm(y[i], math.Exp(eta))
		fit.NullDeviance += poissonDevianceTerm(y[i], meanY)
	}
	return fit, nil
}

func poissonDevianceTerm(y, mu float64) float64 {
	term := -(y - mu)
	if y > 0 {
		term += y * math.Log(y/mu)
	}
	return 2 * term
}
