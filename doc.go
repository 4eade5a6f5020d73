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

// Package richness turns tables of georeferenced species observations
// into gridded species-richness maps enriched with environmental
// covariates.
//
// Observations are projected from geographic coordinates onto a
// Lambert azimuthal equal-area plane so that every tessellation tile
// covers the same area, assigned to square or hexagonal tiles, and
// aggregated into distinct-species counts per tile. Gridded climate
// rasters can be summarized over the same tiles, and the joined table
// written as CSV or as an ESRI shapefile.
//
// The Pipeline type runs the whole workflow; the individual stages
// (ReadOccurrences, NewLAEA, NewGrid, Grid.Assign, SpeciesRichness,
// ZonalMeans, Enrich) are exported for callers who need finer control.
package richness
