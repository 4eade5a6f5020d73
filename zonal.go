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
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache/v2"

	"github.com/lessardlab/Mapping-Ant-Species-Richness/internal/hash"

	// Register sqlite drivers for the on-disk cache.
	_ "github.com/mattn/go-sqlite3"
)

// A ZonalTable maps one-dimensional tile indices to per-layer summary
// statistics. A NaN value means the tile has no non-missing raster
// coverage for that layer; it is deliberately distinct from zero.
type ZonalTable map[int]map[string]float64

// ZonalMeans computes, for each tile of interest, the arithmetic mean of
// each raster layer over the raster cells whose centers fall inside the
// tile. Missing (NaN) raster cells are excluded from both the sum and
// the count; a tile whose covered cells are all missing (or that has no
// raster coverage at all) gets NaN for that layer.
//
// If cells is non-nil, the result contains exactly those tiles;
// otherwise it contains every tile covered by at least one raster cell
// center. Layers sharing one lat/lon lattice share a single overlap
// pass, since the tile each raster cell belongs to does not depend on
// the layer values.
func ZonalMeans(g *Grid, p *LAEA, layers []*RasterLayer, cells map[int]bool) (ZonalTable, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("richness: zonal statistics require at least one raster layer")
	}
	sums := make(map[int]map[string]float64)
	counts := make(map[int]map[string]int)
	for _, group := range groupByGeometry(layers) {
		gSums, gCounts := zonalPass(g, p, group, cells)
		for ci, layerSums := range gSums {
			if sums[ci] == nil {
				sums[ci] = make(map[string]float64)
				counts[ci] = make(map[string]int)
			}
			for name, s := range layerSums {
				sums[ci][name] += s
				counts[ci][name] += gCounts[ci][name]
			}
		}
	}

	table := make(ZonalTable)
	emit := func(ci int) {
		row := make(map[string]float64, len(layers))
		for _, l := range layers {
			if n := counts[ci][l.Name]; n > 0 {
				row[l.Name] = sums[ci][l.Name] / float64(n)
			} else {
				row[l.Name] = math.NaN()
			}
		}
		table[ci] = row
	}
	if cells != nil {
		for ci := range cells {
			emit(ci)
		}
	} else {
		for ci := range sums {
			emit(ci)
		}
	}
	return table, nil
}

// groupByGeometry partitions layers into groups sharing one cell lattice.
func groupByGeometry(layers []*RasterLayer) [][]*RasterLayer {
	var groups [][]*RasterLayer
	for _, l := range layers {
		placed := false
		for i, group := range groups {
			if group[0].sameGeometry(l) {
				groups[i] = append(group, l)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []*RasterLayer{l})
		}
	}
	return groups
}

// zonalPass performs one pass over the shared raster lattice of group,
// accumulating per-tile sums and non-missing counts for every layer.
// Latitude rows are independent, so they are processed by GOMAXPROCS
// workers, each accumulating partial results that are merged afterward.
func zonalPass(g *Grid, p *LAEA, group []*RasterLayer, cells map[int]bool) (map[int]map[string]float64, map[int]map[string]int) {
	lats, lons := group[0].Lats, group[0].Lons
	forward := p.Forward()

	type partial struct {
		sums   map[int]map[string]float64
		counts map[int]map[string]int
	}
	nprocs := runtime.GOMAXPROCS(-1)
	partialChan := make(chan partial, nprocs)
	var wg sync.WaitGroup
	for proc := 0; proc < nprocs; proc++ {
		wg.Add(1)
		go func(proc int) {
			defer wg.Done()
			pt := partial{
				sums:   make(map[int]map[string]float64),
				counts: make(map[int]map[string]int),
			}
			for j := proc; j < len(lats); j += nprocs {
				for i, lon := range lons {
					// Some raster sources use [0, 360) longitudes.
					if lon > 180 {
						lon -= 360
					}
					x, y, err := forward(lon, lats[j])
					if err != nil {
						// The cell antipodal to the projection center
						// has no planar image; it cannot intersect
						// the grid.
						continue
					}
					row, col, ok := g.AssignPoint(geom.Point{X: x, Y: y})
					if !ok {
						continue
					}
					ci := g.CellIndex(row, col)
					if cells != nil && !cells[ci] {
						continue
					}
					for _, l := range group {
						v := l.Value(j, i)
						if math.IsNaN(v) {
							continue
						}
						if pt.sums[ci] == nil {
							pt.sums[ci] = make(map[string]float64)
							pt.counts[ci] = make(map[string]int)
						}
						pt.sums[ci][l.Name] += v
						pt.counts[ci][l.Name]++
					}
					if pt.sums[ci] == nil {
						// Record coverage even when every value so far
						// is missing, so the tile is emitted with NaN
						// rather than dropped.
						pt.sums[ci] = make(map[string]float64)
						pt.counts[ci] = make(map[string]int)
					}
				}
			}
			partialChan <- pt
		}(proc)
	}
	go func() {
		wg.Wait()
		close(partialChan)
	}()

	sums := make(map[int]map[string]float64)
	counts := make(map[int]map[string]int)
	for pt := range partialChan {
		for ci, layerSums := range pt.sums {
			if sums[ci] == nil {
				sums[ci] = make(map[string]float64)
				counts[ci] = make(map[string]int)
			}
			for name, s := range layerSums {
				sums[ci][name] += s
				counts[ci][name] += pt.counts[ci][name]
			}
		}
	}
	return sums, counts
}

// A ZonalExtractor computes zonal statistics with caching, so that
// repeated runs over the same grid and climate layers do not recompute
// the raster overlap.
type ZonalExtractor struct {
	// DiskCachePath specifies a directory to cache results in (or a
	// file ending in .sqlite3 for a database cache). If it is empty,
	// results are only cached in memory.
	DiskCachePath string

	// MemCacheSize specifies the number of results to hold in the
	// memory cache. The default is 100.
	MemCacheSize int

	cache    *requestcache.Cache
	lazyLoad sync.Once
}

func (z *ZonalExtractor) load() error {
	if z.MemCacheSize == 0 {
		z.MemCacheSize = 100
	}
	var err error
	z.cache, err = newCache(z.DiskCachePath, z.MemCacheSize, marshalZonalTable, unmarshalZonalTable)
	return err
}

// ZonalMeans is the cached equivalent of the package-level ZonalMeans.
func (z *ZonalExtractor) ZonalMeans(ctx context.Context, g *Grid, p *LAEA, layers []*RasterLayer, cells map[int]bool) (ZonalTable, error) {
	var err error
	z.lazyLoad.Do(func() {
		err = z.load()
	})
	if err != nil {
		return nil, err
	}
	req := z.cache.NewRequest(ctx, &zonalRequest{grid: g, proj: p, layers: layers, cells: cells})
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(ZonalTable), nil
}

type zonalRequest struct {
	grid   *Grid
	proj   *LAEA
	layers []*RasterLayer
	cells  map[int]bool
}

// Key returns a unique key for this extraction request.
func (r *zonalRequest) Key() string {
	names := make([]string, len(r.layers))
	for i, l := range r.layers {
		names[i] = l.Name
	}
	cells := make([]int, 0, len(r.cells))
	for ci := range r.cells {
		cells = append(cells, ci)
	}
	sort.Ints(cells)
	return "zonal_" + hash.Hash(struct {
		Name           string
		Shape          int
		Nx, Ny         int
		Dx, Dy, X0, Y0 float64
		Lat0, Lon0     float64
		Layers         []string
		Cells          []int
	}{
		Name: r.grid.Name, Shape: int(r.grid.Shape),
		Nx: r.grid.Nx, Ny: r.grid.Ny,
		Dx: r.grid.Dx, Dy: r.grid.Dy, X0: r.grid.X0, Y0: r.grid.Y0,
		Lat0: r.proj.Lat0, Lon0: r.proj.Lon0,
		Layers: names, Cells: cells,
	})
}

// Run computes the requested zonal statistics.
func (r *zonalRequest) Run(ctx context.Context) (interface{}, error) {
	return ZonalMeans(r.grid, r.proj, r.layers, r.cells)
}

func marshalZonalTable(data interface{}) ([]byte, error) {
	w := bytes.NewBuffer(nil)
	e := gob.NewEncoder(w)
	d := *data.(*interface{})
	if err := e.Encode(d.(ZonalTable)); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func unmarshalZonalTable(b []byte) (interface{}, error) {
	d := gob.NewDecoder(bytes.NewBuffer(b))
	table := make(ZonalTable)
	if err := d.Decode(&table); err != nil {
		return nil, err
	}
	return table, nil
}

// newCache creates a result cache with a memory backend and, depending
// on diskCachePath, a directory or sqlite3 backend behind it.
func newCache(diskCachePath string, memCacheSize int, marshalFunc func(interface{}) ([]byte, error), unmarshalFunc func([]byte) (interface{}, error)) (*requestcache.Cache, error) {
	nprocs := runtime.GOMAXPROCS(-1)
	dedup := requestcache.Deduplicate()
	mc := requestcache.Memory(memCacheSize)
	if diskCachePath == "" {
		return requestcache.NewCache(nprocs, dedup, mc), nil
	}
	if filepath.Ext(diskCachePath) == ".sqlite3" {
		db, err := sql.Open("sqlite3", diskCachePath)
		if err != nil {
			return nil, err
		}
		cf, err := requestcache.SQL(context.Background(), db, marshalFunc, unmarshalFunc)
		if err != nil {
			return nil, err
		}
		return requestcache.NewCache(nprocs, dedup, mc, cf), nil
	}
	if err := os.MkdirAll(diskCachePath, os.ModePerm); err != nil {
		return nil, err
	}
	return requestcache.NewCache(nprocs, dedup, mc,
		requestcache.Disk(diskCachePath, marshalFunc, unmarshalFunc)), nil
}
