// Package conflict implements the conflict detector (C5, spec §4.5): a
// coarse spatial grid for candidate gathering, temporal and plume overlap
// scoring, and severity classification for pairs of scheduled burns.
package conflict

import (
	"math"

	"github.com/burnwise/coordinator/pkg/models"
)

// grid buckets burn centroids into cellSizeKm x cellSizeKm cells so
// candidate gathering for a burn only visits its own cell and the eight
// neighbors, rather than every other burn in the batch.
type grid struct {
	cellSizeKm float64
	cells      map[cellKey][]int // cell -> indices into the caller's burn slice
}

type cellKey struct{ x, y int }

func newGrid(cellSizeKm float64) *grid {
	if cellSizeKm <= 0 {
		cellSizeKm = 1
	}
	return &grid{cellSizeKm: cellSizeKm, cells: make(map[cellKey][]int)}
}

func (g *grid) insert(idx int, centroid models.LatLon) {
	k := g.keyFor(centroid)
	g.cells[k] = append(g.cells[k], idx)
}

func (g *grid) keyFor(p models.LatLon) cellKey {
	// Equirectangular projection to km, consistent with Polygon's own area
	// approximation (pkg/models/burn.go).
	const kmPerDegLat = 111.32
	x := p.Lon * kmPerDegLat * math.Cos(p.Lat*math.Pi/180.0)
	y := p.Lat * kmPerDegLat
	return cellKey{x: int(x / g.cellSizeKm), y: int(y / g.cellSizeKm)}
}

// candidates returns the indices stored in the 3x3 block of cells centered
// on centroid's cell.
func (g *grid) candidates(centroid models.LatLon) []int {
	center := g.keyFor(centroid)
	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			out = append(out, g.cells[cellKey{x: center.x + dx, y: center.y + dy}]...)
		}
	}
	return out
}
