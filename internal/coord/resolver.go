// Package coord resolves raw registry coordinate pairs to validated WGS84.
package coord

import (
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/fieldops/territory-cli/internal/config"
)

// Resolver converts raw (x, y) pairs of unknown reference system into WGS84
// latitude/longitude, or nil when a pair cannot be placed inside the
// configured bounding box.
type Resolver struct {
	cfg    config.CoordConfig
	bounds *geom.Bounds
	tr     Transform
}

// NewResolver builds a Resolver with the EPSG:5174 transform for the
// projected branch.
func NewResolver(cfg config.CoordConfig) *Resolver {
	return NewResolverWithTransform(cfg, NewKorean1985TM())
}

// NewResolverWithTransform builds a Resolver with an explicit projected
// transform. A nil transform disables the projected branch: such pairs
// resolve to nil rather than failing the batch.
func NewResolverWithTransform(cfg config.CoordConfig, tr Transform) *Resolver {
	bounds := geom.NewBounds(geom.XY)
	bounds.Set(cfg.MinLon, cfg.MinLat, cfg.MaxLon, cfg.MaxLat)
	return &Resolver{cfg: cfg, bounds: bounds, tr: tr}
}

func (r *Resolver) inBounds(lon, lat float64) bool {
	return r.bounds.OverlapsPoint(geom.XY, geom.Coord{lon, lat})
}

// geographic reports whether the pair already looks like (lon, lat) inside
// the bounding box.
func (r *Resolver) geographic(x, y float64) bool {
	return r.inBounds(x, y)
}

// Resolve converts a single raw pair. Nil input yields nil output. The pair
// is treated as already geographic when it falls inside the bounding box;
// otherwise it goes through the projected transform, and the result is
// discarded unless it lands back inside the box.
func (r *Resolver) Resolve(x, y *float64) (lat, lon *float64) {
	if x == nil || y == nil {
		return nil, nil
	}
	if r.geographic(*x, *y) {
		latV, lonV := *y, *x
		return &latV, &lonV
	}
	return r.project(*x, *y)
}

func (r *Resolver) project(x, y float64) (lat, lon *float64) {
	if r.tr == nil {
		return nil, nil
	}
	lonV, latV, ok := r.tr.ToWGS84(x, y)
	if !ok || !r.inBounds(lonV, latV) {
		return nil, nil
	}
	return &latV, &lonV
}

// ResolveBatch converts a whole coordinate column at once. The
// geographic-vs-projected decision is made once for the batch, from the
// median magnitude of the x column, so one column never mixes heuristics.
// Output slices are index-aligned with the input; unresolvable rows are nil.
func (r *Resolver) ResolveBatch(xs, ys []*float64) (lats, lons []*float64) {
	lats = make([]*float64, len(xs))
	lons = make([]*float64, len(xs))

	var sample []float64
	for i, x := range xs {
		if x != nil && ys[i] != nil {
			sample = append(sample, *x)
		}
	}
	if len(sample) == 0 {
		return lats, lons
	}

	projected := median(sample) > r.cfg.ProjectedCutoff

	for i, x := range xs {
		y := ys[i]
		if x == nil || y == nil {
			continue
		}
		if projected {
			lats[i], lons[i] = r.project(*x, *y)
			continue
		}
		if r.inBounds(*x, *y) {
			latV, lonV := *y, *x
			lats[i], lons[i] = &latV, &lonV
		}
	}
	return lats, lons
}

// Point builds a WGS84 point geometry for a resolved pair.
func Point(lon, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
}

func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
