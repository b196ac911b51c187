package coord

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/territory-cli/internal/config"
)

func testCfg() config.CoordConfig {
	return config.CoordConfig{
		MinLat: 30, MaxLat: 45,
		MinLon: 120, MaxLon: 140,
		ProjectedCutoff: 200,
	}
}

func f(v float64) *float64 { return &v }

func TestResolveDirectBranch(t *testing.T) {
	r := NewResolver(testCfg())

	lat, lon := r.Resolve(f(127.05), f(37.50))
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.InDelta(t, 37.50, *lat, 1e-9)
	assert.InDelta(t, 127.05, *lon, 1e-9)
}

func TestResolveNilInput(t *testing.T) {
	r := NewResolver(testCfg())

	lat, lon := r.Resolve(nil, f(37.5))
	assert.Nil(t, lat)
	assert.Nil(t, lon)

	lat, lon = r.Resolve(f(127.0), nil)
	assert.Nil(t, lat)
	assert.Nil(t, lon)
}

func TestResolveProjectedBranch(t *testing.T) {
	r := NewResolver(testCfg())

	// The projection's false origin maps back to (lat0, lon0); the datum
	// shift moves it by a few hundred meters at most.
	lat, lon := r.Resolve(f(200000), f(500000))
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.InDelta(t, 38.0, *lat, 0.01)
	assert.InDelta(t, 127.0029, *lon, 0.01)

	// A projected-magnitude pair from the central belt stays in bounds.
	lat, lon = r.Resolve(f(198765.4), f(451234.1))
	require.NotNil(t, lat)
	require.NotNil(t, lon)
	assert.GreaterOrEqual(t, *lat, 30.0)
	assert.LessOrEqual(t, *lat, 45.0)
	assert.GreaterOrEqual(t, *lon, 120.0)
	assert.LessOrEqual(t, *lon, 140.0)
}

func TestResolveOutOfRangeDiscarded(t *testing.T) {
	r := NewResolver(testCfg())

	// Far outside any plausible projected or geographic range for Korea:
	// never a wrapped/garbage value, always nil.
	lat, lon := r.Resolve(f(99999999), f(-99999999))
	assert.Nil(t, lat)
	assert.Nil(t, lon)
}

func TestResolveNoTransformDegrades(t *testing.T) {
	r := NewResolverWithTransform(testCfg(), nil)

	lat, lon := r.Resolve(f(198765.4), f(451234.1))
	assert.Nil(t, lat)
	assert.Nil(t, lon)

	// The direct branch still works without a transform.
	lat, lon = r.Resolve(f(127.05), f(37.50))
	require.NotNil(t, lat)
	assert.InDelta(t, 37.50, *lat, 1e-9)
	_ = lon
}

func TestResolveBatchGeographic(t *testing.T) {
	r := NewResolver(testCfg())

	xs := []*float64{f(127.05), nil, f(126.98)}
	ys := []*float64{f(37.50), f(37.0), f(37.57)}

	lats, lons := r.ResolveBatch(xs, ys)
	require.Len(t, lats, 3)

	require.NotNil(t, lats[0])
	assert.InDelta(t, 37.50, *lats[0], 1e-9)
	assert.InDelta(t, 127.05, *lons[0], 1e-9)

	assert.Nil(t, lats[1])
	assert.Nil(t, lons[1])

	require.NotNil(t, lats[2])
	assert.InDelta(t, 37.57, *lats[2], 1e-9)
}

func TestResolveBatchProjectedDecidedOnce(t *testing.T) {
	r := NewResolver(testCfg())

	// Median x is projected-magnitude, so the whole column goes through the
	// transform, even the row that happens to look geographic.
	xs := []*float64{f(198765.4), f(203000.0), f(127.05)}
	ys := []*float64{f(451234.1), f(447000.0), f(37.50)}

	lats, _ := r.ResolveBatch(xs, ys)
	require.NotNil(t, lats[0])
	assert.GreaterOrEqual(t, *lats[0], 30.0)
	assert.LessOrEqual(t, *lats[0], 45.0)

	// (127.05, 37.50) was inverted as a projected pair, not passed through
	// as geographic, so its latitude is far from 37.50.
	if lats[2] != nil {
		assert.Greater(t, math.Abs(*lats[2]-37.50), 0.5)
	}
}

func TestResolveBatchEmpty(t *testing.T) {
	r := NewResolver(testCfg())
	lats, lons := r.ResolveBatch([]*float64{nil, nil}, []*float64{nil, nil})
	assert.Equal(t, []*float64{nil, nil}, lats)
	assert.Equal(t, []*float64{nil, nil}, lons)
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 2.0, median([]float64{3, 1, 2}), 1e-9)
	assert.InDelta(t, 2.5, median([]float64{1, 2, 3, 4}), 1e-9)
}

func TestPoint(t *testing.T) {
	p := Point(127.05, 37.50)
	assert.Equal(t, 4326, p.SRID())
	assert.InDelta(t, 127.05, p.X(), 1e-9)
	assert.InDelta(t, 37.50, p.Y(), 1e-9)
}
