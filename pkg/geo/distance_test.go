package geo

import (
	stderrors "errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GeoAttend/pkg/errors"
)

const epsilon = 1e-4

// 随机点限定在印尼附近，避开对跖点的数值病态区
func randomPoints(n int) []Point {
	r := rand.New(rand.NewSource(42))
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{
			Latitude:  -11 + r.Float64()*17,
			Longitude: 95 + r.Float64()*46,
		}
	}
	return points
}

func TestDistanceToSelfIsZero(t *testing.T) {
	for _, p := range append(randomPoints(50), Point{90, 180}, Point{-90, -180}, Point{0, 0}) {
		assert.Equal(t, 0.0, Distance(p, p), "%+v", p)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	points := randomPoints(40)
	for i := range points {
		for j := range points {
			ab := Distance(points[i], points[j])
			ba := Distance(points[j], points[i])
			assert.Less(t, math.Abs(ab-ba), epsilon)
		}
	}
}

func TestTriangleInequality(t *testing.T) {
	points := randomPoints(20)
	for _, a := range points {
		for _, b := range points {
			for _, c := range points {
				assert.GreaterOrEqual(t, Distance(a, b)+Distance(b, c)+epsilon, Distance(a, c))
			}
		}
	}
}

func TestWithinRadiusMatchesDistance(t *testing.T) {
	points := randomPoints(30)
	radii := []float64{0, 1, 100, 1000, 50000, 1e6}
	for i := 1; i < len(points); i++ {
		for _, r := range radii {
			a, b := points[i-1], points[i]
			assert.Equal(t, Distance(a, b) <= r, WithinRadius(a, b, r))
		}
	}
}

func TestDistanceKnownValues(t *testing.T) {
	center := Point{Latitude: -6.2000000, Longitude: 106.8166660}

	tests := []struct {
		name string
		to   Point
		want float64
		tol  float64
	}{
		{"same point", center, 0, 0},
		{"0.01 deg diagonal", Point{-6.2100000, 106.8266660}, 1567.93, 0.05},
		{"0.001 deg east", Point{-6.2000000, 106.8176660}, 110.54, 0.05},
		{"0.0009 deg south", Point{-6.2009000, 106.8166660}, 100.08, 0.05},
		{"quarter meridian", Point{Latitude: 90, Longitude: 106.816666}, 6371000 * (math.Pi/2 + radians(6.2)), 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(center, tt.to), tt.tol)
		})
	}
}

func TestDistanceAntipodalIsFinite(t *testing.T) {
	d := Distance(Point{0, 0}, Point{0, 180})
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1e-3)
}

func TestValidate(t *testing.T) {
	valid := []Point{{0, 0}, {90, 180}, {-90, -180}, {-6.2, 106.816666}}
	for _, p := range valid {
		assert.NoError(t, p.Validate())
	}

	invalid := []Point{
		{90.0001, 0},
		{-91, 0},
		{0, 180.5},
		{0, -181},
		{math.NaN(), 0},
		{0, math.Inf(1)},
	}
	for _, p := range invalid {
		err := p.Validate()
		require.Error(t, err, "%+v", p)
		assert.True(t, stderrors.Is(err, errors.InvalidInput))
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1567.93, Round2(1567.9341819811752))
	assert.Equal(t, 0.0, Round2(0.004))
	assert.Equal(t, 100.01, Round2(100.005000001))
}
