package kmeans

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestFit_TwoBlobs(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0, 1}, {1, 0}, // near 0,0
		{10, 10}, {10, 11}, {11, 10}, // near 10,10
	}

	res, err := Fit(points, 2, 100, 5, testRand())
	require.NoError(t, err)
	require.Len(t, res.Labels, len(points))
	assert.Len(t, res.Centroids, 2)

	assert.Equal(t, res.Labels[0], res.Labels[1])
	assert.Equal(t, res.Labels[0], res.Labels[2])
	assert.Equal(t, res.Labels[3], res.Labels[4])
	assert.Equal(t, res.Labels[3], res.Labels[5])
	assert.NotEqual(t, res.Labels[0], res.Labels[3])

	assert.Equal(t, res.Labels[0], Assign([]float64{0.5, 0.5}, res.Centroids))
	assert.Equal(t, res.Labels[3], Assign([]float64{10.5, 10.5}, res.Centroids))
	assert.InDelta(t, 8.0/3.0, res.Inertia, 1e-9)
}

func TestFit_EveryClusterUsed(t *testing.T) {
	points := [][]float64{{0, 0}, {0, 0}, {0, 0}, {5, 5}}

	res, err := Fit(points, 3, 50, 1, testRand())
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, l := range res.Labels {
		require.GreaterOrEqual(t, l, 0)
		require.Less(t, l, 3)
		seen[l]++
	}
	total := 0
	for _, c := range seen {
		total += c
	}
	assert.Equal(t, len(points), total)
}

func TestFit_SeededIsDeterministic(t *testing.T) {
	points := [][]float64{{0, 0}, {0.2, 0.1}, {3, 3}, {3.1, 2.9}, {8, 0}, {7.9, 0.2}}

	a, err := Fit(points, 3, 100, 3, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)
	b, err := Fit(points, 3, 100, 3, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)

	assert.Equal(t, a.Labels, b.Labels)
	assert.Equal(t, a.Centroids, b.Centroids)
}

func TestFit_Errors(t *testing.T) {
	t.Run("too few points", func(t *testing.T) {
		_, err := Fit([][]float64{{0, 0}}, 2, 10, 1, testRand())
		assert.ErrorIs(t, err, ErrTooFewPoints)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := Fit([][]float64{{0, 0}, {1}}, 1, 10, 1, testRand())
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("non-positive k", func(t *testing.T) {
		_, err := Fit([][]float64{{0, 0}}, 0, 10, 1, testRand())
		assert.Error(t, err)
	})
}
