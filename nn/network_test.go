package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

func TestFitUnknownMethod(t *testing.T) {
	clf, err := NewSoftmaxClassifier(4, 2, nil, 0)
	require.NoError(t, err)

	x := mat.NewDense(4, 3, nil)
	y := mat.NewDense(2, 3, nil)
	_, err = clf.Fit(x, y, FitConfig{Method: "newton", MaxIter: 10})
	require.Error(t, err)
	require.Contains(t, err.Error(), "newton")
}

func TestFitReducesCost(t *testing.T) {
	const d, k, m = 4, 2, 40
	rng := rand.New(rand.NewSource(10))

	// Two separable clusters: class 0 near the origin, class 1 offset.
	x := mat.NewDense(d, m, nil)
	y := mat.NewDense(k, m, nil)
	for j := 0; j < m; j++ {
		class := j % k
		for i := 0; i < d; i++ {
			x.Set(i, j, rng.Float64()*0.2+float64(class)*0.8)
		}
		y.Set(class, j, 1)
	}

	clf, err := NewSoftmaxClassifier(d, k, nil, 0.001)
	require.NoError(t, err)

	costOf := func() float64 {
		acts := clf.ForwardPropagate(withBiasRow(x), nil)
		return clf.ComputeCost(y, nil, acts)
	}

	before := costOf()
	status, err := clf.Fit(x, y, FitConfig{Method: "L-BFGS", MaxIter: 100})
	require.NoError(t, err)
	require.NotEqual(t, optimize.NotTerminated, status)
	require.Less(t, costOf(), before)

	_, mce := clf.Score(x, y)
	require.Equal(t, 0.0, mce)
}

func TestNewNetworkWeightShapes(t *testing.T) {
	clf, err := NewSoftmaxClassifier(5, 3, []int{7}, 0)
	require.NoError(t, err)

	wts := clf.Weights()
	require.Len(t, wts, 2)

	r, c := wts[0].Dims()
	require.Equal(t, 6, r)
	require.Equal(t, 7, c)

	r, c = wts[1].Dims()
	require.Equal(t, 8, r)
	require.Equal(t, 3, c)
}
