package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestAutoencoderGradient(t *testing.T) {
	const (
		d, nHidden, m = 5, 50, 100

		eps    = 1e-4
		errTol = 1e-9
	)
	rng := rand.New(rand.NewSource(1))

	ae, err := NewAutoencoder(d, nHidden, 0, 0, 0)
	require.NoError(t, err)
	wts := cosineWeights(ae.Nodes())
	ae.SetWeights(wts)

	x := syntheticBatch(rng, d, m)
	target := mat.DenseCopyOf(stripBiasRow(x))

	cerr := CheckGradient(ae, x, target, wts, eps, rng)
	require.Less(t, cerr, float64(errTol))
}

func TestSparseAutoencoderGradient(t *testing.T) {
	// The KL sparsity term adds curvature, so the tolerance is looser than
	// in the plain reconstruction case.
	const (
		d, nHidden, m = 5, 50, 100

		eps    = 1e-4
		errTol = 1e-8
	)
	rng := rand.New(rand.NewSource(2))

	ae, err := NewAutoencoder(d, nHidden, 0.003, 0.1, 3)
	require.NoError(t, err)
	wts := cosineWeights(ae.Nodes())
	ae.SetWeights(wts)

	x := syntheticBatch(rng, d, m)
	target := mat.DenseCopyOf(stripBiasRow(x))

	cerr := CheckGradient(ae, x, target, wts, eps, rng)
	require.Less(t, cerr, float64(errTol))
}

func TestAutoencoderTransformShape(t *testing.T) {
	const d, nHidden, m = 5, 50, 20
	rng := rand.New(rand.NewSource(3))

	ae, err := NewAutoencoder(d, nHidden, 0, 0, 0)
	require.NoError(t, err)

	x := mat.DenseCopyOf(stripBiasRow(syntheticBatch(rng, d, m)))
	enc := ae.Transform(x)

	r, c := enc.Dims()
	require.Equal(t, nHidden, r)
	require.Equal(t, m, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			v := enc.At(i, j)
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestMaxActivationsUnitNorm(t *testing.T) {
	const d, nHidden = 5, 50

	ae, err := NewAutoencoder(d, nHidden, 0, 0, 0)
	require.NoError(t, err)

	bases := ae.MaxActivations()
	r, c := bases.Dims()
	require.Equal(t, d, r)
	require.Equal(t, nHidden, c)

	col := make([]float64, d)
	for j := 0; j < c; j++ {
		mat.Col(col, j, bases)
		require.InDelta(t, 1.0, floats.Norm(col, 2), 1e-12, "column %d is not unit norm", j)
	}
}

func TestNewAutoencoderRejectsBadTopology(t *testing.T) {
	_, err := NewAutoencoder(0, 10, 0, 0, 0)
	require.Error(t, err)

	_, err = NewAutoencoder(5, 0, 0, 0, 0)
	require.Error(t, err)
}
