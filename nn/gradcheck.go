package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// CheckGradient compares the analytic backpropagation gradient against a
// central finite-difference estimate on a random 20% sample of the
// flattened parameter indices, and returns the mean absolute difference
// over the sample. Each sampled derivative perturbs one parameter by
// +/- eps with all others fixed.
//
// This is the correctness oracle for BackwardPropagate: any new activation
// or cost function must pass it before being trusted.
func CheckGradient(model Model, x, y *mat.Dense, wts []*mat.Dense, eps float64, rng *rand.Rand) float64 {
	nodes := model.Nodes()
	flat := Unroll(wts)
	acts := model.ForwardPropagate(x, wts)
	analytic := Unroll(model.BackwardPropagate(x, y, wts, acts))

	sample := len(flat) / 5
	if sample < 1 {
		sample = 1
	}
	idx := rng.Perm(len(flat))[:sample]

	settings := &fd.Settings{Formula: fd.Central, Step: eps}
	var diff float64
	for _, j := range idx {
		numeric := fd.Derivative(func(wj float64) float64 {
			perturbed := make([]float64, len(flat))
			copy(perturbed, flat)
			perturbed[j] = wj
			pw := Reroll(perturbed, nodes)
			return model.ComputeCost(y, pw, model.ForwardPropagate(x, pw))
		}, flat[j], settings)
		diff += math.Abs(numeric - analytic[j])
	}
	return diff / float64(len(idx))
}
