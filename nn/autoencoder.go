package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Autoencoder is a single-hidden-layer sigmoid network trained to
// reconstruct its own input. Decay is the L2 coefficient on non-bias
// weights; when Beta is positive the cost adds a KL-divergence penalty
// pushing each hidden unit's mean activation toward the target rate Rho.
type Autoencoder struct {
	Network
	Decay float64
	Rho   float64
	Beta  float64
}

func NewAutoencoder(d, nHidden int, decay, rho, beta float64) (*Autoencoder, error) {
	net, err := newNetwork([]int{d, nHidden, d})
	if err != nil {
		return nil, fmt.Errorf("autoencoder: %w", err)
	}
	return &Autoencoder{Network: net, Decay: decay, Rho: rho, Beta: beta}, nil
}

// Fit trains the autoencoder on x (d x m, one example per column) with the
// input itself as the reconstruction target.
func (a *Autoencoder) Fit(x *mat.Dense, cfg FitConfig) (optimize.Status, error) {
	return Fit(a, withBiasRow(x), x, cfg)
}

func (a *Autoencoder) ForwardPropagate(x *mat.Dense, wts []*mat.Dense) []*mat.Dense {
	if wts == nil {
		wts = a.wts
	}
	return forwardChain(x, wts, []Activator{Sigmoid{}, Sigmoid{}})
}

// ComputeCost is the mean halved squared reconstruction error plus the L2
// decay penalty and, when Beta > 0, the sparsity penalty
// beta * sum_j KL(rho || rhoHat_j) over the hidden units.
func (a *Autoencoder) ComputeCost(y *mat.Dense, wts, acts []*mat.Dense) float64 {
	if wts == nil {
		wts = a.wts
	}
	_, m := y.Dims()

	diff := subtract(acts[1], y)
	cost := 0.5 * mat.Sum(multiply(diff, diff)) / float64(m)
	for _, w := range wts {
		cost += 0.5 * a.Decay * sumSquaresNoBias(w)
	}

	if a.Beta > 0 {
		for _, rh := range rowMeans(stripBiasRow(acts[0])) {
			rh = clampRate(rh)
			cost += a.Beta * (a.Rho*math.Log(a.Rho/rh) + (1-a.Rho)*math.Log((1-a.Rho)/(1-rh)))
		}
	}
	return cost
}

func (a *Autoencoder) BackwardPropagate(x, y *mat.Dense, wts, acts []*mat.Dense) []*mat.Dense {
	if wts == nil {
		wts = a.wts
	}
	_, m := x.Dims()
	inv := 1.0 / float64(m)

	hidden := stripBiasRow(acts[0])

	delta2 := multiply(subtract(acts[1], y), Sigmoid{}.Deactivate(acts[1]))
	g1 := scale(inv, dot(acts[0], delta2.T()))
	addWeightDecay(g1, wts[1], a.Decay)

	dHidden := stripBiasRow(dot(wts[1], delta2))
	if a.Beta > 0 {
		for j, rh := range rowMeans(hidden) {
			rh = clampRate(rh)
			corr := a.Beta * (-a.Rho/rh + (1-a.Rho)/(1-rh))
			row := dHidden.RawRowView(j)
			for i := range row {
				row[i] += corr
			}
		}
	}
	delta1 := multiply(dHidden, Sigmoid{}.Deactivate(hidden))
	g0 := scale(inv, dot(x, delta1.T()))
	addWeightDecay(g0, wts[0], a.Decay)

	return []*mat.Dense{g0, g1}
}

// Transform returns the learned encoding: the hidden-layer activations for
// x, one h-dimensional column per example.
func (a *Autoencoder) Transform(x *mat.Dense) *mat.Dense {
	acts := a.ForwardPropagate(withBiasRow(x), a.wts)
	return mat.DenseCopyOf(stripBiasRow(acts[0]))
}

// Reconstruct runs x through the full encoder/decoder chain.
func (a *Autoencoder) Reconstruct(x *mat.Dense) *mat.Dense {
	acts := a.ForwardPropagate(withBiasRow(x), a.wts)
	return acts[len(acts)-1]
}

// MaxActivations returns, per hidden unit, the unit-norm input that
// maximizes its activation: column j is the j-th encoding weight column
// (bias excluded) scaled to unit length. A diagnostic for visualizing
// learned bases, not part of the training loop.
func (a *Autoencoder) MaxActivations() *mat.Dense {
	enc := stripBiasRow(a.wts[0])
	d, h := enc.Dims()
	out := mat.NewDense(d, h, nil)
	col := make([]float64, d)
	for j := 0; j < h; j++ {
		mat.Col(col, j, enc)
		if norm := floats.Norm(col, 2); norm > 0 {
			floats.Scale(1/norm, col)
		}
		out.SetCol(j, col)
	}
	return out
}

// clampRate keeps a mean activation rate away from exactly 0 or 1, where
// the KL penalty and its derivative blow up.
func clampRate(v float64) float64 {
	return math.Min(math.Max(v, logFloor), 1-logFloor)
}
