package nn

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func dot(m, n mat.Matrix) *mat.Dense {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Product(m, n)
	return o
}

func apply(fn func(i, j int, v float64) float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Apply(fn, m)
	return o
}

func scale(s float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, m)
	return o
}

func multiply(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.MulElem(m, n)
	return o
}

func subtract(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Sub(m, n)
	return o
}

// withBiasRow prepends a row of ones, turning a d x m data matrix into the
// (d+1) x m form the bias-folded weight convention expects.
func withBiasRow(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r+1, c, nil)
	for j := 0; j < c; j++ {
		o.Set(0, j, 1)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			o.Set(i+1, j, m.At(i, j))
		}
	}
	return o
}

// stripBiasRow returns a view of m without its leading ones row.
func stripBiasRow(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	return m.Slice(1, r, 0, c).(*mat.Dense)
}

func rowMeans(m *mat.Dense) []float64 {
	r, c := m.Dims()
	means := make([]float64, r)
	for i := range means {
		means[i] = floats.Sum(m.RawRowView(i)) / float64(c)
	}
	return means
}

// sumSquaresNoBias is the squared Frobenius norm of a weight matrix with its
// bias row excluded, the quantity the L2 decay penalty is taken over.
func sumSquaresNoBias(w *mat.Dense) float64 {
	f := mat.Norm(stripBiasRow(w), 2)
	return f * f
}

// addWeightDecay adds decay*w to the gradient on every row except the bias
// row. Bias weights are never decayed.
func addWeightDecay(g, w *mat.Dense, decay float64) {
	if decay == 0 {
		return
	}
	gs := stripBiasRow(g)
	gs.Add(gs, scale(decay, stripBiasRow(w)))
}

func argmaxColumns(m *mat.Dense) []int {
	r, c := m.Dims()
	out := make([]int, c)
	for j := 0; j < c; j++ {
		best := 0
		highest := m.At(0, j)
		for i := 1; i < r; i++ {
			if v := m.At(i, j); v > highest {
				best = i
				highest = v
			}
		}
		out[j] = best
	}
	return out
}

// Unroll flattens a weight collection into a single vector, matrix by matrix
// in layer order, each in row-major order. It is the interface between the
// layered weight representation and a flat-vector minimizer.
func Unroll(wts []*mat.Dense) []float64 {
	var flat []float64
	for _, w := range wts {
		r, _ := w.Dims()
		for i := 0; i < r; i++ {
			flat = append(flat, w.RawRowView(i)...)
		}
	}
	return flat
}

// Reroll is the inverse of Unroll: it reshapes a flat parameter vector back
// into one (nodes[i]+1) x nodes[i+1] matrix per layer transition. The
// returned matrices share backing storage with flat.
func Reroll(flat []float64, nodes []int) []*mat.Dense {
	wts := make([]*mat.Dense, len(nodes)-1)
	pos := 0
	for i := range wts {
		r, c := nodes[i]+1, nodes[i+1]
		wts[i] = mat.NewDense(r, c, flat[pos:pos+r*c])
		pos += r * c
	}
	return wts
}
