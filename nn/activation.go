package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Activator interface {
	Activate(z *mat.Dense) *mat.Dense
	fmt.Stringer
}

var ActivatorLookup = map[string]Activator{
	"sigmoid": Sigmoid{},
	"softmax": Softmax{},
}

type Sigmoid struct{}

func (s Sigmoid) Activate(z *mat.Dense) *mat.Dense {
	return apply(func(_, _ int, v float64) float64 {
		return 1.0 / (1.0 + math.Exp(-v))
	}, z)
}

// Deactivate returns the sigmoid derivative a*(1-a) evaluated from the
// activations themselves.
func (s Sigmoid) Deactivate(a *mat.Dense) *mat.Dense {
	return apply(func(_, _ int, v float64) float64 {
		return v * (1 - v)
	}, a)
}

func (s Sigmoid) String() string {
	return "sigmoid"
}

type Softmax struct{}

// Activate applies softmax to each column independently. Inputs are shifted
// by the column maximum so that the exponentials cannot overflow.
func (s Softmax) Activate(z *mat.Dense) *mat.Dense {
	r, c := z.Dims()
	o := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, z)
		max := floats.Max(col)
		sum := 0.0
		for i, v := range col {
			e := math.Exp(v - max)
			col[i] = e
			sum += e
		}
		for i := range col {
			col[i] /= sum
		}
		o.SetCol(j, col)
	}
	return o
}

func (s Softmax) String() string {
	return "softmax"
}

// logFloor keeps cross-entropy and KL terms finite when an activation
// saturates at exactly 0 or 1.
const logFloor = 1e-12

func crossEntropy(y, p *mat.Dense) float64 {
	logp := apply(func(_, _ int, v float64) float64 {
		return -math.Log(math.Max(v, logFloor))
	}, p)
	return mat.Sum(multiply(y, logp))
}
