package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// Model is the contract every network variant satisfies. The activation
// chain is an explicit return value of ForwardPropagate rather than hidden
// instance state, so repeated evaluations with perturbed weights (as during
// gradient checking) cannot alias each other.
//
// Convention shared by all implementations: the input x carries a leading
// all-ones bias row, weight matrix i has shape (nodes[i]+1) x nodes[i+1]
// with the bias folded into row 0, hidden activations are returned with
// their own ones row prepended, and the final activation without one.
// BackwardPropagate drops the bias row from the error it propagates (the
// bias node has no incoming connection) but every weight gradient is
// accumulated over the full previous activation, bias row included.
type Model interface {
	Nodes() []int
	Weights() []*mat.Dense
	SetWeights(wts []*mat.Dense)
	ForwardPropagate(x *mat.Dense, wts []*mat.Dense) []*mat.Dense
	BackwardPropagate(x, y *mat.Dense, wts, acts []*mat.Dense) []*mat.Dense
	ComputeCost(y *mat.Dense, wts, acts []*mat.Dense) float64
}

// Network holds the layer topology and the weight collection shared by all
// variants. Topology is fixed at construction; weights are replaced
// wholesale on each optimizer iteration.
type Network struct {
	nodes []int
	wts   []*mat.Dense
}

func newNetwork(nodes []int) (Network, error) {
	if len(nodes) < 2 {
		return Network{}, fmt.Errorf("topology needs at least input and output layers, got %d", len(nodes))
	}
	for i, n := range nodes {
		if n < 1 {
			return Network{}, fmt.Errorf("layer %d has invalid size %d", i, n)
		}
	}
	net := Network{
		nodes: nodes,
		wts:   make([]*mat.Dense, len(nodes)-1),
	}
	for i := range net.wts {
		r, c := nodes[i]+1, nodes[i+1]
		net.wts[i] = mat.NewDense(r, c, randomArray(r*c, float64(nodes[i])))
	}
	return net, nil
}

func randomArray(size int, v float64) []float64 {
	dist := distuv.Uniform{
		Min: -1 / math.Sqrt(v),
		Max: 1 / math.Sqrt(v),
	}

	data := make([]float64, size)
	for i := 0; i < size; i++ {
		data[i] = dist.Rand()
	}
	return data
}

func (n *Network) Nodes() []int {
	return n.nodes
}

func (n *Network) Weights() []*mat.Dense {
	return n.wts
}

func (n *Network) SetWeights(wts []*mat.Dense) {
	n.wts = wts
}

// classifierChain is the activation sequence of a classifier: sigmoid for
// every hidden layer, softmax on the output.
func classifierChain(layers int) []Activator {
	activ := make([]Activator, layers)
	for i := range activ {
		activ[i] = ActivatorLookup["sigmoid"]
	}
	activ[layers-1] = ActivatorLookup["softmax"]
	return activ
}

// forwardChain computes one activation per layer, each hidden activation
// gaining a ones row for the next layer's bias term.
func forwardChain(x *mat.Dense, wts []*mat.Dense, activ []Activator) []*mat.Dense {
	acts := make([]*mat.Dense, len(wts))
	a := x
	for i, w := range wts {
		out := activ[i].Activate(dot(w.T(), a))
		if i < len(wts)-1 {
			out = withBiasRow(out)
		}
		acts[i] = out
		a = out
	}
	return acts
}

// classifierBackprop runs the chain rule in reverse layer order for a chain
// of sigmoid hidden layers ending in a softmax whose output error is p-y.
// decays[i] is the L2 coefficient applied to the non-bias rows of layer i,
// which lets the plain classifier decay every layer while the pretrained
// stack decays only its final one.
func classifierBackprop(x, y *mat.Dense, wts, acts []*mat.Dense, decays []float64) []*mat.Dense {
	_, m := x.Dims()
	inv := 1.0 / float64(m)

	grads := make([]*mat.Dense, len(wts))
	delta := subtract(acts[len(acts)-1], y)
	for i := len(wts) - 1; i > 0; i-- {
		prev := acts[i-1]
		grads[i] = scale(inv, dot(prev, delta.T()))
		addWeightDecay(grads[i], wts[i], decays[i])

		hidden := stripBiasRow(prev)
		delta = multiply(stripBiasRow(dot(wts[i], delta)), Sigmoid{}.Deactivate(hidden))
	}
	grads[0] = scale(inv, dot(x, delta.T()))
	addWeightDecay(grads[0], wts[0], decays[0])
	return grads
}

// FitConfig selects the external minimizer and its iteration budget.
type FitConfig struct {
	Method  string // key into MethodLookup
	MaxIter int
}

var MethodLookup = map[string]func() optimize.Method{
	"CG":     func() optimize.Method { return &optimize.CG{} },
	"L-BFGS": func() optimize.Method { return &optimize.LBFGS{} },
}

// Fit trains a model by handing its flattened weights, cost and gradient to
// an unconstrained minimizer. x must already carry its bias row. The
// minimizer's own termination status is returned for inspection: hitting the
// iteration budget is a soft failure, and the weights reached at that point
// are adopted either way.
func Fit(model Model, x, y *mat.Dense, cfg FitConfig) (optimize.Status, error) {
	newMethod, ok := MethodLookup[cfg.Method]
	if !ok {
		return optimize.NotTerminated, fmt.Errorf("unknown optimization method %q", cfg.Method)
	}

	nodes := model.Nodes()
	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			wts := Reroll(w, nodes)
			return model.ComputeCost(y, wts, model.ForwardPropagate(x, wts))
		},
		Grad: func(grad, w []float64) {
			wts := Reroll(w, nodes)
			acts := model.ForwardPropagate(x, wts)
			copy(grad, Unroll(model.BackwardPropagate(x, y, wts, acts)))
		},
	}

	settings := &optimize.Settings{MajorIterations: cfg.MaxIter}
	result, err := optimize.Minimize(problem, Unroll(model.Weights()), settings, newMethod())
	if result != nil && result.X != nil {
		model.SetWeights(Reroll(result.X, nodes))
	}
	if err != nil {
		status := optimize.Failure
		if result != nil {
			status = result.Status
		}
		return status, fmt.Errorf("minimizing cost: %w", err)
	}
	return result.Status, nil
}

func predictClasses(m Model, x *mat.Dense) []int {
	acts := m.ForwardPropagate(withBiasRow(x), m.Weights())
	return argmaxColumns(acts[len(acts)-1])
}

// misclassification is the fraction of columns whose predicted class differs
// from the arg-max of the one-hot label matrix.
func misclassification(pred []int, y *mat.Dense) float64 {
	truth := argmaxColumns(y)
	wrong := 0
	for i := range pred {
		if pred[i] != truth[i] {
			wrong++
		}
	}
	return float64(wrong) / float64(len(pred))
}
