package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// SoftmaxClassifier is a feed-forward classifier with zero or more sigmoid
// hidden layers and a softmax output layer. With no hidden layers it reduces
// to softmax regression. Decay applies to the non-bias rows of every weight
// matrix.
type SoftmaxClassifier struct {
	Network
	Decay float64
	activ []Activator
}

func NewSoftmaxClassifier(d, k int, hidden []int, decay float64) (*SoftmaxClassifier, error) {
	nodes := make([]int, 0, len(hidden)+2)
	nodes = append(nodes, d)
	nodes = append(nodes, hidden...)
	nodes = append(nodes, k)

	net, err := newNetwork(nodes)
	if err != nil {
		return nil, fmt.Errorf("softmax classifier: %w", err)
	}
	return &SoftmaxClassifier{Network: net, Decay: decay, activ: classifierChain(len(nodes) - 1)}, nil
}

// Fit trains on x (d x m) against one-hot labels y (k x m).
func (c *SoftmaxClassifier) Fit(x, y *mat.Dense, cfg FitConfig) (optimize.Status, error) {
	return Fit(c, withBiasRow(x), y, cfg)
}

func (c *SoftmaxClassifier) ForwardPropagate(x *mat.Dense, wts []*mat.Dense) []*mat.Dense {
	if wts == nil {
		wts = c.wts
	}
	return forwardChain(x, wts, c.activ)
}

// ComputeCost is the mean cross-entropy between the one-hot labels and the
// softmax output, plus L2 decay on every weight matrix.
func (c *SoftmaxClassifier) ComputeCost(y *mat.Dense, wts, acts []*mat.Dense) float64 {
	if wts == nil {
		wts = c.wts
	}
	_, m := y.Dims()
	cost := crossEntropy(y, acts[len(acts)-1]) / float64(m)
	for _, w := range wts {
		cost += 0.5 * c.Decay * sumSquaresNoBias(w)
	}
	return cost
}

func (c *SoftmaxClassifier) BackwardPropagate(x, y *mat.Dense, wts, acts []*mat.Dense) []*mat.Dense {
	if wts == nil {
		wts = c.wts
	}
	decays := make([]float64, len(wts))
	for i := range decays {
		decays[i] = c.Decay
	}
	return classifierBackprop(x, y, wts, acts, decays)
}

// Predict returns the arg-max class per column of x (d x m).
func (c *SoftmaxClassifier) Predict(x *mat.Dense) []int {
	return predictClasses(c, x)
}

// Score predicts classes for x and additionally returns the
// misclassification rate against the one-hot labels y.
func (c *SoftmaxClassifier) Score(x, y *mat.Dense) ([]int, float64) {
	pred := c.Predict(x)
	return pred, misclassification(pred, y)
}
