package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// DeepClassifierConfig describes a stacked-autoencoder classifier: one
// autoencoder per hidden layer, each with its own pretraining
// hyperparameters, and a softmax output layer. Decay is applied during
// fine-tuning to the final layer only; the pretrained layers are left
// unregularized.
type DeepClassifierConfig struct {
	Inputs        int
	Classes       int
	HiddenLayers  []int
	PretrainDecay []float64
	Rho           []float64
	Beta          []float64
	Decay         float64
}

// DeepClassifier composes greedily pretrained autoencoders into a softmax
// classifier that is then fine-tuned end to end.
type DeepClassifier struct {
	Network
	Decay    float64
	Encoders []*Autoencoder
	activ    []Activator
}

func NewDeepClassifier(cfg DeepClassifierConfig) (*DeepClassifier, error) {
	n := len(cfg.HiddenLayers)
	if n == 0 {
		return nil, fmt.Errorf("deep classifier: needs at least one hidden layer")
	}
	if len(cfg.PretrainDecay) != n || len(cfg.Rho) != n || len(cfg.Beta) != n {
		return nil, fmt.Errorf("deep classifier: per-layer hyperparameters must match %d hidden layers", n)
	}

	encoders := make([]*Autoencoder, n)
	in := cfg.Inputs
	for i, h := range cfg.HiddenLayers {
		enc, err := NewAutoencoder(in, h, cfg.PretrainDecay[i], cfg.Rho[i], cfg.Beta[i])
		if err != nil {
			return nil, fmt.Errorf("deep classifier layer %d: %w", i, err)
		}
		encoders[i] = enc
		in = h
	}

	nodes := make([]int, 0, n+2)
	nodes = append(nodes, cfg.Inputs)
	nodes = append(nodes, cfg.HiddenLayers...)
	nodes = append(nodes, cfg.Classes)
	net, err := newNetwork(nodes)
	if err != nil {
		return nil, fmt.Errorf("deep classifier: %w", err)
	}

	return &DeepClassifier{Network: net, Decay: cfg.Decay, Encoders: encoders, activ: classifierChain(len(nodes) - 1)}, nil
}

// PreTrain greedily fits each autoencoder on the encoding produced by the
// previous one (the raw data for the first) and copies each encoding weight
// matrix into the corresponding layer of the stack. Fine-tuning is a
// separate Fit call so the transferred weights can be inspected in between.
func (d *DeepClassifier) PreTrain(x *mat.Dense, cfg FitConfig) (optimize.Status, error) {
	xt := x
	var status optimize.Status
	for i, enc := range d.Encoders {
		st, err := enc.Fit(xt, cfg)
		status = st
		if err != nil {
			return st, fmt.Errorf("pretraining layer %d: %w", i, err)
		}
		d.wts[i] = mat.DenseCopyOf(enc.Weights()[0])
		xt = enc.Transform(xt)
	}
	return status, nil
}

// Fit fine-tunes the whole stack end to end with softmax cross-entropy.
func (d *DeepClassifier) Fit(x, y *mat.Dense, cfg FitConfig) (optimize.Status, error) {
	return Fit(d, withBiasRow(x), y, cfg)
}

func (d *DeepClassifier) ForwardPropagate(x *mat.Dense, wts []*mat.Dense) []*mat.Dense {
	if wts == nil {
		wts = d.wts
	}
	return forwardChain(x, wts, d.activ)
}

// ComputeCost is the mean cross-entropy plus L2 decay on the final weight
// matrix only; the pretrained layers carry no penalty.
func (d *DeepClassifier) ComputeCost(y *mat.Dense, wts, acts []*mat.Dense) float64 {
	if wts == nil {
		wts = d.wts
	}
	_, m := y.Dims()
	cost := crossEntropy(y, acts[len(acts)-1]) / float64(m)
	cost += 0.5 * d.Decay * sumSquaresNoBias(wts[len(wts)-1])
	return cost
}

func (d *DeepClassifier) BackwardPropagate(x, y *mat.Dense, wts, acts []*mat.Dense) []*mat.Dense {
	if wts == nil {
		wts = d.wts
	}
	decays := make([]float64, len(wts))
	decays[len(decays)-1] = d.Decay
	return classifierBackprop(x, y, wts, acts, decays)
}

// Predict returns the arg-max class per column of x.
func (d *DeepClassifier) Predict(x *mat.Dense) []int {
	return predictClasses(d, x)
}

// Score predicts classes and returns the misclassification rate against the
// one-hot labels y.
func (d *DeepClassifier) Score(x, y *mat.Dense) ([]int, float64) {
	pred := d.Predict(x)
	return pred, misclassification(pred, y)
}
