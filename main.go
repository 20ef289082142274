package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"nnet/mnist"
	"nnet/nn"
)

func main() {
	var (
		imagesPath = flag.String("images", "data/train-images.idx3-ubyte", "IDX image file")
		labelsPath = flag.String("labels", "", "IDX label file; when set, trains the deep classifier instead of the autoencoder")
		numImages  = flag.Int("n", 10000, "number of images to use")
		hiddenStr  = flag.String("hidden", "196", "comma-separated hidden layer sizes")
		method     = flag.String("method", "L-BFGS", "optimization method (CG or L-BFGS)")
		nIter      = flag.Int("iter", 400, "iteration budget for the minimizer")
		decay      = flag.Float64("decay", 0.003, "L2 weight decay")
		rho        = flag.Float64("rho", 0.1, "sparsity target rate")
		beta       = flag.Float64("beta", 3, "sparsity penalty weight")
	)
	flag.Parse()

	hidden, err := parseHiddenLayers(*hiddenStr)
	if err != nil {
		fmt.Printf("parsing hidden layers: %s\n", err.Error())
		os.Exit(1)
	}

	x, err := mnist.Images(*imagesPath, *numImages)
	if err != nil {
		fmt.Printf("loading images: %s\n", err.Error())
		os.Exit(1)
	}
	d, m := x.Dims()

	cfg := nn.FitConfig{Method: *method, MaxIter: *nIter}

	if *labelsPath == "" {
		fmt.Println("Sparse autoencoder on MNIST data")
		fmt.Println("--------------------------------")
		fmt.Printf("Input feature size: %d\n", d)
		fmt.Printf("Training examples: %d\n", m)
		fmt.Printf("Hidden units: %d\n", hidden[0])
		fmt.Printf("Optimization method: %s\n", *method)

		ae, err := nn.NewAutoencoder(d, hidden[0], *decay, *rho, *beta)
		if err != nil {
			fmt.Printf("building autoencoder: %s\n", err.Error())
			os.Exit(1)
		}

		fmt.Println("Fitting a sparse autoencoder...")
		status, err := ae.Fit(x, cfg)
		if err != nil {
			fmt.Printf("fitting autoencoder: %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Printf("Minimizer finished with status: %s\n", status)

		fmt.Printf("Mean reconstruction error: %.6f\n", reconstructionError(ae, x))

		bases := ae.MaxActivations()
		br, bc := bases.Dims()
		fmt.Printf("Computed %d basis images of %d pixels each\n", bc, br)
		return
	}

	const classes = 10
	y, err := mnist.Labels(*labelsPath, classes, *numImages)
	if err != nil {
		fmt.Printf("loading labels: %s\n", err.Error())
		os.Exit(1)
	}

	fmt.Println("Deep autoencoder classifier on MNIST data")
	fmt.Println("-----------------------------------------")
	fmt.Printf("Input feature size: %d\n", d)
	fmt.Printf("Training examples: %d\n", m)
	fmt.Printf("Hidden layers: %v\n", hidden)
	fmt.Printf("Optimization method: %s\n", *method)

	perLayer := func(v float64) []float64 {
		vs := make([]float64, len(hidden))
		for i := range vs {
			vs[i] = v
		}
		return vs
	}
	net, err := nn.NewDeepClassifier(nn.DeepClassifierConfig{
		Inputs:        d,
		Classes:       classes,
		HiddenLayers:  hidden,
		PretrainDecay: perLayer(*decay),
		Rho:           perLayer(*rho),
		Beta:          perLayer(*beta),
		Decay:         *decay,
	})
	if err != nil {
		fmt.Printf("building deep classifier: %s\n", err.Error())
		os.Exit(1)
	}

	fmt.Println("Pretraining stacked autoencoders...")
	if _, err := net.PreTrain(x, cfg); err != nil {
		fmt.Printf("pretraining: %s\n", err.Error())
		os.Exit(1)
	}

	fmt.Println("Fine-tuning the full stack...")
	status, err := net.Fit(x, y, cfg)
	if err != nil {
		fmt.Printf("fine-tuning: %s\n", err.Error())
		os.Exit(1)
	}
	fmt.Printf("Minimizer finished with status: %s\n", status)

	_, mce := net.Score(x, y)
	fmt.Printf("Training misclassification rate: %.4f\n", mce)
}

func reconstructionError(ae *nn.Autoencoder, x *mat.Dense) float64 {
	rec := ae.Reconstruct(x)
	d, m := x.Dims()
	var sum float64
	for i := 0; i < d; i++ {
		for j := 0; j < m; j++ {
			diff := rec.At(i, j) - x.At(i, j)
			sum += diff * diff
		}
	}
	return sum / float64(m)
}

func parseHiddenLayers(hiddenLayersStr string) ([]int, error) {
	hiddenLayers := strings.Split(hiddenLayersStr, ",")
	neurons := make([]int, len(hiddenLayers))
	for i, str := range hiddenLayers {
		neuron, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return nil, err
		}
		neurons[i] = neuron
	}
	return neurons, nil
}
