// Package mnist reads the IDX ubyte files of the MNIST dataset into dense
// matrices ready for the network packages: one column per example, pixel
// intensities scaled to [0,1].
package mnist

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
)

const (
	imageMagic = 2051
	labelMagic = 2049
)

// Images reads an IDX image file and returns a d x m matrix, where d is
// rows*cols of a single image and each column is one image scaled to [0,1].
// A positive limit caps the number of images read.
func Images(path string, limit int) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image file: %w", err)
	}
	defer f.Close()

	x, err := readImages(f, limit)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return x, nil
}

// Labels reads an IDX label file and returns a classes x m one-hot matrix.
// A positive limit caps the number of labels read.
func Labels(path string, classes, limit int) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening label file: %w", err)
	}
	defer f.Close()

	y, err := readLabels(f, classes, limit)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return y, nil
}

func readImages(r io.Reader, limit int) (*mat.Dense, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != imageMagic {
		return nil, fmt.Errorf("invalid image magic number: got %d, want %d", magic, imageMagic)
	}

	var count, rows, cols uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("reading image count: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &rows); err != nil {
		return nil, fmt.Errorf("reading row count: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &cols); err != nil {
		return nil, fmt.Errorf("reading column count: %w", err)
	}

	m := int(count)
	if limit > 0 && limit < m {
		m = limit
	}
	d := int(rows * cols)

	x := mat.NewDense(d, m, nil)
	buf := make([]byte, d)
	for j := 0; j < m; j++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("reading image %d: %w", j, err)
		}
		for i, px := range buf {
			x.Set(i, j, float64(px)/255)
		}
	}
	return x, nil
}

func readLabels(r io.Reader, classes, limit int) (*mat.Dense, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != labelMagic {
		return nil, fmt.Errorf("invalid label magic number: got %d, want %d", magic, labelMagic)
	}

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("reading label count: %w", err)
	}

	m := int(count)
	if limit > 0 && limit < m {
		m = limit
	}

	buf := make([]byte, m)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}

	y := mat.NewDense(classes, m, nil)
	for j, label := range buf {
		if int(label) >= classes {
			return nil, fmt.Errorf("label %d out of range for %d classes", label, classes)
		}
		y.Set(int(label), j, 1)
	}
	return y, nil
}
