package model

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// layerSpec is the on-disk form of one dense layer. Weights are stored
// row-major as [input][output].
type layerSpec struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

type networkSpec struct {
	Version string      `json:"version"`
	Layers  []layerSpec `json:"layers"`
}

type layer struct {
	w          *mat.Dense
	b          []float64
	activation string
}

// Network is a trained feed-forward regression network. It is immutable
// after loading and safe for concurrent forward passes: every call works on
// its own matrices.
type Network struct {
	version string
	inDim   int
	layers  []layer
}

// LoadNetwork reads a trained model artifact from disk.
func LoadNetwork(path string) (*Network, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var spec networkSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if len(spec.Layers) == 0 {
		return nil, fmt.Errorf("model artifact malformed: no layers")
	}

	n := &Network{version: spec.Version}
	prevOut := 0
	for i, ls := range spec.Layers {
		in := len(ls.Weights)
		if in == 0 {
			return nil, fmt.Errorf("model artifact malformed: layer %d has no weights", i)
		}
		out := len(ls.Weights[0])
		if out == 0 || len(ls.Biases) != out {
			return nil, fmt.Errorf("model artifact malformed: layer %d weight/bias mismatch", i)
		}

		data := make([]float64, 0, in*out)
		for r, row := range ls.Weights {
			if len(row) != out {
				return nil, fmt.Errorf("model artifact malformed: layer %d row %d ragged", i, r)
			}
			data = append(data, row...)
		}

		switch ls.Activation {
		case "relu", "linear":
		default:
			return nil, fmt.Errorf("model artifact malformed: layer %d unknown activation %q", i, ls.Activation)
		}

		if i == 0 {
			n.inDim = in
		} else if in != prevOut {
			return nil, fmt.Errorf("model artifact malformed: layer %d expects %d inputs, previous emits %d", i, in, prevOut)
		}
		prevOut = out

		n.layers = append(n.layers, layer{
			w:          mat.NewDense(in, out, data),
			b:          append([]float64(nil), ls.Biases...),
			activation: ls.Activation,
		})
	}
	if prevOut != 1 {
		return nil, fmt.Errorf("model artifact malformed: head emits %d outputs, want 1", prevOut)
	}

	return n, nil
}

// Version returns the artifact's version string.
func (n *Network) Version() string { return n.version }

// InDim returns the network's input dimensionality.
func (n *Network) InDim() int { return n.inDim }

// Forward runs the batch through the network and returns one scalar per
// input row, in input order.
func (n *Network) Forward(scaled [][]float64) ([]float64, error) {
	rows := len(scaled)
	if rows == 0 {
		return nil, fmt.Errorf("forward: empty batch")
	}

	data := make([]float64, 0, rows*n.inDim)
	for i, row := range scaled {
		if len(row) != n.inDim {
			return nil, fmt.Errorf("forward: row %d has %d features, model expects %d", i, len(row), n.inDim)
		}
		data = append(data, row...)
	}

	x := mat.NewDense(rows, n.inDim, data)
	for _, l := range n.layers {
		_, out := l.w.Dims()
		y := mat.NewDense(rows, out, nil)
		y.Mul(x, l.w)
		for r := 0; r < rows; r++ {
			for c := 0; c < out; c++ {
				v := y.At(r, c) + l.b[c]
				if l.activation == "relu" && v < 0 {
					v = 0
				}
				y.Set(r, c, v)
			}
		}
		x = y
	}

	preds := make([]float64, rows)
	for r := 0; r < rows; r++ {
		preds[r] = x.At(r, 0)
	}
	return preds, nil
}
