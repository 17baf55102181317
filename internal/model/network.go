package model

import (
	"math"
	"math/rand/v2"
)

type Activation string

const (
	ReLU    Activation = "relu"
	Linear  Activation = "linear"
	Softmax Activation = "softmax"
)

// Layer is a dense layer. Weights are indexed [out][in].
type Layer struct {
	Weights    [][]float64
	Biases     []float64
	Activation Activation
}

// Network is a feed-forward stack of dense layers. Hidden layers use ReLU.
type Network struct {
	Layers []Layer
}

// NewNetwork builds a network with He-initialised weights. sizes lists the
// input width followed by each layer's width.
func NewNetwork(rng *rand.Rand, sizes []int, output Activation) *Network {
	n := &Network{Layers: make([]Layer, 0, len(sizes)-1)}
	for i := 0; i+1 < len(sizes); i++ {
		in, out := sizes[i], sizes[i+1]
		act := ReLU
		if i+2 == len(sizes) {
			act = output
		}
		std := math.Sqrt(2 / float64(in))
		layer := Layer{
			Weights:    make([][]float64, out),
			Biases:     make([]float64, out),
			Activation: act,
		}
		for j := range layer.Weights {
			row := make([]float64, in)
			for k := range row {
				row[k] = rng.NormFloat64() * std
			}
			layer.Weights[j] = row
		}
		n.Layers = append(n.Layers, layer)
	}
	return n
}

func (n *Network) InputSize() int {
	if len(n.Layers) == 0 || len(n.Layers[0].Weights) == 0 {
		return 0
	}
	return len(n.Layers[0].Weights[0])
}

func (n *Network) OutputSize() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return len(n.Layers[len(n.Layers)-1].Biases)
}

func (n *Network) Forward(x []float64) []float64 {
	acts := n.forward(x)
	return acts[len(acts)-1]
}

// forward returns the input followed by every layer's output.
func (n *Network) forward(x []float64) [][]float64 {
	acts := make([][]float64, 0, len(n.Layers)+1)
	acts = append(acts, x)
	for _, l := range n.Layers {
		in := acts[len(acts)-1]
		out := make([]float64, len(l.Biases))
		for j, row := range l.Weights {
			sum := l.Biases[j]
			for k, w := range row {
				sum += w * in[k]
			}
			out[j] = sum
		}
		activate(l.Activation, out)
		acts = append(acts, out)
	}
	return acts
}

func activate(act Activation, v []float64) {
	switch act {
	case ReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	case Softmax:
		peak := math.Inf(-1)
		for _, x := range v {
			peak = math.Max(peak, x)
		}
		var sum float64
		for i, x := range v {
			v[i] = math.Exp(x - peak)
			sum += v[i]
		}
		for i := range v {
			v[i] /= sum
		}
	}
}

func (n *Network) clone() *Network {
	c := &Network{Layers: make([]Layer, len(n.Layers))}
	for i, l := range n.Layers {
		w := make([][]float64, len(l.Weights))
		for j, row := range l.Weights {
			w[j] = append([]float64(nil), row...)
		}
		c.Layers[i] = Layer{
			Weights:    w,
			Biases:     append([]float64(nil), l.Biases...),
			Activation: l.Activation,
		}
	}
	return c
}

// params mirrors the network's weight shapes; used for gradients and Adam
// moments.
type params struct {
	w [][][]float64
	b [][]float64
}

func zeroParams(n *Network) *params {
	p := &params{
		w: make([][][]float64, len(n.Layers)),
		b: make([][]float64, len(n.Layers)),
	}
	for i, l := range n.Layers {
		p.w[i] = make([][]float64, len(l.Weights))
		for j, row := range l.Weights {
			p.w[i][j] = make([]float64, len(row))
		}
		p.b[i] = make([]float64, len(l.Biases))
	}
	return p
}

func (p *params) reset() {
	for i := range p.w {
		for j := range p.w[i] {
			clear(p.w[i][j])
		}
		clear(p.b[i])
	}
}

// backward accumulates gradients for one sample given the loss gradient
// with respect to the final layer's pre-activation.
func (n *Network) backward(acts [][]float64, delta []float64, grad *params) {
	for l := len(n.Layers) - 1; l >= 0; l-- {
		layer := n.Layers[l]
		in := acts[l]
		for j, d := range delta {
			if d == 0 {
				continue
			}
			row := grad.w[l][j]
			for k, x := range in {
				row[k] += d * x
			}
			grad.b[l][j] += d
		}
		if l == 0 {
			return
		}
		prev := make([]float64, len(in))
		for k := range prev {
			if in[k] <= 0 {
				continue
			}
			var sum float64
			for j, d := range delta {
				sum += layer.Weights[j][k] * d
			}
			prev[k] = sum
		}
		delta = prev
	}
}
