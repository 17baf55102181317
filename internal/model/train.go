package model

import (
	"context"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
)

type Loss string

const (
	Huber        Loss = "huber"
	CrossEntropy Loss = "crossentropy"
)

const huberDelta = 1.0

// TrainConfig controls a training run.
type TrainConfig struct {
	Epochs          int
	BatchSize       int
	LearningRate    float64
	MinLearningRate float64
	L2              float64
	ValidationSplit float64
	// Patience is the number of epochs without validation improvement
	// before training stops.
	Patience int
	// PlateauPatience epochs without improvement halve the learning rate.
	PlateauPatience int
	Seed            uint64
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:          50,
		BatchSize:       32,
		LearningRate:    0.001,
		MinLearningRate: 1e-6,
		L2:              0.001,
		ValidationSplit: 0.2,
		Patience:        5,
		PlateauPatience: 2,
	}
}

type TrainReport struct {
	Epochs         int     `json:"epochs"`
	TrainLoss      float64 `json:"trainLoss"`
	ValidationLoss float64 `json:"validationLoss"`
	Samples        int     `json:"samples"`
}

type adam struct {
	lr           float64
	beta1, beta2 float64
	eps          float64
	t            int
	m, v         *params
}

func newAdam(n *Network, lr float64) *adam {
	return &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-7, m: zeroParams(n), v: zeroParams(n)}
}

func (a *adam) step(n *Network, grad *params, batch int, l2 float64) {
	a.t++
	scale := 1 / float64(batch)
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))

	update := func(w *float64, g float64, m, v *float64) {
		*m = a.beta1**m + (1-a.beta1)*g
		*v = a.beta2**v + (1-a.beta2)*g*g
		*w -= a.lr * (*m / c1) / (math.Sqrt(*v/c2) + a.eps)
	}

	for l, layer := range n.Layers {
		for j, row := range layer.Weights {
			for k := range row {
				g := grad.w[l][j][k]*scale + l2*row[k]
				update(&row[k], g, &a.m.w[l][j][k], &a.v.w[l][j][k])
			}
			update(&layer.Biases[j], grad.b[l][j]*scale, &a.m.b[l][j], &a.v.b[l][j])
		}
	}
}

// lossGrad returns the sample loss and its gradient with respect to the
// output layer's pre-activation.
func lossGrad(loss Loss, out, target []float64) (float64, []float64) {
	grad := make([]float64, len(out))
	var total float64
	switch loss {
	case CrossEntropy:
		for i := range out {
			grad[i] = out[i] - target[i]
			if target[i] > 0 {
				total -= target[i] * math.Log(math.Max(out[i], 1e-12))
			}
		}
	default:
		for i := range out {
			d := out[i] - target[i]
			if math.Abs(d) <= huberDelta {
				total += 0.5 * d * d
				grad[i] = d
			} else {
				total += huberDelta * (math.Abs(d) - 0.5*huberDelta)
				grad[i] = huberDelta * math.Copysign(1, d)
			}
		}
	}
	return total, grad
}

func evaluate(n *Network, loss Loss, xs, ys [][]float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var total float64
	for _, i := range idx {
		l, _ := lossGrad(loss, n.Forward(xs[i]), ys[i])
		total += l
	}
	return total / float64(len(idx))
}

// fit trains n in place with mini-batch Adam. A shuffled validation split
// drives early stopping, which restores the best weights, and learning-rate
// halving on plateaus.
func fit(ctx context.Context, n *Network, xs, ys [][]float64, loss Loss, cfg TrainConfig, rng *rand.Rand, log *zap.Logger) (TrainReport, error) {
	order := rng.Perm(len(xs))
	valSize := int(float64(len(xs)) * cfg.ValidationSplit)
	if valSize >= len(xs) {
		valSize = 0
	}
	val, train := order[:valSize], order[valSize:]

	batch := max(cfg.BatchSize, 1)
	opt := newAdam(n, cfg.LearningRate)
	grad := zeroParams(n)

	best := math.Inf(1)
	bestNet := n.clone()
	stale, plateau := 0, 0
	report := TrainReport{Samples: len(xs)}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })

		var epochLoss float64
		for start := 0; start < len(train); start += batch {
			end := min(start+batch, len(train))
			grad.reset()
			for _, i := range train[start:end] {
				acts := n.forward(xs[i])
				l, delta := lossGrad(loss, acts[len(acts)-1], ys[i])
				epochLoss += l
				n.backward(acts, delta, grad)
			}
			opt.step(n, grad, end-start, cfg.L2)
		}
		epochLoss /= float64(max(len(train), 1))

		monitored := epochLoss
		if len(val) > 0 {
			monitored = evaluate(n, loss, xs, ys, val)
		}
		report.Epochs = epoch
		report.TrainLoss = epochLoss
		report.ValidationLoss = monitored

		log.Debug("epoch finished",
			zap.Int("epoch", epoch),
			zap.Float64("loss", epochLoss),
			zap.Float64("val_loss", monitored),
			zap.Float64("learning_rate", opt.lr),
		)

		if monitored < best {
			best = monitored
			bestNet = n.clone()
			stale, plateau = 0, 0
			continue
		}

		stale++
		plateau++
		if cfg.PlateauPatience > 0 && plateau >= cfg.PlateauPatience {
			opt.lr = math.Max(opt.lr*0.5, cfg.MinLearningRate)
			plateau = 0
		}
		if cfg.Patience > 0 && stale >= cfg.Patience {
			log.Debug("early stopping", zap.Int("epoch", epoch), zap.Float64("best_val_loss", best))
			break
		}
	}

	n.Layers = bestNet.Layers
	report.ValidationLoss = best
	return report, nil
}
