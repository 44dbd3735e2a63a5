package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sky-flux/flux-ffi/internal/engine"
)

var (
	// ErrEmptyTrainingSet is returned when no items are provided.
	ErrEmptyTrainingSet = errors.New("optimizer: empty training set")

	// ErrInsufficientData is returned when fewer than MinItems items can
	// contribute to the loss.
	ErrInsufficientData = errors.New("optimizer: insufficient trainable items")
)

// OptimizerConfig configures the training process.
// Zero values are replaced with sensible defaults.
type OptimizerConfig struct {
	Epochs        int     `json:"epochs" mapstructure:"epochs"`                   // default 5
	MiniBatchSize int     `json:"mini_batch_size" mapstructure:"mini_batch_size"` // default 512
	LearningRate  float64 `json:"learning_rate" mapstructure:"learning_rate"`     // default 0.04
	MaxSeqLen     int     `json:"max_seq_len" mapstructure:"max_seq_len"`         // default 64
	MinItems      int     `json:"min_items" mapstructure:"min_items"`             // default 8
}

// Optimizer trains FSRS parameters from review-history items using
// mini-batch gradient descent with Adam and cosine annealing learning rate.
type Optimizer struct {
	epochs        int
	miniBatchSize int
	learningRate  float64
	maxSeqLen     int
	minItems      int
}

// NewOptimizer creates an Optimizer with the given config.
// Zero-valued fields receive defaults: Epochs=5, MiniBatchSize=512,
// LearningRate=0.04, MaxSeqLen=64, MinItems=8.
func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	o := &Optimizer{
		epochs:        cfg.Epochs,
		miniBatchSize: cfg.MiniBatchSize,
		learningRate:  cfg.LearningRate,
		maxSeqLen:     cfg.MaxSeqLen,
		minItems:      cfg.MinItems,
	}
	if o.epochs <= 0 {
		o.epochs = 5
	}
	if o.miniBatchSize <= 0 {
		o.miniBatchSize = 512
	}
	if o.learningRate <= 0 {
		o.learningRate = 0.04
	}
	if o.maxSeqLen <= 0 {
		o.maxSeqLen = 64
	}
	if o.minItems <= 0 {
		o.minItems = 8
	}
	return o
}

// ComputeParameters fits parameters to items, starting from start.
//
// It returns ErrEmptyTrainingSet for an empty input and ErrInsufficientData
// (along with start) when fewer than MinItems items are trainable. The
// result is the best parameter vector seen at an epoch boundary, so its
// loss is never above that of start. The context is checked between
// mini-batches.
func (o *Optimizer) ComputeParameters(ctx context.Context, start [engine.NumParameters]float64, items []engine.Item) ([engine.NumParameters]float64, error) {
	if len(items) == 0 {
		return [engine.NumParameters]float64{}, ErrEmptyTrainingSet
	}
	if err := engine.ValidateParameters(start); err != nil {
		return [engine.NumParameters]float64{}, err
	}

	data := prepare(items, o.maxSeqLen)
	if len(data) < o.minItems {
		return start, fmt.Errorf("%w: %d of %d required", ErrInsufficientData, len(data), o.minItems)
	}

	params := start
	batches := int(math.Ceil(float64(len(data)) / float64(o.miniBatchSize)))
	adam := NewAdam(o.learningRate)
	ca := NewCosineAnnealing(o.learningRate, batches*o.epochs)
	rng := rand.New(rand.NewSource(42))

	order := make([]int, len(data))
	for i := range order {
		order[i] = i
	}
	batch := make([]engine.Item, 0, o.miniBatchSize)

	bestParams := params
	bestLoss := computeBatchLoss(params, data)

	for epoch := 0; epoch < o.epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for lo := 0; lo < len(order); lo += o.miniBatchSize {
			if err := ctx.Err(); err != nil {
				return bestParams, err
			}
			hi := min(lo+o.miniBatchSize, len(order))
			batch = batch[:0]
			for _, idx := range order[lo:hi] {
				batch = append(batch, data[idx])
			}

			grad := numericalGradient(params, batch)
			adam.SetLR(ca.LR())
			params = clampParams(adam.Update(params, grad))
			ca.Step()
		}

		// Track best parameters by epoch loss.
		epochLoss := computeBatchLoss(params, data)
		if epochLoss < bestLoss {
			bestLoss = epochLoss
			bestParams = params
		}
	}

	return bestParams, nil
}

// ComputeBatchLoss computes the average BCE loss of params over the
// trainable items.
func (o *Optimizer) ComputeBatchLoss(params [engine.NumParameters]float64, items []engine.Item) float64 {
	return computeBatchLoss(params, prepare(items, o.maxSeqLen))
}

// clampParams constrains each parameter to [LowerBounds, UpperBounds].
func clampParams(params [engine.NumParameters]float64) [engine.NumParameters]float64 {
	for i := range params {
		params[i] = math.Min(math.Max(params[i], engine.LowerBounds[i]), engine.UpperBounds[i])
	}
	return params
}
