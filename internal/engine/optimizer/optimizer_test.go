package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/sky-flux/flux-ffi/internal/engine"
)

// --- NewOptimizer ---

func TestNewOptimizerDefaults(t *testing.T) {
	o := NewOptimizer(OptimizerConfig{})
	if o.epochs != 5 {
		t.Errorf("epochs = %d, want 5", o.epochs)
	}
	if o.miniBatchSize != 512 {
		t.Errorf("miniBatchSize = %d, want 512", o.miniBatchSize)
	}
	if o.learningRate != 0.04 {
		t.Errorf("learningRate = %f, want 0.04", o.learningRate)
	}
	if o.maxSeqLen != 64 {
		t.Errorf("maxSeqLen = %d, want 64", o.maxSeqLen)
	}
	if o.minItems != 8 {
		t.Errorf("minItems = %d, want 8", o.minItems)
	}
}

func TestNewOptimizerCustom(t *testing.T) {
	o := NewOptimizer(OptimizerConfig{
		Epochs:        10,
		MiniBatchSize: 256,
		LearningRate:  0.01,
		MaxSeqLen:     32,
		MinItems:      100,
	})
	if o.epochs != 10 || o.miniBatchSize != 256 || o.learningRate != 0.01 ||
		o.maxSeqLen != 32 || o.minItems != 100 {
		t.Errorf("NewOptimizer ignored config: %+v", o)
	}
}

// --- ComputeParameters ---

func TestComputeParametersEmpty(t *testing.T) {
	o := NewOptimizer(OptimizerConfig{})
	_, err := o.ComputeParameters(context.Background(), engine.DefaultParameters, nil)
	if !errors.Is(err, ErrEmptyTrainingSet) {
		t.Fatalf("error = %v, want ErrEmptyTrainingSet", err)
	}
}

func TestComputeParametersInsufficientData(t *testing.T) {
	o := NewOptimizer(OptimizerConfig{})
	items := []engine.Item{
		item(rv(engine.Good, 0), rv(engine.Good, 0), rv(engine.Good, 3)),
		item(rv(engine.Good, 0)),
	}
	params, err := o.ComputeParameters(context.Background(), engine.DefaultParameters, items)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
	if params != engine.DefaultParameters {
		t.Error("expected the start parameters for insufficient data")
	}
}

func TestComputeParametersInvalidStart(t *testing.T) {
	o := NewOptimizer(OptimizerConfig{})
	start := engine.DefaultParameters
	start[16] = 0
	_, err := o.ComputeParameters(context.Background(), start, generateSyntheticItems(5, 3, 1))
	if !errors.Is(err, engine.ErrInvalidParameters) {
		t.Fatalf("error = %v, want engine.ErrInvalidParameters", err)
	}
}

func TestComputeParametersLossNotWorse(t *testing.T) {
	items := generateSyntheticItems(300, 10, 42)
	o := NewOptimizer(OptimizerConfig{Epochs: 3})

	initialLoss := o.ComputeBatchLoss(engine.DefaultParameters, items)
	optimized, err := o.ComputeParameters(context.Background(), engine.DefaultParameters, items)
	if err != nil {
		t.Fatalf("ComputeParameters: %v", err)
	}
	if optimizedLoss := o.ComputeBatchLoss(optimized, items); optimizedLoss > initialLoss {
		t.Errorf("optimized loss %f > initial loss %f", optimizedLoss, initialLoss)
	}
}

func TestComputeParametersInBounds(t *testing.T) {
	items := generateSyntheticItems(200, 8, 3)
	o := NewOptimizer(OptimizerConfig{Epochs: 2, MiniBatchSize: 128})

	optimized, err := o.ComputeParameters(context.Background(), engine.DefaultParameters, items)
	if err != nil {
		t.Fatalf("ComputeParameters: %v", err)
	}
	if err := engine.ValidateParameters(optimized); err != nil {
		t.Errorf("optimized parameters invalid: %v", err)
	}
}

func TestComputeParametersDeterministic(t *testing.T) {
	items := generateSyntheticItems(60, 6, 11)
	o := NewOptimizer(OptimizerConfig{Epochs: 2, MiniBatchSize: 64})

	a, err := o.ComputeParameters(context.Background(), engine.DefaultParameters, items)
	if err != nil {
		t.Fatalf("ComputeParameters: %v", err)
	}
	b, _ := o.ComputeParameters(context.Background(), engine.DefaultParameters, items)
	if a != b {
		t.Error("ComputeParameters is not deterministic for identical input")
	}
}

func TestComputeParametersContextCancel(t *testing.T) {
	items := generateSyntheticItems(100, 6, 42)
	o := NewOptimizer(OptimizerConfig{Epochs: 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.ComputeParameters(ctx, engine.DefaultParameters, items)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestComputeParametersMaxSeqLen(t *testing.T) {
	// Every synthetic item has at least two reviews; MaxSeqLen=1 leaves none.
	items := generateSyntheticItems(50, 5, 42)
	o := NewOptimizer(OptimizerConfig{Epochs: 1, MaxSeqLen: 1})

	_, err := o.ComputeParameters(context.Background(), engine.DefaultParameters, items)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
}

// --- ComputeBatchLoss (public) ---

func TestComputeBatchLossPublicEmpty(t *testing.T) {
	o := NewOptimizer(OptimizerConfig{})
	if loss := o.ComputeBatchLoss(engine.DefaultParameters, nil); loss != 0 {
		t.Errorf("ComputeBatchLoss(nil) = %f, want 0", loss)
	}
}

// --- clampParams ---

func TestClampParams(t *testing.T) {
	var low vec
	clamped := clampParams(low)
	if clamped != engine.LowerBounds {
		t.Errorf("clampParams(zeros) = %v, want LowerBounds", clamped)
	}

	var high vec
	for i := range high {
		high[i] = 999.0
	}
	if clamped := clampParams(high); clamped != engine.UpperBounds {
		t.Errorf("clampParams(999) = %v, want UpperBounds", clamped)
	}
}
