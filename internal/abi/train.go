package abi

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sky-flux/flux-ffi/internal/engine"
	"github.com/sky-flux/flux-ffi/internal/engine/optimizer"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

// ComputeParameters fits parameters to the borrowed items, starting from
// the engine's parameters. Invalid handles are reported as errors; any
// training failure, including an empty or untrainable set, yields an
// empty parameter vector instead.
func (rt *Runtime) ComputeParameters(eh Handle, items []Handle) (Handle, error) {
	e, err := rt.engine(eh)
	if err != nil {
		return handle.Nil, err
	}
	set := make([]engine.Item, len(items))
	for i, ih := range items {
		it, err := rt.engineItem(ih)
		if err != nil {
			return handle.Nil, fmt.Errorf("item %d: %w", i, err)
		}
		set[i] = it
	}

	params, err := rt.train(e.Parameters(), set)
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, optimizer.ErrEmptyTrainingSet) {
			level = zap.DebugLevel
		}
		rt.log.Check(level, "training produced no parameters").Write(
			zap.Int("items", len(set)),
			zap.Error(err),
		)
		return rt.insert(handle.KindParameters, []float64{})
	}
	return rt.insert(handle.KindParameters, params[:])
}

func (rt *Runtime) train(start [engine.NumParameters]float64, items []engine.Item) (params [engine.NumParameters]float64, err error) {
	// The optimizer is opaque to the boundary; a panic inside it is a
	// training failure, not a boundary failure.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: optimizer panic: %v", ErrInternal, p)
		}
	}()
	o := optimizer.NewOptimizer(rt.optimizer)
	return o.ComputeParameters(context.Background(), start, items)
}

// ParametersLen returns the length of a parameter vector: 0 or 21.
func (rt *Runtime) ParametersLen(h Handle) (int, error) {
	p, err := rt.parameters(h)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// ParametersCopy copies the vector into dst and returns the number of
// values written. When dst is too short nothing is written and the
// required length is returned with ErrBufferTooSmall.
func (rt *Runtime) ParametersCopy(h Handle, dst []float32) (int, error) {
	p, err := rt.parameters(h)
	if err != nil {
		return 0, err
	}
	if len(dst) < len(p) {
		return len(p), fmt.Errorf("%w: need %d, have %d", ErrBufferTooSmall, len(p), len(dst))
	}
	for i, v := range p {
		dst[i] = float32(v)
	}
	return len(p), nil
}

// ParametersFree releases a parameter vector.
func (rt *Runtime) ParametersFree(h Handle) error {
	return rt.release(h, handle.KindParameters)
}

func (rt *Runtime) parameters(h Handle) ([]float64, error) {
	return handle.Lookup[[]float64](rt.reg, h, handle.KindParameters)
}
