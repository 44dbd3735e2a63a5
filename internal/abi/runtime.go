package abi

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/sky-flux/flux-ffi/internal/config"
	"github.com/sky-flux/flux-ffi/internal/engine/optimizer"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

// Handle is an opaque token handed to C callers. Zero is the null handle.
type Handle = handle.Handle

// Runtime owns the handle registry shared by every entry point.
// It is safe for concurrent use.
type Runtime struct {
	reg       *handle.Registry
	log       *zap.Logger
	optimizer optimizer.OptimizerConfig
}

// NewRuntime returns a Runtime configured by cfg. A nil logger is
// replaced by a no-op logger.
func NewRuntime(cfg config.Config, log *zap.Logger) *Runtime {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{
		reg:       handle.NewRegistry(cfg.Registry.Capacity),
		log:       log,
		optimizer: cfg.Optimizer,
	}
}

// LiveHandles returns the number of handles not yet released, children
// included.
func (rt *Runtime) LiveHandles() int {
	return rt.reg.Live()
}

// Guard runs fn on behalf of the named entry point and reports its
// outcome as a Status. A panic inside fn is recovered and reported as
// StatusInternal.
func (rt *Runtime) Guard(op string, fn func() error) (st Status) {
	defer func() {
		if p := recover(); p != nil {
			rt.log.Error("recovered panic",
				zap.String("op", op),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()),
			)
			st = StatusInternal
		}
	}()

	err := fn()
	st = StatusOf(err)
	switch st {
	case StatusOK:
	case StatusStaleHandle, StatusWrongKind, StatusOwned, StatusInternal:
		rt.log.Warn("call failed", zap.String("op", op), zap.Stringer("status", st), zap.Error(err))
	default:
		rt.log.Debug("call rejected", zap.String("op", op), zap.Stringer("status", st), zap.Error(err))
	}
	return st
}

func (rt *Runtime) insert(kind handle.Kind, v any) (Handle, error) {
	h, err := rt.reg.Insert(kind, v)
	if err != nil {
		return handle.Nil, err
	}
	rt.log.Debug("handle created", zap.Stringer("kind", kind), zap.Stringer("handle", h))
	return h, nil
}

func (rt *Runtime) release(h Handle, kind handle.Kind) error {
	if err := rt.reg.Release(h, kind); err != nil {
		return fmt.Errorf("release %s: %w", kind, err)
	}
	if h != handle.Nil {
		rt.log.Debug("handle released", zap.Stringer("kind", kind), zap.Stringer("handle", h))
	}
	return nil
}
