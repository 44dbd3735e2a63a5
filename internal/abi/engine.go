package abi

import (
	"github.com/sky-flux/flux-ffi/internal/engine"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

// EngineNew creates an engine from params. An empty vector selects the
// default FSRS-6 parameters; 17 and 19 element vectors are migrated.
func (rt *Runtime) EngineNew(params []float32) (Handle, error) {
	e, err := engine.New(paramsToEngine(params))
	if err != nil {
		return handle.Nil, err
	}
	return rt.insert(handle.KindEngine, e)
}

// EngineFree releases an engine. Releasing the null handle is a no-op.
func (rt *Runtime) EngineFree(h Handle) error {
	return rt.release(h, handle.KindEngine)
}

// EngineParameters copies the engine's effective parameters into a new
// parameter vector owned by the caller.
func (rt *Runtime) EngineParameters(h Handle) (Handle, error) {
	e, err := rt.engine(h)
	if err != nil {
		return handle.Nil, err
	}
	w := e.Parameters()
	return rt.insert(handle.KindParameters, w[:])
}

func (rt *Runtime) engine(h Handle) (*engine.Engine, error) {
	return handle.Lookup[*engine.Engine](rt.reg, h, handle.KindEngine)
}
