// Command libfsrs builds the FSRS C shared library:
//
//	go build -buildmode=c-shared -o libfsrs.so ./cmd/libfsrs
//
// C callers include fsrs.h from this directory. Configuration is read
// once, on the first call, from FSRS_* environment variables, the FSRS_*
// keys of an optional .env file and the file named by FSRS_CONFIG_FILE.
// The host process environment is never modified.
package main

/*
#include "fsrs_types.h"
*/
import "C"

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sky-flux/flux-ffi/internal/abi"
	"github.com/sky-flux/flux-ffi/internal/config"
	"github.com/sky-flux/flux-ffi/internal/logging"
)

var (
	libOnce sync.Once
	libRT   *abi.Runtime
)

// lib returns the process-wide runtime, creating it on first use.
func lib() *abi.Runtime {
	libOnce.Do(func() {
		cfg, cfgErr := config.LoadEmbedded()
		if cfgErr != nil {
			cfg = config.Default()
		}
		logger, err := logging.New(cfg.Environment, cfg.LogLevel)
		if err != nil {
			logger = zap.NewNop()
		}
		if cfgErr != nil {
			logger.Warn("using default configuration", zap.Error(cfgErr))
		}
		libRT = abi.NewRuntime(cfg, logger)
	})
	return libRT
}

// call runs fn under the runtime's guard and converts the result.
func call(op string, fn func(rt *abi.Runtime) error) C.fsrs_status {
	rt := lib()
	return C.fsrs_status(rt.Guard(op, func() error { return fn(rt) }))
}

func main() {}
