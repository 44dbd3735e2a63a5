package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/sky-flux/flux-ffi/internal/config"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	return NewRuntime(config.Default(), zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)))
}

func mustEngine(t *testing.T, rt *Runtime) Handle {
	t.Helper()
	h, err := rt.EngineNew(nil)
	require.NoError(t, err)
	return h
}

func mustItem(t *testing.T, rt *Runtime, reviews ...ReviewRecord) Handle {
	t.Helper()
	h, err := rt.ItemNew(reviews)
	require.NoError(t, err)
	return h
}

func rec(rating, deltaT uint32) ReviewRecord {
	return ReviewRecord{Rating: rating, DeltaT: deltaT}
}

// syntheticHistories builds prefix items the same way the C training
// example does: for each card, one item per review after the first
// whose delta_t is positive.
func syntheticHistories(cards int) [][]ReviewRecord {
	patterns := [][]ReviewRecord{
		{rec(3, 0), rec(3, 1), rec(3, 3), rec(3, 8), rec(3, 21)},
		{rec(1, 0), rec(3, 0), rec(3, 1), rec(1, 3), rec(3, 1), rec(3, 4)},
		{rec(4, 0), rec(4, 8), rec(4, 30), rec(3, 90)},
		{rec(2, 0), rec(3, 1), rec(2, 2), rec(3, 5), rec(1, 12), rec(3, 1)},
		{rec(3, 0), rec(1, 2), rec(3, 1), rec(3, 3), rec(3, 9)},
	}
	var out [][]ReviewRecord
	for c := 0; c < cards; c++ {
		p := patterns[c%len(patterns)]
		for i := 1; i < len(p); i++ {
			if p[i].DeltaT > 0 {
				out = append(out, append([]ReviewRecord(nil), p[:i+1]...))
			}
		}
	}
	return out
}
