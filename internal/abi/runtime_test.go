package abi

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sky-flux/flux-ffi/internal/config"
	"github.com/sky-flux/flux-ffi/internal/engine"
	"github.com/sky-flux/flux-ffi/internal/handle"
)

// --- engine lifecycle ---

func TestEngineDefaultParameters(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)

	p, err := rt.EngineParameters(e)
	require.NoError(t, err)
	n, err := rt.ParametersLen(p)
	require.NoError(t, err)
	assert.Equal(t, engine.NumParameters, n)

	got := make([]float32, n)
	_, err = rt.ParametersCopy(p, got)
	require.NoError(t, err)
	for i, w := range engine.DefaultParameters {
		assert.Equal(t, float32(w), got[i], "w[%d]", i)
	}

	require.NoError(t, rt.ParametersFree(p))
	require.NoError(t, rt.EngineFree(e))
	assert.Zero(t, rt.LiveHandles())
}

func TestEngineNewParameterLengths(t *testing.T) {
	rt := newTestRuntime(t)
	full := make([]float32, engine.NumParameters)
	for i, w := range engine.DefaultParameters {
		full[i] = float32(w)
	}

	for _, n := range []int{0, 17, 19, 21} {
		h, err := rt.EngineNew(full[:n])
		require.NoError(t, err, "len %d", n)
		require.NoError(t, rt.EngineFree(h))
	}
	for _, n := range []int{1, 18, 20} {
		_, err := rt.EngineNew(full[:n])
		assert.Equal(t, StatusInvalidParameters, StatusOf(err), "len %d", n)
	}
	assert.Zero(t, rt.LiveHandles())
}

func TestEngineNewRejectsOutOfBounds(t *testing.T) {
	rt := newTestRuntime(t)
	p := make([]float32, engine.NumParameters)
	for i, w := range engine.DefaultParameters {
		p[i] = float32(w)
	}
	p[4] = 50
	_, err := rt.EngineNew(p)
	assert.Equal(t, StatusInvalidParameters, StatusOf(err))
}

func TestEngineFree(t *testing.T) {
	rt := newTestRuntime(t)
	assert.NoError(t, rt.EngineFree(handle.Nil), "null is a no-op")

	e := mustEngine(t, rt)
	require.NoError(t, rt.EngineFree(e))
	assert.Equal(t, StatusStaleHandle, StatusOf(rt.EngineFree(e)), "double free")
}

// --- items and records ---

func TestItemLengthFidelity(t *testing.T) {
	rt := newTestRuntime(t)
	in := []ReviewRecord{rec(3, 0), rec(1, 1), rec(3, 3), rec(4, 7), rec(2, 16)}

	// The caller's slice is copied; later writes do not leak in.
	src := append([]ReviewRecord(nil), in...)
	it := mustItem(t, rt, src...)
	src[0] = rec(1, 99)

	n, err := rt.ItemLen(it)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)

	out := make([]ReviewRecord, n)
	written, err := rt.ItemReviews(it, out)
	require.NoError(t, err)
	assert.Equal(t, n, written)
	assert.Equal(t, in, out)

	require.NoError(t, rt.ItemFree(it))
	assert.Zero(t, rt.LiveHandles())
}

func TestItemEmpty(t *testing.T) {
	rt := newTestRuntime(t)
	it := mustItem(t, rt)
	n, err := rt.ItemLen(it)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, rt.ItemFree(it))
}

func TestItemReviewsBufferTooSmall(t *testing.T) {
	rt := newTestRuntime(t)
	it := mustItem(t, rt, rec(3, 0), rec(3, 2))

	dst := make([]ReviewRecord, 1)
	need, err := rt.ItemReviews(it, dst)
	assert.Equal(t, StatusBufferTooSmall, StatusOf(err))
	assert.Equal(t, 2, need)
	assert.Equal(t, ReviewRecord{}, dst[0], "nothing written")
}

func TestItemNewRejectsRating(t *testing.T) {
	rt := newTestRuntime(t)
	for _, bad := range []uint32{0, 5} {
		_, err := rt.ItemNew([]ReviewRecord{rec(3, 0), rec(bad, 1)})
		assert.Equal(t, StatusInvalidRating, StatusOf(err))
	}
	assert.Zero(t, rt.LiveHandles())
}

func TestItemOwnsHistory(t *testing.T) {
	rt := newTestRuntime(t)
	it := mustItem(t, rt, rec(3, 0))
	assert.Equal(t, 2, rt.LiveHandles(), "item and its history")

	children, err := rt.reg.Children(it)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, StatusOwned, StatusOf(rt.reg.Release(children[0], handle.KindHistory)))

	require.NoError(t, rt.ItemFree(it))
	assert.Zero(t, rt.LiveHandles())
	assert.Equal(t, StatusStaleHandle, StatusOf(rt.ItemFree(it)))
}

func TestItemNewExhaustedLeavesNothing(t *testing.T) {
	cfg := config.Default()
	cfg.Registry.Capacity = 1
	rt := NewRuntime(cfg, nil)

	_, err := rt.ItemNew([]ReviewRecord{rec(3, 0)})
	assert.Equal(t, StatusExhausted, StatusOf(err))
	assert.Zero(t, rt.LiveHandles())
}

func TestReviewRoundTrip(t *testing.T) {
	rt := newTestRuntime(t)
	h, err := rt.ReviewNew(4, 12)
	require.NoError(t, err)

	got, err := rt.ReviewGet(h)
	require.NoError(t, err)
	assert.Equal(t, rec(4, 12), got)

	require.NoError(t, rt.ReviewFree(h))
	_, err = rt.ReviewGet(h)
	assert.Equal(t, StatusStaleHandle, StatusOf(err))

	_, err = rt.ReviewNew(0, 1)
	assert.Equal(t, StatusInvalidRating, StatusOf(err))
}

func TestMemoryStateCreateFreeNotReusable(t *testing.T) {
	rt := newTestRuntime(t)
	ms, err := rt.MemoryStateNew(5.0, 5.0)
	require.NoError(t, err)

	got, err := rt.MemoryStateGet(ms)
	require.NoError(t, err)
	assert.Equal(t, MemoryState{Stability: 5, Difficulty: 5}, got)

	require.NoError(t, rt.MemoryStateFree(ms))
	assert.Zero(t, rt.LiveHandles())

	_, err = rt.MemoryStateGet(ms)
	assert.Equal(t, StatusStaleHandle, StatusOf(err))
	assert.Equal(t, StatusStaleHandle, StatusOf(rt.MemoryStateFree(ms)))

	e := mustEngine(t, rt)
	_, err = rt.NextStates(e, ms, 0.9, 1)
	assert.Equal(t, StatusStaleHandle, StatusOf(err))
}

func TestWrongKind(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)
	ms, err := rt.MemoryStateNew(5, 5)
	require.NoError(t, err)

	_, err = rt.NextStates(ms, handle.Nil, 0.9, 0)
	assert.Equal(t, StatusWrongKind, StatusOf(err))
	assert.Equal(t, StatusWrongKind, StatusOf(rt.MemoryStateFree(e)))
	assert.Equal(t, StatusWrongKind, StatusOf(rt.ItemFree(ms)))
	assert.Equal(t, 2, rt.LiveHandles())
}

func TestNullHandleInputs(t *testing.T) {
	rt := newTestRuntime(t)
	_, err := rt.NextStates(handle.Nil, handle.Nil, 0.9, 0)
	assert.Equal(t, StatusNullHandle, StatusOf(err))

	_, err = rt.ItemLen(handle.Nil)
	assert.Equal(t, StatusNullHandle, StatusOf(err))

	for _, free := range []func(Handle) error{
		rt.EngineFree, rt.ItemFree, rt.ReviewFree, rt.MemoryStateFree,
		rt.NextStatesFree, rt.ParametersFree,
	} {
		assert.NoError(t, free(handle.Nil))
	}
}

// --- next states ---

func TestNextStatesFreshItem(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)

	ns, err := rt.NextStates(e, handle.Nil, 0.9, 0)
	require.NoError(t, err)

	var states [4]ItemState
	for i, r := range []uint32{1, 2, 3, 4} {
		states[i], err = rt.NextStatesGet(ns, r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, states[i].Interval, float32(0))
		assert.Greater(t, states[i].Memory.Stability, float32(0))
		assert.GreaterOrEqual(t, states[i].Memory.Difficulty, float32(1))
		assert.LessOrEqual(t, states[i].Memory.Difficulty, float32(10))
		assert.Equal(t, float32(engine.DefaultParameters[i]), states[i].Memory.Stability, "S0")
	}
	assert.GreaterOrEqual(t, states[2].Interval, states[0].Interval, "good >= again")

	// Read-out is repeatable.
	again, err := rt.NextStatesGet(ns, 3)
	require.NoError(t, err)
	assert.Equal(t, states[2], again)

	require.NoError(t, rt.NextStatesFree(ns))
	require.NoError(t, rt.EngineFree(e))
	assert.Zero(t, rt.LiveHandles())
}

func TestNextStatesDeterministic(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)
	ms, err := rt.MemoryStateNew(7.5, 4.2)
	require.NoError(t, err)

	read := func() [4]ItemState {
		ns, err := rt.NextStates(e, ms, 0.85, 9)
		require.NoError(t, err)
		defer rt.NextStatesFree(ns)
		var out [4]ItemState
		for i := range out {
			out[i], err = rt.NextStatesGet(ns, uint32(i+1))
			require.NoError(t, err)
		}
		return out
	}
	assert.Equal(t, read(), read())
}

func TestNextStatesConcurrent(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)
	ms, err := rt.MemoryStateNew(3, 6)
	require.NoError(t, err)

	want, err := rt.NextStates(e, ms, 0.9, 4)
	require.NoError(t, err)
	wantGood, err := rt.NextStatesGet(want, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				ns, err := rt.NextStates(e, ms, 0.9, 4)
				if !assert.NoError(t, err) {
					return
				}
				good, err := rt.NextStatesGet(ns, 3)
				assert.NoError(t, err)
				assert.Equal(t, wantGood, good)
				assert.NoError(t, rt.NextStatesFree(ns))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, rt.LiveHandles())
}

func TestNextStatesPreconditions(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)

	for _, dr := range []float32{0, 1, -0.5, 1.5} {
		_, err := rt.NextStates(e, handle.Nil, dr, 0)
		assert.Equal(t, StatusInvalidRetention, StatusOf(err), "retention %v", dr)
	}

	bad := [][2]float32{{0, 5}, {-1, 5}, {5, 0.5}, {5, 11}}
	for _, sd := range bad {
		ms, err := rt.MemoryStateNew(sd[0], sd[1])
		require.NoError(t, err)
		_, err = rt.NextStates(e, ms, 0.9, 1)
		assert.Equal(t, StatusInvalidMemoryState, StatusOf(err), "state %v", sd)
		require.NoError(t, rt.MemoryStateFree(ms))
	}

	ns, err := rt.NextStates(e, handle.Nil, 0.9, 0)
	require.NoError(t, err)
	_, err = rt.NextStatesGet(ns, 0)
	assert.Equal(t, StatusInvalidRating, StatusOf(err))
}

func TestMemoryStateFromItem(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)
	it := mustItem(t, rt, rec(3, 0), rec(3, 1), rec(1, 3))

	ms, err := rt.MemoryStateFromItem(e, it, handle.Nil)
	require.NoError(t, err)
	got, err := rt.MemoryStateGet(ms)
	require.NoError(t, err)

	// Chaining NextStates by hand must agree.
	var cur Handle
	for _, r := range []ReviewRecord{rec(3, 0), rec(3, 1), rec(1, 3)} {
		ns, err := rt.NextStates(e, cur, 0.9, r.DeltaT)
		require.NoError(t, err)
		s, err := rt.NextStatesGet(ns, r.Rating)
		require.NoError(t, err)
		require.NoError(t, rt.NextStatesFree(ns))
		require.NoError(t, rt.MemoryStateFree(cur))
		cur, err = rt.MemoryStateNew(s.Memory.Stability, s.Memory.Difficulty)
		require.NoError(t, err)
	}
	want, err := rt.MemoryStateGet(cur)
	require.NoError(t, err)
	assert.InDelta(t, want.Stability, got.Stability, 1e-4)
	assert.InDelta(t, want.Difficulty, got.Difficulty, 1e-4)

	empty := mustItem(t, rt)
	_, err = rt.MemoryStateFromItem(e, empty, handle.Nil)
	assert.Equal(t, StatusInvalidArgument, StatusOf(err))

	same, err := rt.MemoryStateFromItem(e, empty, ms)
	require.NoError(t, err)
	sameState, err := rt.MemoryStateGet(same)
	require.NoError(t, err)
	assert.Equal(t, got, sameState)
}

func TestRetrievability(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)
	ms, err := rt.MemoryStateNew(10, 5)
	require.NoError(t, err)

	r0, err := rt.Retrievability(e, ms, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r0, 1e-6)

	r10, err := rt.Retrievability(e, ms, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, r10, 1e-4, "R(S, S) is 0.9 by construction")

	r30, err := rt.Retrievability(e, ms, 30)
	require.NoError(t, err)
	assert.Less(t, r30, r10)
}

// --- training ---

func TestComputeParametersEmptySet(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)

	p, err := rt.ComputeParameters(e, nil)
	require.NoError(t, err)
	n, err := rt.ParametersLen(p)
	require.NoError(t, err)
	assert.Zero(t, n)

	written, err := rt.ParametersCopy(p, nil)
	require.NoError(t, err)
	assert.Zero(t, written)

	require.NoError(t, rt.ParametersFree(p))
	require.NoError(t, rt.EngineFree(e))
	assert.Zero(t, rt.LiveHandles())
}

func TestComputeParametersUntrainable(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)
	// Single reviews and same-day targets never count.
	items := []Handle{
		mustItem(t, rt, rec(3, 0)),
		mustItem(t, rt, rec(3, 0), rec(3, 0)),
	}

	p, err := rt.ComputeParameters(e, items)
	require.NoError(t, err)
	n, err := rt.ParametersLen(p)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestComputeParametersBorrowsItems(t *testing.T) {
	cfg := config.Default()
	cfg.Optimizer.Epochs = 1
	rt := NewRuntime(cfg, nil)
	e := mustEngine(t, rt)

	var items []Handle
	for _, h := range syntheticHistories(20) {
		items = append(items, mustItem(t, rt, h...))
	}
	before := rt.LiveHandles()

	p, err := rt.ComputeParameters(e, items)
	require.NoError(t, err)
	assert.Equal(t, before+1, rt.LiveHandles(), "items stay live")

	n, err := rt.ParametersLen(p)
	require.NoError(t, err)
	require.Equal(t, engine.NumParameters, n)

	short := make([]float32, 3)
	need, err := rt.ParametersCopy(p, short)
	assert.Equal(t, StatusBufferTooSmall, StatusOf(err))
	assert.Equal(t, engine.NumParameters, need)

	out := make([]float32, n)
	_, err = rt.ParametersCopy(p, out)
	require.NoError(t, err)

	// The fitted vector is accepted by a new engine.
	e2, err := rt.EngineNew(out)
	require.NoError(t, err)

	require.NoError(t, rt.EngineFree(e2))
	require.NoError(t, rt.ParametersFree(p))
	for _, it := range items {
		require.NoError(t, rt.ItemFree(it))
	}
	require.NoError(t, rt.EngineFree(e))
	assert.Zero(t, rt.LiveHandles())
}

func TestComputeParametersInvalidItem(t *testing.T) {
	rt := newTestRuntime(t)
	e := mustEngine(t, rt)
	it := mustItem(t, rt, rec(3, 0), rec(3, 2))
	require.NoError(t, rt.ItemFree(it))

	_, err := rt.ComputeParameters(e, []Handle{it})
	assert.Equal(t, StatusStaleHandle, StatusOf(err))

	_, err = rt.ComputeParameters(e, []Handle{handle.Nil})
	assert.Equal(t, StatusNullHandle, StatusOf(err))
	assert.Equal(t, 1, rt.LiveHandles())
}

func TestOwnershipRoundTrip(t *testing.T) {
	rt := newTestRuntime(t)

	e := mustEngine(t, rt)
	ms, err := rt.MemoryStateNew(5, 5)
	require.NoError(t, err)
	rv, err := rt.ReviewNew(3, 1)
	require.NoError(t, err)
	it := mustItem(t, rt, rec(3, 0), rec(3, 1))
	ns, err := rt.NextStates(e, ms, 0.9, 3)
	require.NoError(t, err)
	p, err := rt.ComputeParameters(e, []Handle{it})
	require.NoError(t, err)
	from, err := rt.MemoryStateFromItem(e, it, handle.Nil)
	require.NoError(t, err)

	assert.Equal(t, 8, rt.LiveHandles())

	require.NoError(t, rt.MemoryStateFree(from))
	require.NoError(t, rt.ParametersFree(p))
	require.NoError(t, rt.NextStatesFree(ns))
	require.NoError(t, rt.ItemFree(it))
	require.NoError(t, rt.ReviewFree(rv))
	require.NoError(t, rt.MemoryStateFree(ms))
	require.NoError(t, rt.EngineFree(e))
	assert.Zero(t, rt.LiveHandles())
}
