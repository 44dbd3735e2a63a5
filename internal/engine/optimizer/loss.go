package optimizer

import (
	"math"

	"github.com/sky-flux/flux-ffi/internal/engine"
)

const bceClamp = 1e-7

// bceLoss computes the binary cross-entropy loss: -[y*ln(p) + (1-y)*ln(1-p)].
// rPred is clamped to [bceClamp, 1-bceClamp] to avoid log(0).
func bceLoss(rPred, y float64) float64 {
	p := math.Max(bceClamp, math.Min(rPred, 1-bceClamp))
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// computeBatchLoss computes the average BCE loss of params over the items.
// Returns 0 if no item can be predicted.
func computeBatchLoss(params [engine.NumParameters]float64, items []engine.Item) float64 {
	e := engine.NewUnchecked(params)

	var totalLoss float64
	var count int
	for _, it := range items {
		rPred, ok := e.PredictRecall(it)
		if !ok {
			continue
		}
		totalLoss += bceLoss(rPred, label(it))
		count++
	}

	if count == 0 {
		return 0
	}
	return totalLoss / float64(count)
}

const gradEps = 1e-5

// numericalGradient computes the gradient of the batch loss w.r.t. each parameter
// using central differences: dL/dw[i] ≈ (L(w[i]+ε) - L(w[i]-ε)) / (2ε).
func numericalGradient(params [engine.NumParameters]float64, items []engine.Item) [engine.NumParameters]float64 {
	var grad [engine.NumParameters]float64
	for i := range params {
		pPlus := params
		pPlus[i] += gradEps
		pMinus := params
		pMinus[i] -= gradEps

		lPlus := computeBatchLoss(pPlus, items)
		lMinus := computeBatchLoss(pMinus, items)

		g := (lPlus - lMinus) / (2 * gradEps)
		if math.IsNaN(g) || math.IsInf(g, 0) {
			g = 0
		}
		grad[i] = g
	}
	return grad
}
