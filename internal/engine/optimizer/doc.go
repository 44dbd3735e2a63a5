// Package optimizer fits FSRS-6 parameters to a corpus of review-history
// items.
//
// Each [engine.Item] is a review history whose last review is the
// prediction target. The preceding reviews are replayed into a memory
// state, and the loss is the binary cross-entropy between the predicted
// retrievability at the target's delta_t and whether the target was
// recalled (any rating but Again). Only items with at least one prior
// review and a cross-day target contribute.
//
// [Optimizer.ComputeParameters] minimizes that loss with mini-batch
// gradient descent: numerical central-difference gradients, the [Adam]
// update rule and a [CosineAnnealing] learning-rate schedule. Training is
// CPU-bound and runs on the calling goroutine.
//
//	opt := optimizer.NewOptimizer(optimizer.OptimizerConfig{Epochs: 3})
//	params, err := opt.ComputeParameters(ctx, engine.DefaultParameters, items)
package optimizer
