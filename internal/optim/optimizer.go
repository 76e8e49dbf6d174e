// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//
// Optimizers read gradients directly from the parameter slots filled by a
// layer's ComputeGradients call, so the same loop drives any layer:
//
//	// Training loop
//	for epoch := range epochs {
//	    output := layer.TrainForward(input)
//	    fillErrors(ctx, output, targets)
//	    layer.Backward(ctx)
//	    layer.ComputeGradients(ctx)
//
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update model parameters based on computed gradients to
// minimize the loss function during training.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Reads each parameter's gradient slot and updates the parameter
	// tensor in-place. Parameters whose slot is empty are skipped.
	Step()

	// ZeroGrad clears all parameter gradients.
	//
	// Call before the next backward pass so stale gradients from a
	// previous step are never applied twice.
	ZeroGrad()

	// GetLR returns the current learning rate.
	//
	// Useful for monitoring and learning rate scheduling.
	GetLR() float32
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}
