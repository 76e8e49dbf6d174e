// Copyright 2026 Strata ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: BatchNorm2d
//   - Training plumbing: StepContext, explicit Backward/ComputeGradients
//   - Utilities: Module interface, Parameter
//   - Initialization: Zeros, Ones, Randn
//
// # Basic Usage
//
//	import (
//	    "github.com/strata-ml/strata/nn"
//	    "github.com/strata-ml/strata/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    bn := nn.NewBatchNorm2d(16, 8, 8, backend)
//
//	    // Inference: uses the running statistics
//	    output := bn.Forward(input)
//	}
//
// # Training
//
// Layers in this package expose an explicit training step instead of an
// autodiff tape. One step is:
//
//	ctx := nn.NewStepContext(bn, batchSize, backend)
//
//	out := bn.TrainForward(input)      // batch stats + cached state
//	fillErrors(ctx, out, targets)      // dL/dy into ctx.Errors
//	inputGrad := bn.Backward(ctx)      // dL/dx, for the upstream layer
//	bn.ComputeGradients(ctx)           // dL/dgamma, dL/dbeta
//
//	optimizer.Step()
//	optimizer.ZeroGrad()
//
// TrainForward, Backward and ComputeGradients share per-step cached
// state and must not run concurrently on the same layer. Forward is
// pure and may be called from multiple goroutines between steps.
package nn
