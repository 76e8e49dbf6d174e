// Copyright 2026 Strata ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/strata-ml/strata/optim"
//	    "github.com/strata-ml/strata/nn"
//	    "github.com/strata-ml/strata/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    bn := nn.NewBatchNorm2d(16, 8, 8, backend)
//
//	    // Create optimizer
//	    optimizer := optim.NewSGD(
//	        bn.Parameters(),
//	        optim.SGDConfig{
//	            LR:       0.01,
//	            Momentum: 0.9,
//	        },
//	        backend,
//	    )
//
//	    // Training loop
//	    for epoch := 0; epoch < 10; epoch++ {
//	        bn.TrainForward(input)
//	        bn.Backward(ctx)
//	        bn.ComputeGradients(ctx)
//
//	        optimizer.Step()
//	        optimizer.ZeroGrad()
//	    }
//	}
//
// # Training Loop Pattern
//
// Optimizers read gradients from the parameter slots filled by the
// layer's ComputeGradients call; there is no gradient tape to thread
// through. Call ZeroGrad after Step so a stale gradient is never applied
// twice.
package optim
