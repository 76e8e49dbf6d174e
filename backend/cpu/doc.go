// Copyright 2026 Strata ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 support
//   - gonum-accelerated float64 kernels
//   - NumPy-compatible broadcasting
//   - In-place fast paths for uniquely referenced buffers
//
// # Basic Usage
//
//	import (
//	    "github.com/strata-ml/strata/backend/cpu"
//	    "github.com/strata-ml/strata/tensor"
//	    "github.com/strata-ml/strata/nn"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Use with tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    // Use with neural networks
//	    bn := nn.NewBatchNorm2d(16, 8, 8, backend)
//	}
//
// # Memory Behavior
//
// Element-wise binary operations reuse the left operand's buffer when the
// shapes match and the buffer has a single reference. Clone an operand
// first when its contents must survive the operation.
package cpu
