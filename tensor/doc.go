// Copyright 2026 Strata ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Strata ML framework.
//
// # Overview
//
// Tensors are the fundamental data structure in Strata. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy operations where possible
//   - Copy-on-write buffers with reference counting
//
// # Basic Usage
//
//	import (
//	    "github.com/strata-ml/strata/tensor"
//	    "github.com/strata-ml/strata/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    norm := z.Sub(z.MeanDim(0, true))
//	}
//
// # Supported Data Types
//
// The tensor package supports floating-point data via the DType constraint:
//   - float32 (default for training)
//   - float64 (for numerically sensitive reductions)
//
// # Broadcasting
//
// Binary operations broadcast following NumPy rules: dimensions are
// right-aligned and a dimension of size 1 stretches to match its
// counterpart. A [channels] vector reshaped to [1, channels, 1, 1]
// therefore combines element-wise with a [batch, channels, height, width]
// activation.
package tensor
