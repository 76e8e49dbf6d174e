// Copyright 2026 Strata ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/strata-ml/strata/internal/nn"
	"github.com/strata-ml/strata/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// BatchNorm2d applies Batch Normalization over a 4D activation tensor
// [batch, channels, height, width], normalizing per channel.
type BatchNorm2d[B tensor.Backend] = nn.BatchNorm2d[B]

// BatchNorm2dConfig holds configuration for BatchNorm2d.
// Zero fields fall back to the package defaults.
type BatchNorm2dConfig = nn.BatchNorm2dConfig

// Default hyperparameters for BatchNorm2d.
const (
	DefaultMomentum = nn.DefaultMomentum
	DefaultEpsilon  = nn.DefaultEpsilon
)

// NewBatchNorm2d creates a batch normalization layer with default
// momentum and epsilon.
//
// Example:
//
//	backend := cpu.New()
//	bn := nn.NewBatchNorm2d(16, 8, 8, backend)  // channels=16, height=8, width=8
//	out := bn.TrainForward(input)
func NewBatchNorm2d[B tensor.Backend](channels, height, width int, backend B) *BatchNorm2d[B] {
	return nn.NewBatchNorm2d(channels, height, width, backend)
}

// NewBatchNorm2dWithConfig creates a batch normalization layer with
// explicit momentum and epsilon.
//
// Example:
//
//	backend := cpu.New()
//	bn := nn.NewBatchNorm2dWithConfig(16, 8, 8, nn.BatchNorm2dConfig{
//	    Momentum: 0.99,
//	    Epsilon:  1e-5,
//	}, backend)
func NewBatchNorm2dWithConfig[B tensor.Backend](channels, height, width int, config BatchNorm2dConfig, backend B) *BatchNorm2d[B] {
	return nn.NewBatchNorm2dWithConfig(channels, height, width, config, backend)
}

// Training step plumbing

// StepContext carries the per-training-step tensors of a layer: the
// upstream error signal and the accumulated parameter gradients.
type StepContext[B tensor.Backend] = nn.StepContext[B]

// NewStepContext allocates a step context sized for the given layer and
// batch size.
//
// Example:
//
//	ctx := nn.NewStepContext(bn, 32, backend)
//	ctx.Errors.CopyFrom(lossGrad)
//	inputGrad := bn.Backward(ctx)
//	bn.ComputeGradients(ctx)
func NewStepContext[B tensor.Backend](layer *BatchNorm2d[B], batchSize int, backend B) *StepContext[B] {
	return nn.NewStepContext(layer, batchSize, backend)
}

// Initialization functions

// Zeros initializes a tensor with zeros.
//
// Example:
//
//	backend := cpu.New()
//	bias := nn.Zeros(tensor.Shape{128}, backend)
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones initializes a tensor with ones.
//
// Example:
//
//	backend := cpu.New()
//	scale := nn.Ones(tensor.Shape{128}, backend)
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Randn initializes a tensor with random values from N(0, 1).
//
// Example:
//
//	backend := cpu.New()
//	weights := nn.Randn(tensor.Shape{128, 784}, backend)
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}
