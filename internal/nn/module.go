// Package nn implements neural network modules for the Strata ML Framework.
//
// This package provides the building blocks of the normalization training
// core:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - BatchNorm2d: Batch normalization over 4D activations with explicit
//     training/inference paths and an explicit backward pass
//   - StepContext: Per-training-step buffers shared with the training loop
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Forward is the inference path: it must not mutate module state, so a
// module can serve concurrent inference calls. Modules that learn batch
// statistics expose a separate, mutating training path (see
// BatchNorm2d.TrainForward).
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, BatchNorm2d expects [batch, channels, height, width].
	//
	// Returns the output tensor with shape determined by the module type.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter[B]
}
