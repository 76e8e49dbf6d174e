package nn

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters are tensors that require gradient computation during training.
// They typically represent scales and shifts of normalization layers or
// weights and biases of dense layers. Exposing (parameter, gradient) pairs
// through this type lets the optimizer address every layer's parameters
// uniformly, without aliasing layer fields.
//
// Example:
//
//	// Create a scale parameter
//	gamma := nn.NewParameter("gamma", gammaTensor)
//
//	// Access the tensor
//	g := gamma.Tensor()
//
//	// Get gradient after the layer's gradient accumulation
//	grad := gamma.Grad()
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "gamma", "beta")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
	grad   *tensor.Tensor[float32, B] // Gradient tensor (filled during the backward phase)
}

// NewParameter creates a new trainable parameter.
//
// The parameter tensor should be initialized before creating the Parameter.
// Gradient is nil until the owning layer accumulates one.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "batchnorm.gamma")
//   - tensor: The initialized parameter tensor
//
// Returns a new Parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
		grad:   nil,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the gradient tensor.
//
// Returns nil if no gradient has been computed yet.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
//
// This is typically called by the owning layer's gradient accumulation.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
//
// This should be called before each training iteration to avoid
// consuming gradients from previous iterations.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}
