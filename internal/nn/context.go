package nn

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// StepContext carries the per-training-step tensors of a BatchNorm2d
// layer: the batch input and output, the upstream error signal and the
// accumulated parameter gradients.
//
// Owned by the training loop, allocated once per (layer, batch size)
// pair and reused across steps; the layer only reads and writes
// designated fields during a call. The gradient tensors are overwritten,
// not accumulated, by each ComputeGradients call. One goroutine owns a
// context for the duration of a step.
type StepContext[B tensor.Backend] struct {
	// Input and Output hold the activations of the current step, shape
	// [batch, channels, height, width]. The training loop fills them
	// around TrainForward; the layer itself does not consume them.
	Input  *tensor.Tensor[float32, B]
	Output *tensor.Tensor[float32, B]

	// Errors is the upstream gradient dL/dy, shape
	// [batch, channels, height, width]. The training loop fills it
	// before calling Backward.
	Errors *tensor.Tensor[float32, B]

	// GammaGrad and BetaGrad receive the parameter gradients, shape
	// [channels].
	GammaGrad *tensor.Tensor[float32, B]
	BetaGrad  *tensor.Tensor[float32, B]
}

// NewStepContext allocates a step context sized for the given layer and
// batch size. All tensors start zeroed.
func NewStepContext[B tensor.Backend](layer *BatchNorm2d[B], batchSize int, backend B) *StepContext[B] {
	actShape := tensor.Shape{batchSize, layer.channels, layer.height, layer.width}
	paramShape := tensor.Shape{layer.channels}

	return &StepContext[B]{
		Input:     Zeros(actShape, backend),
		Output:    Zeros(actShape, backend),
		Errors:    Zeros(actShape, backend),
		GammaGrad: Zeros(paramShape, backend),
		BetaGrad:  Zeros(paramShape, backend),
	}
}
