package nn

import (
	"fmt"

	"github.com/strata-ml/strata/internal/tensor"
)

// Default hyperparameters for BatchNorm2d, applied when the config leaves
// them zero.
const (
	// DefaultMomentum is the exponential-moving-average decay for the
	// running statistics.
	DefaultMomentum float32 = 0.9

	// DefaultEpsilon is the numerical stability constant added to the
	// variance before taking the inverse square root.
	DefaultEpsilon float32 = 1e-8
)

// BatchNorm2d applies Batch Normalization over a 4D activation tensor
// [batch, channels, height, width], normalizing per channel.
//
// Training formula (per channel k, over S = batch*height*width samples):
//
//	mean_k  = 1/S * Σ x[b,k,h,w]
//	var_k   = 1/S * Σ (x[b,k,h,w] - mean_k)^2        (biased)
//	x̂       = (x - mean_k) / sqrt(var_k + eps)
//	y       = gamma_k * x̂ + beta_k
//
// and the running statistics are folded with momentum, applying Bessel's
// correction S/(S-1) to the variance estimate only at fold time:
//
//	running_mean = momentum*running_mean + (1-momentum)*mean_k
//	running_var  = momentum*running_var  + (1-momentum)*S/(S-1)*var_k
//
// Normalization itself always uses the biased variance; the asymmetry is
// standard for batch normalization and required for the backward pass to
// be exact.
//
// Inference uses the running statistics only and never touches the
// per-step scratch state, so Forward is pure and safe to call
// concurrently. TrainForward, Backward and ComputeGradients belong to a
// single training step and must not overlap with each other or with
// Forward on the same layer instance.
//
// Example:
//
//	backend := cpu.New()
//	bn := nn.NewBatchNorm2d(16, 8, 8, backend)
//
//	out := bn.TrainForward(input)          // training step: mutates running stats
//	... downstream layers, loss, errors ...
//	inputGrad := bn.Backward(ctx)          // uses state cached by TrainForward
//	bn.ComputeGradients(ctx)               // fills gamma/beta gradients
//
//	pred := bn.Forward(input)              // inference: running stats only
type BatchNorm2d[B tensor.Backend] struct {
	channels int
	height   int
	width    int

	Gamma *Parameter[B] // learnable scale [channels]
	Beta  *Parameter[B] // learnable shift [channels]

	// Running statistics: long-lived, folded by TrainForward, read by
	// Forward. The sole source of truth at inference time.
	runningMean *tensor.Tensor[float32, B] // [channels]
	runningVar  *tensor.Tensor[float32, B] // [channels]

	// Per-step scratch statistics: valid only between a TrainForward call
	// and the matching Backward/ComputeGradients calls of the same step.
	lastMean *tensor.Tensor[float32, B] // [channels]
	lastVar  *tensor.Tensor[float32, B] // [channels]
	invStd   *tensor.Tensor[float32, B] // [channels]

	// Normalized-but-unscaled activation cached by the most recent
	// TrainForward; consumed by Backward and ComputeGradients.
	normalized *tensor.Tensor[float32, B] // [batch, channels, height, width]

	// Owned parameter copies taken by Snapshot, consumed by Restore.
	bakGamma *tensor.Tensor[float32, B]
	bakBeta  *tensor.Tensor[float32, B]

	momentum float32
	epsilon  float32
	backend  B
}

// BatchNorm2dConfig holds configuration for BatchNorm2d.
// Zero fields fall back to DefaultMomentum / DefaultEpsilon.
type BatchNorm2dConfig struct {
	Momentum float32 // EMA decay for running statistics, in (0, 1)
	Epsilon  float32 // numerical stability constant, > 0
}

// NewBatchNorm2d creates a BatchNorm2d layer with default momentum and
// epsilon.
//
// Parameters:
//   - channels, height, width: fixed activation dimensions; every input
//     must be [batch, channels, height, width]
//   - backend: computation backend
//
// Gamma is initialized to ones, beta to zeros; running mean and variance
// start at zero.
func NewBatchNorm2d[B tensor.Backend](channels, height, width int, backend B) *BatchNorm2d[B] {
	return NewBatchNorm2dWithConfig(channels, height, width, BatchNorm2dConfig{}, backend)
}

// NewBatchNorm2dWithConfig creates a BatchNorm2d layer with explicit
// momentum and epsilon.
func NewBatchNorm2dWithConfig[B tensor.Backend](channels, height, width int, config BatchNorm2dConfig, backend B) *BatchNorm2d[B] {
	if channels <= 0 || height <= 0 || width <= 0 {
		panic(fmt.Sprintf("batchnorm: invalid dimensions channels=%d, height=%d, width=%d", channels, height, width))
	}

	// Apply defaults
	if config.Momentum == 0 {
		config.Momentum = DefaultMomentum
	}
	if config.Epsilon == 0 {
		config.Epsilon = DefaultEpsilon
	}
	if config.Momentum <= 0 || config.Momentum >= 1 {
		panic(fmt.Sprintf("batchnorm: momentum %f outside (0, 1)", config.Momentum))
	}
	if config.Epsilon <= 0 {
		panic(fmt.Sprintf("batchnorm: epsilon %f must be positive", config.Epsilon))
	}

	paramShape := tensor.Shape{channels}

	return &BatchNorm2d[B]{
		channels:    channels,
		height:      height,
		width:       width,
		Gamma:       NewParameter("gamma", Ones(paramShape, backend)),
		Beta:        NewParameter("beta", Zeros(paramShape, backend)),
		runningMean: Zeros(paramShape, backend),
		runningVar:  Zeros(paramShape, backend),
		momentum:    config.Momentum,
		epsilon:     config.Epsilon,
		backend:     backend,
	}
}

// Forward applies the layer in inference mode.
//
// Per batch element and channel k:
//
//	y[b,k] = gamma_k * (x[b,k] - running_mean_k) / sqrt(running_var_k + eps) + beta_k
//
// Pure function of current state and input: the inverse standard
// deviation is recomputed from the running variance on every call, never
// read from the training-step scratch state, and no layer state is
// mutated. Safe for concurrent calls as long as no training step overlaps.
func (l *BatchNorm2d[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	l.validateInput("forward", input)

	invStd := l.runningVar.AddScalar(l.epsilon).Rsqrt()

	// Clone guards the caller's buffer: a [1, channels, 1, 1] input has
	// the same shape as the per-channel operands and would otherwise be
	// eligible for the backend's in-place fast path.
	centered := input.Clone().Sub(l.perChannel(l.runningMean))
	return centered.
		Mul(l.perChannel(invStd)).
		Mul(l.perChannel(l.Gamma.Tensor())).
		Add(l.perChannel(l.Beta.Tensor()))
}

// TrainForward applies the layer in training mode.
//
// Computes the batch statistics, normalizes with them, caches the
// normalized pre-activation and the per-step scratch statistics for the
// backward pass, and folds the batch statistics into the running
// estimates.
//
// The batch must contain more than one sample per channel
// (batch*height*width > 1): the unbiased fold divides by S-1.
func (l *BatchNorm2d[B]) TrainForward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	l.validateInput("trainforward", input)

	batch := input.Shape()[0]
	samples := batch * l.height * l.width
	if samples <= 1 {
		panic(fmt.Sprintf("trainforward: degenerate batch: %d sample(s) per channel, need at least 2", samples))
	}
	s := float32(samples)

	// Batch statistics (biased variance: divide by S, not S-1)
	l.lastMean = l.channelSum(input).DivScalar(s)

	centered := input.Sub(l.perChannel(l.lastMean))
	squared := centered.Clone().Mul(centered)
	l.lastVar = l.channelSum(squared).DivScalar(s)

	l.invStd = l.lastVar.AddScalar(l.epsilon).Rsqrt()

	// Normalize and cache the pre-activation for the backward pass
	l.normalized = centered.Mul(l.perChannel(l.invStd))

	output := l.normalized.
		Mul(l.perChannel(l.Gamma.Tensor())).
		Add(l.perChannel(l.Beta.Tensor()))

	// Fold into the running estimates. Bessel's correction applies only
	// here, never to the normalization above.
	unbiased := (1 - l.momentum) * s / (s - 1)
	l.runningMean = l.runningMean.MulScalar(l.momentum).Add(l.lastMean.MulScalar(1 - l.momentum))
	l.runningVar = l.runningVar.MulScalar(l.momentum).Add(l.lastVar.MulScalar(unbiased))

	return output
}

// AdaptErrors is called before backpropagation of the errors.
//
// Batch normalization has no intrinsic nonlinearity to fold into the
// error signal, so this is a no-op; it exists so the training loop can
// treat all layers uniformly.
func (l *BatchNorm2d[B]) AdaptErrors(_ *StepContext[B]) {}

// Backward computes the gradient with respect to the layer input.
//
// Given the upstream error dL/dy in ctx.Errors and the state cached by
// the matching TrainForward (normalized pre-activation x̂, inverse
// standard deviation), per channel k with S samples:
//
//	dx̂        = dy * gamma_k
//	dx[b,k,h,w] = inv_std_k/S * (S*dx̂ - Σdx̂ - x̂*Σ(dx̂*x̂))
//
// The two channel reductions must complete before the elementwise pass;
// this is an inherent two-pass algorithm.
//
// Must be called after TrainForward in the same training step; calling it
// without a cached forward pass is a contract violation.
func (l *BatchNorm2d[B]) Backward(ctx *StepContext[B]) *tensor.Tensor[float32, B] {
	if l.normalized == nil {
		panic("backward: no cached forward state, call TrainForward first")
	}
	l.validateInput("backward", ctx.Errors)
	if !ctx.Errors.Shape().Equal(l.normalized.Shape()) {
		panic(fmt.Sprintf("backward: errors shape %v does not match cached batch %v",
			ctx.Errors.Shape(), l.normalized.Shape()))
	}

	batch := ctx.Errors.Shape()[0]
	s := float32(batch * l.height * l.width)

	scaled := ctx.Errors.Mul(l.perChannel(l.Gamma.Tensor()))

	// Two cross-batch reductions
	sumScaled := l.channelSum(scaled)
	sumScaledNorm := l.channelSum(scaled.Clone().Mul(l.normalized))

	// Elementwise pass
	return scaled.MulScalar(s).
		Sub(l.perChannel(sumScaled)).
		Sub(l.normalized.Mul(l.perChannel(sumScaledNorm))).
		Mul(l.perChannel(l.invStd.DivScalar(s)))
}

// ComputeGradients accumulates the parameter gradients into the step
// context and publishes them on the gamma/beta parameter slots.
//
// Per channel k:
//
//	dgamma_k = Σ x̂[b,k,h,w] * dy[b,k,h,w]
//	dbeta_k  = Σ dy[b,k,h,w]
//
// Pure reduction over the cached normalized pre-activation and the
// upstream error; no update rule is applied here - that is the
// optimizer's job.
func (l *BatchNorm2d[B]) ComputeGradients(ctx *StepContext[B]) {
	if l.normalized == nil {
		panic("computegradients: no cached forward state, call TrainForward first")
	}
	l.validateInput("computegradients", ctx.Errors)
	if !ctx.Errors.Shape().Equal(l.normalized.Shape()) {
		panic(fmt.Sprintf("computegradients: errors shape %v does not match cached batch %v",
			ctx.Errors.Shape(), l.normalized.Shape()))
	}

	ctx.GammaGrad.CopyFrom(l.channelSum(ctx.Errors.Clone().Mul(l.normalized)))
	ctx.BetaGrad.CopyFrom(l.channelSum(ctx.Errors))

	l.Gamma.SetGrad(ctx.GammaGrad)
	l.Beta.SetGrad(ctx.BetaGrad)
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *BatchNorm2d[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}

// ParameterCount returns the number of per-channel scalars held by the
// layer: gamma, beta, running mean and running variance.
func (l *BatchNorm2d[B]) ParameterCount() int {
	return 4 * l.channels
}

// InputSize returns the number of elements in one input sample.
func (l *BatchNorm2d[B]) InputSize() int {
	return l.channels * l.height * l.width
}

// OutputSize returns the number of elements in one output sample.
// Batch normalization preserves the activation shape.
func (l *BatchNorm2d[B]) OutputSize() int {
	return l.channels * l.height * l.width
}

// Name returns a short human-readable type name.
func (l *BatchNorm2d[B]) Name() string {
	return "batch_norm"
}

// RunningMean returns the running per-channel mean estimate.
func (l *BatchNorm2d[B]) RunningMean() *tensor.Tensor[float32, B] {
	return l.runningMean
}

// RunningVar returns the running per-channel variance estimate.
func (l *BatchNorm2d[B]) RunningVar() *tensor.Tensor[float32, B] {
	return l.runningVar
}

// Snapshot stores an owned copy of gamma and beta.
//
// Used by training schemes that restore the best-seen parameters, e.g.
// after early stopping. Overwrites any previous snapshot.
func (l *BatchNorm2d[B]) Snapshot() {
	l.bakGamma = l.Gamma.Tensor().Copy()
	l.bakBeta = l.Beta.Tensor().Copy()
}

// Restore copies the snapshotted gamma and beta back into the live
// parameters. Panics if Snapshot was never called.
func (l *BatchNorm2d[B]) Restore() {
	if l.bakGamma == nil || l.bakBeta == nil {
		panic("restore: no snapshot taken")
	}
	l.Gamma.Tensor().CopyFrom(l.bakGamma)
	l.Beta.Tensor().CopyFrom(l.bakBeta)
}

// validateInput fails fast when the input does not match the initialized
// layer dimensions.
func (l *BatchNorm2d[B]) validateInput(op string, input *tensor.Tensor[float32, B]) {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [batch,channels,height,width], got %dD %v", op, len(shape), shape))
	}
	if shape[1] != l.channels || shape[2] != l.height || shape[3] != l.width {
		panic(fmt.Sprintf("%s: input %v does not match layer dimensions [_, %d, %d, %d]",
			op, shape, l.channels, l.height, l.width))
	}
}

// perChannel reshapes a [channels] vector to [1, channels, 1, 1] so that
// elementwise ops broadcast it across batch and spatial dimensions.
func (l *BatchNorm2d[B]) perChannel(v *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return v.Reshape(1, l.channels, 1, 1)
}

// channelSum reduces a [batch, channels, height, width] tensor to a
// per-channel [channels] vector by summing over batch and both spatial
// dimensions.
func (l *BatchNorm2d[B]) channelSum(t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return t.SumDim(3, false).SumDim(2, false).SumDim(0, false)
}
