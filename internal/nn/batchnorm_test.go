package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/internal/tensor"
)

func input4d(t *testing.T, backend *cpu.CPUBackend, data []float32, shape tensor.Shape) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	in, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return in
}

func TestBatchNorm2dConstruction(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(8, 4, 4, backend)

	assert.Equal(t, "batch_norm", bn.Name())
	assert.Equal(t, 32, bn.ParameterCount()) // 4 per channel
	assert.Equal(t, 128, bn.InputSize())
	assert.Equal(t, 128, bn.OutputSize())

	params := bn.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "gamma", params[0].Name())
	assert.Equal(t, "beta", params[1].Name())

	// gamma starts at one, beta at zero, running stats at zero
	for _, v := range bn.Gamma.Tensor().Data() {
		assert.Equal(t, float32(1), v)
	}
	for _, v := range bn.Beta.Tensor().Data() {
		assert.Equal(t, float32(0), v)
	}
	for _, v := range bn.RunningMean().Data() {
		assert.Equal(t, float32(0), v)
	}
	for _, v := range bn.RunningVar().Data() {
		assert.Equal(t, float32(0), v)
	}
}

func TestBatchNorm2dConstructionPanics(t *testing.T) {
	backend := cpu.New()

	require.Panics(t, func() { NewBatchNorm2d(0, 4, 4, backend) })
	require.Panics(t, func() { NewBatchNorm2d(8, -1, 4, backend) })
	require.Panics(t, func() {
		NewBatchNorm2dWithConfig(8, 4, 4, BatchNorm2dConfig{Momentum: 1.5}, backend)
	})
	require.Panics(t, func() {
		NewBatchNorm2dWithConfig(8, 4, 4, BatchNorm2dConfig{Epsilon: -1e-8}, backend)
	})
}

func TestBatchNorm2dTrainForwardNormalizes(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(1, 1, 1, backend)

	// One channel, 1x1 spatial, batch of 4: S = 4 samples {1, 2, 3, 4}
	// mean = 2.5, biased var = 1.25, inv_std = 1/sqrt(1.25) ≈ 0.894427
	in := input4d(t, backend, []float32{1, 2, 3, 4}, tensor.Shape{4, 1, 1, 1})

	out := bn.TrainForward(in)
	require.Equal(t, tensor.Shape{4, 1, 1, 1}, out.Shape())

	want := []float32{-1.3416408, -0.4472136, 0.4472136, 1.3416408}
	for i, v := range out.Data() {
		assert.InDelta(t, want[i], v, 1e-4)
	}

	// Normalized output has zero mean and unit (biased) variance
	var sum, sumSq float32
	for _, v := range out.Data() {
		sum += v
		sumSq += v * v
	}
	assert.InDelta(t, 0.0, sum/4, 1e-5)
	assert.InDelta(t, 1.0, sumSq/4, 1e-4)
}

func TestBatchNorm2dChannelsIndependent(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(2, 1, 2, backend)

	// Channel 1 is channel 0 scaled by 10; both normalize to the same
	// pattern because statistics are per channel.
	in := input4d(t, backend,
		[]float32{1, 2, 10, 20, 3, 4, 30, 40},
		tensor.Shape{2, 2, 1, 2})

	out := bn.TrainForward(in)

	// [b, k, 0, w] layout
	for b := 0; b < 2; b++ {
		for w := 0; w < 2; w++ {
			assert.InDelta(t, out.At(b, 0, 0, w), out.At(b, 1, 0, w), 1e-4)
		}
	}

	mean := bn.RunningMean()
	assert.InDelta(t, 0.1*2.5, mean.At(0), 1e-5)
	assert.InDelta(t, 0.1*25.0, mean.At(1), 1e-4)
}

func TestBatchNorm2dAffineParameters(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(1, 1, 2, backend)
	bn.Gamma.Tensor().Set(2, 0)
	bn.Beta.Tensor().Set(3, 0)

	in := input4d(t, backend, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 1, 2})
	out := bn.TrainForward(in)

	norm := []float32{-1.3416408, -0.4472136, 0.4472136, 1.3416408}
	for i, v := range out.Data() {
		assert.InDelta(t, 2*norm[i]+3, v, 1e-4)
	}
}

func TestBatchNorm2dRunningStatUpdate(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(1, 1, 2, backend)

	in := input4d(t, backend, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 1, 2})

	// From a fresh state: running = 0.9*0 + 0.1*batch
	bn.TrainForward(in)
	assert.InDelta(t, 0.25, bn.RunningMean().At(0), 1e-5)
	// Bessel's correction on the fold: 0.1 * 4/3 * 1.25
	assert.InDelta(t, 0.16666667, bn.RunningVar().At(0), 1e-5)

	// Second step with the same batch folds again
	bn.TrainForward(in)
	assert.InDelta(t, 0.9*0.25+0.1*2.5, bn.RunningMean().At(0), 1e-5)
	assert.InDelta(t, 0.9*0.16666667+0.16666667, bn.RunningVar().At(0), 1e-5)
}

func TestBatchNorm2dForwardUsesRunningStats(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(1, 1, 2, backend)

	train := input4d(t, backend, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 1, 2})
	bn.TrainForward(train)

	// running_mean = 0.25, running_var = 1/6 after one step
	in := input4d(t, backend, []float32{5, 6}, tensor.Shape{1, 1, 1, 2})
	out := bn.Forward(in)

	invStd := float32(2.4494896) // 1/sqrt(1/6)
	assert.InDelta(t, (5-0.25)*invStd, out.At(0, 0, 0, 0), 1e-3)
	assert.InDelta(t, (6-0.25)*invStd, out.At(0, 0, 0, 1), 1e-3)
}

func TestBatchNorm2dForwardDeterministic(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(3, 2, 2, backend)

	train := Randn(tensor.Shape{4, 3, 2, 2}, backend)
	bn.TrainForward(train)

	in := Randn(tensor.Shape{2, 3, 2, 2}, backend)
	first := bn.Forward(in)
	second := bn.Forward(in)

	assert.Equal(t, first.Data(), second.Data())

	// Inference must not touch layer state
	meanBefore := bn.RunningMean().Copy()
	bn.Forward(in)
	assert.Equal(t, meanBefore.Data(), bn.RunningMean().Data())
}

func TestBatchNorm2dForwardDoesNotMutateInput(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(1, 1, 2, backend)

	in := input4d(t, backend, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 1, 2})
	bn.TrainForward(in)
	assert.Equal(t, []float32{1, 2, 3, 4}, in.Data())

	bn.Forward(in)
	assert.Equal(t, []float32{1, 2, 3, 4}, in.Data())

	// A single sample with 1x1 spatial extent shares its shape with the
	// per-channel operands, so it exercises the backend's same-shape
	// path instead of the broadcast one.
	single := NewBatchNorm2d(2, 1, 1, backend)
	x := input4d(t, backend, []float32{1, 2}, tensor.Shape{1, 2, 1, 1})
	first := single.Forward(x)
	assert.Equal(t, []float32{1, 2}, x.Data())
	second := single.Forward(x)
	assert.Equal(t, first.Data(), second.Data())
}

func TestBatchNorm2dBackward(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(1, 1, 2, backend)

	in := input4d(t, backend, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 1, 2})
	bn.TrainForward(in)

	ctx := NewStepContext(bn, 2, backend)
	ctx.Errors.Set(1, 0, 0, 0, 0)

	grad := bn.Backward(ctx)
	require.Equal(t, in.Shape(), grad.Shape())

	// Hand-computed: inv_std/S * (S*dy - Σdy - x̂*Σ(dy*x̂)) with
	// inv_std ≈ 0.894427, S = 4, Σdy = 1, Σ(dy*x̂) ≈ -1.341641
	want := []float32{0.26832816, -0.35777088, -0.08944272, 0.17888544}
	for i, v := range grad.Data() {
		assert.InDelta(t, want[i], v, 1e-4)
	}

	// Per-channel input gradients sum to zero
	var sum float32
	for _, v := range grad.Data() {
		sum += v
	}
	assert.InDelta(t, 0.0, sum, 1e-5)
}

func TestBatchNorm2dBackwardZeroErrors(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(2, 2, 2, backend)

	in := Randn(tensor.Shape{3, 2, 2, 2}, backend)
	bn.TrainForward(in)

	ctx := NewStepContext(bn, 3, backend)
	grad := bn.Backward(ctx)
	for _, v := range grad.Data() {
		assert.Equal(t, float32(0), v)
	}

	bn.ComputeGradients(ctx)
	for _, v := range ctx.GammaGrad.Data() {
		assert.Equal(t, float32(0), v)
	}
	for _, v := range ctx.BetaGrad.Data() {
		assert.Equal(t, float32(0), v)
	}
}

func TestBatchNorm2dComputeGradients(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(1, 1, 2, backend)

	in := input4d(t, backend, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 1, 2})
	bn.TrainForward(in)

	ctx := NewStepContext(bn, 2, backend)
	ctx.Errors.Set(1, 0, 0, 0, 0)

	bn.ComputeGradients(ctx)

	// dgamma = Σ x̂*dy = x̂[0] ≈ -1.341641, dbeta = Σdy = 1
	assert.InDelta(t, -1.3416408, ctx.GammaGrad.At(0), 1e-4)
	assert.InDelta(t, 1.0, ctx.BetaGrad.At(0), 1e-5)

	// Gradients are published on the parameter slots
	require.NotNil(t, bn.Gamma.Grad())
	require.NotNil(t, bn.Beta.Grad())
	assert.InDelta(t, -1.3416408, bn.Gamma.Grad().At(0), 1e-4)
	assert.InDelta(t, 1.0, bn.Beta.Grad().At(0), 1e-5)
}

func TestBatchNorm2dAdaptErrorsIsNoOp(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(1, 1, 2, backend)

	ctx := NewStepContext(bn, 2, backend)
	ctx.Errors.Set(7, 0, 0, 0, 0)
	ctx.Errors.Set(-3, 1, 0, 0, 1)

	bn.AdaptErrors(ctx)
	assert.Equal(t, float32(7), ctx.Errors.At(0, 0, 0, 0))
	assert.Equal(t, float32(-3), ctx.Errors.At(1, 0, 0, 1))
}

func TestBatchNorm2dContractViolations(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(2, 2, 2, backend)

	// Wrong rank
	require.Panics(t, func() {
		bn.Forward(Zeros(tensor.Shape{2, 8}, backend))
	})
	// Wrong channel count
	require.Panics(t, func() {
		bn.TrainForward(Zeros(tensor.Shape{2, 3, 2, 2}, backend))
	})
	// Degenerate batch: a single sample per channel has no variance
	tiny := NewBatchNorm2d(2, 1, 1, backend)
	require.Panics(t, func() {
		tiny.TrainForward(Zeros(tensor.Shape{1, 2, 1, 1}, backend))
	})
	// Backward without a cached forward pass
	fresh := NewBatchNorm2d(2, 2, 2, backend)
	ctx := NewStepContext(fresh, 2, backend)
	require.Panics(t, func() { fresh.Backward(ctx) })
	require.Panics(t, func() { fresh.ComputeGradients(ctx) })
}

func TestBatchNorm2dGradientBatchMismatch(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(2, 1, 1, backend)
	bn.TrainForward(Randn(tensor.Shape{4, 2, 1, 1}, backend))

	// The error tensor must match the cached batch, not just the
	// per-sample layout: a batch-1 context against a batch-4 forward
	// would silently reduce over the wrong elements.
	small := NewStepContext(bn, 1, backend)
	small.Errors.Set(1, 0, 0, 0, 0)
	require.Panics(t, func() { bn.ComputeGradients(small) })
	require.Panics(t, func() { bn.Backward(small) })
}

func TestBatchNorm2dSnapshotRestore(t *testing.T) {
	backend := cpu.New()
	bn := NewBatchNorm2d(2, 1, 1, backend)

	bn.Gamma.Tensor().Set(1.5, 0)
	bn.Beta.Tensor().Set(-0.5, 1)
	bn.Snapshot()

	bn.Gamma.Tensor().Set(99, 0)
	bn.Beta.Tensor().Set(99, 1)

	bn.Restore()
	assert.Equal(t, float32(1.5), bn.Gamma.Tensor().At(0))
	assert.Equal(t, float32(-0.5), bn.Beta.Tensor().At(1))

	fresh := NewBatchNorm2d(2, 1, 1, backend)
	require.Panics(t, func() { fresh.Restore() })
}

var _ Module[*cpu.CPUBackend] = (*BatchNorm2d[*cpu.CPUBackend])(nil)
