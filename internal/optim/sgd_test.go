package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/internal/nn"
	"github.com/strata-ml/strata/internal/tensor"
)

func param(t *testing.T, backend *cpu.CPUBackend, name string, values []float32) *nn.Parameter[*cpu.CPUBackend] {
	t.Helper()
	tn, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return nn.NewParameter(name, tn)
}

func grad(t *testing.T, backend *cpu.CPUBackend, values []float32) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	g, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return g
}

func TestSGDDefaults(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, "w", []float32{1})

	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{}, backend)
	assert.InDelta(t, 0.01, sgd.GetLR(), 1e-7)

	sgd.SetLR(0.5)
	assert.InDelta(t, 0.5, sgd.GetLR(), 1e-7)
}

func TestSGDStep(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, "gamma", []float32{1, 2, 3})
	p.SetGrad(grad(t, backend, []float32{1, -1, 0.5}))

	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1}, backend)
	sgd.Step()

	want := []float32{0.9, 2.1, 2.95}
	for i, v := range p.Tensor().Data() {
		assert.InDelta(t, want[i], v, 1e-6)
	}
}

func TestSGDStepWithSharedParameterBuffer(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, "w", []float32{1, 2, 3})
	checkpoint := p.Tensor().Copy() // independent pre-step copy
	view := p.Tensor().Clone()      // shares the parameter buffer
	p.SetGrad(grad(t, backend, []float32{1, -1, 0.5}))

	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1}, backend)
	sgd.Step()

	// The update lands even though the buffer is not uniquely held,
	// so Step cannot rely on the backend's destructive fast path.
	want := []float32{0.9, 2.1, 2.95}
	for i, v := range p.Tensor().Data() {
		assert.InDelta(t, want[i], v, 1e-6)
	}

	// The shared view observes the write-back; the deep copy does not.
	assert.Equal(t, p.Tensor().Data(), view.Data())
	assert.Equal(t, []float32{1, 2, 3}, checkpoint.Data())
}

func TestSGDStepSkipsParamsWithoutGrad(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, "beta", []float32{1, 2})

	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1}, backend)
	sgd.Step()

	assert.Equal(t, []float32{1, 2}, p.Tensor().Data())
}

func TestSGDMomentum(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, "w", []float32{1})
	p.SetGrad(grad(t, backend, []float32{1}))

	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1, Momentum: 0.9}, backend)

	// Step 1: velocity = 1, param = 1 - 0.1*1 = 0.9
	sgd.Step()
	assert.InDelta(t, 0.9, p.Tensor().At(0), 1e-6)

	// Step 2 with the same gradient: velocity = 0.9*1 + 1 = 1.9,
	// param = 0.9 - 0.1*1.9 = 0.71
	p.SetGrad(grad(t, backend, []float32{1}))
	sgd.Step()
	assert.InDelta(t, 0.71, p.Tensor().At(0), 1e-6)
}

func TestSGDZeroGrad(t *testing.T) {
	backend := cpu.New()
	p := param(t, backend, "w", []float32{1})
	p.SetGrad(grad(t, backend, []float32{1}))

	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1}, backend)
	sgd.ZeroGrad()
	assert.Nil(t, p.Grad())
}

func TestSGDTrainsBatchNorm(t *testing.T) {
	backend := cpu.New()
	bn := nn.NewBatchNorm2d(1, 1, 2, backend)

	in, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 1, 1, 2}, backend)
	require.NoError(t, err)
	bn.TrainForward(in)

	ctx := nn.NewStepContext(bn, 2, backend)
	ctx.Errors.Set(1, 0, 0, 0, 0)
	bn.Backward(ctx)
	bn.ComputeGradients(ctx)

	sgd := NewSGD(bn.Parameters(), SGDConfig{LR: 0.1}, backend)
	sgd.Step()
	sgd.ZeroGrad()

	// dgamma ≈ -1.341641, dbeta = 1
	assert.InDelta(t, 1+0.1*1.3416408, bn.Gamma.Tensor().At(0), 1e-4)
	assert.InDelta(t, -0.1, bn.Beta.Tensor().At(0), 1e-6)
	assert.Nil(t, bn.Gamma.Grad())
}

var _ Optimizer = (*SGD[*cpu.CPUBackend])(nil)
