package neural_test

import (
	"context"
	"testing"

	"github.com/aretw0/mlens/pkg/algorithms/neural"
	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/aretw0/mlens/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.Definition[neural.Config, neural.State] = neural.FFNN{}
	_ ports.Definition[neural.Config, neural.State] = neural.Autoencoder{}
)

func trace[D ports.Definition[neural.Config, neural.State]](t *testing.T, def D, seed int64) []domain.Step[neural.State] {
	t.Helper()
	values, err := def.Params().Resolve(nil)
	require.NoError(t, err)
	cfg, err := def.Config(values, domain.NewSource(seed))
	require.NoError(t, err)
	steps, err := def.Steps(context.Background(), cfg, def.InitialStep(cfg))
	require.NoError(t, err)
	require.NoError(t, domain.ValidateTrace(steps))
	return steps
}

func TestFFNN_TraceShape(t *testing.T) {
	steps := trace(t, neural.NewFFNN(), 1)
	counts := domain.CountTypes(steps)

	assert.Equal(t, 6, counts[neural.StepWeightedSum])
	assert.Equal(t, 6, counts[neural.StepActivation])
	assert.Equal(t, 2, counts[neural.StepLayerComplete])
	assert.Equal(t, 1, counts[neural.StepLossCalculation])
	assert.Equal(t, 1, counts[neural.StepBackpropStart])
	assert.Equal(t, 6, counts[neural.StepBiasUpdate])
	assert.Equal(t, 15, counts[neural.StepWeightUpdate])
	assert.Equal(t, 1, counts[neural.StepBackpropComplete])
	assert.Len(t, steps, 39)

	assert.Equal(t, 0, steps[0].State.CurrentLayer)
	assert.Len(t, steps[0].State.HighlightedNeuronIDs, 2)
	assert.Equal(t, neural.StepBackpropComplete, steps[len(steps)-1].Type)
}

func TestAutoencoder_TraceShape(t *testing.T) {
	steps := trace(t, neural.NewAutoencoder(), 1)
	counts := domain.CountTypes(steps)
	assert.Equal(t, 16, counts[neural.StepWeightUpdate])
	assert.Len(t, steps, 40)

	loss := steps[domain.LastOfType(steps, neural.StepLossCalculation)]
	assert.Equal(t, []float64{0.2, 0.7, 1, 0.3}, loss.State.TargetValues)

	last := steps[domain.LastOfType(steps, neural.StepLayerComplete)]
	assert.Equal(t, "Reconstruction Layer Complete", last.Title)
	first := steps[domain.LastOfType(steps[:6], neural.StepLayerComplete)]
	assert.Equal(t, "Bottleneck Layer Complete", first.Title)
}

func TestFFNN_Deterministic(t *testing.T) {
	assert.Equal(t, trace(t, neural.NewFFNN(), 3), trace(t, neural.NewFFNN(), 3))
}

func TestFFNN_ForwardActivations(t *testing.T) {
	steps := trace(t, neural.NewFFNN(), 5)
	final := steps[domain.LastOfType(steps, neural.StepLayerComplete)].State

	byID := map[string]neural.Neuron{}
	for _, n := range final.Neurons {
		byID[n.ID] = n
	}
	for _, n := range final.Neurons {
		if n.Layer == 0 {
			continue
		}
		sum := n.Bias
		for _, c := range final.Connections {
			if c.To == n.ID {
				sum += byID[c.From].Activation * c.Weight
			}
		}
		assert.InDelta(t, sum, n.Value, 1e-12)
		assert.InDelta(t, neural.Sigmoid(sum), n.Activation, 1e-12)
	}
}

// A 1-1-1 chain whose gradients can be checked by hand.
func TestBackprop_Gradients(t *testing.T) {
	cfg, err := neural.Build(neural.Topology{Hidden: 1, NeuronsPerLayer: 1, InputSize: 1, OutputSize: 1},
		[]float64{0.5}, 2, []float64{1}, domain.NewSource(1))
	require.NoError(t, err)
	require.Len(t, cfg.Connections, 2)
	cfg.Connections[0].Weight = 0.3
	cfg.Connections[1].Weight = -0.6

	frames, err := neural.Simulate(context.Background(), cfg)
	require.NoError(t, err)

	hidden := neural.Sigmoid(0.5 * 0.3)
	output := neural.Sigmoid(hidden * -0.6)
	deltaOut := (output - 1) * output * (1 - output)
	deltaHidden := deltaOut * -0.6 * hidden * (1 - hidden)

	final := frames[len(frames)-1].State
	require.Equal(t, neural.StepBackpropComplete, frames[len(frames)-1].Type)

	in, h, o := cfg.Neurons[0].ID, cfg.Neurons[1].ID, cfg.Neurons[2].ID
	assert.InDelta(t, deltaOut, final.Gradients[o], 1e-12)
	assert.InDelta(t, deltaHidden, final.Gradients[h], 1e-12)
	assert.NotContains(t, final.Gradients, in)

	assert.InDelta(t, -2*deltaOut, final.Neurons[2].Bias, 1e-12)
	assert.InDelta(t, -2*deltaHidden, final.Neurons[1].Bias, 1e-12)
	assert.InDelta(t, 0.3-2*deltaHidden*0.5, final.Connections[0].Weight, 1e-12)
	assert.InDelta(t, -0.6-2*deltaOut*hidden, final.Connections[1].Weight, 1e-12)

	for _, f := range frames {
		if f.Type == neural.StepLossCalculation {
			assert.InDelta(t, (output-1)*(output-1)/2, *f.State.Loss, 1e-12)
		}
	}
}

func TestSimulate_SnapshotsAreIndependent(t *testing.T) {
	steps := trace(t, neural.NewFFNN(), 2)
	initial := steps[0].State
	for _, n := range initial.Neurons {
		if n.Layer > 0 {
			assert.Zero(t, n.Activation)
			assert.Zero(t, n.Bias)
		}
	}
	start := steps[domain.LastOfType(steps, neural.StepBackpropStart)].State
	end := steps[len(steps)-1].State
	assert.NotEqual(t, start.Connections, end.Connections)
	assert.Empty(t, start.Gradients)
}

func TestBuild_TargetMismatch(t *testing.T) {
	_, err := neural.Build(neural.Topology{Hidden: 1, NeuronsPerLayer: 2, InputSize: 1, OutputSize: 2},
		[]float64{1}, 1, []float64{1}, domain.NewSource(1))
	assert.ErrorIs(t, err, neural.ErrTargetMismatch)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestFFNN_InputsFromParams(t *testing.T) {
	def := neural.NewFFNN()
	values, err := def.Params().Resolve(params.Values{"firstInputValue": 0.1, "secondInputValue": 0.9})
	require.NoError(t, err)
	cfg, err := def.Config(values, domain.NewSource(1))
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Neurons[0].Activation)
	assert.Equal(t, 0.9, cfg.Neurons[1].Activation)
	assert.Equal(t, []float64{neural.FFNNTarget}, cfg.TargetValues)
	for _, c := range cfg.Connections {
		assert.GreaterOrEqual(t, c.Weight, -1.0)
		assert.Less(t, c.Weight, 1.0)
	}
}
