package neural

import (
	"context"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/aretw0/mlens/pkg/params"
)

// network holds what the two definitions share.
type network struct {
	autoencoder bool
}

func (network) InitialStep(cfg Config) domain.Step[State] {
	return domain.Step[State]{
		Type: domain.StepInitial,
		Narration: domain.Narration{
			Title:       "Initial State",
			Description: "We will follow how a signal propagates through the neural network, starting from the input layer.",
		},
		State: InitialState(cfg),
	}
}

func (n network) Steps(ctx context.Context, cfg Config, initial domain.Step[State]) ([]domain.Step[State], error) {
	frames, err := Simulate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return domain.Narrate(initial, frames, narrator{topology: cfg.Topology, autoencoder: n.autoencoder}.narrate), nil
}

func learningRate(def float64) params.Param {
	return params.Slider("learningRate", "Learning rate",
		"The learning rate for the network. It is usually low, but a high value makes the change during backpropagation easier to see.",
		def, 0, 20, 0.1)
}

// FFNN is a 2-5-1 feedforward network trained toward a single target.
type FFNN struct{ network }

func NewFFNN() FFNN { return FFNN{} }

var ffnnTopology = Topology{Hidden: 1, NeuronsPerLayer: 5, InputSize: 2, OutputSize: 1}

// FFNNTarget is the value the output neuron is trained toward.
const FFNNTarget = 0.8

type ffnnParams struct {
	FirstInputValue  float64 `mapstructure:"firstInputValue"`
	SecondInputValue float64 `mapstructure:"secondInputValue"`
	LearningRate     float64 `mapstructure:"learningRate"`
}

func (FFNN) Meta() domain.Meta {
	return domain.Meta{
		Slug:             "ffnn",
		Title:            "Feedforward Neural Network",
		ShortDescription: "Follow a signal forward through a network and the error back.",
		Description: "A feedforward network passes its inputs through layers of weighted sums and " +
			"sigmoid activations. Backpropagation then assigns every neuron its share of the error " +
			"and adjusts biases and weights against their gradients.",
		Synonyms:   []string{"feedforward", "neural-network", "mlp"},
		Dimensions: domain.Scene2D,
	}
}

func (FFNN) Params() params.Schema {
	return params.Schema{
		params.Slider("firstInputValue", "First input value", "The first input value for the network.", 0.8, 0, 1, 0.1),
		params.Slider("secondInputValue", "Second input value", "The second input value for the network.", 0.4, 0, 1, 0.1),
		learningRate(10),
	}
}

func (FFNN) Config(values params.Values, src *domain.Source) (Config, error) {
	var p ffnnParams
	if err := params.Decode(values, &p); err != nil {
		return Config{}, err
	}
	return Build(ffnnTopology, []float64{p.FirstInputValue, p.SecondInputValue}, p.LearningRate, []float64{FFNNTarget}, src)
}

// Autoencoder is a 4-2-4 network trained to reconstruct its input.
type Autoencoder struct{ network }

func NewAutoencoder() Autoencoder { return Autoencoder{network{autoencoder: true}} }

var (
	autoencoderTopology = Topology{Hidden: 1, NeuronsPerLayer: 2, InputSize: 4, OutputSize: 4}
	autoencoderInputs   = []float64{0.2, 0.7, 1, 0.3}
)

func (Autoencoder) Meta() domain.Meta {
	return domain.Meta{
		Slug:             "autoencoder",
		Title:            "Autoencoder",
		ShortDescription: "Compress an input through a bottleneck and rebuild it.",
		Description: "An autoencoder is a neural network whose target is its own input. The signal " +
			"is squeezed through a narrow bottleneck layer, so the network has to learn a compact " +
			"encoding to reconstruct what it was given.",
		Synonyms:   []string{"auto-encoder"},
		Dimensions: domain.Scene2D,
	}
}

func (Autoencoder) Params() params.Schema {
	return params.Schema{learningRate(10)}
}

func (Autoencoder) Config(values params.Values, src *domain.Source) (Config, error) {
	var p struct {
		LearningRate float64 `mapstructure:"learningRate"`
	}
	if err := params.Decode(values, &p); err != nil {
		return Config{}, err
	}
	inputs := append([]float64(nil), autoencoderInputs...)
	targets := append([]float64(nil), autoencoderInputs...)
	return Build(autoencoderTopology, inputs, p.LearningRate, targets, src)
}
