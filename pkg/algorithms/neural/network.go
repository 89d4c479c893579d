// Package neural traces one forward pass and one round of backpropagation
// through small fully connected sigmoid networks. Two algorithms share it:
// a feedforward network and an autoencoder.
package neural

import (
	"fmt"

	"github.com/aretw0/mlens/pkg/domain"
)

const (
	StepWeightedSum      domain.StepType = "weightedSum"
	StepActivation       domain.StepType = "activation"
	StepLayerComplete    domain.StepType = "layerComplete"
	StepLossCalculation  domain.StepType = "lossCalculation"
	StepBackpropStart    domain.StepType = "backpropStart"
	StepBiasUpdate       domain.StepType = "biasUpdate"
	StepWeightUpdate     domain.StepType = "weightUpdate"
	StepBackpropComplete domain.StepType = "backpropComplete"
)

// ErrTargetMismatch is returned when target values do not match the output layer.
var ErrTargetMismatch = fmt.Errorf("neural: %w: target count differs from output size", domain.ErrConfiguration)

type Neuron struct {
	ID         string  `json:"id"`
	Layer      int     `json:"layer"`
	Index      int     `json:"index"`
	Value      float64 `json:"value"`
	Activation float64 `json:"activation"`
	Bias       float64 `json:"bias"`
}

// Connection joins a neuron to one in the next layer.
type Connection struct {
	ID     string  `json:"id"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Layer  int     `json:"layer"`
	Weight float64 `json:"weight"`
}

// Topology counts neurons per layer. Layer 0 is the input, layers
// 1..Hidden are hidden and layer Hidden+1 is the output.
type Topology struct {
	Hidden          int `json:"layers"`
	NeuronsPerLayer int `json:"neuronsPerLayer"`
	InputSize       int `json:"inputSize"`
	OutputSize      int `json:"outputSize"`
}

// OutputLayer is the index of the output layer.
func (t Topology) OutputLayer() int { return t.Hidden + 1 }

func (t Topology) size(layer int) int {
	switch {
	case layer == 0:
		return t.InputSize
	case layer == t.OutputLayer():
		return t.OutputSize
	default:
		return t.NeuronsPerLayer
	}
}

type Config struct {
	Topology     Topology     `json:"topology"`
	Neurons      []Neuron     `json:"neurons"`
	Connections  []Connection `json:"connections"`
	LearningRate float64      `json:"learningRate"`
	TargetValues []float64    `json:"targetValues,omitempty"`
}

type State struct {
	CurrentLayer             int                `json:"currentLayer"`
	CurrentNeuron            int                `json:"currentNeuron"`
	Neurons                  []Neuron           `json:"neurons"`
	Connections              []Connection       `json:"connections"`
	HighlightedConnectionIDs []string           `json:"highlightedConnectionIds"`
	HighlightedNeuronIDs     []string           `json:"highlightedNeuronIds"`
	Loss                     *float64           `json:"loss,omitempty"`
	TargetValues             []float64          `json:"targetValues,omitempty"`
	Gradients                map[string]float64 `json:"gradients,omitempty"`
	WeightGradients          map[string]float64 `json:"weightGradients,omitempty"`
}

// Build lays out the neurons of t with the given input activations and
// connects consecutive layers fully with weights drawn uniformly from [-1, 1).
func Build(t Topology, inputs []float64, learningRate float64, targets []float64, src *domain.Source) (Config, error) {
	if len(inputs) != t.InputSize {
		return Config{}, fmt.Errorf("neural: %w: %d inputs for an input layer of %d", domain.ErrConfiguration, len(inputs), t.InputSize)
	}
	if len(targets) > 0 && len(targets) != t.OutputSize {
		return Config{}, fmt.Errorf("%w: %d targets for %d outputs", ErrTargetMismatch, len(targets), t.OutputSize)
	}

	var neurons []Neuron
	layers := make([][]Neuron, t.OutputLayer()+1)
	for layer := range layers {
		for i := range t.size(layer) {
			n := Neuron{ID: src.IDs.Next("neuron"), Layer: layer, Index: i}
			if layer == 0 {
				n.Value, n.Activation = inputs[i], inputs[i]
			}
			layers[layer] = append(layers[layer], n)
			neurons = append(neurons, n)
		}
	}

	var connections []Connection
	for layer := 0; layer < t.OutputLayer(); layer++ {
		for _, from := range layers[layer] {
			for _, to := range layers[layer+1] {
				connections = append(connections, Connection{
					ID:     src.IDs.Next("connection"),
					From:   from.ID,
					To:     to.ID,
					Layer:  layer + 1,
					Weight: src.Rand.Float64()*2 - 1,
				})
			}
		}
	}

	return Config{
		Topology:     t,
		Neurons:      neurons,
		Connections:  connections,
		LearningRate: learningRate,
		TargetValues: targets,
	}, nil
}

// InitialState highlights the input layer before anything is computed.
func InitialState(cfg Config) State {
	var inputs []string
	for _, n := range cfg.Neurons {
		if n.Layer == 0 {
			inputs = append(inputs, n.ID)
		}
	}
	return State{
		Neurons:                  cfg.Neurons,
		Connections:              cfg.Connections,
		HighlightedConnectionIDs: []string{},
		HighlightedNeuronIDs:     inputs,
	}
}
