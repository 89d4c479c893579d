package neural

import (
	"context"
	"maps"
	"math"
	"slices"

	"github.com/aretw0/mlens/pkg/domain"
)

// Sigmoid is the activation of every non-input neuron.
func Sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// Simulate runs the forward pass over layers 1..L+1 and, when targets are
// set, one backpropagation round. Every state slice is copied before it
// changes, so earlier frames are never touched.
func Simulate(ctx context.Context, cfg Config) ([]domain.Frame[State], error) {
	if len(cfg.TargetValues) > 0 && len(cfg.TargetValues) != cfg.Topology.OutputSize {
		return nil, ErrTargetMismatch
	}
	s := newSimulation(cfg)
	if err := s.forward(ctx); err != nil {
		return nil, err
	}
	if len(cfg.TargetValues) > 0 {
		if err := s.backward(ctx); err != nil {
			return nil, err
		}
	}
	return s.frames, nil
}

type simulation struct {
	cfg         Config
	neurons     []Neuron
	connections []Connection
	pos         map[string]int
	incoming    map[string][]Connection
	outgoing    map[string][]Connection
	frames      []domain.Frame[State]
}

func newSimulation(cfg Config) *simulation {
	s := &simulation{
		cfg:         cfg,
		neurons:     cfg.Neurons,
		connections: cfg.Connections,
		pos:         make(map[string]int, len(cfg.Neurons)),
		incoming:    make(map[string][]Connection),
		outgoing:    make(map[string][]Connection),
	}
	for i, n := range cfg.Neurons {
		s.pos[n.ID] = i
	}
	for _, c := range cfg.Connections {
		s.incoming[c.To] = append(s.incoming[c.To], c)
		s.outgoing[c.From] = append(s.outgoing[c.From], c)
	}
	return s
}

func (s *simulation) emit(t domain.StepType, st State) {
	if st.Neurons == nil {
		st.Neurons = s.neurons
	}
	if st.Connections == nil {
		st.Connections = s.connections
	}
	if st.HighlightedConnectionIDs == nil {
		st.HighlightedConnectionIDs = []string{}
	}
	if st.HighlightedNeuronIDs == nil {
		st.HighlightedNeuronIDs = []string{}
	}
	s.frames = append(s.frames, domain.Frame[State]{Type: t, State: st})
}

// layer returns the positions of the neurons in a layer, in index order.
func (s *simulation) layer(layer int) []int {
	var out []int
	for i, n := range s.neurons {
		if n.Layer == layer {
			out = append(out, i)
		}
	}
	return out
}

func (s *simulation) ids(positions []int) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = s.neurons[p].ID
	}
	return out
}

func (s *simulation) forward(ctx context.Context) error {
	for layer := 1; layer <= s.cfg.Topology.OutputLayer(); layer++ {
		members := s.layer(layer)
		for ni, p := range members {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := s.neurons[p]
			in := s.incoming[n.ID]
			highlighted := make([]string, len(in))
			sum := n.Bias
			for i, c := range in {
				sum += s.neurons[s.pos[c.From]].Activation * c.Weight
				highlighted[i] = c.ID
			}

			summed := slices.Clone(s.neurons)
			summed[p].Value = sum
			s.emit(StepWeightedSum, State{
				CurrentLayer: layer, CurrentNeuron: ni, Neurons: summed,
				HighlightedConnectionIDs: highlighted, HighlightedNeuronIDs: []string{n.ID},
			})

			activated := slices.Clone(summed)
			activated[p].Activation = Sigmoid(sum)
			s.neurons = activated
			s.emit(StepActivation, State{
				CurrentLayer: layer, CurrentNeuron: ni,
				HighlightedConnectionIDs: highlighted, HighlightedNeuronIDs: []string{n.ID},
			})
		}
		s.emit(StepLayerComplete, State{CurrentLayer: layer, HighlightedNeuronIDs: s.ids(members)})
	}
	return nil
}

// Loss is the mean over output neurons of (activation-target)²/2.
func Loss(outputs []Neuron, targets []float64) float64 {
	if len(outputs) == 0 {
		return 0
	}
	var sum float64
	for i, n := range outputs {
		e := n.Activation - targets[i]
		sum += e * e / 2
	}
	return sum / float64(len(outputs))
}

func (s *simulation) backward(ctx context.Context) error {
	out := s.cfg.Topology.OutputLayer()
	targets := s.cfg.TargetValues
	lr := s.cfg.LearningRate

	outputs := s.layer(out)
	outNeurons := make([]Neuron, len(outputs))
	for i, p := range outputs {
		outNeurons[i] = s.neurons[p]
	}
	loss := Loss(outNeurons, targets)

	s.emit(StepLossCalculation, State{
		CurrentLayer: out, HighlightedNeuronIDs: s.ids(outputs), Loss: &loss, TargetValues: targets,
	})
	s.emit(StepBackpropStart, State{
		CurrentLayer: out, Loss: &loss, TargetValues: targets,
		Gradients: map[string]float64{}, WeightGradients: map[string]float64{},
	})

	// Deltas come from the pre-update weights; weights change only afterwards.
	deltas := make(map[string]float64, len(s.neurons))
	for layer := out; layer >= 1; layer-- {
		for ni, p := range s.layer(layer) {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := s.neurons[p]
			derivative := n.Activation * (1 - n.Activation)
			var delta float64
			if layer == out {
				delta = (n.Activation - targets[ni]) * derivative
			} else {
				var downstream float64
				for _, c := range s.outgoing[n.ID] {
					downstream += deltas[c.To] * c.Weight
				}
				delta = downstream * derivative
			}
			deltas[n.ID] = delta

			updated := slices.Clone(s.neurons)
			updated[p].Bias = n.Bias - lr*delta
			s.neurons = updated
			s.emit(StepBiasUpdate, State{
				CurrentLayer: layer, CurrentNeuron: ni,
				HighlightedNeuronIDs: []string{n.ID}, Gradients: maps.Clone(deltas),
			})
		}
	}

	weightGradients := make(map[string]float64, len(s.connections))
	for layer := out; layer >= 1; layer-- {
		for i, c := range s.connections {
			if c.Layer != layer {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			from, to := s.neurons[s.pos[c.From]], s.neurons[s.pos[c.To]]
			gradient := deltas[c.To] * from.Activation
			weightGradients[c.ID] = gradient

			updated := slices.Clone(s.connections)
			updated[i].Weight = c.Weight - lr*gradient
			s.connections = updated
			s.emit(StepWeightUpdate, State{
				CurrentLayer: layer, CurrentNeuron: to.Index,
				HighlightedConnectionIDs: []string{c.ID}, HighlightedNeuronIDs: []string{from.ID, to.ID},
				WeightGradients: maps.Clone(weightGradients),
			})
		}
	}

	s.emit(StepBackpropComplete, State{Gradients: deltas, WeightGradients: weightGradients})
	return nil
}
