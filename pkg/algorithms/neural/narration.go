package neural

import (
	"fmt"
	"strings"

	"github.com/aretw0/mlens/pkg/domain"
)

type narrator struct {
	topology    Topology
	autoencoder bool
}

// layerName names a layer. Autoencoders name their hidden layers by role.
func (n narrator) layerName(layer int) string {
	out := n.topology.OutputLayer()
	if !n.autoencoder {
		return fmt.Sprintf("Layer %d", layer)
	}
	middle := out / 2
	switch {
	case layer == 0:
		return "Input Layer"
	case layer == out:
		return "Reconstruction Layer"
	case layer == middle:
		return "Bottleneck Layer"
	case layer < middle:
		return fmt.Sprintf("Encoder Layer %d", layer)
	default:
		return fmt.Sprintf("Decoder Layer %d", layer)
	}
}

func (n narrator) narrate(f domain.Frame[State]) domain.Narration {
	s := f.State
	out := n.topology.OutputLayer()
	switch f.Type {
	case StepWeightedSum:
		return domain.Narration{
			Title: fmt.Sprintf("Calculate Weighted Sum (Layer %d, Neuron %d)", s.CurrentLayer, s.CurrentNeuron+1),
			Description: "For each neuron we first calculate the weighted sum of its inputs: " +
				"multiply each input by its connection weight, add the products together, then add the bias.\n\n" +
				"`z = Σ wᵢxᵢ + b`\n\n> This sum decides how strongly the neuron activates.",
		}
	case StepActivation:
		return domain.Narration{
			Title: fmt.Sprintf("Apply Activation Function (Layer %d, Neuron %d)", s.CurrentLayer, s.CurrentNeuron+1),
			Description: "We apply the sigmoid function to turn the weighted sum into an activation:\n\n" +
				"`σ(x) = 1 / (1 + e^(-x))`\n\n> The sigmoid squashes any input into the range (0, 1).",
		}
	case StepLayerComplete:
		d := fmt.Sprintf("Completed processing all neurons in %s.", strings.ToLower(n.layerName(s.CurrentLayer)))
		if s.CurrentLayer == out {
			if n.autoencoder {
				d += "\n\n> Autoencoder processing complete! The network has attempted to reconstruct the input."
			} else {
				d += "\n\n> Forward propagation complete! The network has produced its final outputs."
			}
		}
		return domain.Narration{Title: n.layerName(s.CurrentLayer) + " Complete", Description: d}
	case StepLossCalculation:
		return domain.Narration{
			Title: "Calculate Loss",
			Description: "We measure prediction accuracy with the mean squared error:\n\n" +
				"`MSE = (1/n) Σ (yᵢ - ŷᵢ)² / 2`\n\n" +
				fmt.Sprintf("The loss is **%.4f**. Smaller values mean better predictions.", *s.Loss),
		}
	case StepBackpropStart:
		return domain.Narration{
			Title: "Start Backpropagation",
			Description: "Now that we know the error we use backpropagation to improve the network. " +
				"We start from the output layer and work backwards, working out how much each neuron " +
				"contributed to the error before adjusting its parameters.",
		}
	case StepBiasUpdate:
		id := s.HighlightedNeuronIDs[0]
		if s.CurrentLayer == out {
			return domain.Narration{
				Title: fmt.Sprintf("Calculate Gradient and Update Bias (Output Neuron %s)", id),
				Description: "Output neurons compare their prediction with the target directly:\n\n" +
					"`δ = (a - t) · a · (1 - a)`\n\n" +
					fmt.Sprintf("δ = %.4f, and the bias moves by `-η·δ`.", s.Gradients[id]),
			}
		}
		return domain.Narration{
			Title: fmt.Sprintf("Calculate Gradient and Update Bias (Hidden Neuron %s)", id),
			Description: "Hidden neurons collect the error signals of the neurons they feed:\n\n" +
				"`δ = Σ(δⱼ · wⱼ) · a · (1 - a)`\n\n" +
				fmt.Sprintf("δ = %.4f, and the bias moves by `-η·δ`.", s.Gradients[id]) +
				"\n\n> This is how layers far from the output still learn.",
		}
	case StepWeightUpdate:
		id := s.HighlightedConnectionIDs[0]
		return domain.Narration{
			Title: fmt.Sprintf("Update Weight (Layer %d, Connection %s)", s.CurrentLayer, id),
			Description: "Each weight moves against its gradient, the product of the receiving neuron's " +
				"delta and the sending neuron's activation:\n\n`w' = w - η · δ_to · a_from`\n\n" +
				fmt.Sprintf("Gradient: %.4f.", s.WeightGradients[id]),
		}
	case StepBackpropComplete:
		return domain.Narration{
			Title: "Backpropagation Complete",
			Description: "The network has completed one full round of learning. Every neuron received " +
				"its feedback and the connection weights have been adjusted.\n\n" +
				"> With each training cycle the network gets a little better at its task.",
		}
	}
	return domain.Narration{Title: string(f.Type)}
}
