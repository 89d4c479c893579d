package xgboost

import (
	"fmt"

	"github.com/aretw0/mlens/pkg/domain"
)

func narrate(cfg Config) func(domain.Frame[State]) domain.Narration {
	return func(f domain.Frame[State]) domain.Narration {
		switch f.Type {
		case StepCalculateResiduals:
			return domain.Narration{
				Title: "Calculate Residuals",
				Description: "For each point we calculate the residual between its true label and the " +
					"current prediction:\n\n`residual = actual_value - predicted_value`\n\n" +
					"> Positive residuals mean we predicted too low, negative ones that we predicted too high.",
			}
		case StepBuildTree:
			d := "A new decision tree is built to predict the residuals. It finds the best splits on the " +
				fmt.Sprintf("x and y coordinates, branches up to a depth of %d and assigns a value to every leaf.", cfg.MaxDepth)
			if t := f.State.Tree; t != nil {
				d += fmt.Sprintf("\n\nThis tree has depth %d and %d leaves.", t.Depth(), t.Leaves())
			}
			return domain.Narration{
				Title:       "Build Decision Tree",
				Description: d + "\n\n> Each split groups similar residuals, marking regions that need similar corrections.",
			}
		case StepAfterOneIteration:
			return domain.Narration{
				Title: "Update Predictions",
				Description: fmt.Sprintf("We update the predictions with the tree's output scaled by the "+
					"learning rate (%g):\n\n`new_prediction = current_prediction + learning_rate × tree_prediction`\n\n"+
					"> The learning rate keeps updates conservative and prevents overcorrecting.", cfg.LearningRate),
			}
		case StepShowFinalResult:
			return domain.Narration{
				Title: "Final Result",
				Description: fmt.Sprintf("After %d iterations, each adding a tree to the ensemble, we have "+
					"our final model. Every prediction is the initial guess plus the weighted contribution "+
					"of each tree.\n\n> The decision boundary shows how the model separates the two classes.", cfg.NumTrees),
			}
		}
		return domain.Narration{Title: string(f.Type)}
	}
}
