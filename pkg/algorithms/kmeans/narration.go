package kmeans

import (
	"fmt"
	"strings"

	"github.com/aretw0/mlens/pkg/domain"
)

func narrate(f domain.Frame[State]) domain.Narration {
	switch f.Type {
	case StepInitializeCentroids:
		return domain.Narration{
			Title: "Initialize Centroids",
			Description: fmt.Sprintf("This is the first iteration, so we pick **%d** points at random "+
				"and use their positions as the initial centroids.", len(f.State.Centroids)),
		}
	case StepAssignPointsToClusters:
		return domain.Narration{
			Title:       "Assign Points to Clusters",
			Description: "Every point joins the cluster of its nearest centroid by Euclidean distance.",
		}
	case StepUpdateCentroids:
		d := "Each centroid moves to the mean position of the points assigned to it:\n\n" +
			"`c = (1/n) Σ xᵢ`"
		if empty := EmptyClusters(f.State); len(empty) > 0 {
			d += fmt.Sprintf("\n\n> %s received no points and keeps its previous position.", strings.Join(empty, ", "))
		}
		return domain.Narration{Title: "Update Centroids", Description: d}
	case StepCheckConvergence:
		d := "We compare the old and new centroid positions.\n\n"
		if f.State.Converged {
			d += "No centroid moved: the algorithm has converged and stops here."
		} else {
			d += fmt.Sprintf("Centroids are still moving after %d iteration(s).", f.State.Iteration)
		}
		return domain.Narration{Title: "Check Convergence", Description: d}
	}
	return domain.Narration{Title: string(f.Type)}
}
