package knn

import (
	"fmt"
	"strings"

	"github.com/aretw0/mlens/pkg/domain"
)

func narrate(cfg Config) func(domain.Frame[State]) domain.Narration {
	return func(f domain.Frame[State]) domain.Narration {
		switch f.Type {
		case StepCalculateDistance:
			return domain.Narration{
				Title: "Calculate Distance",
				Description: fmt.Sprintf("We calculate the Euclidean distance between point %d and the query point.",
					f.State.CurrentIndex),
			}
		case StepUpdateNearestNeighbors:
			var b strings.Builder
			fmt.Fprintf(&b, "The %d nearest neighbors so far are:\n\n", cfg.K)
			for _, p := range f.State.NearestNeighbors {
				fmt.Fprintf(&b, "- Point %s (%s), distance %.2f\n", p.ID, p.Group.Label, distanceOf(f.State.Distances, p.ID))
			}
			b.WriteString("\nWe refresh the neighbours after every distance for visualisation. " +
				"Normally they are picked once all distances are known.")
			return domain.Narration{Title: "Update Nearest Neighbors", Description: b.String()}
		case StepUpdateQueryPoint:
			return domain.Narration{
				Title: "Update Query Point",
				Description: "We've found the most common group among the nearest neighbors.\n\n" +
					fmt.Sprintf("The query point is now classified as **%s**.", f.State.QueryPoint.Group.Label),
			}
		}
		return domain.Narration{Title: string(f.Type)}
	}
}

func distanceOf(distances []Distance, id string) float64 {
	for _, d := range distances {
		if d.Point.ID == id {
			return d.Distance
		}
	}
	return 0
}
