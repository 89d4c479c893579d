package linreg

import (
	"fmt"

	"github.com/aretw0/mlens/pkg/domain"
)

func narrate(f domain.Frame[State]) domain.Narration {
	s := f.State
	switch f.Type {
	case StepCalculateMeans:
		return domain.Narration{
			Title: "Calculate Means",
			Description: fmt.Sprintf("Start by calculating the mean of x, y and z: (%.2f, %.2f, %.2f).",
				s.Means.X, s.Means.Y, s.Means.Z),
		}
	case StepCalculateCoefficients:
		c := s.Coefficients
		return domain.Narration{
			Title: "Calculate Coefficients",
			Description: fmt.Sprintf("Calculate the regression line coefficients with "+
				"`slope = Σ(x-x̄)(y-ȳ) / Σ(x-x̄)²`:\n\n"+
				"- Slope X-Y: %.4f\n- Slope X-Z: %.4f\n- Intercept Y: %.4f\n- Intercept Z: %.4f\n\n"+
				"The line is given by\n\n`y = %.2fx + %.2f`\n\n`z = %.2fx + %.2f`",
				c.SlopeXY, c.SlopeXZ, c.InterceptY, c.InterceptZ,
				c.SlopeXY, c.InterceptY, c.SlopeXZ, c.InterceptZ),
		}
	case StepUpdateLine:
		l := s.PredictionLine
		return domain.Narration{
			Title: "Update Regression Line",
			Description: fmt.Sprintf("Draw the regression line using the calculated coefficients:\n\n"+
				"- Starting point: (%.2f, %.2f, %.2f)\n- Ending point: (%.2f, %.2f, %.2f)",
				l.Start.X, l.Start.Y, l.Start.Z, l.End.X, l.End.Y, l.End.Z),
		}
	case StepCalculateSumOfSquaredErrors:
		return domain.Narration{
			Title: "Calculate Sum of Squared Errors",
			Description: "We measure how good the line is with the sum of squared errors.\n\n" +
				fmt.Sprintf("The sum of squared errors is %.2f.", *s.SumOfSquaredErrors),
		}
	}
	return domain.Narration{Title: string(f.Type)}
}
