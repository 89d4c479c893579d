package svm

import (
	"fmt"

	"github.com/aretw0/mlens/pkg/domain"
)

func kernelFit(cfg Config) string {
	switch {
	case cfg.Kernel == KernelLinear && cfg.RadialData:
		return "Our data has a circular pattern. The linear kernel might not be sufficient to separate it."
	case cfg.Kernel == KernelLinear:
		return "Our data is linear, so the linear kernel is appropriate."
	case cfg.RadialData:
		return "Our data has a circular pattern. The radial kernel can separate it with a curved boundary."
	default:
		return "Our data is linear, so the radial kernel might be more complex than necessary."
	}
}

func narrate(cfg Config) func(domain.Frame[State]) domain.Narration {
	return func(f domain.Frame[State]) domain.Narration {
		switch f.Type {
		case StepInitializeModel:
			kernel := "a **linear kernel**, which does not transform the data and yields a straight boundary."
			if cfg.Kernel != KernelLinear {
				kernel = "an **rbf kernel**, which uses a radial basis function and yields a boundary that can curve."
			}
			return domain.Narration{
				Title: "Initialize SVM",
				Description: "We set up the **Support Vector Machine** with the data provided. It will try to " +
					"**separate the data points** into two groups.\n\n" +
					"A **kernel** maps the data into a higher-dimensional space where a separating boundary " +
					"is easier to find. We are using " + kernel + "\n\n> " + kernelFit(cfg) +
					" You can change the kernel type to see how it affects the boundary.",
			}
		case StepFindSupportVectors:
			return domain.Narration{
				Title: "Find Support Vectors",
				Description: fmt.Sprintf("The SVM identifies **%d** support vectors. These points lie closest "+
					"to the boundary and alone determine its shape and position. The boundary is chosen to "+
					"leave the widest possible **margin** between the classes.", len(f.State.SupportVectors)),
			}
		case StepCalculateDecisionBoundary:
			return domain.Narration{
				Title: "Final Decision Boundary",
				Description: "Using the kernel and the support vectors the SVM draws the boundary that " +
					"maximises the separation between the two groups.\n\n" +
					"> New points are classified by the side of the boundary they fall on.",
			}
		}
		return domain.Narration{Title: string(f.Type)}
	}
}
