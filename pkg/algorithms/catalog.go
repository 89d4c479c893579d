// Package algorithms wires every trace builder into a registry.
package algorithms

import (
	"github.com/aretw0/mlens/pkg/algorithms/kmeans"
	"github.com/aretw0/mlens/pkg/algorithms/knn"
	"github.com/aretw0/mlens/pkg/algorithms/linreg"
	"github.com/aretw0/mlens/pkg/algorithms/neural"
	"github.com/aretw0/mlens/pkg/algorithms/svm"
	"github.com/aretw0/mlens/pkg/algorithms/xgboost"
	"github.com/aretw0/mlens/pkg/navigator"
	"github.com/aretw0/mlens/pkg/ports"
	"github.com/aretw0/mlens/pkg/registry"
)

type options struct {
	booster xgboost.Booster
}

// Option tunes the catalog.
type Option func(*options)

// WithBooster makes XGBoost delegate its fit to b.
func WithBooster(b xgboost.Booster) Option {
	return func(o *options) { o.booster = b }
}

// All returns every algorithm, bound and ready to register.
func All(opts ...Option) []ports.Algorithm {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return []ports.Algorithm{
		navigator.Bind(kmeans.New()),
		navigator.Bind(knn.New()),
		navigator.Bind(linreg.New()),
		navigator.Bind(svm.New()),
		navigator.Bind(xgboost.New(xgboost.WithBooster(o.booster))),
		navigator.Bind(neural.NewFFNN()),
		navigator.Bind(neural.NewAutoencoder()),
	}
}

// Register adds every algorithm to r.
func Register(r *registry.Registry, opts ...Option) error {
	for _, a := range All(opts...) {
		if err := r.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a registry holding the whole catalog.
func Default(opts ...Option) *registry.Registry {
	r := registry.NewRegistry()
	r.MustRegister(All(opts...)...)
	return r
}
