// Package params describes the user-tunable parameters of an algorithm and
// resolves raw user input into validated values.
package params

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/mlens/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrUnknownParam  = fmt.Errorf("%w: unknown parameter", domain.ErrConfiguration)
	ErrOutOfRange    = fmt.Errorf("%w: value out of range", domain.ErrConfiguration)
	ErrInvalidOption = fmt.Errorf("%w: invalid option", domain.ErrConfiguration)
	ErrTypeMismatch  = fmt.Errorf("%w: wrong value type", domain.ErrConfiguration)
	ErrOffStep       = fmt.Errorf("%w: value not on the slider step", domain.ErrConfiguration)
)

// stepTolerance absorbs float error in decimal steps such as 0.01.
const stepTolerance = 1e-6

// Kind selects the widget a parameter is edited with.
type Kind string

const (
	KindSlider Kind = "slider"
	KindSwitch Kind = "switch"
	KindSelect Kind = "select"
)

// Param is the metadata of one parameter. The engine treats it as data only.
type Param struct {
	Name        string   `json:"name" yaml:"name"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description" yaml:"description"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Min         float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max         float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step        float64  `json:"step,omitempty" yaml:"step,omitempty"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Default     any      `json:"default" yaml:"default"`
}

// Slider declares a numeric parameter bounded by [min, max].
func Slider(name, label, description string, def, min, max, step float64) Param {
	if step == 0 {
		step = 1
	}
	return Param{Name: name, Label: label, Description: description, Kind: KindSlider, Min: min, Max: max, Step: step, Default: def}
}

// Switch declares a boolean parameter.
func Switch(name, label, description string, def bool) Param {
	return Param{Name: name, Label: label, Description: description, Kind: KindSwitch, Default: def}
}

// Select declares a parameter restricted to a list of options.
func Select(name, label, description, def string, options ...string) Param {
	return Param{Name: name, Label: label, Description: description, Kind: KindSelect, Options: options, Default: def}
}

// Values maps parameter names to values.
type Values map[string]any

// Schema is the ordered parameter list of an algorithm.
type Schema []Param

// Lookup finds a parameter by name.
func (s Schema) Lookup(name string) (Param, bool) {
	for _, p := range s {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Defaults returns the default value of every parameter.
func (s Schema) Defaults() Values {
	out := make(Values, len(s))
	for _, p := range s {
		out[p.Name] = p.Default
	}
	return out
}

// Resolve fills missing values with defaults, coerces the rest into the
// parameter's kind and validates bounds, slider steps and options.
// Sliders resolve to float64, switches to bool, selects to string.
func (s Schema) Resolve(in Values) (Values, error) {
	for name := range in {
		if _, ok := s.Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
		}
	}

	out := s.Defaults()
	for _, p := range s {
		raw, ok := in[p.Name]
		if !ok || raw == nil {
			continue
		}
		v, err := p.coerce(raw)
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	return out, nil
}

func (p Param) coerce(raw any) (any, error) {
	switch p.Kind {
	case KindSlider:
		f, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, p.Name, err)
		}
		if math.IsNaN(f) || f < p.Min || f > p.Max {
			return nil, fmt.Errorf("%w: %s = %v not in [%v, %v]", ErrOutOfRange, p.Name, f, p.Min, p.Max)
		}
		if p.Step > 0 {
			n := (f - p.Min) / p.Step
			if math.Abs(n-math.Round(n)) > stepTolerance {
				return nil, fmt.Errorf("%w: %s = %v, want %v + n*%v", ErrOffStep, p.Name, f, p.Min, p.Step)
			}
		}
		return f, nil
	case KindSwitch:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, p.Name, err)
			}
			return b, nil
		}
		return nil, fmt.Errorf("%w: %s expects a boolean, got %T", ErrTypeMismatch, p.Name, raw)
	case KindSelect:
		v, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string, got %T", ErrTypeMismatch, p.Name, raw)
		}
		for _, o := range p.Options {
			if o == v {
				return v, nil
			}
		}
		return nil, fmt.Errorf("%w: %s = %q, want one of %v", ErrInvalidOption, p.Name, v, p.Options)
	}
	return nil, fmt.Errorf("%w: %s has unknown kind %q", ErrTypeMismatch, p.Name, p.Kind)
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("unsupported type %T", raw)
}

// Decode copies resolved values into a typed parameter struct using its
// mapstructure tags. Float sliders decode into int fields.
func Decode(values Values, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(values)); err != nil {
		return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return nil
}

// ParseAssignments turns "name=value" pairs (as given on a command line) into Values.
// The values stay strings; Resolve coerces them.
func ParseAssignments(pairs []string) (Values, error) {
	out := make(Values, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: malformed assignment %q, want name=value", domain.ErrConfiguration, pair)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}
