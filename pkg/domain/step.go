package domain

import (
	"fmt"
	"slices"
)

// StepType names the phase of an algorithm a step belongs to.
type StepType string

// StepInitial is the type of the first step of every trace.
const StepInitial StepType = "initial"

// Narration is the human-readable half of a step.
// Description is Markdown.
type Narration struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Frame is a pure state snapshot emitted by a simulation.
type Frame[S any] struct {
	Type  StepType `json:"type" yaml:"type"`
	State S        `json:"state" yaml:"state"`
}

// Step is one entry of a trace. State is a complete snapshot, never a diff.
type Step[S any] struct {
	Type      StepType `json:"type" yaml:"type"`
	Narration `yaml:",inline"`
	State     S `json:"state" yaml:"state"`
}

// Erase drops the state type so steps of different algorithms can share a surface.
func (s Step[S]) Erase() Step[any] {
	return Step[any]{Type: s.Type, Narration: s.Narration, State: s.State}
}

// Narrate pairs each frame with its narration and prepends the initial step.
func Narrate[S any](initial Step[S], frames []Frame[S], narrate func(Frame[S]) Narration) []Step[S] {
	steps := make([]Step[S], 0, len(frames)+1)
	steps = append(steps, initial)
	for _, f := range frames {
		steps = append(steps, Step[S]{Type: f.Type, Narration: narrate(f), State: f.State})
	}
	return steps
}

// ValidateTrace checks that a trace is non-empty and starts with the initial step.
func ValidateTrace[S any](steps []Step[S]) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: empty trace", ErrInvalidTrace)
	}
	if steps[0].Type != StepInitial {
		return fmt.Errorf("%w: first step is %q", ErrInvalidTrace, steps[0].Type)
	}
	return nil
}

// EraseTrace converts a typed trace into its type-erased form.
func EraseTrace[S any](steps []Step[S]) []Step[any] {
	out := make([]Step[any], len(steps))
	for i, s := range steps {
		out[i] = s.Erase()
	}
	return out
}

// CountTypes returns how many steps of each type a trace holds.
func CountTypes[S any](steps []Step[S]) map[StepType]int {
	counts := make(map[StepType]int)
	for _, s := range steps {
		counts[s.Type]++
	}
	return counts
}

// LastOfType returns the index of the last step with the given type, or -1.
func LastOfType[S any](steps []Step[S], t StepType) int {
	for i, s := range slices.Backward(steps) {
		if s.Type == t {
			return i
		}
	}
	return -1
}
