package domain

// Status is the phase of a navigator.
type Status string

const (
	// StatusConfiguring holds only the initial step and waits for Start.
	StatusConfiguring Status = "configuring"
	// StatusLoading means a trace builder is running.
	StatusLoading Status = "loading"
	// StatusRunning means a full trace is available for navigation.
	StatusRunning Status = "running"
	// StatusError means the last build failed. The reason is kept in View.Error.
	StatusError Status = "error"
)

// View is a read-only snapshot of a navigator, the only thing a renderer reads.
type View struct {
	Algorithm     string    `json:"algorithm" yaml:"algorithm"`
	Status        Status    `json:"status" yaml:"status"`
	Index         int       `json:"index" yaml:"index"`
	Total         int       `json:"total" yaml:"total"`
	Playing       bool      `json:"playing" yaml:"playing"`
	CanGoForward  bool      `json:"canGoForward" yaml:"canGoForward"`
	CanGoBackward bool      `json:"canGoBackward" yaml:"canGoBackward"`
	Step          Step[any] `json:"step" yaml:"step"`
	Config        any       `json:"config,omitempty" yaml:"config,omitempty"`
	Error         string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Navigable reports whether navigation operations have any effect.
func (v View) Navigable() bool {
	return v.Status == StatusRunning
}

// AtEnd reports whether the view shows the last step of a running trace.
func (v View) AtEnd() bool {
	return v.Status == StatusRunning && !v.CanGoForward
}
