package domain

import "errors"

// ErrConfiguration is the kind of every error caused by parameters or a config
// that a trace builder cannot work with (e.g. fewer points than clusters).
var ErrConfiguration = errors.New("configuration error")

// ErrDegenerate is the kind of every numerical degeneracy (zero variance,
// empty input) detected instead of propagating NaN or Infinity.
var ErrDegenerate = errors.New("numerical degeneracy")

// ErrBuild is returned when a trace builder panics or produces an unusable trace.
var ErrBuild = errors.New("trace build failed")

// ErrInvalidTrace is returned when a trace is empty or does not start with the initial step.
var ErrInvalidTrace = errors.New("invalid trace")

// ErrNotFound is returned when an algorithm, session or cached trace cannot be found.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by operations on a session that has been torn down.
var ErrClosed = errors.New("session closed")
