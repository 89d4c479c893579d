package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStatusChange EventType = "status_change"
	EventStepChange   EventType = "step_change"
	EventTraceReady   EventType = "trace_ready"
	EventTraceFailed  EventType = "trace_failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Algorithm string    `json:"algorithm"`
}

// StatusEvent records a navigator moving between phases.
type StatusEvent struct {
	EventBase
	From Status `json:"from"`
	To   Status `json:"to"`
}

// StepEvent records a change of the current step index.
type StepEvent struct {
	EventBase
	From     int      `json:"from"`
	To       int      `json:"to"`
	StepType StepType `json:"step_type"`
	Auto     bool     `json:"auto,omitempty"`
}

// TraceEvent records the outcome of a trace build.
type TraceEvent struct {
	EventBase
	Steps    int           `json:"steps,omitempty"`
	Duration time.Duration `json:"duration"`
	Cached   bool          `json:"cached,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for navigator observability.
// Hooks run outside the navigator lock and may call back into it.
type LifecycleHooks struct {
	OnStatusChange func(context.Context, *StatusEvent)
	OnStepChange   func(context.Context, *StepEvent)
	OnTraceReady   func(context.Context, *TraceEvent)
	OnTraceFailed  func(context.Context, *TraceEvent)
}

// ComposeHooks runs each set of hooks in order.
func ComposeHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStatusChange: func(ctx context.Context, e *StatusEvent) {
			for _, h := range all {
				if h.OnStatusChange != nil {
					h.OnStatusChange(ctx, e)
				}
			}
		},
		OnStepChange: func(ctx context.Context, e *StepEvent) {
			for _, h := range all {
				if h.OnStepChange != nil {
					h.OnStepChange(ctx, e)
				}
			}
		},
		OnTraceReady: func(ctx context.Context, e *TraceEvent) {
			for _, h := range all {
				if h.OnTraceReady != nil {
					h.OnTraceReady(ctx, e)
				}
			}
		},
		OnTraceFailed: func(ctx context.Context, e *TraceEvent) {
			for _, h := range all {
				if h.OnTraceFailed != nil {
					h.OnTraceFailed(ctx, e)
				}
			}
		},
	}
}
