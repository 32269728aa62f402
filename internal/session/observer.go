package session

import "log/slog"

// StepStatus is the lifecycle state reported for one pipeline step.
type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepObserver receives progress notifications as the analysis pipeline runs.
// Presentation layers implement this to drive progress output; the core only
// emits, never renders.
type StepObserver interface {
	OnStep(step string, status StepStatus)
}

// NopObserver discards all step notifications.
type NopObserver struct{}

func (NopObserver) OnStep(string, StepStatus) {}

// LogObserver reports steps to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) OnStep(step string, status StepStatus) {
	o.Logger.Debug("analysis step", "step", step, "status", string(status))
}
