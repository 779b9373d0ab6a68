// Package metrics records task durations and outcomes.
package metrics

import "time"

// ResultLabel enumerates task result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for tasks and workflows.
type Recorder interface {
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskResult(task string, result ResultLabel)
	ObserveWorkflowDuration(workflow string, d time.Duration, result ResultLabel)
	IncFilesWritten(stage string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration)                  {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)                          {}
func (NoopRecorder) ObserveWorkflowDuration(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncFilesWritten(string, int)                                {}

// ResultOf maps an error to its ResultLabel.
func ResultOf(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}
