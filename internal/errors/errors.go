// Package errors defines the failure types of the build pipeline.
//
// A TransformError names the stage and file an external transformation
// failed on. A TaskError wraps any failure of a leaf task so that a workflow
// error always carries the name of the task that aborted it. Both unwrap to
// their cause.
package errors

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// TransformError reports a transformation that failed on one file.
type TransformError struct {
	Stage string
	File  string
	Err   error
}

// Error implements the error interface
func (e *TransformError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.File, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// NewTransformError wraps err with stage and file context. A nil err stays nil.
func NewTransformError(stage, file string, err error) error {
	if err == nil {
		return nil
	}
	return &TransformError{Stage: stage, File: file, Err: err}
}

// TaskError reports the failure of a named task.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task '%s' failed: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// NewTaskError wraps err with the task name. Errors that already carry a
// TaskError are returned unchanged so nested workflows do not stack names.
func NewTaskError(task string, err error) error {
	if err == nil {
		return nil
	}
	var te *TaskError
	if errors.As(err, &te) {
		return err
	}
	return &TaskError{Task: task, Err: err}
}

// FailedTask returns the name of the task that produced err, if any.
func FailedTask(err error) (string, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Task, true
	}
	return "", false
}

// Entry is a recorded failure.
type Entry struct {
	Task      string
	Err       error
	Timestamp time.Time
}

// ErrorCollector keeps the latest failure per task. The development server
// uses it to know which rebuilds are still broken.
type ErrorCollector struct {
	entries map[string]Entry
	mutex   sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{entries: make(map[string]Entry)}
}

// Record stores err for task, or clears the task when err is nil.
func (ec *ErrorCollector) Record(task string, err error) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err == nil {
		delete(ec.entries, task)
		return
	}
	ec.entries[task] = Entry{Task: task, Err: err, Timestamp: time.Now()}
}

// HasErrors returns true if any task is currently failing
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.entries) > 0
}

// Entries returns a copy of the current failures.
func (ec *ErrorCollector) Entries() []Entry {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	out := make([]Entry, 0, len(ec.entries))
	for _, e := range ec.entries {
		out = append(out, e)
	}
	return out
}
