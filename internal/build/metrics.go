package build

import (
	"sync"
	"time"
)

// BuildMetrics summarises the leaf tasks of one pipeline.
type BuildMetrics struct {
	TotalTasks      int64
	SucceededTasks  int64
	FailedTasks     int64
	FilesWritten    int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	mutex           sync.RWMutex
}

// NewBuildMetrics creates an empty summary.
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordTask records one finished leaf task.
func (bm *BuildMetrics) RecordTask(d time.Duration, err error) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalTasks++
	bm.TotalDuration += d
	if err != nil {
		bm.FailedTasks++
	} else {
		bm.SucceededTasks++
	}
	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalTasks)
}

// AddFiles counts files written by a stage.
func (bm *BuildMetrics) AddFiles(n int) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()
	bm.FilesWritten += int64(n)
}

// GetSnapshot returns a copy of the current counters.
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()
	return BuildMetrics{
		TotalTasks:      bm.TotalTasks,
		SucceededTasks:  bm.SucceededTasks,
		FailedTasks:     bm.FailedTasks,
		FilesWritten:    bm.FilesWritten,
		AverageDuration: bm.AverageDuration,
		TotalDuration:   bm.TotalDuration,
	}
}

// GetSuccessRate returns the share of successful tasks as a percentage.
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalTasks == 0 {
		return 0.0
	}
	return float64(bm.SucceededTasks) / float64(bm.TotalTasks) * 100.0
}
