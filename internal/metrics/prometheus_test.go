package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveTaskDuration("style", 120*time.Millisecond)
	r.IncTaskResult("style", ResultSuccess)
	r.IncTaskResult("script", ResultFailed)
	r.ObserveWorkflowDuration("build", time.Second, ResultFailed)
	r.IncFilesWritten("style", 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["pages_task_duration_seconds"])
	assert.True(t, names["pages_task_results_total"])
	assert.True(t, names["pages_workflow_duration_seconds"])
	assert.True(t, names["pages_files_written_total"])
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)
	r.IncTaskResult("page", ResultSuccess)

	path := filepath.Join(t.TempDir(), "pages.prom")
	require.NoError(t, WriteTextfile(path, reg))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pages_task_results_total{result="success",task="page"} 1`)
}

func TestNoopRecorderAndResultOf(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveTaskDuration("x", time.Second)
		r.IncTaskResult("x", ResultSuccess)
		r.ObserveWorkflowDuration("build", time.Second, ResultSuccess)
		r.IncFilesWritten("x", 1)
	})
	assert.Equal(t, ResultSuccess, ResultOf(nil))
	assert.Equal(t, ResultFailed, ResultOf(errors.New("x")))
}
