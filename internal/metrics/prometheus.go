package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration     *prom.HistogramVec
	taskResults      *prom.CounterVec
	workflowDuration *prom.HistogramVec
	filesWritten     *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pages",
			Name:      "task_duration_seconds",
			Help:      "Duration of individual build tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pages",
			Name:      "task_results_total",
			Help:      "Task results by outcome",
		}, []string{"task", "result"}),
		workflowDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pages",
			Name:      "workflow_duration_seconds",
			Help:      "Duration of top-level workflows",
			Buckets:   prom.DefBuckets,
		}, []string{"workflow", "result"}),
		filesWritten: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pages",
			Name:      "files_written_total",
			Help:      "Files written by each stage",
		}, []string{"stage"}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.workflowDuration, pr.filesWritten)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveWorkflowDuration(workflow string, d time.Duration, result ResultLabel) {
	p.workflowDuration.WithLabelValues(workflow, string(result)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFilesWritten(stage string, n int) {
	p.filesWritten.WithLabelValues(stage).Add(float64(n))
}

// WriteTextfile writes every metric gathered from reg to path in the
// Prometheus text exposition format.
func WriteTextfile(path string, reg *prom.Registry) error {
	return prom.WriteToTextfile(path, reg)
}
