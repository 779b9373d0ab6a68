package cmd

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/conneroisu/pages/internal/build"
	"github.com/conneroisu/pages/internal/metrics"
	"github.com/conneroisu/pages/internal/task"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Produce the distribution directory",
	Long: `Clean, then compile styles, scripts and pages into the staging directory,
resolve the build blocks of every page into minified bundles, and write
pages, bundles, optimised images and fonts, and public files into the
distribution directory.

Examples:
  pages build
  pages build --config site.toml
  pages build --metrics-file build.prom`,
	RunE: runBuild,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the distribution and staging directories",
	RunE:  runClean,
}

var buildMetricsFile string

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cleanCmd)

	buildCmd.Flags().StringVar(&buildMetricsFile, "metrics-file", "", "Write Prometheus metrics of the run to this file")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	var (
		rec metrics.Recorder = metrics.NoopRecorder{}
		reg *prom.Registry
	)
	if buildMetricsFile != "" {
		reg = prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
	}

	p := build.NewPipeline(a.cfg, build.Options{Dir: a.dir, Logger: a.log, Recorder: rec})
	defer p.Close()

	runErr := runWorkflow(cmd.Context(), a, build.WorkflowBuild, p.Build(), rec)

	stats := p.Metrics()
	a.log.Debug(cmd.Context(), "build summary",
		"tasks", stats.TotalTasks, "failed", stats.FailedTasks, "files", stats.FilesWritten,
		"success_rate", fmt.Sprintf("%.0f%%", stats.GetSuccessRate()))

	if reg != nil {
		if err := metrics.WriteTextfile(buildMetricsFile, reg); err != nil {
			a.log.Warn(cmd.Context(), err, "writing metrics file", "path", buildMetricsFile)
		}
	}
	return runErr
}

func runClean(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	p := build.NewPipeline(a.cfg, build.Options{Dir: a.dir, Logger: a.log})
	defer p.Close()
	return runWorkflow(cmd.Context(), a, build.WorkflowClean, p.Clean(), metrics.NoopRecorder{})
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show how each workflow is composed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		p := build.NewPipeline(a.cfg, build.Options{Dir: a.dir, Logger: a.log})
		defer p.Close()

		serve := task.New("serve", nil)
		wf := build.Workflows(p, serve)
		for _, name := range []string{build.WorkflowClean, build.WorkflowBuild, build.WorkflowDevelop} {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, task.Expand(wf[name]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
