package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pages/internal/build"
	"github.com/conneroisu/pages/internal/metrics"
	"github.com/conneroisu/pages/internal/server"
)

var developCmd = &cobra.Command{
	Use:     "develop",
	Aliases: []string{"dev", "serve"},
	Short:   "Compile into staging and serve with live reload",
	Long: `Clean, compile styles, scripts and pages into the staging directory, then
serve the staging, source and public directories with live reload.

Edits to styles, scripts or pages re-run the matching stage; edits to images,
fonts or public files reload the browser. Failed rebuilds are shown in the
browser and the server keeps running.

Examples:
  pages develop
  pages develop --port 3000 --open`,
	RunE: runDevelop,
}

var developFlags ServerFlags

func init() {
	rootCmd.AddCommand(developCmd)
	addServerFlags(developCmd.Flags(), &developFlags)
}

func runDevelop(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if err := developFlags.apply(cmd.Flags(), &a.cfg.Server); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := build.NewPipeline(a.cfg, build.Options{Dir: a.dir, Logger: a.log})
	defer p.Close()

	serve := server.Serve(p, server.ServeOptions{Options: server.Options{Logger: a.log}})
	return runWorkflow(ctx, a, build.WorkflowDevelop, p.Develop(serve), metrics.NoopRecorder{})
}
