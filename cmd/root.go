// Package cmd provides the command-line interface for pages.
//
// Configuration System:
//
//	The effective configuration is the built-in default with an optional
//	override file applied on top (top-level keys replace the default):
//	1. --config flag: explicit override file
//	2. PAGES_CONFIG_FILE environment variable: explicit override file
//	3. Default: pages.config.{yaml,yml,json,toml} in the project directory
//
// Environment Variables:
//
//	PAGES_CONFIG_FILE: Path to the override file
//	PAGES_LOG_LEVEL:   debug, info, warn or error
//	PAGES_LOG_FORMAT:  text or json
//	PAGES_SERVER_PORT: Development server port
package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/metrics"
	"github.com/conneroisu/pages/internal/task"
)

var (
	cfgFile string
	settings = viper.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pages",
	Short: "Build and serve static sites",
	Long: `pages compiles the styles, scripts and page templates of a static site,
bundles the references of its pages, optimises images and fonts, and copies
public files into a distribution directory.

Workflows:
  pages clean      Remove the distribution and staging directories
  pages build      Produce the distribution directory
  pages develop    Compile into staging and serve with live reload
  pages tasks      Show how each workflow is composed`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "override file (default is pages.config.yaml, can also use PAGES_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.StringP("dir", "C", ".", "project directory")

	_ = settings.BindPFlags(flags)
	settings.SetEnvPrefix("PAGES")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	settings.AutomaticEnv()
}

// app is what every workflow command needs.
type app struct {
	log *logging.PagesLogger
	cfg config.Config
	dir string
}

func loadApp() (*app, error) {
	level, err := logging.ParseLevel(settings.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	log := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: settings.GetString("log-format"),
		Output: os.Stderr,
	})

	file := cfgFile
	if file == "" {
		file = os.Getenv("PAGES_CONFIG_FILE")
	}
	dir := settings.GetString("dir")
	return &app{log: log, cfg: config.Load(dir, file, log), dir: dir}, nil
}

// runWorkflow runs t and reports the outcome on the terminal.
func runWorkflow(ctx context.Context, a *app, name string, t task.Task, rec metrics.Recorder) error {
	start := time.Now()
	err := t.Run(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	rec.ObserveWorkflowDuration(name, elapsed, metrics.ResultOf(err))
	_ = a.log.Sync()

	if err != nil {
		if failed, ok := errors.FailedTask(err); ok {
			color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✗ %s failed in '%s' after %s\n", name, failed, elapsed)
		} else {
			color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✗ %s failed after %s\n", name, elapsed)
		}
		return err
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "✓ %s finished in %s\n", name, elapsed)
	return nil
}
