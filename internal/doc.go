// Package internal contains the implementation packages of the pages CLI.
//
// # Package Organization
//
//   - config: default configuration, override files and advisory checks
//   - task: named tasks composed in series and in parallel
//   - scanner: glob selection of source files
//   - transform: style, script, minify and image transformations
//   - renderer: page templates rendered with configuration data
//   - build: transform stages, reference bundling, cleaning and workflows
//   - watcher: file system monitoring with debouncing and watch bindings
//   - server: development server with live reload
//   - errors: task and transform failures, and their source positions
//   - logging, metrics, validation, version: supporting concerns
//
// # Data Flow
//
// The configuration is resolved once per run and handed to the build
// pipeline by value. The pipeline turns each stage into a task, and the
// workflows compose those tasks. During development the watcher maps changed
// paths to bindings that re-run stage tasks or tell browsers to reload
// through the server's websocket hub.
package internal
