package cmd

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/conneroisu/pages/internal/config"
)

// ServerFlags overrides the server section of the configuration.
type ServerFlags struct {
	Port int
	Host string
	Open bool
}

func addServerFlags(fs *pflag.FlagSet, flags *ServerFlags) {
	fs.IntVarP(&flags.Port, "port", "p", 8080, "Port to serve on (can also use PAGES_SERVER_PORT env var)")
	fs.StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	fs.BoolVar(&flags.Open, "open", false, "Open the browser once the server is up")
}

// apply writes the flags that were set on the command line, and the port
// from the environment, over cfg. Flags win over the environment.
func (f *ServerFlags) apply(fs *pflag.FlagSet, cfg *config.ServerConfig) error {
	if env := os.Getenv("PAGES_SERVER_PORT"); env != "" && !fs.Changed("port") {
		port, err := strconv.Atoi(env)
		if err != nil {
			return err
		}
		cfg.Port = port
	}
	if fs.Changed("port") {
		cfg.Port = f.Port
	}
	if fs.Changed("host") {
		cfg.Host = f.Host
	}
	if fs.Changed("open") {
		cfg.Open = f.Open
	}
	return nil
}
