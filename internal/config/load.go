package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/pages/internal/logging"
)

// overrideFile mirrors Config with pointer fields so that absent keys stay nil.
type overrideFile struct {
	Build  *BuildConfig   `yaml:"build" toml:"build"`
	Data   map[string]any `yaml:"data" toml:"data"`
	Server *ServerConfig  `yaml:"server" toml:"server"`
}

// Load resolves the effective configuration for a run started in dir.
//
// When file is empty, dir is searched for pages.config.{yaml,yml,json,toml}.
// A missing or unreadable override is not an error: the defaults are
// returned unchanged.
func Load(dir, file string, log logging.Logger) Config {
	ctx := context.Background()
	def := Default()

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName(ConfigName)
	}

	// viper validates the syntax and locates the file; the values are decoded
	// below with the format's own decoder because viper lowercases map keys.
	if err := v.ReadInConfig(); err != nil {
		if file != "" {
			log.Debug(ctx, "Config file could not be read, using defaults", "path", file, "error", err.Error())
		} else {
			log.Debug(ctx, "No override config, using defaults", "reason", err.Error())
		}
		return def
	}

	used := v.ConfigFileUsed()
	ov, err := ReadOverride(used)
	if err != nil {
		log.Debug(ctx, "Override config failed to decode, using defaults", "path", used, "error", err.Error())
		return def
	}

	log.Debug(ctx, "Using config file", "path", used)
	return Resolve(def, ov)
}

// ReadOverride decodes the override file at path.
func ReadOverride(path string) (Override, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Override{}, err
	}

	var f overrideFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(raw, &f)
	case ".yaml", ".yml", ".json":
		err = yaml.Unmarshal(raw, &f)
	default:
		return Override{}, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err != nil {
		return Override{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	return Override{Build: f.Build, Data: f.Data, Server: f.Server}, nil
}
