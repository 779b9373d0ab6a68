// Package config resolves the effective build configuration for pages.
//
// A hard-coded default is combined with an optional override file
// (pages.config.yaml, .yml, .json or .toml in the working directory). The
// merge is right-biased at the top level only: a key present in the override
// replaces the whole default subtree of that key. The result is computed once
// per run and handed to every component by value.
package config

import (
	"maps"
)

// ConfigName is the base name (without extension) of the override file.
const ConfigName = "pages.config"

type Config struct {
	Build  BuildConfig    `yaml:"build" toml:"build"`
	Data   map[string]any `yaml:"data" toml:"data"`
	Server ServerConfig   `yaml:"server" toml:"server"`
}

// BuildConfig is the directory layout of a project.
type BuildConfig struct {
	Src    string      `yaml:"src" toml:"src"`
	Dist   string      `yaml:"dist" toml:"dist"`
	Temp   string      `yaml:"temp" toml:"temp"`
	Public string      `yaml:"public" toml:"public"`
	Paths  PathsConfig `yaml:"paths" toml:"paths"`
}

// PathsConfig maps each source category to a glob relative to Src.
type PathsConfig struct {
	Styles  string `yaml:"styles" toml:"styles"`
	Scripts string `yaml:"scripts" toml:"scripts"`
	Pages   string `yaml:"pages" toml:"pages"`
	Images  string `yaml:"images" toml:"images"`
	Fonts   string `yaml:"fonts" toml:"fonts"`
}

type ServerConfig struct {
	Host   string            `yaml:"host" toml:"host"`
	Port   int               `yaml:"port" toml:"port"`
	Open   bool              `yaml:"open" toml:"open"`
	Routes map[string]string `yaml:"routes" toml:"routes"`
}

// Override holds the top-level keys found in an override file. A nil field
// means the key was absent.
type Override struct {
	Build  *BuildConfig
	Data   map[string]any
	Server *ServerConfig
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Build: BuildConfig{
			Src:    "src",
			Dist:   "dist",
			Temp:   "temp",
			Public: "public",
			Paths: PathsConfig{
				Styles:  "assets/styles/*.scss",
				Scripts: "assets/scripts/*.js",
				Pages:   "*.html",
				Images:  "assets/images/**",
				Fonts:   "assets/fonts/**",
			},
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
			Routes: map[string]string{
				"/node_modules": "node_modules",
			},
		},
	}
}

// Resolve applies ov on top of def. Top-level keys are replaced, never merged.
func Resolve(def Config, ov Override) Config {
	out := def.clone()
	if ov.Build != nil {
		out.Build = *ov.Build
	}
	if ov.Data != nil {
		out.Data = maps.Clone(ov.Data)
	}
	if ov.Server != nil {
		out.Server = *ov.Server
		out.Server.Routes = maps.Clone(ov.Server.Routes)
	}
	return out
}

func (c Config) clone() Config {
	out := c
	out.Data = maps.Clone(c.Data)
	out.Server.Routes = maps.Clone(c.Server.Routes)
	return out
}

// Category names a source glob in PathsConfig.
type Category string

const (
	Styles  Category = "styles"
	Scripts Category = "scripts"
	Pages   Category = "pages"
	Images  Category = "images"
	Fonts   Category = "fonts"
)

// Categories lists the source categories in declaration order.
var Categories = []Category{Styles, Scripts, Pages, Images, Fonts}

// Pattern returns the glob configured for c, or "" for an unknown category.
func (p PathsConfig) Pattern(c Category) string {
	switch c {
	case Styles:
		return p.Styles
	case Scripts:
		return p.Scripts
	case Pages:
		return p.Pages
	case Images:
		return p.Images
	case Fonts:
		return p.Fonts
	default:
		return ""
	}
}
