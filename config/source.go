package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var Validator = validator.New()

// A Source fills in part of a Config. Sources are applied in order and later
// sources overwrite earlier ones.
type Source interface {
	Name() string
	Apply(cfg *Config) error
}

// FileSource reads a yaml file. A missing file is only an error when Required is set.
type FileSource struct {
	Path     string
	Required bool
}

func (f FileSource) Name() string {
	return "file:" + f.Path
}

func (f FileSource) Apply(cfg *Config) error {
	data, err := os.ReadFile(f.Path)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !f.Required {
			return nil
		}
		return fmt.Errorf("read %s: %w", f.Path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", f.Path, err)
	}

	return nil
}

// EnvSource reads the `env` struct tags from the process environment. Unset
// variables leave the current value alone.
type EnvSource struct {
	// Environment overrides os.Environ, mostly for tests
	Environment map[string]string
}

func (e EnvSource) Name() string {
	return "env"
}

func (e EnvSource) Apply(cfg *Config) error {
	opts := env.Options{}

	if e.Environment != nil {
		opts.Environment = e.Environment
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// LiteralSource replaces the whole config with a value compiled into the binary.
type LiteralSource struct {
	Config Config
}

func (l LiteralSource) Name() string {
	return "literal"
}

func (l LiteralSource) Apply(cfg *Config) error {
	*cfg = l.Config
	return nil
}

// Load starts from Defaults, applies every source and validates the result.
func Load(sources ...Source) (*Config, error) {
	cfg := Defaults()

	for _, src := range sources {
		if err := src.Apply(cfg); err != nil {
			return nil, fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	if err := Validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("configError: %w", err)
	}

	return cfg, nil
}
