package algorithm

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/slok/galgo/internal/model"
)

// RawConfig is the user supplied configuration of an algorithm before decoding.
type RawConfig = map[string]any

// Config is a decoded algorithm configuration that validates itself.
type Config interface {
	Validate() error
	Common() CommonConfig
}

// CommonConfig has the parameters shared by all the algorithms. Algorithm
// configurations embed it inline.
type CommonConfig struct {
	// ConcurrencyValue is the number of workers, 0 uses the default.
	ConcurrencyValue int `yaml:"concurrency"`
	// JobID sets the job id instead of generating one.
	JobID string `yaml:"jobId"`
	// Property is the node property set by the mutate and write modes.
	Property string `yaml:"property"`
}

// Common returns the common configuration.
func (c CommonConfig) Common() CommonConfig { return c }

// Concurrency returns the requested concurrency.
func (c CommonConfig) Concurrency() model.Concurrency {
	if c.ConcurrencyValue == 0 {
		return model.DefaultConcurrency
	}
	return model.MustConcurrency(c.ConcurrencyValue)
}

// Validate validates the common parameters.
func (c CommonConfig) Validate() error {
	if c.ConcurrencyValue < 0 {
		return model.NewConfigError("concurrency", "must be at least 1, got: %d", c.ConcurrencyValue)
	}
	return nil
}

func validateForMode(cfg Config, mode model.ExecutionMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	switch mode {
	case model.ExecutionModeMutate, model.ExecutionModeWrite:
		if cfg.Common().Property == "" {
			return model.NewConfigError("property", "is required in %s mode", mode)
		}
	}

	return nil
}

// DecodeConfig decodes the raw configuration into cfg, a pointer that can hold
// the default values already. Unknown parameters are rejected.
func DecodeConfig(raw RawConfig, cfg any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return model.NewConfigError("config", "could not encode configuration: %s", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return model.NewConfigError("config", "%s", err)
	}

	return nil
}

// DecodeAndValidate decodes the raw configuration and validates it.
func DecodeAndValidate[C Config](raw RawConfig, cfg C) (C, error) {
	if err := DecodeConfig(raw, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
