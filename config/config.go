// Copyright 2021 The httpchain Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/gogama/httpchain/retry"
)

// DefaultEnvPrefix is the prefix of the environment variables read by
// Load.
const DefaultEnvPrefix = "HTTPCHAIN_"

// An Option adds a source to Load.
type Option func(*loader)

type loader struct {
	path      string
	data      []byte
	envPrefix string
	noEnv     bool
}

// WithFile loads a YAML file after the defaults.
func WithFile(path string) Option {
	return func(l *loader) {
		l.path = path
	}
}

// WithYAML loads a YAML document after the defaults and any file.
func WithYAML(data []byte) Option {
	return func(l *loader) {
		l.data = data
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *loader) {
		l.envPrefix = prefix
	}
}

// WithoutEnv disables environment variable overrides.
func WithoutEnv() Option {
	return func(l *loader) {
		l.noEnv = true
	}
}

// Load builds a configuration from the defaults and the given sources,
// and validates it.
func Load(opts ...Option) (*Config, error) {
	l := loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&l)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if l.path != "" {
		if err := k.Load(file.Provider(l.path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", l.path, err)
		}
	}
	if l.data != nil {
		if err := k.Load(rawbytes.Provider(l.data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load YAML: %w", err)
		}
	}
	if !l.noEnv {
		if err := k.Load(env.Provider(".", env.Opt{
			Prefix:        l.envPrefix,
			TransformFunc: envTransform(l.envPrefix),
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment variables: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func envTransform(prefix string) func(key, value string) (string, any) {
	return func(key, value string) (string, any) {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, prefix)), "_", ".")
		if strings.Contains(value, ",") {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	}
}

func defaults() map[string]any {
	kinds := make([]string, len(retry.DefaultErrorKinds))
	for i, k := range retry.DefaultErrorKinds {
		kinds[i] = k.String()
	}
	return map[string]any{
		"retry.maxattempts": retry.DefaultTimes,
		"retry.statuscodes": retry.DefaultStatusCodes,
		"retry.errorkinds":  kinds,
		"retry.methods":     retry.DefaultMethods,

		"backoff.base":   "50ms",
		"backoff.max":    "1s",
		"backoff.jitter": true,

		"timeout.attempt": "5s",

		"client.requestidheader": "X-Request-ID",
		"client.raiseforstatus":  false,

		"log.level":  "info",
		"log.pretty": false,
	}
}

var validate = validator.New()

// FieldError describes one invalid configuration field.
type FieldError struct {
	Field string
	Tag   string
	Value any
}

// ValidationError lists every invalid field of a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (err *ValidationError) Error() string {
	msgs := make([]string, len(err.Errors))
	for i, fe := range err.Errors {
		msgs[i] = fmt.Sprintf("%s failed %q (value %v)", fe.Field, fe.Tag, fe.Value)
	}
	return "httpchain/config: " + strings.Join(msgs, "; ")
}

// Validate checks cfg against its field constraints.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fes := make([]FieldError, len(ves))
	for i, fe := range ves {
		fes[i] = FieldError{
			Field: strings.TrimPrefix(fe.Namespace(), "Config."),
			Tag:   fe.Tag(),
			Value: fe.Value(),
		}
	}
	return &ValidationError{Errors: fes}
}
