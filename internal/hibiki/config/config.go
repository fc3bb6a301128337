// Package config loads the optional Hibiki YAML configuration file.
//
// Everything in the file can also be supplied through environment variables;
// the file exists so deployments can keep tuning knobs (model, endpoint,
// timeouts, history caps) in one reviewable document.  Environment variables
// win over file values so ad-hoc overrides remain possible.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML configuration document.
type File struct {
	Matrix struct {
		Homeserver string   `yaml:"homeserver"`
		UserID     string   `yaml:"user_id"`
		Rooms      []string `yaml:"rooms"`
	} `yaml:"matrix"`

	Model struct {
		Name    string `yaml:"name"`
		BaseURL string `yaml:"base_url"`

		// Durations are kept as strings ("10s", "1m30s") and parsed on
		// access, since the YAML decoder has no native duration type.
		ClassifyTimeout string `yaml:"classify_timeout"`
		RespondTimeout  string `yaml:"respond_timeout"`
	} `yaml:"model"`

	History struct {
		MaxTurns int `yaml:"max_turns"`
	} `yaml:"history"`

	RateLimit struct {
		PerMinute int `yaml:"per_minute"`
	} `yaml:"rate_limit"`
}

// GetClassifyTimeout returns the classification timeout as a duration.
// Returns 0 when unset, letting the engine apply its own default.
func (f *File) GetClassifyTimeout() time.Duration {
	return parseDurationOrZero(f.Model.ClassifyTimeout)
}

// GetRespondTimeout returns the response timeout as a duration.
// Returns 0 when unset, letting the engine apply its own default.
func (f *File) GetRespondTimeout() time.Duration {
	return parseDurationOrZero(f.Model.RespondTimeout)
}

func parseDurationOrZero(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Load reads and validates the YAML config at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML config document and validates it.  It is the
// canonical entry point for loading Hibiki file configuration.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks a config document for structural correctness.
// It returns the first validation error encountered, or nil when valid.
func Validate(f *File) error {
	if f == nil {
		return fmt.Errorf("config must not be nil")
	}

	for i, room := range f.Matrix.Rooms {
		if strings.TrimSpace(room) == "" {
			return fmt.Errorf("matrix.rooms[%d] must not be empty", i)
		}
	}

	if err := validateDuration("model.classify_timeout", f.Model.ClassifyTimeout); err != nil {
		return err
	}
	if err := validateDuration("model.respond_timeout", f.Model.RespondTimeout); err != nil {
		return err
	}
	if f.History.MaxTurns < 0 {
		return fmt.Errorf("history.max_turns must not be negative")
	}
	if f.RateLimit.PerMinute < 0 {
		return fmt.Errorf("rate_limit.per_minute must not be negative")
	}

	return nil
}

// validateDuration checks that an optional duration string is parseable and
// not negative.
func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}
