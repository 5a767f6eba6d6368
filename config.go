package jsonsmith

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rickchristie/jsonsmith/schema"
)

// Config is the persisted settings surface: which schema to enforce, how to
// prompt, and the sampling parameters. It round-trips through YAML.
//
//	enabled: true
//	json_schema: |
//	  {"type": "object", "properties": {"name": {"type": "string"}}}
//	manual_prompt: false
//	temperature: 0.7
//	seed: -1
//	max_array_length: 10
type Config struct {
	// Enabled gates schema enforcement. When false, callers should run the
	// model unconstrained instead of building a Session.
	Enabled bool `yaml:"enabled"`

	// JSONSchema is the schema document text. It is parsed and validated
	// when the config is loaded, so a bad schema is rejected at save/load
	// time rather than mid-generation.
	JSONSchema string `yaml:"json_schema"`

	// ManualPrompt selects manual prompt mode (see Session.WithManualPrompt).
	ManualPrompt bool `yaml:"manual_prompt"`

	// Temperature is the base sampling temperature.
	Temperature float64 `yaml:"temperature"`

	// Seed is the sampling seed; RandomSeed (-1) picks and locks a random
	// seed per run.
	Seed int64 `yaml:"seed"`

	// MaxArrayLength bounds generated arrays.
	MaxArrayLength int `yaml:"max_array_length"`
}

// DefaultConfig returns the defaults applied underneath a parsed config.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		ManualPrompt:   true,
		Temperature:    DefaultTemperature,
		Seed:           RandomSeed,
		MaxArrayLength: DefaultMaxArrayLength,
	}
}

// ParseConfig reads a YAML config, applying defaults for absent fields and
// validating the embedded schema text when present.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.JSONSchema != "" {
		node, err := schema.ParseString(cfg.JSONSchema)
		if err != nil {
			return nil, err
		}
		if err := node.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// Save writes the config as YAML. Like ParseConfig it refuses to persist a
// malformed schema.
func (c *Config) Save(path string) error {
	if c.JSONSchema != "" {
		node, err := schema.ParseString(c.JSONSchema)
		if err != nil {
			return err
		}
		if err := node.Validate(); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Schema parses the config's schema text into a validated node.
func (c *Config) Schema() (*schema.Node, error) {
	node, err := schema.ParseString(c.JSONSchema)
	if err != nil {
		return nil, err
	}
	if err := node.Validate(); err != nil {
		return nil, err
	}
	return node, nil
}

// NewSession builds a session from the config against the given oracle and
// instruction prompt.
func (c *Config) NewSession(oracle Oracle, prompt string) (*Session, error) {
	node, err := c.Schema()
	if err != nil {
		return nil, err
	}
	s := NewSession(oracle, node, prompt).
		WithTemperature(c.Temperature).
		WithMaxArrayLength(c.MaxArrayLength).
		WithSeed(c.Seed)
	if c.ManualPrompt {
		s.WithManualPrompt()
	} else {
		s.WithGuidedPrompt()
	}
	return s, nil
}
