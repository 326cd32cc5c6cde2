// Package config loads the annotate.yaml configuration: the names ignored in
// every document, the annotation types known to the tools, and the settings
// of the scan and serve commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toyz/annotate/internal/utils"
)

const (
	// DefaultFileName is looked up in the working directory when no path is given
	DefaultFileName = "annotate.yaml"
	// EnvConfigPath names the environment variable holding the config path
	EnvConfigPath = "ANNOTATE_CONFIG"

	OutputTable = "table"
	OutputJSON  = "json"

	StrategyQuick       = "quick"
	StrategyConstructor = "constructor"
	StrategyFields      = "fields"
)

// Config is the root of annotate.yaml
type Config struct {
	// Ignore lists annotation names skipped silently in every document
	Ignore []string `yaml:"ignore"`

	// Types declares the annotation types of the registry
	Types []TypeConfig `yaml:"types"`

	// Output is the report format of scan: table or json
	Output string `yaml:"output"`

	// Cache is the path of the scan result store; empty disables it
	Cache string `yaml:"cache"`

	Server ServerConfig `yaml:"server"`

	// path is the file the config was loaded from, empty for defaults
	path string
}

// TypeConfig declares one annotation type. Without an explicit strategy, a
// type with params is bound by constructor, one with fields by field binding
// and anything else by quick creation.
type TypeConfig struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Strategy    string        `yaml:"strategy"`
	Params      []ParamConfig `yaml:"params"`
	Fields      []string      `yaml:"fields"`
}

// ParamConfig declares a constructor parameter. A parameter without default
// is required.
type ParamConfig struct {
	Name    string     `yaml:"name"`
	Default *yaml.Node `yaml:"default"`
}

// ServerConfig configures the serve command
type ServerConfig struct {
	Addr    string        `yaml:"addr"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the configuration at path. An empty path falls back to
// $ANNOTATE_CONFIG and then to annotate.yaml in the working directory; when
// neither names an existing file the defaults are returned.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultFileName
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.WrapLoadError(fmt.Sprintf("config %s", path), err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.path = path
	return c, nil
}

// Parse decodes and validates a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := &Config{}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, utils.WrapParseError("config", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, utils.WrapValidateError("config", err)
	}
	return c, nil
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string { return c.path }

func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = OutputTable
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 10 * time.Second
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if err := utils.ValidateEach("ignore", utils.NotEmpty("ignore"))(c.Ignore); err != nil {
		return err
	}
	if err := utils.IsOneOf("output", OutputTable, OutputJSON)(c.Output); err != nil {
		return err
	}
	if err := utils.ValidateListenAddr("server.addr")(c.Server.Addr); err != nil {
		return err
	}
	positive := utils.Custom("server.timeout", "must be positive", func(d time.Duration) bool { return d > 0 })
	if err := positive(c.Server.Timeout); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Types))
	for i, t := range c.Types {
		if err := t.validate(fmt.Sprintf("types[%d]", i)); err != nil {
			return err
		}
		key := strings.ToLower(t.Name)
		if seen[key] {
			return utils.ValidationError{
				Field:   fmt.Sprintf("types[%d].name", i),
				Value:   t.Name,
				Message: fmt.Sprintf("type %s is declared more than once", t.Name),
			}
		}
		seen[key] = true
	}
	return nil
}

func (t TypeConfig) validate(field string) error {
	if err := utils.ValidateAnnotationName(field + ".name")(t.Name); err != nil {
		return err
	}

	strategy := utils.IsOneOf(field+".strategy", "", StrategyQuick, StrategyConstructor, StrategyFields)
	if err := strategy(t.Strategy); err != nil {
		return err
	}

	shape := utils.NewValidatorChain(
		utils.Conditional(
			func(t TypeConfig) bool { return t.ResolvedStrategy() == StrategyQuick },
			utils.Custom(field, "quick types take neither params nor fields", func(t TypeConfig) bool {
				return len(t.Params) == 0 && len(t.Fields) == 0
			}),
		),
		utils.Conditional(
			func(t TypeConfig) bool { return t.ResolvedStrategy() == StrategyConstructor },
			utils.Custom(field, "constructor types take no fields", func(t TypeConfig) bool {
				return len(t.Fields) == 0
			}),
		),
		utils.Conditional(
			func(t TypeConfig) bool { return t.ResolvedStrategy() == StrategyFields },
			utils.Custom(field, "field types take no params", func(t TypeConfig) bool {
				return len(t.Params) == 0
			}),
		),
	)
	if err := shape.Validate(t); err != nil {
		return err
	}

	for i, p := range t.Params {
		if err := utils.ValidateMemberName(fmt.Sprintf("%s.params[%d].name", field, i))(p.Name); err != nil {
			return err
		}
	}
	return utils.ValidateEach(field+".fields", utils.ValidateMemberName("field"))(t.Fields)
}

// ResolvedStrategy returns the explicit strategy or the one inferred from
// the declared params and fields
func (t TypeConfig) ResolvedStrategy() string {
	switch {
	case t.Strategy != "":
		return t.Strategy
	case len(t.Params) > 0:
		return StrategyConstructor
	case len(t.Fields) > 0:
		return StrategyFields
	default:
		return StrategyQuick
	}
}
