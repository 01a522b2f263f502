// Package config loads the featureguard manifest using Viper.
//
// The manifest (.featureguard.yml by default) declares flag sets alongside
// the generator settings: which package clause generated files carry, where
// they are written and which directories are scanned for source directives.
// Every key can be overridden with a FEATUREGUARD_ prefixed environment
// variable, e.g. FEATUREGUARD_OUTPUT=./internal/features.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	guarderrors "github.com/conneroisu/featureguard/internal/errors"
	"github.com/conneroisu/featureguard/pkg/exclusive"
)

// DefaultFileName is the manifest looked up in the working directory.
const DefaultFileName = ".featureguard.yml"

type Config struct {
	Package string      `yaml:"package,omitempty" mapstructure:"package"`
	Output  string      `yaml:"output" mapstructure:"output"`
	Prefix  string      `yaml:"prefix" mapstructure:"prefix"`
	Scan    ScanConfig  `yaml:"scan" mapstructure:"scan"`
	Sets    []SetConfig `yaml:"sets" mapstructure:"sets"`
}

type ScanConfig struct {
	Paths   []string `yaml:"paths" mapstructure:"paths"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`
}

type SetConfig struct {
	Name  string   `yaml:"name" mapstructure:"name"`
	Mode  string   `yaml:"mode" mapstructure:"mode"`
	Flags []string `yaml:"flags,flow" mapstructure:"flags"`
}

// Default returns the configuration used when no manifest exists.
func Default() *Config {
	return &Config{
		Output: ".",
		Prefix: "featureguard",
		Scan: ScanConfig{
			Paths:   []string{"."},
			Exclude: []string{"vendor", "testdata", "node_modules"},
		},
	}
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, guarderrors.NewConfigError("UNMARSHAL", "cannot decode configuration", err)
	}

	defaults := Default()

	// Handle slices set through env or flags (workaround for viper slice handling)
	if v.IsSet("scan.paths") && len(config.Scan.Paths) == 0 {
		config.Scan.Paths = v.GetStringSlice("scan.paths")
	}
	if v.IsSet("scan.exclude") && len(config.Scan.Exclude) == 0 {
		config.Scan.Exclude = v.GetStringSlice("scan.exclude")
	}

	if config.Output == "" {
		config.Output = defaults.Output
	}
	if config.Prefix == "" {
		config.Prefix = defaults.Prefix
	}
	if len(config.Scan.Paths) == 0 {
		config.Scan.Paths = defaults.Scan.Paths
	}
	if !v.IsSet("scan.exclude") && len(config.Scan.Exclude) == 0 {
		config.Scan.Exclude = defaults.Scan.Exclude
	}

	if result := Validate(&config); result.HasErrors() {
		return nil, guarderrors.NewConfigError("INVALID", "invalid configuration", result.Err())
	}

	return &config, nil
}

// FlagSets converts the declared sets. Unnamed sets keep an empty name; they
// are numbered once they are grouped with the other sets of their package.
func (c *Config) FlagSets() ([]*exclusive.Set, error) {
	sets := make([]*exclusive.Set, 0, len(c.Sets))
	for i, sc := range c.Sets {
		mode, err := exclusive.ParseMode(sc.Mode)
		if err != nil {
			return nil, fmt.Errorf("sets[%d]: %w", i, err)
		}
		set, err := exclusive.NewSet(sc.Name, mode, sc.Flags...)
		if err != nil {
			return nil, fmt.Errorf("sets[%d]: %w", i, err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// WriteFile writes c as YAML to path. It refuses to overwrite an existing
// file unless force is set.
func WriteFile(path string, c *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return guarderrors.NewIOError("EXISTS", "refusing to overwrite existing file", os.ErrExist).
				WithLocation(path, 0, 0)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return guarderrors.NewConfigError("MARSHAL", "cannot encode configuration", err)
	}

	header := []byte("# featureguard manifest: flag sets checked at build time.\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return guarderrors.NewIOError("WRITE", "cannot write configuration", err).WithLocation(path, 0, 0)
	}
	return nil
}
