package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// ConditionsConfig maps condition names to their rendered fragments.
	ConditionsConfig struct {
		Base          string            `yaml:"base" validate:"required"`
		Breakpoints   map[string]string `yaml:"breakpoints" validate:"dive,keys,required,endkeys,startswith=@"`
		PseudoClasses map[string]string `yaml:"pseudo_classes" validate:"dive,keys,required,endkeys,startswith=:"`
		ColorModes    map[string]string `yaml:"color_modes" validate:"dive,keys,required,endkeys,startswith=[,endswith=]"`
		Directions    map[string]string `yaml:"directions" validate:"dive,keys,required,endkeys,startswith=[,endswith=]"`
	}

	// UtilityConfig describes a single style key resolving to a CSS property.
	UtilityConfig struct {
		ClassName  string   `yaml:"class_name,omitempty"`
		Property   string   `yaml:"property" validate:"required"`
		Properties []string `yaml:"properties,omitempty" validate:"required_if=Transform expand,dive,required"`
		Transform  string   `yaml:"transform,omitempty" validate:"omitempty,oneof=expand longhand important"`
	}

	Config struct {
		Version    int                      `yaml:"version" validate:"eq=1"`
		Conditions ConditionsConfig         `yaml:"conditions"`
		Utilities  map[string]UtilityConfig `yaml:"utilities" validate:"required,dive,keys,required,endkeys"`
		Logging    LoggingConfig            `yaml:"logging"`
		Reporting  ReporterConfig           `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitization failed: %w", err)
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkNames)); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// checkNames rejects style key names which would make generated class names
// ambiguous: ":" separates name parts and a key may not be both a condition
// and a utility.
func checkNames(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}

	conditions := map[string]bool{cfg.Conditions.Base: true}
	for _, m := range []map[string]string{
		cfg.Conditions.Breakpoints,
		cfg.Conditions.PseudoClasses,
		cfg.Conditions.ColorModes,
		cfg.Conditions.Directions,
	} {
		for name := range m {
			if strings.Contains(name, ":") {
				sl.ReportError(m, "Conditions", "Conditions", "nocolon", name)
			}
			conditions[name] = true
		}
	}
	for name, u := range cfg.Utilities {
		if strings.Contains(name, ":") || strings.Contains(u.ClassName, ":") {
			sl.ReportError(cfg.Utilities, "Utilities", "Utilities", "nocolon", name)
		}
		if conditions[name] {
			sl.ReportError(cfg.Utilities, "Utilities", "Utilities", "notcondition", name)
		}
	}
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation. Maps (conditions, utilities) are
// merged: file entries are added to or replace default ones.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
