package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	TalkConfig struct {
		// IANA character set name of talk scripts, empty means UTF-8
		Encoding      string        `yaml:"encoding"`
		DisplayWidth  int           `yaml:"display_width" validate:"gte=0,required_with=DisplayHeight"`
		DisplayHeight int           `yaml:"display_height" validate:"gte=0,required_with=DisplayWidth"`
		WatchDebounce time.Duration `yaml:"watch_debounce" validate:"gte=0"`
	}

	LatexConfig struct {
		LatexCmd   string `yaml:"latex_cmd" validate:"required"`
		DvipsCmd   string `yaml:"dvips_cmd" validate:"required"`
		ConvertCmd string `yaml:"convert_cmd" validate:"required"`
		// regenerate bitmaps even when cached ones exist
		Force bool `yaml:"force"`
	}

	// StyleConfig describes single named style. Absent values are taken from
	// inherited style, first style in the list is default one and must be complete.
	StyleConfig struct {
		Name            string   `yaml:"name" validate:"required"`
		Inherit         string   `yaml:"inherit,omitempty"`
		TextSize        *int     `yaml:"text_size,omitempty" validate:"omitnil,gt=0"`
		TitleSize       *int     `yaml:"title_size,omitempty" validate:"omitnil,gt=0"`
		LineSpacing     *int     `yaml:"line_spacing,omitempty" validate:"omitnil,gt=0"`
		HeadSpaceAbove  *int     `yaml:"head_space_above,omitempty" validate:"omitnil,gte=0"`
		HeadSpaceBelow  *int     `yaml:"head_space_below,omitempty" validate:"omitnil,gte=0"`
		RuleHeight      *int     `yaml:"rule_height,omitempty" validate:"omitnil,gte=0"`
		RuleSpaceAbove  *int     `yaml:"rule_space_above,omitempty" validate:"omitnil,gte=0"`
		RuleSpaceBelow  *int     `yaml:"rule_space_below,omitempty" validate:"omitnil,gte=0"`
		LatexSpaceAbove *int     `yaml:"latex_space_above,omitempty" validate:"omitnil,gte=0"`
		LatexSpaceBelow *int     `yaml:"latex_space_below,omitempty" validate:"omitnil,gte=0"`
		LatexWidth      *int     `yaml:"latex_width,omitempty" validate:"omitnil,gt=0"`
		LatexScale      *int     `yaml:"latex_scale,omitempty" validate:"omitnil,gt=0"`
		LatexStretch    *int     `yaml:"latex_stretch,omitempty" validate:"omitnil,gt=0"`
		Foreground      string   `yaml:"fg,omitempty" validate:"omitempty,hexcolor"`
		Background      string   `yaml:"bg,omitempty" validate:"omitempty,hexcolor"`
		LatexPreInclude []string `yaml:"latex_preinclude,omitempty"`
		LatexInclude    []string `yaml:"latex_include,omitempty"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Talk      TalkConfig     `yaml:"talk"`
		Latex     LatexConfig    `yaml:"latex"`
		Styles    []StyleConfig  `yaml:"styles" validate:"required,min=1,dive"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field names above, LaTeX source is full of braces
	// and should never go through template expansion
	LatexPreIncludeFieldName TemplateFieldName = "latex_preinclude"
	LatexIncludeFieldName    TemplateFieldName = "latex_include"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(LatexPreIncludeFieldName)),
	gencfg.WithDoNotExpandField(string(LatexIncludeFieldName)),
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
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
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

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// NOTE: yaml replaces sequences wholesale, so styles from the file
	// completely substitute default ones
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
