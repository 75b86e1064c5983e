package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rupor-github/gencfg"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Talk.WatchDebounce != 500*time.Millisecond {
		t.Errorf("WatchDebounce = %v, want 500ms", cfg.Talk.WatchDebounce)
	}
	if cfg.Talk.DisplayWidth != 0 || cfg.Talk.DisplayHeight != 0 {
		t.Errorf("display size = %dx%d, want unset", cfg.Talk.DisplayWidth, cfg.Talk.DisplayHeight)
	}
	if cfg.Latex.LatexCmd != "latex" || cfg.Latex.DvipsCmd != "dvips" || cfg.Latex.ConvertCmd != "convert" {
		t.Errorf("unexpected latex commands: %+v", cfg.Latex)
	}
	if len(cfg.Styles) < 1 || cfg.Styles[0].Name != "default" {
		t.Fatalf("first style must be default, got %+v", cfg.Styles)
	}
	if cfg.Styles[0].LineSpacing == nil || *cfg.Styles[0].LineSpacing <= 0 {
		t.Error("default style must define line spacing")
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("console level = %q, want normal", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
talk:
  encoding: windows-1252
  display_width: 1920
  display_height: 1080
  watch_debounce: 2s
latex:
  latex_cmd: /usr/bin/latex
  dvips_cmd: dvips
  convert_cmd: magick
  force: true
styles:
  - name: default
    text_size: 20
    title_size: 30
    line_spacing: 28
    head_space_above: 0
    head_space_below: 0
    rule_height: 1
    rule_space_above: 2
    rule_space_below: 2
    latex_space_above: 0
    latex_space_below: 0
    latex_width: 500
    latex_scale: 100
  - name: big
    inherit: default
    text_size: 40
logging:
  console:
    level: debug
  file:
    level: debug
    destination: ` + filepath.Join(tmpDir, "test.log") + `
    mode: append
reporting:
  destination: ` + filepath.Join(tmpDir, "report.zip") + `
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Talk.Encoding != "windows-1252" {
		t.Errorf("Encoding = %q", cfg.Talk.Encoding)
	}
	if cfg.Talk.DisplayWidth != 1920 || cfg.Talk.DisplayHeight != 1080 {
		t.Errorf("display = %dx%d", cfg.Talk.DisplayWidth, cfg.Talk.DisplayHeight)
	}
	if cfg.Talk.WatchDebounce != 2*time.Second {
		t.Errorf("WatchDebounce = %v", cfg.Talk.WatchDebounce)
	}
	if !cfg.Latex.Force || cfg.Latex.ConvertCmd != "magick" {
		t.Errorf("latex = %+v", cfg.Latex)
	}
	if len(cfg.Styles) != 2 {
		t.Fatalf("styles replaced by file expected, got %d", len(cfg.Styles))
	}
	if cfg.Styles[1].Inherit != "default" || *cfg.Styles[1].TextSize != 40 || cfg.Styles[1].LineSpacing != nil {
		t.Errorf("unexpected inherited style %+v", cfg.Styles[1])
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid yaml", content: "version: 1\ntalk:\n  encoding: x\n  invalid indent\n"},
		{name: "unknown field", content: "version: 1\nunknown_field: value\n"},
		{name: "bad version", content: "version: 2\n"},
		{name: "half display size", content: "version: 1\ntalk:\n  display_width: 800\n"},
		{name: "bad colour", content: "version: 1\nstyles:\n  - name: default\n    fg: red\n"},
		{name: "empty style name", content: "version: 1\nstyles:\n  - text_size: 10\n"},
		{name: "negative spacing", content: "version: 1\nstyles:\n  - name: default\n    rule_height: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Prepare() returned empty data")
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{"version: 1", "latex_cmd: latex", "name: default", "watch_debounce: 500ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() output missing %q", want)
		}
	}

	// dumped configuration must load back
	again, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("dumped configuration does not load: %v", err)
	}
	if len(again.Styles) != len(cfg.Styles) {
		t.Errorf("styles lost in dump: %d vs %d", len(again.Styles), len(cfg.Styles))
	}
}
