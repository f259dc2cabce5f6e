// Package config loads the optional YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yuanying/tex2epub/internal/pandoc"
	"github.com/yuanying/tex2epub/internal/postprocess"
)

// Config is the file-level configuration. Command-line flags take
// precedence over every field.
type Config struct {
	Pandoc Pandoc `yaml:"pandoc"`
	LaTeX  LaTeX  `yaml:"latex"`
	Fonts  Fonts  `yaml:"fonts"`
	Images Images `yaml:"images"`
}

type Pandoc struct {
	Binary     string   `yaml:"binary"`
	TOCDepth   int      `yaml:"toc_depth"`
	SplitLevel int      `yaml:"split_level"`
	ExtraArgs  []string `yaml:"extra_args"`
}

// LaTeX extends the built-in denylists.
type LaTeX struct {
	DeniedPackages     []string `yaml:"denied_packages"`
	AnnotationCommands []string `yaml:"annotation_commands"`
}

type Fonts struct {
	Dir   string   `yaml:"dir"`
	Files []string `yaml:"files"`
}

type Images struct {
	// MaxWidth enables downscaling in the archive when > 0.
	MaxWidth    int `yaml:"max_width"`
	JPEGQuality int `yaml:"jpeg_quality"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Pandoc: Pandoc{
			Binary:     pandoc.DefaultBinary,
			TOCDepth:   pandoc.DefaultTOCDepth,
			SplitLevel: pandoc.DefaultSplitLevel,
		},
		Fonts: Fonts{
			Files: append([]string(nil), postprocess.DefaultFontFiles...),
		},
		Images: Images{JPEGQuality: 85},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Pandoc.TOCDepth < 1 || c.Pandoc.TOCDepth > 6 {
		return fmt.Errorf("pandoc.toc_depth must be between 1 and 6, got %d", c.Pandoc.TOCDepth)
	}
	if c.Pandoc.SplitLevel < 1 || c.Pandoc.SplitLevel > 6 {
		return fmt.Errorf("pandoc.split_level must be between 1 and 6, got %d", c.Pandoc.SplitLevel)
	}
	if c.Images.MaxWidth < 0 {
		return fmt.Errorf("images.max_width must be >= 0, got %d", c.Images.MaxWidth)
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("images.jpeg_quality must be between 1 and 100, got %d", c.Images.JPEGQuality)
	}
	return nil
}
