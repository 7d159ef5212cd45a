package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"imageprep/imageprocessor"
)

// Engine names the resampling backend
const (
	EngineImaging = "imaging"
	EngineOpenCV  = "opencv"
)

// DefaultMaxDimension is the largest edge the downstream viewer accepts
const DefaultMaxDimension = 2048

// Config holds every setting of a preparation run
type Config struct {
	BaseDir             string   `yaml:"base_dir"`
	RefDir              string   `yaml:"ref_dir"`
	MaxDimension        int      `yaml:"max_dimension"`
	LegacyExtensions    []string `yaml:"legacy_extensions"`
	SupportedExtensions []string `yaml:"supported_extensions"`
	CanonicalExtension  string   `yaml:"canonical_extension"`
	OutputDir           string   `yaml:"output_dir"`
	JournalPath         string   `yaml:"journal_path"`
	Engine              string   `yaml:"engine"`
}

// Overrides carries values supplied on the command line. Empty fields
// and a zero MaxDimension leave the loaded value in place.
type Overrides struct {
	BaseDir      string
	RefDir       string
	MaxDimension int
	OutputDir    string
	JournalPath  string
	Engine       string
}

// Default returns the configuration used when no file is given: base
// and ref directories under root.
func Default(root string) Config {
	return Config{
		BaseDir:             filepath.Join(root, "base"),
		RefDir:              filepath.Join(root, "ref"),
		MaxDimension:        DefaultMaxDimension,
		LegacyExtensions:    []string{".bmp", ".gif", ".webp"},
		SupportedExtensions: []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif"},
		CanonicalExtension:  ".png",
		Engine:              EngineImaging,
	}
}

// Load reads a YAML file on top of Default(root). An empty path returns
// the defaults. Relative directories in the file are resolved against
// the file's own directory.
func Load(path string, root string) (Config, error) {
	cfg := Default(root)
	if path == "" {
		return cfg.normalized(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	configDir := filepath.Dir(path)
	cfg.BaseDir = resolve(configDir, cfg.BaseDir)
	cfg.RefDir = resolve(configDir, cfg.RefDir)
	cfg.OutputDir = resolve(configDir, cfg.OutputDir)
	cfg.JournalPath = resolve(configDir, cfg.JournalPath)

	return cfg.normalized(), nil
}

// ApplyOverrides returns a copy of cfg with the non-empty overrides applied
func (c Config) ApplyOverrides(o Overrides) Config {
	if o.BaseDir != "" {
		c.BaseDir = o.BaseDir
	}
	if o.RefDir != "" {
		c.RefDir = o.RefDir
	}
	if o.MaxDimension != 0 {
		c.MaxDimension = o.MaxDimension
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.JournalPath != "" {
		c.JournalPath = o.JournalPath
	}
	if o.Engine != "" {
		c.Engine = strings.ToLower(o.Engine)
	}
	return c
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	if c.BaseDir == "" || c.RefDir == "" {
		return fmt.Errorf("base and ref directories must be set")
	}
	if filepath.Clean(c.BaseDir) == filepath.Clean(c.RefDir) {
		return fmt.Errorf("base and ref directories must differ: %s", c.BaseDir)
	}
	if c.MaxDimension < 1 {
		return fmt.Errorf("max dimension must be positive, got %d", c.MaxDimension)
	}

	for _, ext := range append(append([]string{}, c.SupportedExtensions...), c.LegacyExtensions...) {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
		if !imageprocessor.IsKnownExtension(ext) {
			return fmt.Errorf("extension %q is not a supported image format", ext)
		}
	}
	for _, ext := range c.LegacyExtensions {
		if !c.IsSupported(ext) {
			return fmt.Errorf("legacy extension %s is missing from supported extensions", ext)
		}
	}
	if !c.IsSupported(c.CanonicalExtension) {
		return fmt.Errorf("canonical extension %s is missing from supported extensions", c.CanonicalExtension)
	}
	if c.IsLegacy(c.CanonicalExtension) {
		return fmt.Errorf("canonical extension %s cannot also be a legacy extension", c.CanonicalExtension)
	}
	if c.Engine != EngineImaging && c.Engine != EngineOpenCV {
		return fmt.Errorf("unknown engine %q (expected %s or %s)", c.Engine, EngineImaging, EngineOpenCV)
	}
	return nil
}

// IsLegacy reports whether ext (any case) is converted to the canonical format
func (c Config) IsLegacy(ext string) bool {
	return contains(c.LegacyExtensions, ext)
}

// IsSupported reports whether ext (any case) is processed by the pipeline
func (c Config) IsSupported(ext string) bool {
	return contains(c.SupportedExtensions, ext)
}

func (c Config) normalized() Config {
	c.LegacyExtensions = lowerAll(c.LegacyExtensions)
	c.SupportedExtensions = lowerAll(c.SupportedExtensions)
	c.CanonicalExtension = strings.ToLower(c.CanonicalExtension)
	c.Engine = strings.ToLower(c.Engine)
	return c
}

func contains(list []string, ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range list {
		if e == ext {
			return true
		}
	}
	return false
}

func lowerAll(list []string) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = strings.ToLower(e)
	}
	return out
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
