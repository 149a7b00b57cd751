package config

import (
	"encoding"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the analyzed directory when no config path is given
const DefaultFile = ".unsafe-census.yaml"

const (
	DefaultOSVEndpoint = "https://api.osv.dev/v1/query"
	DefaultTimeout     = 5 * time.Minute
)

// Format is the report output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
)

var (
	_ encoding.TextUnmarshaler = (*Format)(nil)
	_ encoding.TextMarshaler   = Format(0)
)

func (f Format) String() string {
	v, err := f.MarshalText()
	if err != nil {
		return fmt.Sprintf("format-invalid(%d)", int(f))
	}
	return string(v)
}

func (f *Format) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text", "":
		*f = FormatText
	case "json":
		*f = FormatJSON
	case "yaml":
		*f = FormatYAML
	default:
		return fmt.Errorf("unknown output format %q", b)
	}
	return nil
}

func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case FormatText:
		return []byte("text"), nil
	case FormatJSON:
		return []byte("json"), nil
	case FormatYAML:
		return []byte("yaml"), nil
	default:
		return nil, fmt.Errorf("cannot marshal invalid Format(%d)", int(f))
	}
}

// ParseFormat parses a format name as used on the command line
func ParseFormat(s string) (Format, error) {
	var f Format
	err := f.UnmarshalText([]byte(s))
	return f, err
}

// Duration is a time.Duration written as "30s" in YAML
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds the analyzer settings
type Config struct {
	Format       Format   `yaml:"format"`
	Workers      int      `yaml:"workers"`
	Exclude      []string `yaml:"exclude"`
	Advisories   bool     `yaml:"advisories"`
	OSVEndpoint  string   `yaml:"osv_endpoint"`
	Timeout      Duration `yaml:"timeout"`
	FailOnUnsafe bool     `yaml:"fail_on_unsafe"`
}

// Default returns the configuration used when no file is present
func Default() Config {
	return Config{
		Format:      FormatText,
		Workers:     runtime.NumCPU(),
		OSVEndpoint: DefaultOSVEndpoint,
		Timeout:     Duration(DefaultTimeout),
	}
}

// Load reads a YAML config file on top of the defaults. A missing file is
// not an error when optional is set.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", time.Duration(c.Timeout))
	}
	if c.Advisories && c.OSVEndpoint == "" {
		return errors.New("advisories enabled without osv_endpoint")
	}
	return nil
}
