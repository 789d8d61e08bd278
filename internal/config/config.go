// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"github.com/woozymasta/geomet/internal/geo"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default values applied by ApplyDefaults.
const (
	DefaultDecimals     = 16
	DefaultFormat       = "json"
	DefaultMaxBodyBytes = 4 << 20
	DefaultPreviewSize  = 256
	DefaultCacheMaxAge  = 3600
)

// Config represents the root configuration file structure.
type Config struct {
	Defaults Defaults `yaml:"defaults" json:"defaults"`
	Server   Server   `yaml:"server"   json:"server"`
	Jobs     []Job    `yaml:"jobs,omitempty" json:"jobs,omitempty"`
}

// Defaults are the encoding settings used when a command or job sets nothing.
type Defaults struct {
	SRID         *int   `yaml:"srid,omitempty"          json:"srid,omitempty"`
	Decimals     *int   `yaml:"decimals,omitempty"      json:"decimals,omitempty"`
	Format       string `yaml:"format,omitempty"        json:"format,omitempty"`
	Indent       string `yaml:"indent,omitempty"        json:"indent,omitempty"`
	LittleEndian bool   `yaml:"little_endian,omitempty" json:"little_endian,omitempty"`
}

// Server configures the HTTP conversion service.
type Server struct {
	MaxBodyBytes int64 `yaml:"max_body_bytes,omitempty" json:"max_body_bytes,omitempty"`
	PreviewSize  int   `yaml:"preview_size,omitempty"   json:"preview_size,omitempty"`
	CacheMaxAge  int   `yaml:"cache_max_age,omitempty"  json:"cache_max_age,omitempty"` // seconds
}

// Job is a single batch conversion.
type Job struct {
	// defining the geometry directly in config.yaml
	Geometry *geo.Geometry `yaml:"geometry,omitempty" json:"-"`

	SRID         *int   `yaml:"srid,omitempty"          json:"srid,omitempty"`
	Decimals     *int   `yaml:"decimals,omitempty"      json:"decimals,omitempty"`
	LittleEndian *bool  `yaml:"little_endian,omitempty" json:"little_endian,omitempty"`
	Name         string `yaml:"name"                    json:"name"`
	Source       string `yaml:"source,omitempty"        json:"source,omitempty"` // file path or http(s) URL
	Output       string `yaml:"output"                  json:"output"`
	Format       string `yaml:"format,omitempty"        json:"format,omitempty"`
	Preview      string `yaml:"preview,omitempty"       json:"preview,omitempty"` // svg or webp
}

// ErrInvalidJob is returned by Validate for jobs that cannot run.
var ErrInvalidJob = errors.New("invalid job")

// Load reads and parses the YAML configuration file from the specified path.
// A missing file yields the defaults unless required is set.
func Load(path string, required bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	case os.IsNotExist(err) && !required:
	default:
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values with the package defaults.
func (c *Config) ApplyDefaults() {
	if c.Defaults.Decimals == nil {
		d := DefaultDecimals
		c.Defaults.Decimals = &d
	}
	if c.Defaults.Format == "" {
		c.Defaults.Format = DefaultFormat
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.PreviewSize <= 0 {
		c.Server.PreviewSize = DefaultPreviewSize
	}
	if c.Server.CacheMaxAge <= 0 {
		c.Server.CacheMaxAge = DefaultCacheMaxAge
	}

	for i := range c.Jobs {
		job := &c.Jobs[i]
		if job.Format == "" {
			job.Format = c.Defaults.Format
		}
		if job.Decimals == nil {
			job.Decimals = c.Defaults.Decimals
		}
		if job.SRID == nil {
			job.SRID = c.Defaults.SRID
		}
		if job.LittleEndian == nil {
			le := c.Defaults.LittleEndian
			job.LittleEndian = &le
		}
	}
}

// Validate checks that every job has a name, an output and exactly one source.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Jobs))
	for i, job := range c.Jobs {
		if job.Name == "" {
			return errors.Wrapf(ErrInvalidJob, "job %d has no name", i)
		}
		if seen[job.Name] {
			return errors.Wrapf(ErrInvalidJob, "duplicate job name %q", job.Name)
		}
		seen[job.Name] = true

		if job.Output == "" {
			return errors.Wrapf(ErrInvalidJob, "job %q has no output", job.Name)
		}
		if (job.Source == "") == (job.Geometry == nil) {
			return errors.Wrapf(ErrInvalidJob, "job %q needs exactly one of source or geometry", job.Name)
		}
		switch job.Preview {
		case "", "svg", "webp":
		default:
			return errors.Wrapf(ErrInvalidJob, "job %q has unknown preview %q", job.Name, job.Preview)
		}
	}
	return nil
}
