// Package config loads the qrcdl configuration file.
//
// The file may be TOML or YAML, chosen by extension (.toml, .yaml, .yml).
// Values missing from the file keep their defaults; environment variables
// prefixed with QRCDL_ override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ytget/qrcdl/ass"
	"github.com/ytget/qrcdl/client"
	"github.com/ytget/qrcdl/internal/logger"
)

// Output formats accepted by OutputConfig.Format.
const (
	FormatQRC = "qrc"
	FormatLRC = "lrc"
	FormatASS = "ass"
)

// Config is the complete application configuration.
type Config struct {
	HTTP   HTTPConfig       `toml:"http" yaml:"http"`
	Output OutputConfig     `toml:"output" yaml:"output"`
	Cache  CacheConfig      `toml:"cache" yaml:"cache"`
	Log    logger.LogConfig `toml:"log" yaml:"log"`
	ASS    ASSConfig        `toml:"ass" yaml:"ass"`
}

// HTTPConfig configures the lyric service client.
type HTTPConfig struct {
	Timeout   string `toml:"timeout" yaml:"timeout"` // e.g. "30s"
	Retries   int    `toml:"retries" yaml:"retries"`
	UserAgent string `toml:"user_agent" yaml:"user_agent"`
	Proxy     string `toml:"proxy" yaml:"proxy"`
}

// OutputConfig controls where and how lyrics are saved.
type OutputConfig struct {
	Dir         string `toml:"dir" yaml:"dir"`
	Format      string `toml:"format" yaml:"format"`
	NameScript  string `toml:"name_script" yaml:"name_script"`
	Concurrency int    `toml:"concurrency" yaml:"concurrency"`
}

// CacheConfig configures the lyric cache. An empty Path keeps the cache in
// memory for the lifetime of the process.
type CacheConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
	TTL     string `toml:"ttl" yaml:"ttl"` // e.g. "168h"; empty never expires
}

// ASSConfig controls subtitle conversion.
type ASSConfig struct {
	FontName string `toml:"font_name" yaml:"font_name"`
	FontSize int    `toml:"font_size" yaml:"font_size"`
	PlayResX int    `toml:"play_res_x" yaml:"play_res_x"`
	PlayResY int    `toml:"play_res_y" yaml:"play_res_y"`
	Charset  string `toml:"charset" yaml:"charset"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout: "30s",
			Retries: 3,
		},
		Output: OutputConfig{
			Dir:         ".",
			Format:      FormatQRC,
			Concurrency: 4,
		},
		Cache: CacheConfig{
			TTL: "168h",
		},
		Log: *logger.DefaultLogConfig(),
		ASS: ASSConfig{
			FontName: ass.DefaultFontName,
			FontSize: ass.DefaultFontSize,
			PlayResX: ass.DefaultPlayResX,
			PlayResY: ass.DefaultPlayResY,
			Charset:  "utf-8",
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "qrcdl.toml"
	}
	return filepath.Join(dir, "qrcdl", "config.toml")
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", "":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

// Save writes cfg to path in the format selected by its extension.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(cfg)
		data = []byte(b.String())
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnvOverrides applies QRCDL_* variables read through getenv. Logging
// variables (QRCDL_LOG_*) are handled by logger.LogConfig.ApplyEnv.
// Unparsable numbers are ignored.
func (c *Config) ApplyEnvOverrides(getenv func(string) string) {
	if v := getenv("QRCDL_HTTP_TIMEOUT"); v != "" {
		c.HTTP.Timeout = v
	}
	if v := getenv("QRCDL_HTTP_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HTTP.Retries = n
		}
	}
	if v := getenv("QRCDL_PROXY"); v != "" {
		c.HTTP.Proxy = v
	}
	if v := getenv("QRCDL_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := getenv("QRCDL_FORMAT"); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := getenv("QRCDL_NAME_SCRIPT"); v != "" {
		c.Output.NameScript = v
	}
	if v := getenv("QRCDL_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = b
		}
	}
	if v := getenv("QRCDL_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	c.Log.ApplyEnv(getenv)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var problems []error

	if _, err := c.HTTPTimeout(); err != nil {
		problems = append(problems, err)
	}
	if c.HTTP.Retries < 0 {
		problems = append(problems, fmt.Errorf("http.retries must not be negative"))
	}
	switch c.Output.Format {
	case FormatQRC, FormatLRC, FormatASS:
	default:
		problems = append(problems, fmt.Errorf("output.format %q is not one of qrc, lrc, ass", c.Output.Format))
	}
	if c.Output.Concurrency < 1 {
		problems = append(problems, fmt.Errorf("output.concurrency must be at least 1"))
	}
	if _, err := c.CacheTTL(); err != nil {
		problems = append(problems, err)
	}
	if c.ASS.FontSize < 0 || c.ASS.PlayResX < 0 || c.ASS.PlayResY < 0 {
		problems = append(problems, fmt.Errorf("ass sizes must not be negative"))
	}
	if err := c.Log.ValidateConfig(); err != nil {
		problems = append(problems, fmt.Errorf("log: %w", err))
	}
	return errors.Join(problems...)
}

// HTTPTimeout parses HTTP.Timeout. An empty value means the client default.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	if c.HTTP.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("http.timeout %q is not a valid duration", c.HTTP.Timeout)
	}
	return d, nil
}

// CacheTTL parses Cache.TTL. Zero means entries never expire.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("cache.ttl %q is not a valid duration", c.Cache.TTL)
	}
	return d, nil
}

// ClientConfig returns the HTTP client settings.
func (c *Config) ClientConfig() client.Config {
	timeout, _ := c.HTTPTimeout()
	return client.Config{
		Timeout:   timeout,
		Retries:   c.HTTP.Retries,
		UserAgent: c.HTTP.UserAgent,
		ProxyURL:  c.HTTP.Proxy,
	}
}

// Style returns the subtitle header settings.
func (c *Config) Style() ass.Style {
	return ass.Style{
		FontName: c.ASS.FontName,
		FontSize: c.ASS.FontSize,
		PlayResX: c.ASS.PlayResX,
		PlayResY: c.ASS.PlayResY,
	}
}
