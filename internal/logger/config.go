package logger

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// LogConfig represents the complete logging configuration. It is embedded in
// the application config file, so it carries TOML and YAML tags as well.
type LogConfig struct {
	Level      string          `json:"level" toml:"level" yaml:"level"`
	Format     string          `json:"format" toml:"format" yaml:"format"`
	Output     string          `json:"output" toml:"output" yaml:"output"`
	Components map[string]bool `json:"components,omitempty" toml:"components" yaml:"components"`
	ShowCaller bool            `json:"show_caller" toml:"show_caller" yaml:"show_caller"`
	Timestamp  bool            `json:"timestamp" toml:"timestamp" yaml:"timestamp"`
	Rotation   *RotationConfig `json:"rotation,omitempty" toml:"rotation" yaml:"rotation"`
}

// RotationConfig represents log rotation configuration. It only applies to
// "file:" outputs.
type RotationConfig struct {
	MaxSize    string `json:"max_size" toml:"max_size" yaml:"max_size"`          // e.g., "10MB"
	MaxAge     string `json:"max_age" toml:"max_age" yaml:"max_age"`             // e.g., "7d", "24h"
	MaxBackups int    `json:"max_backups" toml:"max_backups" yaml:"max_backups"` // rotated files to keep
	Compress   bool   `json:"compress" toml:"compress" yaml:"compress"`          // gzip rotated files
}

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() *LogConfig {
	components := make(map[string]bool, len(Components))
	for _, c := range Components {
		components[string(c)] = c == ComponentApp
	}
	return &LogConfig{
		Level:      "INFO",
		Format:     "text",
		Output:     "stderr",
		Components: components,
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(filename string) (*LogConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config LogConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfigToFile saves configuration to a JSON file
func (c *LogConfig) SaveConfigToFile(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ToLoggerConfig converts LogConfig to logger.Config, opening the output.
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}

	format, err := parseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %w", err)
	}

	output, err := openOutput(c.Output, c.Rotation)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}

	components := make(map[Component]bool, len(c.Components))
	for name, enabled := range c.Components {
		components[Component(name)] = enabled
	}

	return &Config{
		Level:      level,
		Format:     format,
		Output:     output,
		Components: components,
		ShowCaller: c.ShowCaller,
		Timestamp:  c.Timestamp,
	}, nil
}

// parseLevel parses level string to Level enum
func parseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown level: %s", levelStr)
	}
}

// parseFormat parses format string to Format enum
func parseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(formatStr)) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colored":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", formatStr)
	}
}

// outputPath returns the file path of a "file:" output, or "" for streams.
func outputPath(outputStr string) (string, error) {
	switch strings.ToLower(outputStr) {
	case "stdout", "stderr", "null", "none":
		return "", nil
	}
	if path, ok := strings.CutPrefix(outputStr, "file:"); ok && path != "" {
		return path, nil
	}
	return "", fmt.Errorf("unknown output: %s", outputStr)
}

// openOutput resolves an output name to a writer. File outputs rotate when a
// rotation policy is given.
func openOutput(outputStr string, rotation *RotationConfig) (io.Writer, error) {
	switch strings.ToLower(outputStr) {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "null", "none":
		return io.Discard, nil
	}

	path, err := outputPath(outputStr)
	if err != nil {
		return nil, err
	}
	if rotation != nil {
		policy, err := rotation.Policy()
		if err != nil {
			return nil, err
		}
		return OpenRotatingFile(path, policy)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// CreateLoggerFromConfig validates config and creates a logger from it.
func CreateLoggerFromConfig(config *LogConfig) (*Logger, error) {
	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}
	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %w", err)
	}

	return New(loggerConfig), nil
}

// EnvironmentConfig returns the default configuration with QRCDL_LOG_*
// overrides applied.
func EnvironmentConfig() *LogConfig {
	config := DefaultLogConfig()
	config.ApplyEnv(os.Getenv)
	return config
}

// ApplyEnv overrides fields from QRCDL_LOG_LEVEL, QRCDL_LOG_FORMAT,
// QRCDL_LOG_OUTPUT, QRCDL_LOG_CALLER, QRCDL_LOG_TIMESTAMP and
// QRCDL_LOG_COMPONENTS (comma separated; "all" enables every component).
func (c *LogConfig) ApplyEnv(getenv func(string) string) {
	if level := getenv("QRCDL_LOG_LEVEL"); level != "" {
		c.Level = level
	}
	if format := getenv("QRCDL_LOG_FORMAT"); format != "" {
		c.Format = format
	}
	if output := getenv("QRCDL_LOG_OUTPUT"); output != "" {
		c.Output = output
	}
	if caller := getenv("QRCDL_LOG_CALLER"); caller != "" {
		c.ShowCaller = caller == "true" || caller == "1"
	}
	if timestamp := getenv("QRCDL_LOG_TIMESTAMP"); timestamp != "" {
		c.Timestamp = timestamp == "true" || timestamp == "1"
	}

	if components := getenv("QRCDL_LOG_COMPONENTS"); components != "" {
		c.Components = make(map[string]bool)
		for _, comp := range strings.Split(components, ",") {
			comp = strings.TrimSpace(comp)
			switch comp {
			case "":
			case "all":
				for _, known := range Components {
					c.Components[string(known)] = true
				}
			default:
				c.Components[comp] = true
			}
		}
	}
}

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("logconfig.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("logconfig.schema.json")
	})
	return compiledSchema, schemaErr
}

// ValidateConfig checks the configuration against the embedded JSON schema
// and then parses every field. It does not open the output.
func (c *LogConfig) ValidateConfig() error {
	schema, err := configSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}

	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if _, err := parseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	if _, err := outputPath(c.Output); err != nil {
		return fmt.Errorf("invalid output: %w", err)
	}
	if c.Rotation != nil {
		if _, err := c.Rotation.Policy(); err != nil {
			return fmt.Errorf("invalid rotation config: %w", err)
		}
	}

	return nil
}

// Policy parses the human-readable limits.
func (r *RotationConfig) Policy() (RotationPolicy, error) {
	var p RotationPolicy
	var err error
	if p.MaxSize, err = parseSize(r.MaxSize); err != nil {
		return p, fmt.Errorf("invalid max_size: %w", err)
	}
	if p.MaxAge, err = parseDuration(r.MaxAge); err != nil {
		return p, fmt.Errorf("invalid max_age: %w", err)
	}
	if r.MaxBackups < 0 {
		return p, fmt.Errorf("max_backups must be non-negative")
	}
	p.MaxBackups = r.MaxBackups
	p.Compress = r.Compress
	return p, nil
}

// splitQuantity splits "100MB" into 100 and "MB".
func splitQuantity(s string) (int64, string, error) {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", fmt.Errorf("no number found in %q", s)
	}
	num, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parse number: %w", err)
	}
	return num, strings.TrimSpace(s[i:]), nil
}

// parseSize parses size string (e.g., "100MB", "1GB") to bytes
func parseSize(sizeStr string) (int64, error) {
	if strings.TrimSpace(sizeStr) == "" {
		return 0, nil
	}
	num, unit, err := splitQuantity(sizeStr)
	if err != nil {
		return 0, err
	}

	switch strings.ToUpper(unit) {
	case "B", "":
		return num, nil
	case "KB":
		return num << 10, nil
	case "MB":
		return num << 20, nil
	case "GB":
		return num << 30, nil
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}
}

// parseDuration parses duration string (e.g., "7d", "24h", "30m") to time.Duration
func parseDuration(durationStr string) (time.Duration, error) {
	if strings.TrimSpace(durationStr) == "" {
		return 0, nil
	}
	num, unit, err := splitQuantity(durationStr)
	if err != nil {
		return 0, err
	}

	switch strings.ToLower(unit) {
	case "s", "sec", "second", "seconds":
		return time.Duration(num) * time.Second, nil
	case "m", "min", "minute", "minutes":
		return time.Duration(num) * time.Minute, nil
	case "h", "hour", "hours":
		return time.Duration(num) * time.Hour, nil
	case "d", "day", "days":
		return time.Duration(num) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}
}
