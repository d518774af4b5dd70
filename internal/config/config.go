package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Target  TargetConfig  `yaml:"target"`
	Probes  []Probe       `yaml:"probes"`
	K6      K6Config      `yaml:"k6"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
	Jitter  JitterConfig  `yaml:"jitter"` // Global jitter config (default: disabled)
}

// JitterConfig holds jitter configuration
type JitterConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"` // nil = inherit from parent, false = disabled
	Max     string `yaml:"max,omitempty"`     // Max jitter: duration ("30s") or percentage ("10%")
}

// TargetConfig holds the signed endpoint this probe daemon exercises:
// the base URL to sign requests against and the credentials/region/
// service tuple every probe signs with.
type TargetConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Service   string `yaml:"service"`
}

// Probe defines a synthetic signed-request check (1+ sequential steps).
type Probe struct {
	Name     string        `yaml:"name"`
	Schedule string        `yaml:"schedule"`
	Enabled  bool          `yaml:"enabled"`
	Executor string        `yaml:"executor"`       // Executor type: "http" or "k6" (default: "http")
	Path     *string       `yaml:"path,omitempty"` // Optional: override target path
	Jitter   *JitterConfig `yaml:"jitter,omitempty"`
	Steps    []ProbeStep   `yaml:"steps"` // Required: 1+ steps
}

// ByteSize represents a size that can be specified as bytes or human-readable format
type ByteSize int64

// UnmarshalYAML implements custom YAML unmarshaling for human-readable sizes
func (bs *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	// Try to unmarshal as int64 first (backward compatibility)
	var intVal int64
	if err := value.Decode(&intVal); err == nil {
		*bs = ByteSize(intVal)
		return nil
	}

	// Try to unmarshal as string (human-readable format)
	var strVal string
	if err := value.Decode(&strVal); err != nil {
		return fmt.Errorf("body_size must be a number or string like '5MB': %w", err)
	}

	size, err := parseByteSize(strVal)
	if err != nil {
		return err
	}
	*bs = ByteSize(size)
	return nil
}

// Int64 returns the byte size as int64
func (bs ByteSize) Int64() int64 {
	return int64(bs)
}

// String returns the byte size in human-readable format
func (bs ByteSize) String() string {
	bytes := int64(bs)
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB && bytes%(GB) == 0:
		return fmt.Sprintf("%dGB", bytes/GB)
	case bytes >= MB && bytes%(MB) == 0:
		return fmt.Sprintf("%dMB", bytes/MB)
	case bytes >= KB && bytes%(KB) == 0:
		return fmt.Sprintf("%dKB", bytes/KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// parseByteSize converts human-readable sizes to bytes
// Supports: B, KB, MB, GB (case-insensitive)
func parseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var numStr string
	var unitStr string
	for i, c := range s {
		if c >= '0' && c <= '9' || c == '.' {
			continue
		}
		numStr = s[:i]
		unitStr = s[i:]
		break
	}

	if unitStr == "" {
		numStr = s
		unitStr = "B"
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in size '%s': %w", s, err)
	}

	unitStr = strings.TrimSpace(strings.ToUpper(unitStr))
	var multiplier int64
	switch unitStr {
	case "B", "":
		multiplier = 1
	case "KB", "K":
		multiplier = 1024
	case "MB", "M":
		multiplier = 1024 * 1024
	case "GB", "G":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size unit '%s' (supported: B, KB, MB, GB)", unitStr)
	}

	return int64(num * float64(multiplier)), nil
}

// ProbeStep defines a single signed request within a probe.
type ProbeStep struct {
	Name    string `yaml:"name"`
	Script  string `yaml:"script"` // k6 script path, when Executor is "k6" via xk6-sigv4
	Timeout string `yaml:"timeout"`

	Method   string            `yaml:"method"`             // HTTP method, default GET
	Path     *string           `yaml:"path,omitempty"`      // Overrides the probe/target path
	Headers  map[string]string `yaml:"headers,omitempty"`  // Extra headers to sign and send
	BodySize *ByteSize         `yaml:"body_size,omitempty"` // Size of a generated request body

	Jitter *JitterConfig `yaml:"jitter,omitempty"`
}

// GetExecutor returns the executor type (with default "http")
func (p *Probe) GetExecutor() string {
	if p.Executor == "" {
		return "http"
	}
	return p.Executor
}

// GetPath returns the path for this probe (probe-specific or target default)
func (p *Probe) GetPath(defaultPath string) string {
	if p.Path != nil && *p.Path != "" {
		return *p.Path
	}
	return defaultPath
}

// IsSingleStep returns true if the probe has exactly one step
func (p *Probe) IsSingleStep() bool {
	return len(p.Steps) == 1
}

// TimeoutDuration returns the timeout as a time.Duration
func (s *ProbeStep) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 2 * time.Minute // default
	}
	return d
}

// GetMethod returns the step's HTTP method, defaulting to GET.
func (s *ProbeStep) GetMethod() string {
	if s.Method == "" {
		return "GET"
	}
	return strings.ToUpper(s.Method)
}

// K6Config holds k6 binary configuration
type K6Config struct {
	BinaryPath   string `yaml:"binary_path"`
	OutputFormat string `yaml:"output_format"`
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// IsEnabled returns whether jitter is enabled
func (j *JitterConfig) IsEnabled() bool {
	if j == nil || j.Enabled == nil {
		return false
	}
	return *j.Enabled
}

// GetEffectiveJitter returns the effective jitter config, merging with parent
func (j *JitterConfig) GetEffectiveJitter(parent *JitterConfig) JitterConfig {
	result := JitterConfig{}

	if parent != nil {
		result.Enabled = parent.Enabled
		result.Max = parent.Max
	}

	if j != nil {
		if j.Enabled != nil {
			result.Enabled = j.Enabled
		}
		if j.Max != "" {
			result.Max = j.Max
		}
	}

	return result
}

// ParseMaxJitter parses the max jitter value and returns the duration.
// For percentages, scheduleInterval is used to calculate the actual duration
func (j *JitterConfig) ParseMaxJitter(scheduleInterval time.Duration) (time.Duration, error) {
	if j == nil || j.Max == "" {
		return 0, nil
	}

	max := strings.TrimSpace(j.Max)

	if strings.HasSuffix(max, "%") {
		percentStr := strings.TrimSuffix(max, "%")
		percent, err := strconv.ParseFloat(percentStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid jitter percentage '%s': %w", max, err)
		}
		if percent < 0 || percent > 100 {
			return 0, fmt.Errorf("jitter percentage must be between 0 and 100, got %v", percent)
		}
		if scheduleInterval <= 0 {
			return 0, fmt.Errorf("cannot use percentage jitter without schedule interval")
		}
		return time.Duration(float64(scheduleInterval) * percent / 100), nil
	}

	return time.ParseDuration(max)
}

// ParseCronInterval estimates the interval between cron executions.
// Supports common patterns like "*/5 * * * *" (every 5 min), "0 * * * *" (hourly), etc.
func ParseCronInterval(schedule string) (time.Duration, error) {
	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return 0, fmt.Errorf("invalid cron schedule: %s", schedule)
	}

	minute := parts[0]
	hour := parts[1]

	if strings.HasPrefix(minute, "*/") {
		n, err := strconv.Atoi(strings.TrimPrefix(minute, "*/"))
		if err == nil && n > 0 {
			return time.Duration(n) * time.Minute, nil
		}
	}

	if minute == "0" && strings.HasPrefix(hour, "*/") {
		n, err := strconv.Atoi(strings.TrimPrefix(hour, "*/"))
		if err == nil && n > 0 {
			return time.Duration(n) * time.Hour, nil
		}
	}

	if _, err := strconv.Atoi(minute); err == nil && hour == "*" {
		return time.Hour, nil
	}

	if _, err := strconv.Atoi(minute); err == nil {
		if _, err := strconv.Atoi(hour); err == nil {
			return 24 * time.Hour, nil
		}
	}

	return time.Minute, nil
}

// GetProbeJitter returns the effective jitter config for a probe
func (p *Probe) GetProbeJitter(global JitterConfig) JitterConfig {
	return p.Jitter.GetEffectiveJitter(&global)
}

// GetStepJitter returns the effective jitter config for a step
func (s *ProbeStep) GetStepJitter(probeJitter *JitterConfig) JitterConfig {
	return s.Jitter.GetEffectiveJitter(probeJitter)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	if cfg.K6.BinaryPath == "" {
		cfg.K6.BinaryPath = "/usr/local/bin/k6"
	}
	if cfg.K6.OutputFormat == "" {
		cfg.K6.OutputFormat = "json"
	}
	if cfg.Target.Region == "" {
		cfg.Target.Region = "us-east-1"
	}
	if cfg.Target.Service == "" {
		cfg.Target.Service = "execute-api"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 8080
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	return &cfg, nil
}
