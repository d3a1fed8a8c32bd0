// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Policy names accepted by agent.policy.
const (
	PolicyDeterministic = "deterministic"
	PolicyModel         = "model"
	PolicyHybrid        = "hybrid"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Model   ModelConfig   `mapstructure:"model" yaml:"model"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Trace   TraceConfig   `mapstructure:"trace" yaml:"trace"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the console color used for each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig controls the decision loop.
type AgentConfig struct {
	Policy                 string `mapstructure:"policy" yaml:"policy"`
	MaxIterations          int    `mapstructure:"max_iterations" yaml:"max_iterations"`
	MaxStepsPerObservation int    `mapstructure:"max_steps_per_observation" yaml:"max_steps_per_observation"`
}

// ModelConfig points the model-backed policy at a generate endpoint.
type ModelConfig struct {
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	Name              string        `mapstructure:"name" yaml:"name"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// BrowserConfig holds settings for the headless browser.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	WaitDuration      time.Duration `mapstructure:"wait_duration" yaml:"wait_duration"`
	SettleTime        time.Duration `mapstructure:"settle_time" yaml:"settle_time"`
	Args              []string      `mapstructure:"args" yaml:"args"`
}

// TraceConfig configures the JSONL step trace.
type TraceConfig struct {
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// MetricsConfig exposes Prometheus metrics over HTTP when enabled.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "uipilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Agent --
	v.SetDefault("agent.policy", PolicyDeterministic)
	v.SetDefault("agent.max_iterations", 20)
	v.SetDefault("agent.max_steps_per_observation", 5)

	// -- Model --
	v.SetDefault("model.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("model.name", "qwen2.5:1.5b")
	v.SetDefault("model.timeout", "60s")
	v.SetDefault("model.max_retries", 2)
	v.SetDefault("model.requests_per_second", 0)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.wait_duration", "2s")
	v.SetDefault("browser.settle_time", "500ms")
	v.SetDefault("browser.args", []string{})

	// -- Trace --
	v.SetDefault("trace.path", "agent_trace.jsonl")
	v.SetDefault("trace.max_size", 50)
	v.SetDefault("trace.max_backups", 3)

	// -- Metrics --
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9464")
}

// NewConfigFromViper creates a validated configuration from a viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent configuration invalid: %w", err)
	}
	if c.Agent.Policy != PolicyDeterministic {
		if err := c.Model.Validate(); err != nil {
			return fmt.Errorf("model configuration invalid: %w", err)
		}
	}
	if c.Browser.WaitDuration < 0 {
		return fmt.Errorf("browser.wait_duration must not be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// Validate checks the AgentConfig settings.
func (a *AgentConfig) Validate() error {
	switch a.Policy {
	case PolicyDeterministic, PolicyModel, PolicyHybrid:
	default:
		return fmt.Errorf("policy must be one of %s, %s, %s (got %q)", PolicyDeterministic, PolicyModel, PolicyHybrid, a.Policy)
	}
	if a.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be greater than 0")
	}
	if a.MaxStepsPerObservation <= 0 {
		return fmt.Errorf("max_steps_per_observation must be greater than 0")
	}
	return nil
}

// Validate checks the ModelConfig settings.
func (m *ModelConfig) Validate() error {
	u, err := url.Parse(m.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint must be an absolute http(s) URL (got %q)", m.Endpoint)
	}
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if m.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if m.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	return nil
}
