// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	JobStore      JobStoreConfig      `yaml:"jobstore"`
	Scrape        ScrapeConfig        `yaml:"scrape"`
	Geocoding     GeocodingConfig     `yaml:"geocoding"`
	Routing       RoutingConfig       `yaml:"routing"`
	LLM           LLMConfig           `yaml:"llm"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Providers     []ProviderConfig    `yaml:"providers"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings. Leaving host empty
// keeps all listing state in memory.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// Enabled reports whether a PostgreSQL database is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// JobStoreConfig defines where job definitions are kept.
type JobStoreConfig struct {
	Path string `yaml:"path"`
}

// ScrapeConfig defines how provider search pages are fetched.
type ScrapeConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	BrowserTimeout time.Duration `yaml:"browser_timeout"`
	ChromePath     string        `yaml:"chrome_path"`
	ShowBrowser    bool          `yaml:"show_browser"`
}

// GeocodingConfig defines the Nominatim-compatible geocoder.
type GeocodingConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	UserAgent     string        `yaml:"user_agent"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	DailyLimit    int64         `yaml:"daily_limit"`
	Pause         time.Duration `yaml:"pause"`
	BackfillBatch int           `yaml:"backfill_batch"`
}

// RoutingConfig defines the OSRM-compatible router used for waypoints.
type RoutingConfig struct {
	Enabled       bool              `yaml:"enabled"`
	Endpoint      string            `yaml:"endpoint"`
	Timeout       time.Duration     `yaml:"timeout"`
	RatePerSecond float64           `yaml:"rate_per_second"`
	Profiles      map[string]string `yaml:"profiles"` // transport mode -> server profile
}

// LLMConfig defines the backend used to extract custom fields.
type LLMConfig struct {
	Backend      string             `yaml:"backend"` // none, ollama, anthropic, openai_compat
	Ollama       OllamaConfig       `yaml:"ollama"`
	Anthropic    AnthropicConfig    `yaml:"anthropic"`
	OpenAICompat OpenAICompatConfig `yaml:"openai_compat"`
	Timeout      time.Duration      `yaml:"timeout"`
	MaxPageChars int                `yaml:"max_page_chars"`
}

// Enabled reports whether an LLM backend is configured.
func (l *LLMConfig) Enabled() bool {
	return l.Backend != "" && l.Backend != "none"
}

// OllamaConfig defines Ollama-specific settings.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	Model string `yaml:"model"`
}

// OpenAICompatConfig defines OpenAI-compatible endpoint settings.
type OpenAICompatConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// PipelineConfig tunes listing pipeline execution.
type PipelineConfig struct {
	SimilarityRetention time.Duration `yaml:"similarity_retention"`
	EnhanceMinDelay     time.Duration `yaml:"enhance_min_delay"`
	EnhanceMaxDelay     time.Duration `yaml:"enhance_max_delay"`
	Concurrency         int           `yaml:"concurrency"`
	RunTimeout          time.Duration `yaml:"run_timeout"`
}

// ScheduleConfig defines cron intervals.
type ScheduleConfig struct {
	Interval                time.Duration `yaml:"interval"`
	GeocodeBackfillInterval time.Duration `yaml:"geocode_backfill_interval"`
}

// ProviderConfig defines a selector-driven listing source.
type ProviderConfig struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name"`
	BaseURL        string            `yaml:"base_url"`
	SortParam      string            `yaml:"sort_param"`
	SortValue      string            `yaml:"sort_value"`
	Browser        bool              `yaml:"browser"`
	WaitSelector   string            `yaml:"wait_selector"`
	Container      string            `yaml:"container"`
	Fields         map[string]string `yaml:"fields"`
	IDFields       []string          `yaml:"id_fields"`
	RequiredFields []string          `yaml:"required_fields"`
}

// NotificationsConfig defines notification adapters available to jobs.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
	Console ConsoleConfig `yaml:"console"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// ConsoleConfig enables logging new listings.
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig defines OTLP trace and metric export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyJobStoreDefaults(&cfg.JobStore)
	applyScrapeDefaults(&cfg.Scrape)
	applyGeocodingDefaults(&cfg.Geocoding)
	applyRoutingDefaults(&cfg.Routing)
	applyLLMDefaults(&cfg.LLM)
	applyPipelineDefaults(&cfg.Pipeline)
	applyScheduleDefaults(&cfg.Schedule)
	for i := range cfg.Providers {
		applyProviderDefaults(&cfg.Providers[i])
	}
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyJobStoreDefaults(j *JobStoreConfig) {
	if j.Path == "" {
		j.Path = "listing-tracker.db"
	}
}

func applyScrapeDefaults(s *ScrapeConfig) {
	if s.UserAgent == "" {
		s.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.BrowserTimeout == 0 {
		s.BrowserTimeout = 45 * time.Second
	}
}

func applyGeocodingDefaults(g *GeocodingConfig) {
	if g.Endpoint == "" {
		g.Endpoint = "https://nominatim.openstreetmap.org"
	}
	if g.UserAgent == "" {
		g.UserAgent = "listing-tracker"
	}
	if g.RatePerSecond == 0 {
		g.RatePerSecond = 1
	}
	if g.Pause == 0 {
		g.Pause = time.Hour
	}
	if g.BackfillBatch == 0 {
		g.BackfillBatch = 100
	}
}

func applyRoutingDefaults(r *RoutingConfig) {
	if r.Endpoint == "" {
		r.Endpoint = "https://router.project-osrm.org"
	}
	if r.Timeout == 0 {
		r.Timeout = 15 * time.Second
	}
	if r.RatePerSecond == 0 {
		r.RatePerSecond = 1
	}
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Backend == "" {
		l.Backend = "none"
	}
	if l.Timeout == 0 {
		l.Timeout = 60 * time.Second
	}
	if l.MaxPageChars == 0 {
		l.MaxPageChars = 8000
	}
}

func applyPipelineDefaults(p *PipelineConfig) {
	if p.SimilarityRetention == 0 {
		p.SimilarityRetention = time.Hour
	}
	if p.EnhanceMinDelay == 0 {
		p.EnhanceMinDelay = 2 * time.Second
	}
	if p.EnhanceMaxDelay == 0 {
		p.EnhanceMaxDelay = 10 * time.Second
	}
	if p.Concurrency == 0 {
		p.Concurrency = 4
	}
	if p.RunTimeout == 0 {
		p.RunTimeout = 10 * time.Minute
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.Interval == 0 {
		s.Interval = 15 * time.Minute
	}
	if s.GeocodeBackfillInterval == 0 {
		s.GeocodeBackfillInterval = 10 * time.Minute
	}
}

func applyProviderDefaults(p *ProviderConfig) {
	if p.Name == "" {
		p.Name = p.ID
	}
	if len(p.IDFields) == 0 {
		p.IDFields = []string{"id"}
	}
	if len(p.RequiredFields) == 0 {
		p.RequiredFields = []string{"id", "title", "link"}
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.ServiceName == "" {
		t.ServiceName = "listing-tracker"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Enabled() {
		if cfg.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required when database.host is set"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, errors.New("database.user is required when database.host is set"))
		}
	}

	switch cfg.LLM.Backend {
	case "none":
	case "ollama":
		if cfg.LLM.Ollama.Endpoint == "" {
			errs = append(errs, errors.New("llm.ollama.endpoint is required when backend is ollama"))
		}
	case "anthropic":
		if cfg.LLM.Anthropic.Model == "" {
			errs = append(errs, errors.New("llm.anthropic.model is required when backend is anthropic"))
		}
	case "openai_compat":
		if cfg.LLM.OpenAICompat.Endpoint == "" {
			errs = append(errs, errors.New("llm.openai_compat.endpoint is required when backend is openai_compat"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"llm.backend must be one of: none, ollama, anthropic, openai_compat (got %q)",
			cfg.LLM.Backend,
		))
	}

	if cfg.Pipeline.EnhanceMaxDelay < cfg.Pipeline.EnhanceMinDelay {
		errs = append(errs, errors.New("pipeline.enhance_max_delay must not be less than enhance_min_delay"))
	}
	if cfg.Pipeline.Concurrency < 1 {
		errs = append(errs, errors.New("pipeline.concurrency must be at least 1"))
	}

	errs = append(errs, validateProviders(cfg.Providers)...)

	return errors.Join(errs...)
}

func validateProviders(providers []ProviderConfig) []error {
	var errs []error
	seen := make(map[string]bool, len(providers))

	for i, p := range providers {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("providers[%d].id is required", i))
			continue
		}
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("providers[%d]: duplicate id %q", i, p.ID))
		}
		seen[p.ID] = true

		if p.Container == "" {
			errs = append(errs, fmt.Errorf("provider %s: container selector is required", p.ID))
		}
		if len(p.Fields) == 0 {
			errs = append(errs, fmt.Errorf("provider %s: at least one field selector is required", p.ID))
		}
		for _, f := range p.IDFields {
			if _, ok := p.Fields[f]; !ok {
				errs = append(errs, fmt.Errorf("provider %s: id field %q has no selector", p.ID, f))
			}
		}
		if p.WaitSelector != "" && !p.Browser {
			errs = append(errs, fmt.Errorf("provider %s: wait_selector requires browser: true", p.ID))
		}
	}

	return errs
}

// ProviderIDs returns the configured provider IDs in declaration order.
func (c *Config) ProviderIDs() []string {
	ids := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		ids = append(ids, p.ID)
	}
	return ids
}
