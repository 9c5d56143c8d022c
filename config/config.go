package config

import (
	"fmt"

	"github.com/skillsenselab/scribe/jobs"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/media"
	"github.com/skillsenselab/scribe/observability"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/transcription/groq"
)

// Config aggregates every tunable of the scribe service.
type Config struct {
	App           AppConfig            `mapstructure:"app"`
	Logging       logger.Config        `mapstructure:"logging"`
	Server        server.Config        `mapstructure:"server"`
	Jobs          jobs.Config          `mapstructure:"jobs"`
	Groq          groq.Config          `mapstructure:"groq"`
	Media         media.Config         `mapstructure:"media"`
	Observability observability.Config `mapstructure:"observability"`
}

// AppConfig identifies the running service.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// Load reads configuration from file and environment, applies defaults,
// and validates the result.
func Load(opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := load(&cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "scribe"
	}
	if c.App.Version == "" {
		c.App.Version = "dev"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Jobs.ApplyDefaults()
	c.Groq.ApplyDefaults()
	c.Media.ApplyDefaults()
	c.Observability.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.App.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.App.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.App.Environment
	}
}

func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be positive, got %d", c.Jobs.Workers)
	}
	if c.Jobs.QueueSize <= 0 {
		return fmt.Errorf("jobs.queue_size must be positive, got %d", c.Jobs.QueueSize)
	}
	if c.Groq.BaseURL == "" {
		return fmt.Errorf("groq.base_url must not be empty")
	}
	return nil
}
