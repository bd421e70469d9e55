package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Jira       JiraConfig       `yaml:"jira" mapstructure:"jira"`
	OpenRouter OpenRouterConfig `yaml:"openrouter" mapstructure:"openrouter"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Analyze    AnalyzeConfig    `yaml:"analyze" mapstructure:"analyze"`
	Chart      ChartConfig      `yaml:"chart" mapstructure:"chart"`
	Seed       SeedConfig       `yaml:"seed" mapstructure:"seed"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// JiraConfig holds Jira Cloud credentials and the target project.
type JiraConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	Email      string `yaml:"email" mapstructure:"email"`
	APIToken   string `yaml:"api_token" mapstructure:"api_token"`
	ProjectKey string `yaml:"project_key" mapstructure:"project_key"`
}

// OpenRouterConfig holds classification service settings.
type OpenRouterConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Model             string  `yaml:"model" mapstructure:"model"`
	Referer           string  `yaml:"referer" mapstructure:"referer"`
	Title             string  `yaml:"title" mapstructure:"title"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// FetchConfig configures the issue fetch pipeline.
type FetchConfig struct {
	PageSize       int    `yaml:"page_size" mapstructure:"page_size"`
	JQLSuffix      string `yaml:"jql_suffix" mapstructure:"jql_suffix"`
	OutputPath     string `yaml:"output_path" mapstructure:"output_path"`
	PartialPath    string `yaml:"partial_path" mapstructure:"partial_path"`
	CheckpointPath string `yaml:"checkpoint_path" mapstructure:"checkpoint_path"`
}

// AnalyzeConfig configures the enrichment and aggregation pipeline.
type AnalyzeConfig struct {
	IssueLimit int    `yaml:"issue_limit" mapstructure:"issue_limit"`
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
}

// ChartConfig configures chart rendering.
type ChartConfig struct {
	TopN int `yaml:"top_n" mapstructure:"top_n"`
}

// SeedConfig configures synthetic ticket generation.
type SeedConfig struct {
	Total         int    `yaml:"total" mapstructure:"total"`
	BatchSize     int    `yaml:"batch_size" mapstructure:"batch_size"`
	ServerPool    int    `yaml:"server_pool" mapstructure:"server_pool"`
	TemplatesPath string `yaml:"templates_path" mapstructure:"templates_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TICKETLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys default to empty so environment-only
	// values survive Unmarshal.
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("jira.base_url", "")
	v.SetDefault("jira.email", "")
	v.SetDefault("jira.api_token", "")
	v.SetDefault("jira.project_key", "TON")
	v.SetDefault("openrouter.key", "")
	v.SetDefault("openrouter.referer", "")
	v.SetDefault("seed.templates_path", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "meta-llama/llama-3.1-8b-instruct")
	v.SetDefault("openrouter.title", "ticketlens")
	v.SetDefault("openrouter.requests_per_second", 2.0)
	v.SetDefault("fetch.page_size", 100)
	v.SetDefault("fetch.jql_suffix", "ORDER BY created DESC")
	v.SetDefault("fetch.output_path", "issues_data.json")
	v.SetDefault("fetch.partial_path", "output/issues_partial.jsonl")
	v.SetDefault("fetch.checkpoint_path", "output/fetch_checkpoint.json")
	v.SetDefault("analyze.issue_limit", 0)
	v.SetDefault("analyze.output_dir", "output")
	v.SetDefault("chart.top_n", 15)
	v.SetDefault("seed.total", 20000)
	v.SetDefault("seed.batch_size", 50)
	v.SetDefault("seed.server_pool", 200)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
