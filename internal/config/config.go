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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the crawl cache / run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// JinaConfig holds Jina AI Reader settings. The reader renders
// client-side scripts, so it is the primary fetch path when a key is
// configured; the local HTTP fetcher is the fallback (and the only path
// otherwise).
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for enrichment.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CrawlConfig configures per-company crawling.
type CrawlConfig struct {
	PageBudget    int      `yaml:"page_budget" mapstructure:"page_budget"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHours int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	Keywords      []string `yaml:"keywords" mapstructure:"keywords"`
	KeywordsFile  string   `yaml:"keywords_file" mapstructure:"keywords_file"`
	RatePerHost   float64  `yaml:"rate_per_host" mapstructure:"rate_per_host"`
}

// ReportConfig configures the report sink.
type ReportConfig struct {
	OutputPath string `yaml:"output_path" mapstructure:"output_path"`
	SheetName  string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// ServerConfig configures the job control server.
type ServerConfig struct {
	Port      int    `yaml:"port" mapstructure:"port"`
	UploadDir string `yaml:"upload_dir" mapstructure:"upload_dir"`
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
	v.SetEnvPrefix("INTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "intel-crawler.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("crawl.page_budget", 3)
	v.SetDefault("crawl.timeout_secs", 90)
	v.SetDefault("crawl.cache_ttl_hours", 24)
	v.SetDefault("crawl.rate_per_host", 2.0)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	// Empty defaults register the keys so env-only values survive Unmarshal.
	v.SetDefault("jina.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("crawl.keywords_file", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("report.output_path", "output.xlsx")
	v.SetDefault("report.sheet_name", "Results")

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
