package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mongo"`

	Redis struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"redis"`

	Mail struct {
		Host          string `mapstructure:"host"`
		Port          int    `mapstructure:"port"`
		Username      string `mapstructure:"username"`
		Password      string `mapstructure:"password"`
		From          string `mapstructure:"from"`
		SSL           bool   `mapstructure:"ssl"`
		SkipTLSVerify bool   `mapstructure:"skip_tls_verify"`
	} `mapstructure:"mail"`

	Reports struct {
		Backend    string   `mapstructure:"backend"`
		Dir        string   `mapstructure:"dir"`
		Extensions []string `mapstructure:"extensions"`
	} `mapstructure:"reports"`

	Thresholds struct {
		Backend string `mapstructure:"backend"`
		File    string `mapstructure:"file"`
		Green   int    `mapstructure:"green"`
		Amber   int    `mapstructure:"amber"`
		Red     int    `mapstructure:"red"`
	} `mapstructure:"thresholds"`

	Scheduler struct {
		PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
		LockTTLMinutes      int `mapstructure:"lock_ttl_minutes"`
	} `mapstructure:"scheduler"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	APIKeys struct {
		User  string `mapstructure:"user"`
		Admin string `mapstructure:"admin"`
	} `mapstructure:"api_keys"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// LoadConfig loads the configuration from .env, file, environment variables and flags.
// Order of precedence: defaults < config file < env vars < flags.
// flags may be nil; only flags that were explicitly set override other sources.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables directly")
	}

	v := viper.New()

	// Set defaults
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "filepulse")
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "onboarding@resend.dev")
	v.SetDefault("reports.backend", "dir")
	v.SetDefault("reports.dir", "reports")
	v.SetDefault("reports.extensions", []string{".pdf"})
	v.SetDefault("thresholds.backend", "file")
	v.SetDefault("thresholds.file", "config/thresholds.yaml")
	v.SetDefault("thresholds.green", 7)
	v.SetDefault("thresholds.amber", 14)
	v.SetDefault("thresholds.red", 30)
	v.SetDefault("scheduler.poll_interval_seconds", 30)
	v.SetDefault("scheduler.lock_ttl_minutes", 60)
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read from config file if present
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Err(err).Str("config_path", configPath).Msg("Failed to read config file, relying on defaults, env, and flags")
		}
	}

	// Explicitly bind environment variables
	bindEnvOrPanic(v, "mongo.uri", "MONGO_URI")
	bindEnvOrPanic(v, "mongo.database", "MONGO_DATABASE")
	bindEnvOrPanic(v, "redis.host", "REDIS_HOST")
	bindEnvOrPanic(v, "redis.port", "REDIS_PORT")
	bindEnvOrPanic(v, "mail.host", "SMTP_HOST")
	bindEnvOrPanic(v, "mail.port", "SMTP_PORT")
	bindEnvOrPanic(v, "mail.username", "SMTP_USERNAME")
	bindEnvOrPanic(v, "mail.password", "SMTP_PASSWORD")
	bindEnvOrPanic(v, "mail.from", "MAIL_FROM")
	bindEnvOrPanic(v, "mail.ssl", "SMTP_SSL")
	bindEnvOrPanic(v, "mail.skip_tls_verify", "SMTP_SKIP_TLS_VERIFY")
	bindEnvOrPanic(v, "reports.backend", "REPORTS_BACKEND")
	bindEnvOrPanic(v, "reports.dir", "REPORTS_DIR")
	bindEnvOrPanic(v, "thresholds.backend", "THRESHOLDS_BACKEND")
	bindEnvOrPanic(v, "thresholds.file", "THRESHOLDS_FILE")
	bindEnvOrPanic(v, "thresholds.green", "THRESHOLDS_GREEN")
	bindEnvOrPanic(v, "thresholds.amber", "THRESHOLDS_AMBER")
	bindEnvOrPanic(v, "thresholds.red", "THRESHOLDS_RED")
	bindEnvOrPanic(v, "scheduler.poll_interval_seconds", "SCHEDULER_POLL_INTERVAL_SECONDS")
	bindEnvOrPanic(v, "scheduler.lock_ttl_minutes", "SCHEDULER_LOCK_TTL_MINUTES")
	bindEnvOrPanic(v, "http.addr", "HTTP_ADDR")
	bindEnvOrPanic(v, "api_keys.user", "API_KEY")
	bindEnvOrPanic(v, "api_keys.admin", "ADMIN_API_KEY")
	bindEnvOrPanic(v, "log.level", "LOG_LEVEL")
	bindEnvOrPanic(v, "log.format", "LOG_FORMAT")

	// Apply command-line flags if provided
	if flags != nil {
		bindFlag(v, flags, "scheduler.poll_interval_seconds", "poll-interval-seconds")
		bindFlag(v, flags, "reports.dir", "reports-dir")
		bindFlag(v, flags, "http.addr", "addr")
		bindFlag(v, flags, "log.level", "log-level")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RegisterFlags declares the flags LoadConfig knows how to apply.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int("poll-interval-seconds", 0, "Override scheduler poll interval in seconds")
	flags.String("reports-dir", "", "Override the directory scanned for reports")
	flags.String("addr", "", "Override the HTTP listen address")
	flags.String("log-level", "", "Override log level")
}

func bindEnvOrPanic(v *viper.Viper, key, env string) {
	if err := v.BindEnv(key, env); err != nil {
		log.Fatal().Err(err).Msgf("Failed to bind environment variable %s to key %s", env, key)
	}
}

func bindFlag(v *viper.Viper, flags *pflag.FlagSet, key, name string) {
	f := flags.Lookup(name)
	if f == nil || !f.Changed {
		return
	}
	if err := v.BindPFlag(key, f); err != nil {
		log.Fatal().Err(err).Msgf("Failed to bind flag --%s to key %s", name, key)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Mongo.URI == "" {
		log.Debug().Msg("MONGO_URI not provided, delivery log disabled")
	}
	if cfg.Redis.Host == "" {
		log.Debug().Msg("REDIS_HOST not provided, scheduled sends are not locked")
	}

	if cfg.Mail.Port <= 0 || cfg.Mail.Port > 65535 {
		return fmt.Errorf("mail port must be between 1 and 65535, got %d", cfg.Mail.Port)
	}
	if cfg.Mail.From == "" {
		return fmt.Errorf("mail from address must not be empty")
	}

	cfg.Reports.Backend = strings.ToLower(cfg.Reports.Backend)
	switch cfg.Reports.Backend {
	case "dir":
		if cfg.Reports.Dir == "" {
			return fmt.Errorf("reports dir must be set when reports backend is dir")
		}
	case "mongo":
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("reports backend mongo requires mongo.uri")
		}
	default:
		return fmt.Errorf("unknown reports backend %q", cfg.Reports.Backend)
	}

	cfg.Thresholds.Backend = strings.ToLower(cfg.Thresholds.Backend)
	switch cfg.Thresholds.Backend {
	case "file":
		if cfg.Thresholds.File == "" {
			return fmt.Errorf("thresholds file must be set when thresholds backend is file")
		}
	case "mongo":
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("thresholds backend mongo requires mongo.uri")
		}
	default:
		return fmt.Errorf("unknown thresholds backend %q", cfg.Thresholds.Backend)
	}

	t := cfg.Thresholds
	if t.Green < 0 || t.Amber < 0 || t.Red < 0 {
		return fmt.Errorf("default thresholds must be non-negative, got green=%d amber=%d red=%d", t.Green, t.Amber, t.Red)
	}
	if t.Green > t.Amber || t.Amber > t.Red {
		return fmt.Errorf("default thresholds must satisfy green <= amber <= red, got green=%d amber=%d red=%d", t.Green, t.Amber, t.Red)
	}

	if cfg.Scheduler.PollIntervalSeconds <= 0 {
		return fmt.Errorf("scheduler poll_interval_seconds must be > 0, got %d", cfg.Scheduler.PollIntervalSeconds)
	}
	if cfg.Scheduler.LockTTLMinutes <= 0 {
		return fmt.Errorf("scheduler lock_ttl_minutes must be > 0, got %d", cfg.Scheduler.LockTTLMinutes)
	}

	return nil
}
