package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Gmail      GmailConfig      `yaml:"gmail" mapstructure:"gmail"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the on-disk stores. All paths are resolved relative to
// Dir unless absolute.
type DataConfig struct {
	Dir              string `yaml:"dir" mapstructure:"dir"`
	EmailsCSV        string `yaml:"emails_csv" mapstructure:"emails_csv"`
	FailedCSV        string `yaml:"failed_csv" mapstructure:"failed_csv"`
	ProcessedCSV     string `yaml:"processed_csv" mapstructure:"processed_csv"`
	TrackerCSV       string `yaml:"tracker_csv" mapstructure:"tracker_csv"`
	EmailsArchive    string `yaml:"emails_archive" mapstructure:"emails_archive"`
	ProcessedArchive string `yaml:"processed_archive" mapstructure:"processed_archive"`
	RunsDB           string `yaml:"runs_db" mapstructure:"runs_db"`
	LockFile         string `yaml:"lock_file" mapstructure:"lock_file"`
}

// GmailConfig holds the mail-fetch collaborator settings.
type GmailConfig struct {
	CredentialsFile string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	TokenFile       string  `yaml:"token_file" mapstructure:"token_file"`
	StartDate       string  `yaml:"start_date" mapstructure:"start_date"` // RFC 3339; cursor when the fetch store is empty
	RatePerSecond   float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// FetchConfig controls per-message retry behavior.
type FetchConfig struct {
	MaxAttempts    int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffSeconds int `yaml:"backoff_seconds" mapstructure:"backoff_seconds"`
}

// ClassifierConfig holds the zero-shot adapter settings. The model is loaded
// once per process by the inference service; the pipeline only ever sees the
// classify(batch) capability.
type ClassifierConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
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
	v.SetEnvPrefix("JOBTRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults() {
		v.SetDefault(key, val)
	}

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

func defaults() map[string]any {
	return map[string]any{
		"data.dir":                "data",
		"data.emails_csv":         "emails.csv",
		"data.failed_csv":         "failed_emails.csv",
		"data.processed_csv":      "processed_emails.csv",
		"data.tracker_csv":        "application_tracker.csv",
		"data.emails_archive":     "emails_archive.csv",
		"data.processed_archive":  "processed_archive.csv",
		"data.runs_db":            "runs.db",
		"data.lock_file":          ".jobtrail.lock",
		"gmail.credentials_file":  "credentials.json",
		"gmail.token_file":        "token.json",
		"gmail.start_date":        "2023-12-30T23:59:59Z",
		"gmail.rate_per_second":   5.0,
		"fetch.max_attempts":      3,
		"fetch.backoff_seconds":   2,
		"classifier.base_url":     "http://localhost:8000",
		"classifier.model":        "applicationTracker_DeBERTa_v3_large_finetuned",
		"classifier.batch_size":   4,
		"classifier.timeout_secs": 120,
		"log.level":               "info",
		"log.format":              "console",
	}
}

// Resolve joins a store path with the data directory unless it is absolute.
func (d DataConfig) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// WriteDefault marshals the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	v := viper.New()
	for key, val := range defaults() {
		v.SetDefault(key, val)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return eris.Wrap(err, "config: unmarshal defaults")
	}

	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return eris.Wrap(err, "config: write file")
	}
	return nil
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
