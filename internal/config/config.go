package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	Storage     StorageConfig     `yaml:"storage"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Hub         HubConfig         `yaml:"hub"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

type LLMConfig struct {
	DefaultModel string                    `yaml:"default_model,omitempty"`
	Models       []string                  `yaml:"models,omitempty"`
	Providers    map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite", "mysql", or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
	DSN  string `yaml:"dsn,omitempty"`  // MySQL DSN
}

type ObjectStoreConfig struct {
	Endpoint   string `yaml:"endpoint,omitempty"` // host[:port], no scheme
	Region     string `yaml:"region,omitempty"`
	Bucket     string `yaml:"bucket,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
	AccessKey  string `yaml:"access_key,omitempty"`
	SecretKey  string `yaml:"secret_key,omitempty"`
	DisableSSL bool   `yaml:"disable_ssl,omitempty"`
}

type HubConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	RowsURL string `yaml:"rows_url,omitempty"`
	Token   string `yaml:"token,omitempty"`
	Dataset string `yaml:"dataset,omitempty"`
	Config  string `yaml:"config,omitempty"`
	Split   string `yaml:"split,omitempty"`
}

type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// Load reads a YAML config file and fills the gaps with defaults and
// environment overrides. An empty path means DefaultPath, and a missing file
// at DefaultPath is not an error; a missing file at an explicit path is.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = ":8080"
	}

	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultModel) == "" {
		cfg.LLM.DefaultModel = "gpt-4o"
	}
	if len(cfg.LLM.Models) == 0 {
		cfg.LLM.Models = []string{"gpt-4o", "gpt-4", "gpt-3.5-turbo"}
	}

	if strings.TrimSpace(cfg.ObjectStore.Endpoint) == "" {
		cfg.ObjectStore.Endpoint = "s3.amazonaws.com"
	}
	if strings.TrimSpace(cfg.ObjectStore.Prefix) == "" {
		cfg.ObjectStore.Prefix = "gaia_files"
	}

	if strings.TrimSpace(cfg.Hub.BaseURL) == "" {
		cfg.Hub.BaseURL = "https://huggingface.co"
	}
	if strings.TrimSpace(cfg.Hub.RowsURL) == "" {
		cfg.Hub.RowsURL = "https://datasets-server.huggingface.co"
	}
	if strings.TrimSpace(cfg.Hub.Dataset) == "" {
		cfg.Hub.Dataset = "gaia-benchmark/GAIA"
	}
	if strings.TrimSpace(cfg.Hub.Config) == "" {
		cfg.Hub.Config = "2023_all"
	}
	if strings.TrimSpace(cfg.Hub.Split) == "" {
		cfg.Hub.Split = "validation"
	}

	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 100
	}
	if cfg.Logging.MaxBackups <= 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays <= 0 {
		cfg.Logging.MaxAgeDays = 28
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		setProviderKey(cfg, "openai", v)
	}

	// ANTHROPIC_API_KEY wins over ANTHROPIC_AUTH_TOKEN.
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		setProviderKey(cfg, "claude", v)
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		setProviderKey(cfg, "claude", v)
	}

	if v := strings.TrimSpace(os.Getenv("HUGGINGFACE_TOKEN")); v != "" {
		cfg.Hub.Token = v
	}

	if v := strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")); v != "" {
		cfg.ObjectStore.AccessKey = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY")); v != "" {
		cfg.ObjectStore.SecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_S3_BUCKET_NAME")); v != "" {
		cfg.ObjectStore.Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv("AWS_REGION")); v != "" {
		cfg.ObjectStore.Region = v
	}

	if v := strings.TrimSpace(os.Getenv("GAIA_BENCH_DB_DSN")); v != "" {
		cfg.Storage.Type = "mysql"
		cfg.Storage.DSN = v
	}
}

// setProviderKey updates a provider entry in place. ProviderConfig is a
// value type, so the entry is copied out and written back.
func setProviderKey(cfg *Config, name, key string) {
	p := cfg.LLM.Providers[name]
	p.APIKey = key
	cfg.LLM.Providers[name] = p
}
