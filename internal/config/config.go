// Package config loads the FlashMemo configuration from a YAML file and
// FLASHMEMO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

// EnvPrefix prefixes every environment override, e.g. FLASHMEMO_STORAGE_TYPE.
const EnvPrefix = "FLASHMEMO"

type Config struct {
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Feishu    FeishuConfig    `yaml:"feishu" mapstructure:"feishu"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Prompts   PromptsConfig   `yaml:"prompts" mapstructure:"prompts"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
}

type StorageConfig struct {
	Type       string `yaml:"type" mapstructure:"type"` // local or feishu
	Path       string `yaml:"path" mapstructure:"path"`
	Versioning bool   `yaml:"versioning" mapstructure:"versioning"`
	SavePolicy string `yaml:"save_policy" mapstructure:"save_policy"` // any or all
}

type FeishuConfig struct {
	AppID     string  `yaml:"app_id" mapstructure:"app_id"`
	AppSecret string  `yaml:"app_secret" mapstructure:"app_secret"`
	RootToken string  `yaml:"root_token" mapstructure:"root_token"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Workers   int     `yaml:"workers" mapstructure:"workers"`
}

type LLMConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	Model      string `yaml:"model" mapstructure:"model"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// PromptsConfig overrides the compiled-in prompt templates. Empty means
// default.
type PromptsConfig struct {
	Router  string `yaml:"router" mapstructure:"router"`
	Summary string `yaml:"summary" mapstructure:"summary"`
}

type RetrievalConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Type:       "local",
			Path:       "~/FlashMemo",
			SavePolicy: "any",
		},
		Feishu: FeishuConfig{
			BaseURL:   "https://open.feishu.cn/open-apis",
			RateLimit: 50,
			Workers:   8,
		},
		LLM: LLMConfig{
			BaseURL:    "https://api.openai.com/v1",
			Model:      "gpt-4o-mini",
			MaxRetries: 3,
		},
		Retrieval: RetrievalConfig{Limit: 20},
	}
}

// DefaultPath is where `flashmemo config init` writes the file.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "flashmemo", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "flashmemo", "config.yaml")
}

var envVarRe = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)

// expandEnv replaces $NAME with the variable's value, leaving unknown names
// untouched.
func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(strings.TrimPrefix(match, "$")); ok {
			return val
		}
		return match
	})
}

// Load reads the configuration. With an empty path the file is searched
// for as config.yaml in the working directory and the user config dir, and
// a missing file means defaults. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Storage.Path = expandEnv(cfg.Storage.Path)
	cfg.Feishu.AppID = expandEnv(cfg.Feishu.AppID)
	cfg.Feishu.AppSecret = expandEnv(cfg.Feishu.AppSecret)
	cfg.Feishu.RootToken = expandEnv(cfg.Feishu.RootToken)
	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	cfg.LLM.BaseURL = expandEnv(cfg.LLM.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.versioning", d.Storage.Versioning)
	v.SetDefault("storage.save_policy", d.Storage.SavePolicy)
	v.SetDefault("feishu.app_id", d.Feishu.AppID)
	v.SetDefault("feishu.app_secret", d.Feishu.AppSecret)
	v.SetDefault("feishu.root_token", d.Feishu.RootToken)
	v.SetDefault("feishu.base_url", d.Feishu.BaseURL)
	v.SetDefault("feishu.rate_limit", d.Feishu.RateLimit)
	v.SetDefault("feishu.workers", d.Feishu.Workers)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("prompts.router", d.Prompts.Router)
	v.SetDefault("prompts.summary", d.Prompts.Summary)
	v.SetDefault("retrieval.limit", d.Retrieval.Limit)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "local", "fs":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("config: storage.path is required for local storage")
		}
	case "feishu":
		if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
			return fmt.Errorf("config: feishu storage requires feishu.app_id and feishu.app_secret")
		}
		if c.Feishu.RootToken == "" {
			return fmt.Errorf("config: feishu storage requires feishu.root_token")
		}
	default:
		return fmt.Errorf("config: storage.type %q is invalid (must be local or feishu)", c.Storage.Type)
	}

	if _, err := core.ParseSuccessPolicy(c.Storage.SavePolicy); err != nil {
		return fmt.Errorf("config: storage.save_policy: %w", err)
	}

	if c.Retrieval.Limit < 1 {
		c.Retrieval.Limit = 20
	}
	if c.LLM.MaxRetries < 0 {
		c.LLM.MaxRetries = 0
	}
	return nil
}

// Write saves cfg as YAML at path, creating parent directories. An existing
// file is only replaced when force is set.
func Write(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config: %s already exists", path)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
