// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/senselabs/sense/pkg/types"
)

// Config represents the complete configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" toml:"server"`
	API     APIConfig     `mapstructure:"api" toml:"api"`
	Bot     BotConfig     `mapstructure:"bot" toml:"bot"`
	Index   IndexConfig   `mapstructure:"index" toml:"index"`
	Logging LoggingConfig `mapstructure:"logging" toml:"logging"`
}

// ServerConfig contains the MCP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" toml:"port"`
}

// APIConfig contains the embedding API configuration.
type APIConfig struct {
	Provider   string `mapstructure:"provider" toml:"provider"` // openai, plugin
	Key        string `mapstructure:"key" toml:"key"`
	Model      string `mapstructure:"model" toml:"model"`
	Endpoint   string `mapstructure:"endpoint" toml:"endpoint"`
	PluginPath string `mapstructure:"plugin_path" toml:"plugin_path"` // provider binary when provider=plugin
}

// BotConfig contains the Telegram bot configuration.
type BotConfig struct {
	Token      string  `mapstructure:"token" toml:"token"`
	Owner      int64   `mapstructure:"owner" toml:"owner"`
	Whitelist  []int64 `mapstructure:"whitelist" toml:"whitelist"`
	StickerSet string  `mapstructure:"sticker_set" toml:"sticker_set"`
	NumResults int     `mapstructure:"num_results" toml:"num_results"`
	Postscript string  `mapstructure:"postscript" toml:"postscript"`
}

// IndexConfig contains indexing configuration.
type IndexConfig struct {
	LabelMode string `mapstructure:"label_mode" toml:"label_mode"` // prompt, auto, none
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" toml:"format"` // text, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		API: APIConfig{
			Provider: "openai",
			Model:    "BAAI/bge-large-zh-v1.5",
			Endpoint: "https://api.siliconflow.cn/v1",
		},
		Bot: BotConfig{
			StickerSet: "meme",
			NumResults: 8,
		},
		Index: IndexConfig{
			LabelMode: "prompt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ControlDir returns the path to the .sense directory.
func ControlDir(root string) string {
	return filepath.Join(root, ".sense")
}

// ConfigPath returns the path to config.toml.
func ConfigPath(root string) string {
	return filepath.Join(ControlDir(root), "config.toml")
}

// IndexDBPath returns the path to index.db.
func IndexDBPath(root string) string {
	return filepath.Join(ControlDir(root), "index.db")
}

// Load loads configuration from file, falling back to defaults.
func Load(root string) (*Config, []string, error) {
	cfg := DefaultConfig()
	warnings := []string{}

	configPath := ConfigPath(root)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		warnings = append(warnings, "No config file found, using defaults")
		return cfg, warnings, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults for missing values
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.API.Provider == "" {
		cfg.API.Provider = "openai"
		warnings = append(warnings, "Using default embedding provider: openai")
	}
	if cfg.API.Model == "" {
		cfg.API.Model = "BAAI/bge-large-zh-v1.5"
	}
	if cfg.API.Endpoint == "" {
		cfg.API.Endpoint = "https://api.siliconflow.cn/v1"
	}
	if cfg.Bot.StickerSet == "" {
		cfg.Bot.StickerSet = "meme"
	}
	if cfg.Bot.NumResults == 0 {
		cfg.Bot.NumResults = 8
	}
	if cfg.Index.LabelMode == "" {
		cfg.Index.LabelMode = "prompt"
	}

	return cfg, warnings, nil
}

// Save saves configuration to file.
func Save(root string, cfg *Config) error {
	dir := ControlDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(ConfigPath(root))
	v.SetConfigType("toml")

	v.Set("server", cfg.Server)
	v.Set("api", cfg.API)
	v.Set("bot", cfg.Bot)
	v.Set("index", cfg.Index)
	v.Set("logging", cfg.Logging)

	return v.WriteConfig()
}

// Validate validates the configuration.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: invalid server port: %d", types.ErrInvalidConfig, cfg.Server.Port))
	}

	validProviders := map[string]bool{
		"openai": true, "plugin": true,
	}
	if !validProviders[cfg.API.Provider] {
		errs = append(errs, fmt.Errorf("%w: invalid embedding provider: %s", types.ErrInvalidConfig, cfg.API.Provider))
	}
	if cfg.API.Provider == "openai" && cfg.API.Key == "" {
		errs = append(errs, fmt.Errorf("%w: api.key is required for the openai provider", types.ErrInvalidConfig))
	}
	if cfg.API.Provider == "plugin" && cfg.API.PluginPath == "" {
		errs = append(errs, fmt.Errorf("%w: api.plugin_path is required for the plugin provider", types.ErrInvalidConfig))
	}

	if cfg.Bot.NumResults < 1 {
		errs = append(errs, fmt.Errorf("%w: bot.num_results must be positive: %d", types.ErrInvalidConfig, cfg.Bot.NumResults))
	}

	validLabelModes := map[string]bool{
		"prompt": true, "auto": true, "none": true,
	}
	if !validLabelModes[cfg.Index.LabelMode] {
		errs = append(errs, fmt.Errorf("%w: invalid label mode: %s (valid: prompt, auto, none)", types.ErrInvalidConfig, cfg.Index.LabelMode))
	}

	return errs
}

// Allowed reports whether a Telegram user may talk to the bot. An empty
// whitelist allows everyone; otherwise the owner and listed users pass.
func (b *BotConfig) Allowed(userID int64) bool {
	if len(b.Whitelist) == 0 {
		return true
	}
	if userID == b.Owner {
		return true
	}
	for _, id := range b.Whitelist {
		if id == userID {
			return true
		}
	}
	return false
}
