/*
Package config manages TOML config for recomserve.

A config.toml is created with the defaults on first run. Unknown keys are
ignored; a file that fails to parse as a whole is read section by section
so a single bad value only falls back to its own default.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/bastiangx/recomserve/internal/utils"
)

// Fallback providers
const (
	ProviderOpenAI = "openai"
	ProviderStatic = "static"
	ProviderNone   = "none"
)

var validate = validator.New()

// Config holds the entire config structure
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Dict     DictConfig     `toml:"dict"`
	Fallback FallbackConfig `toml:"fallback"`
	CLI      CliConfig      `toml:"cli"`
}

// ServerConfig has the HTTP and IPC front end options.
type ServerConfig struct {
	Addr         string `toml:"addr" validate:"required"`
	MaxLimit     int    `toml:"max_limit" validate:"gte=1,lte=1024"`
	MinPrefix    int    `toml:"min_prefix" validate:"gte=1"`
	MaxPrefix    int    `toml:"max_prefix" validate:"gtefield=MinPrefix"`
	DefaultLimit int    `toml:"default_limit" validate:"gte=1,ltefield=MaxLimit"`
}

// DictConfig locates the dictionary files and tunes the prepare pipeline.
// File names are relative to DataDir.
type DictConfig struct {
	DataDir         string `toml:"data_dir" validate:"required"`
	VocabularyFile  string `toml:"vocabulary_file" validate:"required"`
	FrequencyFile   string `toml:"frequency_file" validate:"required"`
	EmbeddingsFile  string `toml:"embeddings_file"`
	LexiconFile     string `toml:"lexicon_file"`
	LexiconEncoding string `toml:"lexicon_encoding" validate:"oneof=utf-8 latin1"`
	WordListFile    string `toml:"word_list_file"`
	MaxWords        int    `toml:"max_words" validate:"gte=0"`
	MinWordLen      int    `toml:"min_word_len" validate:"gte=1"`
	PersistLearned  bool   `toml:"persist_learned"`
}

// FallbackConfig selects and tunes the generative fallback.
type FallbackConfig struct {
	Provider        string  `toml:"provider" validate:"oneof=openai static none"`
	BaseURL         string  `toml:"base_url" validate:"omitempty,url"`
	Model           string  `toml:"model" validate:"required_if=Provider openai"`
	EmbeddingModel  string  `toml:"embedding_model"`
	APIKeyEnv       string  `toml:"api_key_env"`
	TimeoutMs       int     `toml:"timeout_ms" validate:"gte=1"`
	Oversample      int     `toml:"oversample" validate:"gte=1,lte=10"`
	Temperature     float64 `toml:"temperature" validate:"gte=0,lte=2"`
	TopP            float64 `toml:"top_p" validate:"gt=0,lte=1"`
	MaxTokens       int     `toml:"max_tokens" validate:"gte=1"`
	RatePerSec      float64 `toml:"rate_per_sec" validate:"gte=0"` // 0 disables limiting
	Burst           int     `toml:"burst" validate:"gte=1"`
	StaticWordsFile string  `toml:"static_words_file" validate:"required_if=Provider static"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit  int    `toml:"default_limit" validate:"gte=1"`
	DefaultMinLen int    `toml:"default_min_len" validate:"gte=1"`
	DefaultMaxLen int    `toml:"default_max_len" validate:"gtefield=DefaultMinLen"`
	DefaultMode   string `toml:"default_mode" validate:"oneof=dict hybrid gen"`
}

// Timeout is the generator deadline as a duration
func (f FallbackConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutMs) * time.Millisecond
}

// APIKey reads the key from the configured environment variable
func (f FallbackConfig) APIKey() string {
	if f.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(f.APIKeyEnv)
}

// Path joins name onto the data directory. Absolute names are kept.
func (d DictConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.DataDir, name)
}

// Validate checks value ranges and cross-field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "recomserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "recomserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/recomserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			MaxLimit:     64,
			MinPrefix:    1,
			MaxPrefix:    60,
			DefaultLimit: 5,
		},
		Dict: DictConfig{
			DataDir:         "data",
			VocabularyFile:  "vocabulary.msgpack",
			FrequencyFile:   "frequency.msgpack",
			EmbeddingsFile:  "embeddings.msgpack",
			LexiconFile:     "lexporbr_alfa_txt.txt",
			LexiconEncoding: "latin1",
			MaxWords:        3000,
			MinWordLen:      3,
			PersistLearned:  true,
		},
		Fallback: FallbackConfig{
			Provider:       ProviderNone,
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutMs:      5000,
			Oversample:     2,
			Temperature:    0.8,
			TopP:           0.95,
			MaxTokens:      10,
			RatePerSec:     0,
			Burst:          4,
		},
		CLI: CliConfig{
			DefaultLimit:  5,
			DefaultMinLen: 1,
			DefaultMaxLen: 60,
			DefaultMode:   "hybrid",
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Values the validator rejects are an
// error; the caller decides whether to fall back to defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		log.Debugf("Strict parse of %s failed, recovering sections: %v", configPath, err)
		config = tryPartialParse(configPath)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) *Config {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config
	}

	if serverSection, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(serverSection, &config.Server)
	}
	if dictSection, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(dictSection, &config.Dict)
	}
	if fallbackSection, ok := utils.ExtractSection(tempConfig, "fallback"); ok {
		extractFallbackConfig(fallbackSection, &config.Fallback)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	return config
}

// extractServerConfig extracts server configuration from a map
func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractString(data, "addr"); ok {
		server.Addr = val
	}
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		server.DefaultLimit = val
	}
}

// extractDictConfig extracts dictionary configuration from a map
func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		dict.DataDir = val
	}
	if val, ok := utils.ExtractString(data, "vocabulary_file"); ok {
		dict.VocabularyFile = val
	}
	if val, ok := utils.ExtractString(data, "frequency_file"); ok {
		dict.FrequencyFile = val
	}
	if val, ok := utils.ExtractString(data, "embeddings_file"); ok {
		dict.EmbeddingsFile = val
	}
	if val, ok := utils.ExtractString(data, "lexicon_file"); ok {
		dict.LexiconFile = val
	}
	if val, ok := utils.ExtractString(data, "lexicon_encoding"); ok {
		dict.LexiconEncoding = val
	}
	if val, ok := utils.ExtractString(data, "word_list_file"); ok {
		dict.WordListFile = val
	}
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		dict.MaxWords = val
	}
	if val, ok := utils.ExtractInt64(data, "min_word_len"); ok {
		dict.MinWordLen = val
	}
	if val, ok := utils.ExtractBool(data, "persist_learned"); ok {
		dict.PersistLearned = val
	}
}

// extractFallbackConfig extracts generator configuration from a map
func extractFallbackConfig(data map[string]any, fb *FallbackConfig) {
	if val, ok := utils.ExtractString(data, "provider"); ok {
		fb.Provider = val
	}
	if val, ok := utils.ExtractString(data, "base_url"); ok {
		fb.BaseURL = val
	}
	if val, ok := utils.ExtractString(data, "model"); ok {
		fb.Model = val
	}
	if val, ok := utils.ExtractString(data, "embedding_model"); ok {
		fb.EmbeddingModel = val
	}
	if val, ok := utils.ExtractString(data, "api_key_env"); ok {
		fb.APIKeyEnv = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		fb.TimeoutMs = val
	}
	if val, ok := utils.ExtractInt64(data, "oversample"); ok {
		fb.Oversample = val
	}
	if val, ok := utils.ExtractFloat(data, "temperature"); ok {
		fb.Temperature = val
	}
	if val, ok := utils.ExtractFloat(data, "top_p"); ok {
		fb.TopP = val
	}
	if val, ok := utils.ExtractInt64(data, "max_tokens"); ok {
		fb.MaxTokens = val
	}
	if val, ok := utils.ExtractFloat(data, "rate_per_sec"); ok {
		fb.RatePerSec = val
	}
	if val, ok := utils.ExtractInt64(data, "burst"); ok {
		fb.Burst = val
	}
	if val, ok := utils.ExtractString(data, "static_words_file"); ok {
		fb.StaticWordsFile = val
	}
}

// extractCliConfig extracts CLI config from a map
func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "default_min_len"); ok {
		cli.DefaultMinLen = val
	}
	if val, ok := utils.ExtractInt64(data, "default_max_len"); ok {
		cli.DefaultMaxLen = val
	}
	if val, ok := utils.ExtractString(data, "default_mode"); ok {
		cli.DefaultMode = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
