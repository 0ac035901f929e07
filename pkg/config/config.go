/*
Package config manages TOML config for SwipeServe services.
*/
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bastiangx/swipeserve/internal/utils"
	"github.com/bastiangx/swipeserve/pkg/dictionary"
	"github.com/bastiangx/swipeserve/pkg/session"
	"github.com/bastiangx/swipeserve/pkg/suggest"
	"github.com/bastiangx/swipeserve/pkg/swipe"
	"github.com/bastiangx/swipeserve/pkg/touch"
	"github.com/charmbracelet/log"
)

// FileName is the config file looked up in the user config directory.
const FileName = "swipeserve.toml"

var ErrInvalid = errors.New("config: invalid value")

// Config holds the entire config structure
type Config struct {
	Gesture GestureConfig `toml:"gesture"`
	Dict    DictConfig    `toml:"dict"`
	Suggest SuggestConfig `toml:"suggest"`
	Server  ServerConfig  `toml:"server"`
	CLI     CliConfig     `toml:"cli"`
}

// GestureConfig tunes swipe classification.
type GestureConfig struct {
	SwipeRadius float64 `toml:"swipe_radius"`
	LateralBias float64 `toml:"lateral_bias"`
	MaxPointers int     `toml:"max_pointers"`
}

// DictConfig holds corpus location and lookup bounds.
type DictConfig struct {
	Path                  string `toml:"path"`
	Offset                int64  `toml:"offset"`
	Length                int64  `toml:"length"`
	MaxWordLength         int    `toml:"max_word_length"`
	MaxWords              int    `toml:"max_words"`
	TypedLetterMultiplier int    `toml:"typed_letter_multiplier"`
	FullWordMultiplier    int    `toml:"full_word_multiplier"`
	LoadRetries           int    `toml:"load_retries"`
}

// SuggestConfig holds ranking options.
type SuggestConfig struct {
	MaxSuggestions  int    `toml:"max_suggestions"`
	MinSuggestions  int    `toml:"min_suggestions"`
	MaxAlternatives int    `toml:"max_alternatives"`
	RelaxedMatch    bool   `toml:"relaxed_match"`
	CacheSize       int    `toml:"cache_size"`
	Locale          string `toml:"locale"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	WordSeparators string `toml:"word_separators"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Gesture: GestureConfig{
			SwipeRadius: swipe.DefaultRadius,
			LateralBias: swipe.DefaultLateralBias,
			MaxPointers: touch.DefaultMaxPointers,
		},
		Dict: DictConfig{
			Path:                  "en_dict.bin",
			MaxWordLength:         dictionary.DefaultMaxWordLength,
			MaxWords:              dictionary.DefaultMaxWords,
			TypedLetterMultiplier: dictionary.DefaultTypedLetterMultiplier,
			FullWordMultiplier:    dictionary.DefaultFullWordMultiplier,
			LoadRetries:           3,
		},
		Suggest: SuggestConfig{
			MaxSuggestions:  suggest.DefaultMaxSuggestions,
			MinSuggestions:  suggest.DefaultMinSuggestions,
			MaxAlternatives: 16,
			RelaxedMatch:    true,
			CacheSize:       suggest.DefaultCacheSize,
			Locale:          "en",
		},
		Server: ServerConfig{
			WordSeparators: utils.DefaultWordSeparators,
		},
		CLI: CliConfig{
			DefaultLimit: 16,
		},
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if _, err := swipe.NewClassifier(c.Gesture.SwipeRadius, c.Gesture.LateralBias); err != nil {
		return fmt.Errorf("%w: gesture: %w", ErrInvalid, err)
	}
	switch {
	case c.Gesture.MaxPointers <= 0:
		return fmt.Errorf("%w: gesture.max_pointers %d", ErrInvalid, c.Gesture.MaxPointers)
	case c.Dict.Offset < 0 || c.Dict.Length < 0:
		return fmt.Errorf("%w: dict window %d+%d", ErrInvalid, c.Dict.Offset, c.Dict.Length)
	case c.Dict.MaxWordLength < 2:
		return fmt.Errorf("%w: dict.max_word_length %d", ErrInvalid, c.Dict.MaxWordLength)
	case c.Suggest.MaxSuggestions <= 0:
		return fmt.Errorf("%w: suggest.max_suggestions %d", ErrInvalid, c.Suggest.MaxSuggestions)
	case c.Suggest.MaxAlternatives <= 0:
		return fmt.Errorf("%w: suggest.max_alternatives %d", ErrInvalid, c.Suggest.MaxAlternatives)
	case c.Server.WordSeparators == "":
		return fmt.Errorf("%w: server.word_separators is empty", ErrInvalid)
	}
	return nil
}

// Classifier returns the gesture classifier, falling back to the default
// on invalid values.
func (c *Config) Classifier() swipe.Classifier {
	cl, err := swipe.NewClassifier(c.Gesture.SwipeRadius, c.Gesture.LateralBias)
	if err != nil {
		log.Warnf("Invalid gesture settings, using defaults: %v", err)
		return swipe.DefaultClassifier()
	}
	return cl
}

// SessionOptions maps the config onto session.Options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Classifier:      c.Classifier(),
		MaxPointers:     c.Gesture.MaxPointers,
		MaxWordLength:   c.Dict.MaxWordLength,
		MaxAlternatives: c.Suggest.MaxAlternatives,
		Separators:      c.Server.WordSeparators,
		Locale:          c.Suggest.Locale,
	}
}

// SuggestOptions maps the config onto suggest.Options.
func (c *Config) SuggestOptions() suggest.Options {
	return suggest.Options{
		MaxWordLength:  c.Dict.MaxWordLength,
		MaxSuggestions: c.Suggest.MaxSuggestions,
		MinSuggestions: c.Suggest.MinSuggestions,
		RelaxedMatch:   c.Suggest.RelaxedMatch,
		CacheSize:      c.Suggest.CacheSize,
	}
}

// DictionaryOptions maps the config onto dictionary.Options.
func (c *Config) DictionaryOptions() dictionary.Options {
	return dictionary.Options{
		MaxWords:              c.Dict.MaxWords,
		MaxWordLength:         c.Dict.MaxWordLength,
		TypedLetterMultiplier: c.Dict.TypedLetterMultiplier,
		FullWordMultiplier:    c.Dict.FullWordMultiplier,
	}
}

// GetDefaultConfigPath returns the default path for swipeserve.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath(FileName)
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/swipeserve/swipeserve.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
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
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Keys missing from the file keep their
// defaults; a malformed file is salvaged section by section. Values that
// fail validation are replaced by the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		config = tryPartialParse(configPath)
	}
	if err := config.Validate(); err != nil {
		log.Warnf("Config %s rejected: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), err
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

	if section, ok := utils.ExtractSection(tempConfig, "gesture"); ok {
		extractGestureConfig(section, &config.Gesture)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "suggest"); ok {
		extractSuggestConfig(section, &config.Suggest)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractString(section, "word_separators"); ok {
			config.Server.WordSeparators = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
	}
	return config
}

func extractGestureConfig(data map[string]any, g *GestureConfig) {
	if val, ok := utils.ExtractFloat64(data, "swipe_radius"); ok {
		g.SwipeRadius = val
	}
	if val, ok := utils.ExtractFloat64(data, "lateral_bias"); ok {
		g.LateralBias = val
	}
	if val, ok := utils.ExtractInt64(data, "max_pointers"); ok {
		g.MaxPointers = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		dict.Path = val
	}
	if val, ok := utils.ExtractInt64(data, "offset"); ok {
		dict.Offset = int64(val)
	}
	if val, ok := utils.ExtractInt64(data, "length"); ok {
		dict.Length = int64(val)
	}
	if val, ok := utils.ExtractInt64(data, "max_word_length"); ok {
		dict.MaxWordLength = val
	}
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		dict.MaxWords = val
	}
	if val, ok := utils.ExtractInt64(data, "typed_letter_multiplier"); ok {
		dict.TypedLetterMultiplier = val
	}
	if val, ok := utils.ExtractInt64(data, "full_word_multiplier"); ok {
		dict.FullWordMultiplier = val
	}
	if val, ok := utils.ExtractInt64(data, "load_retries"); ok {
		dict.LoadRetries = val
	}
}

func extractSuggestConfig(data map[string]any, s *SuggestConfig) {
	if val, ok := utils.ExtractInt64(data, "max_suggestions"); ok {
		s.MaxSuggestions = val
	}
	if val, ok := utils.ExtractInt64(data, "min_suggestions"); ok {
		s.MinSuggestions = val
	}
	if val, ok := utils.ExtractInt64(data, "max_alternatives"); ok {
		s.MaxAlternatives = val
	}
	if val, ok := utils.ExtractBool(data, "relaxed_match"); ok {
		s.RelaxedMatch = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		s.CacheSize = val
	}
	if val, ok := utils.ExtractString(data, "locale"); ok {
		s.Locale = val
	}
}

// RebuildConfigFile force creates a new swipeserve.toml at default
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
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
