/*
Package config manages TOML config for NameServe services.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bastiangx/nameserve/internal/utils"
	"github.com/bastiangx/nameserve/pkg/resolve"
	"github.com/bastiangx/nameserve/pkg/vocab"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Model   ModelConfig   `toml:"model"`
	Search  SearchConfig  `toml:"search"`
	Resolve ResolveConfig `toml:"resolve"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxCodeBytes int `toml:"max_code_bytes"`
}

// ModelConfig selects the inference backend and its vocabulary.
type ModelConfig struct {
	Backend        string `toml:"backend"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxLength      int    `toml:"max_length"`
	VocabFormat    string `toml:"vocab_format"`
	VocabDir       string `toml:"vocab_dir"`
	MaskToken      string `toml:"mask_token"`
	BeginToken     string `toml:"begin_token"`
	EndToken       string `toml:"end_token"`
	PadToken       string `toml:"pad_token"`
	UnkToken       string `toml:"unk_token"`
}

// SearchConfig holds candidate search options.
type SearchConfig struct {
	MaxSubtokens int    `toml:"max_subtokens"`
	TopK         int    `toml:"top_k"`
	Parallel     bool   `toml:"parallel"`
	Placeholder  string `toml:"placeholder"`
}

// ResolveConfig picks the occurrence strategy.
type ResolveConfig struct {
	Strategy string `toml:"strategy"`
}

const (
	BackendRemote = "remote"
	BackendMock   = "mock"
)

// Specials maps the token overrides onto the vocabulary loader.
func (m ModelConfig) Specials() vocab.Specials {
	return vocab.Specials{
		Mask:  m.MaskToken,
		Begin: m.BeginToken,
		End:   m.EndToken,
		Pad:   m.PadToken,
		Unk:   m.UnkToken,
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.ExecutableDir()
	}
	primary := utils.ProbeDir(filepath.Join(homeDir, ".config", utils.AppName))
	if primary.Writable {
		return primary.Path, nil
	}
	log.Warnf("Config directory unusable: %v", primary.Err)
	// Not conventional, fallback from ~/.config if not writable
	macOS := utils.ProbeDir(filepath.Join(homeDir, "Library", "Application Support", utils.AppName))
	if macOS.Writable {
		return macOS.Path, nil
	}
	log.Warnf("Config directory unusable: %v", macOS.Err)
	execDir, err := utils.ExecutableDir()
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
// 2. Default path: [UserConfigDir]/nameserve/config.toml
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
			MaxCodeBytes: 256 << 10,
		},
		Model: ModelConfig{
			Backend:        BackendRemote,
			Endpoint:       "http://127.0.0.1:8087/forward",
			TimeoutSeconds: 60,
			MaxLength:      512,
			VocabFormat:    string(vocab.FormatBPE),
			VocabDir:       "model",
		},
		Search: SearchConfig{
			MaxSubtokens: 6,
			TopK:         5,
			Parallel:     false,
			Placeholder:  "[MASK]",
		},
		Resolve: ResolveConfig{
			Strategy: string(resolve.Lexical),
		},
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if c.Server.MaxCodeBytes < 1 {
		return fmt.Errorf("server.max_code_bytes must be positive, got %d", c.Server.MaxCodeBytes)
	}
	switch c.Model.Backend {
	case BackendRemote, BackendMock:
	default:
		return fmt.Errorf("model.backend: unknown backend %q", c.Model.Backend)
	}
	if c.Model.MaxLength < 3 {
		return fmt.Errorf("model.max_length must be at least 3, got %d", c.Model.MaxLength)
	}
	if _, err := vocab.ParseFormat(c.Model.VocabFormat); err != nil {
		return fmt.Errorf("model.vocab_format: %w", err)
	}
	if c.Search.MaxSubtokens < 1 {
		return fmt.Errorf("search.max_subtokens must be at least 1, got %d", c.Search.MaxSubtokens)
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("search.top_k must be at least 1, got %d", c.Search.TopK)
	}
	if c.Search.Placeholder == "" {
		return fmt.Errorf("search.placeholder must not be empty")
	}
	if _, err := resolve.ParseStrategy(c.Resolve.Strategy); err != nil {
		return fmt.Errorf("resolve.strategy: %w", err)
	}
	return nil
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

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	unknown, err := utils.DecodeTOMLFile(configPath, config)
	if err != nil {
		log.Warnf("Config error: %v. Attempting partial recovery...", err)
		return tryPartialParse(configPath)
	}
	if len(unknown) > 0 {
		log.Warnf("Ignoring unknown config keys in %s: %v", configPath, unknown)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value of a file the struct decode rejected.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.DecodeTOMLMap(configPath)
	if err != nil {
		log.Warnf("Could not recover any configuration: %v. Using all defaults.", err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "model"); ok {
		extractModelConfig(section, &config.Model)
	}
	if section, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(tempConfig, "resolve"); ok {
		if val, ok := utils.Extract[string](section, "strategy"); ok {
			config.Resolve.Strategy = val
		}
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt(data, "max_code_bytes"); ok {
		server.MaxCodeBytes = val
	}
}

func extractModelConfig(data map[string]any, m *ModelConfig) {
	if val, ok := utils.ExtractInt(data, "timeout_seconds"); ok {
		m.TimeoutSeconds = val
	}
	if val, ok := utils.ExtractInt(data, "max_length"); ok {
		m.MaxLength = val
	}
	fields := map[string]*string{
		"backend":      &m.Backend,
		"endpoint":     &m.Endpoint,
		"vocab_format": &m.VocabFormat,
		"vocab_dir":    &m.VocabDir,
		"mask_token":   &m.MaskToken,
		"begin_token":  &m.BeginToken,
		"end_token":    &m.EndToken,
		"pad_token":    &m.PadToken,
		"unk_token":    &m.UnkToken,
	}
	for key, dst := range fields {
		if val, ok := utils.Extract[string](data, key); ok {
			*dst = val
		}
	}
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt(data, "max_subtokens"); ok {
		search.MaxSubtokens = val
	}
	if val, ok := utils.ExtractInt(data, "top_k"); ok {
		search.TopK = val
	}
	if val, ok := utils.Extract[bool](data, "parallel"); ok {
		search.Parallel = val
	}
	if val, ok := utils.Extract[string](data, "placeholder"); ok {
		search.Placeholder = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	return utils.WriteTOML(defaultPath, DefaultConfig())
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.AbsPath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.WriteTOML(configPath, config)
}
