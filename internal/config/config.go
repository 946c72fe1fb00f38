package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/safeclean/pkg/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to environment overrides, e.g. SAFECLEAN_SCAN_DRY_RUN.
const EnvPrefix = "SAFECLEAN"

// Config represents the application configuration file
type Config struct {
	Scan   ScanConfig   `yaml:"scan" mapstructure:"scan"`
	Safety SafetyConfig `yaml:"safety" mapstructure:"safety"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ScanConfig holds the persisted defaults for ScanSettings
type ScanConfig struct {
	LargeFileThreshold   string   `yaml:"large_file_threshold" mapstructure:"large_file_threshold"` // e.g. "1GiB"
	OldDownloadAgeDays   int      `yaml:"old_download_age_days" mapstructure:"old_download_age_days"`
	OldCacheAgeDays      int      `yaml:"old_cache_age_days" mapstructure:"old_cache_age_days"`
	MaxResults           int      `yaml:"max_results" mapstructure:"max_results"`
	IncludeHidden        bool     `yaml:"include_hidden" mapstructure:"include_hidden"`
	FollowSymlinks       bool     `yaml:"follow_symlinks" mapstructure:"follow_symlinks"`
	DryRun               bool     `yaml:"dry_run" mapstructure:"dry_run"`
	AllowPersonalFolders bool     `yaml:"allow_personal_folders" mapstructure:"allow_personal_folders"`
	Categories           []string `yaml:"categories" mapstructure:"categories"`
	ExtraRoots           []string `yaml:"extra_roots" mapstructure:"extra_roots"`
}

// SafetyConfig extends the built-in rule tables. Entries can only add
// protection; the built-in tables cannot be relaxed from the config file.
type SafetyConfig struct {
	BlockedPaths  []string `yaml:"blocked_paths" mapstructure:"blocked_paths"`
	PersonalPaths []string `yaml:"personal_paths" mapstructure:"personal_paths"`
}

// LogConfig controls the operational log
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
	File  string `yaml:"file" mapstructure:"file"`   // empty means the default location
}

// Load loads configuration from a file, layering SAFECLEAN_* environment
// variables on top. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, GetDefault())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("scan.large_file_threshold", d.Scan.LargeFileThreshold)
	v.SetDefault("scan.old_download_age_days", d.Scan.OldDownloadAgeDays)
	v.SetDefault("scan.old_cache_age_days", d.Scan.OldCacheAgeDays)
	v.SetDefault("scan.max_results", d.Scan.MaxResults)
	v.SetDefault("scan.include_hidden", d.Scan.IncludeHidden)
	v.SetDefault("scan.follow_symlinks", d.Scan.FollowSymlinks)
	v.SetDefault("scan.dry_run", d.Scan.DryRun)
	v.SetDefault("scan.allow_personal_folders", d.Scan.AllowPersonalFolders)
	v.SetDefault("scan.categories", d.Scan.Categories)
	v.SetDefault("scan.extra_roots", d.Scan.ExtraRoots)
	v.SetDefault("safety.blocked_paths", d.Safety.BlockedPaths)
	v.SetDefault("safety.personal_paths", d.Safety.PersonalPaths)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.Settings(); err != nil {
		return err
	}

	for _, path := range c.Safety.BlockedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("blocked path must be absolute: %s", path)
		}
	}
	for _, path := range c.Safety.PersonalPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("personal path must be absolute: %s", path)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}

	return nil
}

// Settings converts the scan section into validated ScanSettings.
func (c *Config) Settings() (Settings, error) {
	s := Settings{
		OldDownloadAgeDays:   c.Scan.OldDownloadAgeDays,
		OldCacheAgeDays:      c.Scan.OldCacheAgeDays,
		MaxResults:           c.Scan.MaxResults,
		IncludeHidden:        c.Scan.IncludeHidden,
		FollowSymlinks:       c.Scan.FollowSymlinks,
		DryRun:               c.Scan.DryRun,
		AllowPersonalFolders: c.Scan.AllowPersonalFolders,
		ExtraRoots:           expandHome(c.Scan.ExtraRoots),
	}

	threshold, err := utils.ParseSize(c.Scan.LargeFileThreshold)
	if err != nil {
		return Settings{}, &ValidationError{Field: "large_file_threshold", Message: err.Error()}
	}
	s.LargeFileThreshold = threshold

	if len(c.Scan.Categories) == 0 {
		s.Categories = AllCategorySet()
	} else {
		set, err := ParseCategorySet(strings.Join(c.Scan.Categories, ","))
		if err != nil {
			return Settings{}, &ValidationError{Field: "categories", Message: err.Error()}
		}
		s.Categories = set
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// BlockedPaths returns the user's extra blocked paths with ~ expanded.
func (c *Config) BlockedPaths() []string { return expandHome(c.Safety.BlockedPaths) }

// PersonalPaths returns the user's extra personal paths with ~ expanded.
func (c *Config) PersonalPaths() []string { return expandHome(c.Safety.PersonalPaths) }

func expandHome(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	home, _ := os.UserHomeDir()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if home != "" && (p == "~" || strings.HasPrefix(p, "~/")) {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
		out = append(out, p)
	}
	return out
}

// GetConfigDir returns ~/.config/safeclean
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "safeclean"), nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// GetLogPath returns the default operational log path
func GetLogPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "app.log"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
