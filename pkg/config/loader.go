package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "classwatch.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".classwatch"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "classwatch"

// EnvPrefix prefixes every environment variable read by applyEnvironmentVariables.
const EnvPrefix = "CLASSWATCH_"

// Load loads configuration starting from dir, in order of precedence:
//  1. Built-in defaults
//  2. Global user config
//  3. Project config found in dir or its parents
//  4. Environment variables
//
// CLI flags are applied separately after Load returns.
func Load(dir string) *Config {
	cfg := NewConfig()

	if globalCfg := loadGlobalConfig(); globalCfg != nil {
		cfg.Merge(globalCfg)
	}

	if projectCfg := loadProjectConfigFrom(dir); projectCfg != nil {
		cfg.Merge(projectCfg)
	}

	applyEnvironmentVariables(cfg)

	return cfg
}

// LoadFile loads defaults, then the given file, then the environment.
// Unlike the layered search a missing or malformed file is an error,
// since the user named it explicitly.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var fileCfg Config
	if _, err := toml.Decode(string(data), &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg := NewConfig()
	cfg.Merge(&fileCfg)
	applyEnvironmentVariables(cfg)
	return cfg, nil
}

// loadGlobalConfig loads ~/.config/classwatch/config.toml.
func loadGlobalConfig() *Config {
	path := GetGlobalConfigPath()
	if path == "" {
		return nil
	}
	return loadConfigFile(path)
}

// loadProjectConfigFrom searches dir and its parents for a project config,
// stopping at the first project root.
func loadProjectConfigFrom(dir string) *Config {
	if dir == "" {
		return nil
	}

	current := dir
	for {
		for _, path := range GetProjectConfigPaths(current) {
			if cfg := loadConfigFile(path); cfg != nil {
				return cfg
			}
		}

		if isProjectRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil
}

// isProjectRoot checks for a VCS or build-tool root marker.
func isProjectRoot(dir string) bool {
	markers := []string{".git", "pom.xml", "build.gradle", "build.gradle.kts", "settings.gradle", "settings.gradle.kts"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadConfigFile loads a configuration from a TOML file, or nil when the
// file is missing or unreadable.
func loadConfigFile(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil
	}

	return &cfg
}

// applyEnvironmentVariables applies CLASSWATCH_* variables to the config.
func applyEnvironmentVariables(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "STRATEGY"); v != "" {
		cfg.Watch.Strategy = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvPrefix + "IGNORE_DIRS"); v != "" {
		cfg.Watch.IgnoreDirs = SplitAndTrim(v)
	}
	if v := os.Getenv(EnvPrefix + "LANGUAGES"); v != "" {
		cfg.Languages.Enabled = SplitAndTrim(v)
	}
	if v := os.Getenv(EnvPrefix + "VARIANT_SEPARATORS"); v != "" {
		cfg.Prune.VariantSeparators = v
	}

	applyBoolEnv(EnvPrefix+"SKIP_UNCHANGED", &cfg.Watch.SkipUnchanged)
	applyBoolEnv(EnvPrefix+"CASCADE", &cfg.Prune.Cascade)
	applyBoolEnv(EnvPrefix+"DRY_RUN", &cfg.Prune.DryRun)
}

// SplitAndTrim splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func SplitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// applyBoolEnv applies a boolean environment variable to a pointer.
func applyBoolEnv(envVar string, target **bool) {
	if v := os.Getenv(envVar); v != "" {
		v = strings.ToLower(v)
		if v == "true" || v == "1" || v == "yes" {
			t := true
			*target = &t
		} else if v == "false" || v == "0" || v == "no" {
			f := false
			*target = &f
		}
	}
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}
