// Package config provides configuration management for classwatch.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/classwatch/config.toml)
//  3. Project config (.classwatch/config.toml or classwatch.toml)
//  4. Environment variables (CLASSWATCH_*)
//  5. CLI flags (highest priority)
package config

import (
	"fmt"
	"slices"
)

// Strategy names accepted by watch.strategy.
const (
	StrategyAuto      = "auto"
	StrategyTree      = "tree"
	StrategyRecursive = "recursive"
)

// Config is the main configuration struct for classwatch.
type Config struct {
	// Watch configures directory registration and event handling.
	Watch WatchConfig `toml:"watch"`

	// Prune configures artifact deletion.
	Prune PruneConfig `toml:"prune"`

	// Languages selects which JVM languages get generated rules.
	Languages LanguagesConfig `toml:"languages"`

	// Rules replaces the generated rules when non-empty.
	Rules []RuleConfig `toml:"rule"`
}

// WatchConfig holds watcher settings.
type WatchConfig struct {
	// Strategy is "auto", "tree" or "recursive".
	Strategy string `toml:"strategy"`

	// SkipUnchanged suppresses cleanup for writes that leave content unchanged.
	SkipUnchanged *bool `toml:"skip_unchanged"`

	// IgnoreDirs lists directory names that are never watched.
	// A "." entry ignores every hidden directory.
	IgnoreDirs []string `toml:"ignore_dirs"`
}

// PruneConfig holds artifact deletion settings.
type PruneConfig struct {
	// Cascade removes empty parents up to the output root.
	Cascade *bool `toml:"cascade"`

	// DryRun logs deletions without performing them.
	DryRun *bool `toml:"dry_run"`

	// VariantSeparators are the characters that may follow a base name in a
	// generated variant (C$1.class, C.class).
	VariantSeparators string `toml:"variant_separators"`
}

// LanguagesConfig specifies which languages to generate rules for.
type LanguagesConfig struct {
	// Enabled lists languages; empty means detect from the watched tree.
	Enabled []string `toml:"enabled"`
}

// RuleConfig is a user-defined path mapping rule.
type RuleConfig struct {
	Name          string   `toml:"name"`
	Source        string   `toml:"source"`
	Destinations  []string `toml:"destinations"`
	Suffixes      []string `toml:"suffixes"`
	ReplaceSuffix string   `toml:"replace_suffix"`
}

// DefaultIgnoreDirs are directory names skipped while registering watches.
var DefaultIgnoreDirs = []string{
	".",            // hidden directories
	"target",       // Maven output
	"build",        // Gradle output
	"out",          // IDE output
	"node_modules", // frontend tooling
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	falseVal := false
	return &Config{
		Watch: WatchConfig{
			Strategy:      StrategyAuto,
			SkipUnchanged: &falseVal,
			IgnoreDirs:    slices.Clone(DefaultIgnoreDirs),
		},
		Prune: PruneConfig{
			Cascade:           &falseVal,
			DryRun:            &falseVal,
			VariantSeparators: "$.",
		},
	}
}

// Validate reports configuration errors that would otherwise surface late.
func (c *Config) Validate() error {
	switch c.Watch.Strategy {
	case StrategyAuto, StrategyTree, StrategyRecursive:
	default:
		return fmt.Errorf("unknown watch strategy %q (want auto, tree or recursive)", c.Watch.Strategy)
	}
	for i, r := range c.Rules {
		if r.Source == "" {
			return fmt.Errorf("rule %d: source marker is required", i)
		}
		if len(r.Destinations) == 0 {
			return fmt.Errorf("rule %d (%s): at least one destination is required", i, r.Source)
		}
		if len(r.Suffixes) == 0 {
			return fmt.Errorf("rule %d (%s): at least one suffix is required", i, r.Source)
		}
	}
	return nil
}

// SkipUnchangedEnabled reports the effective skip_unchanged setting.
func (c *Config) SkipUnchangedEnabled() bool {
	return c.Watch.SkipUnchanged != nil && *c.Watch.SkipUnchanged
}

// CascadeEnabled reports the effective cascade setting.
func (c *Config) CascadeEnabled() bool {
	return c.Prune.Cascade != nil && *c.Prune.Cascade
}

// DryRunEnabled reports the effective dry_run setting.
func (c *Config) DryRunEnabled() bool {
	return c.Prune.DryRun != nil && *c.Prune.DryRun
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Watch.Strategy != "" {
		c.Watch.Strategy = other.Watch.Strategy
	}
	if other.Watch.SkipUnchanged != nil {
		c.Watch.SkipUnchanged = other.Watch.SkipUnchanged
	}
	if len(other.Watch.IgnoreDirs) > 0 {
		c.Watch.IgnoreDirs = other.Watch.IgnoreDirs
	}

	if other.Prune.Cascade != nil {
		c.Prune.Cascade = other.Prune.Cascade
	}
	if other.Prune.DryRun != nil {
		c.Prune.DryRun = other.Prune.DryRun
	}
	if other.Prune.VariantSeparators != "" {
		c.Prune.VariantSeparators = other.Prune.VariantSeparators
	}

	if len(other.Languages.Enabled) > 0 {
		c.Languages.Enabled = other.Languages.Enabled
	}

	// Rules are replaced as a whole; merging individual rules would make the
	// effective order hard to reason about.
	if len(other.Rules) > 0 {
		c.Rules = other.Rules
	}
}
