package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Watch.Strategy != StrategyAuto {
		t.Errorf("default strategy should be %q, got %q", StrategyAuto, cfg.Watch.Strategy)
	}
	if cfg.SkipUnchangedEnabled() {
		t.Error("skip_unchanged should be disabled by default")
	}
	if cfg.CascadeEnabled() {
		t.Error("cascade should be disabled by default")
	}
	if cfg.DryRunEnabled() {
		t.Error("dry_run should be disabled by default")
	}
	if cfg.Prune.VariantSeparators != "$." {
		t.Errorf("variant separators should be %q, got %q", "$.", cfg.Prune.VariantSeparators)
	}
	if len(cfg.Watch.IgnoreDirs) != len(DefaultIgnoreDirs) {
		t.Errorf("ignore dirs = %v, want %v", cfg.Watch.IgnoreDirs, DefaultIgnoreDirs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestNewConfigDoesNotAliasDefaults(t *testing.T) {
	cfg := NewConfig()
	cfg.Watch.IgnoreDirs[0] = "changed"
	if DefaultIgnoreDirs[0] == "changed" {
		t.Error("NewConfig must copy DefaultIgnoreDirs")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"tree", func(c *Config) { c.Watch.Strategy = StrategyTree }, false},
		{"recursive", func(c *Config) { c.Watch.Strategy = StrategyRecursive }, false},
		{"unknown strategy", func(c *Config) { c.Watch.Strategy = "polling" }, true},
		{
			"rule without source",
			func(c *Config) {
				c.Rules = []RuleConfig{{Destinations: []string{"/out/"}, Suffixes: []string{".java"}}}
			},
			true,
		},
		{
			"rule without destinations",
			func(c *Config) {
				c.Rules = []RuleConfig{{Source: "/src/", Suffixes: []string{".java"}}}
			},
			true,
		},
		{
			"rule without suffixes",
			func(c *Config) {
				c.Rules = []RuleConfig{{Source: "/src/", Destinations: []string{"/out/"}}}
			},
			true,
		},
		{
			"complete rule",
			func(c *Config) {
				c.Rules = []RuleConfig{{Source: "/src/", Destinations: []string{"/out/"}, Suffixes: []string{".java"}}}
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := NewConfig()
	trueVal := true
	other := &Config{
		Watch: WatchConfig{
			Strategy:      StrategyTree,
			SkipUnchanged: &trueVal,
		},
		Prune: PruneConfig{
			Cascade: &trueVal,
		},
		Languages: LanguagesConfig{
			Enabled: []string{"java", "kotlin"},
		},
		Rules: []RuleConfig{{Name: "custom", Source: "/src/", Destinations: []string{"/out/"}, Suffixes: []string{".java"}}},
	}

	base.Merge(other)

	if base.Watch.Strategy != StrategyTree {
		t.Errorf("strategy should be tree after merge, got %q", base.Watch.Strategy)
	}
	if !base.SkipUnchangedEnabled() {
		t.Error("skip_unchanged should be enabled after merge")
	}
	if !base.CascadeEnabled() {
		t.Error("cascade should be enabled after merge")
	}
	if base.DryRunEnabled() {
		t.Error("dry_run should keep its default")
	}
	if base.Prune.VariantSeparators != "$." {
		t.Errorf("variant separators should keep default, got %q", base.Prune.VariantSeparators)
	}
	if len(base.Languages.Enabled) != 2 {
		t.Errorf("languages = %v, want [java kotlin]", base.Languages.Enabled)
	}
	if len(base.Rules) != 1 || base.Rules[0].Name != "custom" {
		t.Errorf("rules = %+v, want the custom rule", base.Rules)
	}
}

func TestMergeNil(t *testing.T) {
	cfg := NewConfig()
	cfg.Merge(nil)
	if cfg.Watch.Strategy != StrategyAuto {
		t.Error("Merge(nil) should not change config")
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[watch]
strategy = "recursive"
skip_unchanged = true
ignore_dirs = [".", "target"]

[prune]
cascade = true
variant_separators = "$._"

[languages]
enabled = ["java", "kotlin"]

[[rule]]
name = "main"
source = "/src/main/java/"
destinations = ["/target/classes/"]
suffixes = [".java"]
replace_suffix = ".class"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := loadConfigFile(configPath)
	if cfg == nil {
		t.Fatal("loadConfigFile returned nil")
	}

	if cfg.Watch.Strategy != StrategyRecursive {
		t.Errorf("strategy = %q, want recursive", cfg.Watch.Strategy)
	}
	if cfg.Watch.SkipUnchanged == nil || !*cfg.Watch.SkipUnchanged {
		t.Error("skip_unchanged should be true")
	}
	if cfg.Prune.Cascade == nil || !*cfg.Prune.Cascade {
		t.Error("cascade should be true")
	}
	if cfg.Prune.VariantSeparators != "$._" {
		t.Errorf("variant separators = %q", cfg.Prune.VariantSeparators)
	}
	if len(cfg.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(cfg.Rules))
	}
	r := cfg.Rules[0]
	if r.Source != "/src/main/java/" || r.ReplaceSuffix != ".class" || len(r.Destinations) != 1 {
		t.Errorf("unexpected rule: %+v", r)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	if cfg := loadConfigFile("/nonexistent/config.toml"); cfg != nil {
		t.Error("loadConfigFile should return nil for nonexistent file")
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")
	if err := os.WriteFile(configPath, []byte("[watch\nstrategy ="), 0o644); err != nil {
		t.Fatal(err)
	}

	if cfg := loadConfigFile(configPath); cfg != nil {
		t.Error("loadConfigFile should return nil for invalid TOML")
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.toml")
	if err := os.WriteFile(configPath, []byte("[prune]\ndry_run = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !cfg.DryRunEnabled() {
		t.Error("dry_run should be enabled from file")
	}
	if cfg.Watch.Strategy != StrategyAuto {
		t.Errorf("strategy should keep default, got %q", cfg.Watch.Strategy)
	}

	if _, err := LoadFile(filepath.Join(tmpDir, "missing.toml")); err == nil {
		t.Error("LoadFile should fail for a missing file")
	}
}

func TestLoadProjectConfigSearchesParents(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "pom.xml"), []byte("<project/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("[watch]\nstrategy = \"tree\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	srcDir := filepath.Join(tmpDir, "src", "main", "java")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := loadProjectConfigFrom(srcDir)
	if cfg == nil {
		t.Fatal("expected project config to be found in parent")
	}
	if cfg.Watch.Strategy != StrategyTree {
		t.Errorf("strategy = %q, want tree", cfg.Watch.Strategy)
	}
}

func TestLoadProjectConfigPrefersConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ConfigDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigDirName, "config.toml"), []byte("[watch]\nstrategy = \"recursive\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("[watch]\nstrategy = \"tree\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := loadProjectConfigFrom(tmpDir)
	if cfg == nil || cfg.Watch.Strategy != StrategyRecursive {
		t.Errorf("expected .classwatch/config.toml to win, got %+v", cfg)
	}
}

func TestIsProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	if isProjectRoot(tmpDir) {
		t.Error("empty directory should not be a project root")
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "build.gradle.kts"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !isProjectRoot(tmpDir) {
		t.Error("directory with build.gradle.kts should be a project root")
	}
}

func TestApplyEnvironmentVariables(t *testing.T) {
	t.Setenv("CLASSWATCH_STRATEGY", " Tree ")
	t.Setenv("CLASSWATCH_LANGUAGES", "java, kotlin")
	t.Setenv("CLASSWATCH_IGNORE_DIRS", "target,.")
	t.Setenv("CLASSWATCH_CASCADE", "yes")
	t.Setenv("CLASSWATCH_DRY_RUN", "1")
	t.Setenv("CLASSWATCH_SKIP_UNCHANGED", "true")
	t.Setenv("CLASSWATCH_VARIANT_SEPARATORS", "$")

	cfg := NewConfig()
	applyEnvironmentVariables(cfg)

	if cfg.Watch.Strategy != StrategyTree {
		t.Errorf("strategy = %q, want tree", cfg.Watch.Strategy)
	}
	if len(cfg.Languages.Enabled) != 2 || cfg.Languages.Enabled[1] != "kotlin" {
		t.Errorf("languages = %v", cfg.Languages.Enabled)
	}
	if len(cfg.Watch.IgnoreDirs) != 2 {
		t.Errorf("ignore dirs = %v", cfg.Watch.IgnoreDirs)
	}
	if !cfg.CascadeEnabled() || !cfg.DryRunEnabled() || !cfg.SkipUnchangedEnabled() {
		t.Error("boolean env vars should be applied")
	}
	if cfg.Prune.VariantSeparators != "$" {
		t.Errorf("variant separators = %q", cfg.Prune.VariantSeparators)
	}
}

func TestApplyBoolEnv(t *testing.T) {
	tests := []struct {
		value    string
		expected *bool
	}{
		{"true", boolPtr(true)},
		{"TRUE", boolPtr(true)},
		{"1", boolPtr(true)},
		{"yes", boolPtr(true)},
		{"false", boolPtr(false)},
		{"0", boolPtr(false)},
		{"no", boolPtr(false)},
		{"invalid", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)

			var target *bool
			applyBoolEnv("TEST_BOOL", &target)

			if tt.expected == nil {
				if target != nil {
					t.Errorf("expected nil, got %v", *target)
				}
			} else {
				if target == nil {
					t.Errorf("expected %v, got nil", *tt.expected)
				} else if *target != *tt.expected {
					t.Errorf("expected %v, got %v", *tt.expected, *target)
				}
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"java,kotlin", []string{"java", "kotlin"}},
		{" java , kotlin ", []string{"java", "kotlin"}},
		{"java,,kotlin", []string{"java", "kotlin"}},
		{"", []string{}},
		{"java", []string{"java"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := SplitAndTrim(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, result)
					return
				}
			}
		})
	}
}

func TestGetProjectConfigPaths(t *testing.T) {
	paths := GetProjectConfigPaths("/proj")
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if paths[0] != filepath.Join("/proj", ".classwatch", "config.toml") {
		t.Errorf("paths[0] = %q", paths[0])
	}
	if paths[1] != filepath.Join("/proj", "classwatch.toml") {
		t.Errorf("paths[1] = %q", paths[1])
	}
}

func boolPtr(b bool) *bool {
	return &b
}
