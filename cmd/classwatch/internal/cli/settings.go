package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/detect"
	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/langs"
	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/prune"
	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/translate"
	"github.com/albertocavalcante/classwatch/internal/log"
	"github.com/albertocavalcante/classwatch/pkg/config"
	"github.com/albertocavalcante/classwatch/pkg/jvm"
)

// loadConfig resolves the effective configuration for dir: an explicit
// --config file, or the layered search, then flags the user actually set.
func loadConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	var cfg *config.Config
	if globalFlags.configFile != "" {
		loaded, err := config.LoadFile(globalFlags.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Load(dir)
	}

	flags := cmd.Flags()
	if flags.Changed("languages") {
		cfg.Languages.Enabled = config.SplitAndTrim(globalFlags.languages)
	}
	if flags.Changed("strategy") {
		s, _ := flags.GetString("strategy")
		cfg.Watch.Strategy = s
	}
	if flags.Changed("skip-unchanged") {
		v, _ := flags.GetBool("skip-unchanged")
		cfg.Watch.SkipUnchanged = &v
	}
	if flags.Changed("cascade") {
		v, _ := flags.GetBool("cascade")
		cfg.Prune.Cascade = &v
	}
	if flags.Changed("dry-run") {
		v, _ := flags.GetBool("dry-run")
		cfg.Prune.DryRun = &v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildRules returns the configured rules, or rules generated for the
// enabled languages. With no languages configured they are detected under
// root; an empty root (one-shot commands) enables every language.
func buildRules(cfg *config.Config, root string) (translate.Rules, error) {
	if len(cfg.Rules) > 0 {
		rules := make(translate.Rules, len(cfg.Rules))
		for i, rc := range cfg.Rules {
			name := rc.Name
			if name == "" {
				name = fmt.Sprintf("rule%d", i+1)
			}
			rules[i] = translate.Rule{
				Name:          name,
				SourceMarker:  rc.Source,
				Destinations:  rc.Destinations,
				Suffixes:      rc.Suffixes,
				ReplaceSuffix: rc.ReplaceSuffix,
			}
		}
		return rules, nil
	}

	enabled, err := langs.Parse(cfg.Languages.Enabled)
	if err != nil {
		return nil, err
	}

	if len(enabled) == 0 {
		if root == "" {
			enabled = jvm.AllLanguages()
		} else {
			detected, err := detect.Languages(root, cfg.Watch.IgnoreDirs)
			if err != nil {
				log.Component("cli").Warn("language detection failed, using java", "error", err)
			}
			enabled = detected
		}
	}
	if len(enabled) == 0 {
		log.Component("cli").Debug("no JVM sources found, using java rules", "root", root)
	}

	return translate.DefaultRules(enabled...), nil
}

func pruneOptions(cfg *config.Config) prune.Options {
	return prune.Options{
		VariantSeparators: cfg.Prune.VariantSeparators,
		Cascade:           cfg.CascadeEnabled(),
		DryRun:            cfg.DryRunEnabled(),
	}
}
