package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/translate"
	"github.com/albertocavalcante/classwatch/pkg/config"
)

var mapCmd = &cobra.Command{
	Use:   "map <file>...",
	Short: "Print the artifact paths derived from source files",
	Long: `Prints, for each source path, the candidate artifact paths that a
change to it would clean up. Each candidate is a base path: every file
next to it named after it, or after it followed by '$' or '.', is an
artifact. Nothing is deleted.

Output is one tab-separated "source<TAB>candidate" line per candidate.
Sources outside every source root produce no output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	_, rules, err := oneShotRules(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path %s: %w", arg, err)
		}
		for _, c := range rules.Translate(path) {
			_, _ = fmt.Fprintf(out, "%s\t%s\n", path, c.Path)
		}
	}
	return nil
}

// oneShotRules loads configuration from the working directory. Without
// configured languages every JVM language gets rules, since there is no
// watched tree to detect them from.
func oneShotRules(cmd *cobra.Command) (*config.Config, translate.Rules, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	cfg, err := loadConfig(cmd, wd)
	if err != nil {
		return nil, nil, err
	}
	rules, err := buildRules(cfg, "")
	if err != nil {
		return nil, nil, err
	}
	return cfg, rules, nil
}
