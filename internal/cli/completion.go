package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillbreak/kiticon/pkg/symbols"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for kiticon.

Flag values such as --fill, --quality and --symbol complete too.`,
		Example: `  # Bash, current session
  source <(kiticon completion bash)

  # Zsh, every session
  kiticon completion zsh > "${fpath[1]}/_kiticon"

  # Fish
  kiticon completion fish > ~/.config/fish/completions/kiticon.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}

	return cmd
}

// completeSymbolFlag completes --symbol on cmd from the configured catalog.
func (c *CLI) completeSymbolFlag(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("symbol", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, _, err := c.loadConfig()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		catalog, err := loadCatalog(cfg)
		if err != nil || catalog == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return matchingSymbols(catalog, toComplete), cobra.ShellCompDirectiveNoFileComp
	})
}

// matchingSymbols returns the catalog names starting with prefix, oldest
// release first.
func matchingSymbols(catalog *symbols.Catalog, prefix string) []string {
	var out []string
	for _, name := range symbols.Names(catalog.GroupByYear()) {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
