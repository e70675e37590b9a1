package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/qarchsearch/pkg/device"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for qarchsearch on stdout.

  bash:        source <(qarchsearch completion bash)
  zsh:         qarchsearch completion zsh > "${fpath[1]}/_qarchsearch"
  fish:        qarchsearch completion fish | source
  powershell:  qarchsearch completion powershell | Out-String | Invoke-Expression

Device names for --device complete from the built-in list.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
}

// completeDevices offers built-in device names and TOML files.
func completeDevices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return device.Builtins(), cobra.ShellCompDirectiveDefault
}
