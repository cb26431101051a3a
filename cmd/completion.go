package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Print a shell completion script",
	Long: `Print a completion script for spapatch to stdout.

Load it into the current shell, or save it where your shell picks up
completions on startup:

  bash        source <(spapatch completion bash)
              spapatch completion bash > ~/.local/share/bash-completion/completions/spapatch
  zsh         spapatch completion zsh > "${fpath[1]}/_spapatch"
  fish        spapatch completion fish > ~/.config/fish/completions/spapatch.fish
  powershell  spapatch completion powershell >> $PROFILE

zsh needs compinit enabled; open a new shell afterwards.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(out)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

