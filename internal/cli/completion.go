package cli

import (
	"io"
	"sort"

	"github.com/spf13/cobra"
)

// completionGenerators writes the completion script for each supported shell.
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletion(w) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

func completionShells() []string {
	shells := make([]string, 0, len(completionGenerators))
	for name := range completionGenerators {
		shells = append(shells, name)
	}
	sort.Strings(shells)
	return shells
}

// completionCommand prints a tab-completion script for the named shell.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Print a shell completion script",
		Long: `Print a tab-completion script for lovecontract to stdout.

Completion covers subcommands, flags and slot names, so
"lovecontract sign <TAB>" offers the two signer slots.

Try it in the current shell:
  bash  source <(lovecontract completion bash)
  zsh   source <(lovecontract completion zsh)
  fish  lovecontract completion fish | source

Keep it across shells by writing the script where your shell looks:
  bash  lovecontract completion bash > ~/.local/share/bash-completion/completions/lovecontract
  zsh   lovecontract completion zsh > "${fpath[1]}/_lovecontract"   (needs compinit)
  fish  lovecontract completion fish > ~/.config/fish/completions/lovecontract.fish
  pwsh  lovecontract completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells(),
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
