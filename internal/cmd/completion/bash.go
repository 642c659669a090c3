package completion

import (
	"github.com/spf13/cobra"
)

// NewCmdBash creates the bash completion command.
func NewCmdBash() *cobra.Command {
	return &cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		Long: `Generate bash completion script for adf.

To load completions in your current shell session:

  source <(adf completion bash)

To load completions for every new session:

  # Linux
  adf completion bash > /etc/bash_completion.d/adf

  # macOS (requires bash-completion)
  adf completion bash > $(brew --prefix)/etc/bash_completion.d/adf`,
		Example: `  # Load in current session
  source <(adf completion bash)

  # Install permanently (Linux)
  adf completion bash | sudo tee /etc/bash_completion.d/adf > /dev/null

  # Install permanently (macOS with Homebrew)
  adf completion bash > $(brew --prefix)/etc/bash_completion.d/adf`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	}
}
