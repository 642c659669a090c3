package completion

import (
	"github.com/spf13/cobra"
)

// NewCmdFish creates the fish completion command.
func NewCmdFish() *cobra.Command {
	return &cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		Long: `Generate fish completion script for adf.

To load completions in your current shell session:

  adf completion fish | source

To load completions for every new session:

  adf completion fish > ~/.config/fish/completions/adf.fish`,
		Example: `  # Load in current session
  adf completion fish | source

  # Install permanently
  adf completion fish > ~/.config/fish/completions/adf.fish`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	}
}
