// Package root provides the root command for the adf CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/attachments"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/completion"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/configcmd"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/convert"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/download"
	initcmd "github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/init"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/reverse"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/upload"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/version"
)

// NewCmdRoot creates the root command for adf.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adf",
		Short: "Convert AsciiDoc documents to Atlassian Document Format",
		Long: `adf converts AsciiDoc (and Markdown) documents to Atlassian Document
Format and back, and publishes them to Confluence Cloud pages with
their image attachments.

Get started by running: adf init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/adf/config.yml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	// Set version template
	cmd.SetVersionTemplate("adf version {{.Version}} (commit: " + version.Commit + ", built: " + version.Date + ")\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(convert.NewCmdConvert())
	cmd.AddCommand(reverse.NewCmdReverse())
	cmd.AddCommand(upload.NewCmdUpload())
	cmd.AddCommand(download.NewCmdDownload())
	cmd.AddCommand(attachments.NewCmdAttachments())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
