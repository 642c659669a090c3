// Package reverse provides the reverse command: ADF JSON in, AsciiDoc
// source out.
package reverse

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adrpar/asciidoctor-confluence-adf/internal/config"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/adf"
)

type reverseOptions struct {
	out         string
	jiraBaseURL string
	title       string
}

// NewCmdReverse creates the reverse command.
func NewCmdReverse() *cobra.Command {
	opts := &reverseOptions{}

	cmd := &cobra.Command{
		Use:   "reverse <file.json>",
		Short: "Convert an ADF JSON document back to AsciiDoc",
		Long: `Convert an Atlassian Document Format JSON file to AsciiDoc source.

Links into the configured Jira instance collapse to jira:KEY[] macros,
and jira-jql-snapshot extensions become jiraIssuesTable:: macros.`,
		Example: `  # Convert to stdout
  adf reverse page.json

  # Write to a file with a document title
  adf reverse page.json -o page.adoc --title "Release Notes"`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runReverse(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.jiraBaseURL, "jira-base-url", "", "Jira base URL for collapsing issue links")
	cmd.Flags().StringVar(&opts.title, "title", "", "document title to emit as the header")

	return cmd
}

func runReverse(input string, opts *reverseOptions) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}
	doc, err := adf.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("failed to parse ADF document: %w", err)
	}

	jiraBaseURL := opts.jiraBaseURL
	if jiraBaseURL == "" {
		if cfg, err := config.LoadWithEnv(config.DefaultConfigPath()); err == nil {
			jiraBaseURL = cfg.JiraBaseURL()
		}
	}

	rc := adf.NewReverseConverter(adf.ReverseOptions{JiraBaseURL: jiraBaseURL})
	source := rc.Convert(doc)
	if opts.title != "" {
		source = "= " + opts.title + "\n\n" + source
	}

	if opts.out == "" {
		fmt.Print(source)
		return nil
	}
	if err := os.WriteFile(opts.out, []byte(source), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}
	return nil
}
