// Package attachments provides the attachments listing command.
package attachments

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adrpar/asciidoctor-confluence-adf/api"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/config"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/view"
)

type listOptions struct {
	pageID  string
	unused  bool
	output  string
	noColor bool
}

// NewCmdAttachments creates the attachments command.
func NewCmdAttachments() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "attachments",
		Short: "List attachments on a page",
		Long:  `List all attachments on a Confluence page.`,
		Example: `  # List attachments on a page
  adf attachments --page 12345

  # List unused attachments not referenced in page content
  adf attachments --page 12345 --unused

  # Machine-readable output
  adf attachments --page 12345 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runList(opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.pageID, "page", "p", "", "Page ID (required)")
	cmd.Flags().BoolVar(&opts.unused, "unused", false, "Show only attachments not referenced in page content")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json, plain)")

	_ = cmd.MarkFlagRequired("page")

	return cmd
}

func runList(opts *listOptions, client *api.Confluence) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}

	// Create API client if not provided (allows injection for testing)
	if client == nil {
		cfg, err := config.LoadWithEnv(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w (run 'adf init' to configure)", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w (run 'adf init' to configure)", err)
		}
		cfg.NormalizeURL()
		client = api.NewConfluence(cfg.URL, cfg.Email, cfg.APIToken)
	}

	ctx := context.Background()
	attachments, err := listAll(ctx, client, opts.pageID)
	if err != nil {
		return fmt.Errorf("failed to list attachments: %w", err)
	}

	if opts.unused {
		page, err := client.GetPage(ctx, opts.pageID, "storage")
		if err != nil {
			return fmt.Errorf("failed to get page content: %w", err)
		}
		pageContent := ""
		if page.Body != nil && page.Body.Storage != nil {
			pageContent = page.Body.Storage.Value
		}
		attachments = filterUnused(attachments, pageContent)
	}

	if len(attachments) == 0 && opts.output != "json" {
		if opts.unused {
			fmt.Println("No unused attachments found.")
		} else {
			fmt.Println("No attachments found.")
		}
		return nil
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	headers := []string{"ID", "Title", "Media Type", "File Size"}
	var rows [][]string
	for _, att := range attachments {
		rows = append(rows, []string{att.ID, att.Title, att.MediaType, formatFileSize(att.FileSize)})
	}
	renderer.RenderTable(headers, rows)

	return nil
}

// listAll walks the attachment pagination to the end.
func listAll(ctx context.Context, client *api.Confluence, pageID string) ([]api.Attachment, error) {
	var out []api.Attachment
	cursor := ""
	for {
		result, err := client.ListAttachments(ctx, pageID, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, result.Results...)
		if !result.HasMore() {
			return out, nil
		}
		cursor = nextCursor(result.Links.Next)
		if cursor == "" {
			return out, nil
		}
	}
}

var cursorPattern = regexp.MustCompile(`[?&]cursor=([^&]+)`)

func nextCursor(next string) string {
	if m := cursorPattern.FindStringSubmatch(next); m != nil {
		return m[1]
	}
	return ""
}

// filterUnused returns attachments that are not referenced in the page
// content.
//
// Confluence references attachments in storage format as
// <ri:attachment ri:filename="example.png"/>, and the filename may also
// appear in href attributes, URL-encoded.
func filterUnused(attachments []api.Attachment, pageContent string) []api.Attachment {
	var unused []api.Attachment
	for _, att := range attachments {
		if !isReferenced(att.Title, pageContent) {
			unused = append(unused, att)
		}
	}
	return unused
}

func isReferenced(filename, content string) bool {
	if strings.Contains(content, fmt.Sprintf(`ri:filename="%s"`, filename)) {
		return true
	}

	encodedFilename := strings.ReplaceAll(filename, " ", "%20")
	if strings.Contains(content, encodedFilename) {
		return true
	}

	return strings.Contains(content, filename)
}

func formatFileSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
