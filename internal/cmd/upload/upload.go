// Package upload provides the upload command: convert a document and
// publish it to a Confluence page with its image attachments.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adrpar/asciidoctor-confluence-adf/api"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/cmd/convert"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/config"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/logger"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/adf"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/asciidoc"
)

type uploadOptions struct {
	spaceID  string
	pageID   string
	parentID string
	title    string
	attrs    []string
	maxWidth int
	verbose  bool
	noColor  bool
}

// NewCmdUpload creates the upload command.
func NewCmdUpload() *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload <file.adoc>",
		Short: "Convert a document and publish it to Confluence",
		Long: `Convert an AsciiDoc document to ADF and publish it as a Confluence
page.

Without --page-id a new page is created as a draft, the document's
images upload as attachments, media references rewrite to the uploaded
file ids and the page publishes with the converted body. With --page-id
the existing page updates in place.`,
		Example: `  # Create a new page in a space
  adf upload doc.adoc --space-id 123456

  # Update an existing page
  adf upload doc.adoc --page-id 98765

  # Create under a parent, clamping image widths
  adf upload doc.adoc --space-id 123456 --parent 555 --max-width 600`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.verbose, _ = cmd.Flags().GetBool("verbose")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runUpload(args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.spaceID, "space-id", "", "space id for new pages")
	cmd.Flags().StringVar(&opts.pageID, "page-id", "", "existing page to update")
	cmd.Flags().StringVar(&opts.parentID, "parent", "", "parent page id for new pages")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "page title (default: the document title)")
	cmd.Flags().StringArrayVarP(&opts.attrs, "attr", "a", nil, "document attribute (key=value, repeatable)")
	cmd.Flags().IntVar(&opts.maxWidth, "max-width", 0, "clamp image widths to this many pixels")

	return cmd
}

func runUpload(input string, opts *uploadOptions) error {
	cfg, err := config.LoadWithEnv(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w (run 'adf init' to configure)", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w (run 'adf init' to configure)", err)
	}
	cfg.NormalizeURL()

	logLevel := log.InfoLevel
	if opts.verbose {
		logLevel = log.DebugLevel
	}
	lg := logger.NewWithLevel(os.Stderr, logLevel)

	attrs := make(map[string]string)
	for _, f := range opts.attrs {
		if eq := strings.IndexByte(f, '='); eq > 0 {
			attrs[f[:eq]] = f[eq+1:]
		} else {
			attrs[f] = ""
		}
	}

	lg.ConversionStarted(input)
	doc, parsed, err := convert.BuildDocument(input, convert.BuildOptions{
		Attributes: attrs,
		Logger:     lg,
	})
	if err != nil {
		return err
	}

	title := opts.title
	if title == "" && parsed != nil {
		title = parsed.Title
	}
	if title == "" {
		return fmt.Errorf("page title is required: set a document title or pass --title")
	}

	client := api.NewConfluence(cfg.URL, cfg.Email, cfg.APIToken)
	ctx := context.Background()

	var page *api.Page
	draft := false
	if opts.pageID != "" {
		page, err = client.GetPage(ctx, opts.pageID, "")
		if err != nil {
			return fmt.Errorf("failed to fetch page %s: %w", opts.pageID, err)
		}
	} else {
		spaceID := opts.spaceID
		if spaceID == "" {
			spaceID = cfg.SpaceID
		}
		if spaceID == "" {
			return fmt.Errorf("space id is required: use --space-id or set space_id in config")
		}
		page, err = client.CreateDraftPage(ctx, spaceID, title)
		if err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
		draft = true
	}

	images, err := asciidoc.CollectImages(input)
	if err != nil {
		return fmt.Errorf("failed to collect images: %w", err)
	}
	fileIDs, err := uploadImages(ctx, client, lg, page.ID, images, draft)
	if err != nil {
		return err
	}

	doc = adf.UpdateMediaIDs(doc, fileIDs)
	if opts.maxWidth > 0 {
		doc = adf.ClampImageWidths(doc, opts.maxWidth)
	}

	body, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode ADF document: %w", err)
	}
	page.Title = title
	var updated *api.Page
	if draft {
		updated, err = client.PublishDraft(ctx, page, string(body))
	} else {
		updated, err = client.UpdatePage(ctx, page, string(body))
	}
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	lg.PageUploaded(updated.ID, updated.Title)

	success := color.New(color.FgGreen, color.Bold)
	if opts.noColor {
		success.DisableColor()
	}
	success.Printf("Uploaded %s\n", updated.Title)
	fmt.Printf("%s/pages/viewpage.action?pageId=%s\n", cfg.URL, updated.ID)
	return nil
}

// uploadImages pushes each collected image and maps its base filename
// to the Confluence file id.
func uploadImages(ctx context.Context, client *api.Confluence, lg *logger.Logger, pageID string, images []string, draft bool) (map[string]string, error) {
	fileIDs := make(map[string]string, len(images))
	for _, path := range images {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image %s: %w", path, err)
		}
		name := filepath.Base(path)
		fileID, err := client.UploadAttachment(ctx, pageID, name, f, draft)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", name, err)
		}
		fileIDs[name] = fileID
		lg.AttachmentUploaded(pageID, name, fileID)
	}
	return fileIDs, nil
}
