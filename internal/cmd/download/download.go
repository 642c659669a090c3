// Package download provides the download command: fetch a Confluence
// page and reconstruct AsciiDoc source from its ADF body.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adrpar/asciidoctor-confluence-adf/api"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/config"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/logger"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/adf"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/markdown"
)

type downloadOptions struct {
	dir      string
	depth    int
	noAttach bool
	verbose  bool
	noColor  bool
}

// NewCmdDownload creates the download command.
func NewCmdDownload() *cobra.Command {
	opts := &downloadOptions{}

	cmd := &cobra.Command{
		Use:   "download <page-id>",
		Short: "Download a Confluence page as AsciiDoc",
		Long: `Download a Confluence page and convert its ADF body back to AsciiDoc
source. Attachments land next to the document and media references
point at their filenames.

Pages that only expose a storage-format (XHTML) body fall back to a
Markdown rendition. With --depth, child pages download recursively
into a directory named after the parent.`,
		Example: `  # Download one page into the current directory
  adf download 98765

  # Download a page tree two levels deep
  adf download 98765 --dir docs --depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.verbose, _ = cmd.Flags().GetBool("verbose")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runDownload(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "d", ".", "output directory")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "levels of child pages to download")
	cmd.Flags().BoolVar(&opts.noAttach, "no-attachments", false, "skip downloading attachments")

	return cmd
}

func runDownload(pageID string, opts *downloadOptions) error {
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
	d := &downloader{
		client:      api.NewConfluence(cfg.URL, cfg.Email, cfg.APIToken),
		logger:      logger.NewWithLevel(os.Stderr, logLevel),
		jiraBaseURL: cfg.JiraBaseURL(),
		noAttach:    opts.noAttach,
		noColor:     opts.noColor,
	}
	_, err = d.download(context.Background(), pageID, opts.dir, opts.depth)
	return err
}

type downloader struct {
	client      *api.Confluence
	logger      *logger.Logger
	jiraBaseURL string
	noAttach    bool
	noColor     bool
}

func (d *downloader) download(ctx context.Context, pageID, dir string, depth int) (string, error) {
	page, err := d.client.GetPage(ctx, pageID, "atlas_doc_format")
	if err != nil {
		return "", fmt.Errorf("failed to fetch page %s: %w", pageID, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	attachments, err := d.collectAttachments(ctx, pageID)
	if err != nil {
		return "", err
	}
	fileIDToName := make(map[string]string, len(attachments))
	for _, att := range attachments {
		if att.FileID != "" {
			fileIDToName[att.FileID] = att.Title
		}
	}

	outPath, err := d.writeBody(page, dir, fileIDToName)
	if err != nil {
		return "", err
	}
	if !d.noAttach {
		if err := d.downloadAttachments(ctx, attachments, dir); err != nil {
			return "", err
		}
	}
	d.logger.PageDownloaded(page.ID, page.Title, outPath)

	success := color.New(color.FgGreen)
	if d.noColor {
		success.DisableColor()
	}
	success.Printf("Downloaded %s -> %s\n", page.Title, outPath)

	if depth > 0 {
		children, err := d.client.GetChildPages(ctx, pageID)
		if err != nil {
			return "", fmt.Errorf("failed to list children of %s: %w", pageID, err)
		}
		childDir := filepath.Join(dir, sanitizeFilename(page.Title))
		var links []childLink
		for _, child := range children {
			childPath, err := d.download(ctx, child.ID, childDir, depth-1)
			if err != nil {
				return "", err
			}
			rel, err := filepath.Rel(dir, childPath)
			if err != nil {
				rel = childPath
			}
			links = append(links, childLink{path: rel, title: child.Title})
		}
		if err := appendChildLinks(outPath, links); err != nil {
			return "", err
		}
	}
	return outPath, nil
}

type childLink struct {
	path  string
	title string
}

// appendChildLinks adds a cross-reference list for downloaded child pages
// to the end of the parent document.
func appendChildLinks(outPath string, links []childLink) error {
	if len(links) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("\n")
	for _, l := range links {
		if strings.HasSuffix(outPath, ".md") {
			fmt.Fprintf(&sb, "- [%s](%s)\n", l.title, l.path)
		} else {
			fmt.Fprintf(&sb, "* xref:%s[%s]\n", l.path, l.title)
		}
	}
	f, err := os.OpenFile(outPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to append child links to %s: %w", outPath, err)
	}
	_, err = f.WriteString(sb.String())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to append child links to %s: %w", outPath, err)
	}
	return nil
}

// writeBody renders the page body to disk and returns the output path.
// ADF bodies become AsciiDoc; storage-only bodies degrade to Markdown.
func (d *downloader) writeBody(page *api.Page, dir string, fileIDToName map[string]string) (string, error) {
	base := sanitizeFilename(page.Title)

	if page.Body != nil && page.Body.AtlasDocFormat != nil && page.Body.AtlasDocFormat.Value != "" {
		doc, err := adf.Unmarshal([]byte(page.Body.AtlasDocFormat.Value))
		if err != nil {
			return "", fmt.Errorf("failed to parse ADF body of %s: %w", page.ID, err)
		}
		rc := adf.NewReverseConverter(adf.ReverseOptions{
			FileIDToFilename: fileIDToName,
			JiraBaseURL:      d.jiraBaseURL,
			Logger:           d.logger,
		})
		// Attachments land next to the document.
		source := "= " + page.Title + "\n:imagesdir: .\n\n" + rc.Convert(doc)
		path := filepath.Join(dir, base+".adoc")
		return path, os.WriteFile(path, []byte(source), 0644)
	}

	if page.Body != nil && page.Body.Storage != nil && page.Body.Storage.Value != "" {
		d.logger.Warn("page has no ADF body, falling back to markdown", "page_id", page.ID)
		md, err := markdown.FromStorage(page.Body.Storage.Value)
		if err != nil {
			return "", fmt.Errorf("failed to convert storage body of %s: %w", page.ID, err)
		}
		source := "# " + page.Title + "\n\n" + md + "\n"
		path := filepath.Join(dir, base+".md")
		return path, os.WriteFile(path, []byte(source), 0644)
	}

	return "", fmt.Errorf("page %s has no body", page.ID)
}

func (d *downloader) collectAttachments(ctx context.Context, pageID string) ([]api.Attachment, error) {
	var all []api.Attachment
	cursor := ""
	for {
		result, err := d.client.ListAttachments(ctx, pageID, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list attachments of %s: %w", pageID, err)
		}
		all = append(all, result.Results...)
		if !result.HasMore() {
			return all, nil
		}
		cursor = nextCursor(result.Links.Next)
	}
}

func (d *downloader) downloadAttachments(ctx context.Context, attachments []api.Attachment, dir string) error {
	for _, att := range attachments {
		body, err := d.client.DownloadAttachment(ctx, att.ID)
		if err != nil {
			return fmt.Errorf("failed to download attachment %s: %w", att.Title, err)
		}
		path := filepath.Join(dir, sanitizeFilename(att.Title))
		f, err := os.Create(path)
		if err != nil {
			_ = body.Close()
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		_, err = io.Copy(f, body)
		_ = body.Close()
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		d.logger.Debug("attachment downloaded", "file", path)
	}
	return nil
}

var cursorPattern = regexp.MustCompile(`[?&]cursor=([^&]+)`)

// nextCursor pulls the cursor parameter out of a _links.next URL.
func nextCursor(next string) string {
	if m := cursorPattern.FindStringSubmatch(next); m != nil {
		return m[1]
	}
	return ""
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename maps a page or attachment title to a safe filename.
func sanitizeFilename(title string) string {
	name := unsafeFilename.ReplaceAllString(strings.TrimSpace(title), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "untitled"
	}
	return name
}
