// Package convert provides the convert command: source document in,
// ADF JSON out.
package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adrpar/asciidoctor-confluence-adf/api"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/config"
	"github.com/adrpar/asciidoctor-confluence-adf/internal/logger"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/adf"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/asciidoc"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/macros"
	"github.com/adrpar/asciidoctor-confluence-adf/pkg/markdown"
)

type convertOptions struct {
	out       string
	attrs     []string
	emitTitle bool
	pretty    bool
	maxWidth  int
	verbose   bool
}

// NewCmdConvert creates the convert command.
func NewCmdConvert() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert an AsciiDoc or Markdown file to ADF JSON",
		Long: `Convert a document to Atlassian Document Format JSON.

AsciiDoc input goes through the full conversion pipeline, including
jira:, mention: and jiraIssuesTable:: macros when credentials are
configured. Files ending in .md or .markdown convert from Markdown
instead.`,
		Example: `  # Convert to stdout
  adf convert doc.adoc

  # Write to a file, pretty-printed
  adf convert doc.adoc -o doc.json --pretty

  # Override document attributes
  adf convert doc.adoc -a imagesdir=assets -a toc=auto`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.verbose, _ = cmd.Flags().GetBool("verbose")
			return runConvert(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringArrayVarP(&opts.attrs, "attr", "a", nil, "document attribute (key=value, repeatable)")
	cmd.Flags().BoolVar(&opts.emitTitle, "emit-title", false, "render the document title as a heading")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().IntVar(&opts.maxWidth, "max-width", 0, "clamp image widths to this many pixels")

	return cmd
}

func runConvert(input string, opts *convertOptions) error {
	log := newLogger(opts.verbose)

	doc, _, err := BuildDocument(input, BuildOptions{
		Attributes: parseAttrFlags(opts.attrs),
		EmitTitle:  opts.emitTitle,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	if opts.maxWidth > 0 {
		doc = adf.ClampImageWidths(doc, opts.maxWidth)
	}

	var data []byte
	if opts.pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = doc.Marshal()
	}
	if err != nil {
		return fmt.Errorf("failed to encode ADF document: %w", err)
	}

	if opts.out == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(opts.out, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}
	return nil
}

// BuildOptions configure the shared source-to-ADF pipeline.
type BuildOptions struct {
	Attributes map[string]string
	EmitTitle  bool
	Logger     *logger.Logger
}

// BuildDocument converts a source file to an ADF document. The parsed
// source document comes back too so callers can read its title and
// attributes; it is nil for Markdown input.
func BuildDocument(input string, opts BuildOptions) (*adf.Document, *asciidoc.Document, error) {
	source, err := os.ReadFile(input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", input, err)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	switch strings.ToLower(filepath.Ext(input)) {
	case ".md", ".markdown":
		doc, err := markdown.ToADF(source)
		return doc, nil, err
	}

	parser := asciidoc.NewParser()
	registerMacros(parser, opts.Attributes, opts.Logger)

	parsed, err := parser.Parse(string(source), asciidoc.ParseOptions{
		Attributes: opts.Attributes,
		BaseDir:    filepath.Dir(input),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", input, err)
	}

	converter := adf.NewConverter(adf.ConvertOptions{
		Parser:    parser,
		Logger:    opts.Logger,
		EmitTitle: opts.EmitTitle,
	})
	return converter.Convert(parsed), parsed, nil
}

// registerMacros wires the Atlassian macros into a parser. Jira-backed
// macros only activate when the config carries credentials; without
// them the macro text stays literal.
func registerMacros(parser *asciidoc.DocParser, attrs map[string]string, log *logger.Logger) {
	cfg, err := config.LoadWithEnv(config.DefaultConfigPath())
	if err != nil {
		cfg = &config.Config{}
	}
	resolver := config.NewResolver(attrs, cfg)

	var jira macros.IssueSearcher
	if cfg.Validate() == nil {
		jira = api.NewJira(cfg.JiraBaseURL(), cfg.Email, cfg.APIToken)
	} else {
		log.Debug("no valid credentials, Jira-backed macros stay literal")
	}
	macros.New(resolver, jira).Register(parser)
}

func newLogger(verbose bool) *logger.Logger {
	if verbose {
		return logger.NewWithLevel(os.Stderr, log.DebugLevel)
	}
	return logger.New(os.Stderr)
}

func parseAttrFlags(flags []string) map[string]string {
	attrs := make(map[string]string, len(flags))
	for _, f := range flags {
		if eq := strings.Index(f, "="); eq > 0 {
			attrs[f[:eq]] = f[eq+1:]
		} else {
			attrs[f] = ""
		}
	}
	return attrs
}
