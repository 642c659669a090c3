package markdown

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	storageMacroPattern = regexp.MustCompile(`<ac:structured-macro[^>]*ac:name="([^"]*)"[^>]*>.*?</ac:structured-macro>`)
	storageLinkPattern  = regexp.MustCompile(`<ac:link[^>]*>.*?</ac:link>`)
	pageRefPattern      = regexp.MustCompile(`<ri:page[^>]*/?>`)
	linkBodyPattern     = regexp.MustCompile(`<ac:plain-text-link-body><!\[CDATA\[(.*?)\]\]></ac:plain-text-link-body>`)
	paramPattern        = regexp.MustCompile(`<ac:parameter[^>]*>.*?</ac:parameter>|<ac:parameter[^>]*/>`)
)

// FromStorage converts Confluence storage format (XHTML) to markdown.
// It is the download fallback for pages whose bodies only expose the
// storage representation. Confluence macro markup has no markdown
// equivalent and renders as an uppercase placeholder in brackets.
func FromStorage(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	html = storageMacroPattern.ReplaceAllStringFunc(html, func(match string) string {
		m := storageMacroPattern.FindStringSubmatch(match)
		if len(m) > 1 && m[1] != "" {
			return "[" + strings.ToUpper(m[1]) + "]"
		}
		return "[MACRO]"
	})
	html = linkBodyPattern.ReplaceAllString(html, "$1")
	html = storageLinkPattern.ReplaceAllString(html, "")
	html = pageRefPattern.ReplaceAllString(html, "")
	html = paramPattern.ReplaceAllString(html, "")

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}
