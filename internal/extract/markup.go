package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var (
	// tagRegex detects HTML tags, comments and doctypes
	tagRegex = regexp.MustCompile(`<(?:[a-zA-Z][a-zA-Z0-9]*|/[a-zA-Z][a-zA-Z0-9]*|!)[^<>]*>`)
	// documentRegex detects full HTML documents
	documentRegex = regexp.MustCompile(`(?i)<(?:html|body)[\s>]`)
)

// StripMarkup reduces HTML in a payload field to its text.
// Full documents go through readability to drop navigation and other page
// chrome; fragments keep all of their text. Text without markup is returned
// unchanged.
func StripMarkup(text string) string {
	if !tagRegex.MatchString(text) {
		return text
	}

	if documentRegex.MatchString(text) {
		if content, err := extractMainText(text); err == nil && strings.TrimSpace(content) != "" {
			return content
		} else if err != nil {
			slog.Debug("Readability extraction failed, using all text", "error", err)
		}
	}

	all, err := extractAllText(text)
	if err != nil {
		slog.Debug("Markup parse failed, keeping raw text", "error", err)
		return text
	}
	return all
}

// extractMainText uses go-readability to extract the main article text
func extractMainText(document string) (string, error) {
	article, err := readability.FromReader(strings.NewReader(document), &url.URL{})
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// extractAllText returns the text of every node outside script and style
// elements, separated by spaces so adjacent blocks do not run together.
func extractAllText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(parts, " "), nil
}
