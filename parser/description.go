// Package parser turns job description markup into plain text for the
// classifier.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyDescription is returned when the markup holds no readable text
var ErrEmptyDescription = errors.New("job description is empty")

// blockTags end a line when rendered as text
var blockTags = "p, li, br, div, h1, h2, h3, h4, h5, h6, tr, section"

// DescriptionText renders description HTML as text. Block elements become
// line breaks so bullet lists stay readable in prompts.
func DescriptionText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse description: %w", err)
	}

	doc.Find("script, style, noscript, button").Remove()
	doc.Find(blockTags).Each(func(i int, s *goquery.Selection) {
		if goquery.NodeName(s) == "li" {
			s.PrependHtml("- ")
		}
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = normalizeWhitespace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", ErrEmptyDescription
	}
	return strings.Join(lines, "\n"), nil
}

// normalizeWhitespace replaces unicode whitespace with regular spaces and
// collapses runs of them
func normalizeWhitespace(text string) string {
	normalized := strings.Builder{}
	for _, r := range text {
		if unicode.IsSpace(r) {
			normalized.WriteRune(' ')
		} else {
			normalized.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(normalized.String()), " ")
}
