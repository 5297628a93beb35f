package documents

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// htmlToText converts an HTML page into markdown text suitable for passage
// extraction. Non-content elements are stripped before conversion; the
// baseURL resolves relative links and may be empty for uploads.
func htmlToText(htmlContent string, baseURL string, logger arbor.ILogger) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Remove script and style elements
	doc.Find("script, style, nav, footer, aside").Remove()

	// Prefer the main content area when the page marks one
	content := doc.Find("main, article, body").First()
	if content.Length() == 0 {
		content = doc.Selection
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		fragment = htmlContent
	}

	mdConverter := md.NewConverter(baseURL, true, nil)
	converted, err := mdConverter.ConvertString(fragment)
	if err != nil {
		logger.Warn().Err(err).Msg("HTML to markdown conversion failed, using fallback")
		// Fallback: strip HTML tags
		return stripHTMLTags(htmlContent), nil
	}

	// Check for empty output
	trimmed := strings.TrimSpace(converted)
	if trimmed == "" && htmlContent != "" {
		logger.Warn().
			Int("html_length", len(htmlContent)).
			Msg("HTML to markdown conversion produced empty output, applying fallback")
		return stripHTMLTags(htmlContent), nil
	}

	return converted, nil
}

// stripHTMLTags removes basic HTML tags for fallback cases
func stripHTMLTags(htmlStr string) string {
	// Remove HTML tags using regex
	re := regexp.MustCompile(`<[^>]*>`)
	stripped := re.ReplaceAllString(htmlStr, "")

	// Clean up multiple whitespaces
	spaceRe := regexp.MustCompile(`\s+`)
	cleaned := spaceRe.ReplaceAllString(stripped, " ")

	// Decode HTML entities (basic set)
	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	return strings.TrimSpace(cleaned)
}
